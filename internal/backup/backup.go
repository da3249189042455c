// Package backup dumps and restores every persisted key as a
// zstd-compressed JSON document.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/voyagen/gonet/internal/store"
)

// FormatVersion is written into every dump.
const FormatVersion = 1

// MaxDumpBytes bounds the decompressed size of a dump.
const MaxDumpBytes = 256 << 20

var (
	// ErrUnsupportedVersion is returned when a dump was written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported backup version")
	// ErrTooLarge is returned when a dump decompresses past its limit.
	ErrTooLarge = errors.New("backup too large")
)

type document struct {
	Version   int               `json:"version"`
	CreatedAt string            `json:"createdAt"`
	Keys      map[string][]byte `json:"keys"`
}

// Write encodes snap to w.
func Write(w io.Writer, snap map[store.Key][]byte) error {
	doc := document{
		Version:   FormatVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Keys:      make(map[string][]byte, len(snap)),
	}
	for k, v := range snap {
		doc.Keys[string(k)] = v
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("Marshal: %w", err)
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("zstd.NewWriter: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return fmt.Errorf("Write: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return nil
}

// Read decodes a dump produced by Write. Keys this build does not know
// are dropped.
func Read(r io.Reader) (map[store.Key][]byte, error) {
	return readLimit(r, MaxDumpBytes)
}

func readLimit(r io.Reader, limit int64) (map[store.Key][]byte, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderMaxMemory(MaxDumpBytes))
	if err != nil {
		return nil, fmt.Errorf("zstd.NewReader: %w", err)
	}
	defer dec.Close()
	data, err := io.ReadAll(io.LimitReader(dec, limit+1))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, limit)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("Unmarshal: %w", err)
	}
	if doc.Version > FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	snap := make(map[store.Key][]byte, len(doc.Keys))
	for _, k := range store.AllKeys {
		if v, ok := doc.Keys[string(k)]; ok {
			snap[k] = v
		}
	}
	return snap, nil
}

// SaveFile writes snap to path atomically.
func SaveFile(path string, snap map[store.Key][]byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("CreateTemp: %w", err)
	}
	tmpName := tmp.Name()
	if err := Write(tmp, snap); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("Sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("Close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("Rename: %w", err)
	}
	return nil
}

// LoadFile reads a dump from path.
func LoadFile(path string) (map[store.Key][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Restore wipes s and writes every key in snap.
func Restore(ctx context.Context, s *store.Store, snap map[store.Key][]byte) error {
	if err := s.Clear(ctx); err != nil {
		return fmt.Errorf("Clear: %w", err)
	}
	for _, k := range store.AllKeys {
		v, ok := snap[k]
		if !ok {
			continue
		}
		if err := s.PutRaw(ctx, k, v); err != nil {
			return fmt.Errorf("PutRaw %s: %w", k, err)
		}
	}
	return nil
}
