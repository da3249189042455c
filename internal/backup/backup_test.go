package backup

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/gonet/internal/models"
	"github.com/voyagen/gonet/internal/store"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s := store.New(store.NewMemory(), zerolog.Nop())
	require.NoError(t, s.SetMediaItems(ctx, []models.MediaItem{{ID: "m-1", Title: "Al Jazeera", Type: models.MediaTypeLive}}))
	require.NoError(t, s.SetTicker(ctx, models.TickerConfig{Text: "hi", Speed: 4, Color: "red"}))
	require.NoError(t, s.SetSession(ctx, models.Session{Username: "admin"}))
	return s
}

func TestWriteRead(t *testing.T) {
	ctx := context.Background()
	src := seededStore(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src.Snapshot(ctx)))

	snap, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, src.Snapshot(ctx), snap)
}

func TestRead_DropsUnknownKeysAndRejectsNewer(t *testing.T) {
	raw, err := json.Marshal(document{Version: FormatVersion, Keys: map[string][]byte{
		"gonet_ticker": []byte(`{"speed":3,"color":"gold"}`),
		"other_app":    []byte("x"),
	}})
	require.NoError(t, err)
	snap, err := Read(bytes.NewReader(compress(t, raw)))
	require.NoError(t, err)
	assert.Len(t, snap, 1)
	assert.Contains(t, snap, store.KeyTicker)

	raw, err = json.Marshal(document{Version: FormatVersion + 1})
	require.NoError(t, err)
	_, err = Read(bytes.NewReader(compress(t, raw)))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestRead_StopsAtDecompressedLimit(t *testing.T) {
	raw, err := json.Marshal(document{Version: FormatVersion, Keys: map[string][]byte{
		"gonet_media_items": bytes.Repeat([]byte("a"), 64<<10),
	}})
	require.NoError(t, err)
	packed := compress(t, raw)
	require.Less(t, len(packed), 4<<10)

	_, err = readLimit(bytes.NewReader(packed), 4<<10)
	assert.ErrorIs(t, err, ErrTooLarge)

	snap, err := readLimit(bytes.NewReader(packed), 1<<20)
	require.NoError(t, err)
	assert.Len(t, snap[store.KeyMediaItems], 64<<10)
}

func TestRead_Garbage(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not zstd at all")))
	assert.Error(t, err)
}

func TestSaveLoadRestore(t *testing.T) {
	ctx := context.Background()
	src := seededStore(t)
	path := filepath.Join(t.TempDir(), "gonet.zst")

	require.NoError(t, SaveFile(path, src.Snapshot(ctx)))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not remain")

	snap, err := LoadFile(path)
	require.NoError(t, err)

	dst := store.New(store.NewMemory(), zerolog.Nop())
	require.NoError(t, dst.SetUsers(ctx, []models.UserAccount{{ID: "u-stale"}}))
	require.NoError(t, Restore(ctx, dst, snap))

	assert.Equal(t, src.MediaItems(ctx), dst.MediaItems(ctx))
	assert.Equal(t, src.Ticker(ctx), dst.Ticker(ctx))
	assert.Equal(t, src.Session(ctx), dst.Session(ctx))
	assert.Empty(t, dst.Users(ctx))
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "none.zst"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}
