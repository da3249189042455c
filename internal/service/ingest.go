package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voyagen/gonet/internal/classifier"
	"github.com/voyagen/gonet/internal/fetcher"
	"github.com/voyagen/gonet/internal/metrics"
	"github.com/voyagen/gonet/internal/models"
	"github.com/voyagen/gonet/internal/store"
)

// Default source names.
const (
	DefaultUploadName = "Local Upload"
	DefaultSyncName   = "GoNet Cloud Sync"
)

// Source describes where a batch of entries came from.
type Source struct {
	Name string
	Kind string // models.SourceKindURL or models.SourceKindFile
	URL  string
}

// MergeResult is the catalog state after one ingestion.
type MergeResult struct {
	Items     []models.MediaItem
	Playlists []models.Playlist
	Playlist  models.Playlist
}

// Merge appends fresh to existing and records a new playlist for src.
// Duplicates are kept: ingesting the same playlist twice doubles its
// entries. A playlist with zero entries is still recorded.
func Merge(existing []models.MediaItem, playlists []models.Playlist, fresh []models.MediaItem, src Source, now time.Time) MergeResult {
	url := src.URL
	if src.Kind == models.SourceKindFile || url == "" {
		url = models.LocalSourceURL
	}
	pl := models.Playlist{
		ID:            models.PlaylistIDPrefix + uuid.NewString(),
		Name:          src.Name,
		URL:           url,
		Status:        models.PlaylistStatusActive,
		ChannelsCount: len(fresh),
		Type:          src.Kind,
		CreatedAt:     now.UTC().Format(time.RFC3339),
	}

	items := make([]models.MediaItem, 0, len(existing)+len(fresh))
	items = append(items, existing...)
	items = append(items, fresh...)

	pls := make([]models.Playlist, 0, len(playlists)+1)
	pls = append(pls, playlists...)
	pls = append(pls, pl)

	return MergeResult{Items: items, Playlists: pls, Playlist: pl}
}

// FetchFunc downloads and parses a remote playlist.
type FetchFunc func(ctx context.Context, url, userAgent string, timeout time.Duration) ([]fetcher.RawEntry, error)

// Ingester runs the parse, classify, merge and persist pipeline.
type Ingester struct {
	store       *store.Store
	fetch       FetchFunc
	userAgent   string
	timeout     time.Duration
	providerURL string
	metrics     metrics.Recorder
	log         zerolog.Logger
	now         func() time.Time
}

// IngesterOptions configures remote sync.
type IngesterOptions struct {
	UserAgent   string
	Timeout     time.Duration
	ProviderURL string
	Metrics     metrics.Recorder
	// Fetch overrides fetcher.FetchM3U.
	Fetch FetchFunc
}

// NewIngester creates an Ingester writing to s.
func NewIngester(s *store.Store, opts IngesterOptions, log zerolog.Logger) *Ingester {
	ing := &Ingester{
		store:       s,
		fetch:       opts.Fetch,
		userAgent:   opts.UserAgent,
		timeout:     opts.Timeout,
		providerURL: opts.ProviderURL,
		metrics:     opts.Metrics,
		log:         log.With().Str("component", "ingest").Logger(),
		now:         time.Now,
	}
	if ing.fetch == nil {
		ing.fetch = fetcher.FetchM3U
	}
	if ing.metrics == nil {
		ing.metrics = metrics.Nop{}
	}
	return ing
}

// IngestText ingests playlist text already in memory.
func (ing *Ingester) IngestText(ctx context.Context, text, name, kind, url string) (models.Playlist, error) {
	return ing.IngestReader(ctx, strings.NewReader(text), Source{Name: name, Kind: kind, URL: url})
}

// IngestReader parses r and merges the result into the catalog.
func (ing *Ingester) IngestReader(ctx context.Context, r io.Reader, src Source) (models.Playlist, error) {
	if src.Kind == "" {
		src.Kind = models.SourceKindFile
	}
	if strings.TrimSpace(src.Name) == "" {
		src.Name = DefaultUploadName
	}
	entries, err := fetcher.ParseM3U(r)
	if err != nil {
		ing.metrics.IncIngest(src.Kind, "error")
		return models.Playlist{}, fmt.Errorf("ParseM3U: %w", err)
	}
	return ing.commit(ctx, entries, src)
}

// Sync fetches url (or the configured provider URL) and merges it. On fetch
// failure the store is left untouched and the error wraps ErrFetchFailed.
func (ing *Ingester) Sync(ctx context.Context, url, name string) (models.Playlist, error) {
	if url = strings.TrimSpace(url); url == "" {
		url = ing.providerURL
	}
	if url == "" {
		return models.Playlist{}, fmt.Errorf("%w: no playlist URL given and no provider configured", ErrInvalid)
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultSyncName
	}
	entries, err := ing.fetch(ctx, url, ing.userAgent, ing.timeout)
	if err != nil {
		ing.metrics.IncIngest(models.SourceKindURL, "error")
		ing.log.Warn().Err(err).Str("name", name).Msg("remote sync failed")
		return models.Playlist{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return ing.commit(ctx, entries, Source{Name: name, Kind: models.SourceKindURL, URL: url})
}

// commit saves the catalog before the playlist record, so a failed save
// never leaves a playlist whose entries are missing. If the playlist save
// fails after the catalog save, the entries stay without a source record.
func (ing *Ingester) commit(ctx context.Context, entries []fetcher.RawEntry, src Source) (models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return models.Playlist{}, fmt.Errorf("ingest cancelled: %w", err)
	}
	fresh := classifier.Apply(entries)
	res := Merge(ing.store.MediaItems(ctx), ing.store.Playlists(ctx), fresh, src, ing.now())

	if err := ing.store.SetMediaItems(ctx, res.Items); err != nil {
		ing.metrics.IncIngest(src.Kind, "error")
		return models.Playlist{}, fmt.Errorf("SetMediaItems: %w", err)
	}
	if err := ing.store.SetPlaylists(ctx, res.Playlists); err != nil {
		ing.metrics.IncIngest(src.Kind, "error")
		return models.Playlist{}, fmt.Errorf("SetPlaylists: %w", err)
	}

	ing.metrics.IncIngest(src.Kind, "ok")
	ing.metrics.AddItemsIngested(src.Kind, len(fresh))
	ing.metrics.SetCatalogSize(len(res.Items))
	ing.log.Info().
		Str("playlist", res.Playlist.ID).
		Str("name", src.Name).
		Str("kind", src.Kind).
		Int("entries", len(fresh)).
		Int("catalog", len(res.Items)).
		Msg("playlist merged")
	return res.Playlist, nil
}
