package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/voyagen/gonet/internal/models"
)

// Key names a persisted value.
type Key string

// Persisted keys.
const (
	KeyMediaItems    Key = "gonet_media_items"
	KeyPlaylists     Key = "gonet_playlists"
	KeyUsers         Key = "gonet_users"
	KeyTicker        Key = "gonet_ticker"
	KeyNotifications Key = "gonet_notifications"
	KeySession       Key = "gonet_auth"
)

// AllKeys lists every persisted key.
var AllKeys = []Key{KeyMediaItems, KeyPlaylists, KeyUsers, KeyTicker, KeyNotifications, KeySession}

// ErrNotFound is returned by a Backend when a key has no value.
var ErrNotFound = errors.New("not found")

// Backend stores raw values by key.
type Backend interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put overwrites the value for key.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every key.
	Clear(ctx context.Context) error
	// Close releases the backend's resources.
	Close() error
}

// Notifier propagates change events beyond this process.
type Notifier interface {
	NotifyChange(ctx context.Context, key Key) error
}

// Store is the typed catalog store. Loads never fail: missing, unreadable or
// corrupt values fall back to the key's default. Every write is followed by
// exactly one change event.
type Store struct {
	backend  Backend
	events   *Broadcaster
	notifier Notifier
	onSave   func(Key)
	log      zerolog.Logger
}

// New creates a Store over b.
func New(b Backend, log zerolog.Logger) *Store {
	return &Store{
		backend: b,
		events:  NewBroadcaster(),
		log:     log.With().Str("component", "store").Logger(),
	}
}

// SetNotifier sets the cross-process notifier. nil disables it.
func (s *Store) SetNotifier(n Notifier) { s.notifier = n }

// OnSave registers fn to be called with the key of every successful write.
func (s *Store) OnSave(fn func(Key)) { s.onSave = fn }

// Close closes the backend.
func (s *Store) Close() error { return s.backend.Close() }

// Subscribe registers an observer of change events. The returned cancel
// function must be called to release it.
func (s *Store) Subscribe() (<-chan struct{}, func()) { return s.events.Subscribe() }

// Broadcast signals local observers without writing. Used for events that
// originate in another process.
func (s *Store) Broadcast() { s.events.Broadcast() }

// --- typed accessors ---

// MediaItems returns the catalog.
func (s *Store) MediaItems(ctx context.Context) []models.MediaItem {
	return load(ctx, s, KeyMediaItems, []models.MediaItem{})
}

// SetMediaItems replaces the catalog.
func (s *Store) SetMediaItems(ctx context.Context, items []models.MediaItem) error {
	if items == nil {
		items = []models.MediaItem{}
	}
	return s.save(ctx, KeyMediaItems, items)
}

// Playlists returns the playlist sources.
func (s *Store) Playlists(ctx context.Context) []models.Playlist {
	return load(ctx, s, KeyPlaylists, []models.Playlist{})
}

// SetPlaylists replaces the playlist sources.
func (s *Store) SetPlaylists(ctx context.Context, pls []models.Playlist) error {
	if pls == nil {
		pls = []models.Playlist{}
	}
	return s.save(ctx, KeyPlaylists, pls)
}

// Users returns the user accounts.
func (s *Store) Users(ctx context.Context) []models.UserAccount {
	return load(ctx, s, KeyUsers, []models.UserAccount{})
}

// SetUsers replaces the user accounts.
func (s *Store) SetUsers(ctx context.Context, users []models.UserAccount) error {
	if users == nil {
		users = []models.UserAccount{}
	}
	return s.save(ctx, KeyUsers, users)
}

// Ticker returns the ticker configuration. Missing fields take their
// default and an out-of-range speed or unknown color is reset.
func (s *Store) Ticker(ctx context.Context) models.TickerConfig {
	return load(ctx, s, KeyTicker, models.DefaultTicker()).Normalized()
}

// SetTicker replaces the ticker configuration.
func (s *Store) SetTicker(ctx context.Context, t models.TickerConfig) error {
	return s.save(ctx, KeyTicker, t)
}

// Notifications returns the notification history, newest first.
func (s *Store) Notifications(ctx context.Context) []models.AppNotification {
	return load(ctx, s, KeyNotifications, []models.AppNotification{})
}

// SetNotifications replaces the notification history, keeping at most
// models.MaxNotifications entries.
func (s *Store) SetNotifications(ctx context.Context, ns []models.AppNotification) error {
	if ns == nil {
		ns = []models.AppNotification{}
	}
	if len(ns) > models.MaxNotifications {
		ns = ns[:models.MaxNotifications]
	}
	return s.save(ctx, KeyNotifications, ns)
}

// Session returns the current session, or nil when nobody is logged in.
// A corrupt session value is deleted.
func (s *Store) Session(ctx context.Context) *models.Session {
	raw, ok := s.raw(ctx, KeySession)
	if !ok {
		return nil
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.log.Warn().Err(err).Str("key", string(KeySession)).Msg("corrupt session, deleting")
		if err := s.backend.Delete(ctx, string(KeySession)); err != nil {
			s.log.Error().Err(err).Msg("delete corrupt session")
		}
		return nil
	}
	return &sess
}

// SetSession persists sess as the current session.
func (s *Store) SetSession(ctx context.Context, sess models.Session) error {
	return s.save(ctx, KeySession, sess)
}

// ClearSession removes the current session.
func (s *Store) ClearSession(ctx context.Context) error {
	if err := s.backend.Delete(ctx, string(KeySession)); err != nil {
		return fmt.Errorf("delete %s: %w", KeySession, err)
	}
	s.changed(ctx, KeySession)
	return nil
}

// Clear wipes every key and emits a single change event.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Clear(ctx); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	s.changed(ctx, "")
	return nil
}

// --- raw access ---

// Raw returns the stored bytes for key and whether a value exists.
func (s *Store) Raw(ctx context.Context, key Key) ([]byte, bool) {
	return s.raw(ctx, key)
}

// PutRaw stores data under key without validation.
func (s *Store) PutRaw(ctx context.Context, key Key, data []byte) error {
	if err := s.backend.Put(ctx, string(key), data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.changed(ctx, key)
	return nil
}

// Snapshot returns the raw bytes of every key that has a value.
func (s *Store) Snapshot(ctx context.Context) map[Key][]byte {
	snap := make(map[Key][]byte, len(AllKeys))
	for _, k := range AllKeys {
		if raw, ok := s.raw(ctx, k); ok {
			snap[k] = raw
		}
	}
	return snap
}

// --- helpers ---

func (s *Store) raw(ctx context.Context, key Key) ([]byte, bool) {
	raw, err := s.backend.Get(ctx, string(key))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn().Err(err).Str("key", string(key)).Msg("read failed, using default")
		}
		return nil, false
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func load[T any](ctx context.Context, s *Store, key Key, def T) T {
	raw, ok := s.raw(ctx, key)
	if !ok {
		return def
	}
	v := def
	if err := json.Unmarshal(raw, &v); err != nil {
		s.log.Warn().Err(err).Str("key", string(key)).Msg("corrupt value, using default")
		return def
	}
	return v
}

func (s *Store) save(ctx context.Context, key Key, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.backend.Put(ctx, string(key), data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.changed(ctx, key)
	return nil
}

// changed fires the local change event and forwards it to the notifier.
func (s *Store) changed(ctx context.Context, key Key) {
	if s.onSave != nil {
		s.onSave(key)
	}
	s.events.Broadcast()
	if s.notifier != nil {
		if err := s.notifier.NotifyChange(ctx, key); err != nil {
			s.log.Warn().Err(err).Msg("notify change")
		}
	}
}
