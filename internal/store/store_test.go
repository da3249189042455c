package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/gonet/internal/cache"
	"github.com/voyagen/gonet/internal/models"
)

func newTestStore() (*Store, *Memory) {
	m := NewMemory()
	return New(m, zerolog.Nop()), m
}

func TestStore_EmptyDefaults(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	assert.NotNil(t, s.MediaItems(ctx))
	assert.Empty(t, s.MediaItems(ctx))
	assert.Empty(t, s.Playlists(ctx))
	assert.Empty(t, s.Users(ctx))
	assert.Empty(t, s.Notifications(ctx))
	assert.Equal(t, models.DefaultTicker(), s.Ticker(ctx))
	assert.Nil(t, s.Session(ctx))
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	items := []models.MediaItem{{ID: "m-1", Title: "A", URL: "http://a", Category: "News", Type: models.MediaTypeLive, Year: "2025"}}
	require.NoError(t, s.SetMediaItems(ctx, items))
	assert.Equal(t, items, s.MediaItems(ctx))

	ticker := models.TickerConfig{Text: "hello", Speed: 8, Enabled: true, Color: "gold"}
	require.NoError(t, s.SetTicker(ctx, ticker))
	assert.Equal(t, ticker, s.Ticker(ctx))

	sess := models.Session{Username: "ali", Plan: models.PlanGold, Expiry: "2027-01-01"}
	require.NoError(t, s.SetSession(ctx, sess))
	require.NotNil(t, s.Session(ctx))
	assert.Equal(t, sess, *s.Session(ctx))

	require.NoError(t, s.ClearSession(ctx))
	assert.Nil(t, s.Session(ctx))
}

func TestStore_CorruptValuesFallBack(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStore()

	for _, k := range []Key{KeyMediaItems, KeyPlaylists, KeyUsers, KeyNotifications, KeyTicker} {
		require.NoError(t, m.Put(ctx, string(k), []byte("{not json")))
	}

	assert.Empty(t, s.MediaItems(ctx))
	assert.Empty(t, s.Playlists(ctx))
	assert.Empty(t, s.Users(ctx))
	assert.Empty(t, s.Notifications(ctx))
	assert.Equal(t, models.DefaultTicker(), s.Ticker(ctx))

	// Corrupt catalog values are left in place.
	_, err := m.Get(ctx, string(KeyMediaItems))
	assert.NoError(t, err)
}

func TestStore_WrongShapeFallsBack(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStore()
	require.NoError(t, m.Put(ctx, string(KeyMediaItems), []byte(`{"id":"not-a-list"}`)))
	assert.Empty(t, s.MediaItems(ctx))

	require.NoError(t, m.Put(ctx, string(KeyMediaItems), []byte(`null`)))
	assert.NotNil(t, s.MediaItems(ctx))
	assert.Empty(t, s.MediaItems(ctx))
}

func TestStore_PartialTickerKeepsDefaults(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	require.NoError(t, s.PutRaw(ctx, KeyTicker, []byte(`{"text":"hello"}`)))

	tk := s.Ticker(ctx)
	assert.Equal(t, "hello", tk.Text)
	assert.Equal(t, models.DefaultTicker().Speed, tk.Speed)
	assert.Equal(t, models.TickerColorBlue, tk.Color)
}

func TestStore_OutOfRangeTickerIsRepaired(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	require.NoError(t, s.PutRaw(ctx, KeyTicker, []byte(`{"text":"hi","speed":42,"enabled":true,"color":"purple"}`)))

	tk := s.Ticker(ctx)
	assert.Equal(t, models.TickerConfig{Text: "hi", Speed: 5, Enabled: true, Color: models.TickerColorBlue}, tk)

	require.NoError(t, s.PutRaw(ctx, KeyTicker, []byte(`{"text":"hi","speed":10,"color":"gold"}`)))
	tk = s.Ticker(ctx)
	assert.Equal(t, 10, tk.Speed)
	assert.Equal(t, models.TickerColorGold, tk.Color)
}

func TestStore_CorruptSessionIsDeleted(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStore()
	require.NoError(t, m.Put(ctx, string(KeySession), []byte("garbage")))

	assert.Nil(t, s.Session(ctx))
	_, err := m.Get(ctx, string(KeySession))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_NotificationsCapped(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	var ns []models.AppNotification
	for i := 0; i < 8; i++ {
		ns = append(ns, models.AppNotification{ID: string(rune('a' + i))})
	}
	require.NoError(t, s.SetNotifications(ctx, ns))
	got := s.Notifications(ctx)
	require.Len(t, got, models.MaxNotifications)
	assert.Equal(t, "a", got[0].ID)
}

func TestStore_EverySaveEmitsOneEvent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	events, cancel := s.Subscribe()
	defer cancel()

	var saved []Key
	s.OnSave(func(k Key) { saved = append(saved, k) })

	require.NoError(t, s.SetPlaylists(ctx, nil))
	assertEvent(t, events)
	assertNoEvent(t, events)

	require.NoError(t, s.SetUsers(ctx, []models.UserAccount{{ID: "u-1"}}))
	assertEvent(t, events)

	require.NoError(t, s.Clear(ctx))
	assertEvent(t, events)
	assertNoEvent(t, events)

	assert.Equal(t, []Key{KeyPlaylists, KeyUsers, ""}, saved)
}

func TestStore_ClearResetsEverything(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	require.NoError(t, s.SetMediaItems(ctx, []models.MediaItem{{ID: "m-1"}}))
	require.NoError(t, s.SetTicker(ctx, models.TickerConfig{Speed: 2, Color: "red"}))
	require.NoError(t, s.SetSession(ctx, models.Session{Username: "admin"}))

	require.NoError(t, s.Clear(ctx))

	assert.Empty(t, s.MediaItems(ctx))
	assert.Equal(t, models.DefaultTicker(), s.Ticker(ctx))
	assert.Nil(t, s.Session(ctx))
	assert.Empty(t, s.Snapshot(ctx))
}

func TestStore_SnapshotAndPutRaw(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	require.NoError(t, s.SetTicker(ctx, models.TickerConfig{Speed: 3, Color: "green"}))

	snap := s.Snapshot(ctx)
	require.Contains(t, snap, KeyTicker)
	assert.NotContains(t, snap, KeyMediaItems)

	other, _ := newTestStore()
	for k, v := range snap {
		require.NoError(t, other.PutRaw(ctx, k, v))
	}
	assert.Equal(t, s.Ticker(ctx), other.Ticker(ctx))
}

type fakePublisher struct {
	events []cache.ChangeEvent
}

func (f *fakePublisher) Publish(_ context.Context, ev cache.ChangeEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func TestStore_NotifierReceivesChanges(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	pub := &fakePublisher{}
	s.SetNotifier(NewPublishNotifier(pub, "node-1"))

	require.NoError(t, s.SetMediaItems(ctx, nil))
	s.Broadcast()

	require.Len(t, pub.events, 1)
	assert.Equal(t, cache.ChangeEvent{Origin: "node-1", Key: string(KeyMediaItems)}, pub.events[0])
}

func assertEvent(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected change event")
	}
}

func assertNoEvent(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("unexpected change event")
	default:
	}
}
