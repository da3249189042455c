package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/voyagen/gonet/internal/store"
)

var fixedNow = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(store.NewMemory(), zerolog.Nop())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func drain(ch <-chan struct{}) int {
	n := 0
	for {
		select {
		case <-ch:
			n++
		default:
			return n
		}
	}
}
