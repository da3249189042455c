package server

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jamesnetherton/m3u"

	"github.com/voyagen/gonet/internal/models"
	"github.com/voyagen/gonet/internal/service"
	"github.com/voyagen/gonet/internal/store"
)

func (s *Server) filterFromQuery(r *http.Request) (service.Filter, error) {
	t, err := parseType(r)
	if err != nil {
		return service.Filter{}, err
	}
	limit, err := parseInt(r, "limit")
	if err != nil {
		return service.Filter{}, err
	}
	offset, err := parseInt(r, "offset")
	if err != nil {
		return service.Filter{}, err
	}
	q := r.URL.Query()
	return service.Filter{
		Query:    q.Get("q"),
		Type:     t,
		Category: q.Get("category"),
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func (s *Server) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	f, err := s.filterFromQuery(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.List(r.Context(), f))
}

type itemResponse struct {
	Item    models.MediaItem   `json:"item"`
	Related []models.MediaItem `json:"related"`
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	it, rel, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("item %s not found", id))
			return
		}
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Item: it, Related: rel})
}

func (s *Server) handleCatalogGroups(w http.ResponseWriter, r *http.Request) {
	t, err := parseType(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.Groups(r.Context(), t))
}

// handleExportM3U renders the (optionally filtered) catalog as an M3U playlist.
func (s *Server) handleExportM3U(w http.ResponseWriter, r *http.Request) {
	f, err := s.filterFromQuery(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	items := f.Match(s.catalog.Items(r.Context()))

	w.Header().Set("Content-Type", "audio/x-mpegurl; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="gonet.m3u"`)
	w.WriteHeader(http.StatusOK)
	if err := m3u.MarshallInto(toPlaylist(items), bufio.NewWriter(w)); err != nil {
		s.log.Warn().Err(err).Msg("export m3u")
	}
}

func toPlaylist(items []models.MediaItem) m3u.Playlist {
	p := m3u.Playlist{Tracks: make([]m3u.Track, 0, len(items))}
	for _, it := range items {
		tr := m3u.Track{Name: it.Title, Length: -1, URI: it.URL}
		if it.Thumbnail != "" {
			tr.Tags = append(tr.Tags, m3u.Tag{Name: "tvg-logo", Value: it.Thumbnail})
		}
		if it.Category != "" {
			tr.Tags = append(tr.Tags, m3u.Tag{Name: "group-title", Value: it.Category})
		}
		p.Tracks = append(p.Tracks, tr)
	}
	return p
}

func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Ticker(r.Context()))
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Notifications(r.Context()))
}

// handleEvents streams one server-sent event per store change until the
// client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	events, cancel := s.store.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		return
	}

	keepAlive := time.NewTicker(s.keepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: {}\n\n", store.EventDataUpdated)
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
