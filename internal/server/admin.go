package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/voyagen/gonet/internal/backup"
	"github.com/voyagen/gonet/internal/fetcher"
	"github.com/voyagen/gonet/internal/models"
	"github.com/voyagen/gonet/internal/service"
)

// maxUploadBytes bounds playlist uploads and restores.
const maxUploadBytes = fetcher.MaxPlaylistBytes

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.admin.Stats(r.Context()))
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.admin.Playlists(r.Context()))
}

// handleUploadPlaylist accepts either a raw M3U body or a multipart form
// with a "file" part.
func (s *Server) handleUploadPlaylist(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	body := io.Reader(r.Body)

	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("file: %w", err))
			return
		}
		defer file.Close()
		if name == "" {
			name = header.Filename
		}
		body = file
	}

	pl, err := s.ingester.IngestReader(r.Context(), body, service.Source{Name: name, Kind: models.SourceKindFile})
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		s.serverError(w, fmt.Errorf("ingest: %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, pl)
}

type syncRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

func (s *Server) handleSyncPlaylist(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	pl, err := s.ingester.Sync(r.Context(), req.URL, req.Name)
	switch {
	case errors.Is(err, service.ErrFetchFailed):
		writeErr(w, http.StatusBadGateway, err)
	case errors.Is(err, service.ErrInvalid):
		writeErr(w, http.StatusBadRequest, err)
	case err != nil:
		s.serverError(w, fmt.Errorf("sync: %w", err))
	default:
		writeJSON(w, http.StatusCreated, pl)
	}
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.admin.Users(r.Context()))
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.NewUser
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	u, err := s.admin.CreateUser(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalid) {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleUpdateTicker(w http.ResponseWriter, r *http.Request) {
	var req models.TickerConfig
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	t, err := s.admin.UpdateTicker(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalid) {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type notificationRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (s *Server) handleSendNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	sent, err := s.admin.SendNotification(r.Context(), req.Title, req.Message, req.Type)
	if err != nil {
		if errors.Is(err, service.ErrInvalid) {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		s.serverError(w, err)
		return
	}
	status := http.StatusOK
	if sent {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]bool{"sent": sent})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.Reset(r.Context()); err != nil {
		s.serverError(w, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition", `attachment; filename="gonet-backup.zst"`)
	w.WriteHeader(http.StatusOK)
	if err := backup.Write(w, s.store.Snapshot(r.Context())); err != nil {
		s.log.Error().Err(err).Msg("backup")
	}
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	snap, err := backup.Read(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := backup.Restore(r.Context(), s.store, snap); err != nil {
		s.serverError(w, err)
		return
	}
	s.log.Warn().Int("keys", len(snap)).Msg("store restored from backup")
	writeNoContent(w)
}
