package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	apperrors "github.com/fetchdeck/backend/internal/errors"
	"github.com/fetchdeck/backend/internal/logger"
)

// NewRouter wires the HTTP surface. health and wsHandler are optional:
// a nil health falls back to a bare liveness response and a nil
// wsHandler leaves /ws unrouted.
func NewRouter(h *Handlers, health http.HandlerFunc, wsHandler http.HandlerFunc) *mux.Router {
	r := mux.NewRouter()
	r.Use(apperrors.RequestIDMiddleware)
	r.Use(logger.RecoveryMiddleware)
	r.Use(logger.LoggingMiddleware)

	if health == nil {
		health = healthHandler
	}
	r.HandleFunc("/health", health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.Handle("/downloads", apperrors.HandleFunc(h.CreateDownload)).Methods(http.MethodPost)
	v1.Handle("/downloads/file", apperrors.HandleFunc(h.CreateFileDownload)).Methods(http.MethodPost)
	v1.Handle("/downloads/playlist", apperrors.HandleFunc(h.CreatePlaylistDownload)).Methods(http.MethodPost)
	v1.Handle("/downloads", apperrors.HandleFunc(h.ListDownloads)).Methods(http.MethodGet)
	v1.Handle("/downloads/{id}", apperrors.HandleFunc(h.GetDownload)).Methods(http.MethodGet)
	v1.Handle("/downloads/{id}", apperrors.HandleFunc(h.CancelDownload)).Methods(http.MethodDelete)
	v1.Handle("/downloads/{id}/pause", apperrors.HandleFunc(h.PauseDownload)).Methods(http.MethodPost)
	v1.Handle("/downloads/{id}/resume", apperrors.HandleFunc(h.ResumeDownload)).Methods(http.MethodPost)
	v1.Handle("/downloads/{id}/top", apperrors.HandleFunc(h.MoveToTop)).Methods(http.MethodPost)
	v1.Handle("/downloads/{id}/retry", apperrors.HandleFunc(h.RetryDownload)).Methods(http.MethodPost)

	v1.Handle("/playlists/{id}/pause", apperrors.HandleFunc(h.PausePlaylist)).Methods(http.MethodPost)
	v1.Handle("/playlists/{id}/resume", apperrors.HandleFunc(h.ResumePlaylist)).Methods(http.MethodPost)
	v1.Handle("/playlists/{id}", apperrors.HandleFunc(h.CancelPlaylist)).Methods(http.MethodDelete)

	v1.Handle("/queue/pause", apperrors.HandleFunc(h.PauseQueue)).Methods(http.MethodPost)
	v1.Handle("/queue/resume", apperrors.HandleFunc(h.ResumeQueue)).Methods(http.MethodPost)
	v1.Handle("/queue/toggle", apperrors.HandleFunc(h.ToggleQueue)).Methods(http.MethodPost)
	v1.Handle("/queue/clear-finished", apperrors.HandleFunc(h.ClearFinished)).Methods(http.MethodPost)
	v1.Handle("/queue/stats", apperrors.HandleFunc(h.QueueStats)).Methods(http.MethodGet)

	v1.Handle("/resolve", apperrors.HandleFunc(h.ResolveURL)).Methods(http.MethodPost)

	if wsHandler != nil {
		r.HandleFunc("/ws", wsHandler)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}
