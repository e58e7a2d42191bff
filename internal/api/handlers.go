package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	apperrors "github.com/fetchdeck/backend/internal/errors"
	"github.com/fetchdeck/backend/internal/queue"
	"github.com/fetchdeck/backend/internal/validators"
)

// PlaylistExpander resolves a playlist URL into its member entries.
// Implemented by the yt-dlp bridge; stubbed in tests.
type PlaylistExpander interface {
	ExpandPlaylist(ctx context.Context, playlistURL string) (string, []queue.PlaylistEntry, error)
}

type Handlers struct {
	store    *queue.Store
	expander PlaylistExpander
}

func NewHandlers(store *queue.Store, expander PlaylistExpander) *Handlers {
	return &Handlers{
		store:    store,
		expander: expander,
	}
}

// CreateDownloadRequest represents the request body for creating a download
type CreateDownloadRequest struct {
	URL         string `json:"url"`
	Mode        string `json:"mode,omitempty"`
	Quality     string `json:"quality,omitempty"`
	Format      string `json:"format,omitempty"`
	OutputDir   string `json:"output_dir,omitempty"`
	CookiesFile string `json:"cookies_file,omitempty"`
	EmbedMeta   bool   `json:"embed_metadata,omitempty"`
}

func (req *CreateDownloadRequest) options() queue.Options {
	return queue.Options{
		Mode:        req.Mode,
		Quality:     req.Quality,
		Format:      req.Format,
		OutputDir:   req.OutputDir,
		CookiesFile: req.CookiesFile,
		EmbedMeta:   req.EmbedMeta,
	}
}

// CreateDownloadResponse represents the response for a created download
type CreateDownloadResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreatePlaylistResponse represents the response for a created playlist
type CreatePlaylistResponse struct {
	PlaylistID string   `json:"playlist_id"`
	Title      string   `json:"title"`
	IDs        []string `json:"ids"`
	Count      int      `json:"count"`
}

// QueueStatsResponse summarizes queue composition
type QueueStatsResponse struct {
	Total       int            `json:"total"`
	Pending     int            `json:"pending"`
	ByStatus    map[string]int `json:"by_status"`
	QueuePaused bool           `json:"queue_paused"`
}

// ListResponse is the full queue view. Active carries the standalone
// items that are waiting or in flight, in dispatch order; playlist
// members appear only through their group in Queue.
type ListResponse struct {
	Queue  queue.GroupedView `json:"queue"`
	Active []queue.Item      `json:"active"`
	Paused bool              `json:"paused"`
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.BadRequest("invalid request body")
	}
	return nil
}

// mapAddError translates store sentinels into API errors
func mapAddError(err error) error {
	switch {
	case errors.Is(err, queue.ErrDuplicate):
		return apperrors.DuplicateDownload()
	case errors.Is(err, validators.ErrInvalidURL):
		return apperrors.ValidationError("url is not valid")
	case errors.Is(err, queue.ErrClosed):
		return apperrors.InternalError("queue is shutting down")
	default:
		return apperrors.InternalError("failed to add download").WithCause(err)
	}
}

// CreateDownload handles POST /api/v1/downloads
func (h *Handlers) CreateDownload(w http.ResponseWriter, r *http.Request) error {
	var req CreateDownloadRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if req.URL == "" {
		return apperrors.BadRequest("url is required")
	}

	if result := validators.Resolve(req.URL); result.IsPlaylist() {
		return apperrors.ValidationError("url points at a playlist, use the playlist endpoint")
	}

	id, err := h.store.Add(req.URL, req.options())
	if err != nil {
		return mapAddError(err)
	}

	apperrors.WriteJSON(w, requestID(r), http.StatusCreated, CreateDownloadResponse{
		ID:     id,
		Status: string(queue.StatusPending),
	})
	return nil
}

// CreateFileDownload handles POST /api/v1/downloads/file
func (h *Handlers) CreateFileDownload(w http.ResponseWriter, r *http.Request) error {
	var req CreateDownloadRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if req.URL == "" {
		return apperrors.BadRequest("url is required")
	}

	id, err := h.store.AddFile(req.URL, req.options())
	if err != nil {
		return mapAddError(err)
	}

	apperrors.WriteJSON(w, requestID(r), http.StatusCreated, CreateDownloadResponse{
		ID:     id,
		Status: string(queue.StatusPending),
	})
	return nil
}

// CreatePlaylistDownload handles POST /api/v1/downloads/playlist. The
// playlist is expanded synchronously so the response carries every
// member ID.
func (h *Handlers) CreatePlaylistDownload(w http.ResponseWriter, r *http.Request) error {
	var req CreateDownloadRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if req.URL == "" {
		return apperrors.BadRequest("url is required")
	}

	result := validators.Resolve(req.URL)
	if !result.Valid {
		return apperrors.ValidationError(result.Error)
	}
	playlistURL := result.Canonical
	if playlistURL == "" {
		playlistURL = req.URL
	}

	title, entries, err := h.expander.ExpandPlaylist(r.Context(), playlistURL)
	if err != nil {
		return apperrors.PlaylistExpandFailed("failed to expand playlist").WithCause(err)
	}
	if len(entries) == 0 {
		return apperrors.ValidationError("playlist has no downloadable entries")
	}

	playlistID, ids, err := h.store.AddPlaylist(title, entries, req.options())
	if err != nil {
		return mapAddError(err)
	}

	apperrors.WriteJSON(w, requestID(r), http.StatusCreated, CreatePlaylistResponse{
		PlaylistID: playlistID,
		Title:      title,
		IDs:        ids,
		Count:      len(ids),
	})
	return nil
}

// ListDownloads handles GET /api/v1/downloads
func (h *Handlers) ListDownloads(w http.ResponseWriter, r *http.Request) error {
	apperrors.WriteJSON(w, requestID(r), http.StatusOK, ListResponse{
		Queue:  h.store.Grouped(),
		Active: h.store.ActiveDownloads(),
		Paused: h.store.IsPaused(),
	})
	return nil
}

// GetDownload handles GET /api/v1/downloads/{id}
func (h *Handlers) GetDownload(w http.ResponseWriter, r *http.Request) error {
	item, ok := h.store.Get(mux.Vars(r)["id"])
	if !ok {
		return apperrors.DownloadNotFound()
	}
	apperrors.WriteJSON(w, requestID(r), http.StatusOK, item)
	return nil
}

// CancelDownload handles DELETE /api/v1/downloads/{id}. Cancelling an
// unknown ID is a no-op so retried deletes stay safe.
func (h *Handlers) CancelDownload(w http.ResponseWriter, r *http.Request) error {
	h.store.Cancel(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// PauseDownload handles POST /api/v1/downloads/{id}/pause
func (h *Handlers) PauseDownload(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	if _, ok := h.store.Get(id); !ok {
		return apperrors.DownloadNotFound()
	}
	h.store.PauseItem(id)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// ResumeDownload handles POST /api/v1/downloads/{id}/resume
func (h *Handlers) ResumeDownload(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	if _, ok := h.store.Get(id); !ok {
		return apperrors.DownloadNotFound()
	}
	h.store.ResumeItem(id)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// MoveToTop handles POST /api/v1/downloads/{id}/top
func (h *Handlers) MoveToTop(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	if _, ok := h.store.Get(id); !ok {
		return apperrors.DownloadNotFound()
	}
	h.store.MoveToTop(id)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// RetryDownload handles POST /api/v1/downloads/{id}/retry
func (h *Handlers) RetryDownload(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	if _, ok := h.store.Get(id); !ok {
		return apperrors.DownloadNotFound()
	}
	h.store.Retry(id)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// PausePlaylist handles POST /api/v1/playlists/{id}/pause
func (h *Handlers) PausePlaylist(w http.ResponseWriter, r *http.Request) error {
	h.store.PausePlaylist(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// ResumePlaylist handles POST /api/v1/playlists/{id}/resume
func (h *Handlers) ResumePlaylist(w http.ResponseWriter, r *http.Request) error {
	h.store.ResumePlaylist(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// CancelPlaylist handles DELETE /api/v1/playlists/{id}
func (h *Handlers) CancelPlaylist(w http.ResponseWriter, r *http.Request) error {
	h.store.CancelPlaylist(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// PauseQueue handles POST /api/v1/queue/pause
func (h *Handlers) PauseQueue(w http.ResponseWriter, r *http.Request) error {
	h.store.Pause()
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// ResumeQueue handles POST /api/v1/queue/resume
func (h *Handlers) ResumeQueue(w http.ResponseWriter, r *http.Request) error {
	h.store.Resume()
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// ToggleQueue handles POST /api/v1/queue/toggle
func (h *Handlers) ToggleQueue(w http.ResponseWriter, r *http.Request) error {
	paused := h.store.TogglePause()
	apperrors.WriteJSON(w, requestID(r), http.StatusOK, map[string]bool{"paused": paused})
	return nil
}

// ClearFinished handles POST /api/v1/queue/clear-finished
func (h *Handlers) ClearFinished(w http.ResponseWriter, r *http.Request) error {
	removed := h.store.ClearFinished()
	apperrors.WriteJSON(w, requestID(r), http.StatusOK, map[string]int{"removed": removed})
	return nil
}

// QueueStats handles GET /api/v1/queue/stats
func (h *Handlers) QueueStats(w http.ResponseWriter, r *http.Request) error {
	snap := h.store.Snapshot()

	byStatus := make(map[string]int)
	for _, item := range snap.Items {
		byStatus[string(item.Status)]++
	}

	apperrors.WriteJSON(w, requestID(r), http.StatusOK, QueueStatsResponse{
		Total:       len(snap.Items),
		Pending:     h.store.PendingCount(),
		ByStatus:    byStatus,
		QueuePaused: snap.Paused,
	})
	return nil
}

// ResolveURL handles POST /api/v1/resolve. Returns the validation
// result without touching the queue, so clients can classify a URL
// before committing to a download.
func (h *Handlers) ResolveURL(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if req.URL == "" {
		return apperrors.BadRequest("url is required")
	}

	apperrors.WriteJSON(w, requestID(r), http.StatusOK, validators.Resolve(req.URL))
	return nil
}

func requestID(r *http.Request) string {
	return apperrors.GetRequestID(r.Context())
}
