package queue

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of a download item
type Status string

const (
	StatusPending      Status = "pending"
	StatusFetchingInfo Status = "fetching-info"
	StatusDownloading  Status = "downloading"
	StatusProcessing   Status = "processing"
	StatusPaused       Status = "paused"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// IsActive returns true if the status occupies a concurrency slot
func (s Status) IsActive() bool {
	return s == StatusFetchingInfo || s == StatusDownloading || s == StatusProcessing
}

// IsTerminal returns true if no further scheduler action follows
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Kind distinguishes media downloads (which have a metadata-fetch stage)
// from direct file downloads (which do not)
type Kind string

const (
	KindMedia Kind = "media"
	KindFile  Kind = "file"
)

// Options is the download configuration snapshot captured when an item is
// added. It is immutable for the item's lifetime: later changes to global
// settings never alter an already-queued or in-flight item.
type Options struct {
	Mode        string `json:"mode"`    // "video" or "audio"
	Quality     string `json:"quality"` // e.g. "best", "1080p", "320k"
	Format      string `json:"format"`  // container/codec hint, e.g. "mp4", "mp3"
	OutputDir   string `json:"output_dir,omitempty"`
	CookiesFile string `json:"cookies_file,omitempty"`
	EmbedMeta   bool   `json:"embed_metadata,omitempty"`
}

// Fingerprint returns the dedup key for a normalized URL under these
// options. Only fields that change the fetched artifact participate:
// requesting a different quality or mode for the same URL is a distinct
// download, while the output directory or cookies are not.
func (o Options) Fingerprint(normalizedURL string) string {
	return fmt.Sprintf("%s|%s|%s|%s", normalizedURL, o.Mode, o.Quality, o.Format)
}

// Item represents one requested download
type Item struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"` // normalized at add time
	Kind          Kind       `json:"kind"`
	Status        Status     `json:"status"`
	Progress      int        `json:"progress"`
	Priority      int        `json:"priority"` // lower dispatches first, FIFO on ties
	PlaylistID    string     `json:"playlist_id,omitempty"`
	PlaylistIndex int        `json:"playlist_index,omitempty"`
	PlaylistTitle string     `json:"playlist_title,omitempty"`
	Title         string     `json:"title,omitempty"`
	Size          int64      `json:"size,omitempty"`     // bytes, 0 if unknown
	Duration      float64    `json:"duration,omitempty"` // seconds, 0 if unknown
	Speed         string     `json:"speed,omitempty"`
	ETA           string     `json:"eta,omitempty"`
	StatusMessage string     `json:"status_message,omitempty"`
	OutputPath    string     `json:"output_path,omitempty"`
	RetryCount    int        `json:"retry_count"`
	LastError     string     `json:"last_error,omitempty"`
	Options       Options    `json:"options"`
	AddedAt       time.Time  `json:"added_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// Fingerprint returns the item's dedup key
func (it *Item) Fingerprint() string {
	return it.Options.Fingerprint(it.URL)
}

// IsTerminal returns true if the item is in a terminal state
func (it *Item) IsTerminal() bool {
	return it.Status.IsTerminal()
}
