package worker

import (
	"context"
	"encoding/json"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fetchdeck/backend/internal/logger"
	"github.com/fetchdeck/backend/internal/queue"
	"go.uber.org/zap"
)

// enrichConcurrency bounds the metadata probes fired while filling in
// entries the flat extraction left blank.
const enrichConcurrency = 4

// playlistInfo is the shape of yt-dlp -J --flat-playlist output
type playlistInfo struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Entries []struct {
		ID       string  `json:"id"`
		URL      string  `json:"url"`
		Title    string  `json:"title"`
		Duration float64 `json:"duration"`
	} `json:"entries"`
}

// ExpandPlaylist resolves a playlist URL into its member entries using
// a flat extraction, then probes entries that came back without a title
// or duration. Probe failures leave the entry as-is rather than failing
// the expansion.
func (b *YtdlpBridge) ExpandPlaylist(ctx context.Context, playlistURL string) (string, []queue.PlaylistEntry, error) {
	args := []string{
		"-J",
		"--flat-playlist",
		"--no-warnings",
		playlistURL,
	}

	cmd := exec.CommandContext(ctx, b.cfg.BinPath, args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", nil, categorizeError(playlistURL, err, string(exitErr.Stderr))
		}
		return "", nil, categorizeError(playlistURL, err, "")
	}

	var info playlistInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return "", nil, &FetchError{URL: playlistURL, Message: "failed to parse playlist", Err: err}
	}

	entries := make([]queue.PlaylistEntry, 0, len(info.Entries))
	for i, e := range info.Entries {
		if e.URL == "" {
			continue
		}
		entries = append(entries, queue.PlaylistEntry{
			URL:      e.URL,
			Title:    e.Title,
			Index:    i + 1,
			Duration: e.Duration,
		})
	}

	b.enrichEntries(ctx, playlistURL, entries)

	return info.Title, entries, nil
}

// enrichEntries probes entries missing metadata, a bounded number at a
// time. Mutates entries in place.
func (b *YtdlpBridge) enrichEntries(ctx context.Context, playlistURL string, entries []queue.PlaylistEntry) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)

	var mu sync.Mutex
	for i := range entries {
		if entries[i].Title != "" && entries[i].Duration > 0 {
			continue
		}
		i := i
		g.Go(func() error {
			info, err := b.probe(gctx, entries[i].URL)
			if err != nil {
				logger.Warn("playlist entry probe failed",
					zap.String("playlist", playlistURL),
					zap.String("url", entries[i].URL),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			if entries[i].Title == "" {
				entries[i].Title = info.Title
			}
			if entries[i].Duration == 0 {
				entries[i].Duration = info.Duration
			}
			entries[i].Size = info.size()
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
}
