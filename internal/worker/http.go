package worker

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/fetchdeck/backend/internal/queue"
)

// HTTPBridge downloads direct file URLs with a plain GET. No external
// tool is involved so there is no info stage; progress comes from the
// byte counter against Content-Length when the server reports one.
type HTTPBridge struct {
	client      *http.Client
	downloadDir string
}

// NewHTTPBridge returns a bridge writing into downloadDir by default
func NewHTTPBridge(downloadDir string) *HTTPBridge {
	return &HTTPBridge{
		client:      &http.Client{},
		downloadDir: downloadDir,
	}
}

// Fetch implements queue.Bridge
func (b *HTTPBridge) Fetch(ctx context.Context, req queue.FetchRequest, emit func(queue.Event)) (*queue.Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, &FetchError{URL: req.URL, Message: "invalid request", Err: err}
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, &FetchError{URL: req.URL, Message: "request failed", Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: req.URL, Message: fmt.Sprintf("server returned %s", resp.Status), Err: ErrFetchFailed}
	}

	outDir := req.Options.OutputDir
	if outDir == "" {
		outDir = b.downloadDir
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, &FetchError{URL: req.URL, Message: "failed to create output directory", Err: err}
	}

	name := fileName(req.URL, resp.Header.Get("Content-Disposition"))
	outputPath := filepath.Join(outDir, name)
	partPath := outputPath + ".part"

	out, err := os.Create(partPath)
	if err != nil {
		return nil, &FetchError{URL: req.URL, Message: "failed to create output file", Err: err}
	}

	total := resp.ContentLength
	emit(queue.Event{Stage: queue.StageDownload, Title: name, Size: total})

	if err := b.copyWithProgress(ctx, out, resp.Body, total, emit); err != nil {
		out.Close()
		os.Remove(partPath)
		return nil, err
	}
	if err := out.Close(); err != nil {
		os.Remove(partPath)
		return nil, &FetchError{URL: req.URL, Message: "failed to finalize file", Err: err}
	}

	if err := os.Rename(partPath, outputPath); err != nil {
		os.Remove(partPath)
		return nil, &FetchError{URL: req.URL, Message: "failed to move file into place", Err: err}
	}

	return &queue.Result{OutputPath: outputPath}, nil
}

// copyWithProgress streams body into w, emitting roughly four progress
// events per second.
func (b *HTTPBridge) copyWithProgress(ctx context.Context, w io.Writer, body io.Reader, total int64, emit func(queue.Event)) error {
	buf := make([]byte, 64<<10)
	var written int64
	start := time.Now()
	lastEmit := start

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return &FetchError{Message: "write failed", Err: werr}
			}
			written += int64(n)

			if now := time.Now(); now.Sub(lastEmit) >= 250*time.Millisecond {
				lastEmit = now
				emit(progressEvent(written, total, now.Sub(start)))
			}
		}
		if err == io.EOF {
			emit(progressEvent(written, total, time.Since(start)))
			return nil
		}
		if err != nil {
			return &FetchError{Message: "read failed", Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
		}
	}
}

func progressEvent(written, total int64, elapsed time.Duration) queue.Event {
	ev := queue.Event{Stage: queue.StageDownload, Size: total}

	secs := elapsed.Seconds()
	if secs > 0 {
		bps := float64(written) / secs
		ev.Speed = fmt.Sprintf("%.1fMiB/s", bps/float64(1<<20))
		if total > 0 && bps > 0 {
			remaining := time.Duration(float64(total-written)/bps) * time.Second
			ev.ETA = fmt.Sprintf("%02d:%02d", int(remaining.Minutes()), int(remaining.Seconds())%60)
		}
	}

	if total > 0 {
		ev.Progress = int(written * 100 / total)
	}
	return ev
}

// fileName derives the output file name from the Content-Disposition
// header, falling back to the URL path, then to a generic name.
func fileName(rawURL, disposition string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				return filepath.Base(name)
			}
		}
	}

	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			return base
		}
	}

	return "download"
}
