package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fetchdeck/backend/internal/queue"
)

// YtdlpConfig holds configuration for the yt-dlp bridge
type YtdlpConfig struct {
	// BinPath is the path to the yt-dlp binary (default: "yt-dlp")
	BinPath string
	// DownloadDir is the fallback output directory when a request
	// does not name one
	DownloadDir string
}

// DefaultYtdlpConfig returns a config with sensible defaults
func DefaultYtdlpConfig() *YtdlpConfig {
	home, _ := os.UserHomeDir()
	return &YtdlpConfig{
		BinPath:     "yt-dlp",
		DownloadDir: filepath.Join(home, "Downloads"),
	}
}

// YtdlpBridge runs yt-dlp as a subprocess and translates its stdout
// stream into progress events. One Fetch call is one process; killing
// the context kills the process.
type YtdlpBridge struct {
	cfg *YtdlpConfig
}

// NewYtdlpBridge verifies the binary is reachable and returns a bridge
func NewYtdlpBridge(cfg *YtdlpConfig) (*YtdlpBridge, error) {
	if cfg == nil {
		cfg = DefaultYtdlpConfig()
	}
	if cfg.BinPath == "" {
		cfg.BinPath = "yt-dlp"
	}

	if _, err := exec.LookPath(cfg.BinPath); err != nil {
		return nil, ErrYtdlpNotFound
	}

	return &YtdlpBridge{cfg: cfg}, nil
}

// Check reports whether the yt-dlp binary is still reachable. The
// binary can disappear after startup when it lives in a managed
// environment, so health probes re-resolve it.
func (b *YtdlpBridge) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := exec.LookPath(b.cfg.BinPath); err != nil {
		return ErrYtdlpNotFound
	}
	return nil
}

// mediaInfo is the subset of yt-dlp --dump-json output we care about
type mediaInfo struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Duration       float64 `json:"duration"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	WebpageURL     string  `json:"webpage_url"`
}

func (m *mediaInfo) size() int64 {
	if m.Filesize > 0 {
		return m.Filesize
	}
	return m.FilesizeApprox
}

// Fetch implements queue.Bridge. Media fetches run a metadata probe
// first so the title and size land before any bytes move; file fetches
// go straight to the download stage.
func (b *YtdlpBridge) Fetch(ctx context.Context, req queue.FetchRequest, emit func(queue.Event)) (*queue.Result, error) {
	if req.Kind == queue.KindMedia {
		info, err := b.probe(ctx, req.URL)
		if err != nil {
			return nil, err
		}
		emit(queue.Event{
			Stage:    queue.StageInfo,
			Title:    info.Title,
			Size:     info.size(),
			Duration: info.Duration,
			Message:  "fetched metadata",
		})
	}

	return b.download(ctx, req, emit)
}

// probe retrieves metadata without downloading
func (b *YtdlpBridge) probe(ctx context.Context, sourceURL string) (*mediaInfo, error) {
	args := []string{
		"--dump-json",
		"--no-download",
		"--no-warnings",
		sourceURL,
	}

	cmd := exec.CommandContext(ctx, b.cfg.BinPath, args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, categorizeError(sourceURL, err, string(exitErr.Stderr))
		}
		return nil, categorizeError(sourceURL, err, "")
	}

	var info mediaInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, &FetchError{URL: sourceURL, Message: "failed to parse metadata", Err: err}
	}

	return &info, nil
}

func (b *YtdlpBridge) download(ctx context.Context, req queue.FetchRequest, emit func(queue.Event)) (*queue.Result, error) {
	args := b.buildArgs(req)

	cmd := exec.CommandContext(ctx, b.cfg.BinPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &FetchError{URL: req.URL, Message: "failed to create stdout pipe", Err: err}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &FetchError{URL: req.URL, Message: "failed to create stderr pipe", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, categorizeError(req.URL, err, "")
	}

	var stderrOutput strings.Builder
	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			stderrOutput.WriteString(scanner.Text())
			stderrOutput.WriteString("\n")
		}
	}()

	var outputPath string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if dest, ok := parseDestination(line); ok {
			outputPath = dest
		}
		if ev, ok := parseProgressLine(line); ok {
			emit(ev)
		}
	}

	// The collector owns stderrOutput until its pipe hits EOF; wait for
	// it before reading the builder.
	<-stderrDone
	if err := cmd.Wait(); err != nil {
		return nil, categorizeError(req.URL, err, stderrOutput.String())
	}

	if outputPath == "" {
		return nil, &FetchError{URL: req.URL, Message: "output file not reported", Err: ErrFetchFailed}
	}

	return &queue.Result{OutputPath: outputPath}, nil
}

// buildArgs translates request options into a yt-dlp invocation
func (b *YtdlpBridge) buildArgs(req queue.FetchRequest) []string {
	outDir := req.Options.OutputDir
	if outDir == "" {
		outDir = b.cfg.DownloadDir
	}
	outputTemplate := filepath.Join(outDir, "%(title)s.%(ext)s")

	args := []string{
		"--newline",
		"--progress",
		"--no-warnings",
		"--output", outputTemplate,
	}

	if req.Options.Mode == "audio" {
		args = append(args, "-f", "bestaudio", "--extract-audio")
		if req.Options.Format != "" {
			args = append(args, "--audio-format", req.Options.Format)
		}
		if req.Options.Quality != "" && req.Options.Quality != "best" {
			args = append(args, "--audio-quality", req.Options.Quality)
		}
	} else {
		selector := "bestvideo+bestaudio/best"
		if q := req.Options.Quality; q != "" && q != "best" {
			height := strings.TrimSuffix(q, "p")
			selector = fmt.Sprintf("bestvideo[height<=%s]+bestaudio/best[height<=%s]", height, height)
		}
		args = append(args, "-f", selector)
		if req.Options.Format != "" {
			args = append(args, "--merge-output-format", req.Options.Format)
		}
	}

	if req.Options.EmbedMeta {
		args = append(args, "--embed-metadata", "--embed-thumbnail")
	}
	if req.Options.CookiesFile != "" {
		args = append(args, "--cookies", req.Options.CookiesFile)
	}

	args = append(args, req.URL)
	return args
}

// categorizeError converts yt-dlp stderr noise into specific error types
func categorizeError(sourceURL string, err error, stderr string) error {
	stderrLower := strings.ToLower(stderr)

	switch {
	case strings.Contains(stderrLower, "video unavailable") ||
		strings.Contains(stderrLower, "this video is unavailable") ||
		strings.Contains(stderrLower, "content isn't available"):
		return &FetchError{URL: sourceURL, Message: "media unavailable", Err: ErrUnavailable}

	case strings.Contains(stderrLower, "private video") ||
		strings.Contains(stderrLower, "is private"):
		return &FetchError{URL: sourceURL, Message: "media is private", Err: ErrPrivate}

	case strings.Contains(stderrLower, "age-restricted") ||
		strings.Contains(stderrLower, "sign in to confirm your age"):
		return &FetchError{URL: sourceURL, Message: "content is age-restricted", Err: ErrAgeRestricted}

	case strings.Contains(stderrLower, "unable to download") ||
		strings.Contains(stderrLower, "connection") ||
		strings.Contains(stderrLower, "network"):
		return &FetchError{URL: sourceURL, Message: "network error", Err: ErrNetwork}

	case strings.Contains(stderrLower, "unsupported url") ||
		strings.Contains(stderrLower, "no suitable extractor"):
		return &FetchError{URL: sourceURL, Message: "url not supported", Err: ErrUnsupported}

	default:
		return &FetchError{URL: sourceURL, Message: "fetch failed", Err: fmt.Errorf("%w: %s", ErrFetchFailed, strings.TrimSpace(stderr))}
	}
}
