package worker

import (
	"strings"
	"testing"

	"github.com/fetchdeck/backend/internal/queue"
)

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		wantOK       bool
		wantStage    queue.Stage
		wantProgress int
		wantSpeed    string
		wantETA      string
		wantSize     int64
	}{
		{
			name:         "typical download line",
			line:         "[download]  45.2% of 10.50MiB at 1.20MiB/s ETA 00:12",
			wantOK:       true,
			wantStage:    queue.StageDownload,
			wantProgress: 45,
			wantSpeed:    "1.20MiB/s",
			wantETA:      "00:12",
			wantSize:     int64(10.50 * (1 << 20)),
		},
		{
			name:         "approximate size",
			line:         "[download]   3.0% of ~ 250.00MiB at 5.00MiB/s ETA 00:48",
			wantOK:       true,
			wantStage:    queue.StageDownload,
			wantProgress: 3,
			wantSpeed:    "5.00MiB/s",
			wantETA:      "00:48",
			wantSize:     int64(250 * (1 << 20)),
		},
		{
			name:         "completed line without ETA",
			line:         "[download] 100% of 10.50MiB in 00:05",
			wantOK:       true,
			wantStage:    queue.StageDownload,
			wantProgress: 100,
			wantSize:     int64(10.50 * (1 << 20)),
		},
		{
			name:         "percent only",
			line:         "[download]   0.0%",
			wantOK:       true,
			wantStage:    queue.StageDownload,
			wantProgress: 0,
		},
		{
			name:         "extract audio step",
			line:         "[ExtractAudio] Destination: /tmp/track.mp3",
			wantOK:       true,
			wantStage:    queue.StageProcess,
			wantProgress: 100,
		},
		{
			name:         "merger step",
			line:         `[Merger] Merging formats into "/tmp/video.mp4"`,
			wantOK:       true,
			wantStage:    queue.StageProcess,
			wantProgress: 100,
		},
		{name: "destination line", line: "[download] Destination: /tmp/video.f137.mp4", wantOK: false},
		{name: "info line", line: "[youtube] dQw4w9WgXcQ: Downloading webpage", wantOK: false},
		{name: "empty line", line: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := parseProgressLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("parseProgressLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if ev.Stage != tt.wantStage {
				t.Errorf("stage = %q, want %q", ev.Stage, tt.wantStage)
			}
			if ev.Progress != tt.wantProgress {
				t.Errorf("progress = %d, want %d", ev.Progress, tt.wantProgress)
			}
			if ev.Speed != tt.wantSpeed {
				t.Errorf("speed = %q, want %q", ev.Speed, tt.wantSpeed)
			}
			if ev.ETA != tt.wantETA {
				t.Errorf("eta = %q, want %q", ev.ETA, tt.wantETA)
			}
			if ev.Size != tt.wantSize {
				t.Errorf("size = %d, want %d", ev.Size, tt.wantSize)
			}
		})
	}
}

func TestParseDestination(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   string
		wantOK bool
	}{
		{"download destination", "[download] Destination: /tmp/video.f137.mp4", "/tmp/video.f137.mp4", true},
		{"extract audio destination", "[ExtractAudio] Destination: /tmp/track.mp3", "/tmp/track.mp3", true},
		{"merger output", `[Merger] Merging formats into "/tmp/video.mp4"`, "/tmp/video.mp4", true},
		{"progress line", "[download]  45.2% of 10.50MiB at 1.20MiB/s ETA 00:12", "", false},
		{"unrelated line", "[youtube] extracting", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDestination(tt.line)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("parseDestination(%q) = (%q, %v), want (%q, %v)", tt.line, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10.50MiB", int64(10.50 * (1 << 20))},
		{"1.00KiB", 1024},
		{"2GiB", 2 << 30},
		{"512B", 512},
		{"", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		if got := parseSize(tt.in); got != tt.want {
			t.Errorf("parseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBuildArgs(t *testing.T) {
	b := &YtdlpBridge{cfg: &YtdlpConfig{BinPath: "yt-dlp", DownloadDir: "/downloads"}}

	t.Run("audio mode", func(t *testing.T) {
		args := b.buildArgs(queue.FetchRequest{
			URL: "https://www.youtube.com/watch?v=abc",
			Options: queue.Options{
				Mode:    "audio",
				Format:  "mp3",
				Quality: "320k",
			},
		})
		joined := strings.Join(args, " ")
		for _, want := range []string{"--extract-audio", "--audio-format mp3", "--audio-quality 320k", "--newline", "--progress"} {
			if !strings.Contains(joined, want) {
				t.Errorf("args %q missing %q", joined, want)
			}
		}
		if args[len(args)-1] != "https://www.youtube.com/watch?v=abc" {
			t.Errorf("URL should be the final argument, got %q", args[len(args)-1])
		}
	})

	t.Run("video with height cap", func(t *testing.T) {
		args := b.buildArgs(queue.FetchRequest{
			URL:     "https://www.youtube.com/watch?v=abc",
			Options: queue.Options{Mode: "video", Quality: "1080p", Format: "mp4"},
		})
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "height<=1080") {
			t.Errorf("args %q should cap height at 1080", joined)
		}
		if !strings.Contains(joined, "--merge-output-format mp4") {
			t.Errorf("args %q should request mp4 container", joined)
		}
	})

	t.Run("output dir override", func(t *testing.T) {
		args := b.buildArgs(queue.FetchRequest{
			URL:     "https://www.youtube.com/watch?v=abc",
			Options: queue.Options{Mode: "video", OutputDir: "/custom"},
		})
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "/custom/") {
			t.Errorf("args %q should use the custom output dir", joined)
		}
	})

	t.Run("cookies and metadata", func(t *testing.T) {
		args := b.buildArgs(queue.FetchRequest{
			URL:     "https://www.youtube.com/watch?v=abc",
			Options: queue.Options{Mode: "video", CookiesFile: "/tmp/cookies.txt", EmbedMeta: true},
		})
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "--cookies /tmp/cookies.txt") {
			t.Errorf("args %q missing cookies flag", joined)
		}
		if !strings.Contains(joined, "--embed-metadata") {
			t.Errorf("args %q missing embed flag", joined)
		}
	})
}
