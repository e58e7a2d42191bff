package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_ADDR", "PERSIST_BACKEND", "CONCURRENT_DOWNLOADS", "YTDLP_PATH"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.ServerAddr != ":8090" {
		t.Errorf("ServerAddr = %q", cfg.ServerAddr)
	}
	if cfg.PersistBackend != BackendRedis {
		t.Errorf("PersistBackend = %q", cfg.PersistBackend)
	}
	if cfg.ConcurrentDownloads != 3 {
		t.Errorf("ConcurrentDownloads = %d", cfg.ConcurrentDownloads)
	}
	if cfg.YtdlpPath != "yt-dlp" {
		t.Errorf("YtdlpPath = %q", cfg.YtdlpPath)
	}
	if cfg.DownloadDir == "" {
		t.Error("DownloadDir is empty")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("PERSIST_BACKEND", BackendPostgres)
	t.Setenv("CONCURRENT_DOWNLOADS", "8")
	t.Setenv("DOWNLOAD_DIR", "/srv/media")

	cfg := Load()

	if cfg.ServerAddr != ":9999" {
		t.Errorf("ServerAddr = %q", cfg.ServerAddr)
	}
	if cfg.PersistBackend != BackendPostgres {
		t.Errorf("PersistBackend = %q", cfg.PersistBackend)
	}
	if cfg.ConcurrentDownloads != 8 {
		t.Errorf("ConcurrentDownloads = %d", cfg.ConcurrentDownloads)
	}
	if cfg.DownloadDir != "/srv/media" {
		t.Errorf("DownloadDir = %q", cfg.DownloadDir)
	}
}

func TestLoad_InvalidConcurrency(t *testing.T) {
	t.Setenv("CONCURRENT_DOWNLOADS", "-2")
	if cfg := Load(); cfg.ConcurrentDownloads != 3 {
		t.Errorf("ConcurrentDownloads = %d, want fallback 3", cfg.ConcurrentDownloads)
	}

	t.Setenv("CONCURRENT_DOWNLOADS", "garbage")
	if cfg := Load(); cfg.ConcurrentDownloads != 3 {
		t.Errorf("ConcurrentDownloads = %d, want fallback 3", cfg.ConcurrentDownloads)
	}
}
