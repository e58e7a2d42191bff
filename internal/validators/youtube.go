package validators

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// YouTubeValidator validates YouTube URLs
type YouTubeValidator struct {
	// videoIDPattern matches YouTube video IDs (11 characters)
	videoIDPattern *regexp.Regexp
	// playlistIDPattern matches playlist IDs (PL/OL/UU/FL/RD prefixes)
	playlistIDPattern *regexp.Regexp
}

// NewYouTubeValidator creates a new YouTube URL validator
func NewYouTubeValidator() *YouTubeValidator {
	return &YouTubeValidator{
		videoIDPattern:    regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`),
		playlistIDPattern: regexp.MustCompile(`^[a-zA-Z0-9_-]{13,42}$`),
	}
}

// SourceType returns the source type for this validator
func (v *YouTubeValidator) SourceType() SourceType {
	return SourceYouTube
}

// CanHandle returns true if the URL appears to be a YouTube URL
func (v *YouTubeValidator) CanHandle(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	return isYouTubeHost(normalizeHost(parsed.Host))
}

// Validate validates a YouTube URL. A URL whose path is /playlist, or a
// watch URL carrying a list parameter, resolves to a playlist: the queue
// expands those into one item per entry rather than downloading directly.
func (v *YouTubeValidator) Validate(rawURL string) ValidationResult {
	parsed, fail := parseHTTPURL(rawURL, SourceYouTube)
	if fail != nil {
		return *fail
	}

	host := normalizeHost(parsed.Host)
	if !isYouTubeHost(host) {
		return invalid(SourceYouTube, rawURL, "not a YouTube URL")
	}

	query := parsed.Query()

	// Explicit playlist page, or a watch link opened from a playlist
	if listID := query.Get("list"); listID != "" && (parsed.Path == "/playlist" || strings.HasPrefix(parsed.Path, "/watch")) {
		if !v.playlistIDPattern.MatchString(listID) {
			return invalid(SourceYouTube, rawURL, "invalid playlist ID format")
		}
		return ValidationResult{
			Valid:      true,
			SourceType: SourceYouTube,
			MediaID:    listID,
			MediaType:  MediaPlaylist,
			URL:        rawURL,
			Canonical:  fmt.Sprintf("https://www.youtube.com/playlist?list=%s", listID),
		}
	}

	videoID := v.extractVideoID(parsed)
	if videoID == "" {
		return invalid(SourceYouTube, rawURL, "could not extract video ID from URL")
	}
	if !v.videoIDPattern.MatchString(videoID) {
		return ValidationResult{
			Valid:      false,
			SourceType: SourceYouTube,
			URL:        rawURL,
			MediaID:    videoID,
			Error:      "invalid video ID format",
		}
	}

	return ValidationResult{
		Valid:      true,
		SourceType: SourceYouTube,
		MediaID:    videoID,
		MediaType:  MediaVideo,
		URL:        rawURL,
		Canonical:  fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID),
	}
}

// extractVideoID pulls the video ID out of the supported URL shapes
func (v *YouTubeValidator) extractVideoID(parsed *url.URL) string {
	host := normalizeHost(parsed.Host)
	path := parsed.Path

	if host == "youtu.be" {
		return firstPathSegment(strings.TrimPrefix(path, "/"))
	}

	switch {
	case strings.HasPrefix(path, "/watch"):
		return parsed.Query().Get("v")
	case strings.HasPrefix(path, "/shorts/"):
		return firstPathSegment(strings.TrimPrefix(path, "/shorts/"))
	case strings.HasPrefix(path, "/embed/"):
		return firstPathSegment(strings.TrimPrefix(path, "/embed/"))
	case strings.HasPrefix(path, "/live/"):
		return firstPathSegment(strings.TrimPrefix(path, "/live/"))
	}
	return ""
}

func isYouTubeHost(host string) bool {
	return host == "youtube.com" ||
		host == "youtu.be" ||
		host == "music.youtube.com"
}

func firstPathSegment(s string) string {
	if idx := strings.IndexAny(s, "/?"); idx != -1 {
		return s[:idx]
	}
	return s
}
