package validators

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// SoundCloudValidator validates SoundCloud URLs
type SoundCloudValidator struct {
	// slugPattern matches usernames and track/set slugs
	slugPattern *regexp.Regexp
}

// NewSoundCloudValidator creates a new SoundCloud URL validator
func NewSoundCloudValidator() *SoundCloudValidator {
	return &SoundCloudValidator{
		slugPattern: regexp.MustCompile(`^[a-zA-Z0-9_-]+$`),
	}
}

// SourceType returns the source type for this validator
func (v *SoundCloudValidator) SourceType() SourceType {
	return SourceSoundCloud
}

// CanHandle returns true if the URL appears to be a SoundCloud URL
func (v *SoundCloudValidator) CanHandle(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := normalizeHost(parsed.Host)
	return host == "soundcloud.com" || host == "on.soundcloud.com"
}

// Validate validates a SoundCloud URL. Supported shapes:
// /artist/track (a single track), /artist/sets/slug (a playlist) and
// short links from on.soundcloud.com, which pass through unresolved.
func (v *SoundCloudValidator) Validate(rawURL string) ValidationResult {
	parsed, fail := parseHTTPURL(rawURL, SourceSoundCloud)
	if fail != nil {
		return *fail
	}

	host := normalizeHost(parsed.Host)

	// Short links require a network round trip to resolve; hand them to
	// the worker as-is and let it follow the redirect.
	if host == "on.soundcloud.com" {
		id := firstPathSegment(strings.TrimPrefix(parsed.Path, "/"))
		if id == "" {
			return invalid(SourceSoundCloud, rawURL, "empty short link")
		}
		return ValidationResult{
			Valid:      true,
			SourceType: SourceSoundCloud,
			MediaID:    id,
			MediaType:  MediaTrack,
			URL:        rawURL,
			Canonical:  fmt.Sprintf("https://on.soundcloud.com/%s", id),
		}
	}

	if host != "soundcloud.com" {
		return invalid(SourceSoundCloud, rawURL, "not a SoundCloud URL")
	}

	segments := splitPath(parsed.Path)
	switch {
	case len(segments) >= 3 && segments[1] == "sets":
		if !v.slugPattern.MatchString(segments[0]) || !v.slugPattern.MatchString(segments[2]) {
			return invalid(SourceSoundCloud, rawURL, "invalid set URL")
		}
		return ValidationResult{
			Valid:      true,
			SourceType: SourceSoundCloud,
			MediaID:    segments[0] + "/sets/" + segments[2],
			MediaType:  MediaPlaylist,
			URL:        rawURL,
			Canonical:  fmt.Sprintf("https://soundcloud.com/%s/sets/%s", segments[0], segments[2]),
		}

	case len(segments) >= 2:
		if !v.slugPattern.MatchString(segments[0]) || !v.slugPattern.MatchString(segments[1]) {
			return invalid(SourceSoundCloud, rawURL, "invalid track URL")
		}
		return ValidationResult{
			Valid:      true,
			SourceType: SourceSoundCloud,
			MediaID:    segments[0] + "/" + segments[1],
			MediaType:  MediaTrack,
			URL:        rawURL,
			Canonical:  fmt.Sprintf("https://soundcloud.com/%s/%s", segments[0], segments[1]),
		}
	}

	return invalid(SourceSoundCloud, rawURL, "could not extract track from URL")
}

func splitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
