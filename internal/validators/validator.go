package validators

// SourceType identifies the platform a URL belongs to
type SourceType string

const (
	SourceYouTube    SourceType = "youtube"
	SourceSoundCloud SourceType = "soundcloud"
	SourceGeneric    SourceType = "generic"
	SourceUnknown    SourceType = "unknown"
)

// MediaType values produced by validators
const (
	MediaVideo    = "video"
	MediaTrack    = "track"
	MediaPlaylist = "playlist"
	MediaFile     = "file"
)

// ValidationResult contains the result of URL validation
type ValidationResult struct {
	Valid      bool       `json:"valid"`
	SourceType SourceType `json:"source_type"`
	MediaID    string     `json:"media_id,omitempty"`
	MediaType  string     `json:"media_type,omitempty"`
	URL        string     `json:"url"`
	Canonical  string     `json:"canonical_url,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// IsPlaylist returns true if the URL points at a multi-item collection
// that the queue should expand into individual downloads
func (r ValidationResult) IsPlaylist() bool {
	return r.Valid && r.MediaType == MediaPlaylist
}

// Validator defines the interface for URL validators
type Validator interface {
	// SourceType returns the source type this validator handles
	SourceType() SourceType

	// CanHandle returns true if this validator can handle the given URL
	CanHandle(url string) bool

	// Validate validates the URL and extracts relevant information,
	// including a canonical form free of tracking parameters
	Validate(url string) ValidationResult
}
