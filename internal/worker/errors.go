package worker

import "errors"

var (
	// ErrYtdlpNotFound indicates yt-dlp is not installed
	ErrYtdlpNotFound = errors.New("yt-dlp not found in PATH")

	// ErrUnavailable indicates the media is not available
	ErrUnavailable = errors.New("media unavailable")

	// ErrPrivate indicates the media is private
	ErrPrivate = errors.New("media is private")

	// ErrAgeRestricted indicates the content is age-restricted
	ErrAgeRestricted = errors.New("content is age-restricted")

	// ErrNetwork indicates a network-related error
	ErrNetwork = errors.New("network error")

	// ErrUnsupported indicates no extractor handles the URL
	ErrUnsupported = errors.New("url not supported")

	// ErrFetchFailed indicates the fetch failed for an uncategorized reason
	ErrFetchFailed = errors.New("fetch failed")
)

// FetchError wraps an error with the URL it occurred on
type FetchError struct {
	URL     string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
