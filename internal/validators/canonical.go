package validators

import (
	"errors"
	"net/url"
	"sort"
	"strings"
)

// ErrInvalidURL is returned when a URL cannot be normalized at all
var ErrInvalidURL = errors.New("invalid url")

// trackingParams are query parameters that identify the click, not the
// content. They are stripped so that two shares of the same link
// fingerprint identically.
var trackingParams = map[string]bool{
	"fbclid":      true,
	"gclid":       true,
	"igshid":      true,
	"si":          true,
	"feature":     true,
	"pp":          true,
	"ref":         true,
	"ref_src":     true,
	"spm":         true,
	"share_id":    true,
	"from_search": true,
}

// Canonicalize returns the normalized form of rawURL used as the dedup
// key. Known sources get their validator's canonical URL; anything else
// keeps its structure with tracking parameters removed, the remaining
// query sorted, and the fragment dropped.
func Canonicalize(rawURL string) (string, error) {
	res := Resolve(rawURL)
	if !res.Valid {
		return "", ErrInvalidURL
	}
	return res.Canonical, nil
}

// validateGeneric handles URLs no registered validator claims
func validateGeneric(rawURL string) ValidationResult {
	parsed, fail := parseHTTPURL(rawURL, SourceGeneric)
	if fail != nil {
		return *fail
	}
	if parsed.Host == "" {
		return invalid(SourceGeneric, rawURL, "missing host")
	}

	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	parsed.RawQuery = stripTracking(parsed.Query())

	return ValidationResult{
		Valid:      true,
		SourceType: SourceGeneric,
		MediaType:  MediaFile,
		URL:        rawURL,
		Canonical:  parsed.String(),
	}
}

// stripTracking removes tracking parameters and re-encodes the remaining
// query in sorted key order so equivalent URLs compare equal
func stripTracking(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		if trackingParams[k] || strings.HasPrefix(k, "utm_") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kept := url.Values{}
	for _, k := range keys {
		kept[k] = q[k]
	}
	return kept.Encode()
}
