package validators

import (
	"net/url"
	"strings"
	"sync"
)

// Registry manages URL validators
type Registry struct {
	mu         sync.RWMutex
	validators []Validator
}

// NewRegistry creates a new validator registry
func NewRegistry() *Registry {
	return &Registry{
		validators: make([]Validator, 0),
	}
}

// Register adds a validator to the registry
func (r *Registry) Register(v Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators = append(r.validators, v)
}

// Validate finds the appropriate validator and validates the URL. URLs no
// validator claims fall through to a generic http(s) check, so arbitrary
// sources still work as long as the worker backend can handle them.
func (r *Registry) Validate(rawURL string) ValidationResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.validators {
		if v.CanHandle(rawURL) {
			return v.Validate(rawURL)
		}
	}

	return validateGeneric(rawURL)
}

// GetSupportedSources returns all source types registered in the registry
func (r *Registry) GetSupportedSources() []SourceType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]SourceType, 0, len(r.validators))
	for _, v := range r.validators {
		sources = append(sources, v.SourceType())
	}
	return sources
}

// DefaultRegistry creates a registry with all built-in validators
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewYouTubeValidator())
	r.Register(NewSoundCloudValidator())
	return r
}

var defaultRegistry = DefaultRegistry()

// Resolve validates rawURL against the default registry
func Resolve(rawURL string) ValidationResult {
	return defaultRegistry.Validate(rawURL)
}

// parseHTTPURL parses and sanity-checks a URL, returning a failure result
// when it cannot possibly be downloaded
func parseHTTPURL(rawURL string, source SourceType) (*url.URL, *ValidationResult) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		fail := invalid(source, rawURL, "invalid URL format")
		return nil, &fail
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		fail := invalid(source, rawURL, "invalid URL scheme")
		return nil, &fail
	}
	return parsed, nil
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	return host
}

func invalid(source SourceType, rawURL, msg string) ValidationResult {
	return ValidationResult{
		Valid:      false,
		SourceType: source,
		URL:        rawURL,
		Error:      msg,
	}
}
