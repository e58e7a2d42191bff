package validators

import "testing"

func TestSoundCloudValidator_CanHandle(t *testing.T) {
	v := NewSoundCloudValidator()

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"track URL", "https://soundcloud.com/artist/track", true},
		{"www prefix", "https://www.soundcloud.com/artist/track", true},
		{"mobile", "https://m.soundcloud.com/artist/track", true},
		{"short link", "https://on.soundcloud.com/abc123", true},
		{"youtube", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"direct file", "https://example.com/track.mp3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.CanHandle(tt.url); got != tt.want {
				t.Errorf("CanHandle(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestSoundCloudValidator_Validate(t *testing.T) {
	v := NewSoundCloudValidator()

	tests := []struct {
		name          string
		url           string
		wantValid     bool
		wantMediaID   string
		wantMediaType string
		wantCanonical string
	}{
		{
			name:          "track",
			url:           "https://soundcloud.com/some-artist/some-track",
			wantValid:     true,
			wantMediaID:   "some-artist/some-track",
			wantMediaType: MediaTrack,
			wantCanonical: "https://soundcloud.com/some-artist/some-track",
		},
		{
			name:          "track with tracking query",
			url:           "https://soundcloud.com/some-artist/some-track?si=xyz&utm_campaign=social",
			wantValid:     true,
			wantMediaID:   "some-artist/some-track",
			wantMediaType: MediaTrack,
			wantCanonical: "https://soundcloud.com/some-artist/some-track",
		},
		{
			name:          "set",
			url:           "https://soundcloud.com/some-artist/sets/my-playlist",
			wantValid:     true,
			wantMediaID:   "some-artist/sets/my-playlist",
			wantMediaType: MediaPlaylist,
			wantCanonical: "https://soundcloud.com/some-artist/sets/my-playlist",
		},
		{
			name:          "short link",
			url:           "https://on.soundcloud.com/abc123",
			wantValid:     true,
			wantMediaID:   "abc123",
			wantMediaType: MediaTrack,
			wantCanonical: "https://on.soundcloud.com/abc123",
		},
		{
			name:      "artist profile only",
			url:       "https://soundcloud.com/some-artist",
			wantValid: false,
		},
		{
			name:      "empty short link",
			url:       "https://on.soundcloud.com/",
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Validate(tt.url)
			if got.Valid != tt.wantValid {
				t.Fatalf("Validate(%q).Valid = %v, want %v (error: %s)", tt.url, got.Valid, tt.wantValid, got.Error)
			}
			if !tt.wantValid {
				return
			}
			if got.MediaID != tt.wantMediaID {
				t.Errorf("MediaID = %q, want %q", got.MediaID, tt.wantMediaID)
			}
			if got.MediaType != tt.wantMediaType {
				t.Errorf("MediaType = %q, want %q", got.MediaType, tt.wantMediaType)
			}
			if got.Canonical != tt.wantCanonical {
				t.Errorf("Canonical = %q, want %q", got.Canonical, tt.wantCanonical)
			}
		})
	}
}
