package validators

import "testing"

func TestYouTubeValidator_CanHandle(t *testing.T) {
	v := NewYouTubeValidator()

	tests := []struct {
		name string
		url  string
		want bool
	}{
		// Should handle
		{"youtube.com", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"youtube.com no www", "https://youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"youtu.be", "https://youtu.be/dQw4w9WgXcQ", true},
		{"music.youtube.com", "https://music.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"mobile youtube", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"http scheme", "http://youtube.com/watch?v=dQw4w9WgXcQ", true},

		// Should not handle
		{"soundcloud", "https://soundcloud.com/artist/track", false},
		{"direct file", "https://example.com/video.mp4", false},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.CanHandle(tt.url); got != tt.want {
				t.Errorf("CanHandle(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestYouTubeValidator_Validate(t *testing.T) {
	v := NewYouTubeValidator()

	tests := []struct {
		name          string
		url           string
		wantValid     bool
		wantMediaID   string
		wantMediaType string
		wantCanonical string
	}{
		{
			name:          "standard watch URL",
			url:           "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantValid:     true,
			wantMediaID:   "dQw4w9WgXcQ",
			wantMediaType: MediaVideo,
			wantCanonical: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:          "watch URL with tracking params",
			url:           "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=120&utm_source=share",
			wantValid:     true,
			wantMediaID:   "dQw4w9WgXcQ",
			wantMediaType: MediaVideo,
			wantCanonical: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:          "short link",
			url:           "https://youtu.be/dQw4w9WgXcQ?si=abc123",
			wantValid:     true,
			wantMediaID:   "dQw4w9WgXcQ",
			wantMediaType: MediaVideo,
			wantCanonical: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:          "shorts URL",
			url:           "https://www.youtube.com/shorts/dQw4w9WgXcQ",
			wantValid:     true,
			wantMediaID:   "dQw4w9WgXcQ",
			wantMediaType: MediaVideo,
			wantCanonical: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:          "embed URL",
			url:           "https://www.youtube.com/embed/dQw4w9WgXcQ",
			wantValid:     true,
			wantMediaID:   "dQw4w9WgXcQ",
			wantMediaType: MediaVideo,
			wantCanonical: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:          "live URL",
			url:           "https://www.youtube.com/live/dQw4w9WgXcQ",
			wantValid:     true,
			wantMediaID:   "dQw4w9WgXcQ",
			wantMediaType: MediaVideo,
			wantCanonical: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:          "playlist page",
			url:           "https://www.youtube.com/playlist?list=PL1234567890abcdefghijklmnop",
			wantValid:     true,
			wantMediaID:   "PL1234567890abcdefghijklmnop",
			wantMediaType: MediaPlaylist,
			wantCanonical: "https://www.youtube.com/playlist?list=PL1234567890abcdefghijklmnop",
		},
		{
			name:          "watch URL inside a playlist",
			url:           "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL1234567890abcdefghijklmnop",
			wantValid:     true,
			wantMediaID:   "PL1234567890abcdefghijklmnop",
			wantMediaType: MediaPlaylist,
			wantCanonical: "https://www.youtube.com/playlist?list=PL1234567890abcdefghijklmnop",
		},
		{
			name:      "watch URL without video ID",
			url:       "https://www.youtube.com/watch",
			wantValid: false,
		},
		{
			name:      "video ID too short",
			url:       "https://www.youtube.com/watch?v=short",
			wantValid: false,
		},
		{
			name:      "playlist ID too short",
			url:       "https://www.youtube.com/playlist?list=PL123",
			wantValid: false,
		},
		{
			name:      "channel page",
			url:       "https://www.youtube.com/@somechannel",
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
