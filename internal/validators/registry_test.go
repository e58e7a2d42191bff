package validators

import "testing"

func TestRegistry_Validate(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name       string
		url        string
		wantValid  bool
		wantSource SourceType
	}{
		{"youtube", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", true, SourceYouTube},
		{"soundcloud", "https://soundcloud.com/artist/track", true, SourceSoundCloud},
		{"generic file", "https://example.com/archive.zip", true, SourceGeneric},
		{"generic with port", "http://localhost:9000/file.bin", true, SourceGeneric},
		{"invalid youtube stays youtube", "https://www.youtube.com/watch?v=bad", false, SourceYouTube},
		{"no host", "not a url", false, SourceGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Validate(tt.url)
			if got.Valid != tt.wantValid {
				t.Fatalf("Validate(%q).Valid = %v, want %v (error: %s)", tt.url, got.Valid, tt.wantValid, got.Error)
			}
			if got.SourceType != tt.wantSource {
				t.Errorf("SourceType = %q, want %q", got.SourceType, tt.wantSource)
			}
		})
	}
}

func TestRegistry_GetSupportedSources(t *testing.T) {
	sources := DefaultRegistry().GetSupportedSources()
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	want := map[SourceType]bool{SourceYouTube: true, SourceSoundCloud: true}
	for _, s := range sources {
		if !want[s] {
			t.Errorf("unexpected source %q", s)
		}
	}
}
