package discover

import "testing"

func TestIgnoreSetMatchesRelativePath(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		relPath  string
		want     bool
	}{
		{
			name:     "subdirectory glob matches full relative path",
			patterns: []string{"raw/*.dng"},
			relPath:  "raw/IMG_0001.dng",
			want:     true,
		},
		{
			name:     "subdirectory glob does not match same basename elsewhere",
			patterns: []string{"raw/*.dng"},
			relPath:  "edited/IMG_0001.dng",
			want:     false,
		},
		{
			name:     "bare basename glob still matches regardless of directory",
			patterns: []string{"*.dng"},
			relPath:  "raw/IMG_0001.dng",
			want:     true,
		},
		{
			name:     "plain substring matches anywhere in the relative path",
			patterns: []string{"private"},
			relPath:  "albums/private/secret.jpg",
			want:     true,
		},
		{
			name:     "no match",
			patterns: []string{"raw/*.dng"},
			relPath:  "photos/beach.jpg",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &IgnoreSet{patterns: tt.patterns}
			if got := s.Matches(tt.relPath); got != tt.want {
				t.Errorf("Matches(%q) with patterns %v = %v, want %v", tt.relPath, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestIgnoreSetNilIsAlwaysPass(t *testing.T) {
	var s *IgnoreSet
	if s.Matches("anything/at/all.jpg") {
		t.Error("nil IgnoreSet should never match")
	}
}
