package security

import (
	"path/filepath"
	"testing"
)

func TestAllowedVideoFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"north.mp4", true},
		{"clip.AVI", true},
		{"clip.mov", true},
		{"clip.mkv", false},
		{"clip.mp4.exe", false},
		{"noext", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := AllowedVideoFile(tt.name); got != tt.want {
			t.Errorf("AllowedVideoFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValidatePathWithinDirectory(t *testing.T) {
	dir := t.TempDir()

	if err := ValidatePathWithinDirectory(filepath.Join(dir, "abc", "north.mp4"), dir); err != nil {
		t.Errorf("valid path rejected: %v", err)
	}

	bad := []string{
		filepath.Join(dir, "..", "escape.mp4"),
		filepath.Join(dir, "abc", "..", "..", "escape.mp4"),
		"/etc/passwd",
	}
	for _, p := range bad {
		if err := ValidatePathWithinDirectory(p, dir); err == nil {
			t.Errorf("traversal path accepted: %s", p)
		}
	}
}
