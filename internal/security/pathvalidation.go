// Package security guards the upload and video-serving paths against
// traversal and unexpected file types.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// allowedVideoExts are the upload container formats accepted by the system.
var allowedVideoExts = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
}

// AllowedVideoFile reports whether the filename carries an accepted video
// extension.
func AllowedVideoFile(name string) bool {
	return allowedVideoExts[strings.ToLower(filepath.Ext(name))]
}

// ValidatePathWithinDirectory rejects file paths that resolve outside the
// given directory, preventing traversal through ".." components or absolute
// paths smuggled into request segments.
func ValidatePathWithinDirectory(filePath, dir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve directory: %w", err)
	}

	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", filePath, dir)
	}
	return nil
}
