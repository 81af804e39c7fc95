package audio

import (
	"path/filepath"
	"strings"
)

// DefaultVideoExtensions are the extensions treated as downloadable video artifacts
var DefaultVideoExtensions = []string{".mp4", ".mov", ".mkv", ".webm", ".avi"}

// SourceExtensions are accepted as input for local conversion. Audio inputs are
// allowed so an existing recording can be re-encoded.
var SourceExtensions = append(append([]string{}, DefaultVideoExtensions...), ".mp3", ".wav", ".m4a", ".aac", ".flac")

// HasExtension reports whether path ends in one of exts, ignoring case
func HasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// NormalizeExtensions lowercases extensions and adds the leading dot where missing
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
