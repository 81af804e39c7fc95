package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"reel-audio/domain/audio"
	"reel-audio/domain/post"
)

// Directories implements post.DirectoryPreparer
type Directories struct{}

// NewDirectories creates a directory preparer
func NewDirectories() *Directories {
	return &Directories{}
}

// Prepare creates root/name if needed and returns its path
func (d *Directories) Prepare(root, name string) (string, error) {
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create item directory %s: %w", dir, err)
	}
	return dir, nil
}

// VideoFinder implements post.ArtifactFinder over a directory's immediate contents
type VideoFinder struct {
	extensions []string
}

// NewVideoFinder creates a finder matching the given extensions (defaults when empty)
func NewVideoFinder(extensions []string) *VideoFinder {
	exts := audio.NormalizeExtensions(extensions)
	if len(exts) == 0 {
		exts = audio.DefaultVideoExtensions
	}
	return &VideoFinder{extensions: exts}
}

// ListVideos returns matching files in dir sorted by filename
func (f *VideoFinder) ListVideos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if audio.HasExtension(entry.Name(), f.extensions) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for i, name := range files {
		files[i] = filepath.Join(dir, name)
	}
	return files, nil
}

// FindVideo returns the lexicographically smallest video file in dir
func (f *VideoFinder) FindVideo(dir string) (string, error) {
	files, err := f.ListVideos(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w in %s", post.ErrNoVideoArtifact, dir)
	}
	return files[0], nil
}

var (
	_ post.DirectoryPreparer = (*Directories)(nil)
	_ post.ArtifactFinder    = (*VideoFinder)(nil)
)
