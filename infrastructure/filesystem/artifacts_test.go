package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reel-audio/domain/post"
)

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestDirectories_PrepareIsIdempotent(t *testing.T) {
	root := t.TempDir()
	d := NewDirectories()

	first, err := d.Prepare(root, "alice_XYZ")
	if err != nil {
		t.Fatalf("Prepare() unexpected error: %v", err)
	}
	if want := filepath.Join(root, "alice_XYZ"); first != want {
		t.Errorf("Prepare() = %q, want %q", first, want)
	}

	writeFile(t, filepath.Join(first, "keep.txt"), "x")

	second, err := d.Prepare(root, "alice_XYZ")
	if err != nil {
		t.Fatalf("second Prepare() unexpected error: %v", err)
	}
	if second != first {
		t.Errorf("second Prepare() = %q, want %q", second, first)
	}
	if _, err := os.Stat(filepath.Join(second, "keep.txt")); err != nil {
		t.Errorf("existing contents were lost: %v", err)
	}
}

func TestDirectories_PrepareFailsUnderFile(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	writeFile(t, blocker, "x")

	if _, err := NewDirectories().Prepare(blocker, "alice_XYZ"); err == nil {
		t.Error("Prepare() under a regular file expected error, got nil")
	}
}

func TestVideoFinder_FindVideo(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		dirs    []string
		want    string
		wantErr error
	}{
		{
			name:  "single video among sidecar files",
			files: []string{"2024-05-01_UTC.jpg", "2024-05-01_UTC.mp4", "2024-05-01_UTC.txt", "2024-05-01_UTC.json.xz"},
			want:  "2024-05-01_UTC.mp4",
		},
		{
			name:  "lexicographically smallest wins",
			files: []string{"b.mp4", "a_2.mp4", "a_1.webm"},
			want:  "a_1.webm",
		},
		{
			name:  "extension match ignores case",
			files: []string{"CLIP.MP4"},
			want:  "CLIP.MP4",
		},
		{
			name:    "subdirectories are not scanned",
			files:   []string{"cover.jpg"},
			dirs:    []string{"nested.mp4"},
			wantErr: post.ErrNoVideoArtifact,
		},
		{
			name:    "empty directory",
			wantErr: post.ErrNoVideoArtifact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, filepath.Join(dir, f), "data")
			}
			for _, d := range tt.dirs {
				if err := os.Mkdir(filepath.Join(dir, d), 0755); err != nil {
					t.Fatal(err)
				}
			}

			got, err := NewVideoFinder(nil).FindVideo(dir)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FindVideo() error = %v, want %v", err, tt.wantErr)
				}
				if !strings.Contains(err.Error(), "no video artifact found") {
					t.Errorf("FindVideo() error = %q, want it to mention no video artifact", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("FindVideo() unexpected error: %v", err)
			}
			if want := filepath.Join(dir, tt.want); got != want {
				t.Errorf("FindVideo() = %q, want %q", got, want)
			}
		})
	}
}

func TestVideoFinder_CustomExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mkv"), "x")
	writeFile(t, filepath.Join(dir, "b.mp4"), "x")

	got, err := NewVideoFinder([]string{"mp4"}).FindVideo(dir)
	if err != nil {
		t.Fatalf("FindVideo() unexpected error: %v", err)
	}
	if want := filepath.Join(dir, "b.mp4"); got != want {
		t.Errorf("FindVideo() = %q, want %q", got, want)
	}
}

func TestVideoFinder_MissingDirectory(t *testing.T) {
	_, err := NewVideoFinder(nil).FindVideo(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("FindVideo() expected error for missing directory")
	}
	if errors.Is(err, post.ErrNoVideoArtifact) {
		t.Errorf("missing directory should not be reported as no video artifact")
	}
}

func TestChecker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mp4")
	writeFile(t, path, "12345")

	c := NewChecker()
	if !c.Exists(path) {
		t.Error("Exists() = false for existing file")
	}
	if c.Exists(filepath.Join(dir, "nope")) {
		t.Error("Exists() = true for missing file")
	}
	size, err := c.Size(path)
	if err != nil || size != 5 {
		t.Errorf("Size() = %d, %v; want 5, nil", size, err)
	}
	if _, err := c.Size(filepath.Join(dir, "nope")); err == nil {
		t.Error("Size() expected error for missing file")
	}
}
