package post

import "context"

// Downloader defines the interface for fetching posts from the remote site
// This is a port that can be implemented by different infrastructure adapters
type Downloader interface {
	// ResolveItem looks up the post's metadata (owner, title, ...)
	ResolveItem(ctx context.Context, id Identifier) (*Item, error)

	// DownloadItem fetches the post's media into targetDir
	DownloadItem(ctx context.Context, item *Item, targetDir string) error
}

// DirectoryPreparer creates item directories under a storage root
type DirectoryPreparer interface {
	// Prepare ensures root/name exists and returns its path; an existing directory is not an error
	Prepare(root, name string) (string, error)
}

// ArtifactFinder locates downloaded media inside an item directory
type ArtifactFinder interface {
	// FindVideo returns the path of the selected video file in dir
	FindVideo(dir string) (string, error)
}
