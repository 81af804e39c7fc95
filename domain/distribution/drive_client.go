package distribution

import (
	"context"
	"time"
)

// DriveClient defines the interface for Google Drive operations
// This is a port that can be implemented by different infrastructure adapters
type DriveClient interface {
	// FindFileByName returns the non-trashed file called fileName in folderID, or nil when absent
	FindFileByName(ctx context.Context, folderID, fileName string) (*FileInfo, error)

	// GetStorageQuota returns the current storage quota information
	GetStorageQuota(ctx context.Context) (*StorageInfo, error)

	// DeletePermanently deletes a file permanently (bypasses trash)
	DeletePermanently(ctx context.Context, fileID string) error

	// UploadAndShare uploads a file and grants "anyone with the link" read access
	UploadAndShare(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

// FileInfo represents metadata about a file in Google Drive
type FileInfo struct {
	ID          string
	Name        string
	MimeType    string
	Size        int64
	CreatedTime time.Time
}
