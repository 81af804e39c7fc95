package distribution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"reel-audio/domain/distribution"

	"github.com/dustin/go-humanize"
)

// ErrFolderNotConfigured is returned when no Drive folder was configured for uploads
var ErrFolderNotConfigured = errors.New("google.folder_id is not configured")

// ErrInsufficientSpace is returned when the Drive quota cannot hold the file
var ErrInsufficientSpace = errors.New("insufficient Google Drive storage")

// UploadService handles file upload operations to Google Drive
type UploadService struct {
	driveClient distribution.DriveClient
	folderID    string
	output      io.Writer
}

// NewUploadService creates a new upload service
func NewUploadService(client distribution.DriveClient, folderID string, output io.Writer) *UploadService {
	if output == nil {
		output = io.Discard
	}
	return &UploadService{
		driveClient: client,
		folderID:    folderID,
		output:      output,
	}
}

// UploadAudio uploads an audio file to Google Drive and sets public sharing.
// A file with the same name already in the folder is replaced.
func (s *UploadService) UploadAudio(ctx context.Context, audioPath string) (*distribution.UploadResult, error) {
	if s.folderID == "" {
		return nil, ErrFolderNotConfigured
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file does not exist: %s", audioPath)
		}
		return nil, err
	}

	storage, err := s.driveClient.GetStorageQuota(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check storage: %w", err)
	}

	fileName := filepath.Base(audioPath)

	// Check for existing file with same name and delete if found
	existing, err := s.driveClient.FindFileByName(ctx, s.folderID, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing file: %w", err)
	}

	needed := info.Size()
	if existing != nil {
		needed -= existing.Size
	}
	if !storage.HasSpaceFor(needed) {
		return nil, fmt.Errorf("%w: need %s, %s available", ErrInsufficientSpace,
			humanize.IBytes(uint64(needed)), humanize.IBytes(uint64(max(storage.AvailableBytes, 0))))
	}

	if existing != nil {
		fmt.Fprintf(s.output, "      Replacing existing %s (%s)\n", existing.Name, humanize.IBytes(uint64(existing.Size)))
		if err := s.driveClient.DeletePermanently(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to delete existing file %s: %w", existing.Name, err)
		}
	}

	req := distribution.UploadRequest{
		LocalPath: audioPath,
		FileName:  fileName,
		FolderID:  s.folderID,
		MimeType:  distribution.MimeTypeFor(audioPath),
	}

	result, err := s.driveClient.UploadAndShare(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload and share %s: %w", fileName, err)
	}

	return result, nil
}
