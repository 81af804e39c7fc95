package drive

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"reel-audio/domain/distribution"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DriveService defines the interface for Google Drive API operations
// This allows mocking the Google Drive API in tests
type DriveService interface {
	ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*drive.File, error)
	GetAbout(ctx context.Context, fields string) (*drive.About, error)
	DeleteFile(ctx context.Context, fileID string) error
	UploadFile(ctx context.Context, fileName, mimeType, folderID, localPath string) (*drive.File, error)
	CreatePermission(ctx context.Context, fileID string, permission *drive.Permission) error
}

// GoogleDriveService is the production implementation using the Google Drive API
type GoogleDriveService struct {
	service *drive.Service
}

// ListFiles lists files matching the query
func (s *GoogleDriveService) ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*drive.File, error) {
	r, err := s.service.Files.List().
		Q(query).
		Fields(googleapi.Field("files(" + fields + ")")).
		OrderBy(orderBy).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return r.Files, nil
}

// GetAbout returns account information, including the storage quota
func (s *GoogleDriveService) GetAbout(ctx context.Context, fields string) (*drive.About, error) {
	return s.service.About.Get().
		Fields(googleapi.Field(fields)).
		Context(ctx).
		Do()
}

// DeleteFile deletes a file permanently
func (s *GoogleDriveService) DeleteFile(ctx context.Context, fileID string) error {
	return s.service.Files.Delete(fileID).Context(ctx).Do()
}

// UploadFile uploads localPath into folderID
func (s *GoogleDriveService) UploadFile(ctx context.Context, fileName, mimeType, folderID, localPath string) (*drive.File, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	meta := &drive.File{
		Name:     fileName,
		MimeType: mimeType,
		Parents:  []string{folderID},
	}

	return s.service.Files.Create(meta).
		Media(f, googleapi.ContentType(mimeType)).
		Fields("id, name, mimeType, size, webViewLink").
		Context(ctx).
		Do()
}

// CreatePermission grants permission on fileID
func (s *GoogleDriveService) CreatePermission(ctx context.Context, fileID string, permission *drive.Permission) error {
	_, err := s.service.Permissions.Create(fileID, permission).Context(ctx).Do()
	return err
}

// Client implements distribution.DriveClient using Google Drive API
type Client struct {
	driveService DriveService
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithDriveService sets a custom drive service (for testing)
func WithDriveService(svc DriveService) ClientOption {
	return func(c *Client) {
		c.driveService = svc
	}
}

// NewClient creates a new Google Drive client authenticated with a service account
// If no options are provided, it initializes a real Google Drive service
func NewClient(ctx context.Context, credentialsPath string, opts ...ClientOption) (*Client, error) {
	c := &Client{}

	for _, opt := range opts {
		opt(c)
	}

	// If no custom drive service was provided, create a real one
	if c.driveService == nil {
		svc, err := newGoogleDriveService(ctx, credentialsPath)
		if err != nil {
			return nil, err
		}
		c.driveService = svc
	}

	return c, nil
}

// newGoogleDriveService creates a production Google Drive service
func newGoogleDriveService(ctx context.Context, credentialsPath string) (*GoogleDriveService, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(b, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	client := config.Client(ctx)
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &GoogleDriveService{service: srv}, nil
}

// FindFileByName implements distribution.DriveClient
func (c *Client) FindFileByName(ctx context.Context, folderID, fileName string) (*distribution.FileInfo, error) {
	query := fmt.Sprintf("'%s' in parents and name = '%s' and trashed = false", folderID, escapeQuery(fileName))
	files, err := c.driveService.ListFiles(ctx, query, "id, name, mimeType, size, createdTime", "createdTime desc")
	if err != nil {
		return nil, fmt.Errorf("failed to search for %s: %w", fileName, err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	f := files[0]
	return &distribution.FileInfo{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		Size:        f.Size,
		CreatedTime: parseTime(f.CreatedTime),
	}, nil
}

// GetStorageQuota implements distribution.DriveClient
func (c *Client) GetStorageQuota(ctx context.Context) (*distribution.StorageInfo, error) {
	about, err := c.driveService.GetAbout(ctx, "storageQuota")
	if err != nil {
		return nil, fmt.Errorf("failed to get storage quota: %w", err)
	}

	quota := about.StorageQuota
	if quota == nil {
		return nil, fmt.Errorf("storage quota missing from response")
	}

	return &distribution.StorageInfo{
		TotalBytes:     quota.Limit,
		UsedBytes:      quota.Usage,
		AvailableBytes: quota.Limit - quota.Usage,
	}, nil
}

// DeletePermanently implements distribution.DriveClient
func (c *Client) DeletePermanently(ctx context.Context, fileID string) error {
	if err := c.driveService.DeleteFile(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fileID, err)
	}
	return nil
}

// UploadAndShare implements distribution.DriveClient
func (c *Client) UploadAndShare(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResult, error) {
	f, err := c.driveService.UploadFile(ctx, req.FileName, req.MimeType, req.FolderID, req.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", req.FileName, err)
	}

	perm := &drive.Permission{Type: "anyone", Role: "reader"}
	if err := c.driveService.CreatePermission(ctx, f.Id, perm); err != nil {
		return nil, fmt.Errorf("failed to share %s: %w", req.FileName, err)
	}

	link := f.WebViewLink
	if link == "" {
		link = distribution.ShareableURL(f.Id)
	}

	return &distribution.UploadResult{
		FileID:       f.Id,
		FileName:     f.Name,
		ShareableURL: link,
		Size:         f.Size,
	}, nil
}

// escapeQuery quotes a value for use inside a Drive query string literal
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// parseTime parses a Google Drive timestamp string
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Ensure Client implements distribution.DriveClient
var _ distribution.DriveClient = (*Client)(nil)
