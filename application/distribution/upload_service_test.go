package distribution

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reel-audio/domain/distribution"
)

// mockDriveClient implements distribution.DriveClient for testing
type mockDriveClient struct {
	files             map[string]*distribution.FileInfo // keyed by fileName
	findFileByNameErr error
	uploadErr         error
	deleteErr         error
	storageInfo       *distribution.StorageInfo
	deleted           []string
	uploads           []distribution.UploadRequest
}

func newMockDriveClient() *mockDriveClient {
	return &mockDriveClient{
		files: make(map[string]*distribution.FileInfo),
		storageInfo: &distribution.StorageInfo{
			TotalBytes:     15 * 1024 * 1024 * 1024,
			AvailableBytes: 15 * 1024 * 1024 * 1024,
		},
	}
}

func (m *mockDriveClient) FindFileByName(ctx context.Context, folderID, fileName string) (*distribution.FileInfo, error) {
	if m.findFileByNameErr != nil {
		return nil, m.findFileByNameErr
	}
	if file, ok := m.files[fileName]; ok {
		return file, nil
	}
	return nil, nil // Not found is not an error
}

func (m *mockDriveClient) GetStorageQuota(ctx context.Context) (*distribution.StorageInfo, error) {
	return m.storageInfo, nil
}

func (m *mockDriveClient) DeletePermanently(ctx context.Context, fileID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, fileID)
	return nil
}

func (m *mockDriveClient) UploadAndShare(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResult, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.uploads = append(m.uploads, req)
	return &distribution.UploadResult{
		FileID:       "test-file-id",
		FileName:     req.FileName,
		ShareableURL: distribution.ShareableURL("test-file-id"),
		Size:         1024,
	}, nil
}

func writeAudio(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, bytes.Repeat([]byte{0}, size), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadService_UploadAudio(t *testing.T) {
	path := writeAudio(t, "XYZ.mp3", 1024)
	client := newMockDriveClient()
	svc := NewUploadService(client, "folder-1", nil)

	result, err := svc.UploadAudio(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadAudio() unexpected error: %v", err)
	}

	if result.FileName != "XYZ.mp3" {
		t.Errorf("FileName = %q, want XYZ.mp3", result.FileName)
	}
	if len(client.uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(client.uploads))
	}
	req := client.uploads[0]
	if req.FolderID != "folder-1" || req.MimeType != distribution.MimeTypeMP3 || req.LocalPath != path {
		t.Errorf("upload request = %+v", req)
	}
}

func TestUploadService_ReplacesExisting(t *testing.T) {
	path := writeAudio(t, "XYZ.wav", 2048)
	client := newMockDriveClient()
	client.files["XYZ.wav"] = &distribution.FileInfo{ID: "old-id", Name: "XYZ.wav", Size: 2048}
	var out bytes.Buffer

	if _, err := NewUploadService(client, "folder-1", &out).UploadAudio(context.Background(), path); err != nil {
		t.Fatalf("UploadAudio() unexpected error: %v", err)
	}

	if len(client.deleted) != 1 || client.deleted[0] != "old-id" {
		t.Errorf("deleted = %v, want [old-id]", client.deleted)
	}
	if !strings.Contains(out.String(), "Replacing existing XYZ.wav (2.0 KiB)") {
		t.Errorf("output = %q", out.String())
	}
	if client.uploads[0].MimeType != distribution.MimeTypeWAV {
		t.Errorf("MimeType = %q, want %q", client.uploads[0].MimeType, distribution.MimeTypeWAV)
	}
}

func TestUploadService_Errors(t *testing.T) {
	tests := []struct {
		name     string
		folderID string
		missing  bool
		setup    func(c *mockDriveClient)
		wantErr  error
		wantText string
	}{
		{
			name:     "no folder",
			folderID: "",
			setup:    func(c *mockDriveClient) {},
			wantErr:  ErrFolderNotConfigured,
		},
		{
			name:     "missing file",
			folderID: "f",
			missing:  true,
			setup:    func(c *mockDriveClient) {},
			wantText: "file does not exist",
		},
		{
			name:     "quota exhausted",
			folderID: "f",
			setup: func(c *mockDriveClient) {
				c.storageInfo = &distribution.StorageInfo{AvailableBytes: 10}
			},
			wantErr: ErrInsufficientSpace,
		},
		{
			name:     "lookup fails",
			folderID: "f",
			setup: func(c *mockDriveClient) {
				c.findFileByNameErr = errors.New("403 forbidden")
			},
			wantText: "failed to check for existing file: 403 forbidden",
		},
		{
			name:     "delete fails",
			folderID: "f",
			setup: func(c *mockDriveClient) {
				c.files["XYZ.mp3"] = &distribution.FileInfo{ID: "old", Name: "XYZ.mp3"}
				c.deleteErr = errors.New("boom")
			},
			wantText: "failed to delete existing file XYZ.mp3",
		},
		{
			name:     "upload fails",
			folderID: "f",
			setup: func(c *mockDriveClient) {
				c.uploadErr = errors.New("connection reset")
			},
			wantText: "failed to upload and share XYZ.mp3: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeAudio(t, "XYZ.mp3", 100)
			if tt.missing {
				path = filepath.Join(filepath.Dir(path), "gone.mp3")
			}
			client := newMockDriveClient()
			tt.setup(client)

			_, err := NewUploadService(client, tt.folderID, nil).UploadAudio(context.Background(), path)
			if err == nil {
				t.Fatal("UploadAudio() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantText != "" && !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantText)
			}
		})
	}
}
