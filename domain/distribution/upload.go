package distribution

import (
	"path/filepath"
	"strings"
)

// UploadRequest contains the parameters needed to upload a file to Google Drive
type UploadRequest struct {
	LocalPath string // Full path to the local file
	FileName  string // Target filename in Google Drive
	FolderID  string // Target folder ID in Google Drive
	MimeType  string // MIME type of the file
}

// UploadResult contains the result of a successful upload
type UploadResult struct {
	FileID       string // Google Drive file ID
	FileName     string // Name of the uploaded file
	ShareableURL string // URL for sharing the file
	Size         int64  // Size of the uploaded file in bytes
}

// MIME type constants for the audio formats we produce
const (
	MimeTypeMP3 = "audio/mpeg"
	MimeTypeWAV = "audio/wav"
)

// MimeTypeFor returns the MIME type for an audio file path
func MimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return MimeTypeWAV
	case ".mp3":
		return MimeTypeMP3
	default:
		return "application/octet-stream"
	}
}

// ShareableURL returns the link Drive serves for a shared file
func ShareableURL(fileID string) string {
	return "https://drive.google.com/file/d/" + fileID + "/view?usp=sharing"
}

// StorageInfo is the Drive quota seen before an upload. AvailableBytes may be
// negative when the account is already over its limit.
type StorageInfo struct {
	TotalBytes     int64
	UsedBytes      int64
	AvailableBytes int64
}

// HasSpaceFor reports whether an upload growing the folder by size bytes fits.
// A replacement smaller than the file it replaces has a negative size.
func (s StorageInfo) HasSpaceFor(size int64) bool {
	return size <= 0 || s.AvailableBytes >= size
}
