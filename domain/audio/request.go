package audio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultBitrate is the default bitrate for lossy audio output
const DefaultBitrate = "192k"

// Format is an output audio container/codec pair
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

// DefaultFormat is used when no format is configured
const DefaultFormat = FormatMP3

// ParseFormat validates a configured format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatMP3:
		return FormatMP3, nil
	case FormatWAV:
		return FormatWAV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Extension returns the file extension for the format, including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// Lossy reports whether the format takes a bitrate
func (f Format) Lossy() bool {
	return f == FormatMP3
}

// ExtractionRequest describes how audio should be written from a media file
type ExtractionRequest struct {
	SourcePath string
	Format     Format
	Bitrate    string // Only used by lossy formats
	SampleRate int    // Hz; 0 keeps the source rate
	Channels   int    // 0 keeps the source layout
}

// Settings are the output parameters shared by every request built from config
type Settings struct {
	Format     Format
	Bitrate    string
	SampleRate int
	Channels   int
}

// NewExtractionRequest creates a request for sourcePath with validation
func NewExtractionRequest(sourcePath string, s Settings) (*ExtractionRequest, error) {
	if sourcePath == "" {
		return nil, fmt.Errorf("source media path is required")
	}
	if s.SampleRate < 0 {
		return nil, fmt.Errorf("sample rate must not be negative: %d", s.SampleRate)
	}
	if s.Channels < 0 {
		return nil, fmt.Errorf("channel count must not be negative: %d", s.Channels)
	}

	format := s.Format
	if format == "" {
		format = DefaultFormat
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}

	bitrate := s.Bitrate
	if bitrate == "" && format.Lossy() {
		bitrate = DefaultBitrate
	}

	return &ExtractionRequest{
		SourcePath: sourcePath,
		Format:     format,
		Bitrate:    bitrate,
		SampleRate: s.SampleRate,
		Channels:   s.Channels,
	}, nil
}

// OutputFilename returns the source's base name with the audio extension
func (r *ExtractionRequest) OutputFilename() string {
	base := filepath.Base(r.SourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + r.Format.Extension()
}

// OutputPath returns the derived artifact path next to the source file
func (r *ExtractionRequest) OutputPath() string {
	return filepath.Join(filepath.Dir(r.SourcePath), r.OutputFilename())
}

// OutputPathIn returns the derived artifact path inside outputDir
func (r *ExtractionRequest) OutputPathIn(outputDir string) string {
	if outputDir == "" {
		return r.OutputPath()
	}
	return filepath.Join(outputDir, r.OutputFilename())
}

// WithFormat returns a copy of the request writing format instead, with the
// bitrate reset to that format's default
func (r *ExtractionRequest) WithFormat(format Format) *ExtractionRequest {
	out := *r
	out.Format = format
	out.Bitrate = ""
	if format.Lossy() {
		out.Bitrate = DefaultBitrate
	}
	return &out
}

// SwapExtension replaces the extension of path with the format's extension
func SwapExtension(path string, format Format) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + format.Extension()
}

// DistinctOutputPath returns outputPath, or a "_audio" variant of it when it
// would overwrite the source (an audio file re-encoded in place)
func DistinctOutputPath(sourcePath, outputPath string) string {
	if filepath.Clean(sourcePath) != filepath.Clean(outputPath) {
		return outputPath
	}
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + "_audio" + ext
}
