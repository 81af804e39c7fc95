package audio

import (
	"context"
	"time"
)

// AudioTrack describes the audio stream selected inside a media file
type AudioTrack struct {
	SourcePath  string
	StreamIndex int // Absolute stream index inside the container
	Codec       string
	SampleRate  int
	Channels    int
	Duration    time.Duration
}

// Media is an opened media file. It must be closed exactly once.
type Media interface {
	// AudioTrack returns the audio stream, or ErrNoAudioStream
	AudioTrack() (*AudioTrack, error)

	Close() error
}

// Converter defines the interface for media conversion operations
// This is a port that can be implemented by different infrastructure adapters
type Converter interface {
	// OpenMedia opens the media file at path
	OpenMedia(ctx context.Context, path string) (Media, error)

	// WriteAudio writes the track to outputPath using the request's output parameters
	WriteAudio(ctx context.Context, track *AudioTrack, req *ExtractionRequest, outputPath string) error
}

// FileChecker defines the interface for inspecting source files
type FileChecker interface {
	// Exists returns true if the file exists
	Exists(path string) bool

	// Size returns the file size in bytes
	Size(path string) (int64, error)
}
