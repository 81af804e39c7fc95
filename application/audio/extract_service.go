package audio

import (
	"context"
	"errors"
	"fmt"

	"reel-audio/domain/audio"
)

// ExtractResult contains the result of an audio extraction operation
type ExtractResult struct {
	SourcePath string
	OutputPath string
	Format     audio.Format
	Track      *audio.AudioTrack

	// FallbackCause is the MP3 encoding error when WAV was written instead
	FallbackCause error
}

// ExtractService coordinates audio extraction operations
type ExtractService struct {
	converter   audio.Converter
	fileChecker audio.FileChecker
	settings    audio.Settings
	allowedExts []string
}

// ExtractOption is a functional option for configuring ExtractService
type ExtractOption func(*ExtractService)

// WithSourceExtensions accepts additional source extensions, such as the
// configured video extensions the artifact finder selects from
func WithSourceExtensions(exts []string) ExtractOption {
	return func(s *ExtractService) {
		for _, e := range audio.NormalizeExtensions(exts) {
			if !audio.HasExtension(e, s.allowedExts) {
				s.allowedExts = append(s.allowedExts, e)
			}
		}
	}
}

// NewExtractService creates a new ExtractService
func NewExtractService(converter audio.Converter, fileChecker audio.FileChecker, settings audio.Settings, opts ...ExtractOption) *ExtractService {
	if settings.Format == "" {
		settings.Format = audio.DefaultFormat
	}
	if settings.Bitrate == "" && settings.Format.Lossy() {
		settings.Bitrate = audio.DefaultBitrate
	}
	s := &ExtractService{
		converter:   converter,
		fileChecker: fileChecker,
		settings:    settings,
		allowedExts: append([]string{}, audio.SourceExtensions...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the output settings applied to every extraction
func (s *ExtractService) Settings() audio.Settings {
	return s.settings
}

// ExtractInput represents the input for an audio extraction operation
type ExtractInput struct {
	SourcePath string
	OutputDir  string // Optional, defaults to the source's directory
	Bitrate    string // Optional, uses service default if empty
}

// Extract converts a local media file, writing the audio into OutputDir or next to the source
func (s *ExtractService) Extract(ctx context.Context, input ExtractInput) (*ExtractResult, error) {
	settings := s.settings
	if input.Bitrate != "" {
		settings.Bitrate = input.Bitrate
	}

	req, err := audio.NewExtractionRequest(input.SourcePath, settings)
	if err != nil {
		return nil, err
	}

	return s.extract(ctx, req, req.OutputPathIn(input.OutputDir))
}

// ExtractTo converts sourcePath and writes the audio to its sibling path
func (s *ExtractService) ExtractTo(ctx context.Context, sourcePath string) (*ExtractResult, error) {
	req, err := audio.NewExtractionRequest(sourcePath, s.settings)
	if err != nil {
		return nil, err
	}
	return s.extract(ctx, req, req.OutputPath())
}

func (s *ExtractService) extract(ctx context.Context, req *audio.ExtractionRequest, outputPath string) (result *ExtractResult, err error) {
	if err := s.validateSource(req.SourcePath); err != nil {
		return nil, err
	}
	outputPath = audio.DistinctOutputPath(req.SourcePath, outputPath)

	media, err := s.converter.OpenMedia(ctx, req.SourcePath)
	if err != nil {
		return nil, err
	}
	// Released on every path; a close failure only surfaces if nothing else failed.
	defer func() {
		if cerr := media.Close(); cerr != nil && err == nil {
			result = nil
			err = cerr
		}
	}()

	track, err := media.AudioTrack()
	if err != nil {
		return nil, err
	}

	result = &ExtractResult{
		SourcePath: req.SourcePath,
		OutputPath: outputPath,
		Format:     req.Format,
		Track:      track,
	}

	werr := s.converter.WriteAudio(ctx, track, req, outputPath)
	if werr == nil {
		return result, nil
	}
	if req.Format != audio.FormatMP3 || ctx.Err() != nil {
		return nil, werr
	}

	// MP3 encoding can be missing from an ffmpeg build; PCM WAV always works.
	wavPath := audio.DistinctOutputPath(req.SourcePath, audio.SwapExtension(outputPath, audio.FormatWAV))
	if err := s.converter.WriteAudio(ctx, track, req.WithFormat(audio.FormatWAV), wavPath); err != nil {
		return nil, err
	}

	result.OutputPath = wavPath
	result.Format = audio.FormatWAV
	result.FallbackCause = werr
	return result, nil
}

// validateSource rejects missing, empty and unrecognised inputs before ffmpeg sees them
func (s *ExtractService) validateSource(path string) error {
	if !s.fileChecker.Exists(path) {
		return fmt.Errorf("%w: %s", audio.ErrSourceMissing, path)
	}

	size, err := s.fileChecker.Size(path)
	if err != nil {
		return fmt.Errorf("stat source media: %w", err)
	}
	if size == 0 {
		return fmt.Errorf("%w: %s", audio.ErrSourceEmpty, path)
	}

	if !audio.HasExtension(path, s.allowedExts) {
		return fmt.Errorf("%w: %s", audio.ErrUnsupportedSource, path)
	}
	return nil
}

// IsSourceError reports whether err came from source validation rather than conversion
func IsSourceError(err error) bool {
	return errors.Is(err, audio.ErrSourceMissing) ||
		errors.Is(err, audio.ErrSourceEmpty) ||
		errors.Is(err, audio.ErrUnsupportedSource)
}
