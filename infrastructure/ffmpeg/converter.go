package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"reel-audio/domain/audio"
)

// Converter implements audio.Converter using ffprobe and ffmpeg
type Converter struct {
	ffmpegPath  string
	ffprobePath string
	runner      CommandRunner
}

// ConverterOption is a functional option for configuring Converter
type ConverterOption func(*Converter)

// WithFFmpegPath sets a custom ffmpeg executable path
func WithFFmpegPath(path string) ConverterOption {
	return func(c *Converter) {
		if path != "" {
			c.ffmpegPath = path
		}
	}
}

// WithFFprobePath sets a custom ffprobe executable path
func WithFFprobePath(path string) ConverterOption {
	return func(c *Converter) {
		if path != "" {
			c.ffprobePath = path
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner CommandRunner) ConverterOption {
	return func(c *Converter) {
		c.runner = runner
	}
}

// NewConverter creates a new FFmpeg-based converter
func NewConverter(opts ...ConverterOption) *Converter {
	c := &Converter{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		runner:      &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// probeOutput is the subset of `ffprobe -of json` output we read
type probeOutput struct {
	Streams []struct {
		Index      int    `json:"index"`
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Media is an opened media file. ffmpeg reads the source by path; the open
// handle pins the file so it cannot be swapped or removed from under the
// conversion, and Close ends that scope.
type Media struct {
	file  *os.File
	track *audio.AudioTrack
}

// AudioTrack implements audio.Media
func (m *Media) AudioTrack() (*audio.AudioTrack, error) {
	if m.track == nil {
		return nil, fmt.Errorf("%w: %s", audio.ErrNoAudioStream, m.file.Name())
	}
	return m.track, nil
}

// Close releases the file handle
func (m *Media) Close() error {
	return m.file.Close()
}

// OpenMedia implements audio.Converter
func (c *Converter) OpenMedia(ctx context.Context, path string) (audio.Media, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	track, err := c.probe(ctx, path)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Media{file: f, track: track}, nil
}

// probe returns the first audio stream of path, or nil when there is none
func (c *Converter) probe(ctx context.Context, path string) (*audio.AudioTrack, error) {
	out, err := c.runner.Output(ctx, c.ffprobePath,
		"-v", "error",
		"-show_entries", "stream=index,codec_type,codec_name,sample_rate,channels:format=duration",
		"-of", "json",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	for _, s := range probe.Streams {
		if s.CodecType != "audio" {
			continue
		}
		rate, _ := strconv.Atoi(s.SampleRate)
		return &audio.AudioTrack{
			SourcePath:  path,
			StreamIndex: s.Index,
			Codec:       s.CodecName,
			SampleRate:  rate,
			Channels:    s.Channels,
			Duration:    parseSeconds(probe.Format.Duration),
		}, nil
	}
	return nil, nil
}

// WriteAudio implements audio.Converter
func (c *Converter) WriteAudio(ctx context.Context, track *audio.AudioTrack, req *audio.ExtractionRequest, outputPath string) error {
	if err := c.runner.Run(ctx, c.ffmpegPath, BuildArgs(track, req, outputPath)...); err != nil {
		return fmt.Errorf("ffmpeg audio extraction failed: %w", err)
	}
	return nil
}

// BuildArgs returns the ffmpeg arguments that write track to outputPath
func BuildArgs(track *audio.AudioTrack, req *audio.ExtractionRequest, outputPath string) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", track.SourcePath,
		"-map", fmt.Sprintf("0:%d", track.StreamIndex),
		"-vn", // No video
	}

	switch req.Format {
	case audio.FormatWAV:
		args = append(args, "-acodec", "pcm_s16le")
	default:
		args = append(args, "-acodec", "libmp3lame", "-ab", req.Bitrate)
	}

	if req.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(req.SampleRate))
	}
	if req.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(req.Channels))
	}

	return append(args, "-y", outputPath) // Overwrite output file if it exists
}

// VerifyInstalled checks that ffmpeg and ffprobe are available
func (c *Converter) VerifyInstalled(ctx context.Context) error {
	if _, err := c.runner.Output(ctx, c.ffmpegPath, "-version"); err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	if _, err := c.runner.Output(ctx, c.ffprobePath, "-version"); err != nil {
		return fmt.Errorf("ffprobe not found or not executable: %w", err)
	}
	return nil
}

func parseSeconds(s string) time.Duration {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}

// Ensure Converter implements audio.Converter
var _ audio.Converter = (*Converter)(nil)
