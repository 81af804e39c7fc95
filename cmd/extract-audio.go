package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	appaudio "reel-audio/application/audio"
	"reel-audio/domain/audio"
	"reel-audio/infrastructure/ffmpeg"
	"reel-audio/infrastructure/filesystem"

	"github.com/spf13/cobra"
)

var (
	extractSourcePath string
	extractOutputDir  string
	extractBitrate    string
	extractFormat     string
)

var extractAudioCmd = &cobra.Command{
	Use:   "extract-audio",
	Short: "Extract audio from a local media file",
	Long: `Extract the audio track of a local video or audio file.

The output keeps the source's name with the audio extension and is written next
to the source unless --output-dir is given.

Example:
  reel-audio extract-audio --source downloads/alice_XYZ/XYZ.mp4
  reel-audio extract-audio --source talk.mov --format wav --output-dir audio/`,
	RunE: runExtractAudio,
}

func init() {
	rootCmd.AddCommand(extractAudioCmd)
	extractAudioCmd.Flags().StringVar(&extractSourcePath, "source", "", "Path to source media file (required)")
	extractAudioCmd.Flags().StringVar(&extractOutputDir, "output-dir", "", "Directory for the audio file (defaults to the source's directory)")
	extractAudioCmd.Flags().StringVar(&extractBitrate, "bitrate", "", "Audio bitrate for mp3 (default from config or 192k)")
	extractAudioCmd.Flags().StringVar(&extractFormat, "format", "", "Output format: mp3 or wav (default from config)")
	extractAudioCmd.MarkFlagRequired("source")
}

func runExtractAudio(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	settings := cfg.AudioSettings()
	if extractFormat != "" {
		format, err := audio.ParseFormat(extractFormat)
		if err != nil {
			return err
		}
		if format != settings.Format {
			settings.Format = format
			settings.Bitrate = ""
		}
	}

	converter := ffmpeg.NewConverter(
		ffmpeg.WithFFmpegPath(cfg.FFmpeg.FFmpegPath),
		ffmpeg.WithFFprobePath(cfg.FFmpeg.FFprobePath),
	)

	return RunExtractAudioWithDependencies(
		cmd.Context(),
		converter,
		filesystem.NewChecker(),
		settings,
		appaudio.ExtractInput{
			SourcePath: extractSourcePath,
			OutputDir:  extractOutputDir,
			Bitrate:    extractBitrate,
		},
		os.Stdout,
		appaudio.WithSourceExtensions(cfg.Downloader.VideoExtensions),
	)
}

// RunExtractAudioWithDependencies runs the extract-audio command with injected dependencies (for testing)
func RunExtractAudioWithDependencies(
	ctx context.Context,
	converter audio.Converter,
	fileChecker audio.FileChecker,
	settings audio.Settings,
	input appaudio.ExtractInput,
	output OutputWriter,
	opts ...appaudio.ExtractOption,
) error {
	// Verify ffmpeg is available if converter supports it
	if verifiable, ok := converter.(interface{ VerifyInstalled(context.Context) error }); ok {
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := verifiable.VerifyInstalled(verifyCtx); err != nil {
			return fmt.Errorf("ffmpeg verification failed: %w", err)
		}
	}

	if input.OutputDir != "" {
		if err := os.MkdirAll(input.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	service := appaudio.NewExtractService(converter, fileChecker, settings, opts...)

	fmt.Fprintf(output, "Extracting audio from %s as %s...\n", input.SourcePath, service.Settings().Format)

	result, err := service.Extract(ctx, input)
	if err != nil {
		if appaudio.IsSourceError(err) {
			return fmt.Errorf("invalid source: %w", err)
		}
		return err
	}

	if result.FallbackCause != nil {
		fmt.Fprintf(output, "MP3 encoding failed (%v), wrote WAV instead\n", result.FallbackCause)
	}
	fmt.Fprintf(output, "Successfully created: %s\n", result.OutputPath)
	return nil
}
