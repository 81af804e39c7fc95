package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reel-audio/infrastructure/ffmpeg"
	"reel-audio/infrastructure/ytdlp"

	"github.com/spf13/cobra"
)

// checkTimeout bounds each external tool probe
const checkTimeout = 5 * time.Second

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that external tools and the downloads directory are usable",
	Long: `Verify the environment before processing:

  - yt-dlp can be executed
  - ffmpeg and ffprobe can be executed
  - the downloads directory exists (or can be created) and is writable

Example:
  reel-audio check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// Verifier is a component that can check its own prerequisites
type Verifier interface {
	VerifyInstalled(ctx context.Context) error
}

// CheckTarget names a verifier in the check report
type CheckTarget struct {
	Name     string
	Verifier Verifier
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	targets := []CheckTarget{
		{Name: "yt-dlp", Verifier: ytdlp.NewClient(ytdlp.WithExecutable(cfg.Downloader.Executable))},
		{Name: "ffmpeg/ffprobe", Verifier: ffmpeg.NewConverter(
			ffmpeg.WithFFmpegPath(cfg.FFmpeg.FFmpegPath),
			ffmpeg.WithFFprobePath(cfg.FFmpeg.FFprobePath),
		)},
	}

	return RunCheckWithDependencies(cmd.Context(), targets, cfg.Paths.DownloadsDirectory, os.Stdout)
}

// RunCheckWithDependencies runs the check command with injected dependencies (for testing)
func RunCheckWithDependencies(ctx context.Context, targets []CheckTarget, downloadsDir string, output OutputWriter) error {
	failed := 0

	for _, target := range targets {
		verifyCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := target.Verifier.VerifyInstalled(verifyCtx)
		cancel()

		if err != nil {
			failed++
			fmt.Fprintf(output, "[FAIL] %s: %v\n", target.Name, err)
			continue
		}
		fmt.Fprintf(output, "[ OK ] %s\n", target.Name)
	}

	if err := checkWritable(downloadsDir); err != nil {
		failed++
		fmt.Fprintf(output, "[FAIL] downloads directory %s: %v\n", downloadsDir, err)
	} else {
		fmt.Fprintf(output, "[ OK ] downloads directory %s\n", downloadsDir)
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

// checkWritable creates dir if needed and writes a probe file into it
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".write-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(filepath.Clean(name))
}
