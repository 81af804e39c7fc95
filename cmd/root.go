package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"reel-audio/infrastructure/config"
	"reel-audio/infrastructure/logging"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
	cfgErr   error
)

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}

var rootCmd = &cobra.Command{
	Use:   "reel-audio",
	Short: "Download short-video posts and extract their audio",
	Long: `reel-audio downloads a post from a short-video site and extracts the
audio track of its video:

  - Resolve the post's owner and download its media with yt-dlp
  - Store it under downloads/{owner}_{identifier}/
  - Extract the audio next to the video (MP3 by default, or WAV)
  - Optionally upload the audio to Google Drive with sharing

Example:
  reel-audio process https://www.instagram.com/reel/DKCl8SvxMAR/`,
	SilenceUsage: true,
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultPath
	}

	// A missing file yields defaults; a malformed one is reported by commands that need it
	cfg, cfgErr = config.LoadOrDefault(cfgFile)
	if cfgErr == nil && logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}

// GetConfig returns the loaded configuration
func GetConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	if cfg == nil {
		return config.Default(), nil
	}
	return cfg, nil
}

// newLogger builds the structured logger for a command. Logs go to stderr so stdout
// carries only results.
func newLogger(c *config.Config, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(c.Logging, w)
	if err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}
	return logger, nil
}
