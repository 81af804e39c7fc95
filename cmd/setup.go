package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"reel-audio/domain/audio"
	"reel-audio/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

func (p *SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through setting up the downloads directory, yt-dlp
and ffmpeg locations, the audio output format and optional Google Drive
upload settings.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	return RunSetupWithPrompter(DefaultPrompter, cfgFile, os.Stdout)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, out OutputWriter) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to reel-audio setup!")
	fmt.Fprintln(out)

	cfg := config.Default()

	if err := promptPaths(prompter, cfg); err != nil {
		return err
	}

	if err := promptTools(prompter, cfg); err != nil {
		return err
	}

	if err := promptAudio(prompter, cfg); err != nil {
		return err
	}

	if err := promptGoogle(prompter, cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	fmt.Fprintf(out, "Audio: %s, sample rate %s\n", cfg.Audio.Format, formatSampleRate(cfg.Audio.SampleRate))
	return nil
}

func promptPaths(prompter Prompter, cfg *config.Config) error {
	downloads, err := prompter.Input("Where should downloaded posts be stored?", cfg.Paths.DownloadsDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if downloads = strings.TrimSpace(downloads); downloads != "" {
		cfg.Paths.DownloadsDirectory = downloads
	}
	return nil
}

func promptTools(prompter Prompter, cfg *config.Config) error {
	ytdlpPath, err := prompter.Input("Path to the yt-dlp executable?", cfg.Downloader.Executable)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if ytdlpPath != "" {
		cfg.Downloader.Executable = ytdlpPath
	}

	cookies, err := prompter.Input("Cookies file for private posts (leave empty for none)?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Downloader.CookiesFile = cookies

	ffmpegPath, err := prompter.Input("Path to the ffmpeg executable?", cfg.FFmpeg.FFmpegPath)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if ffmpegPath != "" {
		cfg.FFmpeg.FFmpegPath = ffmpegPath
	}

	ffprobePath, err := prompter.Input("Path to the ffprobe executable?", cfg.FFmpeg.FFprobePath)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if ffprobePath != "" {
		cfg.FFmpeg.FFprobePath = ffprobePath
	}
	return nil
}

func promptAudio(prompter Prompter, cfg *config.Config) error {
	format, err := prompter.Select("Audio output format?",
		[]string{string(audio.FormatMP3), string(audio.FormatWAV)}, string(audio.DefaultFormat))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Audio.Format = format

	if format == string(audio.FormatMP3) {
		bitrate, err := prompter.Input("Audio bitrate for mp3 extraction?", audio.DefaultBitrate)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if bitrate == "" {
			bitrate = audio.DefaultBitrate
		}
		cfg.Audio.Bitrate = bitrate
	} else {
		cfg.Audio.Bitrate = ""
	}

	speech, err := prompter.Confirm("Resample to 16 kHz mono (for speech tools)?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if speech {
		cfg.Audio.SampleRate = 16000
		cfg.Audio.Channels = 1
	}
	return nil
}

func promptGoogle(prompter Prompter, cfg *config.Config) error {
	enable, err := prompter.Confirm("Upload audio to Google Drive?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !enable {
		return nil
	}

	credentials, err := prompter.Input("Path to Google credentials file?", "credentials.json")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if credentials == "" {
		credentials = "credentials.json"
	}
	cfg.Google.CredentialsFile = credentials

	folder, err := prompter.Input("Google Drive folder ID for uploads?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if folder == "" {
		return fmt.Errorf("folder ID is required")
	}
	cfg.Google.FolderID = folder

	return nil
}

// formatSampleRate renders a rate for display, "source" meaning unchanged
func formatSampleRate(rate int) string {
	if rate <= 0 {
		return "source"
	}
	return strconv.Itoa(rate) + " Hz"
}
