package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"reel-audio/domain/audio"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the configuration file is looked up when --config is not given
const DefaultPath = "config/config.yaml"

// DefaultPostURLTemplate builds a post URL from its identifier
const DefaultPostURLTemplate = "https://www.instagram.com/p/%s/"

// Environment variables that override file values
const (
	EnvDownloadsDir = "REEL_AUDIO_DOWNLOADS_DIR"
	EnvCookiesFile  = "REEL_AUDIO_COOKIES_FILE"
	EnvLogLevel     = "REEL_AUDIO_LOG_LEVEL"
)

// Config represents the complete application configuration
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Downloader DownloaderConfig `yaml:"downloader"`
	Audio      AudioConfig      `yaml:"audio"`
	FFmpeg     FFmpegConfig     `yaml:"ffmpeg"`
	Google     GoogleConfig     `yaml:"google"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PathsConfig contains directory paths for downloads
type PathsConfig struct {
	DownloadsDirectory string `yaml:"downloads_directory"`
}

// DownloaderConfig contains yt-dlp settings
type DownloaderConfig struct {
	Executable      string   `yaml:"executable"`
	PostURLTemplate string   `yaml:"post_url_template"`
	CookiesFile     string   `yaml:"cookies_file,omitempty"`
	VideoExtensions []string `yaml:"video_extensions"`
}

// AudioConfig contains audio extraction settings
type AudioConfig struct {
	Format     string `yaml:"format"`
	Bitrate    string `yaml:"bitrate"`
	SampleRate int    `yaml:"sample_rate,omitempty"`
	Channels   int    `yaml:"channels,omitempty"`
}

// FFmpegConfig contains executable paths for ffmpeg and ffprobe
type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

// GoogleConfig contains Google API settings used by uploads
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	TokenFile       string `yaml:"token_file,omitempty"`
	FolderID        string `yaml:"folder_id,omitempty"`
}

// LoggingConfig contains structured logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with every field set to its default
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DownloadsDirectory: "downloads",
		},
		Downloader: DownloaderConfig{
			Executable:      "yt-dlp",
			PostURLTemplate: DefaultPostURLTemplate,
			VideoExtensions: append([]string{}, audio.DefaultVideoExtensions...),
		},
		Audio: AudioConfig{
			Format:  string(audio.DefaultFormat),
			Bitrate: audio.DefaultBitrate,
		},
		FFmpeg: FFmpegConfig{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
		},
		Google: GoogleConfig{
			TokenFile: "token.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and parses the configuration from the specified YAML file.
// Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to defaults when the file does not exist
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		applyEnvOverrides(cfg)
		return cfg, nil
	}
	return cfg, err
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	if _, err := audio.ParseFormat(c.Audio.Format); err != nil {
		return fmt.Errorf("invalid audio.format: %w", err)
	}
	if c.Audio.SampleRate < 0 {
		return fmt.Errorf("invalid audio.sample_rate: %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels < 0 {
		return fmt.Errorf("invalid audio.channels: %d", c.Audio.Channels)
	}
	if t := c.Downloader.PostURLTemplate; t != "" && strings.Count(t, "%s") != 1 {
		return fmt.Errorf("invalid downloader.post_url_template %q: must contain exactly one %%s", t)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid logging.format %q", c.Logging.Format)
	}
	return nil
}

// AudioSettings converts the audio section into extraction settings
func (c *Config) AudioSettings() audio.Settings {
	format, err := audio.ParseFormat(c.Audio.Format)
	if err != nil {
		format = audio.DefaultFormat
	}
	return audio.Settings{
		Format:     format,
		Bitrate:    c.Audio.Bitrate,
		SampleRate: c.Audio.SampleRate,
		Channels:   c.Audio.Channels,
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDownloadsDir); v != "" {
		cfg.Paths.DownloadsDirectory = v
	}
	if v := os.Getenv(EnvCookiesFile); v != "" {
		cfg.Downloader.CookiesFile = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
}
