package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownKey is returned for keys the manager does not know
var ErrUnknownKey = errors.New("unknown config key")

// field binds a dotted key to a config value
type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringField(ptr func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error {
			*ptr(c) = v
			return nil
		},
	}
}

func intField(ptr func(c *Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*ptr(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("expected an integer, got %q", v)
			}
			*ptr(c) = n
			return nil
		},
	}
}

var fields = map[string]field{
	"paths.downloads_directory":    stringField(func(c *Config) *string { return &c.Paths.DownloadsDirectory }),
	"downloader.executable":        stringField(func(c *Config) *string { return &c.Downloader.Executable }),
	"downloader.post_url_template": stringField(func(c *Config) *string { return &c.Downloader.PostURLTemplate }),
	"downloader.cookies_file":      stringField(func(c *Config) *string { return &c.Downloader.CookiesFile }),
	"downloader.video_extensions": {
		get: func(c *Config) string { return strings.Join(c.Downloader.VideoExtensions, ",") },
		set: func(c *Config, v string) error {
			var exts []string
			for _, e := range strings.Split(v, ",") {
				if e = strings.TrimSpace(e); e != "" {
					exts = append(exts, e)
				}
			}
			if len(exts) == 0 {
				return fmt.Errorf("at least one extension is required")
			}
			c.Downloader.VideoExtensions = exts
			return nil
		},
	},
	"audio.format":            stringField(func(c *Config) *string { return &c.Audio.Format }),
	"audio.bitrate":           stringField(func(c *Config) *string { return &c.Audio.Bitrate }),
	"audio.sample_rate":       intField(func(c *Config) *int { return &c.Audio.SampleRate }),
	"audio.channels":          intField(func(c *Config) *int { return &c.Audio.Channels }),
	"ffmpeg.ffmpeg_path":      stringField(func(c *Config) *string { return &c.FFmpeg.FFmpegPath }),
	"ffmpeg.ffprobe_path":     stringField(func(c *Config) *string { return &c.FFmpeg.FFprobePath }),
	"google.credentials_file": stringField(func(c *Config) *string { return &c.Google.CredentialsFile }),
	"google.token_file":       stringField(func(c *Config) *string { return &c.Google.TokenFile }),
	"google.folder_id":        stringField(func(c *Config) *string { return &c.Google.FolderID }),
	"logging.level":           stringField(func(c *Config) *string { return &c.Logging.Level }),
	"logging.format":          stringField(func(c *Config) *string { return &c.Logging.Format }),
}

// ConfigManager reads and updates single config entries by dotted key
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Keys returns every known key in sorted order
func (m *ConfigManager) Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under key
func (m *ConfigManager) Get(key string) (string, error) {
	f, ok := fields[normalizeKey(key)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return f.get(m.config), nil
}

// Set updates key, validates the result and saves the file.
// The in-memory config is left untouched when validation fails.
func (m *ConfigManager) Set(key, value string) error {
	f, ok := fields[normalizeKey(key)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	updated := *m.config
	updated.Downloader.VideoExtensions = append([]string{}, m.config.Downloader.VideoExtensions...)
	if err := f.set(&updated, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	*m.config = updated
	return Save(m.config, m.configPath)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
