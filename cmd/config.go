package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"reel-audio/infrastructure/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// DefaultOutput is the default output writer for config commands
var DefaultOutput OutputWriter = os.Stdout

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change configuration values",
	Long: `Inspect and change single values of the configuration file by dotted key.

Examples:
  reel-audio config show
  reel-audio config keys
  reel-audio config get audio.bitrate
  reel-audio config set audio.format wav`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

// --- SHOW command ---

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return RunConfigShowWithDependencies(cfg, DefaultOutput)
	},
}

// RunConfigShowWithDependencies prints cfg with injected dependencies
func RunConfigShowWithDependencies(cfg *config.Config, out OutputWriter) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// --- KEYS command ---

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every key with its current value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return RunConfigKeysWithDependencies(cfg, cfgFile, DefaultOutput)
	},
}

// RunConfigKeysWithDependencies lists keys with injected dependencies
func RunConfigKeysWithDependencies(cfg *config.Config, configPath string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "KEY\tVALUE")
	for _, key := range mgr.Keys() {
		value, err := mgr.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", key, value)
	}
	return w.Flush()
}

// --- GET command ---

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return RunConfigGetWithDependencies(cfg, cfgFile, args[0], DefaultOutput)
	},
}

// RunConfigGetWithDependencies runs the get command with injected dependencies
func RunConfigGetWithDependencies(cfg *config.Config, configPath, key string, out OutputWriter) error {
	value, err := config.NewConfigManager(cfg, configPath).Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, value)
	return nil
}

// --- SET command ---

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one configuration value and save the file",
	Long: `Change one configuration value and save the file. The file is created
when it does not exist yet.

Examples:
  reel-audio config set paths.downloads_directory /data/reels
  reel-audio config set audio.sample_rate 16000
  reel-audio config set downloader.video_extensions .mp4,.webm`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return RunConfigSetWithDependencies(cfg, cfgFile, args[0], args[1], DefaultOutput)
	},
}

// RunConfigSetWithDependencies runs the set command with injected dependencies
func RunConfigSetWithDependencies(cfg *config.Config, configPath, key, value string, out OutputWriter) error {
	if err := config.NewConfigManager(cfg, configPath).Set(key, value); err != nil {
		return err
	}
	fmt.Fprintf(out, "Set %s = %s in %s\n", key, value, configPath)
	return nil
}
