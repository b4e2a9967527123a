package cmd

import (
	"audio-extract/lib"

	"github.com/spf13/cobra"
)

// Flags shared by the commands that read the configuration.
var (
	configPath string
	verbose    bool
)

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// loadConfig reads the config file when one was given and applies every
// flag the user set explicitly on top of it.
func loadConfig(cmd *cobra.Command, apply func(cfg *lib.Config)) (lib.Config, error) {
	cfg := lib.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = lib.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
	}
	if apply != nil {
		apply(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
