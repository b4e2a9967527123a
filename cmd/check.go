package cmd

import (
	"fmt"

	"audio-extract/lib"
	"audio-extract/lib/console"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that the ffmpeg binary is available",
	RunE:  runCheck,
}

var checkFFmpeg string

func init() {
	checkCmd.Flags().StringVar(&checkFFmpeg, "ffmpeg", lib.DefaultTranscoder, "ffmpeg binary to look for")
	addConfigFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	console.SetupLogging(verbose)

	cfg, err := loadConfig(cmd, func(cfg *lib.Config) {
		if cmd.Flags().Changed("ffmpeg") {
			cfg.Transcoder = checkFFmpeg
		}
	})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := lib.CheckTranscoderAvailable(cfg.Transcoder); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is available\n", cfg.Transcoder)
	return nil
}
