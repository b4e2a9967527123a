package cmd

import (
	"context"
	"fmt"

	"audio-extract/lib"
	"audio-extract/lib/console"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [directory]",
	Short: "List the video files an extraction run would convert",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

var scanRecursive bool

func init() {
	scanCmd.Flags().BoolVarP(&scanRecursive, "recursive", "r", true, "Scan subdirectories")
	addConfigFlags(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	console.SetupLogging(verbose)

	cfg, err := loadConfig(cmd, func(cfg *lib.Config) {
		if cmd.Flags().Changed("recursive") {
			cfg.Recursive = scanRecursive
		}
	})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	scanner := lib.NewFileScanner(args[0], cfg.Recursive, cfg.Extensions)
	files, err := scanner.ScanVideoFiles(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range files {
		fmt.Fprintln(out, f)
	}
	return nil
}
