package main

import (
	"os"

	"audio-extract/cmd"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "audio-extract",
	Short: "Batch-extract audio tracks from video files with ffmpeg",
	Long: `audio-extract walks a directory of video files and extracts the first audio
stream of each one into a Matroska audio file, running several ffmpeg
processes in parallel.`,
	SilenceUsage: true,
}

func main() {
	cmd.AddCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
