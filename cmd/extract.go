package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"audio-extract/lib"
	"audio-extract/lib/console"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the audio track of every video file in a directory",
	Long: `Scan a directory for video files and extract the first audio stream of each
file into an audio-only container using ffmpeg, without re-encoding.

Files are converted in parallel. The first interrupt (Ctrl-C) stops the run
gracefully: queued files are cancelled and files already being converted are
allowed to finish. A second interrupt aborts the running conversions.`,
	RunE: runExtract,
}

var (
	extractInput       string
	extractOutput      string
	extractRecursive   bool
	extractParallelism int
	extractFFmpeg      string
	extractExtension   string
	extractReport      string
)

func init() {
	extractCmd.Flags().StringVarP(&extractInput, "input", "i", "", "Input directory to scan for video files (required)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output directory for audio files (defaults to the input directory)")
	extractCmd.Flags().BoolVarP(&extractRecursive, "recursive", "r", true, "Scan subdirectories")
	extractCmd.Flags().IntVarP(&extractParallelism, "parallelism", "p", runtime.NumCPU(), "Number of parallel conversions (1 to CPU count)")
	extractCmd.Flags().StringVar(&extractFFmpeg, "ffmpeg", lib.DefaultTranscoder, "ffmpeg binary to run")
	extractCmd.Flags().StringVar(&extractExtension, "ext", lib.DefaultOutputExtension, "Output file extension")
	extractCmd.Flags().StringVar(&extractReport, "report", "", "Write a run report (.json, .yaml, .csv or .md)")
	addConfigFlags(extractCmd)

	extractCmd.MarkFlagRequired("input")
}

func runExtract(cmd *cobra.Command, args []string) error {
	console.SetupLogging(verbose)

	cfg, err := loadConfig(cmd, func(cfg *lib.Config) {
		flags := cmd.Flags()
		if flags.Changed("recursive") {
			cfg.Recursive = extractRecursive
		}
		if flags.Changed("parallelism") {
			cfg.Parallelism = extractParallelism
		}
		if flags.Changed("ffmpeg") {
			cfg.Transcoder = extractFFmpeg
		}
		if flags.Changed("ext") {
			cfg.OutputExtension = extractExtension
		}
	})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := lib.CheckTranscoderAvailable(cfg.Transcoder); err != nil {
		return err
	}

	slog.Info("Starting audio extraction",
		"input", extractInput,
		"output", extractOutput,
		"recursive", cfg.Recursive,
		"parallelism", cfg.Parallelism)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	term := console.NewTerminal()
	app := lib.NewApp(cfg, term, term)

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		sig, ok := <-sigChan
		if !ok {
			return
		}
		slog.Info("Received signal, stopping after running conversions", "signal", sig)
		app.Stop()

		sig, ok = <-sigChan
		if !ok {
			return
		}
		slog.Warn("Received second signal, aborting running conversions", "signal", sig)
		cancel()
	}()

	summary, err := app.Start(ctx, lib.Request{
		InputDir:   extractInput,
		OutputDir:  extractOutput,
		Recursive:  cfg.Recursive,
		MaxWorkers: cfg.Parallelism,
	})
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if extractReport != "" {
		if err := lib.WriteReport(summary, extractReport); err != nil {
			return err
		}
	}

	if summary.Stopped {
		slog.Info("Extraction was stopped by user")
		return nil
	}
	slog.Info("Extraction completed", "succeeded", summary.Succeeded, "unsuccessful", summary.Unsuccessful())
	return nil
}
