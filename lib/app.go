package lib

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

type State int

const (
	StateIdle State = iota
	StateScanning
	StateDispatching
	StateDraining
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateDispatching:
		return "dispatching"
	case StateDraining:
		return "draining"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Request is what the front end hands to Start.
type Request struct {
	InputDir   string
	OutputDir  string
	Recursive  bool
	MaxWorkers int
}

// App drives batch runs: scan, dispatch every job to a worker pool, drain
// completions until each job has an outcome, then shut the pool down. One
// run may be active at a time.
type App struct {
	Config    Config
	Converter Converter
	Progress  ProgressSink
	Logs      LogSink

	// OnState, when set, is called synchronously on every state transition.
	OnState func(State)

	mu         sync.Mutex
	state      State
	active     bool
	dispatcher *Dispatcher
	stop       StopFlag
}

func NewApp(cfg Config, progress ProgressSink, logs LogSink) *App {
	return &App{
		Config:   cfg,
		Progress: progress,
		Logs:     logs,
	}
}

func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *App) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
	slog.Debug("Run state changed", "state", s)
	if a.OnState != nil {
		a.OnState(s)
	}
}

// Stop asks the active run to wind down: queued jobs are cancelled and
// running ones finish on their own. It returns immediately and repeated
// calls have no further effect.
func (a *App) Stop() {
	a.mu.Lock()
	active, d := a.active, a.dispatcher
	a.mu.Unlock()

	if !active || !a.stop.Stop() {
		return
	}
	slog.Info("Stop requested")
	if d != nil {
		d.Log("Sending stop signal, please wait...", SeverityWarning)
	}
}

// Start executes one complete run and returns its summary. Only request
// validation errors and scan failures are returned as errors; per-file
// failures are reported through the summary and the sinks.
func (a *App) Start(ctx context.Context, req Request) (*Summary, error) {
	a.mu.Lock()
	if a.active {
		a.mu.Unlock()
		return nil, ErrRunActive
	}
	d := NewDispatcher(a.Progress, a.Logs)
	a.active = true
	a.dispatcher = d
	a.stop.Reset()
	a.mu.Unlock()

	defer func() {
		d.Close()
		a.mu.Lock()
		a.active = false
		a.dispatcher = nil
		a.mu.Unlock()
	}()

	a.setState(StateScanning)

	summary, err := a.run(ctx, d, req)
	if err != nil {
		a.setState(StateIdle)
		return nil, err
	}
	a.setState(StateFinished)
	return summary, nil
}

func (a *App) run(ctx context.Context, d *Dispatcher, req Request) (*Summary, error) {
	inputDir, outputDir, err := prepareDirs(req.InputDir, req.OutputDir)
	if err != nil {
		d.Log(err.Error(), SeverityFailure)
		return nil, err
	}

	// A cancelled context stops the run the same way a user stop does.
	unhook := context.AfterFunc(ctx, func() { a.stop.Stop() })
	defer unhook()

	rs := NewRunState()
	slog.Debug("Run starting", "runID", rs.ID, "input", inputDir, "output", outputDir)

	d.Log(fmt.Sprintf("Scanning '%s' for video files...", inputDir), SeverityInfo)
	scanner := NewFileScanner(inputDir, req.Recursive, a.Config.Extensions)
	files, err := scanner.ScanVideoFiles(ctx)
	if err != nil {
		d.Log(fmt.Sprintf("Scan failed: %v", err), SeverityFailure)
		return nil, fmt.Errorf("failed to scan video files: %w", err)
	}
	d.Log(fmt.Sprintf("Scan complete, found %d video files.", len(files)), SeverityInfo)

	if len(files) == 0 {
		d.Progress(0, 0)
		return a.finish(d, rs, inputDir, outputDir), nil
	}

	a.setState(StateDispatching)

	converter := a.Converter
	if converter == nil {
		converter = NewFFmpegConverter(a.Config.Transcoder, a.Config.OutputExtension)
	}
	workers := req.MaxWorkers
	if workers <= 0 {
		workers = a.Config.Parallelism
	}
	pool := NewWorkerPool(ctx, workers, converter, &a.stop)
	defer pool.Shutdown(true)

	for _, path := range files {
		job := Job{Input: path, OutputDir: outputDir}
		rs.Total++
		if _, err := pool.Submit(job); err != nil {
			rs.Record(job, Failed(err.Error()))
		}
	}

	slog.Info("Dispatched conversion jobs", "runID", rs.ID, "jobs", rs.Total, "workers", pool.MaxWorkers())
	d.Progress(rs.Processed, rs.Total)

	a.setState(StateDraining)

	for {
		h, ok := pool.WaitCompleted()
		if !ok {
			break
		}

		if !rs.Stopped && a.stop.Stopped() {
			rs.Stopped = true
			n := pool.CancelQueued()
			slog.Info("Cancelled queued jobs", "runID", rs.ID, "cancelled", n)
			d.Log(fmt.Sprintf("Stopping: %d queued jobs cancelled, waiting for running jobs to finish.", n), SeverityWarning)
		}

		a.aggregate(d, rs, h)
	}

	pool.Shutdown(true)
	if a.stop.Stopped() {
		rs.Stopped = true
	}
	return a.finish(d, rs, inputDir, outputDir), nil
}

// aggregate records one completion and reports it.
func (a *App) aggregate(d *Dispatcher, rs *RunState, h *Handle) {
	outcome := h.Outcome()
	rs.Record(h.Job, outcome)
	d.Progress(rs.Processed, rs.Total)

	name := filepath.Base(h.Job.Input)
	switch outcome.Kind {
	case OutcomeSuccess:
		d.Log(fmt.Sprintf("✔ Extracted: '%s'", filepath.Base(outcome.OutputPath)), SeveritySuccess)
	case OutcomeFailure:
		slog.Debug("Conversion failed", "seq", h.Seq, "file", h.Job.Input, "reason", outcome.Reason)
		d.Log(fmt.Sprintf("✘ Failed: '%s'. Reason: %s", name, outcome.Reason), SeverityFailure)
	case OutcomeCancelled:
		d.Log(fmt.Sprintf("Job %s was cancelled.", name), SeverityWarning)
	}
}

func (a *App) finish(d *Dispatcher, rs *RunState, inputDir, outputDir string) *Summary {
	if !rs.Complete() {
		slog.Error("Run accounting mismatch", "runID", rs.ID, "total", rs.Total, "processed", rs.Processed)
	}
	summary := rs.Summary(inputDir, outputDir)

	status := "All jobs finished"
	if summary.Stopped {
		status = "Run stopped by user"
	}
	d.Log(fmt.Sprintf("%s. Processed: %d/%d, Success: %d, Failed/Cancelled: %d, Elapsed: %s",
		status, summary.Processed, summary.Total, summary.Succeeded, summary.Unsuccessful(),
		FormatDuration(summary.Elapsed.Seconds())), SeverityInfo)

	slog.Info("Run finished",
		"runID", summary.RunID,
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"cancelled", summary.Cancelled,
		"stopped", summary.Stopped)
	return summary
}

// prepareDirs validates the input directory and creates the output
// directory, which defaults to the input directory.
func prepareDirs(inputDir, outputDir string) (string, string, error) {
	if inputDir == "" {
		return "", "", fmt.Errorf("%w: input directory is required", ErrInvalidInput)
	}
	input, err := filepath.Abs(inputDir)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	info, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", fmt.Errorf("%w: input directory %s does not exist", ErrInvalidInput, inputDir)
		}
		return "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !info.IsDir() {
		return "", "", fmt.Errorf("%w: input path %s is not a directory", ErrInvalidInput, inputDir)
	}

	if outputDir == "" {
		return input, input, nil
	}
	output, err := filepath.Abs(outputDir)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := os.MkdirAll(output, 0755); err != nil {
		return "", "", fmt.Errorf("%w: cannot create output directory: %v", ErrInvalidInput, err)
	}
	return input, output, nil
}
