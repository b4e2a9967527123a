package lib

import (
	"time"

	"github.com/google/uuid"
)

// JobResult pairs a job with the outcome observed for it.
type JobResult struct {
	Job     Job
	Outcome Outcome
}

// RunState holds the counters of one run. Only the coordinating goroutine
// writes to it.
type RunState struct {
	ID        string
	StartedAt time.Time
	Total     int
	Processed int
	Succeeded int
	Failed    int
	Cancelled int
	Stopped   bool
	Results   []JobResult
}

func NewRunState() *RunState {
	return &RunState{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Record accounts for one observed outcome. Tallies depend only on the
// multiset of outcomes, never on the order they arrive in.
func (rs *RunState) Record(job Job, outcome Outcome) {
	rs.Processed++
	switch outcome.Kind {
	case OutcomeSuccess:
		rs.Succeeded++
	case OutcomeFailure:
		rs.Failed++
	case OutcomeCancelled:
		rs.Cancelled++
	}
	rs.Results = append(rs.Results, JobResult{Job: job, Outcome: outcome})
}

// Complete reports whether every job has an outcome.
func (rs *RunState) Complete() bool {
	return rs.Processed == rs.Total
}

// Summary is the immutable result handed back when a run finishes.
type Summary struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	InputDir  string        `json:"input_dir" yaml:"input_dir"`
	OutputDir string        `json:"output_dir" yaml:"output_dir"`
	Total     int           `json:"total" yaml:"total"`
	Processed int           `json:"processed" yaml:"processed"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Failed    int           `json:"failed" yaml:"failed"`
	Cancelled int           `json:"cancelled" yaml:"cancelled"`
	Stopped   bool          `json:"stopped" yaml:"stopped"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	Results   []JobResult   `json:"-" yaml:"-"`
}

// Unsuccessful is the failed plus cancelled count shown in the final line.
func (s *Summary) Unsuccessful() int {
	return s.Failed + s.Cancelled
}

func (rs *RunState) Summary(inputDir, outputDir string) *Summary {
	return &Summary{
		RunID:     rs.ID,
		InputDir:  inputDir,
		OutputDir: outputDir,
		Total:     rs.Total,
		Processed: rs.Processed,
		Succeeded: rs.Succeeded,
		Failed:    rs.Failed,
		Cancelled: rs.Cancelled,
		Stopped:   rs.Stopped,
		StartedAt: rs.StartedAt,
		Elapsed:   time.Since(rs.StartedAt),
		Results:   rs.Results,
	}
}
