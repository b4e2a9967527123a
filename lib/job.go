package lib

import "fmt"

// Job is one file to convert. It is never mutated after the scanner creates it.
type Job struct {
	Input     string
	OutputDir string
}

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the terminal classification of a Job. OutputPath is set for
// successes, Reason for failures.
type Outcome struct {
	Kind       OutcomeKind
	OutputPath string
	Reason     string
}

func Succeeded(outputPath string) Outcome {
	return Outcome{Kind: OutcomeSuccess, OutputPath: outputPath}
}

func Failed(reason string) Outcome {
	return Outcome{Kind: OutcomeFailure, Reason: reason}
}

func Cancelled() Outcome {
	return Outcome{Kind: OutcomeCancelled}
}
