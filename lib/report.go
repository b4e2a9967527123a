package lib

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReportRow is one job in a run report.
type ReportRow struct {
	Input  string `json:"input" yaml:"input"`
	Status string `json:"status" yaml:"status"`
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

type Report struct {
	Summary *Summary    `json:"summary" yaml:"summary"`
	Jobs    []ReportRow `json:"jobs" yaml:"jobs"`
}

// NewReport builds a report whose rows are sorted by input path so repeated
// runs over the same tree produce comparable files.
func NewReport(summary *Summary) *Report {
	rows := make([]ReportRow, 0, len(summary.Results))
	for _, r := range summary.Results {
		rows = append(rows, ReportRow{
			Input:  r.Job.Input,
			Status: r.Outcome.Kind.String(),
			Output: r.Outcome.OutputPath,
			Reason: r.Outcome.Reason,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Input < rows[j].Input
	})
	return &Report{Summary: summary, Jobs: rows}
}

// WriteReport writes the report for summary to path. The format follows the
// file extension: .json, .yaml/.yml, .csv or .md.
func WriteReport(summary *Summary, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	report := NewReport(summary)

	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = report.writeJSON(path)
	case ".yaml", ".yml":
		err = report.writeYAML(path)
	case ".csv":
		err = report.writeCSV(path)
	case ".md":
		err = report.writeMarkdown(path)
	default:
		return fmt.Errorf("unsupported report format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	slog.Info("Run report written", "path", path, "jobs", len(report.Jobs))
	return nil
}

func (r *Report) writeJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (r *Report) writeYAML(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := yaml.NewEncoder(file)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

func (r *Report) writeCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"Input", "Status", "Output", "Reason"}); err != nil {
		return err
	}
	for _, row := range r.Jobs {
		if err := writer.Write([]string{row.Input, row.Status, row.Output, row.Reason}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func (r *Report) writeMarkdown(path string) error {
	var b strings.Builder
	s := r.Summary

	b.WriteString("# Audio Extraction Report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", s.RunID)
	fmt.Fprintf(&b, "- Input: `%s`\n", s.InputDir)
	fmt.Fprintf(&b, "- Output: `%s`\n", s.OutputDir)
	fmt.Fprintf(&b, "- Started: %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Elapsed: %s\n", FormatDuration(s.Elapsed.Seconds()))
	if s.Stopped {
		b.WriteString("- Stopped by user\n")
	}
	fmt.Fprintf(&b, "\n| Total | Succeeded | Failed | Cancelled |\n|---|---|---|---|\n| %d | %d | %d | %d |\n\n",
		s.Total, s.Succeeded, s.Failed, s.Cancelled)

	if len(r.Jobs) > 0 {
		b.WriteString("| File | Status | Detail |\n|---|---|---|\n")
		for _, row := range r.Jobs {
			detail := row.Output
			if row.Reason != "" {
				detail = row.Reason
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeMarkdown(filepath.Base(row.Input)), row.Status, escapeMarkdown(detail))
		}
	}

	return os.WriteFile(path, []byte(b.String()), 0644)
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
