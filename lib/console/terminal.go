package console

import (
	"fmt"
	"io"
	"os"

	"audio-extract/lib"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
)

var severityStyles = map[lib.Severity]lipgloss.Style{
	lib.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	lib.SeveritySuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#007400")),
	lib.SeverityFailure: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	lib.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
}

// Terminal renders run events on a terminal: log lines colored by severity
// above a live progress bar. On a non-interactive writer it prints plain
// lines and a progress line per completed job instead of a bar.
//
// Both sink methods are called from the run's dispatcher goroutine only.
type Terminal struct {
	out         io.Writer
	interactive bool
	width       int
	bar         *progressbar.ProgressBar
}

// NewTerminal writes to stdout, drawing a bar only when stdout is a terminal.
func NewTerminal() *Terminal {
	return NewTerminalWriter(os.Stdout, IsTerminal(os.Stdout), TerminalWidth(os.Stdout, 80))
}

func NewTerminalWriter(out io.Writer, interactive bool, width int) *Terminal {
	return &Terminal{out: out, interactive: interactive, width: width}
}

func (t *Terminal) OnLog(message string, severity lib.Severity) {
	if !t.interactive {
		fmt.Fprintf(t.out, "[%s] %s\n", severity, message)
		return
	}

	if t.bar != nil {
		_ = t.bar.Clear()
	}
	style, ok := severityStyles[severity]
	if !ok {
		style = lipgloss.NewStyle()
	}
	fmt.Fprintln(t.out, style.Render(message))
	if t.bar != nil && !t.bar.IsFinished() {
		_ = t.bar.RenderBlank()
	}
}

func (t *Terminal) OnProgress(processed, total int) {
	if !t.interactive {
		if total > 0 && processed > 0 {
			fmt.Fprintf(t.out, "Progress: %s\n", lib.FormatProgress(processed, total))
		}
		return
	}

	if total <= 0 {
		return
	}
	if t.bar == nil || t.bar.GetMax() != total {
		t.bar = t.newBar(total)
	}
	_ = t.bar.Set(processed)
	if processed >= total {
		_ = t.bar.Finish()
		fmt.Fprintln(t.out)
	}
}

func (t *Terminal) newBar(total int) *progressbar.ProgressBar {
	barWidth := t.width - 40
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 50 {
		barWidth = 50
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionSetDescription("Extracting audio"),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(barWidth),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
