package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/connection"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not yet started
	StepComplete                   // Successfully completed
	StepFailed                     // Failed
)

// Step represents a single step in a multi-step operation
type Step struct {
	Number  int        // Step number (1-based)
	Name    string     // Step description
	Status  StepStatus // Current status
	Message string     // Optional status message, the error for failed steps
}

// Progress represents a progress display with bar and step list
type Progress struct {
	Label   string  // e.g., "Configuring board..."
	Steps   []Step  // List of steps
	Done    int     // Steps finished, successfully or not
	Percent float64 // Progress percentage (0.0 - 1.0)
	Width   int     // Terminal width
	bar     progress.Model
}

// NewProgress creates a progress display with one pending step per name
func NewProgress(label string, names []string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Number: i + 1, Name: name, Status: StepPending}
	}

	p := &Progress{Label: label, Steps: steps}
	return p.SetWidth(GetTerminalWidth())
}

// NewSetupProgress creates the progress display for the board setup sequence
func NewSetupProgress() *Progress {
	return NewProgress("Configuring board...", connection.StepNames())
}

// SetWidth sets the terminal width for responsive rendering
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := width - 20 // Leave room for percentage and step count
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
	)
	return p
}

// Apply records the outcome of the named setup step
func (p *Progress) Apply(r connection.StepResult) {
	for i := range p.Steps {
		if p.Steps[i].Name != r.Name || p.Steps[i].Status != StepPending {
			continue
		}
		if r.OK() {
			p.Steps[i].Status = StepComplete
		} else {
			p.Steps[i].Status = StepFailed
			p.Steps[i].Message = r.Err.Error()
		}
		p.Done++
		if len(p.Steps) > 0 {
			p.Percent = float64(p.Done) / float64(len(p.Steps))
		}
		return
	}
}

// Failed returns the number of failed steps
func (p *Progress) Failed() int {
	n := 0
	for _, s := range p.Steps {
		if s.Status == StepFailed {
			n++
		}
	}
	return n
}

// Render returns the styled progress display as a string
func (p *Progress) Render() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(ProgressLabelStyle.Render(p.Label))
		b.WriteString("\n\n")
	}

	percent := fmt.Sprintf("%3.0f%%", p.Percent*100)
	counter := fmt.Sprintf("[%d/%d]", p.Done, len(p.Steps))
	b.WriteString(lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %s  %s", p.bar.ViewAs(p.Percent), percent, counter)))
	b.WriteString("\n\n")

	lines := make([]string, 0, len(p.Steps))
	for _, step := range p.Steps {
		lines = append(lines, p.renderStepLine(step))
	}
	b.WriteString(strings.Join(lines, "\n"))

	return b.String()
}

// renderStepLine renders a single step line
func (p *Progress) renderStepLine(step Step) string {
	prefix := fmt.Sprintf("  [%d/%d]", step.Number, len(p.Steps))

	var marker string
	var nameStyle lipgloss.Style
	switch step.Status {
	case StepComplete:
		marker = StepMarkerComplete
		nameStyle = StepCompleteStyle
	case StepFailed:
		marker = FailureMarker
		nameStyle = ErrorTitleStyle
	default:
		marker = StepMarkerPending
		nameStyle = StepPendingStyle
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(" ")
	b.WriteString(nameStyle.Render(step.Name))

	// Keep markers in one column
	padding := 24 - lipgloss.Width(step.Name)
	if padding < 1 {
		padding = 1
	}
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(nameStyle.Render(marker))

	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepPendingStyle.Italic(true).Render("(" + step.Message + ")"))
	}

	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}
