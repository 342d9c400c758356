package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#9D8CFF"})
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"})
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"})
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"})
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"})
)

// Status is the kind of a one-line message.
type Status int

const (
	StatusInfo Status = iota
	StatusSuccess
	StatusWarn
	StatusError
)

func (s Status) style() lipgloss.Style {
	switch s {
	case StatusSuccess:
		return successStyle
	case StatusWarn:
		return warnStyle
	case StatusError:
		return errorStyle
	default:
		return dimStyle
	}
}

func (s Status) prefix() string {
	switch s {
	case StatusSuccess:
		return "✓ "
	case StatusWarn:
		return "! "
	case StatusError:
		return "✗ "
	default:
		return ""
	}
}

// Printer writes status lines, styled only when the output is a terminal.
type Printer struct {
	w      io.Writer
	styled bool
}

// NewPrinter creates a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, styled: IsTerminal(w)}
}

// Title prints a bold heading.
func (p *Printer) Title(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.styled {
		msg = titleStyle.Render(msg)
	}
	fmt.Fprintln(p.w, msg)
}

// Status prints one message of the given kind.
func (p *Printer) Status(s Status, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.styled {
		msg = s.style().Render(s.prefix() + msg)
	}
	fmt.Fprintln(p.w, msg)
}

// Success prints a success line.
func (p *Printer) Success(format string, args ...any) { p.Status(StatusSuccess, format, args...) }

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...any) { p.Status(StatusWarn, format, args...) }

// Error prints an error line.
func (p *Printer) Error(format string, args ...any) { p.Status(StatusError, format, args...) }

// Info prints a dimmed informational line.
func (p *Printer) Info(format string, args ...any) { p.Status(StatusInfo, format, args...) }

// Field prints an aligned "label: value" pair.
func (p *Printer) Field(label, value string) {
	label = fmt.Sprintf("%-16s", label+":")
	if p.styled {
		label = dimStyle.Render(label)
	}
	fmt.Fprintf(p.w, "%s %s\n", label, value)
}
