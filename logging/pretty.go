package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// PrettyLogger writes short human-facing status lines, as opposed to the
// structured records produced by Logger.
type PrettyLogger struct {
	w     io.Writer
	theme prettyTheme
}

type prettyTheme struct {
	ok    lipgloss.Style
	note  lipgloss.Style
	warn  lipgloss.Style
	fail  lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	path  lipgloss.Style
}

func newPrettyTheme() prettyTheme {
	base := lipgloss.NewStyle()
	return prettyTheme{
		ok:    base.Foreground(lipgloss.AdaptiveColor{Light: "2", Dark: "10"}).Bold(true),
		note:  base.Foreground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"}),
		warn:  base.Foreground(lipgloss.AdaptiveColor{Light: "3", Dark: "11"}),
		fail:  base.Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"}).Bold(true),
		label: base.Foreground(lipgloss.Color("8")),
		value: base.Foreground(lipgloss.AdaptiveColor{Light: "6", Dark: "14"}),
		path:  base.Foreground(lipgloss.Color("6")).Italic(true),
	}
}

// NewPrettyLogger returns a PrettyLogger writing to stdout.
func NewPrettyLogger() *PrettyLogger {
	return &PrettyLogger{w: os.Stdout, theme: newPrettyTheme()}
}

// WithWriter redirects output to w.
func (p *PrettyLogger) WithWriter(w io.Writer) *PrettyLogger {
	p.w = w
	return p
}

func (p *PrettyLogger) line(mark string, style lipgloss.Style, msg string) {
	if mark == "" {
		fmt.Fprintln(p.w, style.Render(msg))
		return
	}
	fmt.Fprintln(p.w, style.Render(mark+" "+msg))
}

// Success prints msg behind a check mark.
func (p *PrettyLogger) Success(msg string) {
	p.line("✓", p.theme.ok, msg)
}

// Info prints a plain status line.
func (p *PrettyLogger) Info(format string, args ...any) {
	p.line("", p.theme.note, fmt.Sprintf(format, args...))
}

// Warn prints a status line behind a warning sign.
func (p *PrettyLogger) Warn(format string, args ...any) {
	p.line("⚠", p.theme.warn, fmt.Sprintf(format, args...))
}

// Error prints a failure line; err, when set, follows the message.
func (p *PrettyLogger) Error(err error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg += ": " + err.Error()
	}
	p.line("✗", p.theme.fail, msg)
}

// Field prints an indented key/value detail line.
func (p *PrettyLogger) Field(key string, value any) {
	fmt.Fprintf(p.w, "  %s %s\n", p.theme.label.Render(key+":"), p.theme.value.Render(fmt.Sprint(value)))
}

// Path is Field for filesystem locations.
func (p *PrettyLogger) Path(label, path string) {
	fmt.Fprintf(p.w, "  %s %s\n", p.theme.label.Render(label+":"), p.theme.path.Render(path))
}
