package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/devflow/devflow/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message for err based on its code and returns err.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	red := lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	prefix := red.Render("✗")

	devErr, _ := errors.As(err)
	detail := func(key string) interface{} {
		if devErr == nil {
			return ""
		}
		return devErr.Details[key]
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.Out, "%s Configuration not found. Run 'devflow init' to create one.\n", prefix)

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(h.Out, "%s Invalid configuration: %v\n", prefix, reason(err))
		if path, ok := detail("path").(string); ok && path != "" {
			fmt.Fprintf(h.Out, "Fix %s or remove it to use the defaults.\n", path)
		}

	case errors.ErrCodeConfigExists:
		fmt.Fprintf(h.Out, "%s %s already exists; not overwriting it.\n", prefix, detail("path"))

	case errors.ErrCodeInvalidPattern:
		fmt.Fprintf(h.Out, "%s Invalid ignore pattern %q: %v\n", prefix, detail("pattern"), reason(err))
		fmt.Fprintln(h.Out, "Check ignore_globs in your devflow configuration.")

	case errors.ErrCodeWatchInit:
		fmt.Fprintf(h.Out, "%s Cannot watch %s: %v\n", prefix, detail("root"), reason(err))
		if detail("permission") == true {
			fmt.Fprintln(h.Out, "Check the directory permissions.")
		}

	case errors.ErrCodeCommandNotFound:
		fmt.Fprintf(h.Out, "%s Executable %q not found. Install it or set test_command.\n", prefix, detail("command"))

	default:
		fmt.Fprintf(h.Out, "%s Error: %v\n", prefix, err)
	}

	if h.Verbose && devErr != nil {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", devErr.ToJSON())
	}
	return err
}

// reason returns the most specific description of err: its innermost
// cause, or the message of a DevflowError without one.
func reason(err error) interface{} {
	if devErr, ok := errors.As(err); ok && devErr.Cause == nil {
		return devErr.Message
	}
	for {
		next := unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func unwrap(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}
