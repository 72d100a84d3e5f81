package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// SetupColor picks the lipgloss color profile for out. Output that is not a
// terminal, or NO_COLOR being set, disables styling.
func SetupColor(out *os.File) {
	lipgloss.SetColorProfile(colorProfile(out, os.Getenv("NO_COLOR") != ""))
}

func colorProfile(out *os.File, noColor bool) termenv.Profile {
	fd := out.Fd()
	if noColor || !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) {
		return termenv.Ascii
	}
	return termenv.NewOutput(out).EnvColorProfile()
}
