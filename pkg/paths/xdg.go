// Package paths resolves the per-user directories devflow writes to.
//
// Resolution order:
// 1. DEVFLOW_HOME → $DEVFLOW_HOME/state
// 2. XDG_STATE_HOME → $XDG_STATE_HOME/devflow
// 3. ~/.local/state/devflow
package paths

import (
	"os"
	"path/filepath"
)

func getStateHome() string {
	if home := os.Getenv("DEVFLOW_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// StateDir returns the directory for logs and other state.
func StateDir() string {
	if home := os.Getenv("DEVFLOW_HOME"); home != "" {
		return getStateHome()
	}
	base := getStateHome()
	if base == "" {
		return filepath.Join(os.TempDir(), "devflow")
	}
	return filepath.Join(base, "devflow")
}

// DefaultLogFile is used when the file sink is enabled without a path.
func DefaultLogFile() string {
	return filepath.Join(StateDir(), "devflow.log")
}
