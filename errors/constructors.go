package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *DevflowError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *DevflowError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// ConfigExists creates an error for a config file that would be overwritten
func ConfigExists(path string) *DevflowError {
	return New(ErrCodeConfigExists, fmt.Sprintf("configuration file already exists: %s", path)).
		WithDetail("path", path)
}

// InvalidPattern creates an error for a malformed ignore glob
func InvalidPattern(pattern string, err error) *DevflowError {
	return Wrap(err, ErrCodeInvalidPattern, fmt.Sprintf("invalid ignore pattern %q", pattern)).
		WithDetail("pattern", pattern)
}

// WatchInit creates an error for a filesystem watch that could not be started
func WatchInit(root string, err error) *DevflowError {
	devErr := Wrap(err, ErrCodeWatchInit, fmt.Sprintf("cannot watch %s", root)).
		WithDetail("root", root)
	if stderrors.Is(err, os.ErrPermission) {
		devErr = devErr.WithDetail("permission", true)
	}
	return devErr
}

// CommandNotFound creates an error for an executable missing from PATH
func CommandNotFound(program string, err error) *DevflowError {
	return Wrap(err, ErrCodeCommandNotFound, fmt.Sprintf("executable not found: %s", program)).
		WithDetail("command", program)
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *DevflowError {
	devErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		devErr = devErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return devErr
}
