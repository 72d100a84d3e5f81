package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/devflow/devflow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helperExecutor re-runs the test binary as a stand-in for a real program.
type helperExecutor struct{}

func (helperExecutor) Command(name string, args ...string) *exec.Cmd {
	cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
	cmd := exec.Command(os.Args[0], cs...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return cmd
}

func (h helperExecutor) CommandContext(_ context.Context, name string, args ...string) *exec.Cmd {
	return h.Command(name, args...)
}

// TestHelperProcess is not a real test. It is the child process started by
// helperExecutor.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "no command")
		os.Exit(2)
	}

	switch cmd, rest := args[1], args[2:]; cmd {
	case "pass":
		fmt.Println("ok")
	case "fail":
		fmt.Fprintln(os.Stderr, "FAIL")
		os.Exit(3)
	case "pwd":
		wd, _ := os.Getwd()
		fmt.Print(wd)
	case "env":
		for _, key := range rest {
			fmt.Printf("%s=%s\n", key, os.Getenv(key))
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		os.Exit(2)
	}
}

func newHelperRunner(stdout, stderr *bytes.Buffer) *Runner {
	return NewRunner(
		WithExecutor(helperExecutor{}),
		WithStdio(nil, stdout, stderr),
	)
}

func TestRunnerSuccess(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newHelperRunner(&stdout, &stderr)

	result, err := r.Run(context.Background(), Spec{Program: "pass"})
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "exit status 0", result.Status)
	assert.Contains(t, stdout.String(), "ok")
}

func TestRunnerNonZeroExitIsNotAnError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newHelperRunner(&stdout, &stderr)

	result, err := r.Run(context.Background(), Spec{Program: "fail"})
	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "exit status 3", result.Status)
	assert.Contains(t, stderr.String(), "FAIL")
}

func TestRunnerWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	r := newHelperRunner(&stdout, &stderr)

	_, err := r.Run(context.Background(), Spec{Program: "pwd", Dir: dir})
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(stdout.String())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRunnerEnvironment(t *testing.T) {
	t.Setenv("DEVFLOW_INHERITED", "parent")
	var stdout, stderr bytes.Buffer
	r := newHelperRunner(&stdout, &stderr)

	_, err := r.Run(context.Background(), Spec{
		Program: "env",
		Args:    []string{"DEVFLOW_INHERITED", "DEVFLOW_EXTRA"},
		Env:     map[string]string{"DEVFLOW_EXTRA": "child"},
	})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "DEVFLOW_INHERITED=parent")
	assert.Contains(t, stdout.String(), "DEVFLOW_EXTRA=child")
}

func TestRunnerProgramNotFound(t *testing.T) {
	r := NewRunner(WithStdio(nil, &bytes.Buffer{}, &bytes.Buffer{}))

	_, err := r.Run(context.Background(), Spec{Program: "devflow-no-such-program-xyz"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCommandNotFound, errors.GetCode(err))

	devErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "devflow-no-such-program-xyz", devErr.Details["command"])
}

func TestRunnerProgramNotExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-executable")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0644))
	r := NewRunner(WithStdio(nil, &bytes.Buffer{}, &bytes.Buffer{}))

	_, err := r.Run(context.Background(), Spec{Program: path})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCommandFailed, errors.GetCode(err))
}

func TestRunnerCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newHelperRunner(&bytes.Buffer{}, &bytes.Buffer{})

	_, err := r.Run(ctx, Spec{Program: "pass"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCommandFailed, errors.GetCode(err))
}

func TestMergeEnv(t *testing.T) {
	env := mergeEnv([]string{"A=1"}, map[string]string{"C": "3", "B": "2"})
	assert.Equal(t, []string{"A=1", "B=2", "C=3"}, env)

	assert.Equal(t, []string{"A=1"}, mergeEnv([]string{"A=1"}, nil))
	assert.NotEmpty(t, mergeEnv(nil, nil))
}

func TestSpecString(t *testing.T) {
	assert.Equal(t, "go test ./...", Spec{Program: "go", Args: []string{"test", "./..."}}.String())
	assert.Equal(t, "pytest", Spec{Program: "pytest"}.String())
}

func TestValidateServiceName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid name", "my-service", false},
		{"valid with underscore", "my_service", false},
		{"valid with numbers", "service123", false},
		{"empty name", "", true},
		{"special characters", "my@service", true},
		{"starts with hyphen", "-service", true},
		{"too long", "this-is-a-very-long-service-name-that-exceeds-the-maximum-allowed-length", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServiceName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateServiceName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
