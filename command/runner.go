package command

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/devflow/devflow/errors"
)

// Spec describes one child process.
type Spec struct {
	Program string
	Args    []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is added on top of the inherited environment.
	Env map[string]string
}

// String renders the command line for messages.
func (s Spec) String() string {
	return strings.TrimSpace(s.Program + " " + strings.Join(s.Args, " "))
}

// Result is the outcome of a child that ran to completion.
type Result struct {
	ExitCode int
	// Status is the platform description of how the child ended, for
	// example "exit status 1" or "signal: interrupt".
	Status   string
	Duration time.Duration
}

// Success reports whether the child exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithExecutor sets how commands are created.
func WithExecutor(e Executor) RunnerOption {
	return func(r *Runner) {
		r.executor = e
	}
}

// WithStdio replaces the inherited standard streams.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdin = stdin
		r.stdout = stdout
		r.stderr = stderr
	}
}

// Runner starts a child process and waits for it. The child shares the
// terminal of the current process unless WithStdio says otherwise.
type Runner struct {
	executor Executor
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
}

// NewRunner creates a Runner using a RealExecutor and inherited stdio.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		executor: &RealExecutor{},
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts spec and blocks until the child exits. A child that runs and
// exits non-zero is a Result, not an error. Errors are returned only when the
// child could not be started: COMMAND_NOT_FOUND when the program cannot be
// located and COMMAND_FAILED otherwise.
//
// ctx is only consulted before starting. A running child is never killed so
// that an interrupted test run can finish writing its output.
func (r *Runner) Run(ctx context.Context, spec Spec) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, errors.Wrap(err, errors.ErrCodeCommandFailed, "not started").
			WithDetail("command", spec.String())
	}

	cmd := r.executor.Command(spec.Program, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = mergeEnv(cmd.Env, spec.Env)
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if stderrors.Is(err, exec.ErrNotFound) || stderrors.Is(err, os.ErrNotExist) {
			return Result{}, errors.CommandNotFound(spec.Program, err)
		}
		return Result{}, errors.CommandFailed(spec.String(), err)
	}

	err := cmd.Wait()
	result := Result{Duration: time.Since(start)}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
		result.Status = cmd.ProcessState.String()
	}

	var exitErr *exec.ExitError
	if err != nil && !stderrors.As(err, &exitErr) {
		// Copying output failed after the child ran.
		return result, errors.CommandFailed(spec.String(), err)
	}
	return result, nil
}

// mergeEnv appends extra, sorted by key, to base or to the current
// environment when base is nil. Later entries win in exec.
func mergeEnv(base []string, extra map[string]string) []string {
	if base == nil {
		base = os.Environ()
	}
	if len(extra) == 0 {
		return base
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(base)+len(keys))
	env = append(env, base...)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}
