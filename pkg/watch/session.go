// Package watch runs a project's test suite whenever a relevant file below
// the project root changes.
//
// A Session wires an ignore.Matcher, an fswatch.Watcher and the project's
// test command together. Runs are strictly sequential: the child process
// blocks the loop, and changes that arrive meanwhile are coalesced into at
// most one follow-up run.
package watch

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/devflow/devflow/command"
	"github.com/devflow/devflow/errors"
	"github.com/devflow/devflow/logging"
	"github.com/devflow/devflow/pkg/fswatch"
	"github.com/devflow/devflow/pkg/ignore"
	"github.com/devflow/devflow/pkg/project"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is how long Run waits for an event before looking at
// its context again.
const DefaultPollInterval = time.Second

// Source delivers change events. *fswatch.Watcher is the production Source.
type Source interface {
	Events() <-chan fswatch.ChangeEvent
	Errors() <-chan error
	Close() error
}

// SourceFactory starts a Source for root. skipDir, when non-nil, names
// directories that need not be watched at all.
type SourceFactory func(root string, skipDir func(path string) bool) (Source, error)

// Runner runs one test command to completion.
type Runner interface {
	Run(ctx context.Context, spec command.Spec) (command.Result, error)
}

// Options configures a Session.
type Options struct {
	// Root is the project directory. Required.
	Root string
	// IgnoreGlobs are matched against root-relative paths.
	IgnoreGlobs []string
	// TestCommand overrides the command derived from the project kind.
	TestCommand string
	// Env is added to the test process environment.
	Env map[string]string
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
	// Debounce, when positive, collects further changes for this long
	// before a run starts.
	Debounce time.Duration
	// Stdout and Stderr receive the test process output. They default to
	// the current process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Option injects a collaborator into a Session.
type Option func(*Session)

// WithSourceFactory replaces the fsnotify based source.
func WithSourceFactory(f SourceFactory) Option {
	return func(s *Session) {
		s.newSource = f
	}
}

// WithFS sets the file system the project kind is detected from. It
// defaults to os.DirFS(root).
func WithFS(fsys fs.FS) Option {
	return func(s *Session) {
		s.fsys = fsys
	}
}

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(s *Session) {
		s.runner = r
	}
}

// WithReporter sets where user-facing progress lines are written.
func WithReporter(w io.Writer) Option {
	return func(s *Session) {
		s.pretty = logging.NewPrettyLogger().WithWriter(w)
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// Stats counts what a Session has done.
type Stats struct {
	// Events is the number of change events received.
	Events int
	// Ignored is the number of events whose paths were all ignored.
	Ignored int
	// Runs is the number of test processes that ran to completion.
	Runs int
	// SpawnFailures is the number of test processes that could not start.
	SpawnFailures int
}

// Session is a single watch over one project root.
type Session struct {
	id      string
	root    string
	opts    Options
	matcher *ignore.Matcher
	source  Source
	kind    project.Kind
	inv     project.Invocation
	hasInv  bool

	newSource SourceFactory
	fsys      fs.FS
	runner    Runner
	pretty    *logging.PrettyLogger
	logger    *logrus.Entry

	mu        sync.Mutex
	stats     Stats
	closeOnce sync.Once
	closeErr  error
}

// New prepares a session. The ignore patterns are compiled before anything
// is watched, so a malformed pattern fails without touching the file system.
// The project kind and test command are determined once, here.
func New(opts Options, deps ...Option) (*Session, error) {
	if opts.Root == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "watch root is required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "cannot resolve watch root").
			WithDetail("root", opts.Root)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}

	s := &Session{
		id:        uuid.NewString(),
		root:      root,
		opts:      opts,
		newSource: fswatchSource,
	}
	for _, dep := range deps {
		dep(s)
	}
	if s.logger == nil {
		s.logger = logging.NewLogger("watch")
	}
	s.logger = s.logger.WithField("session", s.id)
	if s.pretty == nil {
		s.pretty = logging.NewPrettyLogger()
	}
	if s.runner == nil {
		s.runner = command.NewRunner(command.WithStdio(os.Stdin, orDefault(opts.Stdout, os.Stdout), orDefault(opts.Stderr, os.Stderr)))
	}
	if s.fsys == nil {
		s.fsys = os.DirFS(root)
	}

	s.matcher, err = ignore.New(root, opts.IgnoreGlobs)
	if err != nil {
		return nil, err
	}

	var skipDir func(string) bool
	if !s.matcher.Empty() && s.matcher.CanPrune() {
		skipDir = s.matcher.Ignored
	}
	s.source, err = s.newSource(root, skipDir)
	if err != nil {
		return nil, err
	}

	s.kind = project.Classify(s.fsys)
	s.inv, s.hasInv, err = project.ResolveFor(s.kind, opts.TestCommand)
	if err != nil {
		s.source.Close()
		return nil, err
	}

	fields := logrus.Fields{"root": root, "kind": s.kind.String()}
	if hint, ok := project.ToolchainHint(s.fsys); ok {
		fields["toolchain"] = hint
	}
	if s.hasInv {
		fields["command"] = s.inv.String()
	}
	s.logger.WithFields(fields).Debug("Watch session created")

	return s, nil
}

func fswatchSource(root string, skipDir func(string) bool) (Source, error) {
	var opts []fswatch.Option
	if skipDir != nil {
		opts = append(opts, fswatch.WithSkipDir(skipDir))
	}
	return fswatch.New(root, opts...)
}

func orDefault(w io.Writer, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}

// ID returns the session identifier used in log entries.
func (s *Session) ID() string {
	return s.id
}

// Root returns the absolute project root.
func (s *Session) Root() string {
	return s.root
}

// Kind returns the detected project kind.
func (s *Session) Kind() project.Kind {
	return s.kind
}

// Invocation returns the test command. The boolean is false when the project
// kind has no default and no override was configured; such a session never
// runs anything.
func (s *Session) Invocation() (project.Invocation, bool) {
	return s.inv, s.hasInv
}

// Stats returns a snapshot of the counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Session) count(f func(*Stats)) {
	s.mu.Lock()
	f(&s.stats)
	s.mu.Unlock()
}

// Close releases the event source. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.source.Close()
	})
	return s.closeErr
}

// Run reacts to changes until ctx is cancelled, which is not an error. It
// fails only if the event source stops on its own. A test process that is
// running when ctx is cancelled is waited for, not killed.
func (s *Session) Run(ctx context.Context) error {
	s.announce()

	events := s.source.Events()
	errs := s.source.Errors()
	timer := time.NewTimer(s.opts.PollInterval)
	defer timer.Stop()

	for {
		timer.Reset(s.opts.PollInterval)

		select {
		case <-ctx.Done():
			s.logger.Debug("Watch session stopped")
			return nil

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logSourceError(err)

		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New(errors.ErrCodeInternal, "event source closed unexpectedly").
					WithDetail("root", s.root)
			}
			batch := newPathSet()
			if !s.collect(batch, ev) {
				continue
			}
			if s.opts.Debounce > 0 {
				s.debounce(ctx, batch)
			}
			s.cycle(ctx, batch)

		case <-timer.C:
		}
	}
}

func (s *Session) announce() {
	s.pretty.Info("watching for changes...")
	s.pretty.Path("root", s.root)
	s.pretty.Field("project", s.kind)
	if s.hasInv {
		s.pretty.Field("command", s.inv.String())
	} else {
		s.pretty.Warn("no test command for this project; changes are reported only")
	}
}

// collect adds the relevant paths of ev to batch and reports whether there
// were any.
func (s *Session) collect(batch *pathSet, ev fswatch.ChangeEvent) bool {
	s.count(func(st *Stats) { st.Events++ })

	relevant := s.matcher.Filter(ev.Paths)
	if len(relevant) == 0 {
		s.count(func(st *Stats) { st.Ignored++ })
		s.logger.WithField("paths", ev.Paths).Trace("Ignoring change")
		return false
	}
	for _, p := range relevant {
		batch.add(p)
	}
	s.logger.WithFields(logrus.Fields{"kind": ev.Kind.String(), "paths": relevant}).Debug("Change detected")
	return true
}

// debounce keeps collecting into batch until the window closes.
func (s *Session) debounce(ctx context.Context, batch *pathSet) {
	window := time.NewTimer(s.opts.Debounce)
	defer window.Stop()

	events := s.source.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case <-window.C:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.collect(batch, ev)
		}
	}
}

// drain takes every event already queued without waiting for more.
func (s *Session) drain() *pathSet {
	batch := newPathSet()
	events := s.source.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return batch
			}
			s.collect(batch, ev)
		default:
			return batch
		}
	}
}

// cycle runs the tests for batch, then once more for whatever relevant
// changes queued up while they ran, until nothing did.
func (s *Session) cycle(ctx context.Context, batch *pathSet) {
	for batch.len() > 0 {
		if ctx.Err() != nil {
			return
		}
		s.pretty.Info("changed files: %d", batch.len())
		s.invoke(ctx)

		batch = s.drain()
		if batch.len() > 0 {
			s.logger.WithField("paths", batch.len()).Debug("Changes arrived during test run")
		}
	}
}

func (s *Session) invoke(ctx context.Context) {
	if !s.hasInv {
		s.logger.WithField("kind", s.kind.String()).Debug("No test command, nothing to run")
		return
	}

	spec := command.Spec{
		Program: s.inv.Program,
		Args:    s.inv.Args,
		Dir:     s.root,
		Env:     s.opts.Env,
	}
	s.logger.WithField("command", s.inv.String()).Debug("Starting test run")

	result, err := s.runner.Run(ctx, spec)
	if err != nil {
		s.count(func(st *Stats) { st.SpawnFailures++ })
		s.logger.WithError(err).WithField("command", s.inv.Program).Error("Failed to start test command")
		s.pretty.Error(err, "could not run %s", s.inv.Program)
		return
	}

	s.count(func(st *Stats) { st.Runs++ })
	s.logger.WithFields(logrus.Fields{
		"exit_code": result.ExitCode,
		"duration":  result.Duration.String(),
	}).Debug("Test run finished")
	s.pretty.Info("test run status: %s", result.Status)
}

func (s *Session) logSourceError(err error) {
	if fswatch.IsOverflow(err) {
		s.logger.WithError(err).Warn("File events were lost; some changes may not trigger a run")
		return
	}
	s.logger.WithError(err).Debug("Watch error")
}

// pathSet keeps distinct paths in arrival order.
type pathSet struct {
	seen  map[string]struct{}
	order []string
}

func newPathSet() *pathSet {
	return &pathSet{seen: make(map[string]struct{})}
}

func (p *pathSet) add(path string) {
	if _, ok := p.seen[path]; ok {
		return
	}
	p.seen[path] = struct{}{}
	p.order = append(p.order, path)
}

func (p *pathSet) len() int {
	return len(p.order)
}
