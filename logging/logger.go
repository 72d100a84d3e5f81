package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/devflow/devflow/pkg/paths"
	"github.com/devflow/devflow/util/pathutil"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
	current   Config
	// sinks are shared by every logger writing to the same file.
	sinks = make(map[string]*os.File)
)

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()
	apply(logger, current)

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// Configure applies cfg to every logger, including ones already handed out.
func Configure(cfg Config) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	current = cfg
	for _, entry := range loggers {
		apply(entry.Logger, cfg)
	}
}

// CurrentConfig returns the configuration loggers are built with.
func CurrentConfig() Config {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	return current
}

func apply(logger *logrus.Logger, cfg Config) {
	// Configure Level
	levelStr := "info" // Default level
	if os.Getenv("DEVFLOW_LOG_LEVEL") != "" {
		levelStr = os.Getenv("DEVFLOW_LOG_LEVEL")
	} else if cfg.Level != "" {
		levelStr = cfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Configure Caller Reporting
	logger.SetReportCaller(os.Getenv("DEVFLOW_LOG_CALLER") == "true" || cfg.ReportCaller)

	// Configure Formatter
	switch cfg.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(&TextFormatter{Config: cfg.Format})
	}

	// Configure Output Sinks
	var writers []io.Writer

	if cfg.File.Enabled {
		path := cfg.File.Path
		if path == "" {
			path = paths.DefaultLogFile()
		}
		logFilePath, err := pathutil.Expand(path)
		if err != nil {
			logrus.Warnf("Failed to resolve log file path %s: %v", path, err)
		} else if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
			logrus.Warnf("Failed to create log directory for %s: %v", logFilePath, err)
		} else if file, err := openSink(logFilePath); err != nil {
			logrus.Warnf("Failed to open log file %s: %v", logFilePath, err)
		} else {
			writers = append(writers, file)
		}
	}

	if shouldLogToStderr(cfg, logger.GetLevel()) {
		writers = append(writers, GetGlobalOutput())
	}

	// Configure the output based on the number of writers
	switch len(writers) {
	case 0:
		// Interactive terminals get the pretty output only.
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}
}

// shouldLogToStderr decides whether structured logs reach stderr. In "auto"
// mode they do when debugging or when stderr is not an interactive terminal.
func shouldLogToStderr(cfg Config, level logrus.Level) bool {
	switch cfg.Format.StructuredToStderr {
	case "always":
		return true
	case "never":
		return false
	}

	isDebug := os.Getenv("DEVFLOW_DEBUG") == "1" || level >= logrus.DebugLevel
	isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return isDebug || !isInteractive
}

// openSink returns the shared handle for path. Callers hold loggersMu.
func openSink(path string) (*os.File, error) {
	if f, ok := sinks[path]; ok {
		return f, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	sinks[path] = f
	return f, nil
}
