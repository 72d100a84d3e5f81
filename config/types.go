package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DefaultPollInterval bounds how long the watch loop waits for an event
// before re-checking for cancellation.
const DefaultPollInterval = time.Second

// Config is the content of a project's .devflow.yaml (or .devflow.toml).
type Config struct {
	Env           map[string]string `yaml:"env,omitempty" json:"env,omitempty" toml:"env,omitempty" jsonschema:"description=Expected environment variables mapped to their type name"`
	Services      []ServiceDef      `yaml:"services,omitempty" json:"services,omitempty" toml:"services,omitempty" jsonschema:"description=Long-running services of the project"`
	StartCommands []string          `yaml:"start_commands,omitempty" json:"start_commands,omitempty" toml:"start_commands,omitempty" jsonschema:"description=Commands that bring up the development environment"`
	TestCommand   string            `yaml:"test_command,omitempty" json:"test_command,omitempty" toml:"test_command,omitempty" jsonschema:"description=Overrides the test command derived from the project type"`
	IgnoreGlobs   []string          `yaml:"ignore_globs,omitempty" json:"ignore_globs,omitempty" toml:"ignore_globs,omitempty" jsonschema:"description=Glob patterns relative to the project root whose changes never trigger a test run"`
	DesiredPorts  []int             `yaml:"desired_ports,omitempty" json:"desired_ports,omitempty" toml:"desired_ports,omitempty" jsonschema:"description=TCP ports the project expects to own"`
	Watch         WatchConfig       `yaml:"watch,omitempty" json:"watch,omitempty" toml:"watch,omitempty" jsonschema:"description=Settings for devflow watch"`

	// Extensions holds any top-level section not modelled above, such as
	// `logging`. Decode one with UnmarshalExtension.
	Extensions map[string]interface{} `yaml:",inline" json:"extensions,omitempty" toml:"-" jsonschema:"-"`

	// Path is the file the configuration was read from. Empty for defaults.
	Path string `yaml:"-" json:"-" toml:"-" jsonschema:"-"`
}

// ServiceDef is a named long-running process.
type ServiceDef struct {
	Name    string `yaml:"name" json:"name" toml:"name" jsonschema:"description=Service name"`
	Command string `yaml:"command" json:"command" toml:"command" jsonschema:"description=Command line that starts the service"`
}

// WatchConfig tunes the watch loop.
type WatchConfig struct {
	PollInterval string            `yaml:"poll_interval,omitempty" json:"poll_interval,omitempty" toml:"poll_interval,omitempty" jsonschema:"description=Maximum wait for an event before checking for shutdown (Go duration; default 1s)"`
	Debounce     string            `yaml:"debounce,omitempty" json:"debounce,omitempty" toml:"debounce,omitempty" jsonschema:"description=Collect further events for this long before running tests (Go duration; default 0 reacts immediately)"`
	TestEnv      map[string]string `yaml:"test_env,omitempty" json:"test_env,omitempty" toml:"test_env,omitempty" jsonschema:"description=Extra environment variables for the test process"`
}

// knownKeys are the top-level keys Config models directly.
var knownKeys = map[string]bool{
	"env":            true,
	"services":       true,
	"start_commands": true,
	"test_command":   true,
	"ignore_globs":   true,
	"desired_ports":  true,
	"watch":          true,
}

// PollIntervalDuration returns the parsed poll interval, or the default.
func (w WatchConfig) PollIntervalDuration() (time.Duration, error) {
	if w.PollInterval == "" {
		return DefaultPollInterval, nil
	}
	d, err := time.ParseDuration(w.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("watch.poll_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("watch.poll_interval must be positive, got %s", w.PollInterval)
	}
	return d, nil
}

// DebounceDuration returns the parsed debounce window. Zero disables it.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	if w.Debounce == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 0, fmt.Errorf("watch.debounce: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("watch.debounce must not be negative, got %s", w.Debounce)
	}
	return d, nil
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded file into the provided target struct. The target must be a pointer.
// A missing section leaves the target untouched.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
