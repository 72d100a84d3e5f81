package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devflow/devflow/errors"
	"github.com/devflow/devflow/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromBytesYAML(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
env:
  PORT: int
services:
  - name: app
    command: cargo run
start_commands:
  - docker compose up -d
test_command: make test
ignore_globs:
  - target/**
  - "*.log"
desired_ports: [3000, 5432]
watch:
  poll_interval: 250ms
  debounce: 50ms
  test_env:
    CI: "1"
`), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"PORT": "int"}, cfg.Env)
	assert.Equal(t, []ServiceDef{{Name: "app", Command: "cargo run"}}, cfg.Services)
	assert.Equal(t, []string{"docker compose up -d"}, cfg.StartCommands)
	assert.Equal(t, "make test", cfg.TestCommand)
	assert.Equal(t, []string{"target/**", "*.log"}, cfg.IgnoreGlobs)
	assert.Equal(t, []int{3000, 5432}, cfg.DesiredPorts)
	assert.Equal(t, map[string]string{"CI": "1"}, cfg.Watch.TestEnv)

	poll, err := cfg.Watch.PollIntervalDuration()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, poll)

	debounce, err := cfg.Watch.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, debounce)
}

func TestLoadFromBytesEmptyDocument(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(""), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, cfg.IgnoreGlobs)
	assert.Empty(t, cfg.TestCommand)

	poll, err := cfg.Watch.PollIntervalDuration()
	require.NoError(t, err)
	assert.Equal(t, DefaultPollInterval, poll)
}

func TestLoadFromBytesTOML(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
test_command = "pytest -x"
ignore_globs = ["build/**"]
desired_ports = [8080]

[watch]
debounce = "100ms"

[logging]
level = "debug"

[logging.format]
preset = "json"
`), FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, "pytest -x", cfg.TestCommand)
	assert.Equal(t, []string{"build/**"}, cfg.IgnoreGlobs)
	assert.Equal(t, []int{8080}, cfg.DesiredPorts)
	assert.Equal(t, "100ms", cfg.Watch.Debounce)

	require.Contains(t, cfg.Extensions, "logging")
	assert.NotContains(t, cfg.Extensions, "watch")

	var logCfg logging.Config
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)
	assert.Equal(t, "json", logCfg.Format.Preset)
}

func TestExtensions(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
ignore_globs: ["vendor/**"]

logging:
  level: warn
  report_caller: true
  file:
    enabled: true
    path: /tmp/devflow.log

monitoring:
  enabled: true
  interval: 30
`), FormatYAML)
	require.NoError(t, err)

	require.NotNil(t, cfg.Extensions)
	assert.Contains(t, cfg.Extensions, "monitoring")
	assert.NotContains(t, cfg.Extensions, "ignore_globs")

	var logCfg logging.Config
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "warn", logCfg.Level)
	assert.True(t, logCfg.ReportCaller)
	assert.True(t, logCfg.File.Enabled)
	assert.Equal(t, "/tmp/devflow.log", logCfg.File.Path)

	type MonitoringConfig struct {
		Enabled  bool `yaml:"enabled"`
		Interval int  `yaml:"interval"`
	}
	var mon MonitoringConfig
	require.NoError(t, cfg.UnmarshalExtension("monitoring", &mon))
	assert.True(t, mon.Enabled)
	assert.Equal(t, 30, mon.Interval)

	// A missing section leaves the target untouched.
	untouched := MonitoringConfig{Interval: 7}
	require.NoError(t, cfg.UnmarshalExtension("absent", &untouched))
	assert.Equal(t, 7, untouched.Interval)
}

func TestLoadFromBytesInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		format  Format
	}{
		{"malformed yaml", "ignore_globs: [unclosed", FormatYAML},
		{"malformed toml", "ignore_globs = [", FormatTOML},
		{"ignore_globs wrong type", "ignore_globs: 5", FormatYAML},
		{"test_command wrong type", "test_command: [a, b]", FormatYAML},
		{"service without command", "services:\n  - name: app\n", FormatYAML},
		{"port out of range", "desired_ports: [70000]", FormatYAML},
		{"service with blank name", "services:\n  - name: \" \"\n    command: run\n", FormatYAML},
		{"bad poll interval", "watch:\n  poll_interval: soon\n", FormatYAML},
		{"zero poll interval", "watch:\n  poll_interval: 0s\n", FormatYAML},
		{"negative debounce", "watch:\n  debounce: -1s\n", FormatYAML},
		{"logging level wrong type", "logging:\n  level: [debug]\n", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.content), tt.format)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DEVFLOW_TEST_CMD", "go test -race ./...")
	t.Setenv("DEVFLOW_EMPTY", "")

	tests := []struct {
		input    string
		expected string
	}{
		{"${DEVFLOW_TEST_CMD}", "go test -race ./..."},
		{"x-${DEVFLOW_UNSET_VAR}-y", "x--y"},
		{"${DEVFLOW_UNSET_VAR:-fallback}", "fallback"},
		{"${DEVFLOW_EMPTY:-fallback}", "fallback"},
		{"no variables", "no variables"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, expandEnvVars(tt.input), tt.input)
	}

	cfg, err := LoadFromBytes([]byte(`test_command: "${DEVFLOW_TEST_CMD}"`), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "go test -race ./...", cfg.TestCommand)
}

func TestFindConfigFilePrecedence(t *testing.T) {
	dir := t.TempDir()

	_, err := FindConfigFile(dir)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))

	tomlPath := writeFile(t, dir, ".devflow.toml", `test_command = "from toml"`)
	found, err := FindConfigFile(dir)
	require.NoError(t, err)
	assert.Equal(t, tomlPath, found)

	ymlPath := writeFile(t, dir, ".devflow.yml", `test_command: from yml`)
	found, err = FindConfigFile(dir)
	require.NoError(t, err)
	assert.Equal(t, ymlPath, found)

	yamlPath := writeFile(t, dir, ".devflow.yaml", `test_command: from yaml`)
	found, err = FindConfigFile(dir)
	require.NoError(t, err)
	assert.Equal(t, yamlPath, found)

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "from yaml", cfg.TestCommand)
	assert.Equal(t, yamlPath, cfg.Path)
}

func TestLoadFromWithoutConfig(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromInvalidConfigIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".devflow.yaml", "ignore_globs: {")

	_, err := LoadFrom(dir)
	require.Error(t, err)
	devErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeConfigInvalid, devErr.Code)
	assert.Equal(t, path, devErr.Details["path"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), ".devflow.yaml"))
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteDefault(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".devflow.yaml"), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"target/**", "node_modules/**"}, cfg.IgnoreGlobs)
	assert.Equal(t, []int{3000, 5432}, cfg.DesiredPorts)
	assert.Equal(t, []string{"docker compose up -d"}, cfg.StartCommands)
	assert.Equal(t, []ServiceDef{{Name: "app", Command: "cargo run"}}, cfg.Services)
	assert.Equal(t, map[string]string{"DATABASE_URL": "string", "PORT": "int"}, cfg.Env)
	assert.Empty(t, cfg.TestCommand)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "test_command")
	assert.NotContains(t, string(data), "watch")
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	existing := writeFile(t, dir, ".devflow.toml", `test_command = "keep me"`)

	_, err := WriteDefault(dir)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigExists, errors.GetCode(err))

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, `test_command = "keep me"`, string(data))

	_, err = os.Stat(filepath.Join(dir, ".devflow.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateSchema(t *testing.T) {
	doc, err := GenerateSchema()
	require.NoError(t, err)
	assert.Contains(t, string(doc), `"ignore_globs"`)
	assert.Contains(t, string(doc), `"poll_interval"`)
	assert.NotContains(t, string(doc), `"Extensions"`)
	assert.NotContains(t, string(doc), `"Path"`)
	assert.Contains(t, string(doc), `"structured_to_stderr"`)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatTOML, FormatFor("/x/.devflow.toml"))
	assert.Equal(t, FormatYAML, FormatFor("/x/.devflow.yml"))
	assert.Equal(t, FormatYAML, FormatFor(".devflow.yaml"))
}
