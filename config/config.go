package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/devflow/devflow/command"
	"github.com/devflow/devflow/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// FileNames are the configuration file names looked up in a project root,
// in order of precedence.
var FileNames = []string{
	".devflow.yaml",
	".devflow.yml",
	".devflow.toml",
}

// Format is the encoding of a configuration file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor returns the format implied by a file name.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Default returns the configuration used when a project has no config file:
// nothing ignored and the test command derived from the project type.
func Default() *Config {
	return &Config{}
}

// FindConfigFile returns the first configuration file present in root.
func FindConfigFile(root string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", errors.ConfigNotFound(root)
}

// LoadFrom loads the configuration of the project at root. A project without
// a config file gets Default().
func LoadFrom(root string) (*Config, error) {
	path, err := FindConfigFile(root)
	if err != nil {
		if errors.Is(err, errors.ErrCodeConfigNotFound) {
			return Default(), nil
		}
		return nil, err
	}
	return Load(path)
}

// Load reads and parses a configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	cfg, err := LoadFromBytes(data, FormatFor(path))
	if err != nil {
		if devErr, ok := errors.As(err); ok {
			return nil, devErr.WithDetail("path", path)
		}
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// LoadFromBytes parses, schema-checks and validates a configuration document.
func LoadFromBytes(data []byte, format Format) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	raw, err := decodeRaw(expanded, format)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, fmt.Sprintf("failed to parse %s configuration", strings.ToUpper(string(format))))
	}

	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create validator")
	}
	if err := validator.Validate(raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
	}

	cfg := &Config{}
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(expanded, cfg)
	default:
		err = yaml.Unmarshal(expanded, cfg)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to decode configuration")
	}

	// go-toml has no inline maps, so collect unknown sections by hand.
	if format == FormatTOML {
		for key, value := range raw {
			if knownKeys[key] {
				continue
			}
			if cfg.Extensions == nil {
				cfg.Extensions = make(map[string]interface{})
			}
			cfg.Extensions[key] = value
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeRaw decodes a document into generic maps for schema validation.
func decodeRaw(data []byte, format Format) (map[string]interface{}, error) {
	raw := map[string]interface{}{}
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return raw, nil
}

// Validate performs the semantic checks a schema cannot express.
func (c *Config) Validate() error {
	for _, port := range c.DesiredPorts {
		if port < 0 || port > 65535 {
			return errors.ConfigInvalid(fmt.Sprintf("desired_ports: %d is not a valid port", port)).
				WithDetail("port", port)
		}
	}
	for i, svc := range c.Services {
		if err := command.ValidateServiceName(svc.Name); err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("services[%d]: %v", i, err))
		}
	}
	if _, err := c.Watch.PollIntervalDuration(); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid watch settings")
	}
	if _, err := c.Watch.DebounceDuration(); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid watch settings")
	}
	return nil
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// defaultTemplate is what `devflow init` writes.
func defaultTemplate() *Config {
	return &Config{
		Env: map[string]string{
			"DATABASE_URL": "string",
			"PORT":         "int",
		},
		Services: []ServiceDef{
			{Name: "app", Command: "cargo run"},
		},
		StartCommands: []string{"docker compose up -d"},
		IgnoreGlobs:   []string{"target/**", "node_modules/**"},
		DesiredPorts:  []int{3000, 5432},
	}
}

// WriteDefault writes a starter .devflow.yaml into root. It refuses to
// replace any existing configuration file.
func WriteDefault(root string) (string, error) {
	if existing, err := FindConfigFile(root); err == nil {
		return "", errors.ConfigExists(existing)
	}

	data, err := yaml.Marshal(defaultTemplate())
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to render default configuration")
	}

	path := filepath.Join(root, FileNames[0])
	if err := os.WriteFile(path, data, 0644); err != nil {
		if os.IsPermission(err) {
			return "", errors.Wrap(err, errors.ErrCodePermissionDenied, "cannot write configuration").
				WithDetail("path", path)
		}
		return "", errors.Wrap(err, errors.ErrCodeInternal, "cannot write configuration").
			WithDetail("path", path)
	}
	return path, nil
}
