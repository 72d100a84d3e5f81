package command

import (
	"fmt"
	"regexp"
)

var serviceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateServiceName ensures a service name is safe to use as a process
// label and in generated file names.
func ValidateServiceName(name string) error {
	if name == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if !serviceNamePattern.MatchString(name) {
		return fmt.Errorf("invalid service name: %s (must contain only letters, digits, underscores and hyphens)", name)
	}
	if len(name) > 63 {
		return fmt.Errorf("service name too long: %s (max 63 characters)", name)
	}
	return nil
}
