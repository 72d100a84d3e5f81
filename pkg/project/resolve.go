package project

import (
	"strings"

	"github.com/devflow/devflow/errors"
	"github.com/kballard/go-shellquote"
)

// Invocation is an external command that exercises a test suite.
type Invocation struct {
	Program string
	Args    []string
}

// String renders the invocation as a shell-quoted command line.
func (i Invocation) String() string {
	return shellquote.Join(append([]string{i.Program}, i.Args...)...)
}

// Resolve returns the default test command for kind. Unknown has none, and the
// caller must not run anything in its place.
func Resolve(kind Kind) (Invocation, bool) {
	switch kind {
	case Python:
		return Invocation{Program: "pytest", Args: []string{"-q"}}, true
	case Node:
		return Invocation{Program: "npx", Args: []string{"jest", "--passWithNoTests"}}, true
	case Go:
		return Invocation{Program: "go", Args: []string{"test", "./..."}}, true
	case Rust:
		return Invocation{Program: "cargo", Args: []string{"test"}}, true
	default:
		return Invocation{}, false
	}
}

// ParseInvocation splits a configured command line into program and arguments
// using POSIX shell word rules. No shell is involved when it runs.
func ParseInvocation(command string) (Invocation, error) {
	if strings.TrimSpace(command) == "" {
		return Invocation{}, errors.ConfigInvalid("test_command is empty")
	}
	words, err := shellquote.Split(command)
	if err != nil {
		return Invocation{}, errors.Wrap(err, errors.ErrCodeConfigInvalid, "cannot parse test_command").
			WithDetail("test_command", command)
	}
	return Invocation{Program: words[0], Args: words[1:]}, nil
}

// ResolveFor resolves the test command for a session. A non-empty override
// wins over the kind's default, Unknown included.
func ResolveFor(kind Kind, override string) (Invocation, bool, error) {
	if strings.TrimSpace(override) != "" {
		inv, err := ParseInvocation(override)
		if err != nil {
			return Invocation{}, false, err
		}
		return inv, true, nil
	}
	inv, ok := Resolve(kind)
	return inv, ok, nil
}
