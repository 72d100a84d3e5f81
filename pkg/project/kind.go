// Package project classifies a project tree by its toolchain and maps that
// classification to the command that runs the project's test suite.
package project

import (
	"bufio"
	"io/fs"
	"os"
	"strings"
)

// Kind is the primary toolchain of a project.
type Kind int

const (
	Unknown Kind = iota
	Python
	Node
	Go
	Rust
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Python:
		return "python"
	case Node:
		return "node"
	case Go:
		return "go"
	case Rust:
		return "rust"
	default:
		return "unknown"
	}
}

// marker ties a kind to the files that identify it. Order is precedence.
type marker struct {
	kind  Kind
	files []string
}

var markers = []marker{
	{Python, []string{"pyproject.toml", "requirements.txt"}},
	{Node, []string{"package.json"}},
	{Go, []string{"go.mod"}},
	{Rust, []string{"Cargo.toml"}},
}

// Classify probes fsys for marker files and returns the highest-precedence
// match: Python, then Node, then Go, then Rust. It never fails; a tree with no
// markers is Unknown.
func Classify(fsys fs.FS) Kind {
	for _, m := range markers {
		for _, name := range m.files {
			if exists(fsys, name) {
				return m.kind
			}
		}
	}
	return Unknown
}

// ClassifyDir classifies the directory at root.
func ClassifyDir(root string) Kind {
	return Classify(os.DirFS(root))
}

// hintFiles are checked in order for a toolchain version hint.
var hintFiles = []string{".nvmrc", "rust-toolchain", "go.mod", "pyproject.toml"}

// ToolchainHint returns the trimmed first line of the first version hint file
// present in fsys.
func ToolchainHint(fsys fs.FS) (string, bool) {
	for _, name := range hintFiles {
		if !exists(fsys, name) {
			continue
		}
		f, err := fsys.Open(name)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		line := ""
		if scanner.Scan() {
			line = strings.TrimSpace(scanner.Text())
		}
		f.Close()
		return line, true
	}
	return "", false
}

func exists(fsys fs.FS, name string) bool {
	_, err := fs.Stat(fsys, name)
	return err == nil
}
