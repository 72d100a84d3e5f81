package project

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/devflow/devflow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tree(files ...string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for _, f := range files {
		fsys[f] = &fstest.MapFile{Data: []byte("x\n")}
	}
	return fsys
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  Kind
	}{
		{"pyproject", []string{"pyproject.toml"}, Python},
		{"requirements", []string{"requirements.txt"}, Python},
		{"node", []string{"package.json"}, Node},
		{"go", []string{"go.mod"}, Go},
		{"rust", []string{"Cargo.toml"}, Rust},
		{"empty", nil, Unknown},
		{"unrelated files", []string{"README.md", "Makefile"}, Unknown},
		{"node beats rust", []string{"Cargo.toml", "package.json"}, Node},
		{"python beats everything", []string{"go.mod", "package.json", "Cargo.toml", "requirements.txt"}, Python},
		{"go beats rust", []string{"Cargo.toml", "go.mod"}, Go},
		{"marker in subdirectory only", []string{"sub/go.mod"}, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tree(tt.files...)))
		})
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	fsys := tree("go.mod", "Cargo.toml")
	first := Classify(fsys)
	second := Classify(fsys)
	assert.Equal(t, first, second)
	assert.Equal(t, Go, first)
}

func TestClassifyDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\nname='a'\n"), 0o644))
	assert.Equal(t, Rust, ClassifyDir(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0o644))
	assert.Equal(t, Node, ClassifyDir(dir))
}

func TestClassifyDirMissingRoot(t *testing.T) {
	assert.Equal(t, Unknown, ClassifyDir(filepath.Join(t.TempDir(), "missing")))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "python", Python.String())
	assert.Equal(t, "node", Node.String())
	assert.Equal(t, "go", Go.String())
	assert.Equal(t, "rust", Rust.String())
	assert.Equal(t, "unknown", Unknown.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestToolchainHint(t *testing.T) {
	fsys := fstest.MapFS{
		".nvmrc": &fstest.MapFile{Data: []byte("  v20.11.0  \nignored\n")},
		"go.mod": &fstest.MapFile{Data: []byte("module example.com/x\n")},
	}
	hint, ok := ToolchainHint(fsys)
	require.True(t, ok)
	assert.Equal(t, "v20.11.0", hint)

	hint, ok = ToolchainHint(fstest.MapFS{"go.mod": &fstest.MapFile{Data: []byte("module example.com/x\n\ngo 1.24\n")}})
	require.True(t, ok)
	assert.Equal(t, "module example.com/x", hint)

	_, ok = ToolchainHint(fstest.MapFS{})
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Python, "pytest -q"},
		{Node, "npx jest --passWithNoTests"},
		{Go, "go test ./..."},
		{Rust, "cargo test"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			inv, ok := Resolve(tt.kind)
			require.True(t, ok)
			assert.Equal(t, tt.want, inv.String())
		})
	}

	_, ok := Resolve(Unknown)
	assert.False(t, ok)
}

func TestResolveGoArgv(t *testing.T) {
	inv, ok := Resolve(Go)
	require.True(t, ok)
	assert.Equal(t, "go", inv.Program)
	assert.Equal(t, []string{"test", "./..."}, inv.Args)
}

func TestParseInvocation(t *testing.T) {
	inv, err := ParseInvocation(`make test ARGS="-run TestFoo"`)
	require.NoError(t, err)
	assert.Equal(t, "make", inv.Program)
	assert.Equal(t, []string{"test", "ARGS=-run TestFoo"}, inv.Args)

	_, err = ParseInvocation("   ")
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))

	_, err = ParseInvocation(`pytest "unterminated`)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}

func TestResolveForOverride(t *testing.T) {
	inv, ok, err := ResolveFor(Unknown, "bun test")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Invocation{Program: "bun", Args: []string{"test"}}, inv)

	inv, ok, err = ResolveFor(Go, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "go", inv.Program)

	_, ok, err = ResolveFor(Unknown, "")
	require.NoError(t, err)
	assert.False(t, ok)
}
