package errors

import (
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevflowError(t *testing.T) {
	err := New(ErrCodeInvalidPattern, "bad glob")
	assert.Equal(t, ErrCodeInvalidPattern, err.Code)
	assert.Equal(t, "INVALID_PATTERN: bad glob", err.Error())

	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeCommandFailed, "command failed")
	assert.Equal(t, cause, wrapped.Unwrap())
	assert.Contains(t, wrapped.Error(), "caused by: underlying error")

	assert.True(t, Is(wrapped, ErrCodeCommandFailed))
	assert.False(t, Is(wrapped, ErrCodeWatchInit))
	assert.False(t, Is(nil, ErrCodeWatchInit))

	detailed := err.WithDetail("pattern", "[").WithDetail("index", 2)
	assert.Equal(t, "[", detailed.Details["pattern"])
	assert.Equal(t, 2, detailed.Details["index"])
}

func TestIsThroughStdlibWrapping(t *testing.T) {
	inner := WatchInit("/nope", os.ErrNotExist)
	outer := fmt.Errorf("starting session: %w", inner)

	assert.True(t, Is(outer, ErrCodeWatchInit))
	assert.Equal(t, ErrCodeWatchInit, GetCode(outer))

	got, ok := As(outer)
	require.True(t, ok)
	assert.Equal(t, "/nope", got.Details["root"])
}

func TestIsNestedDevflowErrors(t *testing.T) {
	inner := ConfigInvalid("bad yaml")
	outer := Wrap(inner, ErrCodeInternal, "loading")

	assert.True(t, Is(outer, ErrCodeInternal))
	assert.True(t, Is(outer, ErrCodeConfigInvalid))
	assert.Equal(t, ErrCodeInternal, GetCode(outer))
}

func TestGetCodePlainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetCode(fmt.Errorf("plain")))
	assert.Equal(t, ErrorCode(""), GetCode(nil))
}

func TestErrorConstructors(t *testing.T) {
	t.Run("InvalidPattern", func(t *testing.T) {
		err := InvalidPattern("src/[", fmt.Errorf("syntax error in pattern"))
		assert.Equal(t, ErrCodeInvalidPattern, err.Code)
		assert.Equal(t, "src/[", err.Details["pattern"])
		assert.Contains(t, err.Error(), `"src/["`)
	})

	t.Run("WatchInit permission", func(t *testing.T) {
		err := WatchInit("/root", os.ErrPermission)
		assert.Equal(t, ErrCodeWatchInit, err.Code)
		assert.Equal(t, true, err.Details["permission"])
	})

	t.Run("CommandNotFound", func(t *testing.T) {
		err := CommandNotFound("pytest", exec.ErrNotFound)
		assert.Equal(t, ErrCodeCommandNotFound, err.Code)
		assert.Equal(t, "pytest", err.Details["command"])
	})

	t.Run("ConfigExists", func(t *testing.T) {
		err := ConfigExists("/p/.devflow.yaml")
		assert.Equal(t, ErrCodeConfigExists, err.Code)
		assert.Equal(t, "/p/.devflow.yaml", err.Details["path"])
	})
}

func TestToJSON(t *testing.T) {
	err := ConfigNotFound("/tmp/x")
	out := err.ToJSON()
	assert.Contains(t, out, `"code": "CONFIG_NOT_FOUND"`)
	assert.Contains(t, out, `"path": "/tmp/x"`)
}
