package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(CategoryConfig, SeverityError, "something happened")
	assert.Equal(t, "config (error): something happened", err.Error())

	wrapped := Wrap(stderrors.New("root cause"), CategoryCache, SeverityFatal, "flush failed")
	assert.Equal(t, "cache (fatal): flush failed: root cause", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(cause, CategoryCache, SeverityError, "write failed")
	assert.ErrorIs(t, err, cause)
}

func TestWithContext(t *testing.T) {
	err := New(CategoryExtension, SeverityFatal, "not found").
		WithContext("extension", "render_markdown")
	require.NotNil(t, err.Context)
	assert.Equal(t, "render_markdown", err.Context["extension"])
}

func TestCategoryChecks(t *testing.T) {
	assert.True(t, IsConfiguration(Configuration("base_url")))
	assert.True(t, IsResolution(Resolution("nope")))
	assert.True(t, IsCacheIO(CacheIO(stderrors.New("io"), "titles", "read failed")))

	// Checks must see through fmt wrapping.
	err := fmt.Errorf("loading blog: %w", Configuration("base_url"))
	assert.True(t, IsConfiguration(err))

	assert.False(t, IsCacheIO(stderrors.New("plain")))
	assert.False(t, IsResolution(Configuration("k")))
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryConfig, CategoryOf(Configuration("k")))
	assert.Equal(t, CategoryInternal, CategoryOf(stderrors.New("anonymous")))
}
