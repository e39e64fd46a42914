package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "render_markdown", Normalize("render-markdown"))
	assert.Equal(t, "render_markdown", Normalize(" render_markdown "))
	assert.Equal(t, "tags", Normalize("tags"))
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(titleContributor("render_markdown", ""))

	c, err := reg.Resolve("render-markdown")
	require.NoError(t, err)
	assert.Equal(t, "render_markdown", c.Name())

	_, err = reg.Resolve("missing")
	assert.Error(t, err)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(titleContributor("tags", "")))
	err := reg.Register(titleContributor("tags", ""))
	assert.Error(t, err)
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(titleContributor("zeta", ""))
	reg.MustRegister(titleContributor("alpha", ""))
	assert.Equal(t, []string{"alpha", "zeta"}, reg.Names())
}
