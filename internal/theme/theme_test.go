package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestApplyForcesPaletteVariant(t *testing.T) {
	r := lipgloss.DefaultRenderer()
	original := r.HasDarkBackground()
	t.Cleanup(func() { r.SetHasDarkBackground(original) })

	Apply("light")
	assert.False(t, r.HasDarkBackground())

	Apply("dark")
	assert.True(t, r.HasDarkBackground())

	// Unknown names keep whatever detection picked.
	Apply("default")
	assert.True(t, r.HasDarkBackground())
}
