package layout

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestRenderer_ProducesPDF(t *testing.T) {
	engine := NewEngine(DefaultGeometry())
	renderer := NewRenderer(DefaultGeometry(), t.TempDir(), testLogger())

	spec := incidentsSpec(makeRows(120))
	pages := engine.Layout(spec)
	require.Greater(t, len(pages), 1)

	out, err := renderer.Render(spec, pages)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output should be a PDF document")
	assert.Greater(t, len(out), 1000)
}

func TestRenderer_ZeroRows(t *testing.T) {
	engine := NewEngine(DefaultGeometry())
	renderer := NewRenderer(DefaultGeometry(), t.TempDir(), testLogger())

	spec := incidentsSpec(nil)
	pages := engine.Layout(spec)
	require.Len(t, pages, 1)

	out, err := renderer.Render(spec, pages)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderer_MissingLogoFallsBackToBadge(t *testing.T) {
	assets := t.TempDir()
	renderer := NewRenderer(DefaultGeometry(), assets, testLogger())

	spec := incidentsSpec(makeRows(5))
	spec.Org.LogoPath = "logos/acme.png" // does not exist

	pages := NewEngine(DefaultGeometry()).Layout(spec)
	out, err := renderer.Render(spec, pages)
	require.NoError(t, err, "logo failures degrade to the initials badge, never abort the report")
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderer_CorruptLogoFallsBackToBadge(t *testing.T) {
	assets := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(assets, "logos"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(assets, "logos", "acme.png"), []byte("not a png"), 0644))

	renderer := NewRenderer(DefaultGeometry(), assets, testLogger())
	spec := incidentsSpec(makeRows(5))
	spec.Org.LogoPath = "logos/acme.png"

	pages := NewEngine(DefaultGeometry()).Layout(spec)
	out, err := renderer.Render(spec, pages)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestResolveLogo(t *testing.T) {
	assets := t.TempDir()
	renderer := NewRenderer(DefaultGeometry(), assets, testLogger())

	t.Run("empty path", func(t *testing.T) {
		_, _, ok := renderer.resolveLogo(incidentsSpec(nil).Org)
		assert.False(t, ok)
	})

	t.Run("unreadable path", func(t *testing.T) {
		org := incidentsSpec(nil).Org
		org.LogoPath = "missing.png"
		_, _, ok := renderer.resolveLogo(org)
		assert.False(t, ok)
	})

	t.Run("valid png", func(t *testing.T) {
		// Smallest valid 1x1 PNG.
		png := []byte{
			0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
			0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
			0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
			0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
			0x89, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x44, 0x41,
			0x54, 0x78, 0x9C, 0x62, 0x00, 0x01, 0x00, 0x00,
			0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
			0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
			0x42, 0x60, 0x82,
		}
		require.NoError(t, os.WriteFile(filepath.Join(assets, "org.png"), png, 0644))

		org := incidentsSpec(nil).Org
		org.LogoPath = "org.png"
		path, imgType, ok := renderer.resolveLogo(org)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(assets, "org.png"), path)
		assert.Equal(t, "png", imgType)
	})
}
