package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpub/internal/config"
	apperrors "git.home.luguber.info/inful/docpub/internal/errors"
)

func testConfig(t *testing.T, pages []config.Page) (*config.Config, string) {
	t.Helper()
	return &config.Config{
		Site: config.SiteConfig{
			Title: "Guide",
			Pages: pages,
		},
		Output: config.OutputConfig{Clean: true},
	}, filepath.Join(t.TempDir(), "site")
}

func writePage(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuild_SinglePage(t *testing.T) {
	srcDir := t.TempDir()
	page := writePage(t, srcDir, "index.md", "# Title\nHello")

	cfg, out := testConfig(t, []config.Page{{Label: "Guide", Path: page}})
	artifact, err := NewGenerator(cfg, out).Build()
	require.NoError(t, err)

	require.Len(t, artifact.Pages, 1)
	assert.Equal(t, "", artifact.Pages[0].RelURL)

	html, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "<title>Guide &mdash; Guide</title>")
	assert.Contains(t, string(html), "Hello")
	assert.Contains(t, string(html), "<h1>Title</h1>")
}

func TestBuild_MultiPageNavAndSlugs(t *testing.T) {
	srcDir := t.TempDir()
	index := writePage(t, srcDir, "index.md", "# Home")
	bg := writePage(t, srcDir, "background.md", "Some background.")

	cfg, out := testConfig(t, []config.Page{
		{Label: "Guide", Path: index},
		{Label: "Background Notes", Path: bg},
	})
	artifact, err := NewGenerator(cfg, out).Build()
	require.NoError(t, err)

	require.Len(t, artifact.Pages, 2)
	assert.Equal(t, "background-notes/", artifact.Pages[1].RelURL)

	second, err := os.ReadFile(filepath.Join(out, "background-notes", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(second), "Some background.")

	// Both pages link to each other through the nav, relative to where the
	// reader is.
	first, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(first), `<a href="background-notes/">Background Notes</a>`)
	assert.Contains(t, string(second), `<a href="../">Guide</a>`)
	assert.Contains(t, string(second), `<a href="../background-notes/">Background Notes</a>`)
}

func TestBuild_CanonicalURL(t *testing.T) {
	srcDir := t.TempDir()
	page := writePage(t, srcDir, "index.md", "hi")

	cfg, out := testConfig(t, []config.Page{{Label: "Guide", Path: page}})
	cfg.Site.BaseURL = "https://example.github.io/guide" // no trailing slash on purpose

	_, err := NewGenerator(cfg, out).Build()
	require.NoError(t, err)

	html, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `<link rel="canonical" href="https://example.github.io/guide/">`)
}

func TestBuild_DerivedLabel(t *testing.T) {
	srcDir := t.TempDir()
	index := writePage(t, srcDir, "index.md", "x")
	notes := writePage(t, srcDir, "release-notes.md", "y")

	cfg, out := testConfig(t, []config.Page{
		{Label: "Guide", Path: index},
		{Path: notes}, // no label: derived from the file name
	})
	artifact, err := NewGenerator(cfg, out).Build()
	require.NoError(t, err)
	assert.Equal(t, "Release Notes", artifact.Pages[1].Label)
	assert.Equal(t, "release-notes/", artifact.Pages[1].RelURL)
}

func TestBuild_Deterministic(t *testing.T) {
	srcDir := t.TempDir()
	page := writePage(t, srcDir, "index.md", "# Title\nHello [link](https://example.com/)")

	cfg, out := testConfig(t, []config.Page{{Label: "Guide", Path: page}})

	_, err := NewGenerator(cfg, out).Build()
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)

	_, err = NewGenerator(cfg, out).Build()
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)

	assert.Equal(t, first, second, "rebuild with unchanged input must be byte-identical")
}

func TestBuild_CleanRemovesStaleFiles(t *testing.T) {
	srcDir := t.TempDir()
	page := writePage(t, srcDir, "index.md", "fresh")

	cfg, out := testConfig(t, []config.Page{{Label: "Guide", Path: page}})
	require.NoError(t, os.MkdirAll(out, 0o750))
	stale := filepath.Join(out, "stale.html")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	_, err := NewGenerator(cfg, out).Build()
	require.NoError(t, err)

	_, statErr := os.Stat(stale)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuild_AssetsCopied(t *testing.T) {
	srcDir := t.TempDir()
	page := writePage(t, srcDir, "index.md", "x")
	icon := writePage(t, srcDir, "icon.png", "\x89PNG")

	cfg, out := testConfig(t, []config.Page{{Label: "Guide", Path: page}})
	cfg.Site.Icon = icon

	_, err := NewGenerator(cfg, out).Build()
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "icon.png"))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data))

	html, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `<link rel="icon" href="icon.png">`)
}

func TestBuild_MissingPageSource(t *testing.T) {
	cfg, out := testConfig(t, []config.Page{{Label: "Guide", Path: filepath.Join(t.TempDir(), "absent.md")}})

	_, err := NewGenerator(cfg, out).Build()
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryRender))
}
