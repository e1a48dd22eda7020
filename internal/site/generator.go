package site

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docpub/internal/config"
	apperrors "git.home.luguber.info/inful/docpub/internal/errors"
	"git.home.luguber.info/inful/docpub/internal/logfields"
)

// Generator renders the configured pages into the output directory.
type Generator struct {
	cfg       *config.Config
	outputDir string
	md        goldmark.Markdown
	layout    *template.Template
	titler    cases.Caser
}

// Artifact describes a generated site: its directory and the rendered pages.
type Artifact struct {
	Dir   string
	Pages []RenderedPage
}

// RenderedPage maps a configured page to its rendered HTML file.
type RenderedPage struct {
	Label      string
	SourcePath string
	OutputPath string // Absolute path of the rendered HTML file
	RelURL     string // Site-relative URL ("" for the index page)
}

// NewGenerator creates a site generator for the given configuration.
func NewGenerator(cfg *config.Config, outputDir string) *Generator {
	return &Generator{
		cfg:       cfg,
		outputDir: outputDir,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
		),
		layout: template.Must(template.New("layout").Parse(layoutTemplate)),
		titler: cases.Title(language.English),
	}
}

// Build renders all configured pages and copies static assets.
func (g *Generator) Build() (*Artifact, error) {
	if g.cfg.Output.Clean {
		if err := os.RemoveAll(g.outputDir); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CategoryFileSystem, apperrors.SeverityFatal,
				"failed to clean output directory")
		}
	}
	if err := os.MkdirAll(g.outputDir, 0o750); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryFileSystem, apperrors.SeverityFatal,
			"failed to create output directory")
	}

	artifact := &Artifact{Dir: g.outputDir}
	for i, page := range g.cfg.Site.Pages {
		rendered, err := g.renderPage(page, i)
		if err != nil {
			return nil, err
		}
		artifact.Pages = append(artifact.Pages, *rendered)
	}

	if err := g.copyAssets(); err != nil {
		return nil, err
	}

	slog.Info("Site generated",
		logfields.Path(g.outputDir),
		slog.Int("pages", len(artifact.Pages)))

	return artifact, nil
}

// navItem is the per-page entry passed to the layout template.
type navItem struct {
	Label string
	URL   string
}

// navFor builds the navigation as seen from the page at fromIndex. Sub-pages
// live one directory below the site root, so their links carry a ../ prefix.
func (g *Generator) navFor(fromIndex int) []navItem {
	prefix := ""
	if fromIndex > 0 {
		prefix = "../"
	}
	nav := make([]navItem, 0, len(g.cfg.Site.Pages))
	for i, page := range g.cfg.Site.Pages {
		url := prefix
		if i > 0 {
			url = prefix + g.pageSlug(page, i) + "/"
		}
		if url == "" {
			url = "./"
		}
		nav = append(nav, navItem{Label: g.pageLabel(page), URL: url})
	}
	return nav
}

func (g *Generator) renderPage(page config.Page, index int) (*RenderedPage, error) {
	src, err := os.ReadFile(page.Path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryRender, apperrors.SeverityFatal,
			fmt.Sprintf("failed to read page source: %s", page.Path)).
			WithContext("page", page.Path)
	}

	var body bytes.Buffer
	if err := g.md.Convert(src, &body); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryRender, apperrors.SeverityFatal,
			fmt.Sprintf("failed to render markdown: %s", page.Path)).
			WithContext("page", page.Path)
	}

	relURL := ""
	outPath := filepath.Join(g.outputDir, "index.html")
	if index > 0 {
		slug := g.pageSlug(page, index)
		relURL = slug + "/"
		outPath = filepath.Join(g.outputDir, slug, "index.html")
	}

	data := struct {
		Site      config.SiteConfig
		Title     string
		Content   template.HTML
		Nav       []navItem
		Canonical string
		IconHref  string
	}{
		Site:      g.cfg.Site,
		Title:     g.pageLabel(page),
		Content:   template.HTML(body.String()),
		Nav:       g.navFor(index),
		Canonical: g.canonicalURL(relURL),
		IconHref:  g.iconHref(index),
	}

	var out bytes.Buffer
	if err := g.layout.Execute(&out, data); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryRender, apperrors.SeverityFatal,
			fmt.Sprintf("failed to execute layout for %s", page.Path))
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryFileSystem, apperrors.SeverityFatal,
			"failed to create page directory")
	}
	if err := os.WriteFile(outPath, out.Bytes(), 0o644); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryFileSystem, apperrors.SeverityFatal,
			fmt.Sprintf("failed to write rendered page: %s", outPath))
	}

	slog.Debug("Rendered page", logfields.Page(page.Path), logfields.Path(outPath))

	return &RenderedPage{
		Label:      g.pageLabel(page),
		SourcePath: page.Path,
		OutputPath: outPath,
		RelURL:     relURL,
	}, nil
}

// pageLabel returns the configured label, or a title-cased derivation of the
// source file name when the label is empty.
func (g *Generator) pageLabel(page config.Page) string {
	if page.Label != "" {
		return page.Label
	}
	stem := strings.TrimSuffix(filepath.Base(page.Path), filepath.Ext(page.Path))
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return g.titler.String(stem)
}

// pageSlug returns the URL path segment for a non-index page.
func (g *Generator) pageSlug(page config.Page, index int) string {
	label := g.pageLabel(page)
	slug := strings.ToLower(label)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = fmt.Sprintf("page-%d", index)
	}
	return slug
}

func (g *Generator) canonicalURL(relURL string) string {
	base := g.cfg.Site.BaseURL
	if base == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + relURL
}

// iconHref returns the icon link relative to the page, or "" when unset.
func (g *Generator) iconHref(pageIndex int) string {
	if g.cfg.Site.Icon == "" {
		return ""
	}
	name := filepath.Base(g.cfg.Site.Icon)
	if pageIndex > 0 {
		return "../" + name
	}
	return name
}

// copyAssets copies the icon and any configured asset files into the site root.
func (g *Generator) copyAssets() error {
	assets := g.cfg.Site.Assets
	if g.cfg.Site.Icon != "" {
		assets = append([]string{g.cfg.Site.Icon}, assets...)
	}

	seen := make(map[string]bool, len(assets))
	for _, asset := range assets {
		if asset == "" || seen[asset] {
			continue
		}
		seen[asset] = true

		dst := filepath.Join(g.outputDir, filepath.Base(asset))
		if err := copyFile(asset, dst); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryFileSystem, apperrors.SeverityFatal,
				fmt.Sprintf("failed to copy asset: %s", asset))
		}
		slog.Debug("Copied asset", logfields.Source(asset), logfields.Dest(dst))
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	_, err = io.Copy(out, in)
	return err
}
