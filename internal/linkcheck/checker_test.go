package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "git.home.luguber.info/inful/docpub/internal/errors"
)

func writeHTML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.html")
	page := fmt.Sprintf("<html><body>%s</body></html>", body)
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))
	return path
}

func TestExtractLinks(t *testing.T) {
	path := writeHTML(t, `
<a href="https://external.example/page">ext</a>
<a href="./local/">local</a>
<a href="#anchor">anchor</a>
<a href="mailto:x@example.com">mail</a>
<img src="icon.png">
<link href="style.css">
<script src="https://cdn.example/app.js"></script>
`)
	links, err := ExtractLinks(path, "https://site.example/")
	require.NoError(t, err)

	var external []string
	for _, l := range links {
		if ShouldVerifyLink(l) {
			external = append(external, l.URL)
		}
	}
	assert.ElementsMatch(t, []string{
		"https://external.example/page",
		"https://cdn.example/app.js",
	}, external)
}

func TestExtractLinks_SameHostIsInternal(t *testing.T) {
	path := writeHTML(t, `<a href="https://site.example/other/">other</a>`)
	links, err := ExtractLinks(path, "https://site.example/")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, links[0].IsInternal)
}

func TestCheckFiles_AllReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := writeHTML(t, fmt.Sprintf(`<a href="%s/ok">ok</a>`, srv.URL))

	c := NewChecker(nil, 2*time.Second, 4)
	broken, err := c.CheckFiles(context.Background(), []string{path}, "https://site.example/")
	require.NoError(t, err)
	assert.Empty(t, broken)
}

func TestCheckFiles_BrokenLinkNamesURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	badURL := srv.URL + "/missing"
	path := writeHTML(t, fmt.Sprintf(`<a href="%s">dead</a>`, badURL))

	c := NewChecker(nil, 2*time.Second, 4)
	broken, err := c.CheckFiles(context.Background(), []string{path}, "https://site.example/")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryLinkCheck))
	assert.Contains(t, err.Error(), badURL, "error must name the offending URL")

	require.Len(t, broken, 1)
	assert.Equal(t, badURL, broken[0].URL)
	assert.Equal(t, http.StatusNotFound, broken[0].Status)
}

func TestCheckFiles_ExemptionRespected(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	badURL := srv.URL + "/missing"
	path := writeHTML(t, fmt.Sprintf(`<a href="%s">dead</a>`, badURL))

	// With the URL on the exemption list, the build completes clean and the
	// server is never contacted.
	c := NewChecker([]string{badURL}, 2*time.Second, 4)
	broken, err := c.CheckFiles(context.Background(), []string{path}, "https://site.example/")
	require.NoError(t, err)
	assert.Empty(t, broken)
	assert.Zero(t, hits, "exempt URL must not be fetched")

	// Removing the exemption makes the same build fail on the same URL.
	c = NewChecker(nil, 2*time.Second, 4)
	_, err = c.CheckFiles(context.Background(), []string{path}, "https://site.example/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), badURL)
}

func TestCheckFiles_ExemptionPrefixMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	path := writeHTML(t, fmt.Sprintf(`<a href="%s/a">a</a><a href="%s/b">b</a>`, srv.URL, srv.URL))

	c := NewChecker([]string{srv.URL}, 2*time.Second, 4)
	broken, err := c.CheckFiles(context.Background(), []string{path}, "https://site.example/")
	require.NoError(t, err)
	assert.Empty(t, broken)
}

func TestCheckFiles_AuthStatusIsValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	path := writeHTML(t, fmt.Sprintf(`<a href="%s/private">p</a>`, srv.URL))

	c := NewChecker(nil, 2*time.Second, 4)
	broken, err := c.CheckFiles(context.Background(), []string{path}, "https://site.example/")
	require.NoError(t, err)
	assert.Empty(t, broken)
}

func TestCheckFiles_DeduplicatesURLs(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	link := fmt.Sprintf(`<a href="%s/same">x</a>`, srv.URL)
	path := writeHTML(t, strings.Repeat(link, 5))

	c := NewChecker(nil, 2*time.Second, 4)
	_, err := c.CheckFiles(context.Background(), []string{path}, "https://site.example/")
	require.NoError(t, err)
	assert.Equal(t, 1, hits, "duplicate URLs must be checked once")
}
