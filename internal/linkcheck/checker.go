// Package linkcheck verifies outbound links in the rendered site.
//
// Only external links are fetched. A URL matching the configured exemption
// list is never contacted; any other unreachable URL fails the build with the
// offending URL in the error. Network reachability is the one accepted source
// of run-to-run variance in an otherwise deterministic pipeline.
package linkcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "git.home.luguber.info/inful/docpub/internal/errors"
	"git.home.luguber.info/inful/docpub/internal/logfields"
)

// BrokenLink records one failed verification.
type BrokenLink struct {
	URL    string `json:"url"`
	Source string `json:"source"` // HTML file the link was found in
	Status int    `json:"status,omitempty"`
	Error  string `json:"error"`
}

// Checker verifies external links with bounded concurrency.
type Checker struct {
	skip          []string
	httpClient    *http.Client
	maxConcurrent int

	mu      sync.Mutex
	checked map[string]error // Per-run result cache keyed by URL
}

// NewChecker creates a link checker. The skip list entries are matched as
// exact URLs or prefixes.
func NewChecker(skip []string, timeout time.Duration, maxConcurrent int) *Checker {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return &Checker{
		skip:          skip,
		maxConcurrent: maxConcurrent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		checked: make(map[string]error),
	}
}

// CheckFiles extracts and verifies the links of the given HTML files.
// It returns the list of broken links; a non-empty list is also expressed
// as the returned error so callers can fail fast.
func (c *Checker) CheckFiles(ctx context.Context, htmlFiles []string, baseURL string) ([]BrokenLink, error) {
	type task struct {
		url    string
		source string
	}

	var tasks []task
	seen := make(map[string]bool)
	for _, file := range htmlFiles {
		links, err := ExtractLinks(file, baseURL)
		if err != nil {
			return nil, err
		}
		for _, link := range links {
			if !ShouldVerifyLink(link) {
				continue
			}
			if c.isExempt(link.URL) {
				slog.Debug("Skipping exempted link", logfields.URL(link.URL))
				continue
			}
			if seen[link.URL] {
				continue
			}
			seen[link.URL] = true
			tasks = append(tasks, task{url: link.URL, source: file})
		}
	}

	slog.Info("Verifying external links", slog.Int("links", len(tasks)))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		broken []BrokenLink
		sem    = make(chan struct{}, c.maxConcurrent)
	)

	for _, tk := range tasks {
		select {
		case <-ctx.Done():
			wg.Wait()
			return broken, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(tk task) {
			defer wg.Done()
			defer func() { <-sem }()

			status, err := c.checkLink(ctx, tk.url)
			if err != nil {
				mu.Lock()
				broken = append(broken, BrokenLink{
					URL:    tk.url,
					Source: tk.source,
					Status: status,
					Error:  err.Error(),
				})
				mu.Unlock()
				slog.Warn("Broken link detected",
					logfields.URL(tk.url),
					logfields.Source(tk.source),
					slog.Int("status", status),
					logfields.Error(err))
			}
		}(tk)
	}

	wg.Wait()

	if len(broken) > 0 {
		sort.Slice(broken, func(i, j int) bool { return broken[i].URL < broken[j].URL })
		urls := make([]string, 0, len(broken))
		for _, b := range broken {
			urls = append(urls, b.URL)
		}
		return broken, apperrors.New(apperrors.CategoryLinkCheck, apperrors.SeverityFatal,
			fmt.Sprintf("broken links: %s", strings.Join(urls, ", "))).
			WithContext("count", len(broken))
	}

	return nil, nil
}

// isExempt reports whether url matches the exemption list (exact or prefix).
func (c *Checker) isExempt(url string) bool {
	for _, s := range c.skip {
		if s == "" {
			continue
		}
		if url == s || strings.HasPrefix(url, s) {
			return true
		}
	}
	return false
}

// checkLink verifies a single external link via an HTTP HEAD request.
func (c *Checker) checkLink(ctx context.Context, linkURL string) (int, error) {
	c.mu.Lock()
	if err, ok := c.checked[linkURL]; ok {
		c.mu.Unlock()
		return 0, err
	}
	c.mu.Unlock()

	status, err := c.doRequest(ctx, linkURL)

	c.mu.Lock()
	c.checked[linkURL] = err
	c.mu.Unlock()

	return status, err
}

func (c *Checker) doRequest(ctx context.Context, linkURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, linkURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "docpub-linkcheck/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	// Treat authentication/authorization responses as valid links: the URL
	// exists but requires credentials.
	if isAuthStatus(resp.StatusCode) {
		return resp.StatusCode, nil
	}

	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return resp.StatusCode, nil
}

func isAuthStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusMethodNotAllowed:
		return true
	}
	return false
}
