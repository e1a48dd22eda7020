package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	apperrors "git.home.luguber.info/inful/docpub/internal/errors"
)

// Validate checks the configuration for problems that would make a build
// fail in a confusing way later. It is called by Load after defaults.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Prepare.Source) == "" {
		problems = append(problems, "prepare.source must not be empty")
	}
	if strings.TrimSpace(c.Prepare.Dest) == "" {
		problems = append(problems, "prepare.dest must not be empty")
	}
	if c.Prepare.Source == c.Prepare.Dest {
		problems = append(problems, "prepare.source and prepare.dest must differ")
	}

	seen := make(map[string]bool, len(c.Site.Pages))
	for i, p := range c.Site.Pages {
		if strings.TrimSpace(p.Path) == "" {
			problems = append(problems, fmt.Sprintf("site.pages[%d]: path must not be empty", i))
		}
		if seen[p.Path] {
			problems = append(problems, fmt.Sprintf("site.pages[%d]: duplicate path %q", i, p.Path))
		}
		seen[p.Path] = true
	}

	if c.Site.BaseURL != "" {
		if u, err := url.Parse(c.Site.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("site.base_url %q is not an absolute URL", c.Site.BaseURL))
		}
	}

	if c.LinkCheck.Timeout != "" {
		if _, err := time.ParseDuration(c.LinkCheck.Timeout); err != nil {
			problems = append(problems, fmt.Sprintf("link_check.timeout %q is not a duration", c.LinkCheck.Timeout))
		}
	}

	if c.Publish != nil {
		if strings.TrimSpace(c.Publish.Repo) == "" {
			problems = append(problems, "publish.repo must not be empty")
		}
		if c.Publish.Auth != nil {
			switch c.Publish.Auth.Type {
			case "", AuthTypeNone, AuthTypeSSH, AuthTypeToken, AuthTypeBasic:
			default:
				problems = append(problems, fmt.Sprintf("publish.auth.type %q is not supported", c.Publish.Auth.Type))
			}
		}
	}

	if c.Events != nil && c.Events.Enabled && strings.TrimSpace(c.Events.NATSURL) == "" {
		problems = append(problems, "events.nats_url must be set when events are enabled")
	}

	if c.Watch != nil && c.Watch.Interval != "" {
		if _, err := time.ParseDuration(c.Watch.Interval); err != nil {
			problems = append(problems, fmt.Sprintf("watch.interval %q is not a duration", c.Watch.Interval))
		}
	}

	if len(problems) > 0 {
		return apperrors.New(apperrors.CategoryConfig, apperrors.SeverityFatal,
			"invalid configuration: "+strings.Join(problems, "; "))
	}
	return nil
}

// LinkCheckTimeout returns the parsed link check timeout.
func (c *Config) LinkCheckTimeout() time.Duration {
	d, err := time.ParseDuration(c.LinkCheck.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
