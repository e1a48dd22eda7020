package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docpub/internal/config"
	apperrors "git.home.luguber.info/inful/docpub/internal/errors"
	"git.home.luguber.info/inful/docpub/internal/stages"
)

// PublishCmd implements the 'publish' command: a full build followed by a
// push of the rendered site to the configured repository branch.
type PublishCmd struct {
	SkipLinkCheck bool `name:"skip-link-check" help:"Skip external link verification"`
}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Publish == nil {
		return apperrors.New(apperrors.CategoryConfig, apperrors.SeverityFatal,
			"no publish target configured; add a publish section to "+root.Config)
	}
	if p.SkipLinkCheck {
		cfg.LinkCheck.Enabled = false
	}

	fmt.Println("Starting docpub publish")
	if err := runPipeline(cfg, stages.Pipeline{Publish: true}); err != nil {
		return err
	}
	fmt.Printf("Published to %s (branch %s)\n", cfg.Publish.Repo, cfg.Publish.Branch)
	return nil
}
