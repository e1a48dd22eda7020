package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docpub/internal/config"
	"git.home.luguber.info/inful/docpub/internal/prepare"
)

// PrepareCmd implements the 'prepare' command.
type PrepareCmd struct {
	Source  string `short:"s" help:"Override the configured source document"`
	Dest    string `short:"d" help:"Override the configured destination path"`
	EditURL string `name:"edit-url" help:"Override the configured edit URL"`
}

func (p *PrepareCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if p.Source != "" {
		cfg.Prepare.Source = p.Source
	}
	if p.Dest != "" {
		cfg.Prepare.Dest = p.Dest
	}
	if p.EditURL != "" {
		cfg.Prepare.EditURL = p.EditURL
	}

	header := prepare.Header(cfg.Prepare.EditURL)
	if err := prepare.Run(cfg.Prepare.Source, cfg.Prepare.Dest, header); err != nil {
		return err
	}

	fmt.Printf("Prepared %s -> %s\n", cfg.Prepare.Source, cfg.Prepare.Dest)
	return nil
}
