package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docpub/internal/config"
	"git.home.luguber.info/inful/docpub/internal/logfields"
	"git.home.luguber.info/inful/docpub/internal/stages"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output        string `short:"o" help:"Override the configured output directory"`
	SkipLinkCheck bool   `name:"skip-link-check" help:"Skip external link verification"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.SkipLinkCheck {
		cfg.LinkCheck.Enabled = false
	}

	fmt.Println("Starting docpub build")
	return runPipeline(cfg, stages.Pipeline{})
}

// runPipeline executes a build pipeline with event publishing and history
// recording wired in. Shared by the build and publish commands.
func runPipeline(cfg *config.Config, pipeline stages.Pipeline) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	publisher := newPublisher(cfg)
	defer func() {
		_ = publisher.Close()
	}()

	store, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	build := stages.NewBuild(cfg, nil, publisher)
	runErr := stages.Run(ctx, build, pipeline.Stages(build))

	if err := store.Record(ctx, build.Report); err != nil {
		slog.Warn("Failed to record build history", logfields.Error(err))
	}

	if runErr != nil {
		return runErr
	}

	fmt.Printf("Build %s complete: %d pages in %s\n",
		build.ID, build.Report.Pages, build.Report.Duration().Round(time.Millisecond))
	return nil
}
