package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docpub/internal/config"
	"git.home.luguber.info/inful/docpub/internal/events"
	"git.home.luguber.info/inful/docpub/internal/history"
	"git.home.luguber.info/inful/docpub/internal/logfields"
)

// defaultHistoryPath is used when no history database is configured.
const defaultHistoryPath = ".docpub/history.db"

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docpub.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Prepare PrepareCmd `cmd:"" help:"Copy the source document into the site tree"`
	Build   BuildCmd   `cmd:"" help:"Prepare, render and link-check the documentation site"`
	Publish PublishCmd `cmd:"" help:"Build the site and push it to the publish branch"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild on changes and serve the site locally"`
	History HistoryCmd `cmd:"" help:"Show recent builds"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// newPublisher builds the event publisher from configuration. An unreachable
// broker downgrades to a no-op publisher so builds still run.
func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.Events == nil || !cfg.Events.Enabled {
		return events.NoopPublisher{}
	}
	pub, err := events.NewNATSPublisher(cfg.Events)
	if err != nil {
		slog.Warn("Event publishing disabled", logfields.Error(err))
		return events.NoopPublisher{}
	}
	return pub
}

// openHistory opens the build history store at the configured (or default) path.
func openHistory(cfg *config.Config) (*history.Store, error) {
	path := defaultHistoryPath
	if cfg.History != nil && cfg.History.Path != "" {
		path = cfg.History.Path
	}
	return history.NewStore(path)
}
