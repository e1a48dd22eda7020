package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docpub/internal/config"
	"git.home.luguber.info/inful/docpub/internal/metrics"
	"git.home.luguber.info/inful/docpub/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Addr     string `short:"a" help:"Override the listen address for the local server"`
	Interval string `short:"i" help:"Also rebuild on a fixed interval (e.g. 5m)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Watch == nil {
		cfg.Watch = &config.WatchConfig{Addr: "127.0.0.1:8080"}
	}
	if w.Addr != "" {
		cfg.Watch.Addr = w.Addr
	}
	if w.Interval != "" {
		cfg.Watch.Interval = w.Interval
	}

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

	server, err := watch.New(watch.Options{
		ConfigPath: root.Config,
		Config:     cfg,
		Recorder:   metrics.NewPrometheusRecorder(nil),
		Events:     publisher,
		History:    store,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Watching for changes, serving http://%s (Ctrl-C to stop)\n", cfg.Watch.Addr)
	return server.Run(ctx)
}
