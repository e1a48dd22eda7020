// Package watch implements the docpub watch mode: rebuild the site when the
// source document or configuration changes, serve the output over HTTP, and
// optionally rebuild on a fixed schedule.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docpub/internal/config"
	"git.home.luguber.info/inful/docpub/internal/events"
	"git.home.luguber.info/inful/docpub/internal/history"
	"git.home.luguber.info/inful/docpub/internal/logfields"
	"git.home.luguber.info/inful/docpub/internal/metrics"
	"git.home.luguber.info/inful/docpub/internal/stages"
)

// debounceTime collapses rapid file change bursts into a single rebuild.
const debounceTime = 500 * time.Millisecond

// Options configures a watch server.
type Options struct {
	ConfigPath string
	Config     *config.Config
	Recorder   *metrics.PrometheusRecorder
	Events     events.Publisher
	History    *history.Store
}

// Server watches for changes and serves the rendered site.
type Server struct {
	opts        Options
	cfg         *config.Config
	watcher     *fsnotify.Watcher
	rebuildChan chan struct{}
}

// New creates a watch server. The caller owns the history store and events
// publisher lifecycles.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("watch requires a loaded configuration")
	}
	if opts.Events == nil {
		opts.Events = events.NoopPublisher{}
	}
	if opts.Config.Watch == nil {
		opts.Config.Watch = &config.WatchConfig{Addr: "127.0.0.1:8080"}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Server{
		opts:        opts,
		cfg:         opts.Config,
		watcher:     watcher,
		rebuildChan: make(chan struct{}, 1),
	}, nil
}

// Run blocks until ctx is canceled, rebuilding on changes and serving the
// output directory over HTTP.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		_ = s.watcher.Close()
	}()

	// Watch the directories holding the source document and the config file;
	// watching directories survives editors that replace files on save.
	watchDirs := map[string]bool{}
	for _, p := range s.watchedFiles() {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve watch path %s: %w", p, err)
		}
		watchDirs[filepath.Dir(abs)] = true
	}
	for dir := range watchDirs {
		if err := s.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		slog.Debug("Watching directory", logfields.Path(dir))
	}

	scheduler, err := s.startScheduler()
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() {
			_ = scheduler.Shutdown()
		}()
	}

	httpErr := make(chan error, 1)
	server := s.startHTTP(httpErr)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	// Initial build so the server has something to serve.
	s.rebuild(ctx)

	go s.watchLoop(ctx)

	timer := time.NewTimer(debounceTime)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			slog.Info("Watch mode stopping")
			return nil
		case err := <-httpErr:
			return fmt.Errorf("http server failed: %w", err)
		case <-s.rebuildChan:
			if pending {
				continue
			}
			pending = true
			timer.Reset(debounceTime)
		case <-timer.C:
			pending = false
			s.rebuild(ctx)
		}
	}
}

// watchedFiles lists the files whose changes trigger a rebuild.
func (s *Server) watchedFiles() []string {
	files := []string{s.cfg.Prepare.Source}
	if s.opts.ConfigPath != "" {
		files = append(files, s.opts.ConfigPath)
	}
	return files
}

func (s *Server) watchLoop(ctx context.Context) {
	names := map[string]bool{}
	for _, p := range s.watchedFiles() {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		names[abs] = true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !names[abs] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("Change detected", logfields.Path(event.Name))
			s.trigger()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

// trigger requests a rebuild without blocking the watch loop.
func (s *Server) trigger() {
	select {
	case s.rebuildChan <- struct{}{}:
	default:
	}
}

// startScheduler sets up the optional interval rebuild.
func (s *Server) startScheduler() (gocron.Scheduler, error) {
	if s.cfg.Watch == nil || s.cfg.Watch.Interval == "" {
		return nil, nil
	}
	interval, err := time.ParseDuration(s.cfg.Watch.Interval)
	if err != nil {
		return nil, fmt.Errorf("invalid watch interval: %w", err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.trigger),
		gocron.WithName("interval-rebuild"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule interval rebuild: %w", err)
	}
	scheduler.Start()
	slog.Info("Scheduled interval rebuilds", slog.String("interval", interval.String()))
	return scheduler, nil
}

func (s *Server) startHTTP(errChan chan<- error) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.Output.Directory)))
	if s.opts.Recorder != nil {
		mux.Handle("/metrics", s.opts.Recorder.Handler())
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              s.cfg.Watch.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("Serving site", logfields.URL("http://"+s.cfg.Watch.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	return server
}

// rebuild reloads configuration and runs the build pipeline. Watch mode never
// publishes; failures are logged and the previous output keeps serving.
func (s *Server) rebuild(ctx context.Context) {
	if s.opts.ConfigPath != "" {
		cfg, err := config.Load(s.opts.ConfigPath)
		if err != nil {
			slog.Error("Config reload failed, keeping previous configuration", logfields.Error(err))
		} else {
			s.cfg = cfg
		}
	}

	build := stages.NewBuild(s.cfg, s.opts.Recorder, s.opts.Events)
	err := stages.Run(ctx, build, stages.Pipeline{}.Stages(build))
	if err != nil {
		slog.Error("Rebuild failed", logfields.BuildID(build.ID), logfields.Error(err))
	} else {
		slog.Info("Rebuild complete",
			logfields.BuildID(build.ID),
			slog.Int("pages", build.Report.Pages),
			logfields.DurationMS(build.Report.Duration()))
	}

	if s.opts.History != nil {
		if err := s.opts.History.Record(ctx, build.Report); err != nil {
			slog.Warn("Failed to record build history", logfields.Error(err))
		}
	}
}
