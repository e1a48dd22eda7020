// Package stages defines the docpub build pipeline: a fixed sequence of
// stages executed fail-fast, with per-stage timing and metrics.
package stages

import (
	"context"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docpub/internal/config"
	"git.home.luguber.info/inful/docpub/internal/events"
	"git.home.luguber.info/inful/docpub/internal/linkcheck"
	"git.home.luguber.info/inful/docpub/internal/metrics"
	"git.home.luguber.info/inful/docpub/internal/site"
)

// Stage is a discrete unit of work in the doc build.
type Stage func(ctx context.Context, b *Build) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in pipeline order.
const (
	StagePrepare   StageName = "prepare"
	StageRender    StageName = "render"
	StageLinkCheck StageName = "linkcheck"
	StagePublish   StageName = "publish"
)

// StageDef pairs a stage name with its implementation.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// Build is the mutable state threaded through the pipeline. Stages
// communicate through it: render publishes the artifact that linkcheck
// and publish consume.
type Build struct {
	ID       string
	Config   *config.Config
	Recorder metrics.Recorder
	Events   events.Publisher
	Report   *Report

	// Artifact is set by the render stage.
	Artifact *site.Artifact
}

// NewBuild initializes build state with a fresh build ID and empty report.
func NewBuild(cfg *config.Config, recorder metrics.Recorder, publisher events.Publisher) *Build {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	id := uuid.New().String()
	return &Build{
		ID:       id,
		Config:   cfg,
		Recorder: recorder,
		Events:   publisher,
		Report:   newReport(id),
	}
}

// Report accumulates timing and outcome information for a single build.
type Report struct {
	BuildID        string                      `json:"build_id"`
	Started        time.Time                   `json:"started"`
	End            time.Time                   `json:"end"`
	StageDurations map[StageName]time.Duration `json:"stage_durations"`
	StageResults   map[StageName]StageResult   `json:"stage_results"`
	Pages          int                         `json:"pages"`
	BrokenLinks    []linkcheck.BrokenLink      `json:"broken_links,omitempty"`
	Outcome        string                      `json:"outcome"`
	Err            string                      `json:"error,omitempty"`
}

func newReport(buildID string) *Report {
	return &Report{
		BuildID:        buildID,
		Started:        time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageResults:   make(map[StageName]StageResult),
	}
}

// Duration is the wall-clock time of the whole build.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Started)
	}
	return r.End.Sub(r.Started)
}

// recordStageResult updates counters and emits metrics.
func (r *Report) recordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	r.StageResults[stage] = res
	switch res {
	case StageResultSuccess:
		recorder.IncStageResult(string(stage), metrics.ResultSuccess)
	case StageResultFatal:
		recorder.IncStageResult(string(stage), metrics.ResultFatal)
	case StageResultCanceled:
		recorder.IncStageResult(string(stage), metrics.ResultCanceled)
	}
}

func (r *Report) finish(outcome string, err error) {
	r.End = time.Now()
	r.Outcome = outcome
	if err != nil {
		r.Err = err.Error()
	}
}
