package stages

import (
	"context"
	"log/slog"
	"time"

	apperrors "git.home.luguber.info/inful/docpub/internal/errors"
	"git.home.luguber.info/inful/docpub/internal/logfields"
)

// Run executes stages in order, recording timing and stopping on the first
// fatal error. The build outcome and finished event are emitted regardless
// of how the pipeline ends.
func Run(ctx context.Context, b *Build, stages []StageDef) error {
	if err := b.Events.BuildStarted(b.ID); err != nil {
		slog.Warn("Failed to publish build started event", logfields.Error(err))
	}

	err := runStages(ctx, b, stages)

	outcome := "success"
	switch {
	case err != nil && ctx.Err() != nil:
		outcome = "canceled"
	case err != nil:
		outcome = "failed"
	}
	b.Report.finish(outcome, err)
	b.Recorder.ObserveBuildDuration(b.Report.Duration())
	b.Recorder.IncBuildOutcome(outcome)

	if pubErr := b.Events.BuildFinished(b.ID, outcome, b.Report.Duration(), err); pubErr != nil {
		slog.Warn("Failed to publish build finished event", logfields.Error(pubErr))
	}

	return err
}

func runStages(ctx context.Context, b *Build, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			b.Report.recordStageResult(st.Name, StageResultCanceled, b.Recorder)
			return apperrors.Wrap(ctx.Err(), apperrors.CategoryRuntime, apperrors.SeverityError,
				"build canceled before stage "+string(st.Name))
		default:
		}

		slog.Debug("Stage starting", logfields.BuildID(b.ID), logfields.Stage(string(st.Name)))

		t0 := time.Now()
		err := st.Fn(ctx, b)
		dur := time.Since(t0)

		b.Report.StageDurations[st.Name] = dur
		b.Recorder.ObserveStageDuration(string(st.Name), dur)

		if err != nil {
			res := StageResultFatal
			if ctx.Err() != nil {
				res = StageResultCanceled
			}
			b.Report.recordStageResult(st.Name, res, b.Recorder)
			slog.Error("Stage failed",
				logfields.BuildID(b.ID),
				logfields.Stage(string(st.Name)),
				logfields.DurationMS(dur),
				logfields.Error(err))
			return err
		}

		b.Report.recordStageResult(st.Name, StageResultSuccess, b.Recorder)
		slog.Info("Stage complete",
			logfields.BuildID(b.ID),
			logfields.Stage(string(st.Name)),
			logfields.DurationMS(dur))
	}
	return nil
}
