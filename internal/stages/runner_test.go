package stages

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpub/internal/config"
	apperrors "git.home.luguber.info/inful/docpub/internal/errors"
)

func testBuild(t *testing.T) *Build {
	t.Helper()
	cfg := &config.Config{}
	b := NewBuild(cfg, nil, nil)
	require.NotEmpty(t, b.ID)
	return b
}

func namedStage(name StageName, calls *[]StageName, err error) StageDef {
	return StageDef{Name: name, Fn: func(_ context.Context, _ *Build) error {
		*calls = append(*calls, name)
		return err
	}}
}

func TestRun_ExecutesStagesInOrder(t *testing.T) {
	b := testBuild(t)
	var calls []StageName

	err := Run(context.Background(), b, []StageDef{
		namedStage(StagePrepare, &calls, nil),
		namedStage(StageRender, &calls, nil),
		namedStage(StagePublish, &calls, nil),
	})
	require.NoError(t, err)

	assert.Equal(t, []StageName{StagePrepare, StageRender, StagePublish}, calls)
	assert.Equal(t, "success", b.Report.Outcome)
	assert.Equal(t, StageResultSuccess, b.Report.StageResults[StageRender])
	assert.Contains(t, b.Report.StageDurations, StagePrepare)
	assert.False(t, b.Report.End.IsZero())
}

func TestRun_FailFastSkipsRemainingStages(t *testing.T) {
	b := testBuild(t)
	var calls []StageName
	boom := apperrors.New(apperrors.CategoryRender, apperrors.SeverityFatal, "render failed")

	err := Run(context.Background(), b, []StageDef{
		namedStage(StagePrepare, &calls, nil),
		namedStage(StageRender, &calls, boom),
		namedStage(StagePublish, &calls, nil),
	})
	require.Error(t, err)
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []StageName{StagePrepare, StageRender}, calls)
	assert.Equal(t, "failed", b.Report.Outcome)
	assert.Equal(t, StageResultFatal, b.Report.StageResults[StageRender])
	assert.NotContains(t, b.Report.StageResults, StagePublish)
	assert.Equal(t, boom.Error(), b.Report.Err)
}

func TestRun_CanceledContextStopsPipeline(t *testing.T) {
	b := testBuild(t)
	var calls []StageName

	ctx, cancel := context.WithCancel(context.Background())
	err := Run(ctx, b, []StageDef{
		{Name: StagePrepare, Fn: func(_ context.Context, _ *Build) error {
			calls = append(calls, StagePrepare)
			cancel()
			return nil
		}},
		namedStage(StageRender, &calls, nil),
	})
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []StageName{StagePrepare}, calls)
	assert.Equal(t, "canceled", b.Report.Outcome)
	assert.Equal(t, StageResultCanceled, b.Report.StageResults[StageRender])
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryRuntime))
}

func TestRun_StageErrorDuringCancelIsCanceledResult(t *testing.T) {
	b := testBuild(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := Run(ctx, b, []StageDef{
		{Name: StageLinkCheck, Fn: func(ctx context.Context, _ *Build) error {
			cancel()
			return errors.New("interrupted mid-check")
		}},
	})
	require.Error(t, err)
	assert.Equal(t, StageResultCanceled, b.Report.StageResults[StageLinkCheck])
	assert.Equal(t, "canceled", b.Report.Outcome)
}

func TestPipeline_StageSelection(t *testing.T) {
	cfg := &config.Config{}
	cfg.LinkCheck.Enabled = true
	b := NewBuild(cfg, nil, nil)

	names := func(defs []StageDef) []StageName {
		out := make([]StageName, 0, len(defs))
		for _, d := range defs {
			out = append(out, d.Name)
		}
		return out
	}

	assert.Equal(t,
		[]StageName{StagePrepare, StageRender, StageLinkCheck, StagePublish},
		names(Pipeline{Publish: true}.Stages(b)))

	cfg.LinkCheck.Enabled = false
	assert.Equal(t,
		[]StageName{StagePrepare, StageRender},
		names(Pipeline{}.Stages(b)))
}
