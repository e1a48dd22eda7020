package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorder_IsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("prepare", time.Second)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("render", ResultSuccess)
	r.IncBuildOutcome("success")
	r.IncLinkChecked(true)
}

func TestPrometheusRecorder_NilReceiverIsSafe(t *testing.T) {
	var r *PrometheusRecorder
	r.ObserveStageDuration("prepare", time.Second)
	r.IncBuildOutcome("failed")
	r.IncLinkChecked(false)
}

func TestPrometheusRecorder_Registers(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.ObserveStageDuration("prepare", 50*time.Millisecond)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("prepare", ResultSuccess)
	r.IncBuildOutcome("success")
	r.IncLinkChecked(true)
	r.IncLinkChecked(false)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["docpub_stage_duration_seconds"])
	assert.True(t, names["docpub_build_duration_seconds"])
	assert.True(t, names["docpub_stage_results_total"])
	assert.True(t, names["docpub_build_outcomes_total"])
	assert.True(t, names["docpub_links_checked_total"])
}
