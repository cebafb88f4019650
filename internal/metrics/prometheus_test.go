// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cad-bridge/pkg/types"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveStageDuration(types.StageCompiling, 150*time.Millisecond)
	pr.IncStageFailure(types.StageUploading)
	pr.IncStageFailure(types.StageUploading)
	pr.IncOutcome(types.OutcomePartialSuccess)

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.stageFailures.WithLabelValues("uploading")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.outcomes.WithLabelValues("partial_success")))
	assert.Equal(t, 1, testutil.CollectAndCount(pr.stageDuration))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 3)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStageDuration(types.StageCompiling, time.Second)
	pr.IncStageFailure(types.StageCompiling)
	pr.IncOutcome(types.OutcomeFailure)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncOutcome(types.OutcomeSuccess)

	ts := httptest.NewServer(HTTPHandler(reg))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `cad_bridge_conversion_outcomes_total{kind="success"} 1`)
}

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)
