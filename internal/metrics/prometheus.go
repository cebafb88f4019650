// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/cad-bridge/pkg/types"
)

const namespace = "cad_bridge"

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	stageFailures *prom.CounterVec
	outcomes      *prom.CounterVec
}

// NewPrometheusRecorder creates the collectors and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		stageFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Pipeline stage failures by stage",
		}, []string{"stage"}),
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "conversion_outcomes_total",
			Help:      "Conversion outcomes by kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageFailures, pr.outcomes)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage types.Stage, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageFailure(stage types.Stage) {
	if p == nil {
		return
	}
	p.stageFailures.WithLabelValues(string(stage)).Inc()
}

func (p *PrometheusRecorder) IncOutcome(kind types.OutcomeKind) {
	if p == nil {
		return
	}
	p.outcomes.WithLabelValues(string(kind)).Inc()
}

// HTTPHandler serves the metrics gathered by reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
