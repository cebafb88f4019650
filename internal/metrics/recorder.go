// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records pipeline observations. Components take a Recorder
// and default to NoopRecorder, so metrics are optional everywhere.
package metrics

import (
	"time"

	"github.com/pdiddy/cad-bridge/pkg/types"
)

// Recorder receives pipeline observations.
type Recorder interface {
	ObserveStageDuration(stage types.Stage, d time.Duration)
	IncStageFailure(stage types.Stage)
	IncOutcome(kind types.OutcomeKind)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(types.Stage, time.Duration) {}
func (NoopRecorder) IncStageFailure(types.Stage)                     {}
func (NoopRecorder) IncOutcome(types.OutcomeKind)                    {}
