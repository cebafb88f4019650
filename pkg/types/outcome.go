// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Implements: docs/ARCHITECTURE § Pipeline Interface (outcome kinds and stages).

// Stage names a step of the conversion pipeline.
type Stage string

const (
	StageValidating       Stage = "validating"
	StageCompiling        Stage = "compiling"
	StageCreatingDocument Stage = "creating_document"
	StageUploading        Stage = "uploading"
	StageImporting        Stage = "importing"
	StageDone             Stage = "done"
)

// OutcomeKind tags the variant of a ConversionOutcome.
type OutcomeKind string

const (
	OutcomeSuccess        OutcomeKind = "success"
	OutcomePartialSuccess OutcomeKind = "partial_success"
	OutcomeFailure        OutcomeKind = "failure"
)

// ConversionOutcome is the single result of a pipeline run.
//
// Success and PartialSuccess carry the same document fields; PartialSuccess
// additionally names the step that failed after the document was created.
// Failure carries only Error.
type ConversionOutcome struct {
	Kind OutcomeKind `json:"kind" yaml:"kind"`

	DocID   string `json:"doc_id,omitempty" yaml:"doc_id,omitempty"`
	DocName string `json:"doc_name,omitempty" yaml:"doc_name,omitempty"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Error is the textual detail of a Failure, or of the step that
	// failed for a PartialSuccess.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// FailedStage is set only for PartialSuccess.
	FailedStage Stage `json:"failed_stage,omitempty" yaml:"failed_stage,omitempty"`

	// Err is the underlying error for programmatic inspection.
	Err error `json:"-" yaml:"-"`
}

// Succeeded reports whether a usable document exists, which holds for both
// Success and PartialSuccess.
func (o ConversionOutcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess || o.Kind == OutcomePartialSuccess
}
