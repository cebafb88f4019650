// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline converts model source into a hosted CAD document.
//
// A run moves forward through validating, compiling, creating_document,
// uploading and importing, with no retries. Creating the document is the
// commit point: failures before it yield a Failure outcome, failures after
// it yield a PartialSuccess that still points at the created document. The
// pipeline never deletes a document it created.
//
// Implements: docs/ARCHITECTURE § Pipeline Interface, § Conversion Pipeline.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/cad-bridge/internal/metrics"
	"github.com/pdiddy/cad-bridge/pkg/types"
)

const (
	defaultViewerURL  = "https://cad.onshape.com"
	defaultNamePrefix = "AI Model"

	// nameLayout is an ISO 8601 UTC timestamp with microseconds.
	nameLayout = "2006-01-02T15:04:05.000000"
)

// ErrValidation marks requests rejected before any work is done.
var ErrValidation = errors.New("invalid request")

// Compiler turns model source into mesh bytes.
type Compiler interface {
	Compile(ctx context.Context, source string) ([]byte, error)
}

// DocumentAPI is the remote document service.
type DocumentAPI interface {
	CreateDocument(ctx context.Context, name string, public bool) (types.RemoteDocument, error)
	UploadBlob(ctx context.Context, docID, workspaceID, fileName string, data []byte) (types.BlobReference, error)
	ImportBlob(ctx context.Context, docID, workspaceID, blobID string, format types.MeshFormat, newPartStudio bool) error
}

// Options configures a Pipeline. Zero values select defaults.
type Options struct {
	// ViewerURL is the browser root for document links.
	ViewerURL string
	// NamePrefix starts generated document names.
	NamePrefix string
	// Public marks created documents as public.
	Public bool
	// NewPartStudio imports into a new part studio.
	NewPartStudio bool
	// Format is the mesh format the compiler produces.
	Format types.MeshFormat
	// Now is the clock used for generated names (default time.Now).
	Now func() time.Time
	// Recorder receives stage and outcome metrics.
	Recorder metrics.Recorder
	// Log receives one progress line per step (default io.Discard).
	Log io.Writer
}

// Pipeline runs conversions. It is safe for concurrent use; runs share no
// state apart from the name generator.
type Pipeline struct {
	compiler Compiler
	docs     DocumentAPI
	opts     Options

	mu       sync.Mutex
	lastName time.Time
}

// New returns a Pipeline using the given collaborators.
func New(c Compiler, docs DocumentAPI, opts Options) *Pipeline {
	opts.ViewerURL = strings.TrimRight(opts.ViewerURL, "/")
	if opts.ViewerURL == "" {
		opts.ViewerURL = defaultViewerURL
	}
	if opts.NamePrefix == "" {
		opts.NamePrefix = defaultNamePrefix
	}
	if opts.Format == "" {
		opts.Format = types.FormatSTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Log == nil {
		opts.Log = io.Discard
	}
	return &Pipeline{compiler: c, docs: docs, opts: opts}
}

// CreateFromSource is the inbound entry point: it converts sourceCode into
// a document named documentName, or a generated name when that is empty.
func (p *Pipeline) CreateFromSource(ctx context.Context, sourceCode, documentName string) types.ConversionOutcome {
	return p.Run(ctx, types.ConversionRequest{SourceCode: sourceCode, DocumentName: documentName})
}

// DefaultName returns a document name embedding the current UTC time. Names
// from one Pipeline are strictly increasing, so calls within the same clock
// tick still differ.
func (p *Pipeline) DefaultName() string {
	now := p.opts.Now().UTC().Truncate(time.Microsecond)

	p.mu.Lock()
	if !now.After(p.lastName) {
		now = p.lastName.Add(time.Microsecond)
	}
	p.lastName = now
	p.mu.Unlock()

	return p.opts.NamePrefix + " " + now.Format(nameLayout)
}

// ViewerURL returns the browser link for docID.
func (p *Pipeline) ViewerURL(docID string) string {
	return p.opts.ViewerURL + "/documents/" + docID
}

// run holds the state of one conversion.
type run struct {
	stage types.Stage
	name  string
	// doc is set at the commit point.
	doc *types.RemoteDocument
}

// Run executes req and always returns exactly one outcome. Errors, and
// panics raised by collaborators, are folded into the outcome.
func (p *Pipeline) Run(ctx context.Context, req types.ConversionRequest) (out types.ConversionOutcome) {
	r := &run{stage: types.StageValidating, name: strings.TrimSpace(req.DocumentName)}

	defer func() {
		if v := recover(); v != nil {
			out = p.settle(r, fmt.Errorf("panic during %s: %v", r.stage, v))
		}
		p.opts.Recorder.IncOutcome(out.Kind)
	}()

	if req.IsBlank() {
		return p.settle(r, fmt.Errorf("%w: openscad_code is required", ErrValidation))
	}
	if r.name == "" {
		r.name = p.DefaultName()
	}

	var mesh []byte
	err := p.step(r, types.StageCompiling, func() error {
		var err error
		mesh, err = p.compiler.Compile(ctx, req.SourceCode)
		return err
	})
	if err != nil {
		return p.settle(r, err)
	}
	fmt.Fprintf(p.opts.Log, "compiled: %d bytes of %s\n", len(mesh), p.opts.Format)

	err = p.step(r, types.StageCreatingDocument, func() error {
		doc, err := p.docs.CreateDocument(ctx, r.name, p.opts.Public)
		if err == nil {
			r.doc = &doc
		}
		return err
	})
	if err != nil {
		return p.settle(r, err)
	}
	fmt.Fprintf(p.opts.Log, "created: document %s (%s)\n", r.doc.ID, r.name)

	var blob types.BlobReference
	err = p.step(r, types.StageUploading, func() error {
		var err error
		blob, err = p.docs.UploadBlob(ctx, r.doc.ID, r.doc.DefaultWorkspaceID, p.fileName(), mesh)
		return err
	})
	if err != nil {
		return p.settle(r, err)
	}
	fmt.Fprintf(p.opts.Log, "uploaded: blob %s\n", blob.ID)

	err = p.step(r, types.StageImporting, func() error {
		return p.docs.ImportBlob(ctx, r.doc.ID, r.doc.DefaultWorkspaceID, blob.ID, p.opts.Format, p.opts.NewPartStudio)
	})
	if err != nil {
		return p.settle(r, err)
	}
	fmt.Fprintf(p.opts.Log, "imported: blob %s into document %s\n", blob.ID, r.doc.ID)

	r.stage = types.StageDone
	return p.settle(r, nil)
}

// step enters stage, runs fn and records its duration and any failure.
func (p *Pipeline) step(r *run, stage types.Stage, fn func() error) error {
	r.stage = stage
	start := time.Now()
	err := fn()
	p.opts.Recorder.ObserveStageDuration(stage, time.Since(start))
	if err != nil {
		p.opts.Recorder.IncStageFailure(stage)
	}
	return err
}

// settle turns the run state and a terminal error into an outcome.
func (p *Pipeline) settle(r *run, err error) types.ConversionOutcome {
	if r.doc == nil {
		fmt.Fprintf(p.opts.Log, "failed:  %s (%v)\n", r.stage, err)
		return types.ConversionOutcome{
			Kind:  types.OutcomeFailure,
			Error: err.Error(),
			Err:   err,
		}
	}

	out := types.ConversionOutcome{
		Kind:    types.OutcomeSuccess,
		DocID:   r.doc.ID,
		DocName: r.name,
		URL:     p.ViewerURL(r.doc.ID),
	}
	out.Message = confirmation(out)
	if err != nil {
		fmt.Fprintf(p.opts.Log, "partial: %s failed after document %s was created (%v)\n", r.stage, r.doc.ID, err)
		out.Kind = types.OutcomePartialSuccess
		out.FailedStage = r.stage
		out.Error = err.Error()
		out.Err = err
	}
	return out
}

func (p *Pipeline) fileName() string {
	return "model." + p.opts.Format.Ext()
}

func confirmation(o types.ConversionOutcome) string {
	return fmt.Sprintf("Successfully created 3D model in Onshape!\n\nDocument: %s\nID: %s\n\nView your model: %s",
		o.DocName, o.DocID, o.URL)
}
