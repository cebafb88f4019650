// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compiler turns OpenSCAD source into mesh bytes by running the
// OpenSCAD compiler, either from PATH or inside a container image.
//
// Each Compile call works in its own scratch directory, so concurrent calls
// never share files. The directory is removed when the call returns.
// Implements: docs/ARCHITECTURE § Compiler Backends.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/cad-bridge/internal/process"
	"github.com/pdiddy/cad-bridge/pkg/types"
)

const (
	// DefaultTimeout bounds one compiler run when none is configured.
	DefaultTimeout = 30 * time.Second

	sourceFile = "model.scad"
	meshBase   = "model"

	// Container images may run as a non-root or remapped user, which must
	// read the source and write the mesh in the mounted scratch directory.
	sharedDirPerm   = 0o777
	sharedFilePerm  = 0o644
	privateFilePerm = 0o600
)

// ErrTimeout is returned when the compiler exceeds its time bound. The
// process has been killed by the time Compile returns.
var ErrTimeout = errors.New("compiler timed out")

// CompileError reports a compiler run that finished unsuccessfully.
// Diagnostics is the compiler's stderr.
type CompileError struct {
	ExitCode    int
	Diagnostics string
}

func (e *CompileError) Error() string {
	if e.ExitCode == 0 {
		return fmt.Sprintf("OpenSCAD error: no mesh produced: %s", e.Diagnostics)
	}
	return fmt.Sprintf("OpenSCAD error (exit %d): %s", e.ExitCode, e.Diagnostics)
}

// Compiler turns model source into mesh bytes.
type Compiler interface {
	Compile(ctx context.Context, source string) ([]byte, error)
}

// invoker runs the compiler on files inside dir.
type invoker interface {
	// invoke compiles dir/in into dir/out, writing diagnostics to stderr.
	invoke(ctx context.Context, dir, in, out string, stderr *bytes.Buffer) error
	String() string
}

// OpenSCAD implements Compiler.
type OpenSCAD struct {
	inv     invoker
	timeout time.Duration
	tempDir string
	format  types.MeshFormat
	// shared opens the scratch directory to other users.
	shared bool
}

func newOpenSCAD(inv invoker, cfg types.CompilerConfig) *OpenSCAD {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	format := cfg.Format
	if format == "" {
		format = types.FormatSTL
	}
	return &OpenSCAD{inv: inv, timeout: timeout, tempDir: cfg.TempDir, format: format}
}

// Format returns the mesh format Compile produces.
func (o *OpenSCAD) Format() types.MeshFormat { return o.format }

// Compile writes source to a scratch file, runs the compiler with the
// configured timeout, and returns the mesh it produced.
//
// A non-zero exit yields *CompileError; exceeding the timeout yields
// ErrTimeout. The scratch directory is private to the current user unless
// the backend runs the compiler in a container. Scratch files are removed on every path and removal failures
// are ignored.
func (o *OpenSCAD) Compile(ctx context.Context, source string) ([]byte, error) {
	dir, err := os.MkdirTemp(o.tempDir, "cad-bridge-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	srcPath := filepath.Join(dir, sourceFile)
	if err := os.WriteFile(srcPath, []byte(source), privateFilePerm); err != nil {
		return nil, fmt.Errorf("writing source file: %w", err)
	}
	if o.shared {
		// Chmod is not subject to the umask.
		if err := os.Chmod(dir, sharedDirPerm); err != nil {
			return nil, fmt.Errorf("sharing scratch directory: %w", err)
		}
		if err := os.Chmod(srcPath, sharedFilePerm); err != nil {
			return nil, fmt.Errorf("sharing source file: %w", err)
		}
	}
	meshFile := meshBase + "." + o.format.Ext()

	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var stderr bytes.Buffer
	if runErr := o.inv.invoke(runCtx, dir, sourceFile, meshFile, &stderr); runErr != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("compiling: %w", ctx.Err())
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, o.timeout)
		}
		if code, ok := process.ExitCode(runErr); ok {
			return nil, &CompileError{ExitCode: code, Diagnostics: strings.TrimSpace(stderr.String())}
		}
		return nil, fmt.Errorf("running %s: %w", o.inv, runErr)
	}

	mesh, err := os.ReadFile(filepath.Join(dir, meshFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading mesh file: %w", err)
	}
	if len(mesh) == 0 {
		return nil, &CompileError{Diagnostics: strings.TrimSpace(stderr.String())}
	}
	return mesh, nil
}
