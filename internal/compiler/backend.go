// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compiler

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/pdiddy/cad-bridge/internal/container"
	"github.com/pdiddy/cad-bridge/internal/process"
	"github.com/pdiddy/cad-bridge/pkg/types"
)

const (
	defaultBinary = "openscad"
	defaultImage  = "openscad/openscad:latest"

	// containerWorkDir is where the scratch directory is mounted.
	containerWorkDir = "/work"
)

// New builds the Compiler selected by cfg.Backend and verifies that its
// binary or image is available.
func New(ctx context.Context, cfg types.CompilerConfig) (*OpenSCAD, error) {
	switch cfg.Backend {
	case types.BackendNative, "":
		return NewNative(cfg, process.OS{})
	case types.BackendContainer:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		return NewContainer(ctx, cfg, rt)
	}
	return nil, fmt.Errorf("unknown compiler backend %q (want %s or %s)",
		cfg.Backend, types.BackendNative, types.BackendContainer)
}

// NewNative returns a compiler that runs cfg.Binary from PATH.
func NewNative(cfg types.CompilerConfig, exec process.Executor) (*OpenSCAD, error) {
	bin := cfg.Binary
	if bin == "" {
		bin = defaultBinary
	}
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("compiler binary %s not found: %w", bin, err)
	}
	return newOpenSCAD(&nativeInvoker{bin: resolved, exec: exec}, cfg), nil
}

// NewContainer returns a compiler that runs cfg.Image under rt. The image
// must already exist locally.
func NewContainer(ctx context.Context, cfg types.CompilerConfig, rt container.Runtime) (*OpenSCAD, error) {
	image := cfg.Image
	if image == "" {
		image = defaultImage
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("compiler image not available in %s: %w", rt.Name(), err)
	}
	bin := cfg.Binary
	if bin == "" {
		bin = defaultBinary
	}
	o := newOpenSCAD(&containerInvoker{rt: rt, image: image, bin: bin}, cfg)
	o.shared = true
	return o, nil
}

type nativeInvoker struct {
	bin  string
	exec process.Executor
}

func (n *nativeInvoker) String() string { return n.bin }

func (n *nativeInvoker) invoke(ctx context.Context, dir, in, out string, stderr *bytes.Buffer) error {
	args := []string{"-o", filepath.Join(dir, out), filepath.Join(dir, in)}
	return n.exec.Run(ctx, n.bin, args, nil, nil, stderr)
}

type containerInvoker struct {
	rt    container.Runtime
	image string
	bin   string
}

func (c *containerInvoker) String() string {
	return c.rt.Name() + " image " + c.image
}

func (c *containerInvoker) invoke(ctx context.Context, dir, in, out string, stderr *bytes.Buffer) error {
	return c.rt.Run(ctx, container.RunSpec{
		Image:   c.image,
		Args:    []string{c.bin, "-o", path.Join(containerWorkDir, out), path.Join(containerWorkDir, in)},
		Mounts:  []container.Mount{{HostPath: dir, ContainerPath: containerWorkDir}},
		WorkDir: containerWorkDir,
		Stderr:  stderr,
	})
}
