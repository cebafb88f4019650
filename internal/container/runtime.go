// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container implements container runtime detection and execution
// for tools that cad-bridge runs inside an image rather than from PATH.
// Implements: docs/ARCHITECTURE § Compiler Backends (container strategy).
package container

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/cad-bridge/internal/process"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// killTimeout bounds the cleanup command issued when a run is abandoned.
const killTimeout = 10 * time.Second

// Mount binds a host directory into the container.
type Mount struct {
	HostPath      string
	ContainerPath string
}

// RunSpec describes one container run.
type RunSpec struct {
	Image  string
	Args   []string
	Mounts []Mount
	// WorkDir is the working directory inside the container.
	WorkDir string
	Stdout  io.Writer
	Stderr  io.Writer
}

// Runtime provides container operations: checking availability, verifying
// images, and running containers.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available(ctx context.Context) bool

	// ImageExists returns nil when the image is present locally.
	ImageExists(ctx context.Context, image string) error

	// Run executes spec in a fresh, network-less container that is removed
	// on exit. If ctx ends first the container is killed.
	Run(ctx context.Context, spec RunSpec) error
}

// runtime implements Runtime for a specific container binary. Docker and
// Podman differ only in binary name and the image-check subcommand.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          process.Executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available(ctx context.Context) bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(ctx, r.bin, "info") == nil
}

func (r *runtime) ImageExists(ctx context.Context, image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(ctx, r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Run(ctx context.Context, spec RunSpec) error {
	name := "cad-bridge-" + uuid.NewString()
	args := runArgs(name, spec)

	err := r.exec.Run(ctx, r.bin, args, nil, spec.Stdout, spec.Stderr)
	if ctx.Err() != nil {
		// Killing the client does not stop the container.
		killCtx, cancel := context.WithTimeout(context.Background(), killTimeout)
		defer cancel()
		_ = r.exec.RunSilent(killCtx, r.bin, "kill", name)
	}
	if err != nil {
		return fmt.Errorf("running %s container %s: %w", r.bin, spec.Image, err)
	}
	return nil
}

func runArgs(name string, spec RunSpec) []string {
	args := []string{"run", "--rm", "--name", name, "--network", "none"}
	for _, m := range spec.Mounts {
		args = append(args, "-v", m.HostPath+":"+m.ContainerPath)
	}
	if spec.WorkDir != "" {
		args = append(args, "-w", spec.WorkDir)
	}
	args = append(args, spec.Image)
	return append(args, spec.Args...)
}

func newDockerRuntime(exec process.Executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec process.Executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime(ctx context.Context) (Runtime, error) {
	return detectRuntime(ctx, process.OS{})
}

func detectRuntime(ctx context.Context, exec process.Executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available(ctx) {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available(ctx) {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
