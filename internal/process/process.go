// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package process runs external programs. The Executor interface is the seam
// tests replace to avoid spawning real binaries.
package process

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"time"
)

// waitDelay bounds how long Run waits for I/O to drain after the process is
// killed on context expiry.
const waitDelay = 2 * time.Second

// Executor runs external commands.
type Executor interface {
	// LookPath resolves file on PATH.
	LookPath(file string) (string, error)

	// RunSilent runs a command and discards its output.
	RunSilent(ctx context.Context, name string, args ...string) error

	// Run runs a command with the given stdin, stdout and stderr (any may be
	// nil). When ctx is done the process is killed.
	Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

// ExitCoder is implemented by errors that carry a process exit status,
// including *exec.ExitError.
type ExitCoder interface {
	error
	ExitCode() int
}

// ExitCode returns the exit status carried by err and whether there was one.
func ExitCode(err error) (int, bool) {
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode(), true
	}
	return 0, false
}

// OS is the production Executor backed by os/exec.
type OS struct{}

func (OS) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (OS) RunSilent(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	return cmd.Run()
}

func (OS) Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	return cmd.Run()
}
