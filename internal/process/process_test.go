// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exitErr struct{ code int }

func (e exitErr) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e exitErr) ExitCode() int { return e.code }

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOK   bool
	}{
		{"nil", nil, 0, false},
		{"plain error", errors.New("not found"), 0, false},
		{"exit coder", exitErr{code: 2}, 2, true},
		{"wrapped exit coder", fmt.Errorf("running: %w", exitErr{code: 1}), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := ExitCode(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := (OS{}).LookPath("sh"); err != nil {
		t.Skip("sh not on PATH")
	}
}

func TestOSRun(t *testing.T) {
	requireShell(t)

	var stdout, stderr bytes.Buffer
	err := OS{}.Run(context.Background(), "sh", []string{"-c", "cat; echo oops >&2"},
		strings.NewReader("hello"), &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "hello", stdout.String())
	assert.Equal(t, "oops\n", stderr.String())
}

func TestOSRun_ExitStatus(t *testing.T) {
	requireShell(t)

	err := OS{}.Run(context.Background(), "sh", []string{"-c", "exit 3"}, nil, nil, nil)
	code, ok := ExitCode(err)
	require.True(t, ok, "expected exit status in %v", err)
	assert.Equal(t, 3, code)
}

func TestOSRun_KilledOnDeadline(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := OS{}.Run(ctx, "sh", []string{"-c", "sleep 10"}, nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestOSRunSilent(t *testing.T) {
	requireShell(t)

	assert.NoError(t, OS{}.RunSilent(context.Background(), "sh", "-c", "echo ignored"))
	assert.Error(t, OS{}.RunSilent(context.Background(), "sh", "-c", "exit 1"))
}
