//go:build mage

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPackageStats(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "internal", "pipeline", "pipeline.go"), "package pipeline\n\nfunc Run() {}\n")
	writeFile(t, filepath.Join(root, "internal", "pipeline", "pipeline_test.go"), "package pipeline\n\n\nfunc TestRun() {}\n   \n")
	writeFile(t, filepath.Join(root, "internal", "onshape", "client.go"), "package onshape\nvar x = 1\nvar y = 2\n")
	writeFile(t, filepath.Join(root, "internal", "onshape", "README.md"), "not go\n")
	writeFile(t, filepath.Join(root, "_examples", "teacher", "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, ".git", "hooks.go"), "package hooks\n")
	writeFile(t, filepath.Join(root, "internal", "onshape", "testdata", "fixture.go"), "package fixture\n")

	stats, err := packageStats(root)
	require.NoError(t, err)
	assert.Equal(t, []pkgLines{
		{Dir: "internal/onshape", Prod: 3},
		{Dir: "internal/pipeline", Prod: 2, Test: 2},
	}, stats)
}

func TestSkipDir(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"_examples", true},
		{".git", true},
		{"testdata", true},
		{"internal", false},
		{"cmd", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, skipDir(tt.name), tt.name)
	}
}

func TestBrokenDocRefs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "docs", "ARCHITECTURE.md"),
		"# Title\n\n## Pipeline Interface\n\ntext\n\n## Document Client\n")
	writeFile(t, filepath.Join(root, "internal", "onshape", "client.go"),
		"// Implements: docs/ARCHITECTURE § Document Client (steps 1-3).\npackage onshape\n")
	writeFile(t, filepath.Join(root, "cmd", "app", "main.go"),
		"// Implements: docs/ARCHITECTURE § Pipeline Interface, § Retry Policy.\npackage main\n")
	writeFile(t, filepath.Join(root, "internal", "other", "other.go"),
		"// § Unrelated Section is not an architecture reference.\npackage other\n")

	broken, err := brokenDocRefs(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"cmd/app/main.go: § Retry Policy"}, broken)
}

func TestBrokenDocRefs_RepositoryIsConsistent(t *testing.T) {
	broken, err := brokenDocRefs("..")
	require.NoError(t, err)
	assert.Empty(t, broken)
}
