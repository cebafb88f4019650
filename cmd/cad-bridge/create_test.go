// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cad-bridge/pkg/types"
)

func TestReadSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.scad")
	require.NoError(t, os.WriteFile(path, []byte("cube(10);"), 0o644))

	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{"file", []string{path}, "ignored", "cube(10);"},
		{"stdin without args", nil, "sphere(3);", "sphere(3);"},
		{"stdin dash", []string{"-"}, "cylinder(h=2);", "cylinder(h=2);"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readSource(tt.args, strings.NewReader(tt.stdin))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := readSource([]string{filepath.Join(t.TempDir(), "missing.scad")}, nil)
	assert.ErrorContains(t, err, "reading source")
}

func TestPrintOutcome(t *testing.T) {
	success := types.ConversionOutcome{
		Kind:    types.OutcomeSuccess,
		DocID:   "d1",
		DocName: "Bracket",
		URL:     "https://cad.onshape.com/documents/d1",
		Message: "Successfully created 3D model in Onshape!",
	}
	partial := success
	partial.Kind = types.OutcomePartialSuccess
	partial.FailedStage = types.StageUploading
	partial.Error = "API error 413"

	t.Run("text success", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printOutcome(&buf, "text", success))
		assert.Equal(t, success.Message+"\n", buf.String())
	})

	t.Run("text partial", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printOutcome(&buf, "text", partial))
		assert.Contains(t, buf.String(), success.Message)
		assert.Contains(t, buf.String(), "warning: uploading failed after the document was created: API error 413")
	})

	t.Run("text failure prints nothing", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printOutcome(&buf, "text", types.ConversionOutcome{Kind: types.OutcomeFailure, Error: "x"}))
		assert.Empty(t, buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printOutcome(&buf, "json", partial))
		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "partial_success", got["kind"])
		assert.Equal(t, "d1", got["doc_id"])
		assert.Equal(t, "uploading", got["failed_stage"])
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printOutcome(&buf, "yaml", success))
		var got types.ConversionOutcome
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, success, got)
	})
}
