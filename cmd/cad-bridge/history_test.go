// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cad-bridge/internal/ledger"
	"github.com/pdiddy/cad-bridge/pkg/types"
)

func TestFormatHistory(t *testing.T) {
	at := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	entries := []ledger.Entry{
		{ID: 2, RecordedAt: at, Kind: types.OutcomePartialSuccess, DocID: "d2",
			FailedStage: types.StageImporting, Error: "API error 500\nstack"},
		{ID: 1, RecordedAt: at.Add(-time.Hour), Kind: types.OutcomeSuccess, DocID: "d1",
			URL: "https://cad.onshape.com/documents/d1"},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, formatHistory(&buf, entries, false))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 4)
		assert.Contains(t, lines[2], "2026-10-19 09:30:00")
		assert.Contains(t, lines[2], "importing")
		assert.True(t, strings.HasSuffix(lines[2], "API error 500"))
		assert.True(t, strings.HasSuffix(lines[3], "https://cad.onshape.com/documents/d1"))
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, formatHistory(&buf, entries, true))
		var got []ledger.Entry
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "d2", got[0].DocID)
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, formatHistory(&buf, nil, false))
		assert.Equal(t, "No outcomes recorded.\n", buf.String())

		buf.Reset()
		require.NoError(t, formatHistory(&buf, nil, true))
		assert.Equal(t, "[]\n", buf.String())
	})
}
