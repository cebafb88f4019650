// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cad-bridge/internal/ledger"
	"github.com/pdiddy/cad-bridge/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded conversion outcomes",
	Long: `History lists outcomes recorded in the ledger (ledger.path), newest
first. Use --kind partial_success to find documents whose import did not
complete; cad-bridge never deletes them itself.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := viper.GetString("ledger.path")
	if path == "" {
		return errors.New("no ledger configured: set ledger.path or CAD_BRIDGE_LEDGER_PATH")
	}

	kind, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")
	filter := ledger.Filter{Kind: types.OutcomeKind(kind), Limit: limit}
	switch filter.Kind {
	case "", types.OutcomeSuccess, types.OutcomePartialSuccess, types.OutcomeFailure:
	default:
		return fmt.Errorf("unknown kind %q (want success, partial_success, or failure)", kind)
	}

	store, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if exportPath, _ := cmd.Flags().GetString("export"); exportPath != "" {
		n, err := store.ExportYAML(ctx, filter, exportPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d entries to %s\n", n, exportPath)
		return nil
	}

	entries, err := store.List(ctx, filter)
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistory(cmd.OutOrStdout(), entries, jsonOutput)
}

func formatHistory(w io.Writer, entries []ledger.Entry, jsonOutput bool) error {
	if jsonOutput {
		if entries == nil {
			entries = []ledger.Entry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No outcomes recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-15s  %-24s  %-17s  %s\n", "Recorded", "Kind", "Document", "Failed stage", "Detail")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, e := range entries {
		detail := e.URL
		if e.Error != "" {
			detail = firstLine(e.Error)
		}
		fmt.Fprintf(w, "%-20s  %-15s  %-24s  %-17s  %s\n",
			e.RecordedAt.UTC().Format("2006-01-02 15:04:05"), e.Kind, e.DocID, e.FailedStage, detail)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func init() {
	historyCmd.Flags().String("kind", "", "filter by kind: success, partial_success, failure")
	historyCmd.Flags().Int("limit", 0, "maximum entries to list (0 = default of 50)")
	historyCmd.Flags().Bool("json", false, "output entries as JSON")
	historyCmd.Flags().String("export", "", "write all matching entries to this YAML file")

	rootCmd.AddCommand(historyCmd)
}
