// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cad-bridge/internal/ledger"
	"github.com/pdiddy/cad-bridge/internal/metrics"
	"github.com/pdiddy/cad-bridge/pkg/types"
)

var createCmd = &cobra.Command{
	Use:   "create [file.scad]",
	Short: "Compile OpenSCAD source and import it into a new Onshape document",
	Long: `Create reads OpenSCAD source from the given file, or from stdin when no
file is given or the file is "-", compiles it to a mesh, and imports the
mesh into a newly created Onshape document.

If a step fails after the document was created, the document is kept and
reported as a partial success. The command exits non-zero only when no
document was created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	source, err := readSource(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("public") {
		cfg.Document.Public, _ = cmd.Flags().GetBool("public")
	}
	output, _ := cmd.Flags().GetString("output")
	if output != "text" && output != "json" && output != "yaml" {
		return fmt.Errorf("unknown output format %q (want text, json, or yaml)", output)
	}
	name, _ := cmd.Flags().GetString("name")

	ctx := context.Background()
	p, err := buildPipeline(ctx, cfg, metrics.NoopRecorder{}, os.Stderr)
	if err != nil {
		return err
	}

	out := p.CreateFromSource(ctx, source, name)
	recordOutcome(ctx, cfg.Ledger, out)

	if err := printOutcome(cmd.OutOrStdout(), output, out); err != nil {
		return err
	}
	if out.Kind == types.OutcomeFailure {
		return errors.New(out.Error)
	}
	return nil
}

// readSource returns the contents of args[0], or of stdin when there is no
// argument or it is "-".
func readSource(args []string, stdin io.Reader) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	return string(data), nil
}

// recordOutcome appends out to the ledger when one is configured. Ledger
// problems are reported but never change the outcome.
func recordOutcome(ctx context.Context, cfg types.LedgerConfig, out types.ConversionOutcome) {
	if cfg.Path == "" {
		return
	}
	store, err := ledger.Open(cfg.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return
	}
	defer store.Close()
	if _, err := store.Record(ctx, time.Now(), out); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording outcome: %v\n", err)
	}
}

func printOutcome(w io.Writer, format string, out types.ConversionOutcome) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		data, err := yaml.Marshal(out)
		if err != nil {
			return fmt.Errorf("marshaling outcome: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	switch out.Kind {
	case types.OutcomeSuccess:
		fmt.Fprintln(w, out.Message)
	case types.OutcomePartialSuccess:
		fmt.Fprintln(w, out.Message)
		fmt.Fprintf(w, "\nwarning: %s failed after the document was created: %s\n", out.FailedStage, out.Error)
	}
	return nil
}

func init() {
	createCmd.Flags().String("name", "", "document name (default: \"<prefix> <UTC timestamp>\")")
	createCmd.Flags().Bool("public", false, "make the created document public")
	createCmd.Flags().StringP("output", "o", "text", "output format: text, json, or yaml")

	rootCmd.AddCommand(createCmd)
}
