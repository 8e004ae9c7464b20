package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/rag-eval/internal/export"
	"github.com/stellarlinkco/rag-eval/internal/store"
)

type exportOptions struct {
	outPath string
}

func newExportCmd(st *cliState) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export a stored run to CSV or JSON",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportRun(cmd, st, args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.outPath, "out", "", "output file (.csv or .json)")

	return cmd
}

func exportRun(cmd *cobra.Command, st *cliState, runID string, opts *exportOptions) error {
	outPath := strings.TrimSpace(opts.outPath)
	if outPath == "" {
		return fmt.Errorf("export: --out is required")
	}

	historyStore, err := store.Open(st.cfg)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer func() { _ = historyStore.Close() }()

	run, err := historyStore.GetRun(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("export: create %q: %w", outPath, err)
	}
	defer f.Close()

	switch filepath.Ext(outPath) {
	case ".csv":
		records, err := historyStore.GetQuestionRecords(cmd.Context(), run.ID)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := export.WriteStoreCSV(f, records); err != nil {
			return err
		}
	case ".json":
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			return fmt.Errorf("export: encode run: %w", err)
		}
	default:
		return fmt.Errorf("export: unsupported extension %q", filepath.Ext(outPath))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s written to %s\n", run.ID, outPath)
	return nil
}
