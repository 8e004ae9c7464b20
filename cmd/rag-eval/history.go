package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/rag-eval/internal/store"
)

type historyOptions struct {
	limit   int
	setName string
}

func newHistoryCmd(st *cliState) *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List past batch runs, or show one run's report",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			historyStore, err := store.Open(st.cfg)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			defer func() { _ = historyStore.Close() }()

			if len(args) == 1 {
				return showRun(cmd, historyStore, args[0])
			}
			return listRuns(cmd, historyStore, &opts)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 20, "maximum runs to list")
	cmd.Flags().StringVar(&opts.setName, "set", "", "filter by question set name")

	return cmd
}

func listRuns(cmd *cobra.Command, historyStore store.Store, opts *historyOptions) error {
	runs, err := historyStore.ListRuns(cmd.Context(), store.RunFilter{
		QuestionSet: opts.setName,
		Limit:       opts.limit,
	})
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tQUESTION SET\tSTARTED\tDURATION\tQUESTIONS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			run.ID,
			run.QuestionSet,
			run.StartedAt.Format(time.RFC3339),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Second),
			run.TotalQuestions,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, historyStore store.Store, runID string) error {
	run, err := historyStore.GetRun(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("history: marshal run: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
