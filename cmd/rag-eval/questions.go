package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/rag-eval/internal/questionset"
)

func newQuestionsCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Manage stored question sets",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
	}

	cmd.AddCommand(newQuestionsListCmd(st))
	cmd.AddCommand(newQuestionsShowCmd(st))
	cmd.AddCommand(newQuestionsSampleCmd(st))
	return cmd
}

func newQuestionsListCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored question sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := questionset.NewStore(st.cfg.DataDir).List()
			if err != nil {
				return fmt.Errorf("questions: %w", err)
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no question sets stored")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newQuestionsShowCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show the questions in a set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := questionset.NewStore(st.cfg.DataDir).Load(args[0])
			if err != nil {
				return fmt.Errorf("questions: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d questions\n\n", set.Name, len(set.Questions))
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tDIFFICULTY\tQUESTION")
			for _, q := range set.Questions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", q.ID, q.Type, q.Difficulty, truncateText(q.Question, 70))
			}
			return w.Flush()
		},
	}
}

func newQuestionsSampleCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "sample <name>",
		Short: "Store the built-in sample questions under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qs := questionset.NewStore(st.cfg.DataDir)
			set := &questionset.Set{
				Name:      args[0],
				CreatedAt: time.Now().UTC(),
				Source:    "sample",
				Questions: questionset.SampleQuestions(),
			}
			if err := qs.Save(set); err != nil {
				return fmt.Errorf("questions: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d sample questions as %q\n", len(set.Questions), set.Name)
			return nil
		},
	}
}

func truncateText(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
