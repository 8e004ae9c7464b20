package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/rag-eval/internal/llm"
	"github.com/stellarlinkco/rag-eval/internal/questiongen"
	"github.com/stellarlinkco/rag-eval/internal/questionset"
)

type generateOptions struct {
	pdfPath string
	name    string
	count   int
}

func newGenerateCmd(st *cliState) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a question set from a PDF document",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateQuestions(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.pdfPath, "pdf", "", "path to the source PDF")
	cmd.Flags().StringVar(&opts.name, "name", "", "name for the generated question set")
	cmd.Flags().IntVar(&opts.count, "count", 10, "number of questions to generate")

	return cmd
}

func generateQuestions(cmd *cobra.Command, st *cliState, opts *generateOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("generate: missing config (internal error)")
	}

	pdfPath := strings.TrimSpace(opts.pdfPath)
	if pdfPath == "" {
		return fmt.Errorf("generate: --pdf is required")
	}
	name := strings.TrimSpace(opts.name)
	if name == "" {
		return fmt.Errorf("generate: --name is required")
	}

	text, err := questiongen.ExtractPDFText(pdfPath)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	provider, err := llm.DefaultProviderFromConfig(st.cfg)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	questions, err := questiongen.NewGenerator(provider, opts.count).Generate(cmd.Context(), text)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if len(questions) == 0 {
		return fmt.Errorf("generate: model returned no questions")
	}

	set := &questionset.Set{
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Source:    pdfPath,
		Questions: questions,
	}
	if err := questionset.NewStore(st.cfg.DataDir).Save(set); err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "stored %d questions as %q\n", len(questions), name)
	return nil
}
