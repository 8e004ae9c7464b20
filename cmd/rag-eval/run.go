package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/rag-eval/internal/answer"
	"github.com/stellarlinkco/rag-eval/internal/config"
	"github.com/stellarlinkco/rag-eval/internal/embedding"
	"github.com/stellarlinkco/rag-eval/internal/evalrun"
	"github.com/stellarlinkco/rag-eval/internal/export"
	"github.com/stellarlinkco/rag-eval/internal/llm"
	"github.com/stellarlinkco/rag-eval/internal/metrics"
	"github.com/stellarlinkco/rag-eval/internal/questionset"
	"github.com/stellarlinkco/rag-eval/internal/retrieval"
	"github.com/stellarlinkco/rag-eval/internal/store"
)

type runOptions struct {
	setName     string
	sample      bool
	output      string
	exportPath  string
	concurrency int
	folderIDs   []string
	titles      []string
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate a question set against both retrieval configurations",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.setName, "set", "", "question set name to evaluate")
	cmd.Flags().BoolVar(&opts.sample, "sample", false, "use the built-in sample questions")
	cmd.Flags().StringVar(&opts.output, "output", "", "output format: table|json (overrides config)")
	cmd.Flags().StringVar(&opts.exportPath, "export", "", "write the report to a .csv or .json file")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "parallel questions (overrides config)")
	cmd.Flags().StringSliceVar(&opts.folderIDs, "folder", nil, "restrict retrieval to folder ids")
	cmd.Flags().StringSliceVar(&opts.titles, "title", nil, "restrict retrieval to document titles")

	return cmd
}

func runBatch(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("run: nil options")
	}

	setName := strings.TrimSpace(opts.setName)
	switch {
	case opts.sample && setName != "":
		return fmt.Errorf("run: --sample and --set are mutually exclusive")
	case !opts.sample && setName == "":
		return fmt.Errorf("run: specify either --set <name> or --sample")
	}

	output, err := resolveOutputFormat(opts.output, st.cfg.Evaluation.OutputFormat)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	var questions []evalrun.Question
	if opts.sample {
		questions = questionset.SampleQuestions()
	} else {
		set, err := questionset.NewStore(st.cfg.DataDir).Load(setName)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		questions = set.Questions
	}
	if len(questions) == 0 {
		return fmt.Errorf("run: question set is empty")
	}

	runner, err := buildRunner(st.cfg, opts)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	historyStore, err := store.Open(st.cfg)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	defer func() { _ = historyStore.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if st.cfg.Evaluation.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.cfg.Evaluation.Timeout)
		defer cancel()
	}

	runID, err := newRunID()
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	startedAt := time.Now().UTC()
	records := runner.BatchEvaluate(ctx, questions)
	report := evalrun.BuildReport(runID, setName, startedAt, records)

	if err := store.SaveReport(ctx, historyStore, report, time.Now().UTC()); err != nil {
		return fmt.Errorf("run: save report: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), FormatReport(report, output))

	if path := strings.TrimSpace(opts.exportPath); path != "" {
		if err := export.ToFile(path, report); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nReport written to %s\n", path)
	}
	return nil
}

func buildRunner(cfg *config.Config, opts *runOptions) (*evalrun.Runner, error) {
	provider, err := llm.DefaultProviderFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	embedder := embedding.NewOpenAIEmbedder(
		cfg.Embedding.APIKey, cfg.Embedding.BaseURL, cfg.Embedding.Model)

	retriever := retrieval.NewClient(
		cfg.Retrieval.OriginalURL,
		cfg.Retrieval.RerankedURL,
		retrieval.WithTopK(cfg.Retrieval.TopK),
		retrieval.WithRetries(cfg.Retrieval.Retries),
		retrieval.WithHTTPClient(&http.Client{Timeout: cfg.Retrieval.Timeout}),
	)

	engine := metrics.NewEngine(provider, embedder,
		metrics.WithPrecisionK(cfg.Evaluation.PrecisionK))
	generator := answer.NewGenerator(provider)

	concurrency := cfg.Evaluation.Concurrency
	if opts.concurrency > 0 {
		concurrency = opts.concurrency
	}

	runnerOpts := []evalrun.RunnerOption{
		evalrun.WithScope(retrieval.Scope{
			FolderIDs:    opts.folderIDs,
			UniqueTitles: opts.titles,
		}),
	}
	if concurrency > 0 {
		runnerOpts = append(runnerOpts, evalrun.WithConcurrency(concurrency))
	}

	return evalrun.NewRunner(retriever, generator, engine, runnerOpts...), nil
}

func newRunID() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("run_%s_%x", time.Now().UTC().Format("20060102T150405Z"), buf), nil
}
