package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/stellarlinkco/rag-eval/api"
	"github.com/stellarlinkco/rag-eval/internal/answer"
	"github.com/stellarlinkco/rag-eval/internal/config"
	"github.com/stellarlinkco/rag-eval/internal/embedding"
	"github.com/stellarlinkco/rag-eval/internal/evalrun"
	"github.com/stellarlinkco/rag-eval/internal/llm"
	"github.com/stellarlinkco/rag-eval/internal/metrics"
	"github.com/stellarlinkco/rag-eval/internal/questionset"
	"github.com/stellarlinkco/rag-eval/internal/retrieval"
	"github.com/stellarlinkco/rag-eval/internal/store"
)

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr

	loadConfig = config.Load
	openStore  = store.Open
	newServer  = api.NewServer
	runServer  = (*api.Server).Run
)

func main() {
	osExit(runMain(os.Args[1:]))
}

func runMain(args []string) int {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(stderrWriter)

	var addr string
	var configPath string
	fs.StringVar(&addr, "addr", ":8080", "listen address")
	fs.StringVar(&configPath, "config", config.DefaultPath, "path to config file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}
	defer func() { _ = st.Close() }()

	runner, err := buildRunner(cfg)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	qsets := questionset.NewStore(cfg.DataDir)

	srv, err := newServer(cfg, st, qsets, runner)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}
	if err := runServer(srv, addr); err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	return 0
}

func buildRunner(cfg *config.Config) (*evalrun.Runner, error) {
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

	opts := []evalrun.RunnerOption{}
	if cfg.Evaluation.Concurrency > 0 {
		opts = append(opts, evalrun.WithConcurrency(cfg.Evaluation.Concurrency))
	}
	return evalrun.NewRunner(retriever, answer.NewGenerator(provider), engine, opts...), nil
}
