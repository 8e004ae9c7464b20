// Package metrics scores generated answers against retrieved contexts
// and ground truth with five retrieval-evaluation metrics.
package metrics

import (
	"context"
	"strings"

	"github.com/stellarlinkco/rag-eval/internal/embedding"
	"github.com/stellarlinkco/rag-eval/internal/llm"
)

const (
	judgeSystemPrompt = "You are a helpful assistant for evaluation tasks."
	judgeMaxTokens    = 1000
	judgeTemperature  = 0.1

	defaultPrecisionK = 5
)

// Engine runs the metric suite with a judge model and an embedder.
type Engine struct {
	judge      llm.Provider
	embedder   embedding.Embedder
	precisionK int
}

func NewEngine(judge llm.Provider, embedder embedding.Embedder, opts ...EngineOption) *Engine {
	e := &Engine{
		judge:      judge,
		embedder:   embedder,
		precisionK: defaultPrecisionK,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

type EngineOption func(*Engine)

func WithPrecisionK(k int) EngineOption {
	return func(e *Engine) {
		if k > 0 {
			e.precisionK = k
		}
	}
}

// ask issues a judge call and returns its text, or "" on any failure.
// Callers treat the empty string as their metric-specific degradation.
func (e *Engine) ask(ctx context.Context, prompt string) string {
	if e == nil || e.judge == nil {
		return ""
	}
	resp, err := e.judge.Complete(ctx, &llm.Request{
		System:      judgeSystemPrompt,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:   judgeMaxTokens,
		Temperature: judgeTemperature,
	})
	if err != nil {
		return ""
	}
	return llm.Text(resp)
}

func isYes(verdict string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(verdict)), "YES")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
