package evalrun

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/stellarlinkco/rag-eval/internal/answer"
	"github.com/stellarlinkco/rag-eval/internal/metrics"
	"github.com/stellarlinkco/rag-eval/internal/retrieval"
)

const defaultConcurrency = 4

// Runner evaluates questions against both retrieval variants.
type Runner struct {
	retriever   *retrieval.Client
	generator   *answer.Generator
	engine      *metrics.Engine
	scope       retrieval.Scope
	concurrency int
}

type RunnerOption func(*Runner)

func WithScope(scope retrieval.Scope) RunnerOption {
	return func(r *Runner) { r.scope = scope }
}

func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func NewRunner(retriever *retrieval.Client, generator *answer.Generator, engine *metrics.Engine, opts ...RunnerOption) *Runner {
	r := &Runner{
		retriever:   retriever,
		generator:   generator,
		engine:      engine,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// EvaluateQuestion runs one question through both variants. The two
// variant chains run concurrently; a failed variant is recorded with
// its error and no metrics so the other side still counts.
func (r *Runner) EvaluateQuestion(ctx context.Context, q Question) (*EvaluationRecord, error) {
	if r == nil || r.retriever == nil {
		return nil, fmt.Errorf("evalrun: runner not configured")
	}
	if strings.TrimSpace(q.Question) == "" {
		return nil, fmt.Errorf("evalrun: empty question")
	}

	fetched, err := r.retriever.FetchBoth(ctx, q.Question, r.scope)
	if err != nil {
		return nil, fmt.Errorf("evalrun: fetch: %w", err)
	}

	record := &EvaluationRecord{
		Question: q,
		Variants: make(map[retrieval.Variant]*VariantResult, 2),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for variant, sysRes := range fetched {
		wg.Add(1)
		go func(variant retrieval.Variant, sysRes *retrieval.SystemResult) {
			defer wg.Done()
			res := r.evaluateVariant(ctx, q, variant, sysRes)
			mu.Lock()
			record.Variants[variant] = res
			mu.Unlock()
		}(variant, sysRes)
	}
	wg.Wait()

	return record, nil
}

func (r *Runner) evaluateVariant(ctx context.Context, q Question, variant retrieval.Variant, sysRes *retrieval.SystemResult) *VariantResult {
	res := &VariantResult{Variant: variant}

	if sysRes == nil {
		res.Error = "no retrieval result"
		return res
	}
	res.ElapsedMs = sysRes.ElapsedMs
	if sysRes.Err != nil {
		res.Error = sysRes.Err.Error()
		return res
	}

	passages := usablePassages(sysRes.Passages)
	res.PassageCount = len(passages)
	if len(passages) == 0 {
		res.Error = "no passages with content"
		return res
	}

	res.Answer = r.generator.Generate(ctx, q.Question, passages)
	res.Refusal = answer.IsRefusal(res.Answer)

	contexts := make([]string, len(passages))
	for i, p := range passages {
		contexts[i] = p.Content
	}

	res.Metrics = &MetricSet{
		Faithfulness:     r.engine.Faithfulness(ctx, res.Answer, contexts),
		AnswerRelevancy:  r.engine.AnswerRelevancy(ctx, q.Question, res.Answer),
		ContextPrecision: r.engine.ContextPrecision(ctx, q.Question, contexts),
		ContextRecall:    r.engine.ContextRecall(ctx, q.Answer, contexts),
		Correctness:      r.engine.AnswerCorrectness(ctx, res.Answer, q.Answer),
	}
	return res
}

func usablePassages(passages []retrieval.Passage) []retrieval.Passage {
	out := make([]retrieval.Passage, 0, len(passages))
	for _, p := range passages {
		if strings.TrimSpace(p.Content) != "" {
			out = append(out, p)
		}
	}
	return out
}

// BatchEvaluate runs all questions through a bounded worker pool and
// returns records in input order. A question whose evaluation fails is
// logged and skipped; the batch continues.
func (r *Runner) BatchEvaluate(ctx context.Context, questions []Question) []*EvaluationRecord {
	if r == nil || len(questions) == 0 {
		return nil
	}

	workers := r.concurrency
	if workers <= 0 {
		workers = defaultConcurrency
	}

	results := make([]*EvaluationRecord, len(questions))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, q := range questions {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, q Question) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("evalrun: question %s panicked: %v", q.ID, rec)
				}
			}()

			record, err := r.EvaluateQuestion(ctx, q)
			if err != nil {
				log.Printf("evalrun: question %s failed: %v", q.ID, err)
				return
			}
			results[i] = record
			log.Printf("evalrun: question %s done (%d/%d)", q.ID, i+1, len(questions))
		}(i, q)
	}
	wg.Wait()

	out := make([]*EvaluationRecord, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out
}
