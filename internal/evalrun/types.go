// Package evalrun drives batch evaluation of question sets against both
// retrieval configurations and aggregates the comparison report.
package evalrun

import (
	"github.com/stellarlinkco/rag-eval/internal/metrics"
	"github.com/stellarlinkco/rag-eval/internal/retrieval"
)

// Question is one evaluation item with its expected answer.
type Question struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	Type          string `json:"type,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
	ContextNeeded string `json:"context_needed,omitempty"`
	Status        string `json:"status,omitempty"`
	Source        string `json:"source,omitempty"`
}

// MetricSet holds the five metric scores for one variant.
type MetricSet struct {
	Faithfulness     float64             `json:"faithfulness"`
	AnswerRelevancy  float64             `json:"answer_relevancy"`
	ContextPrecision float64             `json:"context_precision"`
	ContextRecall    float64             `json:"context_recall"`
	Correctness      metrics.Correctness `json:"answer_correctness"`
}

// VariantResult is one variant's outcome for one question. A variant
// that failed retrieval or produced no usable passages carries the
// error and no metrics.
type VariantResult struct {
	Variant      retrieval.Variant `json:"variant"`
	Answer       string            `json:"answer,omitempty"`
	Refusal      bool              `json:"refusal"`
	PassageCount int               `json:"passage_count"`
	ElapsedMs    int64             `json:"elapsed_ms"`
	Metrics      *MetricSet        `json:"metrics,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// EvaluationRecord pairs both variant outcomes for one question.
type EvaluationRecord struct {
	Question Question                             `json:"question"`
	Variants map[retrieval.Variant]*VariantResult `json:"variants"`
}

// Result returns the variant's outcome, or nil when it is absent.
func (r *EvaluationRecord) Result(v retrieval.Variant) *VariantResult {
	if r == nil || r.Variants == nil {
		return nil
	}
	return r.Variants[v]
}

// Scored reports whether the variant completed with metrics.
func (r *EvaluationRecord) Scored(v retrieval.Variant) bool {
	res := r.Result(v)
	return res != nil && res.Metrics != nil
}
