package evalrun

import (
	"time"

	"github.com/stellarlinkco/rag-eval/internal/retrieval"
	"github.com/stellarlinkco/rag-eval/internal/stats"
)

// Improvement is a relative percentage change. A change from a zero
// baseline has no finite percentage and is flagged instead.
type Improvement struct {
	Value    float64 `json:"value"`
	Infinite bool    `json:"infinite"`
}

// VariantSummary aggregates one variant's metric means over the
// questions it completed.
type VariantSummary struct {
	Scored           int     `json:"scored"`
	Faithfulness     float64 `json:"faithfulness"`
	AnswerRelevancy  float64 `json:"answer_relevancy"`
	ContextPrecision float64 `json:"context_precision"`
	ContextRecall    float64 `json:"context_recall"`
	Correctness      float64 `json:"answer_correctness"`
	RefusalRate      float64 `json:"refusal_rate"`
}

// Report is the aggregate comparison of both variants over a batch.
type Report struct {
	RunID        string                                `json:"run_id"`
	QuestionSet  string                                `json:"question_set,omitempty"`
	StartedAt    time.Time                             `json:"started_at"`
	Total        int                                   `json:"total"`
	Summaries    map[retrieval.Variant]*VariantSummary `json:"summaries"`
	Improvements map[string]Improvement                `json:"improvements"`
	Significance map[string]*stats.TTestResult         `json:"significance"`
	Records      []*EvaluationRecord                   `json:"records"`
}

// pairedMetrics are the series compared with the significance test.
var pairedMetrics = []string{
	"faithfulness",
	"answer_relevancy",
	"context_precision",
	"context_recall",
}

func metricValue(m *MetricSet, name string) float64 {
	switch name {
	case "faithfulness":
		return m.Faithfulness
	case "answer_relevancy":
		return m.AnswerRelevancy
	case "context_precision":
		return m.ContextPrecision
	case "context_recall":
		return m.ContextRecall
	case "answer_correctness":
		return m.Correctness.Standard
	default:
		return 0
	}
}

var reportMetrics = append(append([]string{}, pairedMetrics...), "answer_correctness")

// BuildReport aggregates a batch's records: per-variant means over the
// questions each variant completed, relative improvements, paired
// significance tests, and refusal rates.
func BuildReport(runID, questionSet string, startedAt time.Time, records []*EvaluationRecord) *Report {
	report := &Report{
		RunID:        runID,
		QuestionSet:  questionSet,
		StartedAt:    startedAt,
		Total:        len(records),
		Summaries:    make(map[retrieval.Variant]*VariantSummary, 2),
		Improvements: make(map[string]Improvement, len(reportMetrics)),
		Significance: make(map[string]*stats.TTestResult, len(pairedMetrics)),
		Records:      records,
	}

	variants := []retrieval.Variant{retrieval.VariantOriginal, retrieval.VariantReranked}
	for _, v := range variants {
		report.Summaries[v] = summarize(v, records)
	}

	orig := report.Summaries[retrieval.VariantOriginal]
	rer := report.Summaries[retrieval.VariantReranked]
	for _, name := range reportMetrics {
		report.Improvements[name] = improvement(
			summaryValue(orig, name), summaryValue(rer, name))
	}

	for _, name := range pairedMetrics {
		a, b := pairedSeries(records, name)
		if res, err := stats.PairedTTest(b, a); err == nil {
			report.Significance[name] = res
		}
	}

	return report
}

func summarize(v retrieval.Variant, records []*EvaluationRecord) *VariantSummary {
	s := &VariantSummary{}

	sums := make(map[string]float64, len(reportMetrics))
	refusals := 0
	for _, rec := range records {
		res := rec.Result(v)
		if res != nil && res.Refusal {
			refusals++
		}
		if res == nil || res.Metrics == nil {
			continue
		}
		s.Scored++
		for _, name := range reportMetrics {
			sums[name] += metricValue(res.Metrics, name)
		}
	}

	if s.Scored > 0 {
		n := float64(s.Scored)
		s.Faithfulness = sums["faithfulness"] / n
		s.AnswerRelevancy = sums["answer_relevancy"] / n
		s.ContextPrecision = sums["context_precision"] / n
		s.ContextRecall = sums["context_recall"] / n
		s.Correctness = sums["answer_correctness"] / n
	}
	if len(records) > 0 {
		s.RefusalRate = float64(refusals) / float64(len(records)) * 100
	}
	return s
}

func summaryValue(s *VariantSummary, name string) float64 {
	if s == nil {
		return 0
	}
	switch name {
	case "faithfulness":
		return s.Faithfulness
	case "answer_relevancy":
		return s.AnswerRelevancy
	case "context_precision":
		return s.ContextPrecision
	case "context_recall":
		return s.ContextRecall
	case "answer_correctness":
		return s.Correctness
	default:
		return 0
	}
}

func improvement(original, reranked float64) Improvement {
	if original == 0 {
		if reranked == 0 {
			return Improvement{Value: 0}
		}
		return Improvement{Infinite: true}
	}
	return Improvement{Value: (reranked - original) / original * 100}
}

// pairedSeries collects metric values for questions where both
// variants completed, keeping the pairing aligned.
func pairedSeries(records []*EvaluationRecord, name string) (original, reranked []float64) {
	for _, rec := range records {
		o := rec.Result(retrieval.VariantOriginal)
		r := rec.Result(retrieval.VariantReranked)
		if o == nil || o.Metrics == nil || r == nil || r.Metrics == nil {
			continue
		}
		original = append(original, metricValue(o.Metrics, name))
		reranked = append(reranked, metricValue(r.Metrics, name))
	}
	return original, reranked
}
