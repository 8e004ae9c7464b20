package evalrun

import (
	"math"
	"testing"
	"time"

	"github.com/stellarlinkco/rag-eval/internal/retrieval"
)

func record(id string, orig, rer *VariantResult) *EvaluationRecord {
	rec := &EvaluationRecord{
		Question: Question{ID: id, Question: "q-" + id},
		Variants: make(map[retrieval.Variant]*VariantResult),
	}
	if orig != nil {
		orig.Variant = retrieval.VariantOriginal
		rec.Variants[retrieval.VariantOriginal] = orig
	}
	if rer != nil {
		rer.Variant = retrieval.VariantReranked
		rec.Variants[retrieval.VariantReranked] = rer
	}
	return rec
}

func scored(faith float64, refusal bool) *VariantResult {
	return &VariantResult{
		Refusal: refusal,
		Metrics: &MetricSet{
			Faithfulness:     faith,
			AnswerRelevancy:  faith,
			ContextPrecision: faith,
			ContextRecall:    faith,
		},
	}
}

func failed() *VariantResult {
	return &VariantResult{Error: "retrieval failed"}
}

func TestBuildReportSkipsMissingInMeans(t *testing.T) {
	t.Parallel()

	records := []*EvaluationRecord{
		record("Q1", scored(0.8, false), scored(0.9, false)),
		record("Q2", scored(0.6, false), failed()),
		record("Q3", scored(0.7, false), scored(0.5, false)),
	}

	rep := BuildReport("run-1", "set", time.Now(), records)

	orig := rep.Summaries[retrieval.VariantOriginal]
	if orig.Scored != 3 {
		t.Errorf("original scored = %d, want 3", orig.Scored)
	}
	if want := (0.8 + 0.6 + 0.7) / 3; math.Abs(orig.Faithfulness-want) > 1e-9 {
		t.Errorf("original faithfulness = %v, want %v", orig.Faithfulness, want)
	}

	// The failed Q2 reranked result is excluded from the mean, not
	// counted as zero.
	rer := rep.Summaries[retrieval.VariantReranked]
	if rer.Scored != 2 {
		t.Errorf("reranked scored = %d, want 2", rer.Scored)
	}
	if want := (0.9 + 0.5) / 2; math.Abs(rer.Faithfulness-want) > 1e-9 {
		t.Errorf("reranked faithfulness = %v, want %v", rer.Faithfulness, want)
	}
}

func TestImprovement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		orig, rer    float64
		want         float64
		wantInfinite bool
	}{
		{name: "both zero", orig: 0, rer: 0, want: 0},
		{name: "zero baseline", orig: 0, rer: 5, wantInfinite: true},
		{name: "gain", orig: 0.5, rer: 0.6, want: 20},
		{name: "loss", orig: 0.8, rer: 0.4, want: -50},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := improvement(tt.orig, tt.rer)
			if got.Infinite != tt.wantInfinite {
				t.Fatalf("infinite = %v, want %v", got.Infinite, tt.wantInfinite)
			}
			if !tt.wantInfinite && math.Abs(got.Value-tt.want) > 1e-9 {
				t.Fatalf("value = %v, want %v", got.Value, tt.want)
			}
		})
	}
}

func TestBuildReportSignificanceIdenticalSeries(t *testing.T) {
	t.Parallel()

	records := []*EvaluationRecord{
		record("Q1", scored(0.8, false), scored(0.8, false)),
		record("Q2", scored(0.6, false), scored(0.6, false)),
		record("Q3", scored(0.7, false), scored(0.7, false)),
	}

	rep := BuildReport("run-1", "set", time.Now(), records)

	for _, name := range pairedMetrics {
		res := rep.Significance[name]
		if res == nil {
			t.Fatalf("%s: missing significance result", name)
		}
		if res.P != 1 || res.Significant {
			t.Errorf("%s: p = %v, significant = %v, want p=1 not significant", name, res.P, res.Significant)
		}
	}
}

func TestBuildReportPairsOnlyCompleteRecords(t *testing.T) {
	t.Parallel()

	records := []*EvaluationRecord{
		record("Q1", scored(0.8, false), scored(0.9, false)),
		record("Q2", scored(0.6, false), failed()),
	}

	orig, rer := pairedSeries(records, "faithfulness")
	if len(orig) != 1 || len(rer) != 1 {
		t.Fatalf("paired lengths = %d, %d, want 1, 1", len(orig), len(rer))
	}
	if orig[0] != 0.8 || rer[0] != 0.9 {
		t.Errorf("pair = (%v, %v)", orig[0], rer[0])
	}
}

func TestBuildReportRefusalRates(t *testing.T) {
	t.Parallel()

	records := []*EvaluationRecord{
		record("Q1", scored(0.8, true), scored(0.9, false)),
		record("Q2", scored(0.6, false), scored(0.7, false)),
		record("Q3", scored(0.7, true), scored(0.8, true)),
		record("Q4", scored(0.5, false), scored(0.6, false)),
	}

	rep := BuildReport("run-1", "set", time.Now(), records)

	if got := rep.Summaries[retrieval.VariantOriginal].RefusalRate; math.Abs(got-50) > 1e-9 {
		t.Errorf("original refusal rate = %v, want 50", got)
	}
	if got := rep.Summaries[retrieval.VariantReranked].RefusalRate; math.Abs(got-25) > 1e-9 {
		t.Errorf("reranked refusal rate = %v, want 25", got)
	}
}
