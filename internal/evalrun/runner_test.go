package evalrun

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stellarlinkco/rag-eval/internal/answer"
	"github.com/stellarlinkco/rag-eval/internal/llm"
	"github.com/stellarlinkco/rag-eval/internal/metrics"
	"github.com/stellarlinkco/rag-eval/internal/retrieval"
)

type stubProvider struct {
	text string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(_ context.Context, _ *llm.Request) (*llm.Response, error) {
	return &llm.Response{Content: []llm.ContentBlock{{Type: "text", Text: s.text}}}, nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{1, 0}
	}
	return out, nil
}

func passageServer(t *testing.T, failFor string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if failFor != "" && strings.Contains(body.Prompt, failFor) {
			http.Error(w, "backend down", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"documents":[{"title":"Doc","content":"Sarcopenia is age-related muscle loss.","score":0.9}]}`))
	}))
}

func newTestRunner(origURL, rerURL string, opts ...RunnerOption) *Runner {
	retriever := retrieval.NewClient(origURL, rerURL, retrieval.WithRetries(0))
	gen := answer.NewGenerator(&stubProvider{text: "Sarcopenia is muscle loss [1]."})
	// A judge with no numbered output keeps the scorers on their
	// degradation paths, which is enough for plumbing tests.
	engine := metrics.NewEngine(&stubProvider{text: "none"}, stubEmbedder{})
	return NewRunner(retriever, gen, engine, opts...)
}

func TestEvaluateQuestionBothVariants(t *testing.T) {
	t.Parallel()

	srv := passageServer(t, "")
	defer srv.Close()

	r := newTestRunner(srv.URL, srv.URL)
	rec, err := r.EvaluateQuestion(context.Background(), Question{
		ID:       "Q1",
		Question: "What is sarcopenia?",
		Answer:   "Age-related muscle loss.",
	})
	if err != nil {
		t.Fatalf("EvaluateQuestion: %v", err)
	}

	for _, v := range []retrieval.Variant{retrieval.VariantOriginal, retrieval.VariantReranked} {
		res := rec.Result(v)
		if res == nil {
			t.Fatalf("%s: missing result", v)
		}
		if res.Error != "" {
			t.Fatalf("%s: error %q", v, res.Error)
		}
		if res.Metrics == nil {
			t.Fatalf("%s: missing metrics", v)
		}
		if res.PassageCount != 1 {
			t.Errorf("%s: passage count = %d", v, res.PassageCount)
		}
		if res.Answer == "" {
			t.Errorf("%s: empty answer", v)
		}
	}
}

func TestEvaluateQuestionVariantFailureIsIsolated(t *testing.T) {
	t.Parallel()

	good := passageServer(t, "")
	defer good.Close()
	bad := passageServer(t, "sarcopenia")
	defer bad.Close()

	r := newTestRunner(good.URL, bad.URL)
	rec, err := r.EvaluateQuestion(context.Background(), Question{
		ID:       "Q1",
		Question: "What is sarcopenia?",
	})
	if err != nil {
		t.Fatalf("EvaluateQuestion: %v", err)
	}

	if !rec.Scored(retrieval.VariantOriginal) {
		t.Error("original should be scored")
	}
	rer := rec.Result(retrieval.VariantReranked)
	if rer == nil || rer.Error == "" {
		t.Fatalf("reranked should carry an error: %+v", rer)
	}
	if rer.Metrics != nil {
		t.Error("reranked must not carry metrics on failure")
	}
}

func TestEvaluateQuestionEmptyPassages(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"documents":[{"title":"Doc","content":"   "}]}`))
	}))
	defer srv.Close()

	r := newTestRunner(srv.URL, srv.URL)
	rec, err := r.EvaluateQuestion(context.Background(), Question{ID: "Q1", Question: "q"})
	if err != nil {
		t.Fatalf("EvaluateQuestion: %v", err)
	}

	res := rec.Result(retrieval.VariantOriginal)
	if res == nil || res.Metrics != nil || res.Error == "" {
		t.Fatalf("blank-content passages must skip scoring: %+v", res)
	}
}

func TestBatchEvaluateKeepsOrderAndContinues(t *testing.T) {
	t.Parallel()

	good := passageServer(t, "")
	defer good.Close()
	bad := passageServer(t, "second")
	defer bad.Close()

	r := newTestRunner(good.URL, bad.URL, WithConcurrency(2))
	questions := []Question{
		{ID: "Q1", Question: "first question"},
		{ID: "Q2", Question: "second question"},
		{ID: "Q3", Question: "third question"},
	}

	records := r.BatchEvaluate(context.Background(), questions)
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	for i, rec := range records {
		if rec.Question.ID != questions[i].ID {
			t.Errorf("record %d = %s, want %s", i, rec.Question.ID, questions[i].ID)
		}
	}

	q2 := records[1]
	if !q2.Scored(retrieval.VariantOriginal) {
		t.Error("Q2 original should be scored")
	}
	if q2.Scored(retrieval.VariantReranked) {
		t.Error("Q2 reranked must not be scored")
	}
}

func TestEvaluateQuestionEmptyText(t *testing.T) {
	t.Parallel()

	r := newTestRunner("http://unused", "http://unused")
	if _, err := r.EvaluateQuestion(context.Background(), Question{ID: "Q1"}); err == nil {
		t.Fatal("expected error for empty question text")
	}
}
