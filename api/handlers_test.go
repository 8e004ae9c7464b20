package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stellarlinkco/rag-eval/internal/config"
	"github.com/stellarlinkco/rag-eval/internal/evalrun"
	"github.com/stellarlinkco/rag-eval/internal/questionset"
	"github.com/stellarlinkco/rag-eval/internal/store"
)

func newTestServer(t *testing.T, st store.Store) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("RAG_EVAL_API_KEY", "")
	t.Setenv("RAG_EVAL_DISABLE_AUTH", "true")

	qsets := questionset.NewStore(t.TempDir())
	srv, err := NewServer(&config.Config{}, st, qsets, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeStore{})
	w := doRequest(srv, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAuthRequiredWithoutConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("RAG_EVAL_API_KEY", "")
	t.Setenv("RAG_EVAL_DISABLE_AUTH", "")

	if _, err := NewServer(&config.Config{}, &fakeStore{}, questionset.NewStore(t.TempDir()), nil); err == nil {
		t.Fatal("expected error when neither API key nor disable-auth is set")
	}
}

func TestAPIKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("RAG_EVAL_API_KEY", "secret")
	t.Setenv("RAG_EVAL_DISABLE_AUTH", "")

	srv, err := NewServer(&config.Config{}, &fakeStore{}, questionset.NewStore(t.TempDir()), nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	w := doRequest(srv, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("without key: status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with key: status = %d", rec.Code)
	}
}

func TestQuestionSetLifecycle(t *testing.T) {
	srv := newTestServer(t, &fakeStore{})

	payload := `{"name":"thesis","questions":[{"id":"Q1","question":"q?","answer":"a"}]}`
	w := doRequest(srv, http.MethodPost, "/api/questions", payload)
	if w.Code != http.StatusOK {
		t.Fatalf("upsert: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doRequest(srv, http.MethodGet, "/api/questions", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "thesis") {
		t.Fatalf("list: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doRequest(srv, http.MethodGet, "/api/questions/thesis", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: status = %d", w.Code)
	}
	var set questionset.Set
	if err := json.Unmarshal(w.Body.Bytes(), &set); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(set.Questions) != 1 || set.Questions[0].ID != "Q1" {
		t.Errorf("set = %+v", set)
	}

	w = doRequest(srv, http.MethodGet, "/api/questions/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("get missing: status = %d", w.Code)
	}
}

func TestUpsertQuestionSetValidation(t *testing.T) {
	srv := newTestServer(t, &fakeStore{})

	w := doRequest(srv, http.MethodPost, "/api/questions", `{"questions":[{"id":"Q1"}]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing name: status = %d", w.Code)
	}
	w = doRequest(srv, http.MethodPost, "/api/questions", `{"name":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("no questions: status = %d", w.Code)
	}
}

func TestEvaluateValidation(t *testing.T) {
	srv := newTestServer(t, &fakeStore{})
	// The runner is nil in these tests, but validation runs first for
	// bad payloads only when the runner exists; a nil runner is a 500.
	w := doRequest(srv, http.MethodPost, "/api/evaluate", `{}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("nil runner: status = %d", w.Code)
	}
}

func TestEvaluateMutuallyExclusiveInputs(t *testing.T) {
	srv := newTestServer(t, &fakeStore{})
	srv.runner = evalrun.NewRunner(nil, nil, nil)

	w := doRequest(srv, http.MethodPost, "/api/evaluate",
		`{"question_set":"x","questions":[{"id":"Q1","question":"q"}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("both inputs: status = %d", w.Code)
	}

	w = doRequest(srv, http.MethodPost, "/api/evaluate", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("neither input: status = %d", w.Code)
	}

	w = doRequest(srv, http.MethodPost, "/api/evaluate", `{"question_set":"missing"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing set: status = %d", w.Code)
	}
}

func TestGetRunNotFound(t *testing.T) {
	st := &fakeStore{
		GetRunFunc: func(_ context.Context, _ string) (*store.RunRecord, error) {
			return nil, sql.ErrNoRows
		},
	}
	srv := newTestServer(t, st)

	w := doRequest(srv, http.MethodGet, "/api/runs/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestListRuns(t *testing.T) {
	var gotFilter store.RunFilter
	st := &fakeStore{
		ListRunsFunc: func(_ context.Context, filter store.RunFilter) ([]*store.RunRecord, error) {
			gotFilter = filter
			return []*store.RunRecord{{
				ID:        "run-1",
				StartedAt: time.Now().UTC(),
			}}, nil
		},
	}
	srv := newTestServer(t, st)

	w := doRequest(srv, http.MethodGet, "/api/runs?limit=5&question_set=thesis", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotFilter.Limit != 5 || gotFilter.QuestionSet != "thesis" {
		t.Errorf("filter = %+v", gotFilter)
	}
	if !strings.Contains(w.Body.String(), "run-1") {
		t.Errorf("body = %s", w.Body.String())
	}

	w = doRequest(srv, http.MethodGet, "/api/runs?limit=bogus", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: status = %d", w.Code)
	}
}

func TestExportRunCSV(t *testing.T) {
	st := &fakeStore{
		GetRunFunc: func(_ context.Context, id string) (*store.RunRecord, error) {
			return &store.RunRecord{ID: id}, nil
		},
		GetQuestionRecordsFunc: func(_ context.Context, _ string) ([]*store.QuestionRecord, error) {
			return []*store.QuestionRecord{{
				ID: "r1", RunID: "run-1", QuestionID: "Q1", Variant: "original",
				Question: "q?", Scored: true, Faithfulness: 0.8,
			}}, nil
		},
	}
	srv := newTestServer(t, st)

	w := doRequest(srv, http.MethodGet, "/api/runs/run-1/export?format=csv", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "question_id,") || !strings.Contains(body, "0.8000") {
		t.Errorf("csv = %s", body)
	}

	w = doRequest(srv, http.MethodGet, "/api/runs/run-1/export?format=xml", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad format: status = %d", w.Code)
	}
}
