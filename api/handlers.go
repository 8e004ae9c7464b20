package api

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stellarlinkco/rag-eval/internal/evalrun"
	"github.com/stellarlinkco/rag-eval/internal/export"
	"github.com/stellarlinkco/rag-eval/internal/questionset"
	"github.com/stellarlinkco/rag-eval/internal/store"
)

type evaluateRequest struct {
	QuestionSet string             `json:"question_set"`
	Questions   []evalrun.Question `json:"questions"`
	Timeout     *int               `json:"timeout_seconds,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListQuestionSets(c *gin.Context) {
	if s == nil || s.qsets == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	names, err := s.qsets.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"question_sets": names})
}

func (s *Server) handleGetQuestionSet(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing question set name"))
		return
	}

	set, err := s.qsets.Load(name)
	if err != nil {
		respondError(c, http.StatusNotFound, fmt.Errorf("question set %q not found", name))
		return
	}
	c.JSON(http.StatusOK, set)
}

func (s *Server) handleUpsertQuestionSet(c *gin.Context) {
	var set questionset.Set
	if err := c.ShouldBindJSON(&set); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(set.Name) == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing question set name"))
		return
	}
	if len(set.Questions) == 0 {
		respondError(c, http.StatusBadRequest, errors.New("question set has no questions"))
		return
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now().UTC()
	}

	if err := s.qsets.Save(&set); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (s *Server) handleEvaluate(c *gin.Context) {
	if s == nil || s.runner == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	setName := strings.TrimSpace(req.QuestionSet)
	questions := req.Questions
	switch {
	case setName != "" && len(questions) > 0:
		respondError(c, http.StatusBadRequest, errors.New("question_set and questions are mutually exclusive"))
		return
	case setName == "" && len(questions) == 0:
		respondError(c, http.StatusBadRequest, errors.New("specify question_set or questions"))
		return
	}

	if setName != "" {
		set, err := s.qsets.Load(setName)
		if err != nil {
			respondError(c, http.StatusNotFound, fmt.Errorf("question set %q not found", setName))
			return
		}
		questions = set.Questions
	}
	if len(questions) == 0 {
		respondError(c, http.StatusBadRequest, errors.New("no questions to evaluate"))
		return
	}

	runID, err := newRunID()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	ctx := c.Request.Context()
	if req.Timeout != nil && *req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*req.Timeout)*time.Second)
		defer cancel()
	}

	startedAt := time.Now().UTC()
	records := s.runner.BatchEvaluate(ctx, questions)
	report := evalrun.BuildReport(runID, setName, startedAt, records)

	if err := store.SaveReport(ctx, s.store, report, time.Now().UTC()); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	runs, err := s.store.ListRuns(c.Request.Context(), store.RunFilter{
		QuestionSet: strings.TrimSpace(c.Query("question_set")),
		Limit:       limit,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []*store.RunRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, ok := s.loadRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handleGetRunRecords(c *gin.Context) {
	run, ok := s.loadRun(c)
	if !ok {
		return
	}

	records, err := s.store.GetQuestionRecords(c.Request.Context(), run.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []*store.QuestionRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"run_id": run.ID, "records": records})
}

func (s *Server) handleExportRun(c *gin.Context) {
	run, ok := s.loadRun(c)
	if !ok {
		return
	}

	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "json")))
	switch format {
	case "json":
		c.JSON(http.StatusOK, run.Report)
	case "csv":
		records, err := s.store.GetQuestionRecords(c.Request.Context(), run.ID)
		if err != nil {
			respondError(c, http.StatusInternalServerError, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", run.ID))
		c.Header("Content-Type", "text/csv")
		c.Status(http.StatusOK)
		if err := export.WriteStoreCSV(c.Writer, records); err != nil {
			respondError(c, http.StatusInternalServerError, err)
		}
	default:
		respondError(c, http.StatusBadRequest, fmt.Errorf("unsupported format %q", format))
	}
}

func (s *Server) loadRun(c *gin.Context) (*store.RunRecord, bool) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return nil, false
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return nil, false
	}

	run, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("run %q not found", id))
			return nil, false
		}
		respondError(c, http.StatusInternalServerError, err)
		return nil, false
	}
	return run, true
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimitParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return limit, nil
}

func newRunID() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("run_%s_%x", time.Now().UTC().Format("20060102T150405Z"), buf), nil
}
