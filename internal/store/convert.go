package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stellarlinkco/rag-eval/internal/evalrun"
	"github.com/stellarlinkco/rag-eval/internal/retrieval"
)

// BuildRunRecord flattens a report into its run-summary row. The report
// itself is kept as loosely typed JSON.
func BuildRunRecord(report *evalrun.Report, finishedAt time.Time) (*RunRecord, error) {
	if report == nil {
		return nil, fmt.Errorf("store: nil report")
	}

	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("store: marshal report: %w", err)
	}
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return nil, fmt.Errorf("store: reshape report: %w", err)
	}
	// The per-question records are stored in their own table.
	delete(asMap, "records")

	return &RunRecord{
		ID:             report.RunID,
		QuestionSet:    report.QuestionSet,
		StartedAt:      report.StartedAt,
		FinishedAt:     finishedAt,
		TotalQuestions: report.Total,
		Report:         asMap,
	}, nil
}

// BuildQuestionRecords flattens a report into one row per question and
// variant.
func BuildQuestionRecords(report *evalrun.Report) []*QuestionRecord {
	if report == nil {
		return nil
	}

	variants := []retrieval.Variant{retrieval.VariantOriginal, retrieval.VariantReranked}
	var out []*QuestionRecord
	for _, rec := range report.Records {
		for _, v := range variants {
			res := rec.Result(v)
			if res == nil {
				continue
			}
			qr := &QuestionRecord{
				ID:         fmt.Sprintf("%s_%s_%s", report.RunID, rec.Question.ID, v),
				RunID:      report.RunID,
				QuestionID: rec.Question.ID,
				Variant:    string(v),
				Question:   rec.Question.Question,
				Answer:     res.Answer,
				Refusal:    res.Refusal,
				ElapsedMs:  res.ElapsedMs,
				Error:      res.Error,
			}
			if res.Metrics != nil {
				qr.Scored = true
				qr.Faithfulness = res.Metrics.Faithfulness
				qr.AnswerRelevancy = res.Metrics.AnswerRelevancy
				qr.ContextPrecision = res.Metrics.ContextPrecision
				qr.ContextRecall = res.Metrics.ContextRecall
				qr.Correctness = res.Metrics.Correctness.Standard
			}
			out = append(out, qr)
		}
	}
	return out
}

// SaveReport persists a finished batch run and all its question rows.
func SaveReport(ctx context.Context, st Store, report *evalrun.Report, finishedAt time.Time) error {
	run, err := BuildRunRecord(report, finishedAt)
	if err != nil {
		return err
	}
	if err := st.SaveRun(ctx, run); err != nil {
		return err
	}
	for _, qr := range BuildQuestionRecords(report) {
		if err := st.SaveQuestionRecord(ctx, qr); err != nil {
			return err
		}
	}
	return nil
}
