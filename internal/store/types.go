package store

import (
	"context"
	"time"
)

// RunWriter defines persistence for batch runs and question records.
type RunWriter interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	SaveQuestionRecord(ctx context.Context, rec *QuestionRecord) error
}

// RunReader defines read access to run history.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error)
	GetQuestionRecords(ctx context.Context, runID string) ([]*QuestionRecord, error)
}

// Store defines persistence for batch evaluation history.
type Store interface {
	RunWriter
	RunReader
	Close() error
}

// RunRecord stores one batch run summary. The full report keeps its
// shape as JSON so the schema does not chase every report field.
type RunRecord struct {
	ID             string
	QuestionSet    string
	StartedAt      time.Time
	FinishedAt     time.Time
	TotalQuestions int
	Report         map[string]any
}

// QuestionRecord stores one question's outcome for one variant.
type QuestionRecord struct {
	ID               string
	RunID            string
	QuestionID       string
	Variant          string
	Question         string
	Answer           string
	Refusal          bool
	Faithfulness     float64
	AnswerRelevancy  float64
	ContextPrecision float64
	ContextRecall    float64
	Correctness      float64
	Scored           bool
	ElapsedMs        int64
	Error            string
	CreatedAt        time.Time
}

// RunFilter filters run listings.
type RunFilter struct {
	QuestionSet string
	Since       time.Time
	Until       time.Time
	Limit       int
}
