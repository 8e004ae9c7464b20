package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultHistoryLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertRunStmt      *sql.Stmt
	insertQuestionStmt *sql.Stmt
	getRunStmt         *sql.Stmt
	questionsByRunStmt *sql.Stmt
}

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := st.prepareStatements(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS batch_runs (
			id TEXT PRIMARY KEY,
			question_set TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			report_json TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS question_records (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			variant TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT,
			refusal INTEGER NOT NULL,
			faithfulness REAL NOT NULL,
			answer_relevancy REAL NOT NULL,
			context_precision REAL NOT NULL,
			context_recall REAL NOT NULL,
			answer_correctness REAL NOT NULL,
			scored INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			error TEXT,
			created_at INTEGER NOT NULL,
			FOREIGN KEY(run_id) REFERENCES batch_runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_question_records_run_id ON question_records(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_question_records_variant ON question_records(run_id, variant)`,
		`CREATE INDEX IF NOT EXISTS idx_batch_runs_started_at ON batch_runs(started_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	ctx := context.Background()
	type stmtSpec struct {
		dst    **sql.Stmt
		query  string
		errFmt string
	}

	specs := []stmtSpec{
		{
			dst: &s.insertRunStmt,
			query: `
				INSERT INTO batch_runs (
					id, question_set, started_at, finished_at, total_questions, report_json
				) VALUES (?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert run: %w",
		},
		{
			dst: &s.insertQuestionStmt,
			query: `
				INSERT INTO question_records (
					id, run_id, question_id, variant, question, answer, refusal,
					faithfulness, answer_relevancy, context_precision, context_recall,
					answer_correctness, scored, elapsed_ms, error, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert question record: %w",
		},
		{
			dst: &s.getRunStmt,
			query: `
				SELECT id, question_set, started_at, finished_at, total_questions, report_json
				FROM batch_runs WHERE id = ?
			`,
			errFmt: "store: prepare get run: %w",
		},
		{
			dst: &s.questionsByRunStmt,
			query: `
				SELECT id, run_id, question_id, variant, question, answer, refusal,
					faithfulness, answer_relevancy, context_precision, context_recall,
					answer_correctness, scored, elapsed_ms, error, created_at
				FROM question_records
				WHERE run_id = ?
				ORDER BY question_id ASC, variant ASC
			`,
			errFmt: "store: prepare get question records: %w",
		},
	}

	for _, spec := range specs {
		stmt, err := s.db.PrepareContext(ctx, spec.query)
		if err != nil {
			return fmt.Errorf(spec.errFmt, err)
		}
		*spec.dst = stmt
	}

	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	stmts := []*sql.Stmt{
		s.insertRunStmt,
		s.insertQuestionStmt,
		s.getRunStmt,
		s.questionsByRunStmt,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun persists a batch run summary.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if run == nil {
		return errors.New("store: nil run")
	}

	id := strings.TrimSpace(run.ID)
	if id == "" {
		return errors.New("store: empty run id")
	}
	if run.StartedAt.IsZero() || run.FinishedAt.IsZero() {
		return errors.New("store: missing run timestamps")
	}

	reportJSON := []byte("null")
	if run.Report != nil {
		var err error
		reportJSON, err = json.Marshal(run.Report)
		if err != nil {
			return fmt.Errorf("store: marshal report: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt := tx.StmtContext(ctx, s.insertRunStmt)
	defer stmt.Close()

	_, err = stmt.ExecContext(
		ctx,
		id,
		run.QuestionSet,
		run.StartedAt.UTC().UnixMilli(),
		run.FinishedAt.UTC().UnixMilli(),
		run.TotalQuestions,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit run: %w", err)
	}
	return nil
}

// SaveQuestionRecord persists one question's variant outcome.
func (s *SQLiteStore) SaveQuestionRecord(ctx context.Context, rec *QuestionRecord) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if rec == nil {
		return errors.New("store: nil question record")
	}

	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return errors.New("store: empty record id")
	}
	if strings.TrimSpace(rec.RunID) == "" {
		return errors.New("store: empty run id")
	}
	if strings.TrimSpace(rec.Variant) == "" {
		return errors.New("store: empty variant")
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin record tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt := tx.StmtContext(ctx, s.insertQuestionStmt)
	defer stmt.Close()

	_, err = stmt.ExecContext(
		ctx,
		id,
		rec.RunID,
		rec.QuestionID,
		rec.Variant,
		rec.Question,
		rec.Answer,
		boolToInt(rec.Refusal),
		rec.Faithfulness,
		rec.AnswerRelevancy,
		rec.ContextPrecision,
		rec.ContextRecall,
		rec.Correctness,
		boolToInt(rec.Scored),
		rec.ElapsedMs,
		rec.Error,
		createdAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store: insert question record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit question record: %w", err)
	}
	return nil
}

// GetRun loads a run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("store: empty run id")
	}

	row := s.getRunStmt.QueryRowContext(ctx, id)
	rec, err := scanRunRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: get run: %w", err)
	}
	return rec, nil
}

// ListRuns returns runs matching the filter, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, question_set, started_at, finished_at, total_questions, report_json FROM batch_runs WHERE 1=1`)

	var args []any
	if qs := strings.TrimSpace(filter.QuestionSet); qs != "" {
		sb.WriteString(` AND question_set = ?`)
		args = append(args, qs)
	}
	if !filter.Since.IsZero() {
		sb.WriteString(` AND started_at >= ?`)
		args = append(args, filter.Since.UTC().UnixMilli())
	}
	if !filter.Until.IsZero() {
		sb.WriteString(` AND started_at <= ?`)
		args = append(args, filter.Until.UTC().UnixMilli())
	}
	sb.WriteString(` ORDER BY started_at DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		rec, err := scanRunRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return out, nil
}

// GetQuestionRecords lists question records for a run.
func (s *SQLiteStore) GetQuestionRecords(ctx context.Context, runID string) ([]*QuestionRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, errors.New("store: empty run id")
	}

	rows, err := s.questionsByRunStmt.QueryContext(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("store: get question records: %w", err)
	}
	defer rows.Close()

	var out []*QuestionRecord
	for rows.Next() {
		var (
			rec       QuestionRecord
			refusal   int
			scored    int
			answer    sql.NullString
			errText   sql.NullString
			createdMS int64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.QuestionID,
			&rec.Variant,
			&rec.Question,
			&answer,
			&refusal,
			&rec.Faithfulness,
			&rec.AnswerRelevancy,
			&rec.ContextPrecision,
			&rec.ContextRecall,
			&rec.Correctness,
			&scored,
			&rec.ElapsedMs,
			&errText,
			&createdMS,
		); err != nil {
			return nil, fmt.Errorf("store: scan question record: %w", err)
		}
		rec.Answer = answer.String
		rec.Error = errText.String
		rec.Refusal = refusal != 0
		rec.Scored = scored != 0
		rec.CreatedAt = time.UnixMilli(createdMS).UTC()
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan question records: %w", err)
	}
	return out, nil
}

func scanRunRow(scan func(...any) error) (*RunRecord, error) {
	var (
		id         string
		qset       string
		startedMS  int64
		finishedMS int64
		total      int
		reportJSON sql.NullString
	)
	if err := scan(&id, &qset, &startedMS, &finishedMS, &total, &reportJSON); err != nil {
		return nil, err
	}

	report, err := decodeReport(reportJSON)
	if err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	return &RunRecord{
		ID:             id,
		QuestionSet:    qset,
		StartedAt:      time.UnixMilli(startedMS).UTC(),
		FinishedAt:     time.UnixMilli(finishedMS).UTC(),
		TotalQuestions: total,
		Report:         report,
	}, nil
}

func decodeReport(reportJSON sql.NullString) (map[string]any, error) {
	if !reportJSON.Valid {
		return nil, nil
	}
	raw := strings.TrimSpace(reportJSON.String)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var report map[string]any
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, err
	}
	return report, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
