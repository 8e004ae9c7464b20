package api

import (
	"context"

	"github.com/stellarlinkco/rag-eval/internal/store"
)

type fakeStore struct {
	SaveRunFunc            func(ctx context.Context, run *store.RunRecord) error
	SaveQuestionRecordFunc func(ctx context.Context, rec *store.QuestionRecord) error
	GetRunFunc             func(ctx context.Context, id string) (*store.RunRecord, error)
	ListRunsFunc           func(ctx context.Context, filter store.RunFilter) ([]*store.RunRecord, error)
	GetQuestionRecordsFunc func(ctx context.Context, runID string) ([]*store.QuestionRecord, error)
	CloseFunc              func() error
}

func (s *fakeStore) SaveRun(ctx context.Context, run *store.RunRecord) error {
	if s.SaveRunFunc != nil {
		return s.SaveRunFunc(ctx, run)
	}
	return nil
}

func (s *fakeStore) SaveQuestionRecord(ctx context.Context, rec *store.QuestionRecord) error {
	if s.SaveQuestionRecordFunc != nil {
		return s.SaveQuestionRecordFunc(ctx, rec)
	}
	return nil
}

func (s *fakeStore) GetRun(ctx context.Context, id string) (*store.RunRecord, error) {
	if s.GetRunFunc != nil {
		return s.GetRunFunc(ctx, id)
	}
	return nil, nil
}

func (s *fakeStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]*store.RunRecord, error) {
	if s.ListRunsFunc != nil {
		return s.ListRunsFunc(ctx, filter)
	}
	return nil, nil
}

func (s *fakeStore) GetQuestionRecords(ctx context.Context, runID string) ([]*store.QuestionRecord, error) {
	if s.GetQuestionRecordsFunc != nil {
		return s.GetQuestionRecordsFunc(ctx, runID)
	}
	return nil, nil
}

func (s *fakeStore) Close() error {
	if s.CloseFunc != nil {
		return s.CloseFunc()
	}
	return nil
}
