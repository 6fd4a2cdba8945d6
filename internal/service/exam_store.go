package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quiz-drill/internal/cache"
	"quiz-drill/internal/domain"
	"quiz-drill/internal/logger"

	"go.uber.org/zap"
)

// examStoreService implements domain.ExamStore over a RecordStore.
// History, mistakes and the app snapshot are three independent records.
type examStoreService struct {
	records domain.RecordStore
	clock   domain.Clock

	historyKey  string
	mistakesKey string
	appStateKey string
}

// NewExamStoreService namespaces its keys with prefix.
func NewExamStoreService(records domain.RecordStore, clock domain.Clock, prefix string) domain.ExamStore {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &examStoreService{
		records:     records,
		clock:       clock,
		historyKey:  cache.GenerateKeyWithPrefix(prefix, "exam", "history", "log"),
		mistakesKey: cache.GenerateKeyWithPrefix(prefix, "exam", "mistakes", "tally"),
		appStateKey: cache.GenerateKeyWithPrefix(prefix, "app", "state", "snapshot"),
	}
}

// loadRecord decodes the record at key into dest and reports whether it was
// usable. A missing or corrupt record reports false with a nil error. Backend
// failures are returned so read-modify-write callers never overwrite a record
// they could not read.
func (s *examStoreService) loadRecord(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := s.records.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read record %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.Get().Warn("ExamStore: corrupt record, using default", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

// readRecord is loadRecord for display reads; a backend failure falls back
// to the default.
func (s *examStoreService) readRecord(ctx context.Context, key string, dest interface{}) bool {
	ok, err := s.loadRecord(ctx, key, dest)
	if err != nil {
		logger.Get().Warn("ExamStore: failed to read record, using default", zap.String("key", key), zap.Error(err))
	}
	return ok
}

func (s *examStoreService) writeRecord(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", key, err)
	}
	if err := s.records.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to write record %s: %w", key, err)
	}
	return nil
}

// AppendExamResult prepends result so the log stays most-recent-first.
// The write is skipped when the existing log cannot be read.
func (s *examStoreService) AppendExamResult(ctx context.Context, result *domain.ExamResult) error {
	if result == nil {
		return domain.NewInvalidInputError("exam result is required")
	}
	var history []domain.ExamResult
	ok, err := s.loadRecord(ctx, s.historyKey, &history)
	if err != nil {
		return err
	}
	if !ok {
		history = nil
	}
	history = append([]domain.ExamResult{*result}, history...)
	return s.writeRecord(ctx, s.historyKey, history)
}

func (s *examStoreService) ReadExamHistory(ctx context.Context) []domain.ExamResult {
	var history []domain.ExamResult
	if !s.readRecord(ctx, s.historyKey, &history) || history == nil {
		return []domain.ExamResult{}
	}
	return history
}

// RecordMistake upserts the tally entry for serial.
func (s *examStoreService) RecordMistake(ctx context.Context, serial int, question domain.QuizQuestion) error {
	var mistakes []domain.QuestionMistake
	ok, err := s.loadRecord(ctx, s.mistakesKey, &mistakes)
	if err != nil {
		return err
	}
	if !ok {
		mistakes = nil
	}
	now := s.clock.Now()

	found := false
	for i := range mistakes {
		if mistakes[i].QuestionSerial == serial {
			mistakes[i].MistakeCount++
			mistakes[i].LastMistakeDate = now
			found = true
			break
		}
	}
	if !found {
		mistakes = append(mistakes, domain.QuestionMistake{
			QuestionSerial:  serial,
			MistakeCount:    1,
			LastMistakeDate: now,
			Question:        question,
		})
	}
	return s.writeRecord(ctx, s.mistakesKey, mistakes)
}

func (s *examStoreService) ReadMistakes(ctx context.Context) []domain.QuestionMistake {
	var mistakes []domain.QuestionMistake
	if !s.readRecord(ctx, s.mistakesKey, &mistakes) || mistakes == nil {
		return []domain.QuestionMistake{}
	}
	return mistakes
}

// SaveAppState merges opts into the stored snapshot and stamps LastSaved.
func (s *examStoreService) SaveAppState(ctx context.Context, opts ...domain.AppStateOption) error {
	state := s.ReadAppState(ctx)
	for _, opt := range opts {
		opt(&state)
	}
	state.LastSaved = s.clock.Now()
	return s.writeRecord(ctx, s.appStateKey, state)
}

func (s *examStoreService) ReadAppState(ctx context.Context) domain.AppState {
	var state domain.AppState
	if !s.readRecord(ctx, s.appStateKey, &state) {
		return domain.DefaultAppState(s.clock.Now())
	}
	if state.Mode == "" {
		state.Mode = domain.QuizModeSetup
	}
	if state.ExamQuestions == nil {
		state.ExamQuestions = []domain.QuizQuestion{}
	}
	return state
}

func (s *examStoreService) ClearAppState(ctx context.Context) error {
	return s.records.Delete(ctx, s.appStateKey)
}

func (s *examStoreService) ClearAllData(ctx context.Context) error {
	return s.records.Delete(ctx, s.historyKey, s.mistakesKey, s.appStateKey)
}
