package domain

import (
	"context"
	"time"
)

// StoreError represents an error originating from a record store.
type StoreError string

func (e StoreError) Error() string {
	return string(e)
}

// ErrRecordNotFound is returned when a key has no stored record.
const ErrRecordNotFound = StoreError("store: record not found")

// RecordStore defines the interface (port) for the durable key-value layer.
// Each record is an opaque serialized string owned by a single key.
type RecordStore interface {
	// Get retrieves the record stored under key.
	// It returns ErrRecordNotFound if the key is not present.
	Get(ctx context.Context, key string) (string, error)

	// Set overwrites the record stored under key.
	Set(ctx context.Context, key string, value string) error

	// Delete removes the records stored under keys.
	// Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Ping checks the health of the backing store.
	Ping(ctx context.Context) error
}

// ExamStore is the persistence contract the session and controller rely on.
// Reads never fail: missing or corrupt records degrade to safe defaults.
type ExamStore interface {
	AppendExamResult(ctx context.Context, result *ExamResult) error
	ReadExamHistory(ctx context.Context) []ExamResult
	RecordMistake(ctx context.Context, serial int, question QuizQuestion) error
	ReadMistakes(ctx context.Context) []QuestionMistake
	SaveAppState(ctx context.Context, opts ...AppStateOption) error
	ReadAppState(ctx context.Context) AppState
	ClearAppState(ctx context.Context) error
	ClearAllData(ctx context.Context) error
}

// AppStateOption sets one field of the snapshot during a merge save.
// Fields without an option keep their previously stored value.
type AppStateOption func(*AppState)

func WithMode(mode QuizMode) AppStateOption {
	return func(s *AppState) { s.Mode = mode }
}

// WithExamResult sets the active result; nil clears it.
func WithExamResult(result *ExamResult) AppStateOption {
	return func(s *AppState) { s.CurrentExamResult = result }
}

func WithExamQuestions(questions []QuizQuestion) AppStateOption {
	return func(s *AppState) {
		if questions == nil {
			questions = []QuizQuestion{}
		}
		s.ExamQuestions = questions
	}
}

// WithExamSettings sets the active settings; nil clears them.
func WithExamSettings(settings *ExamSettings) AppStateOption {
	return func(s *AppState) { s.CurrentExamSettings = settings }
}

// Clock abstracts wall time so timing and snapshot ageing can be tested.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Timer is a pending deferred action.
type Timer interface {
	// Stop prevents the action from firing; it reports whether it was still pending.
	Stop() bool
}

// Scheduler runs deferred actions, e.g. the practice-mode auto-advance.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// SystemScheduler schedules with time.AfterFunc.
type SystemScheduler struct{}

func (SystemScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// TransactionManager runs fn inside a single database transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
