package service

import (
	"context"
	"sort"
	"time"

	"quiz-drill/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockExamStore ---
type MockExamStore struct {
	mock.Mock
}

func (m *MockExamStore) AppendExamResult(ctx context.Context, result *domain.ExamResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockExamStore) ReadExamHistory(ctx context.Context) []domain.ExamResult {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return []domain.ExamResult{}
	}
	return args.Get(0).([]domain.ExamResult)
}

func (m *MockExamStore) RecordMistake(ctx context.Context, serial int, question domain.QuizQuestion) error {
	args := m.Called(ctx, serial, question)
	return args.Error(0)
}

func (m *MockExamStore) ReadMistakes(ctx context.Context) []domain.QuestionMistake {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return []domain.QuestionMistake{}
	}
	return args.Get(0).([]domain.QuestionMistake)
}

func (m *MockExamStore) SaveAppState(ctx context.Context, opts ...domain.AppStateOption) error {
	args := m.Called(ctx, opts)
	return args.Error(0)
}

func (m *MockExamStore) ReadAppState(ctx context.Context) domain.AppState {
	args := m.Called(ctx)
	return args.Get(0).(domain.AppState)
}

func (m *MockExamStore) ClearAppState(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockExamStore) ClearAllData(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- MockRecordStore ---
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockRecordStore) Set(ctx context.Context, key string, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockRecordStore) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockRecordStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- fakeClock ---
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// --- fakeScheduler ---
// Timers only fire when the test calls FireNext.
type fakeTimer struct {
	delay   time.Duration
	fn      func()
	seq     int
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) domain.Timer {
	t := &fakeTimer{delay: d, fn: fn, seq: len(s.timers)}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) pending() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Pending reports how many timers are armed.
func (s *fakeScheduler) Pending() int { return len(s.pending()) }

// FireNext fires the oldest armed timer and returns its delay.
func (s *fakeScheduler) FireNext() (time.Duration, bool) {
	p := s.pending()
	if len(p) == 0 {
		return 0, false
	}
	t := p[0]
	t.fired = true
	t.fn()
	return t.delay, true
}

// Last returns the most recently created timer, armed or not.
func (s *fakeScheduler) Last() *fakeTimer {
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}
