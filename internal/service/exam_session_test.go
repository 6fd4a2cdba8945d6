package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"quiz-drill/internal/domain"
	"quiz-drill/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	session   *ExamSession
	store     domain.ExamStore
	clock     *fakeClock
	scheduler *fakeScheduler
	completed []*domain.ExamResult
}

func newSessionFixture(t *testing.T, mode domain.ExamMode, questions []domain.QuizQuestion) *sessionFixture {
	t.Helper()
	f := &sessionFixture{clock: newFakeClock(), scheduler: &fakeScheduler{}}
	f.store = newMemoryExamStore(f.clock)
	ids := 0
	session, err := NewExamSession(questions, SessionOptions{
		Mode:             mode,
		AutoAdvanceDelay: 1500 * time.Millisecond,
		CompletionDelay:  2 * time.Second,
		Store:            f.store,
		Clock:            f.clock,
		Scheduler:        f.scheduler,
		NewID: func() string {
			ids++
			return fmt.Sprintf("result-%d", ids)
		},
		OnComplete: func(r *domain.ExamResult) { f.completed = append(f.completed, r) },
	})
	require.NoError(t, err)
	f.session = session
	return f
}

func testBank(n int) []domain.QuizQuestion {
	qs := make([]domain.QuizQuestion, 0, n)
	for i := 1; i <= n; i++ {
		if i%5 == 0 {
			qs = append(qs, testQuestion(i, "Security and Compliance", "A", "C"))
			continue
		}
		qs = append(qs, testQuestion(i, "Cloud Concepts", "B"))
	}
	return qs
}

// answer selects the given options and submits.
func answer(t *testing.T, s *ExamSession, options ...string) *domain.UserAnswer {
	t.Helper()
	for _, o := range options {
		require.NoError(t, s.Select(o))
	}
	a, err := s.Submit(context.Background())
	require.NoError(t, err)
	return a
}

func answerCorrectly(t *testing.T, s *ExamSession) *domain.UserAnswer {
	t.Helper()
	q := s.Current()
	return answer(t, s, domain.CorrectOptionValues(&q)...)
}

func assertResultInvariants(t *testing.T, r *domain.ExamResult) {
	t.Helper()
	assert.Equal(t, r.TotalQuestions, r.CorrectAnswers+r.IncorrectAnswers+r.UnattendedQuestions)
	assert.Equal(t, r.IncorrectAnswers+r.UnattendedQuestions, r.WrongAnswers)
}

func TestNewExamSession_Validation(t *testing.T) {
	store := new(MockExamStore)

	_, err := NewExamSession(nil, SessionOptions{Mode: domain.ExamModeExam, Store: store})
	assert.ErrorIs(t, err, &domain.DomainError{Code: domain.CodeInvalidInput})

	_, err = NewExamSession(testBank(1), SessionOptions{Mode: "timed", Store: store})
	assert.ErrorIs(t, err, &domain.DomainError{Code: domain.CodeInvalidInput})

	_, err = NewExamSession(testBank(1), SessionOptions{Mode: domain.ExamModeExam})
	assert.Error(t, err)
}

func TestExamSession_ExamModeAllCorrect(t *testing.T) {
	ctx := context.Background()
	bank := testBank(100)
	f := newSessionFixture(t, domain.ExamModeExam, domain.SelectByRange(bank, 1, 10))
	s := f.session

	for i := 0; i < 10; i++ {
		assert.Equal(t, i, s.Index())
		a := answerCorrectly(t, s)
		assert.True(t, a.IsCorrect)
		assert.Equal(t, PhaseShowingFeedback, s.Phase())
		assert.Zero(t, f.scheduler.Pending(), "exam mode never auto-advances")
		f.clock.Advance(10 * time.Second)
		require.NoError(t, s.Next(ctx))
	}

	require.Equal(t, PhaseCompleted, s.Phase())
	require.Len(t, f.completed, 1)
	r := f.completed[0]
	assert.Equal(t, 10, r.TotalQuestions)
	assert.Equal(t, 10, r.CorrectAnswers)
	assert.Equal(t, 0, r.IncorrectAnswers)
	assert.Equal(t, 0, r.UnattendedQuestions)
	assert.Equal(t, 0, r.WrongAnswers)
	assert.Equal(t, domain.QuestionsRange{Start: 1, End: 10}, r.QuestionsRange)
	assert.Equal(t, 100, r.TimeTaken)
	assert.Len(t, r.UserAnswers, 10)
	assertResultInvariants(t, r)

	history := f.store.ReadExamHistory(ctx)
	require.NotEmpty(t, history)
	assert.Equal(t, r.ID, history[0].ID)
	assert.Empty(t, f.store.ReadMistakes(ctx))
}

func TestExamSession_PracticeIncorrectRecordsMistakeAndWaits(t *testing.T) {
	ctx := context.Background()
	q := testQuestion(42, "Technology", "B")
	f := newSessionFixture(t, domain.ExamModePractice, []domain.QuizQuestion{q})
	s := f.session

	a := answer(t, s, "A")
	assert.False(t, a.IsCorrect)

	mistakes := f.store.ReadMistakes(ctx)
	require.Len(t, mistakes, 1)
	assert.Equal(t, 42, mistakes[0].QuestionSerial)
	assert.Equal(t, 1, mistakes[0].MistakeCount)

	assert.Zero(t, f.scheduler.Pending())
	assert.False(t, s.AutoAdvancing())
	assert.Equal(t, PhaseShowingFeedback, s.Phase())
	assert.Equal(t, 0, s.Index())
	assert.Empty(t, f.completed)

	state := s.State()
	require.NotNil(t, state.Feedback)
	assert.False(t, state.Feedback.IsCorrect)
	assert.Equal(t, []string{"B"}, state.Feedback.CorrectOptions)
	assert.True(t, state.CanNext)

	require.NoError(t, s.Next(ctx))
	require.Len(t, f.completed, 1)
	assert.Equal(t, 1, f.completed[0].IncorrectAnswers)
}

func TestExamSession_MistakeRecordedAtSubmitOnly(t *testing.T) {
	ctx := context.Background()
	store := new(MockExamStore)
	q := testQuestion(3, "Technology", "B")
	store.On("RecordMistake", mock.Anything, 3, q).Return(nil).Once()
	store.On("AppendExamResult", mock.Anything, mock.AnythingOfType("*domain.ExamResult")).Return(nil).Once()

	s, err := NewExamSession([]domain.QuizQuestion{q}, SessionOptions{
		Mode:      domain.ExamModeExam,
		Store:     store,
		Clock:     newFakeClock(),
		Scheduler: &fakeScheduler{},
	})
	require.NoError(t, err)

	answer(t, s, "C")
	require.NoError(t, s.Next(ctx))
	store.AssertExpectations(t)
}

func TestExamSession_Selection(t *testing.T) {
	multi := testQuestion(1, "Technology", "A", "C")
	single := testQuestion(2, "Technology", "B")
	f := newSessionFixture(t, domain.ExamModePractice, []domain.QuizQuestion{multi, single})
	s := f.session

	require.NoError(t, s.Select("A"))
	require.NoError(t, s.Select("B"))
	require.NoError(t, s.Select("B"))
	require.NoError(t, s.Select("C"))
	assert.Equal(t, []string{"A", "C"}, s.Selected())

	err := s.Select("Z")
	assert.ErrorIs(t, err, &domain.DomainError{Code: domain.CodeInvalidInput})

	require.NoError(t, s.JumpTo(1))
	assert.Empty(t, s.Selected(), "selection is cleared on entering a question")
	require.NoError(t, s.Select("A"))
	require.NoError(t, s.Select("D"))
	assert.Equal(t, []string{"D"}, s.Selected())
}

func TestExamSession_SubmitRules(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, domain.ExamModeExam, testBank(2))
	s := f.session

	_, err := s.Submit(ctx)
	assert.ErrorIs(t, err, &domain.DomainError{Code: domain.CodeInvalidInput}, "empty selection")

	err = s.Next(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "next before submitting")

	answer(t, s, "A")
	_, err = s.Submit(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "resubmission")

	err = s.Select("B")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "selection after feedback")
	assert.Len(t, s.Answers(), 1)
}

func TestExamSession_OptionsShuffledButEvaluatedByValue(t *testing.T) {
	q := testQuestion(1, "Technology", "A", "D")
	f := newSessionFixture(t, domain.ExamModeExam, []domain.QuizQuestion{q})
	s := f.session

	presented := s.PresentedOptions()
	assert.ElementsMatch(t, q.Options, presented)

	a := answer(t, s, "D", "A")
	assert.True(t, a.IsCorrect)
}

func TestExamSession_PracticeAutoAdvance(t *testing.T) {
	f := newSessionFixture(t, domain.ExamModePractice, testBank(3))
	s := f.session

	answerCorrectly(t, s)
	assert.True(t, s.AutoAdvancing())
	assert.Equal(t, 1, f.scheduler.Pending())

	// Input is locked while the advance is pending.
	assert.ErrorIs(t, s.Select("A"), domain.ErrInvalidTransition)
	assert.ErrorIs(t, s.Next(context.Background()), domain.ErrInvalidTransition)
	assert.False(t, s.State().CanNext)

	delay, ok := f.scheduler.FireNext()
	require.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, delay)
	assert.Equal(t, 1, s.Index())
	assert.Equal(t, PhaseAwaitingAnswer, s.Phase())
	assert.False(t, s.AutoAdvancing())
}

func TestExamSession_PracticeLastCorrectCompletesAfterDelay(t *testing.T) {
	f := newSessionFixture(t, domain.ExamModePractice, testBank(1))
	s := f.session

	answerCorrectly(t, s)
	delay, ok := f.scheduler.FireNext()
	require.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, delay)
	assert.Empty(t, f.completed)
	assert.True(t, s.AutoAdvancing())

	delay, ok = f.scheduler.FireNext()
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, delay)
	require.Len(t, f.completed, 1)
	assert.Equal(t, PhaseCompleted, s.Phase())
	assertResultInvariants(t, f.completed[0])
}

func TestExamSession_ExitCancelsPendingAdvance(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, domain.ExamModePractice, testBank(3))
	s := f.session

	answerCorrectly(t, s)
	timer := f.scheduler.Last()
	require.NoError(t, s.Exit())
	assert.Equal(t, PhaseExited, s.Phase())
	assert.Zero(t, f.scheduler.Pending())

	// A callback that raced past Stop must still do nothing.
	timer.fn()
	assert.Equal(t, 0, s.Index())
	assert.Empty(t, f.completed)
	assert.Empty(t, f.store.ReadExamHistory(ctx), "exit never writes history")

	assert.ErrorIs(t, s.Exit(), domain.ErrInvalidTransition)
	assert.ErrorIs(t, s.Select("A"), domain.ErrInvalidTransition)
}

func TestExamSession_NavigationCancelsPendingAdvance(t *testing.T) {
	f := newSessionFixture(t, domain.ExamModePractice, testBank(3))
	s := f.session

	answerCorrectly(t, s)
	require.NoError(t, s.JumpTo(1))
	answerCorrectly(t, s)
	stale := f.scheduler.Last()

	require.NoError(t, s.Previous())
	assert.Equal(t, 0, s.Index())
	stale.fn()
	assert.Equal(t, 0, s.Index(), "stale advance must not move the session")
}

func TestExamSession_RevisitIsViewOnly(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, domain.ExamModePractice, testBank(3))
	s := f.session

	answer(t, s, "C")
	require.NoError(t, s.Next(ctx))
	require.NoError(t, s.Previous())

	assert.Equal(t, PhaseShowingFeedback, s.Phase())
	assert.Equal(t, []string{"C"}, s.Selected())
	state := s.State()
	require.NotNil(t, state.Feedback)
	assert.False(t, state.Feedback.IsCorrect)
	for _, opt := range state.Question.Options {
		require.NotNil(t, opt.IsCorrectAns)
	}

	_, err := s.Submit(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Len(t, s.Answers(), 1)

	require.NoError(t, s.Next(ctx))
	assert.Equal(t, 1, s.Index())
}

func TestExamSession_ExamModeRestrictions(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, domain.ExamModeExam, testBank(2))
	s := f.session

	answerCorrectly(t, s)
	require.NoError(t, s.Next(ctx))

	assert.ErrorIs(t, s.Previous(), domain.ErrInvalidTransition)
	assert.ErrorIs(t, s.JumpTo(0), domain.ErrInvalidTransition)
	assert.ErrorIs(t, s.Finish(ctx), domain.ErrInvalidTransition)
	assert.Nil(t, s.State().Sidebar)
}

func TestExamSession_PracticeFinishAndUnattended(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, domain.ExamModePractice, testBank(4))
	s := f.session

	assert.ErrorIs(t, s.Previous(), domain.ErrInvalidTransition, "first question")
	assert.ErrorIs(t, s.JumpTo(9), domain.ErrInvalidInput)

	answer(t, s, "A")
	require.NoError(t, s.JumpTo(3))
	answer(t, s, "C")
	assert.False(t, s.CanFinish())
	assert.ErrorIs(t, s.Finish(ctx), domain.ErrInvalidTransition)

	sidebar := s.State().Sidebar
	require.NotNil(t, sidebar)
	assert.Equal(t, []string{dto.StatusIncorrect, dto.StatusUnanswered, dto.StatusUnanswered, dto.StatusCurrent},
		statuses(sidebar.Questions))
	assert.Equal(t, 2, sidebar.Remaining)

	// Advancing past the last question completes with unattended questions.
	require.NoError(t, s.Next(ctx))
	require.Len(t, f.completed, 1)
	r := f.completed[0]
	assert.Equal(t, 4, r.TotalQuestions)
	assert.Equal(t, 0, r.CorrectAnswers)
	assert.Equal(t, 2, r.IncorrectAnswers)
	assert.Equal(t, 2, r.UnattendedQuestions)
	assert.Equal(t, 4, r.WrongAnswers)
	assertResultInvariants(t, r)
}

func TestExamSession_PracticeEarlyFinish(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, domain.ExamModePractice, testBank(3))
	s := f.session

	for i := 2; i >= 0; i-- {
		require.NoError(t, s.JumpTo(i))
		answer(t, s, "D")
	}
	assert.True(t, s.CanFinish())
	require.NoError(t, s.JumpTo(1))
	require.NoError(t, s.Finish(ctx))

	require.Len(t, f.completed, 1)
	assert.Equal(t, 3, f.completed[0].IncorrectAnswers)
	assert.ErrorIs(t, s.Next(ctx), domain.ErrInvalidTransition)
}

func TestExamSession_SuspendParksAdvance(t *testing.T) {
	f := newSessionFixture(t, domain.ExamModePractice, testBank(2))
	s := f.session

	answerCorrectly(t, s)
	s.Suspend()
	assert.Zero(t, f.scheduler.Pending())
	assert.ErrorIs(t, s.Select("A"), domain.ErrInvalidTransition)

	f.clock.Advance(time.Minute)
	s.Resume()
	assert.Equal(t, 1, f.scheduler.Pending())
	_, ok := f.scheduler.FireNext()
	require.True(t, ok)
	assert.Equal(t, 1, s.Index())
	assert.Equal(t, 60, s.ElapsedSeconds(), "the clock keeps running while paused")
}

func statuses(qs []dto.QuestionStatus) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Status)
	}
	return out
}
