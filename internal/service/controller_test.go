package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"quiz-drill/internal/bank"
	"quiz-drill/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type controllerFixture struct {
	ctrl      *Controller
	store     domain.ExamStore
	bank      *bank.Bank
	clock     *fakeClock
	scheduler *fakeScheduler
}

func newControllerFixture(t *testing.T, seed func(ctx context.Context, store domain.ExamStore, clock *fakeClock)) *controllerFixture {
	t.Helper()
	ctx := context.Background()
	f := &controllerFixture{clock: newFakeClock(), scheduler: &fakeScheduler{}}
	f.store = newMemoryExamStore(f.clock)

	b, err := bank.New(testBank(20))
	require.NoError(t, err)
	f.bank = b

	if seed != nil {
		seed(ctx, f.store, f.clock)
	}

	ids := 0
	ctrl, err := NewController(ctx, ControllerOptions{
		Bank:             b,
		Store:            f.store,
		Clock:            f.clock,
		Scheduler:        f.scheduler,
		Rand:             rand.New(rand.NewPCG(1, 2)),
		NewID:            func() string { ids++; return fmt.Sprintf("result-%d", ids) },
		AutoAdvanceDelay: 1500 * time.Millisecond,
		CompletionDelay:  2 * time.Second,
	})
	require.NoError(t, err)
	f.ctrl = ctrl
	return f
}

// answerCurrent answers the current question correctly or with a wrong option.
func (f *controllerFixture) answerCurrent(t *testing.T, correct bool) {
	t.Helper()
	ctx := context.Background()
	screen := f.ctrl.Screen()
	require.NotNil(t, screen.Exam)

	q, ok := f.bank.Find(screen.Exam.Question.Serial)
	require.True(t, ok)
	options := domain.CorrectOptionValues(&q)
	if !correct {
		options = []string{"D"}
	}
	for _, o := range options {
		_, err := f.ctrl.SelectOption(o)
		require.NoError(t, err)
	}
	_, err := f.ctrl.SubmitAnswer(ctx)
	require.NoError(t, err)
}

func seedSnapshot(age time.Duration, opts ...domain.AppStateOption) func(context.Context, domain.ExamStore, *fakeClock) {
	return func(ctx context.Context, store domain.ExamStore, clock *fakeClock) {
		saved := clock.Now()
		clock.now = saved.Add(-age)
		_ = store.SaveAppState(ctx, opts...)
		clock.now = saved
	}
}

func TestController_StartsInSetup(t *testing.T) {
	f := newControllerFixture(t, nil)

	screen := f.ctrl.Screen()
	assert.Equal(t, domain.QuizModeSetup, screen.Mode)
	require.NotNil(t, screen.Setup)
	assert.Equal(t, 20, screen.Setup.TotalQuestions)
	assert.Equal(t, domain.ExamSettings{StartQuestion: 1, EndQuestion: 20, Mode: domain.ExamModePractice}, screen.Setup.DefaultSettings)
	assert.Len(t, screen.Setup.Presets, 4)
	assert.False(t, screen.Setup.HasHistory)
	assert.Nil(t, screen.Setup.Paused)
}

func TestController_RestoreGating(t *testing.T) {
	settings := &domain.ExamSettings{StartQuestion: 1, EndQuestion: 3, Mode: domain.ExamModeExam}
	questions := testBank(3)
	result := &domain.ExamResult{ID: "r1", QuestionsRange: domain.QuestionsRange{Start: 1, End: 3}, TotalQuestions: 3, UnattendedQuestions: 3, WrongAnswers: 3}

	tests := []struct {
		name string
		seed func(context.Context, domain.ExamStore, *fakeClock)
		want domain.QuizMode
	}{
		{
			name: "recent exam snapshot resumes a fresh session",
			seed: seedSnapshot(time.Hour, domain.WithMode(domain.QuizModeExam), domain.WithExamSettings(settings), domain.WithExamQuestions(questions)),
			want: domain.QuizModeExam,
		},
		{
			name: "stale exam snapshot is ignored",
			seed: seedSnapshot(25*time.Hour, domain.WithMode(domain.QuizModeExam), domain.WithExamSettings(settings), domain.WithExamQuestions(questions)),
			want: domain.QuizModeSetup,
		},
		{
			name: "exam snapshot without questions falls back",
			seed: seedSnapshot(time.Hour, domain.WithMode(domain.QuizModeExam), domain.WithExamSettings(settings)),
			want: domain.QuizModeSetup,
		},
		{
			name: "results snapshot restores results",
			seed: seedSnapshot(time.Hour, domain.WithMode(domain.QuizModeResults), domain.WithExamResult(result), domain.WithExamQuestions(questions)),
			want: domain.QuizModeResults,
		},
		{
			name: "results snapshot without result falls back",
			seed: seedSnapshot(time.Hour, domain.WithMode(domain.QuizModeResults)),
			want: domain.QuizModeSetup,
		},
		{
			name: "overview snapshot without questions opens results",
			seed: seedSnapshot(time.Hour, domain.WithMode(domain.QuizModeOverview), domain.WithExamResult(result)),
			want: domain.QuizModeResults,
		},
		{
			name: "history snapshot restores history",
			seed: seedSnapshot(2*time.Hour, domain.WithMode(domain.QuizModeHistory)),
			want: domain.QuizModeHistory,
		},
		{
			name: "setup snapshot stays in setup",
			seed: seedSnapshot(time.Minute, domain.WithMode(domain.QuizModeSetup)),
			want: domain.QuizModeSetup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newControllerFixture(t, tt.seed)
			assert.Equal(t, tt.want, f.ctrl.CurrentMode())

			state := f.store.ReadAppState(context.Background())
			assert.Equal(t, tt.want, state.Mode)
			assert.Equal(t, f.clock.Now(), state.LastSaved)
		})
	}
}

func TestController_RestoredExamStartsOver(t *testing.T) {
	settings := &domain.ExamSettings{StartQuestion: 1, EndQuestion: 3, Mode: domain.ExamModeExam}
	f := newControllerFixture(t, seedSnapshot(time.Hour,
		domain.WithMode(domain.QuizModeExam), domain.WithExamSettings(settings), domain.WithExamQuestions(testBank(3))))

	screen := f.ctrl.Screen()
	require.NotNil(t, screen.Exam)
	assert.Equal(t, 0, screen.Exam.Index)
	assert.Equal(t, 3, screen.Exam.Total)
	assert.Equal(t, 0, screen.Exam.Answered)
	assert.Equal(t, domain.ExamModeExam, screen.Exam.Mode)
}

func TestController_StartExamValidation(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, nil)

	_, err := f.ctrl.StartExam(ctx, domain.ExamSettings{StartQuestion: 15, EndQuestion: 5, Mode: domain.ExamModeExam})
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.Messages(), "Start question cannot be greater than end question")
	assert.Equal(t, domain.QuizModeSetup, f.ctrl.CurrentMode())

	_, err = f.ctrl.StartPreset(ctx, "1-500", domain.ExamModeExam)
	assert.Error(t, err)
	assert.Equal(t, domain.QuizModeSetup, f.ctrl.CurrentMode())

	_, err = f.ctrl.Next(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestController_ExamFlowToResults(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, nil)

	screen, err := f.ctrl.StartExam(ctx, domain.ExamSettings{StartQuestion: 1, EndQuestion: 3, Mode: domain.ExamModeExam})
	require.NoError(t, err)
	assert.Equal(t, domain.QuizModeExam, screen.Mode)

	state := f.store.ReadAppState(ctx)
	assert.Equal(t, domain.QuizModeExam, state.Mode)
	assert.Len(t, state.ExamQuestions, 3)
	require.NotNil(t, state.CurrentExamSettings)

	f.answerCurrent(t, true)
	_, err = f.ctrl.Next(ctx)
	require.NoError(t, err)
	f.answerCurrent(t, false)
	_, err = f.ctrl.Next(ctx)
	require.NoError(t, err)
	f.answerCurrent(t, true)

	screen, err = f.ctrl.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizModeResults, screen.Mode)
	require.NotNil(t, screen.Results)
	assert.Equal(t, 2, screen.Results.Result.CorrectAnswers)
	assert.Equal(t, 67, screen.Results.Percentage)
	assert.True(t, screen.Results.CanRetake)

	state = f.store.ReadAppState(ctx)
	assert.Equal(t, domain.QuizModeResults, state.Mode)
	require.NotNil(t, state.CurrentExamResult)
	assert.Equal(t, "result-1", state.CurrentExamResult.ID)

	history := f.ctrl.History()
	require.Len(t, history.Entries, 1)
	assert.Equal(t, "result-1", history.Entries[0].ID)

	mistakes, err := f.ctrl.Mistakes(MistakeQuery{})
	require.NoError(t, err)
	require.Len(t, mistakes.Mistakes, 1)
	assert.Equal(t, 2, mistakes.Mistakes[0].QuestionSerial)
}

func TestController_PracticeAutoAdvanceCompletes(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, nil)

	_, err := f.ctrl.StartExam(ctx, domain.ExamSettings{StartQuestion: 1, EndQuestion: 2, Mode: domain.ExamModePractice})
	require.NoError(t, err)

	f.answerCurrent(t, true)
	delay, ok := f.scheduler.FireNext()
	require.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, delay)
	assert.Equal(t, 1, f.ctrl.Screen().Exam.Index)

	f.answerCurrent(t, true)
	_, ok = f.scheduler.FireNext()
	require.True(t, ok)
	delay, ok = f.scheduler.FireNext()
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, delay)

	assert.Equal(t, domain.QuizModeResults, f.ctrl.CurrentMode())
	assert.Equal(t, domain.QuizModeResults, f.store.ReadAppState(ctx).Mode)
}

func TestController_PauseAndResume(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, nil)

	_, err := f.ctrl.StartExam(ctx, domain.ExamSettings{StartQuestion: 1, EndQuestion: 5, Mode: domain.ExamModePractice})
	require.NoError(t, err)
	f.answerCurrent(t, true)
	require.Equal(t, 1, f.scheduler.Pending())

	_, err = f.ctrl.PauseExam(ctx, false)
	assert.ErrorIs(t, err, domain.ErrConfirmationRequired)
	assert.Equal(t, domain.QuizModeExam, f.ctrl.CurrentMode())

	screen, err := f.ctrl.PauseExam(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizModeSetup, screen.Mode)
	require.NotNil(t, screen.Setup.Paused)
	assert.Equal(t, 1, screen.Setup.Paused.Answered)
	assert.Equal(t, 0, f.scheduler.Pending())

	state := f.store.ReadAppState(ctx)
	assert.Equal(t, domain.QuizModeSetup, state.Mode)
	assert.Len(t, state.ExamQuestions, 5)

	// The paused exam survives a detour through the history view.
	_, err = f.ctrl.ViewHistory(ctx)
	require.NoError(t, err)
	screen, err = f.ctrl.Back(ctx)
	require.NoError(t, err)
	require.NotNil(t, screen.Setup.Paused)

	screen, err = f.ctrl.ResumeExam(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizModeExam, screen.Mode)
	assert.Equal(t, 1, f.scheduler.Pending())

	_, ok := f.scheduler.FireNext()
	require.True(t, ok)
	assert.Equal(t, 1, f.ctrl.Screen().Exam.Index)
}

func TestController_ResumeWithoutPausedExam(t *testing.T) {
	f := newControllerFixture(t, nil)
	_, err := f.ctrl.ResumeExam(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestController_ExitDiscardsSession(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, nil)

	_, err := f.ctrl.StartExam(ctx, domain.ExamSettings{StartQuestion: 1, EndQuestion: 5, Mode: domain.ExamModePractice})
	require.NoError(t, err)
	f.answerCurrent(t, true)

	_, err = f.ctrl.ExitExam(ctx, false)
	assert.ErrorIs(t, err, domain.ErrConfirmationRequired)

	screen, err := f.ctrl.ExitExam(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizModeSetup, screen.Mode)
	assert.Nil(t, screen.Setup.Paused)
	assert.Equal(t, 0, f.scheduler.Pending())
	assert.Empty(t, f.ctrl.History().Entries)

	state := f.store.ReadAppState(ctx)
	assert.Equal(t, domain.QuizModeSetup, state.Mode)
	assert.Empty(t, state.ExamQuestions)
	assert.Nil(t, state.CurrentExamSettings)
}

func TestController_BrowsingFromExamIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, nil)
	_, err := f.ctrl.StartExam(ctx, domain.ExamSettings{StartQuestion: 1, EndQuestion: 5, Mode: domain.ExamModeExam})
	require.NoError(t, err)

	_, err = f.ctrl.ViewHistory(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.ctrl.ViewMistakes(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.ctrl.Back(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.QuizModeExam, f.ctrl.CurrentMode())
}

func TestController_OverviewRequiresQuestions(t *testing.T) {
	ctx := context.Background()
	result := &domain.ExamResult{ID: "r1", QuestionsRange: domain.QuestionsRange{Start: 1, End: 3}, TotalQuestions: 3, UnattendedQuestions: 3, WrongAnswers: 3}
	f := newControllerFixture(t, seedSnapshot(time.Hour, domain.WithMode(domain.QuizModeResults), domain.WithExamResult(result)))
	require.Equal(t, domain.QuizModeResults, f.ctrl.CurrentMode())

	_, err := f.ctrl.ViewOverview(ctx)
	require.ErrorIs(t, err, domain.ErrDataNotAvailable)
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "results", derr.Context["fallback"])
	assert.Equal(t, domain.QuizModeResults, f.ctrl.CurrentMode())

	_, err = f.ctrl.RetakeExam(ctx)
	assert.ErrorIs(t, err, domain.ErrDataNotAvailable)

	_, err = f.ctrl.Overview("", "all")
	assert.ErrorIs(t, err, domain.ErrDataNotAvailable)
}

func TestController_OverviewAndBack(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, nil)

	_, err := f.ctrl.StartExam(ctx, domain.ExamSettings{StartQuestion: 1, EndQuestion: 2, Mode: domain.ExamModeExam})
	require.NoError(t, err)
	f.answerCurrent(t, false)
	_, err = f.ctrl.Next(ctx)
	require.NoError(t, err)
	f.answerCurrent(t, true)
	_, err = f.ctrl.Next(ctx)
	require.NoError(t, err)

	screen, err := f.ctrl.ViewOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizModeOverview, screen.Mode)
	require.NotNil(t, screen.Overview)
	assert.Len(t, screen.Overview.Questions, 2)

	incorrect, err := f.ctrl.Overview("", "incorrect")
	require.NoError(t, err)
	require.Len(t, incorrect.Questions, 1)
	assert.Equal(t, 1, incorrect.Questions[0].Question.Serial)

	_, err = f.ctrl.Overview("", "skipped")
	assert.Error(t, err)

	screen, err = f.ctrl.Back(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizModeResults, screen.Mode)

	screen, err = f.ctrl.Back(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizModeSetup, screen.Mode)
	assert.True(t, screen.Setup.HasHistory)
	assert.True(t, screen.Setup.HasMistakes)
}

func TestController_RetakeUsesSameQuestions(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, nil)

	_, err := f.ctrl.StartExam(ctx, domain.ExamSettings{StartQuestion: 4, EndQuestion: 5, Mode: domain.ExamModeExam})
	require.NoError(t, err)
	f.answerCurrent(t, true)
	_, err = f.ctrl.Next(ctx)
	require.NoError(t, err)
	f.answerCurrent(t, true)
	_, err = f.ctrl.Next(ctx)
	require.NoError(t, err)

	screen, err := f.ctrl.RetakeExam(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizModeExam, screen.Mode)
	assert.Equal(t, 2, screen.Exam.Total)
	assert.Equal(t, 4, screen.Exam.Question.Serial)
	assert.Equal(t, 0, screen.Exam.Answered)
}

func TestController_ViewHistoryResult(t *testing.T) {
	ctx := context.Background()
	past := domain.ExamResult{ID: "past", QuestionsRange: domain.QuestionsRange{Start: 2, End: 4}, TotalQuestions: 3, CorrectAnswers: 3}
	f := newControllerFixture(t, func(ctx context.Context, store domain.ExamStore, _ *fakeClock) {
		_ = store.AppendExamResult(ctx, &past)
	})

	_, err := f.ctrl.ViewHistoryResult(ctx, "past")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	screen, err := f.ctrl.ViewHistory(ctx)
	require.NoError(t, err)
	require.Len(t, screen.History.Entries, 1)

	_, err = f.ctrl.ViewHistoryResult(ctx, "missing")
	assert.ErrorIs(t, err, &domain.DomainError{Code: domain.CodeResultNotFound})

	screen, err = f.ctrl.ViewHistoryResult(ctx, "past")
	require.NoError(t, err)
	assert.Equal(t, domain.QuizModeResults, screen.Mode)
	assert.Equal(t, 100, screen.Results.Percentage)
	require.Len(t, screen.Results.Review, 3)
	assert.Equal(t, 2, screen.Results.Review[0].Question.Serial)

	screen, err = f.ctrl.RetakeExam(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ExamModePractice, screen.Exam.Mode)
	assert.Equal(t, 3, screen.Exam.Total)
}

func TestController_PracticeMistake(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, func(ctx context.Context, store domain.ExamStore, _ *fakeClock) {
		_ = store.RecordMistake(ctx, 7, testQuestion(7, "Cloud Concepts", "B"))
	})

	_, err := f.ctrl.ViewMistakes(ctx)
	require.NoError(t, err)

	_, err = f.ctrl.PracticeMistake(ctx, 99)
	assert.ErrorIs(t, err, &domain.DomainError{Code: domain.CodeQuestionNotFound})

	screen, err := f.ctrl.PracticeMistake(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizModeExam, screen.Mode)
	assert.Equal(t, domain.ExamModePractice, screen.Exam.Mode)
	assert.Equal(t, 1, screen.Exam.Total)
	assert.Equal(t, 7, screen.Exam.Question.Serial)

	state := f.store.ReadAppState(ctx)
	require.NotNil(t, state.CurrentExamSettings)
	assert.Equal(t, domain.ExamSettings{StartQuestion: 7, EndQuestion: 7, Mode: domain.ExamModePractice}, *state.CurrentExamSettings)
}

func TestController_ClearAllData(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, func(ctx context.Context, store domain.ExamStore, _ *fakeClock) {
		_ = store.AppendExamResult(ctx, &domain.ExamResult{ID: "old"})
		_ = store.RecordMistake(ctx, 1, testQuestion(1, "Cloud Concepts", "B"))
	})

	_, err := f.ctrl.ClearAllData(ctx, false)
	assert.ErrorIs(t, err, domain.ErrConfirmationRequired)
	assert.Len(t, f.ctrl.History().Entries, 1)

	screen, err := f.ctrl.ClearAllData(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizModeSetup, screen.Mode)
	assert.False(t, screen.Setup.HasHistory)
	assert.False(t, screen.Setup.HasMistakes)
	assert.Empty(t, f.store.ReadExamHistory(ctx))
	assert.Empty(t, f.store.ReadMistakes(ctx))
}

func TestController_StaleTimerAfterExitIsIgnored(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, nil)

	_, err := f.ctrl.StartExam(ctx, domain.ExamSettings{StartQuestion: 1, EndQuestion: 1, Mode: domain.ExamModePractice})
	require.NoError(t, err)
	f.answerCurrent(t, true)
	timer := f.scheduler.Last()
	require.NotNil(t, timer)

	_, err = f.ctrl.ExitExam(ctx, true)
	require.NoError(t, err)

	timer.fn()
	assert.Equal(t, domain.QuizModeSetup, f.ctrl.CurrentMode())
	assert.Empty(t, f.ctrl.History().Entries)
}
