package service

import (
	"context"
	"math/rand/v2"
	"time"

	"quiz-drill/internal/domain"
	"quiz-drill/internal/dto"
	"quiz-drill/internal/logger"
	"quiz-drill/internal/util"

	"go.uber.org/zap"
)

// SessionPhase is the state of an exam session.
type SessionPhase string

const (
	PhaseAwaitingAnswer  SessionPhase = "awaiting_answer"
	PhaseShowingFeedback SessionPhase = "showing_feedback"
	PhaseCompleted       SessionPhase = "completed"
	PhaseExited          SessionPhase = "exited"
)

const (
	DefaultAutoAdvanceDelay = 1500 * time.Millisecond
	DefaultCompletionDelay  = 2 * time.Second
)

type advanceStage int

const (
	advanceNone advanceStage = iota
	// advanceNext waits out the correct-answer acknowledgement.
	advanceNext
	// advanceComplete waits before completing after the last question.
	advanceComplete
)

// SessionOptions configures an ExamSession.
type SessionOptions struct {
	Mode             domain.ExamMode
	AutoAdvanceDelay time.Duration
	CompletionDelay  time.Duration
	Store            domain.ExamStore
	Clock            domain.Clock
	Scheduler        domain.Scheduler
	Rand             *rand.Rand
	NewID            func() string
	// OnComplete runs once, after the result has been written to history.
	OnComplete func(result *domain.ExamResult)
}

// ExamSession drives one attempt over a fixed question set.
//
// An ExamSession is not safe for concurrent use. Callers serialise every
// method call and every callback delivered through the Scheduler.
type ExamSession struct {
	opts      SessionOptions
	questions []domain.QuizQuestion

	phase     SessionPhase
	index     int
	selected  []string
	presented []domain.QuizOption

	answers  []domain.UserAnswer
	answered map[int]int // serial -> position in answers

	startedAt time.Time
	result    *domain.ExamResult

	// generation is bumped by every navigation; a fired timer whose
	// captured generation differs is stale and does nothing.
	generation uint64
	pending    domain.Timer
	stage      advanceStage
	suspended  bool
}

// NewExamSession starts a session on the first question.
func NewExamSession(questions []domain.QuizQuestion, opts SessionOptions) (*ExamSession, error) {
	if len(questions) == 0 {
		return nil, domain.NewInvalidInputError("an exam needs at least one question")
	}
	if !opts.Mode.IsValid() {
		return nil, domain.NewInvalidInputError("unknown exam mode: " + string(opts.Mode))
	}
	if opts.Store == nil {
		return nil, domain.NewInvalidInputError("exam store is required")
	}
	if opts.AutoAdvanceDelay <= 0 {
		opts.AutoAdvanceDelay = DefaultAutoAdvanceDelay
	}
	if opts.CompletionDelay <= 0 {
		opts.CompletionDelay = DefaultCompletionDelay
	}
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = domain.SystemScheduler{}
	}
	if opts.NewID == nil {
		opts.NewID = util.NewULID
	}

	s := &ExamSession{
		opts:      opts,
		questions: questions,
		answered:  make(map[int]int),
		startedAt: opts.Clock.Now(),
	}
	s.enter(0)
	return s, nil
}

func (s *ExamSession) Mode() domain.ExamMode { return s.opts.Mode }

func (s *ExamSession) Phase() SessionPhase { return s.phase }

func (s *ExamSession) Index() int { return s.index }

func (s *ExamSession) Questions() []domain.QuizQuestion { return s.questions }

func (s *ExamSession) Answers() []domain.UserAnswer { return s.answers }

func (s *ExamSession) Result() *domain.ExamResult { return s.result }

// AutoAdvancing reports whether a deferred advance holds the input lock.
func (s *ExamSession) AutoAdvancing() bool { return s.stage != advanceNone }

func (s *ExamSession) Current() domain.QuizQuestion { return s.questions[s.index] }

// PresentedOptions is the current question's options in display order.
func (s *ExamSession) PresentedOptions() []domain.QuizOption { return s.presented }

// Selected returns a copy of the pending selection.
func (s *ExamSession) Selected() []string {
	return append([]string(nil), s.selected...)
}

func (s *ExamSession) isLast() bool {
	return s.index == len(s.questions)-1
}

func (s *ExamSession) active() bool {
	return s.phase != PhaseCompleted && s.phase != PhaseExited
}

// ElapsedSeconds is measured from the start and is never paused.
func (s *ExamSession) ElapsedSeconds() int {
	if s.result != nil {
		return s.result.TimeTaken
	}
	return int(s.opts.Clock.Now().Sub(s.startedAt) / time.Second)
}

// cancelPending invalidates any scheduled advance.
func (s *ExamSession) cancelPending() {
	s.generation++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.stage = advanceNone
}

// enter moves to question i with a fresh presentation order.
// An already answered question is replayed read-only with its stored answer.
func (s *ExamSession) enter(i int) {
	s.cancelPending()
	s.index = i
	s.selected = nil
	s.presented = util.Shuffle(s.questions[i].Options, s.opts.Rand)
	s.phase = PhaseAwaitingAnswer
	if pos, ok := s.answered[s.questions[i].Serial]; ok {
		s.selected = append([]string(nil), s.answers[pos].SelectedOptions...)
		s.phase = PhaseShowingFeedback
	}
}

func (s *ExamSession) requireActive() error {
	if !s.active() {
		return domain.NewInvalidTransitionError("the exam session has ended")
	}
	if s.suspended {
		return domain.NewInvalidTransitionError("the exam is paused")
	}
	return nil
}

func (s *ExamSession) requirePractice(action string) error {
	if s.opts.Mode != domain.ExamModePractice {
		return domain.NewInvalidTransitionError(action + " is only available in practice mode")
	}
	return nil
}

// Select replaces the selection on single-choice questions and toggles
// membership on multiple-choice ones. It is rejected once feedback is
// showing or an advance is pending.
func (s *ExamSession) Select(option string) error {
	if err := s.requireActive(); err != nil {
		return err
	}
	if s.phase != PhaseAwaitingAnswer || s.AutoAdvancing() {
		return domain.NewInvalidTransitionError("selection is locked for this question")
	}

	q := s.Current()
	known := false
	for _, opt := range q.Options {
		if opt.OptionValue == option {
			known = true
			break
		}
	}
	if !known {
		return domain.NewInvalidInputError("unknown option: " + option).WithContext("serial", q.Serial)
	}

	if !domain.IsMultipleChoice(&q) {
		s.selected = []string{option}
		return nil
	}
	for i, v := range s.selected {
		if v == option {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return nil
		}
	}
	s.selected = append(s.selected, option)
	return nil
}

// Submit records the answer to the current question exactly once.
// An incorrect answer is added to the mistake tally immediately. In practice
// mode a correct answer schedules the advance and locks input until it lands.
func (s *ExamSession) Submit(ctx context.Context) (*domain.UserAnswer, error) {
	if err := s.requireActive(); err != nil {
		return nil, err
	}
	if s.AutoAdvancing() {
		return nil, domain.NewInvalidTransitionError("an advance is already pending")
	}
	q := s.Current()
	if _, done := s.answered[q.Serial]; done || s.phase != PhaseAwaitingAnswer {
		return nil, domain.NewInvalidTransitionError("this question has already been answered")
	}
	if len(s.selected) == 0 {
		return nil, domain.NewInvalidInputError("select at least one option before submitting")
	}

	answer := domain.UserAnswer{
		QuestionSerial:  q.Serial,
		SelectedOptions: append([]string(nil), s.selected...),
		IsCorrect:       domain.CheckAnswer(&q, s.selected),
		Timestamp:       s.opts.Clock.Now(),
	}
	s.answered[q.Serial] = len(s.answers)
	s.answers = append(s.answers, answer)
	s.phase = PhaseShowingFeedback

	if !answer.IsCorrect {
		if err := s.opts.Store.RecordMistake(ctx, q.Serial, q); err != nil {
			logger.Get().Error("ExamSession: failed to record mistake", zap.Int("serial", q.Serial), zap.Error(err))
		}
	}

	if s.opts.Mode == domain.ExamModePractice && answer.IsCorrect {
		s.schedule(advanceNext)
	}
	return &answer, nil
}

// schedule arms the deferred advance for stage.
func (s *ExamSession) schedule(stage advanceStage) {
	delay := s.opts.AutoAdvanceDelay
	if stage == advanceComplete {
		delay = s.opts.CompletionDelay
	}
	s.stage = stage
	gen := s.generation
	s.pending = s.opts.Scheduler.AfterFunc(delay, func() {
		s.fire(gen, stage)
	})
}

func (s *ExamSession) fire(gen uint64, stage advanceStage) {
	if gen != s.generation || s.stage != stage || !s.active() || s.suspended {
		return
	}
	s.pending = nil

	switch stage {
	case advanceNext:
		if s.isLast() {
			s.schedule(advanceComplete)
			return
		}
		s.enter(s.index + 1)
	case advanceComplete:
		s.stage = advanceNone
		s.complete(context.Background())
	}
}

// Next advances after feedback; on the last question it completes the exam.
func (s *ExamSession) Next(ctx context.Context) error {
	if err := s.requireActive(); err != nil {
		return err
	}
	if s.AutoAdvancing() {
		return domain.NewInvalidTransitionError("an advance is already pending")
	}
	if s.phase != PhaseShowingFeedback {
		return domain.NewInvalidTransitionError("submit an answer before moving on")
	}
	if s.isLast() {
		s.complete(ctx)
		return nil
	}
	s.enter(s.index + 1)
	return nil
}

// Previous moves back one question. It cancels a pending advance.
func (s *ExamSession) Previous() error {
	if err := s.requireActive(); err != nil {
		return err
	}
	if err := s.requirePractice("going back"); err != nil {
		return err
	}
	if s.index == 0 {
		return domain.NewInvalidTransitionError("already at the first question")
	}
	s.enter(s.index - 1)
	return nil
}

// JumpTo moves to question i from the practice sidebar.
func (s *ExamSession) JumpTo(i int) error {
	if err := s.requireActive(); err != nil {
		return err
	}
	if err := s.requirePractice("jumping between questions"); err != nil {
		return err
	}
	if i < 0 || i >= len(s.questions) {
		return domain.NewInvalidInputError("question index out of range").WithContext("index", i)
	}
	s.enter(i)
	return nil
}

// CanFinish reports whether early finish is allowed.
func (s *ExamSession) CanFinish() bool {
	return s.active() && s.opts.Mode == domain.ExamModePractice && len(s.answers) == len(s.questions)
}

// Finish completes a practice session once every question is answered.
func (s *ExamSession) Finish(ctx context.Context) error {
	if err := s.requireActive(); err != nil {
		return err
	}
	if err := s.requirePractice("finishing early"); err != nil {
		return err
	}
	if !s.CanFinish() {
		return domain.NewInvalidTransitionError("answer every question before finishing")
	}
	s.complete(ctx)
	return nil
}

// Exit abandons the session without writing history. A pending advance never fires.
func (s *ExamSession) Exit() error {
	if !s.active() {
		return domain.NewInvalidTransitionError("the exam session has ended")
	}
	s.cancelPending()
	s.phase = PhaseExited
	return nil
}

// Suspend parks a pending advance while the exam view is paused.
func (s *ExamSession) Suspend() {
	if !s.active() || s.suspended {
		return
	}
	s.suspended = true
	stage := s.stage
	s.cancelPending()
	s.stage = stage
}

// Resume re-arms an advance parked by Suspend with its full delay.
func (s *ExamSession) Resume() {
	if !s.suspended {
		return
	}
	s.suspended = false
	if s.active() && s.stage != advanceNone {
		s.schedule(s.stage)
	}
}

// complete builds the result, appends it to history and ends the session.
func (s *ExamSession) complete(ctx context.Context) {
	s.cancelPending()

	correct := 0
	for _, a := range s.answers {
		if a.IsCorrect {
			correct++
		}
	}
	total := len(s.questions)
	incorrect := len(s.answers) - correct
	unattended := total - len(s.answers)

	s.result = &domain.ExamResult{
		ID: s.opts.NewID(),
		QuestionsRange: domain.QuestionsRange{
			Start: s.questions[0].Serial,
			End:   s.questions[total-1].Serial,
		},
		TotalQuestions:      total,
		CorrectAnswers:      correct,
		IncorrectAnswers:    incorrect,
		UnattendedQuestions: unattended,
		WrongAnswers:        incorrect + unattended,
		UserAnswers:         append([]domain.UserAnswer{}, s.answers...),
		CompletedAt:         s.opts.Clock.Now(),
		TimeTaken:           s.ElapsedSeconds(),
	}
	s.phase = PhaseCompleted

	if err := s.opts.Store.AppendExamResult(ctx, s.result); err != nil {
		logger.Get().Error("ExamSession: failed to save exam result", zap.String("id", s.result.ID), zap.Error(err))
	}
	logger.Get().Info("ExamSession: exam completed",
		zap.String("id", s.result.ID),
		zap.Int("correct", correct),
		zap.Int("total", total),
		zap.Int("timeTaken", s.result.TimeTaken))

	if s.opts.OnComplete != nil {
		s.opts.OnComplete(s.result)
	}
}

// State renders the session for the exam view.
func (s *ExamSession) State() *dto.SessionState {
	q := s.Current()
	feedback := s.feedback()

	options := make([]dto.OptionView, 0, len(s.presented))
	for _, opt := range s.presented {
		view := dto.OptionView{OptionValue: opt.OptionValue}
		if feedback != nil {
			correct := opt.IsCorrectAns
			view.IsCorrectAns = &correct
		}
		options = append(options, view)
	}

	elapsed := s.ElapsedSeconds()
	state := &dto.SessionState{
		Mode:           s.opts.Mode,
		Phase:          string(s.phase),
		Index:          s.index,
		Total:          len(s.questions),
		Progress:       float64(s.index+1) / float64(len(s.questions)) * 100,
		IsLastQuestion: s.isLast(),
		Question: dto.QuestionView{
			Serial:         q.Serial,
			Question:       q.Question,
			Category:       q.Category,
			MultipleChoice: domain.IsMultipleChoice(&q),
			Options:        options,
		},
		Selected:       s.Selected(),
		Feedback:       feedback,
		AutoAdvancing:  s.AutoAdvancing(),
		Answered:       len(s.answers),
		CanSubmit:      s.active() && s.phase == PhaseAwaitingAnswer && len(s.selected) > 0 && !s.AutoAdvancing(),
		CanNext:        s.active() && s.phase == PhaseShowingFeedback && !s.AutoAdvancing(),
		CanPrevious:    s.active() && s.opts.Mode == domain.ExamModePractice && s.index > 0,
		CanFinish:      s.CanFinish(),
		ElapsedSeconds: elapsed,
		Elapsed:        util.FormatDuration(elapsed),
	}
	if state.Selected == nil {
		state.Selected = []string{}
	}
	if s.opts.Mode == domain.ExamModePractice {
		state.Sidebar = s.sidebar()
	}
	return state
}

func (s *ExamSession) feedback() *dto.AnswerFeedback {
	if s.phase != PhaseShowingFeedback {
		return nil
	}
	q := s.Current()
	pos, ok := s.answered[q.Serial]
	if !ok {
		return nil
	}
	a := s.answers[pos]
	return &dto.AnswerFeedback{
		IsCorrect:       a.IsCorrect,
		SelectedOptions: a.SelectedOptions,
		CorrectOptions:  domain.CorrectOptionValues(&q),
		AnsweredAt:      a.Timestamp,
	}
}

func (s *ExamSession) sidebar() *dto.SidebarView {
	view := &dto.SidebarView{Questions: make([]dto.QuestionStatus, 0, len(s.questions))}
	for i, q := range s.questions {
		status := dto.StatusUnanswered
		if pos, ok := s.answered[q.Serial]; ok {
			if s.answers[pos].IsCorrect {
				status = dto.StatusCorrect
				view.Correct++
			} else {
				status = dto.StatusIncorrect
				view.Incorrect++
			}
		}
		if i == s.index {
			status = dto.StatusCurrent
		}
		view.Questions = append(view.Questions, dto.QuestionStatus{Index: i, Serial: q.Serial, Status: status})
	}
	view.Remaining = len(s.questions) - len(s.answers)
	return view
}

// Paused summarises the session for the setup view.
func (s *ExamSession) Paused(settings domain.ExamSettings) *dto.PausedExam {
	return &dto.PausedExam{
		Settings:       settings,
		Index:          s.index,
		Total:          len(s.questions),
		Answered:       len(s.answers),
		ElapsedSeconds: s.ElapsedSeconds(),
	}
}
