package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"quiz-drill/internal/bank"
	"quiz-drill/internal/domain"
	"quiz-drill/internal/dto"
	"quiz-drill/internal/logger"
	"quiz-drill/internal/validation"

	"go.uber.org/zap"
)

const DefaultRestoreWindow = 24 * time.Hour

// ExamController is the view-action surface the HTTP handlers drive.
type ExamController interface {
	Screen() *dto.ScreenResponse
	StartExam(ctx context.Context, settings domain.ExamSettings) (*dto.ScreenResponse, error)
	StartPreset(ctx context.Context, preset string, mode domain.ExamMode) (*dto.ScreenResponse, error)
	SelectOption(option string) (*dto.ScreenResponse, error)
	SubmitAnswer(ctx context.Context) (*dto.ScreenResponse, error)
	Next(ctx context.Context) (*dto.ScreenResponse, error)
	Previous() (*dto.ScreenResponse, error)
	JumpTo(index int) (*dto.ScreenResponse, error)
	FinishPractice(ctx context.Context) (*dto.ScreenResponse, error)
	PauseExam(ctx context.Context, confirm bool) (*dto.ScreenResponse, error)
	ResumeExam(ctx context.Context) (*dto.ScreenResponse, error)
	ExitExam(ctx context.Context, confirm bool) (*dto.ScreenResponse, error)
	RetakeExam(ctx context.Context) (*dto.ScreenResponse, error)
	ViewOverview(ctx context.Context) (*dto.ScreenResponse, error)
	ViewHistory(ctx context.Context) (*dto.ScreenResponse, error)
	ViewMistakes(ctx context.Context) (*dto.ScreenResponse, error)
	ViewHistoryResult(ctx context.Context, id string) (*dto.ScreenResponse, error)
	PracticeMistake(ctx context.Context, serial int) (*dto.ScreenResponse, error)
	Back(ctx context.Context) (*dto.ScreenResponse, error)
	ClearAllData(ctx context.Context, confirm bool) (*dto.ScreenResponse, error)
	History() *dto.HistoryScreen
	HistorySummary() dto.HistorySummary
	Mistakes(query MistakeQuery) (*dto.MistakesScreen, error)
	ResultCategories() ([]dto.CategoryBreakdown, error)
	Overview(category, filter string) (*dto.OverviewScreen, error)
}

var _ ExamController = (*Controller)(nil)

// View is one application mode together with the data it renders.
type View interface {
	Mode() domain.QuizMode
}

// browsing is shared by every view that can sit on top of a paused exam.
type browsing struct {
	paused *ExamView
}

type SetupView struct{ browsing }

type ExamView struct {
	Settings  domain.ExamSettings
	Questions []domain.QuizQuestion
	Session   *ExamSession
}

type ResultsView struct {
	browsing
	Result    *domain.ExamResult
	Questions []domain.QuizQuestion
	Settings  domain.ExamSettings
}

type HistoryView struct{ browsing }

type MistakesView struct{ browsing }

// OverviewView is reached from, and returns to, a results view.
type OverviewView struct {
	Results *ResultsView
}

func (SetupView) Mode() domain.QuizMode    { return domain.QuizModeSetup }
func (ExamView) Mode() domain.QuizMode     { return domain.QuizModeExam }
func (ResultsView) Mode() domain.QuizMode  { return domain.QuizModeResults }
func (HistoryView) Mode() domain.QuizMode  { return domain.QuizModeHistory }
func (MistakesView) Mode() domain.QuizMode { return domain.QuizModeMistakes }
func (OverviewView) Mode() domain.QuizMode { return domain.QuizModeOverview }

// ControllerOptions wires the controller's collaborators.
type ControllerOptions struct {
	Bank             *bank.Bank
	Store            domain.ExamStore
	Validator        *validation.Validator
	Clock            domain.Clock
	Scheduler        domain.Scheduler
	Rand             *rand.Rand
	NewID            func() string
	AutoAdvanceDelay time.Duration
	CompletionDelay  time.Duration
	RestoreWindow    time.Duration
}

// Controller routes between the application views and keeps the app-state
// snapshot in step with them. Every action runs under one mutex, and timer
// callbacks of the active session take the same mutex.
type Controller struct {
	mu   sync.Mutex
	opts ControllerOptions
	view View

	history  []domain.ExamResult
	mistakes []domain.QuestionMistake
}

// lockedScheduler delivers session timers under the controller lock.
type lockedScheduler struct {
	mu    *sync.Mutex
	inner domain.Scheduler
}

func (l lockedScheduler) AfterFunc(d time.Duration, fn func()) domain.Timer {
	return l.inner.AfterFunc(d, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		fn()
	})
}

// NewController loads history and mistakes and restores a recent session.
func NewController(ctx context.Context, opts ControllerOptions) (*Controller, error) {
	if opts.Bank == nil || opts.Store == nil {
		return nil, domain.NewInvalidInputError("question bank and exam store are required")
	}
	if opts.Validator == nil {
		opts.Validator = validation.NewValidator()
	}
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = domain.SystemScheduler{}
	}
	if opts.RestoreWindow <= 0 {
		opts.RestoreWindow = DefaultRestoreWindow
	}

	c := &Controller{opts: opts, view: SetupView{}}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshCaches(ctx)
	c.restore(ctx)
	c.persist(ctx)
	return c, nil
}

func (c *Controller) refreshCaches(ctx context.Context) {
	c.history = c.opts.Store.ReadExamHistory(ctx)
	c.mistakes = c.opts.Store.ReadMistakes(ctx)
}

// restore applies the snapshot only when it is recent and not a setup snapshot.
// A snapshot missing the data its mode needs falls back to setup.
func (c *Controller) restore(ctx context.Context) {
	l := logger.Get()
	state := c.opts.Store.ReadAppState(ctx)
	if !state.IsRestorable(c.opts.Clock.Now(), c.opts.RestoreWindow) {
		return
	}

	switch state.Mode {
	case domain.QuizModeExam:
		if state.CurrentExamSettings == nil || len(state.ExamQuestions) == 0 {
			break
		}
		view, err := c.newExamView(*state.CurrentExamSettings, state.ExamQuestions)
		if err != nil {
			l.Warn("Controller: failed to restore exam session", zap.Error(err))
			break
		}
		c.view = view
	case domain.QuizModeResults, domain.QuizModeOverview:
		if state.CurrentExamResult == nil {
			break
		}
		results := &ResultsView{
			Result:    state.CurrentExamResult,
			Questions: state.ExamQuestions,
			Settings:  settingsFor(state.CurrentExamResult, state.CurrentExamSettings),
		}
		if state.Mode == domain.QuizModeOverview && len(results.Questions) > 0 {
			c.view = OverviewView{Results: results}
		} else {
			c.view = *results
		}
	case domain.QuizModeHistory:
		c.view = HistoryView{}
	case domain.QuizModeMistakes:
		c.view = MistakesView{}
	}

	l.Info("Controller: restored session",
		zap.String("snapshotMode", string(state.Mode)),
		zap.String("mode", string(c.view.Mode())),
		zap.Time("lastSaved", state.LastSaved))
}

// settingsFor returns the stored settings, or settings derived from the
// result's range for results reopened from history.
func settingsFor(result *domain.ExamResult, settings *domain.ExamSettings) domain.ExamSettings {
	if settings != nil {
		return *settings
	}
	return domain.ExamSettings{
		StartQuestion: result.QuestionsRange.Start,
		EndQuestion:   result.QuestionsRange.End,
		Mode:          domain.ExamModePractice,
	}
}

// persist mirrors the current view into the app-state snapshot.
// Write failures are logged and otherwise ignored.
func (c *Controller) persist(ctx context.Context) {
	opts := []domain.AppStateOption{domain.WithMode(c.view.Mode())}

	switch v := c.view.(type) {
	case SetupView:
		if v.paused != nil {
			settings := v.paused.Settings
			opts = append(opts,
				domain.WithExamResult(nil),
				domain.WithExamQuestions(v.paused.Questions),
				domain.WithExamSettings(&settings))
		} else {
			opts = append(opts,
				domain.WithExamResult(nil),
				domain.WithExamQuestions(nil),
				domain.WithExamSettings(nil))
		}
	case ExamView:
		settings := v.Settings
		opts = append(opts,
			domain.WithExamResult(nil),
			domain.WithExamQuestions(v.Questions),
			domain.WithExamSettings(&settings))
	case ResultsView:
		opts = append(opts, resultsSnapshot(&v)...)
	case OverviewView:
		opts = append(opts, resultsSnapshot(v.Results)...)
	}

	if err := c.opts.Store.SaveAppState(ctx, opts...); err != nil {
		logger.Get().Error("Controller: failed to save app state", zap.String("mode", string(c.view.Mode())), zap.Error(err))
	}
}

func resultsSnapshot(v *ResultsView) []domain.AppStateOption {
	settings := v.Settings
	return []domain.AppStateOption{
		domain.WithExamResult(v.Result),
		domain.WithExamQuestions(v.Questions),
		domain.WithExamSettings(&settings),
	}
}

func (c *Controller) newExamView(settings domain.ExamSettings, questions []domain.QuizQuestion) (ExamView, error) {
	var session *ExamSession
	session, err := NewExamSession(questions, SessionOptions{
		Mode:             settings.Mode,
		AutoAdvanceDelay: c.opts.AutoAdvanceDelay,
		CompletionDelay:  c.opts.CompletionDelay,
		Store:            c.opts.Store,
		Clock:            c.opts.Clock,
		Scheduler:        lockedScheduler{mu: &c.mu, inner: c.opts.Scheduler},
		Rand:             c.opts.Rand,
		NewID:            c.opts.NewID,
		OnComplete: func(result *domain.ExamResult) {
			c.onComplete(session, result)
		},
	})
	if err != nil {
		return ExamView{}, err
	}
	return ExamView{Settings: settings, Questions: questions, Session: session}, nil
}

// onComplete runs with the lock held, from an action or a timer.
func (c *Controller) onComplete(session *ExamSession, result *domain.ExamResult) {
	exam, ok := c.view.(ExamView)
	if !ok || exam.Session != session {
		return
	}
	ctx := context.Background()
	c.view = ResultsView{Result: result, Questions: exam.Questions, Settings: exam.Settings}
	c.refreshCaches(ctx)
	c.persist(ctx)
}

// pausedExam returns the exam parked under the current view, if any.
func (c *Controller) pausedExam() *ExamView {
	switch v := c.view.(type) {
	case SetupView:
		return v.paused
	case ResultsView:
		return v.paused
	case HistoryView:
		return v.paused
	case MistakesView:
		return v.paused
	case OverviewView:
		return v.Results.paused
	}
	return nil
}

// discardPaused abandons a parked exam before another one starts.
func (c *Controller) discardPaused() {
	if p := c.pausedExam(); p != nil {
		if err := p.Session.Exit(); err == nil {
			logger.Get().Info("Controller: discarded paused exam", zap.Int("answered", len(p.Session.Answers())))
		}
	}
}

func (c *Controller) startExam(ctx context.Context, settings domain.ExamSettings, questions []domain.QuizQuestion) (*dto.ScreenResponse, error) {
	view, err := c.newExamView(settings, questions)
	if err != nil {
		return nil, err
	}
	c.discardPaused()
	c.view = view
	c.persist(ctx)
	logger.Get().Info("Controller: exam started",
		zap.String("mode", string(settings.Mode)),
		zap.Int("start", settings.StartQuestion),
		zap.Int("end", settings.EndQuestion),
		zap.Int("questions", len(questions)))
	return c.screen(), nil
}

func (c *Controller) requireView(modes ...domain.QuizMode) error {
	current := c.view.Mode()
	for _, m := range modes {
		if m == current {
			return nil
		}
	}
	return domain.NewInvalidTransitionError("action is not available in the " + string(current) + " view").
		WithContext("mode", string(current))
}

// StartExam validates settings against the bank and starts a session.
// Invalid settings return domain.ValidationErrors and change nothing.
func (c *Controller) StartExam(ctx context.Context, settings domain.ExamSettings) (*dto.ScreenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startFromSetup(ctx, settings)
}

// StartPreset starts one of the quick-start ranges.
func (c *Controller) StartPreset(ctx context.Context, preset string, mode domain.ExamMode) (*dto.ScreenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	settings, errs := c.opts.Validator.ResolvePreset(preset, mode)
	if len(errs) > 0 {
		return nil, errs
	}
	return c.startFromSetup(ctx, settings)
}

func (c *Controller) startFromSetup(ctx context.Context, settings domain.ExamSettings) (*dto.ScreenResponse, error) {
	if err := c.requireView(domain.QuizModeSetup); err != nil {
		return nil, err
	}
	if errs := c.opts.Validator.ValidateExamSettings(settings, c.opts.Bank.Len()); len(errs) > 0 {
		return nil, errs
	}
	questions := c.opts.Bank.Range(settings.StartQuestion, settings.EndQuestion)
	if len(questions) == 0 {
		return nil, domain.NewInvalidInputError("no questions found in the selected range")
	}
	return c.startExam(ctx, settings, questions)
}

// withSession runs fn against the active session.
func (c *Controller) withSession(fn func(s *ExamSession) error) (*dto.ScreenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exam, ok := c.view.(ExamView)
	if !ok {
		return nil, c.requireView(domain.QuizModeExam)
	}
	if err := fn(exam.Session); err != nil {
		return nil, err
	}
	return c.screen(), nil
}

func (c *Controller) SelectOption(option string) (*dto.ScreenResponse, error) {
	return c.withSession(func(s *ExamSession) error { return s.Select(option) })
}

func (c *Controller) SubmitAnswer(ctx context.Context) (*dto.ScreenResponse, error) {
	return c.withSession(func(s *ExamSession) error {
		_, err := s.Submit(ctx)
		return err
	})
}

// Next may complete the exam, in which case the results view is returned.
func (c *Controller) Next(ctx context.Context) (*dto.ScreenResponse, error) {
	return c.withSession(func(s *ExamSession) error { return s.Next(ctx) })
}

func (c *Controller) Previous() (*dto.ScreenResponse, error) {
	return c.withSession(func(s *ExamSession) error { return s.Previous() })
}

func (c *Controller) JumpTo(index int) (*dto.ScreenResponse, error) {
	return c.withSession(func(s *ExamSession) error { return s.JumpTo(index) })
}

func (c *Controller) FinishPractice(ctx context.Context) (*dto.ScreenResponse, error) {
	return c.withSession(func(s *ExamSession) error { return s.Finish(ctx) })
}

// PauseExam parks the session and returns to setup. The exam clock keeps running.
func (c *Controller) PauseExam(ctx context.Context, confirm bool) (*dto.ScreenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exam, ok := c.view.(ExamView)
	if !ok {
		return nil, c.requireView(domain.QuizModeExam)
	}
	if !confirm {
		return nil, domain.NewConfirmationRequiredError("pause")
	}
	exam.Session.Suspend()
	c.view = SetupView{browsing{paused: &exam}}
	c.persist(ctx)
	return c.screen(), nil
}

// ResumeExam returns to a paused session from setup.
func (c *Controller) ResumeExam(ctx context.Context) (*dto.ScreenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	setup, ok := c.view.(SetupView)
	if !ok {
		return nil, c.requireView(domain.QuizModeSetup)
	}
	if setup.paused == nil {
		return nil, domain.NewInvalidTransitionError("there is no paused exam to resume")
	}
	setup.paused.Session.Resume()
	c.view = *setup.paused
	c.persist(ctx)
	return c.screen(), nil
}

// ExitExam abandons the session without writing history.
func (c *Controller) ExitExam(ctx context.Context, confirm bool) (*dto.ScreenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exam, ok := c.view.(ExamView)
	if !ok {
		return nil, c.requireView(domain.QuizModeExam)
	}
	if !confirm {
		return nil, domain.NewConfirmationRequiredError("exit")
	}
	if err := exam.Session.Exit(); err != nil {
		return nil, err
	}
	c.view = SetupView{}
	c.persist(ctx)
	return c.screen(), nil
}

// RetakeExam starts a fresh session over the same question set.
func (c *Controller) RetakeExam(ctx context.Context) (*dto.ScreenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	results, ok := c.view.(ResultsView)
	if !ok {
		return nil, c.requireView(domain.QuizModeResults)
	}
	if len(results.Questions) == 0 {
		return nil, domain.NewDataNotAvailableError(domain.QuizModeExam, domain.QuizModeResults)
	}
	return c.startExam(ctx, results.Settings, results.Questions)
}

// ViewOverview needs an active result with a non-empty question set.
func (c *Controller) ViewOverview(ctx context.Context) (*dto.ScreenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	results, ok := c.view.(ResultsView)
	if !ok {
		return nil, c.requireView(domain.QuizModeResults)
	}
	if results.Result == nil || len(results.Questions) == 0 {
		return nil, domain.NewDataNotAvailableError(domain.QuizModeOverview, domain.QuizModeResults)
	}
	c.view = OverviewView{Results: &results}
	c.persist(ctx)
	return c.screen(), nil
}

// ViewHistory is available from every view except an active exam.
func (c *Controller) ViewHistory(ctx context.Context) (*dto.ScreenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.leaveForBrowsing(); err != nil {
		return nil, err
	}
	c.history = c.opts.Store.ReadExamHistory(ctx)
	c.view = HistoryView{browsing{paused: c.pausedExam()}}
	c.persist(ctx)
	return c.screen(), nil
}

// ViewMistakes is available from every view except an active exam.
func (c *Controller) ViewMistakes(ctx context.Context) (*dto.ScreenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.leaveForBrowsing(); err != nil {
		return nil, err
	}
	c.mistakes = c.opts.Store.ReadMistakes(ctx)
	c.view = MistakesView{browsing{paused: c.pausedExam()}}
	c.persist(ctx)
	return c.screen(), nil
}

func (c *Controller) leaveForBrowsing() error {
	if c.view.Mode() == domain.QuizModeExam {
		return domain.NewInvalidTransitionError("pause or exit the exam first")
	}
	return nil
}

// ViewHistoryResult reopens a past result. Its questions are re-derived from
// the bank by serial range since history does not store them.
func (c *Controller) ViewHistoryResult(ctx context.Context, id string) (*dto.ScreenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	history, ok := c.view.(HistoryView)
	if !ok {
		return nil, c.requireView(domain.QuizModeHistory)
	}
	for i := range c.history {
		if c.history[i].ID != id {
			continue
		}
		result := c.history[i]
		questions := c.opts.Bank.Range(result.QuestionsRange.Start, result.QuestionsRange.End)
		c.view = ResultsView{
			browsing:  history.browsing,
			Result:    &result,
			Questions: questions,
			Settings:  settingsFor(&result, nil),
		}
		c.persist(ctx)
		return c.screen(), nil
	}
	return nil, domain.NewResultNotFoundError(id)
}

// PracticeMistake starts a single-question practice session.
func (c *Controller) PracticeMistake(ctx context.Context, serial int) (*dto.ScreenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireView(domain.QuizModeMistakes); err != nil {
		return nil, err
	}
	q, ok := c.opts.Bank.Find(serial)
	if !ok {
		return nil, domain.NewQuestionNotFoundError(serial)
	}
	settings := domain.ExamSettings{StartQuestion: serial, EndQuestion: serial, Mode: domain.ExamModePractice}
	return c.startExam(ctx, settings, []domain.QuizQuestion{q})
}

// Back returns to the logical parent: overview goes to results, everything
// else to setup. An active exam must be paused or exited instead.
func (c *Controller) Back(ctx context.Context) (*dto.ScreenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := c.view.(type) {
	case ExamView:
		return nil, domain.NewInvalidTransitionError("pause or exit the exam first")
	case OverviewView:
		c.view = *v.Results
	default:
		c.view = SetupView{browsing{paused: c.pausedExam()}}
	}
	c.persist(ctx)
	return c.screen(), nil
}

// ClearAllData wipes history, mistakes and the snapshot, and returns to setup.
func (c *Controller) ClearAllData(ctx context.Context, confirm bool) (*dto.ScreenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.leaveForBrowsing(); err != nil {
		return nil, err
	}
	if !confirm {
		return nil, domain.NewConfirmationRequiredError("clear all data")
	}
	c.discardPaused()
	if err := c.opts.Store.ClearAllData(ctx); err != nil {
		return nil, domain.NewInternalError("failed to clear data", err)
	}
	c.history = []domain.ExamResult{}
	c.mistakes = []domain.QuestionMistake{}
	c.view = SetupView{}
	logger.Get().Info("Controller: all data cleared")
	return c.screen(), nil
}

// Screen renders the current view.
func (c *Controller) Screen() *dto.ScreenResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen()
}

// CurrentMode reports the current mode.
func (c *Controller) CurrentMode() domain.QuizMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Mode()
}

func (c *Controller) screen() *dto.ScreenResponse {
	resp := &dto.ScreenResponse{Mode: c.view.Mode()}
	switch v := c.view.(type) {
	case SetupView:
		resp.Setup = c.setupScreen(v)
	case ExamView:
		resp.Exam = v.Session.State()
	case ResultsView:
		resp.Results = BuildResultsScreen(v.Result, v.Questions, len(v.Questions) > 0)
	case HistoryView:
		resp.History = c.historyScreen()
	case MistakesView:
		resp.Mistakes = BuildMistakesScreen(c.mistakes, MistakeQuery{})
	case OverviewView:
		resp.Overview = BuildOverviewScreen(v.Results.Result, v.Results.Questions, "", "")
	}
	return resp
}

func (c *Controller) setupScreen(v SetupView) *dto.SetupScreen {
	total := c.opts.Bank.Len()
	end := 100
	if total < end {
		end = total
	}
	presets := make([]dto.PresetView, 0, len(validation.Presets))
	for _, p := range validation.Presets {
		presets = append(presets, dto.PresetView{Name: p.Name, Start: p.Start, End: p.End})
	}
	screen := &dto.SetupScreen{
		TotalQuestions:  total,
		DefaultSettings: domain.ExamSettings{StartQuestion: 1, EndQuestion: end, Mode: domain.ExamModePractice},
		Presets:         presets,
		HasHistory:      len(c.history) > 0,
		HasMistakes:     len(c.mistakes) > 0,
	}
	if v.paused != nil {
		screen.Paused = v.paused.Session.Paused(v.paused.Settings)
	}
	return screen
}

func (c *Controller) historyScreen() *dto.HistoryScreen {
	return &dto.HistoryScreen{
		Entries: HistoryEntries(c.history),
		Summary: SummarizeHistory(c.history),
	}
}

// History returns the history list and summary regardless of the view.
func (c *Controller) History() *dto.HistoryScreen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.historyScreen()
}

// HistorySummary returns only the aggregate figures.
func (c *Controller) HistorySummary() dto.HistorySummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SummarizeHistory(c.history)
}

// Mistakes returns the filtered and sorted tally regardless of the view.
func (c *Controller) Mistakes(query MistakeQuery) (*dto.MistakesScreen, error) {
	if errs := c.opts.Validator.ValidateMistakeSort(query.SortBy, query.Order); len(errs) > 0 {
		return nil, errs
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return BuildMistakesScreen(c.mistakes, query), nil
}

// activeResults returns the results view behind the current view.
func (c *Controller) activeResults() (*ResultsView, bool) {
	switch v := c.view.(type) {
	case ResultsView:
		return &v, true
	case OverviewView:
		return v.Results, true
	}
	return nil, false
}

// ResultCategories is the per-category breakdown of the active result.
func (c *Controller) ResultCategories() ([]dto.CategoryBreakdown, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	results, ok := c.activeResults()
	if !ok {
		return nil, domain.NewDataNotAvailableError(domain.QuizModeResults, domain.QuizModeSetup)
	}
	return CategoryBreakdown(results.Result, results.Questions), nil
}

// Overview renders the overview view with filters applied.
func (c *Controller) Overview(category, filter string) (*dto.OverviewScreen, error) {
	if errs := c.opts.Validator.ValidateAnswerFilter(filter); len(errs) > 0 {
		return nil, errs
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	overview, ok := c.view.(OverviewView)
	if !ok {
		fallback := domain.QuizModeSetup
		if _, isResults := c.view.(ResultsView); isResults {
			fallback = domain.QuizModeResults
		}
		return nil, domain.NewDataNotAvailableError(domain.QuizModeOverview, fallback)
	}
	return BuildOverviewScreen(overview.Results.Result, overview.Results.Questions, category, filter), nil
}

// Close abandons any live session so no timer fires after shutdown.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if exam, ok := c.view.(ExamView); ok {
		exam.Session.Suspend()
	}
	if p := c.pausedExam(); p != nil {
		p.Session.Suspend()
	}
}
