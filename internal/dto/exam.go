package dto

import (
	"time"

	"quiz-drill/internal/domain"
)

// StartExamRequest starts an exam from a manual range or a quick-start preset.
// @Description Either startQuestion/endQuestion or preset must be given
type StartExamRequest struct {
	StartQuestion int             `json:"startQuestion"`
	EndQuestion   int             `json:"endQuestion"`
	Mode          domain.ExamMode `json:"mode"`
	Preset        string          `json:"preset,omitempty"`
}

// SelectOptionRequest selects or toggles one option of the current question.
type SelectOptionRequest struct {
	Option string `json:"option"`
}

// ConfirmRequest carries the explicit confirmation destructive actions need.
type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

// OptionView is an option as presented; correctness is only revealed with feedback.
type OptionView struct {
	OptionValue  string `json:"optionValue"`
	IsCorrectAns *bool  `json:"isCorrectAns,omitempty"`
}

// QuestionView is the current question in its shuffled presentation order.
type QuestionView struct {
	Serial         int          `json:"serial"`
	Question       string       `json:"question"`
	Category       string       `json:"category"`
	MultipleChoice bool         `json:"multipleChoice"`
	Options        []OptionView `json:"options"`
}

// AnswerFeedback is shown after a submission or when revisiting an answered question.
type AnswerFeedback struct {
	IsCorrect       bool      `json:"isCorrect"`
	SelectedOptions []string  `json:"selectedOptions"`
	CorrectOptions  []string  `json:"correctOptions"`
	AnsweredAt      time.Time `json:"answeredAt"`
}

// Question status values of the practice sidebar.
const (
	StatusCurrent    = "current"
	StatusCorrect    = "correct"
	StatusIncorrect  = "incorrect"
	StatusUnanswered = "unanswered"
)

// QuestionStatus is one cell of the practice sidebar grid.
type QuestionStatus struct {
	Index  int    `json:"index"`
	Serial int    `json:"serial"`
	Status string `json:"status"`
}

// SidebarView is the practice-mode question overview.
type SidebarView struct {
	Questions []QuestionStatus `json:"questions"`
	Correct   int              `json:"correct"`
	Incorrect int              `json:"incorrect"`
	Remaining int              `json:"remaining"`
}

// SessionState is the exam view of an active session.
type SessionState struct {
	Mode           domain.ExamMode `json:"mode"`
	Phase          string          `json:"phase"`
	Index          int             `json:"index"`
	Total          int             `json:"total"`
	Progress       float64         `json:"progress"`
	IsLastQuestion bool            `json:"isLastQuestion"`
	Question       QuestionView    `json:"question"`
	Selected       []string        `json:"selected"`
	Feedback       *AnswerFeedback `json:"feedback,omitempty"`
	AutoAdvancing  bool            `json:"autoAdvancing"`
	Answered       int             `json:"answered"`
	CanSubmit      bool            `json:"canSubmit"`
	CanNext        bool            `json:"canNext"`
	CanPrevious    bool            `json:"canPrevious"`
	CanFinish      bool            `json:"canFinish"`
	ElapsedSeconds int             `json:"elapsedSeconds"`
	Elapsed        string          `json:"elapsed"`
	Sidebar        *SidebarView    `json:"sidebar,omitempty"`
}

// PresetView is a quick-start range offered on setup.
type PresetView struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// PausedExam summarises a paused session that can be resumed from setup.
type PausedExam struct {
	Settings       domain.ExamSettings `json:"settings"`
	Index          int                 `json:"index"`
	Total          int                 `json:"total"`
	Answered       int                 `json:"answered"`
	ElapsedSeconds int                 `json:"elapsedSeconds"`
}

// SetupScreen is the setup view.
type SetupScreen struct {
	TotalQuestions  int                 `json:"totalQuestions"`
	DefaultSettings domain.ExamSettings `json:"defaultSettings"`
	Presets         []PresetView        `json:"presets"`
	HasHistory      bool                `json:"hasHistory"`
	HasMistakes     bool                `json:"hasMistakes"`
	Paused          *PausedExam         `json:"paused,omitempty"`
}

// CategoryBreakdown is the per-category result summary, unattended included.
type CategoryBreakdown struct {
	Category   string `json:"category"`
	Total      int    `json:"total"`
	Correct    int    `json:"correct"`
	Incorrect  int    `json:"incorrect"`
	Unattended int    `json:"unattended"`
}

// QuestionReview pairs a question with the recorded answer, if any.
type QuestionReview struct {
	Question       domain.QuizQuestion `json:"question"`
	Answer         *domain.UserAnswer  `json:"answer,omitempty"`
	CorrectOptions []string            `json:"correctOptions"`
	Status         string              `json:"status"`
}

// ResultsScreen is the results view of a completed or historical exam.
type ResultsScreen struct {
	Result     *domain.ExamResult  `json:"result"`
	Percentage int                 `json:"percentage"`
	Passed     bool                `json:"passed"`
	TimeTaken  string              `json:"timeTaken"`
	Categories []CategoryBreakdown `json:"categories"`
	Review     []QuestionReview    `json:"review"`
	CanRetake  bool                `json:"canRetake"`
}

// HistoryEntry is one row of the history list.
type HistoryEntry struct {
	ID             string                `json:"id"`
	QuestionsRange domain.QuestionsRange `json:"questionsRange"`
	TotalQuestions int                   `json:"totalQuestions"`
	CorrectAnswers int                   `json:"correctAnswers"`
	Percentage     int                   `json:"percentage"`
	Passed         bool                  `json:"passed"`
	CompletedAt    time.Time             `json:"completedAt"`
	TimeTaken      string                `json:"timeTaken"`
}

// HistorySummary aggregates the whole history log.
type HistorySummary struct {
	TotalExams        int `json:"totalExams"`
	Passed            int `json:"passed"`
	Failed            int `json:"failed"`
	AveragePercentage int `json:"averagePercentage"`
	BestPercentage    int `json:"bestPercentage"`
}

// HistoryScreen is the history view.
type HistoryScreen struct {
	Entries []HistoryEntry `json:"entries"`
	Summary HistorySummary `json:"summary"`
}

// MistakeStats aggregates the mistake tally.
type MistakeStats struct {
	Questions       int     `json:"questions"`
	TotalMistakes   int     `json:"totalMistakes"`
	MaxMistakes     int     `json:"maxMistakes"`
	AverageMistakes float64 `json:"averageMistakes"`
}

// MistakesScreen is the mistakes view after filtering and sorting.
type MistakesScreen struct {
	Mistakes   []domain.QuestionMistake `json:"mistakes"`
	Stats      MistakeStats             `json:"stats"`
	Categories []string                 `json:"categories"`
	Category   string                   `json:"category"`
	SortBy     string                   `json:"sortBy"`
	Order      string                   `json:"order"`
}

// CategoryStat is the per-category score over answered questions.
type CategoryStat struct {
	Category   string `json:"category"`
	Total      int    `json:"total"`
	Correct    int    `json:"correct"`
	Incorrect  int    `json:"incorrect"`
	Percentage int    `json:"percentage"`
}

// OverviewScreen is the detailed overview of the active result.
type OverviewScreen struct {
	Result     *domain.ExamResult `json:"result"`
	Categories []CategoryStat     `json:"categories"`
	Questions  []QuestionReview   `json:"questions"`
	Category   string             `json:"category"`
	Filter     string             `json:"filter"`
}

// ScreenResponse is the current view; exactly one variant field is set.
type ScreenResponse struct {
	Mode     domain.QuizMode `json:"mode"`
	Setup    *SetupScreen    `json:"setup,omitempty"`
	Exam     *SessionState   `json:"exam,omitempty"`
	Results  *ResultsScreen  `json:"results,omitempty"`
	History  *HistoryScreen  `json:"history,omitempty"`
	Mistakes *MistakesScreen `json:"mistakes,omitempty"`
	Overview *OverviewScreen `json:"overview,omitempty"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Details  []string `json:"details,omitempty"`
	Fallback string   `json:"fallback,omitempty"`
}
