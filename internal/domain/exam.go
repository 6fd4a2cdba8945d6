package domain

import (
	"fmt"
	"time"
)

// QuizOption is a single answer option of a bank question.
type QuizOption struct {
	OptionValue  string `json:"optionValue"`
	IsCorrectAns bool   `json:"isCorrectAns"`
}

// QuizQuestion is an immutable question from the static bank.
// Serial is the stable 1-based identifier used for range selection and mistake keying.
type QuizQuestion struct {
	Serial   int          `json:"serial"`
	Question string       `json:"question"`
	Options  []QuizOption `json:"options"`
	Category string       `json:"category"`
}

// Validate validates the question
func (q *QuizQuestion) Validate() error {
	if q.Serial < 1 {
		return NewValidationError("serial", "serial must be a positive integer")
	}
	if q.Question == "" {
		return NewValidationError("question", fmt.Sprintf("question %d has no text", q.Serial))
	}
	if len(q.Options) == 0 {
		return NewValidationError("options", fmt.Sprintf("question %d has no options", q.Serial))
	}
	if len(CorrectOptionValues(q)) == 0 {
		return NewValidationError("options", fmt.Sprintf("question %d has no correct option", q.Serial))
	}
	return nil
}

// ExamMode selects how a session advances between questions.
type ExamMode string

const (
	// ExamModePractice auto-advances on correct answers and allows backward navigation.
	ExamModePractice ExamMode = "practice"
	// ExamModeExam always waits for an explicit next action.
	ExamModeExam ExamMode = "exam"
)

// IsValid reports whether m is a known exam mode.
func (m ExamMode) IsValid() bool {
	return m == ExamModePractice || m == ExamModeExam
}

// QuizMode is the application-level view the user is in.
type QuizMode string

const (
	QuizModeSetup    QuizMode = "setup"
	QuizModeExam     QuizMode = "exam"
	QuizModeResults  QuizMode = "results"
	QuizModeHistory  QuizMode = "history"
	QuizModeMistakes QuizMode = "mistakes"
	QuizModeOverview QuizMode = "overview"
)

// ExamSettings is what the setup view hands to the controller.
type ExamSettings struct {
	StartQuestion int      `json:"startQuestion"`
	EndQuestion   int      `json:"endQuestion"`
	Mode          ExamMode `json:"mode"`
}

// UserAnswer is recorded once per answered question per attempt.
type UserAnswer struct {
	QuestionSerial  int       `json:"questionSerial"`
	SelectedOptions []string  `json:"selectedOptions"`
	IsCorrect       bool      `json:"isCorrect"`
	Timestamp       time.Time `json:"timestamp"`
}

// QuestionsRange is the inclusive serial range an exam covered.
type QuestionsRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ExamResult is created once at completion and never edited afterwards.
type ExamResult struct {
	ID                  string         `json:"id"`
	QuestionsRange      QuestionsRange `json:"questionsRange"`
	TotalQuestions      int            `json:"totalQuestions"`
	CorrectAnswers      int            `json:"correctAnswers"`
	WrongAnswers        int            `json:"wrongAnswers"`
	IncorrectAnswers    int            `json:"incorrectAnswers"`
	UnattendedQuestions int            `json:"unattendedQuestions"`
	UserAnswers         []UserAnswer   `json:"userAnswers"`
	CompletedAt         time.Time      `json:"completedAt"`
	TimeTaken           int            `json:"timeTaken"`
}

// AnswerFor returns the recorded answer for serial, if any.
func (r *ExamResult) AnswerFor(serial int) (UserAnswer, bool) {
	for _, a := range r.UserAnswers {
		if a.QuestionSerial == serial {
			return a, true
		}
	}
	return UserAnswer{}, false
}

// Percentage is the rounded score of the result, 0 when the result is empty.
func (r *ExamResult) Percentage() int {
	return ScorePercentage(r.CorrectAnswers, r.TotalQuestions)
}

// QuestionMistake is the per-serial tally of incorrect answers.
type QuestionMistake struct {
	QuestionSerial  int          `json:"questionSerial"`
	MistakeCount    int          `json:"mistakeCount"`
	LastMistakeDate time.Time    `json:"lastMistakeDate"`
	Question        QuizQuestion `json:"question"`
}

// AppState is the single overwritten resume-point snapshot.
type AppState struct {
	Mode                QuizMode       `json:"mode"`
	CurrentExamResult   *ExamResult    `json:"currentExamResult"`
	ExamQuestions       []QuizQuestion `json:"examQuestions"`
	CurrentExamSettings *ExamSettings  `json:"currentExamSettings"`
	LastSaved           time.Time      `json:"lastSaved"`
}

// DefaultAppState is the snapshot used when nothing valid is stored.
func DefaultAppState(now time.Time) AppState {
	return AppState{
		Mode:          QuizModeSetup,
		ExamQuestions: []QuizQuestion{},
		LastSaved:     now,
	}
}

// IsRestorable reports whether the snapshot should be resumed at now.
// A setup snapshot carries nothing worth restoring.
func (s *AppState) IsRestorable(now time.Time, window time.Duration) bool {
	if s.Mode == QuizModeSetup || s.Mode == "" {
		return false
	}
	return now.Sub(s.LastSaved) < window
}

// PassPercentage is the score at or above which an exam counts as passed.
const PassPercentage = 70

// ScorePercentage rounds correct/total to a whole percent.
func ScorePercentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(correct)/float64(total)*100 + 0.5)
}
