package validation

import (
	"fmt"
	"strings"

	"quiz-drill/internal/domain"
	"quiz-drill/internal/util"
)

// Preset is a quick-start range offered on the setup view.
type Preset struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Presets lists the quick-start ranges in display order.
var Presets = []Preset{
	{Name: "1-50", Start: 1, End: 50},
	{Name: "51-100", Start: 51, End: 100},
	{Name: "101-150", Start: 101, End: 150},
	{Name: "1-100", Start: 1, End: 100},
}

// Filters accepted by the overview and mistakes views.
const (
	AnswerFilterAll       = "all"
	AnswerFilterCorrect   = "correct"
	AnswerFilterIncorrect = "incorrect"

	SortByMistakeCount = "mistakeCount"
	SortByLastMistake  = "lastMistakeDate"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateExamSettings checks a setup request against a bank of totalQuestions.
// Every failing rule contributes one message; an empty result means valid.
func (v *Validator) ValidateExamSettings(settings domain.ExamSettings, totalQuestions int) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if settings.StartQuestion < 1 || settings.StartQuestion > totalQuestions {
		errors = append(errors, *domain.NewValidationError("startQuestion",
			fmt.Sprintf("Start question must be between 1 and %d", totalQuestions)))
	}

	if settings.EndQuestion < 1 || settings.EndQuestion > totalQuestions {
		errors = append(errors, *domain.NewValidationError("endQuestion",
			fmt.Sprintf("End question must be between 1 and %d", totalQuestions)))
	}

	if settings.StartQuestion > settings.EndQuestion {
		errors = append(errors, *domain.NewValidationError("range",
			"Start question cannot be greater than end question"))
	}

	if !settings.Mode.IsValid() {
		errors = append(errors, *domain.NewValidationError("mode",
			fmt.Sprintf("Exam mode must be %q or %q", domain.ExamModePractice, domain.ExamModeExam)))
	}

	return errors
}

// ResolvePreset turns a preset name into settings for mode.
func (v *Validator) ResolvePreset(name string, mode domain.ExamMode) (domain.ExamSettings, domain.ValidationErrors) {
	for _, p := range Presets {
		if p.Name == strings.TrimSpace(name) {
			return domain.ExamSettings{StartQuestion: p.Start, EndQuestion: p.End, Mode: mode}, nil
		}
	}
	return domain.ExamSettings{}, domain.ValidationErrors{
		*domain.NewValidationError("preset", fmt.Sprintf("Unknown quick-start range: %s", name)),
	}
}

// ValidateResultID validates a history entry id.
func (v *Validator) ValidateResultID(id string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(id) == "" {
		errors = append(errors, *domain.NewValidationError("id", "Result id is required"))
	} else if !util.IsValidULID(id) {
		errors = append(errors, *domain.NewValidationError("id", fmt.Sprintf("Result id has an invalid format: %s", id)))
	}
	return errors
}

// ValidateAnswerFilter accepts "", all, correct and incorrect.
func (v *Validator) ValidateAnswerFilter(filter string) domain.ValidationErrors {
	switch filter {
	case "", AnswerFilterAll, AnswerFilterCorrect, AnswerFilterIncorrect:
		return nil
	}
	return domain.ValidationErrors{
		*domain.NewValidationError("filter", fmt.Sprintf("Filter must be one of all, correct, incorrect: %s", filter)),
	}
}

// ValidateMistakeSort checks the sort key and direction of the mistakes view.
func (v *Validator) ValidateMistakeSort(sortBy, order string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	switch sortBy {
	case "", SortByMistakeCount, SortByLastMistake:
	default:
		errors = append(errors, *domain.NewValidationError("sortBy",
			fmt.Sprintf("Sort must be one of mistakeCount, lastMistakeDate: %s", sortBy)))
	}
	switch order {
	case "", OrderAsc, OrderDesc:
	default:
		errors = append(errors, *domain.NewValidationError("order",
			fmt.Sprintf("Order must be asc or desc: %s", order)))
	}
	return errors
}

// ValidateSerial checks a question serial is usable as a key.
func (v *Validator) ValidateSerial(serial int) domain.ValidationErrors {
	if serial < 1 {
		return domain.ValidationErrors{
			*domain.NewValidationError("serial", fmt.Sprintf("Question serial must be positive: %d", serial)),
		}
	}
	return nil
}
