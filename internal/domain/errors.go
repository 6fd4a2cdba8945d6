package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"

	// Exam specific errors
	CodeInvalidTransition    ErrorCode = "INVALID_TRANSITION"
	CodeConfirmationRequired ErrorCode = "CONFIRMATION_REQUIRED"
	CodeDataNotAvailable     ErrorCode = "DATA_NOT_AVAILABLE"
	CodeQuestionNotFound     ErrorCode = "QUESTION_NOT_FOUND"
	CodeResultNotFound       ErrorCode = "RESULT_NOT_FOUND"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another DomainError by code, so errors.Is works against the sentinels below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Context: e.Context,
	})
}

// WithContext attaches a key/value detail to the error and returns it.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewInvalidTransitionError(message string) *DomainError {
	return NewError(CodeInvalidTransition, message, nil)
}

func NewConfirmationRequiredError(action string) *DomainError {
	return NewError(CodeConfirmationRequired, fmt.Sprintf("%s requires confirmation", action), nil).
		WithContext("action", action)
}

// NewDataNotAvailableError is returned when a view is requested without the data it renders.
// The fallback mode tells the caller where a known-good view is.
func NewDataNotAvailableError(view QuizMode, fallback QuizMode) *DomainError {
	return NewError(CodeDataNotAvailable, fmt.Sprintf("data not available for %s view", view), nil).
		WithContext("fallback", string(fallback))
}

func NewQuestionNotFoundError(serial int) *DomainError {
	return NewError(CodeQuestionNotFound, fmt.Sprintf("question not found with serial: %d", serial), nil)
}

func NewResultNotFoundError(id string) *DomainError {
	return NewError(CodeResultNotFound, fmt.Sprintf("exam result not found with ID: %s", id), nil)
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidInput         = &DomainError{Code: CodeInvalidInput}
	ErrNotFound             = &DomainError{Code: CodeNotFound}
	ErrInvalidTransition    = &DomainError{Code: CodeInvalidTransition}
	ErrConfirmationRequired = &DomainError{Code: CodeConfirmationRequired}
	ErrDataNotAvailable     = &DomainError{Code: CodeDataNotAvailable}
)

// ValidationError is a single field-level validation failure.
// Message is meant to be shown to the user as is.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a field-level validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ValidationErrors collects every validation failure of a request.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	return strings.Join(v.Messages(), "; ")
}

// Messages returns the human readable messages in order.
func (v ValidationErrors) Messages() []string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Message)
	}
	return msgs
}
