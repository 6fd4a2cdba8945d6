// Package bank loads the static question bank once at startup.
package bank

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"quiz-drill/internal/domain"
)

//go:embed questions.json
var bundled []byte

// Bank is the read-only question set for the lifetime of the process.
type Bank struct {
	questions []domain.QuizQuestion
}

// Load reads the bank from path, or the bundled bank when path is empty.
func Load(path string) (*Bank, error) {
	data := bundled
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read question bank %s: %w", path, err)
		}
	}
	return Parse(data)
}

// Parse decodes and validates a JSON array of questions.
// Serials must be unique and every question must have a correct option.
func Parse(data []byte) (*Bank, error) {
	var questions []domain.QuizQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}
	return New(questions)
}

// New validates questions and wraps them in a Bank.
func New(questions []domain.QuizQuestion) (*Bank, error) {
	seen := make(map[int]struct{}, len(questions))
	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid question at index %d: %w", i, err)
		}
		if _, dup := seen[questions[i].Serial]; dup {
			return nil, fmt.Errorf("duplicate question serial %d", questions[i].Serial)
		}
		seen[questions[i].Serial] = struct{}{}
	}
	return &Bank{questions: questions}, nil
}

// Len is the number of questions, the upper bound for setup ranges.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Range returns the questions with serials in [start, end] in serial order.
func (b *Bank) Range(start, end int) []domain.QuizQuestion {
	return domain.SelectByRange(b.questions, start, end)
}

// Find looks up a question by serial.
func (b *Bank) Find(serial int) (domain.QuizQuestion, bool) {
	return domain.FindBySerial(b.questions, serial)
}

// Categories returns the distinct categories in bank order.
func (b *Bank) Categories() []string {
	var categories []string
	seen := make(map[string]struct{})
	for _, q := range b.questions {
		if _, ok := seen[q.Category]; ok {
			continue
		}
		seen[q.Category] = struct{}{}
		categories = append(categories, q.Category)
	}
	return categories
}
