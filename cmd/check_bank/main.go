package main

import (
	"flag"
	"fmt"
	"os"

	"quiz-drill/internal/bank"
	"quiz-drill/internal/config"
	"quiz-drill/internal/domain"
	"quiz-drill/internal/logger"

	"go.uber.org/zap"
)

// check_bank validates a question bank file before the API is pointed at it.
func main() {
	path := flag.String("bank", "", "question bank JSON file (defaults to exam.question_bank_path, then the bundled bank)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	source := *path
	if source == "" {
		source = cfg.Exam.QuestionBankPath
	}

	b, err := bank.Load(source)
	if err != nil {
		logger.Get().Error("Question bank is invalid", zap.String("path", source), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	questions := b.Range(1, b.Len())
	if len(questions) != b.Len() {
		logger.Get().Warn("Serials are not contiguous from 1; setup ranges will skip the gaps",
			zap.Int("questions", b.Len()),
			zap.Int("inRange", len(questions)))
	}

	multi := 0
	perCategory := make(map[string]int)
	for i := range questions {
		if domain.IsMultipleChoice(&questions[i]) {
			multi++
		}
		perCategory[questions[i].Category]++
	}

	logger.Get().Info("Question bank is valid",
		zap.String("path", source),
		zap.Int("questions", b.Len()),
		zap.Int("multipleChoice", multi))
	for _, category := range b.Categories() {
		logger.Get().Info("Category", zap.String("name", category), zap.Int("questions", perCategory[category]))
	}
}
