package service

import (
	"math"
	"sort"
	"strings"

	"quiz-drill/internal/domain"
	"quiz-drill/internal/dto"
	"quiz-drill/internal/util"
	"quiz-drill/internal/validation"
)

// CategoryDisplayName shortens " and " to " & " for charts.
func CategoryDisplayName(category string) string {
	return strings.Replace(category, " and ", " & ", 1)
}

// CategoryBreakdown counts every question of the result per category,
// in the order categories first appear.
func CategoryBreakdown(result *domain.ExamResult, questions []domain.QuizQuestion) []dto.CategoryBreakdown {
	index := make(map[string]int)
	breakdown := make([]dto.CategoryBreakdown, 0)
	for _, q := range questions {
		i, ok := index[q.Category]
		if !ok {
			i = len(breakdown)
			index[q.Category] = i
			breakdown = append(breakdown, dto.CategoryBreakdown{Category: CategoryDisplayName(q.Category)})
		}
		b := &breakdown[i]
		b.Total++
		a, answered := result.AnswerFor(q.Serial)
		switch {
		case !answered:
			b.Unattended++
		case a.IsCorrect:
			b.Correct++
		default:
			b.Incorrect++
		}
	}
	return breakdown
}

// ReviewQuestions pairs each question with its recorded answer.
func ReviewQuestions(result *domain.ExamResult, questions []domain.QuizQuestion) []dto.QuestionReview {
	reviews := make([]dto.QuestionReview, 0, len(questions))
	for i := range questions {
		q := questions[i]
		review := dto.QuestionReview{
			Question:       q,
			CorrectOptions: domain.CorrectOptionValues(&q),
			Status:         dto.StatusUnanswered,
		}
		if a, ok := result.AnswerFor(q.Serial); ok {
			answer := a
			review.Answer = &answer
			review.Status = dto.StatusIncorrect
			if a.IsCorrect {
				review.Status = dto.StatusCorrect
			}
		}
		reviews = append(reviews, review)
	}
	return reviews
}

// OverviewCategoryStats scores answered questions per category, sorted by name.
func OverviewCategoryStats(result *domain.ExamResult, questions []domain.QuizQuestion) []dto.CategoryStat {
	stats := make(map[string]*dto.CategoryStat)
	for _, q := range questions {
		a, ok := result.AnswerFor(q.Serial)
		if !ok {
			continue
		}
		s, seen := stats[q.Category]
		if !seen {
			s = &dto.CategoryStat{Category: q.Category}
			stats[q.Category] = s
		}
		s.Total++
		if a.IsCorrect {
			s.Correct++
		} else {
			s.Incorrect++
		}
	}

	out := make([]dto.CategoryStat, 0, len(stats))
	for _, s := range stats {
		s.Percentage = domain.ScorePercentage(s.Correct, s.Total)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// FilterOverviewQuestions keeps answered questions matching category
// ("" or "all" for any) and filter (all, correct, incorrect).
func FilterOverviewQuestions(result *domain.ExamResult, questions []domain.QuizQuestion, category, filter string) []dto.QuestionReview {
	out := make([]dto.QuestionReview, 0)
	for _, r := range ReviewQuestions(result, questions) {
		if r.Answer == nil {
			continue
		}
		if category != "" && category != "all" && r.Question.Category != category {
			continue
		}
		if filter == validation.AnswerFilterCorrect && !r.Answer.IsCorrect {
			continue
		}
		if filter == validation.AnswerFilterIncorrect && r.Answer.IsCorrect {
			continue
		}
		out = append(out, r)
	}
	return out
}

// HistoryEntries renders the log for the history list.
func HistoryEntries(history []domain.ExamResult) []dto.HistoryEntry {
	entries := make([]dto.HistoryEntry, 0, len(history))
	for i := range history {
		r := &history[i]
		pct := r.Percentage()
		entries = append(entries, dto.HistoryEntry{
			ID:             r.ID,
			QuestionsRange: r.QuestionsRange,
			TotalQuestions: r.TotalQuestions,
			CorrectAnswers: r.CorrectAnswers,
			Percentage:     pct,
			Passed:         pct >= domain.PassPercentage,
			CompletedAt:    r.CompletedAt,
			TimeTaken:      util.FormatDuration(r.TimeTaken),
		})
	}
	return entries
}

// SummarizeHistory counts passes and failures; the average is of the
// rounded per-exam percentages.
func SummarizeHistory(history []domain.ExamResult) dto.HistorySummary {
	summary := dto.HistorySummary{TotalExams: len(history)}
	if len(history) == 0 {
		return summary
	}
	sum := 0
	for i := range history {
		pct := history[i].Percentage()
		sum += pct
		if pct >= domain.PassPercentage {
			summary.Passed++
		} else {
			summary.Failed++
		}
		if i == 0 || pct > summary.BestPercentage {
			summary.BestPercentage = pct
		}
	}
	summary.AveragePercentage = int(math.Round(float64(sum) / float64(len(history))))
	return summary
}

// MistakeQuery selects and orders the mistakes view.
type MistakeQuery struct {
	Category string
	SortBy   string
	Order    string
}

func (q MistakeQuery) withDefaults() MistakeQuery {
	if q.Category == "" {
		q.Category = "all"
	}
	if q.SortBy == "" {
		q.SortBy = validation.SortByMistakeCount
	}
	if q.Order == "" {
		q.Order = validation.OrderDesc
	}
	return q
}

// FilterMistakes filters by category and sorts stably; the input is not modified.
func FilterMistakes(mistakes []domain.QuestionMistake, query MistakeQuery) []domain.QuestionMistake {
	query = query.withDefaults()
	out := make([]domain.QuestionMistake, 0, len(mistakes))
	for _, m := range mistakes {
		if query.Category == "all" || m.Question.Category == query.Category {
			out = append(out, m)
		}
	}

	less := func(a, b domain.QuestionMistake) int {
		if query.SortBy == validation.SortByLastMistake {
			return a.LastMistakeDate.Compare(b.LastMistakeDate)
		}
		return a.MistakeCount - b.MistakeCount
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := less(out[i], out[j])
		if query.Order == validation.OrderDesc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// SummarizeMistakes is computed over the whole tally, not the filtered view.
func SummarizeMistakes(mistakes []domain.QuestionMistake) dto.MistakeStats {
	stats := dto.MistakeStats{Questions: len(mistakes)}
	if len(mistakes) == 0 {
		return stats
	}
	for _, m := range mistakes {
		stats.TotalMistakes += m.MistakeCount
		if m.MistakeCount > stats.MaxMistakes {
			stats.MaxMistakes = m.MistakeCount
		}
	}
	stats.AverageMistakes = math.Round(float64(stats.TotalMistakes)/float64(len(mistakes))*10) / 10
	return stats
}

// MistakeCategories lists distinct categories in first-seen order.
func MistakeCategories(mistakes []domain.QuestionMistake) []string {
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, m := range mistakes {
		if _, ok := seen[m.Question.Category]; ok {
			continue
		}
		seen[m.Question.Category] = struct{}{}
		categories = append(categories, m.Question.Category)
	}
	return categories
}

// BuildMistakesScreen applies query to the tally.
func BuildMistakesScreen(mistakes []domain.QuestionMistake, query MistakeQuery) *dto.MistakesScreen {
	query = query.withDefaults()
	return &dto.MistakesScreen{
		Mistakes:   FilterMistakes(mistakes, query),
		Stats:      SummarizeMistakes(mistakes),
		Categories: MistakeCategories(mistakes),
		Category:   query.Category,
		SortBy:     query.SortBy,
		Order:      query.Order,
	}
}

// BuildResultsScreen renders a result with its breakdown.
func BuildResultsScreen(result *domain.ExamResult, questions []domain.QuizQuestion, canRetake bool) *dto.ResultsScreen {
	pct := result.Percentage()
	return &dto.ResultsScreen{
		Result:     result,
		Percentage: pct,
		Passed:     pct >= domain.PassPercentage,
		TimeTaken:  util.FormatDuration(result.TimeTaken),
		Categories: CategoryBreakdown(result, questions),
		Review:     ReviewQuestions(result, questions),
		CanRetake:  canRetake,
	}
}

// BuildOverviewScreen renders the overview with the given filters.
func BuildOverviewScreen(result *domain.ExamResult, questions []domain.QuizQuestion, category, filter string) *dto.OverviewScreen {
	if category == "" {
		category = "all"
	}
	if filter == "" {
		filter = validation.AnswerFilterAll
	}
	return &dto.OverviewScreen{
		Result:     result,
		Categories: OverviewCategoryStats(result, questions),
		Questions:  FilterOverviewQuestions(result, questions, category, filter),
		Category:   category,
		Filter:     filter,
	}
}
