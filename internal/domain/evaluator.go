package domain

import "sort"

// CorrectOptionValues returns the values of the correct options in display order.
func CorrectOptionValues(q *QuizQuestion) []string {
	var values []string
	for _, opt := range q.Options {
		if opt.IsCorrectAns {
			values = append(values, opt.OptionValue)
		}
	}
	return values
}

// IsMultipleChoice reports whether more than one option of q is correct.
func IsMultipleChoice(q *QuizQuestion) bool {
	return len(CorrectOptionValues(q)) > 1
}

// CheckAnswer reports whether selected is exactly the set of correct option values.
// Order is irrelevant and no partial credit is given.
func CheckAnswer(q *QuizQuestion, selected []string) bool {
	correct := CorrectOptionValues(q)
	chosen := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		chosen[s] = struct{}{}
	}
	if len(chosen) != len(correct) {
		return false
	}
	for _, c := range correct {
		if _, ok := chosen[c]; !ok {
			return false
		}
	}
	return true
}

// SelectByRange returns the questions whose serial lies in [start, end] in
// ascending serial order. Questions sharing a serial keep their bank order.
func SelectByRange(questions []QuizQuestion, start, end int) []QuizQuestion {
	selected := make([]QuizQuestion, 0)
	for _, q := range questions {
		if q.Serial >= start && q.Serial <= end {
			selected = append(selected, q)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Serial < selected[j].Serial
	})
	return selected
}

// FindBySerial looks a question up by its serial.
func FindBySerial(questions []QuizQuestion, serial int) (QuizQuestion, bool) {
	for _, q := range questions {
		if q.Serial == serial {
			return q, true
		}
	}
	return QuizQuestion{}, false
}
