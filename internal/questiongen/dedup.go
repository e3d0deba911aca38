package questiongen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/abhisek/psychometric/internal/assessment"
)

// buildDedup formats prior questions for the prompt, respecting the max limit.
// Returns "None" if there are no prior questions.
func buildDedup(priorQuestions []string, max int) string {
	if len(priorQuestions) == 0 {
		return "None"
	}

	// Keep only the most recent N questions.
	if max > 0 && len(priorQuestions) > max {
		priorQuestions = priorQuestions[len(priorQuestions)-max:]
	}

	var b strings.Builder
	for i, q := range priorQuestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}

// normalizeText lowercases s and drops everything but letters and digits,
// so "Do you plan ahead?" and "do you plan ahead" compare equal.
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DuplicateValidator rejects questions whose text repeats one already in
// the pool.
type DuplicateValidator struct{}

func (v *DuplicateValidator) Name() string { return "duplicate" }

func (v *DuplicateValidator) Validate(q *assessment.Question, input GenerateInput) *ValidationError {
	text := normalizeText(q.Text)
	for _, prior := range input.PriorQuestions {
		if normalizeText(prior) == text {
			return &ValidationError{
				Validator: v.Name(),
				Message:   "question repeats one already asked",
			}
		}
	}
	return nil
}
