// Package questiongen produces new multiple-choice personality questions
// with an LLM provider.
package questiongen

import (
	"context"

	"github.com/abhisek/psychometric/internal/assessment"
)

// Generator produces personality questions for a category.
type Generator interface {
	// Generate returns up to input.Count validated questions, each with a
	// freshly assigned ID. Failures are reported as
	// *assessment.GenerationError.
	Generate(ctx context.Context, input GenerateInput) ([]assessment.Question, error)
}

// GenerateInput holds the context needed to generate questions.
type GenerateInput struct {
	// Category is the area of personality the questions should probe.
	Category assessment.Category

	// Count is the number of questions wanted. Values below 1 mean 1.
	Count int

	// PriorQuestions contains the Text of questions already in the pool.
	// Used for deduplication in the prompt and by DuplicateValidator.
	PriorQuestions []string
}
