package questiongen

import (
	"fmt"

	"github.com/abhisek/psychometric/internal/assessment"
)

// Validator checks a generated question before it is handed out.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for error messages and logging,
	// e.g. "structural".
	Name() string

	// Validate returns nil if the question passes.
	Validate(q *assessment.Question, input GenerateInput) *ValidationError
}

// ValidationError describes why a generated question was rejected.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Message   string // Human-readable description of the failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}
