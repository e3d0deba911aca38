package questiongen

import (
	"errors"

	"github.com/abhisek/psychometric/internal/assessment"
)

// StructuralValidator applies the same rules as questions added to the
// bank: text and options A-D present, length limits, no duplicate options.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *assessment.Question, _ GenerateInput) *ValidationError {
	err := assessment.ValidateQuestion(*q)
	if err == nil {
		return nil
	}
	var verr *assessment.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		f := verr.Fields[0]
		return &ValidationError{Validator: v.Name(), Message: f.Field + " " + f.Message}
	}
	return &ValidationError{Validator: v.Name(), Message: err.Error()}
}
