package assessment

import (
	"fmt"
	"strings"
)

// GenerationError indicates that new questions could not be produced.
type GenerationError struct {
	Category Category
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s questions: %v", e.Category, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// SynthesisError indicates that speech audio could not be produced.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize speech: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// InterpretationError indicates that a voice recording could not be
// mapped to an option because the call itself failed.
type InterpretationError struct {
	Err error
}

func (e *InterpretationError) Error() string {
	return fmt.Sprintf("interpret spoken answer: %v", e.Err)
}

func (e *InterpretationError) Unwrap() error { return e.Err }

// AnalysisError indicates that the personality report could not be
// synthesized. The session stays complete and the call may be retried.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze profile: %v", e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// DeviceAccessError indicates that an audio capture device was denied or
// unavailable.
type DeviceAccessError struct {
	Device string
	Err    error
}

func (e *DeviceAccessError) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("audio device unavailable: %v", e.Err)
	}
	return fmt.Sprintf("audio device %q unavailable: %v", e.Device, e.Err)
}

func (e *DeviceAccessError) Unwrap() error { return e.Err }

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports invalid user input. It never wraps a transport
// failure.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
