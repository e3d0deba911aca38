package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/psychometric/internal/assessment"
	"github.com/abhisek/psychometric/internal/audio"
	"github.com/abhisek/psychometric/internal/session"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Message string                  `json:"message"`
	Fields  []assessment.FieldError `json:"fields,omitempty"`
	// Action is "reset" when the client should start over.
	Action string `json:"action,omitempty"`
}

// classify maps err to a status code and a stable error code.
func classify(err error) (int, string) {
	var (
		validation *assessment.ValidationError
		device     *assessment.DeviceAccessError
		generation *assessment.GenerationError
		synthesis  *assessment.SynthesisError
		interpret  *assessment.InterpretationError
		analysis   *assessment.AnalysisError
		tooLarge   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "validation_failed"
	case errors.As(err, &device):
		return http.StatusForbidden, "device_unavailable"
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, session.ErrSessionComplete):
		return http.StatusConflict, "complete"
	case errors.Is(err, session.ErrNotComplete):
		return http.StatusConflict, "not_complete"
	case errors.Is(err, session.ErrStaleResponse):
		return http.StatusConflict, "stale"
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, session.ErrNotUnderstood), errors.Is(err, audio.ErrEmptyRecording):
		return http.StatusUnprocessableEntity, "not_understood"
	case errors.As(err, &generation):
		return http.StatusBadGateway, "generation_failed"
	case errors.As(err, &synthesis):
		return http.StatusBadGateway, "synthesis_failed"
	case errors.As(err, &interpret):
		return http.StatusBadGateway, "interpretation_failed"
	case errors.As(err, &analysis):
		return http.StatusBadGateway, "analysis_failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal"
}

// messages are shown to the user as-is.
var messages = map[string]string{
	"device_unavailable":    "Microphone access was denied or is unavailable.",
	"not_found":             "Session not found.",
	"busy":                  "That action is already in progress.",
	"complete":              "The questionnaire is already complete.",
	"not_complete":          "Answer every question before requesting the report.",
	"stale":                 "The question changed while the request was in flight.",
	"not_understood":        "We could not understand your answer. Please try again.",
	"generation_failed":     "Could not generate a new question. Please try again.",
	"synthesis_failed":      "Could not read the question aloud. Please try again.",
	"interpretation_failed": "Could not process the recording. Please try again.",
	"analysis_failed":       "Analysis failed. Please try again.",
	"too_large":             "The recording is too large.",
	"timeout":               "The request timed out. Please try again.",
	"internal":              "Something went wrong. Please reset and try again.",
}

func (s *Server) fail(c *gin.Context, err error) {
	status, code := classify(err)
	resp := ErrorResponse{Error: code, Message: messages[code]}

	var validation *assessment.ValidationError
	if errors.As(err, &validation) {
		resp.Message = validation.Error()
		resp.Fields = validation.Fields
	}
	if status == http.StatusInternalServerError {
		resp.Action = "reset"
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

func (s *Server) badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	})
}
