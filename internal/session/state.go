// Package session drives one user's assessment: onboarding, the
// questionnaire and the final report.
package session

import (
	"errors"

	"github.com/abhisek/psychometric/internal/assessment"
)

// View is the screen a session is on.
type View string

const (
	ViewOnboarding    View = "onboarding"
	ViewQuestionnaire View = "questionnaire"
	ViewReport        View = "report"
)

// Action names a user-triggered operation. Each action has its own busy
// flag.
type Action string

const (
	ActionAnswer  Action = "answer"
	ActionSpeech  Action = "speech"
	ActionVoice   Action = "voice"
	ActionReplace Action = "replace"
	ActionInsert  Action = "insert"
	ActionFinish  Action = "finish"
)

var (
	// ErrNotFound is returned when no session exists for an ID.
	ErrNotFound = errors.New("session not found")

	// ErrBusy is returned when the same action is already in flight.
	ErrBusy = errors.New("action already in progress")

	// ErrSessionComplete is returned for questionnaire actions once every
	// queued question is answered.
	ErrSessionComplete = errors.New("questionnaire already complete")

	// ErrNotComplete is returned when a report is requested early.
	ErrNotComplete = errors.New("questionnaire not complete")

	// ErrStaleResponse is returned when the question changed while a
	// request was in flight. The response was discarded.
	ErrStaleResponse = errors.New("question changed while the request was in flight")

	// ErrNotUnderstood is returned when a voice answer could not be mapped
	// to an option. The user should try again.
	ErrNotUnderstood = errors.New("could not understand the spoken answer")
)

// Snapshot is a copy of a session's observable state.
type Snapshot struct {
	ID       string                 `json:"id"`
	View     View                   `json:"view"`
	Profile  assessment.UserProfile `json:"profile"`
	HasPhoto bool                   `json:"hasPhoto"`

	// Current is nil once the questionnaire is complete.
	Current  *assessment.Question `json:"current,omitempty"`
	Cursor   int                  `json:"cursor"`
	Total    int                  `json:"total"`
	Answered int                  `json:"answered"`
	Progress float64              `json:"progress"` // percent
	Complete bool                 `json:"complete"`

	Voice   assessment.Voice   `json:"voice"`
	Busy    []Action           `json:"busy"`
	Report  *assessment.Report `json:"report,omitempty"`
	Version uint64             `json:"version"`

	// AnalysisError is set when the questionnaire is complete but the last
	// analysis failed. Retry with Finish.
	AnalysisError string `json:"analysisError,omitempty"`
}

// VoiceOutcome classifies the result of a voice answer.
type VoiceOutcome int

const (
	// VoiceAnswered means an answer was recorded.
	VoiceAnswered VoiceOutcome = iota
	// VoiceRetry means nothing was recorded and the user may try again.
	VoiceRetry
	// VoiceDeviceDenied means the capture device could not be used.
	VoiceDeviceDenied
)

// ClassifyVoice maps the error of a voice operation to its outcome.
func ClassifyVoice(err error) VoiceOutcome {
	if err == nil {
		return VoiceAnswered
	}
	var denied *assessment.DeviceAccessError
	if errors.As(err, &denied) {
		return VoiceDeviceDenied
	}
	return VoiceRetry
}
