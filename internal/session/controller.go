package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/abhisek/psychometric/internal/assessment"
	"github.com/abhisek/psychometric/internal/audio"
	"github.com/abhisek/psychometric/internal/persist"
	"github.com/abhisek/psychometric/internal/questiongen"
	"github.com/abhisek/psychometric/internal/questionpool"
	"github.com/abhisek/psychometric/internal/speech"
	"github.com/abhisek/psychometric/internal/store"
)

// Speaker reads a question aloud.
type Speaker interface {
	Speak(ctx context.Context, q assessment.Question, voice assessment.Voice) (speech.Audio, error)
}

// Interpreter maps a voice recording to an option of q.
type Interpreter interface {
	Interpret(ctx context.Context, rec audio.Recording, q assessment.Question) (assessment.Label, bool, error)
}

// Analyzer synthesizes the report of a finished questionnaire.
type Analyzer interface {
	Analyze(ctx context.Context, profile assessment.UserProfile, answers []assessment.Answer, questions []assessment.Question) (*assessment.Report, error)
}

// Observer is told the outcome of every session action.
type Observer interface {
	ObserveSessionAction(action string, err error)
}

// Deps are the collaborators shared by all sessions.
type Deps struct {
	// KV stores profiles, answers and reports. Required.
	KV persist.KV

	// Bank supplies the seed pool. Nil means the built-in seed questions.
	Bank *persist.Bank

	Generator   questiongen.Generator
	Speaker     Speaker
	Interpreter Interpreter
	Analyzer    Analyzer

	// Events, when set, receives an audit record per action.
	Events store.SessionEventRepo

	// Observer, when set, receives every action outcome.
	Observer Observer

	// QueueSize is the number of questions asked. Zero means
	// assessment.DefaultQueueSize.
	QueueSize int

	// DefaultVoice is the initial read-aloud voice.
	DefaultVoice assessment.Voice

	// Rand shuffles the pool. Nil uses a random seed.
	Rand *rand.Rand

	// Clock stamps answers. Nil means time.Now.
	Clock func() time.Time
}

func (d Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

func (d Deps) queueSize() int {
	if d.QueueSize > 0 {
		return d.QueueSize
	}
	return assessment.DefaultQueueSize
}

// Controller is the state of one assessment session. It is safe for
// concurrent use. The mutex guards state only and is never held across a
// provider or storage call.
type Controller struct {
	id    string
	deps  Deps
	store *persist.Adapter

	mu      sync.Mutex
	view    View
	profile assessment.UserProfile
	pool    *questionpool.Pool
	cursor  int
	answers []assessment.Answer
	report  *assessment.Report
	voice   assessment.Voice
	busy    map[Action]bool

	// finishErr is the last analysis failure, cleared once a report exists.
	finishErr error

	// version changes whenever the current question can change. Long
	// running actions compare it on return to detect stale responses.
	version uint64
}

func newController(deps Deps, id string) *Controller {
	var opts []questionpool.Option
	if deps.Rand != nil {
		opts = append(opts, questionpool.WithRand(deps.Rand))
	}
	voice := deps.DefaultVoice
	if voice == "" {
		voice = assessment.DefaultVoice
	}
	return &Controller{
		id:    id,
		deps:  deps,
		store: persist.New(deps.KV, id),
		view:  ViewOnboarding,
		pool:  questionpool.New(deps.Generator, opts...),
		voice: voice,
		busy:  make(map[Action]bool),
	}
}

// Onboard validates profile, persists it and starts a fresh questionnaire.
func Onboard(ctx context.Context, deps Deps, id string, profile assessment.UserProfile) (*Controller, error) {
	if err := assessment.ValidateProfile(profile); err != nil {
		return nil, err
	}
	c := newController(deps, id)
	c.profile = profile

	if err := c.store.Clear(ctx); err != nil {
		return nil, err
	}
	if err := c.store.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	if err := c.startQuestionnaire(ctx); err != nil {
		return nil, err
	}
	c.record(ctx, "onboard", "", profile.Name, nil)
	return c, nil
}

// Resume restores a session from storage. A stored report reopens the
// report view; a profile without a report starts the questionnaire again.
// It returns ErrNotFound when nothing was stored for id.
func Resume(ctx context.Context, deps Deps, id string) (*Controller, error) {
	c := newController(deps, id)

	profile, err := c.store.LoadProfile(ctx)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	c.profile = *profile

	report, err := c.store.LoadReport(ctx)
	if err != nil {
		return nil, err
	}
	if report == nil {
		if err := c.startQuestionnaire(ctx); err != nil {
			return nil, err
		}
		c.record(ctx, "resume", "", "questionnaire", nil)
		return c, nil
	}

	answers, err := c.store.LoadAnswers(ctx)
	if err != nil {
		return nil, err
	}
	seed, err := c.seed(ctx)
	if err != nil {
		return nil, err
	}
	queue, err := c.store.LoadQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if len(queue) < len(answers) {
		// Sessions finished before the question list was saved.
		queue, answers = answeredQuestions(seed, answers)
	}
	c.answers = answers
	c.pool.Restore(seed, queue)
	c.cursor = len(answers)
	c.report = report
	c.view = ViewReport
	c.record(ctx, "resume", "", "report", nil)
	return c, nil
}

// answeredQuestions looks up the question of each answer in pool. Answers
// whose question is not in pool are dropped so the queue never holds
// fewer questions than there are answers.
func answeredQuestions(pool []assessment.Question, answers []assessment.Answer) ([]assessment.Question, []assessment.Answer) {
	byID := make(map[string]assessment.Question, len(pool))
	for _, q := range pool {
		byID[q.ID] = q
	}
	queue := make([]assessment.Question, 0, len(answers))
	kept := make([]assessment.Answer, 0, len(answers))
	for _, a := range answers {
		if q, ok := byID[a.QuestionID]; ok {
			queue = append(queue, q)
			kept = append(kept, a)
		}
	}
	return queue, kept
}

func (c *Controller) seed(ctx context.Context) ([]assessment.Question, error) {
	if c.deps.Bank == nil {
		return assessment.SeedQuestions(), nil
	}
	return c.deps.Bank.Pool(ctx)
}

func (c *Controller) startQuestionnaire(ctx context.Context) error {
	seed, err := c.seed(ctx)
	if err != nil {
		return err
	}
	if err := c.store.SaveAnswers(ctx, []assessment.Answer{}); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pool.Initialize(seed, c.deps.queueSize())
	c.cursor = 0
	c.answers = nil
	c.report = nil
	c.finishErr = nil
	c.view = ViewQuestionnaire
	c.version++
	return nil
}

// ID returns the session ID.
func (c *Controller) ID() string { return c.id }

// Snapshot returns a copy of the observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.pool.Len()
	s := Snapshot{
		ID:       c.id,
		View:     c.view,
		Profile:  c.profile,
		HasPhoto: c.profile.Photo != nil,
		Cursor:   c.cursor,
		Total:    total,
		Answered: len(c.answers),
		Complete: c.complete(),
		Voice:    c.voice,
		Busy:     c.busyActions(),
		Report:   c.report,
		Version:  c.version,
	}
	s.Profile.Photo = nil
	if c.finishErr != nil && c.report == nil {
		s.AnalysisError = c.finishErr.Error()
	}
	if total > 0 {
		s.Progress = float64(len(c.answers)) / float64(total) * 100
	}
	if q, ok := c.currentLocked(); ok {
		s.Current = &q
	}
	return s
}

// Questions returns the active queue.
func (c *Controller) Questions() []assessment.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool.Queue()
}

// Answers returns the answers recorded so far.
func (c *Controller) Answers() []assessment.Answer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.answers)
}

// Report returns the report, or nil before analysis succeeded.
func (c *Controller) Report() *assessment.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// Profile returns the onboarding profile.
func (c *Controller) Profile() assessment.UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// SetVoice selects the read-aloud voice.
func (c *Controller) SetVoice(v assessment.Voice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voice = v
}

func (c *Controller) complete() bool {
	return c.report != nil || len(c.answers) >= c.pool.Len()
}

func (c *Controller) currentLocked() (assessment.Question, bool) {
	if c.view != ViewQuestionnaire || c.complete() {
		return assessment.Question{}, false
	}
	return c.pool.At(c.cursor)
}

func (c *Controller) busyActions() []Action {
	out := make([]Action, 0, len(c.busy))
	for a, on := range c.busy {
		if on {
			out = append(out, a)
		}
	}
	slices.Sort(out)
	return out
}

// ticket is taken when a long-running action starts.
type ticket struct {
	action   Action
	version  uint64
	cursor   int
	question assessment.Question
}

// beginLocked marks action busy and captures the current question.
// Callers hold c.mu.
func (c *Controller) beginLocked(action Action) (ticket, error) {
	if c.view != ViewQuestionnaire || c.complete() {
		return ticket{}, ErrSessionComplete
	}
	if c.busy[action] {
		return ticket{}, fmt.Errorf("%w: %s", ErrBusy, action)
	}
	q, ok := c.pool.At(c.cursor)
	if !ok {
		return ticket{}, ErrSessionComplete
	}
	c.busy[action] = true
	return ticket{action: action, version: c.version, cursor: c.cursor, question: q}, nil
}

func (c *Controller) begin(action Action) (ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beginLocked(action)
}

func (c *Controller) end(action Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busy, action)
}

// SubmitAnswer records label for the current question and advances. The
// answer that completes the queue triggers Finish. A failed analysis does
// not fail the answer; it shows up as Snapshot.AnalysisError and Finish
// may be retried.
func (c *Controller) SubmitAnswer(ctx context.Context, label assessment.Label) error {
	return c.answer(ctx, label, nil)
}

// answer records label. When expect is set the answer is dropped with
// ErrStaleResponse unless the state version still matches.
func (c *Controller) answer(ctx context.Context, label assessment.Label, expect *uint64) error {
	c.mu.Lock()
	if c.view != ViewQuestionnaire || c.complete() {
		c.mu.Unlock()
		return ErrSessionComplete
	}
	if c.busy[ActionAnswer] {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBusy, ActionAnswer)
	}
	if expect != nil && *expect != c.version {
		c.mu.Unlock()
		return ErrStaleResponse
	}
	q, _ := c.pool.At(c.cursor)
	if _, ok := q.Options.Get(label); !ok {
		c.mu.Unlock()
		return assessment.NewValidationError("selectedOption", fmt.Sprintf("%q is not an option of this question", label))
	}
	c.answers = append(c.answers, assessment.Answer{
		QuestionID:     q.ID,
		SelectedOption: label,
		Timestamp:      c.deps.now().UnixMilli(),
	})
	c.cursor++
	c.version++
	answers := slices.Clone(c.answers)
	done := c.complete()
	c.busy[ActionAnswer] = true
	c.mu.Unlock()

	err := c.store.SaveAnswers(ctx, answers)
	if err != nil {
		slog.Warn("persisting answers failed", "session", c.id, "error", err)
	}
	c.end(ActionAnswer)
	c.record(ctx, string(ActionAnswer), q.ID, string(label), nil)

	if done {
		// ErrBusy means a concurrent Finish is already producing the report.
		if _, err := c.Finish(ctx); err != nil && !errors.Is(err, ErrBusy) {
			slog.Warn("analysis after final answer failed", "session", c.id, "error", err)
		}
	}
	return nil
}

// Skip defers the current question to the end of the queue.
func (c *Controller) Skip(ctx context.Context) error {
	c.mu.Lock()
	if c.view != ViewQuestionnaire || c.complete() {
		c.mu.Unlock()
		return ErrSessionComplete
	}
	q, _ := c.pool.At(c.cursor)
	c.cursor = c.pool.Skip(c.cursor)
	c.version++
	c.mu.Unlock()

	c.record(ctx, "skip", q.ID, "", nil)
	return nil
}

// Replace swaps the current question for an unused pool question, or for
// a generated one in the same category when the pool is used up. The
// queue is unchanged on failure.
func (c *Controller) Replace(ctx context.Context) (assessment.Question, error) {
	c.mu.Lock()
	t, err := c.beginLocked(ActionReplace)
	if err != nil {
		c.mu.Unlock()
		return assessment.Question{}, err
	}
	if q, ok := c.pool.FindUnused(); ok {
		err := c.pool.Substitute(t.cursor, q)
		if err == nil {
			c.version++
		}
		delete(c.busy, ActionReplace)
		c.mu.Unlock()
		c.record(ctx, string(ActionReplace), t.question.ID, q.ID, err)
		return q, err
	}
	prior := c.pool.Texts()
	c.mu.Unlock()

	q, err := questionpool.GenerateOne(ctx, c.deps.Generator, t.question.Category, prior)

	c.mu.Lock()
	delete(c.busy, ActionReplace)
	if err == nil {
		c.pool.Adopt(q)
		if c.version != t.version {
			err = ErrStaleResponse
		} else if err = c.pool.Substitute(t.cursor, q); err == nil {
			c.version++
		}
	}
	c.mu.Unlock()

	c.record(ctx, string(ActionReplace), t.question.ID, q.ID, err)
	if err != nil {
		return assessment.Question{}, err
	}
	return q, nil
}

// InsertQuestion generates a question in category and queues it right
// after the current one.
func (c *Controller) InsertQuestion(ctx context.Context, category assessment.Category) (assessment.Question, error) {
	if !category.Valid() {
		return assessment.Question{}, assessment.NewValidationError("category", fmt.Sprintf("unknown category %q", category))
	}
	c.mu.Lock()
	t, err := c.beginLocked(ActionInsert)
	if err != nil {
		c.mu.Unlock()
		return assessment.Question{}, err
	}
	prior := c.pool.Texts()
	c.mu.Unlock()

	q, err := questionpool.GenerateOne(ctx, c.deps.Generator, category, prior)

	c.mu.Lock()
	delete(c.busy, ActionInsert)
	if err == nil {
		c.pool.Adopt(q)
		if c.version != t.version {
			err = ErrStaleResponse
		} else if err = c.pool.Insert(t.cursor, q); err == nil {
			c.version++
		}
	}
	c.mu.Unlock()

	c.record(ctx, "insert", q.ID, string(category), err)
	if err != nil {
		return assessment.Question{}, err
	}
	return q, nil
}

// RequestSpeech synthesizes the current question. An empty voice uses the
// session's selected voice. Failures are surfaced and never retried.
func (c *Controller) RequestSpeech(ctx context.Context, voice assessment.Voice) (speech.Audio, error) {
	c.mu.Lock()
	t, err := c.beginLocked(ActionSpeech)
	if voice == "" {
		voice = c.voice
	}
	c.mu.Unlock()
	if err != nil {
		return speech.Audio{}, err
	}
	defer c.end(ActionSpeech)

	if c.deps.Speaker == nil {
		return speech.Audio{}, &assessment.SynthesisError{Err: errors.New("speech synthesis is not configured")}
	}
	clip, err := c.deps.Speaker.Speak(ctx, t.question, voice)
	if err != nil {
		c.record(ctx, string(ActionSpeech), t.question.ID, string(voice), err)
		return speech.Audio{}, err
	}
	if c.stale(t) {
		return speech.Audio{}, ErrStaleResponse
	}
	return clip, nil
}

func (c *Controller) stale(t ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version != t.version
}

// SubmitVoiceRecording interprets rec and, when it names an option of the
// current question, records it as the answer. A recording that cannot be
// understood returns ErrNotUnderstood and records nothing.
func (c *Controller) SubmitVoiceRecording(ctx context.Context, rec audio.Recording) (assessment.Label, error) {
	t, err := c.begin(ActionVoice)
	if err != nil {
		return "", err
	}
	defer c.end(ActionVoice)
	return c.interpretAndAnswer(ctx, t, rec)
}

// RecordVoiceAnswer captures audio from dev until stop is closed or the
// stream ends, then behaves like SubmitVoiceRecording. The device is
// released on every path. Use ClassifyVoice on the error to tell a retry
// from a denied device.
func (c *Controller) RecordVoiceAnswer(ctx context.Context, dev audio.Device, stop <-chan struct{}) (assessment.Label, error) {
	t, err := c.begin(ActionVoice)
	if err != nil {
		return "", err
	}
	defer c.end(ActionVoice)

	rec, err := audio.Capture(ctx, dev, stop)
	if err != nil {
		c.record(ctx, string(ActionVoice), t.question.ID, "capture", err)
		return "", err
	}
	return c.interpretAndAnswer(ctx, t, rec)
}

func (c *Controller) interpretAndAnswer(ctx context.Context, t ticket, rec audio.Recording) (assessment.Label, error) {
	if c.deps.Interpreter == nil {
		return "", &assessment.InterpretationError{Err: errors.New("voice answers are not configured")}
	}
	label, ok, err := c.deps.Interpreter.Interpret(ctx, rec, t.question)
	if err == nil && !ok {
		err = ErrNotUnderstood
	}
	if err != nil {
		c.record(ctx, string(ActionVoice), t.question.ID, "", err)
		return "", err
	}
	if err := c.answer(ctx, label, &t.version); err != nil {
		return label, err
	}
	return label, nil
}

// Finish runs the analysis of a complete questionnaire, persists the
// report and switches to the report view. On failure the session stays
// complete without a report and Finish may be called again. A session
// that already has a report returns it.
func (c *Controller) Finish(ctx context.Context) (*assessment.Report, error) {
	c.mu.Lock()
	if c.report != nil {
		r := c.report
		c.mu.Unlock()
		return r, nil
	}
	if c.view != ViewQuestionnaire || !c.complete() {
		c.mu.Unlock()
		return nil, ErrNotComplete
	}
	if c.busy[ActionFinish] {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrBusy, ActionFinish)
	}
	c.busy[ActionFinish] = true
	profile := c.profile
	answers := slices.Clone(c.answers)
	questions := c.pool.Queue()
	c.mu.Unlock()
	defer c.end(ActionFinish)

	var report *assessment.Report
	var err error
	if c.deps.Analyzer == nil {
		err = &assessment.AnalysisError{Err: errors.New("analysis is not configured")}
	} else {
		report, err = c.deps.Analyzer.Analyze(ctx, profile, answers, questions)
	}
	if err != nil {
		c.mu.Lock()
		c.finishErr = err
		c.mu.Unlock()
		c.record(ctx, string(ActionFinish), "", "", err)
		return nil, err
	}

	if err := c.store.SaveAnswers(ctx, answers); err != nil {
		slog.Warn("persisting answers failed", "session", c.id, "error", err)
	}
	if err := c.store.SaveQuestions(ctx, questions); err != nil {
		slog.Warn("persisting questions failed", "session", c.id, "error", err)
	}
	if err := c.store.SaveReport(ctx, *report); err != nil {
		slog.Warn("persisting report failed", "session", c.id, "error", err)
	}

	c.mu.Lock()
	c.report = report
	c.finishErr = nil
	c.view = ViewReport
	c.mu.Unlock()

	c.record(ctx, string(ActionFinish), "", report.PsychologicalArchetype, nil)
	return report, nil
}

// Clear removes the persisted records and returns the session to
// onboarding.
func (c *Controller) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.view = ViewOnboarding
	c.profile = assessment.UserProfile{}
	c.answers = nil
	c.report = nil
	c.finishErr = nil
	c.cursor = 0
	c.pool.Restore(nil, nil)
	c.version++
	c.mu.Unlock()
	c.record(ctx, "reset", "", "", nil)
	return nil
}

// record writes the audit event and reports the outcome. Event failures
// are logged and otherwise ignored.
func (c *Controller) record(ctx context.Context, action, questionID, detail string, err error) {
	if c.deps.Observer != nil {
		c.deps.Observer.ObserveSessionAction(action, err)
	}
	if err != nil {
		slog.Debug("session action failed", "session", c.id, "action", action, "error", err)
		detail = err.Error()
		action += ".failed"
	}
	if c.deps.Events == nil {
		return
	}
	if eerr := c.deps.Events.AppendSessionEvent(ctx, store.SessionEventData{
		SessionID:  c.id,
		Action:     action,
		QuestionID: questionID,
		Detail:     detail,
	}); eerr != nil {
		slog.Warn("recording session event failed", "session", c.id, "action", action, "error", eerr)
	}
}
