// Package persist stores the user's profile, answers and report so a
// session survives a restart. Records are JSON documents keyed per
// session over any KV backend.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/psychometric/internal/assessment"
	"github.com/abhisek/psychometric/internal/store"
)

// Key names a persisted record.
type Key string

const (
	KeyUserProfile     Key = "psy_user_profile"
	KeyAnswers         Key = "psy_answers"
	KeyReport          Key = "psy_report"
	KeyQuestions       Key = "psy_questions"
	KeyCustomQuestions Key = "psy_custom_questions"
)

// sessionKeys are the records removed by Clear.
var sessionKeys = []Key{KeyUserProfile, KeyAnswers, KeyReport, KeyQuestions}

// KV is the storage contract. Get returns store.ErrNotFound for keys that
// were never written.
type KV interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
}

// Adapter reads and writes one session's records.
type Adapter struct {
	kv        KV
	namespace string
}

// New returns an Adapter whose keys are prefixed with namespace. An empty
// namespace uses the bare key names.
func New(kv KV, namespace string) *Adapter {
	return &Adapter{kv: kv, namespace: namespace}
}

// Namespace returns the session namespace.
func (a *Adapter) Namespace() string { return a.namespace }

func (a *Adapter) key(k Key) string {
	if a.namespace == "" {
		return string(k)
	}
	return a.namespace + ":" + string(k)
}

// Save serializes v as JSON under key.
func (a *Adapter) Save(ctx context.Context, key Key, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := a.kv.Put(ctx, a.key(key), data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Load decodes the record under key into v. It reports false, with no
// error, when nothing was saved.
func (a *Adapter) Load(ctx context.Context, key Key, v any) (bool, error) {
	data, err := a.kv.Get(ctx, a.key(key))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Clear removes the profile, answers, report and question list of this
// session.
func (a *Adapter) Clear(ctx context.Context) error {
	keys := make([]string, len(sessionKeys))
	for i, k := range sessionKeys {
		keys[i] = a.key(k)
	}
	if err := a.kv.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (a *Adapter) SaveProfile(ctx context.Context, p assessment.UserProfile) error {
	return a.Save(ctx, KeyUserProfile, p)
}

func (a *Adapter) LoadProfile(ctx context.Context) (*assessment.UserProfile, error) {
	var p assessment.UserProfile
	ok, err := a.Load(ctx, KeyUserProfile, &p)
	if !ok || err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *Adapter) SaveAnswers(ctx context.Context, answers []assessment.Answer) error {
	return a.Save(ctx, KeyAnswers, answers)
}

func (a *Adapter) LoadAnswers(ctx context.Context) ([]assessment.Answer, error) {
	var answers []assessment.Answer
	if _, err := a.Load(ctx, KeyAnswers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *Adapter) SaveReport(ctx context.Context, r assessment.Report) error {
	return a.Save(ctx, KeyReport, r)
}

func (a *Adapter) LoadReport(ctx context.Context) (*assessment.Report, error) {
	var r assessment.Report
	ok, err := a.Load(ctx, KeyReport, &r)
	if !ok || err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveQuestions stores the questions a report was built from. Generated
// questions exist nowhere else.
func (a *Adapter) SaveQuestions(ctx context.Context, questions []assessment.Question) error {
	return a.Save(ctx, KeyQuestions, questions)
}

// LoadQuestions returns the saved question list, or nil when none was
// saved.
func (a *Adapter) LoadQuestions(ctx context.Context) ([]assessment.Question, error) {
	var questions []assessment.Question
	if _, err := a.Load(ctx, KeyQuestions, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Lister is implemented by KV backends that can enumerate keys.
type Lister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Sessions returns the IDs of the sessions that have a stored profile.
func Sessions(ctx context.Context, l Lister) ([]string, error) {
	keys, err := l.Keys(ctx, "")
	if err != nil {
		return nil, err
	}
	suffix := ":" + string(KeyUserProfile)
	var ids []string
	for _, k := range keys {
		if id, ok := strings.CutSuffix(k, suffix); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
