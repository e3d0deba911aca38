package persist

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/abhisek/psychometric/internal/assessment"
)

// Bank is the admin-maintained set of custom questions merged into every
// new session's pool. It is shared by all sessions and survives Clear.
type Bank struct {
	mu      sync.Mutex
	adapter *Adapter
}

// NewBank returns a Bank stored in kv.
func NewBank(kv KV) *Bank {
	return &Bank{adapter: New(kv, "")}
}

// List returns the custom questions in insertion order.
func (b *Bank) List(ctx context.Context) ([]assessment.Question, error) {
	var qs []assessment.Question
	if _, err := b.adapter.Load(ctx, KeyCustomQuestions, &qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// Add validates q, assigns it an ID when it has none and appends it.
func (b *Bank) Add(ctx context.Context, q assessment.Question) (assessment.Question, error) {
	if err := assessment.ValidateQuestion(q); err != nil {
		return assessment.Question{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	qs, err := b.List(ctx)
	if err != nil {
		return assessment.Question{}, err
	}
	if q.ID == "" {
		q.ID = "custom-" + uuid.NewString()
	}
	for _, existing := range qs {
		if existing.ID == q.ID {
			return assessment.Question{}, assessment.NewValidationError("id", fmt.Sprintf("%q already exists", q.ID))
		}
	}
	for _, seed := range assessment.SeedQuestions() {
		if seed.ID == q.ID {
			return assessment.Question{}, assessment.NewValidationError("id", fmt.Sprintf("%q is a built-in question", q.ID))
		}
	}

	qs = append(qs, q)
	if err := b.adapter.Save(ctx, KeyCustomQuestions, qs); err != nil {
		return assessment.Question{}, err
	}
	return q, nil
}

// Pool returns the built-in seed questions followed by the bank.
func (b *Bank) Pool(ctx context.Context) ([]assessment.Question, error) {
	custom, err := b.List(ctx)
	if err != nil {
		return nil, err
	}
	return append(assessment.SeedQuestions(), custom...), nil
}
