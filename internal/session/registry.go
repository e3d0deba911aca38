package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/abhisek/psychometric/internal/assessment"
	"github.com/abhisek/psychometric/internal/persist"
)

// DefaultCapacity is the number of live sessions a Registry keeps.
const DefaultCapacity = 1024

// Registry maps session IDs to live controllers, resuming them from
// storage on first access. Only the most recently used sessions stay in
// memory; an evicted session is resumed from storage on its next access.
type Registry struct {
	deps     Deps
	capacity int

	// mu serializes resumes so one ID never gets two controllers.
	mu       sync.Mutex
	sessions *lru.Cache[string, *Controller]
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCapacity bounds the number of live sessions. Values below 1 are
// ignored.
func WithCapacity(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// NewRegistry returns an empty Registry whose sessions share deps.
func NewRegistry(deps Deps, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{deps: deps, capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(r)
	}
	cache, err := lru.New[string, *Controller](r.capacity)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	r.sessions = cache
	return r, nil
}

// Create onboards a new session under a fresh ID.
func (r *Registry) Create(ctx context.Context, profile assessment.UserProfile) (*Controller, error) {
	c, err := Onboard(ctx, r.deps, uuid.NewString(), profile)
	if err != nil {
		return nil, err
	}
	r.sessions.Add(c.ID(), c)
	return c, nil
}

// Get returns the live session for id, resuming it from storage when it
// is not loaded. It returns ErrNotFound for unknown IDs.
func (r *Registry) Get(ctx context.Context, id string) (*Controller, error) {
	if c, ok := r.sessions.Get(id); ok {
		return c, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have resumed it first.
	if c, ok := r.sessions.Get(id); ok {
		return c, nil
	}
	c, err := Resume(ctx, r.deps, id)
	if err != nil {
		return nil, err
	}
	r.sessions.Add(id, c)
	return c, nil
}

// Reset clears the stored records of id and forgets the live session.
// Resetting an unknown ID is not an error.
func (r *Registry) Reset(ctx context.Context, id string) error {
	c, ok := r.sessions.Peek(id)
	r.sessions.Remove(id)
	if ok {
		return c.Clear(ctx)
	}
	return persist.New(r.deps.KV, id).Clear(ctx)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.Len()
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
