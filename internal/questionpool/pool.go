// Package questionpool holds the shuffled set of known questions and the
// active queue presented to the user.
//
// A Pool is not safe for concurrent use. The session controller serializes
// access and uses the two-phase helpers (FindUnused, Generate, Adopt,
// Substitute, Insert) so no lock is held across a generation call.
package questionpool

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/abhisek/psychometric/internal/assessment"
	"github.com/abhisek/psychometric/internal/questiongen"
)

// Pool is the question pool and its active queue.
type Pool struct {
	gen   questiongen.Generator
	rng   *rand.Rand
	pool  []assessment.Question
	queue []assessment.Question
}

// Option configures a Pool.
type Option func(*Pool)

// WithRand sets the random source used by Initialize.
func WithRand(r *rand.Rand) Option {
	return func(p *Pool) { p.rng = r }
}

// New returns an empty Pool that asks gen for questions when it runs out.
func New(gen questiongen.Generator, opts ...Option) *Pool {
	p := &Pool{gen: gen}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return p
}

// Initialize shuffles seed into the pool and fills the queue with the first
// min(queueSize, len(seed)) questions. Questions with a duplicate ID are
// dropped.
func (p *Pool) Initialize(seed []assessment.Question, queueSize int) {
	p.pool = make([]assessment.Question, 0, len(seed))
	seen := make(map[string]bool, len(seed))
	for _, q := range seed {
		if seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		p.pool = append(p.pool, q)
	}
	p.rng.Shuffle(len(p.pool), func(i, j int) {
		p.pool[i], p.pool[j] = p.pool[j], p.pool[i]
	})

	n := max(0, min(queueSize, len(p.pool)))
	p.queue = append([]assessment.Question(nil), p.pool[:n]...)
}

// Restore sets the pool and queue directly, e.g. when resuming.
func (p *Pool) Restore(pool, queue []assessment.Question) {
	p.pool = append([]assessment.Question(nil), pool...)
	p.queue = append([]assessment.Question(nil), queue...)
}

// Len returns the queue length.
func (p *Pool) Len() int { return len(p.queue) }

// At returns the queued question at i.
func (p *Pool) At(i int) (assessment.Question, bool) {
	if i < 0 || i >= len(p.queue) {
		return assessment.Question{}, false
	}
	return p.queue[i], true
}

// Queue returns a copy of the active queue.
func (p *Pool) Queue() []assessment.Question {
	return append([]assessment.Question(nil), p.queue...)
}

// Questions returns a copy of every known question.
func (p *Pool) Questions() []assessment.Question {
	return append([]assessment.Question(nil), p.pool...)
}

// Texts returns the text of every known question.
func (p *Pool) Texts() []string {
	out := make([]string, len(p.pool))
	for i, q := range p.pool {
		out[i] = q.Text
	}
	return out
}

// Skip moves the question at cursor to the end of the queue; the ones after
// it shift left. It returns the new cursor, which is reset to 0 if it fell
// out of range.
func (p *Pool) Skip(cursor int) int {
	if cursor < 0 || cursor >= len(p.queue) {
		return 0
	}
	q := p.queue[cursor]
	p.queue = append(p.queue[:cursor], p.queue[cursor+1:]...)
	p.queue = append(p.queue, q)
	if cursor >= len(p.queue) {
		return 0
	}
	return cursor
}

// FindUnused returns a pool question that is not in the queue.
func (p *Pool) FindUnused() (assessment.Question, bool) {
	used := make(map[string]bool, len(p.queue))
	for _, q := range p.queue {
		used[q.ID] = true
	}
	for _, q := range p.pool {
		if !used[q.ID] {
			return q, true
		}
	}
	return assessment.Question{}, false
}

// Adopt adds q to the pool unless a question with its ID is already known.
func (p *Pool) Adopt(q assessment.Question) {
	for _, existing := range p.pool {
		if existing.ID == q.ID {
			return
		}
	}
	p.pool = append(p.pool, q)
}

// Substitute puts q at cursor in place of the current question.
func (p *Pool) Substitute(cursor int, q assessment.Question) error {
	if cursor < 0 || cursor >= len(p.queue) {
		return fmt.Errorf("cursor %d out of range [0,%d)", cursor, len(p.queue))
	}
	p.queue[cursor] = q
	return nil
}

// Insert places q right after cursor, growing the queue by one.
func (p *Pool) Insert(cursor int, q assessment.Question) error {
	if cursor < -1 || cursor >= len(p.queue) {
		return fmt.Errorf("cursor %d out of range [-1,%d)", cursor, len(p.queue))
	}
	at := cursor + 1
	p.queue = append(p.queue, assessment.Question{})
	copy(p.queue[at+1:], p.queue[at:])
	p.queue[at] = q
	return nil
}

// Generate asks the generator for exactly one question in category. It
// does not touch the pool; call Adopt with the result.
func (p *Pool) Generate(ctx context.Context, category assessment.Category, prior []string) (assessment.Question, error) {
	return GenerateOne(ctx, p.gen, category, prior)
}

// GenerateOne requests a single question. A provider answer with no
// questions is reported as a GenerationError.
func GenerateOne(ctx context.Context, gen questiongen.Generator, category assessment.Category, prior []string) (assessment.Question, error) {
	if gen == nil {
		return assessment.Question{}, &assessment.GenerationError{Category: category, Err: fmt.Errorf("no generator configured")}
	}
	qs, err := gen.Generate(ctx, questiongen.GenerateInput{
		Category:       category,
		Count:          1,
		PriorQuestions: prior,
	})
	if err != nil {
		return assessment.Question{}, err
	}
	if len(qs) == 0 {
		return assessment.Question{}, &assessment.GenerationError{Category: category, Err: questiongen.ErrNoQuestions}
	}
	return qs[0], nil
}

// Replace swaps the question at cursor for an unused pool question or, when
// none is left, for a freshly generated one in category. The queue is left
// unchanged on failure.
func (p *Pool) Replace(ctx context.Context, cursor int, category assessment.Category) (assessment.Question, error) {
	if _, ok := p.At(cursor); !ok {
		return assessment.Question{}, fmt.Errorf("cursor %d out of range [0,%d)", cursor, len(p.queue))
	}
	if q, ok := p.FindUnused(); ok {
		return q, p.Substitute(cursor, q)
	}
	q, err := p.Generate(ctx, category, p.Texts())
	if err != nil {
		return assessment.Question{}, err
	}
	p.Adopt(q)
	return q, p.Substitute(cursor, q)
}

// InsertAfter generates one question in category, adds it to the pool and
// queues it right after cursor.
func (p *Pool) InsertAfter(ctx context.Context, cursor int, category assessment.Category) (assessment.Question, error) {
	if cursor < -1 || cursor >= len(p.queue) {
		return assessment.Question{}, fmt.Errorf("cursor %d out of range [-1,%d)", cursor, len(p.queue))
	}
	q, err := p.Generate(ctx, category, p.Texts())
	if err != nil {
		return assessment.Question{}, err
	}
	p.Adopt(q)
	return q, p.Insert(cursor, q)
}
