package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/psychometric/internal/assessment"
	"github.com/abhisek/psychometric/internal/llm"
)

// ErrNoQuestions is returned when the provider answered but no usable
// question survived validation.
var ErrNoQuestions = errors.New("no usable questions generated")

// LLMGenerator implements Generator using the LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// batchOutput is the raw LLM response before validation.
type batchOutput struct {
	Questions []struct {
		Text    string             `json:"text"`
		Options assessment.Options `json:"options"`
	} `json:"questions"`
}

// Generate produces questions for the given category.
func (g *LLMGenerator) Generate(ctx context.Context, input GenerateInput) ([]assessment.Question, error) {
	qs, err := g.generate(ctx, input)
	if err != nil {
		return nil, &assessment.GenerationError{Category: input.Category, Err: err}
	}
	return qs, nil
}

func (g *LLMGenerator) generate(ctx context.Context, input GenerateInput) ([]assessment.Question, error) {
	if !input.Category.Valid() {
		return nil, fmt.Errorf("unknown category %q", input.Category)
	}
	count := input.Count
	if count < 1 {
		count = 1
	}
	if g.config.MaxCount > 0 && count > g.config.MaxCount {
		count = g.config.MaxCount
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionGen)

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(input, count, g.config)},
		},
		Schema:      QuestionSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw batchOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	// Later questions in the batch must not repeat earlier ones either.
	seen := append([]string(nil), input.PriorQuestions...)
	var (
		out     []assessment.Question
		lastErr error = ErrNoQuestions
	)
	for _, item := range raw.Questions {
		if len(out) == count {
			break
		}
		q := assessment.Question{
			ID:       "gen-" + uuid.NewString(),
			Category: input.Category,
			Text:     strings.TrimSpace(item.Text),
			Options:  trimOptions(item.Options),
		}
		check := input
		check.PriorQuestions = seen
		if verr := g.validate(&q, check); verr != nil {
			slog.Debug("discarding generated question",
				"category", input.Category, "validator", verr.Validator, "reason", verr.Message)
			lastErr = fmt.Errorf("%w: %w", ErrNoQuestions, verr)
			continue
		}
		seen = append(seen, q.Text)
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, lastErr
	}
	return out, nil
}

func (g *LLMGenerator) validate(q *assessment.Question, input GenerateInput) *ValidationError {
	for _, v := range g.config.Validators {
		if verr := v.Validate(q, input); verr != nil {
			return verr
		}
	}
	return nil
}

func trimOptions(o assessment.Options) assessment.Options {
	return assessment.Options{
		A: strings.TrimSpace(o.A),
		B: strings.TrimSpace(o.B),
		C: strings.TrimSpace(o.C),
		D: strings.TrimSpace(o.D),
		E: strings.TrimSpace(o.E),
	}
}
