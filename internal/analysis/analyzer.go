// Package analysis synthesizes the personality report from a finished
// questionnaire.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/psychometric/internal/assessment"
	"github.com/abhisek/psychometric/internal/llm"
)

const systemPrompt = `You are a psychologist writing a personality profile.

Rules:
- Ground the profile in established frameworks (Big Five, MBTI, Jungian archetypes) and in the questionnaire answers.
- Score every trait from 0 to 100. List between 4 and 8 traits.
- If a photo is attached, describe the visual impression and how it lines up with the answers. Treat physiognomy with scientific skepticism and say so. Without a photo, say that no visual impression was available.
- Write in the second person, warm but candid.`

// Config controls the behavior of the Analyzer.
type Config struct {
	// Model overrides the provider's default model. Reports benefit from a
	// stronger reasoning model than question generation.
	Model string

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64
}

// DefaultConfig returns recommended defaults.
func DefaultConfig() Config {
	return Config{MaxTokens: 4096, Temperature: 0.7}
}

// Analyzer produces reports with an LLM provider.
type Analyzer struct {
	provider llm.Provider
	config   Config
	now      func() time.Time
}

// New creates an Analyzer.
func New(provider llm.Provider, cfg Config) *Analyzer {
	return &Analyzer{provider: provider, config: cfg, now: time.Now}
}

// Analyze sends the profile, answers and photo to the provider and returns
// the validated report. Failures are reported as *assessment.AnalysisError.
func (a *Analyzer) Analyze(ctx context.Context, profile assessment.UserProfile, answers []assessment.Answer, questions []assessment.Question) (*assessment.Report, error) {
	report, err := a.analyze(ctx, profile, answers, questions)
	if err != nil {
		return nil, &assessment.AnalysisError{Err: err}
	}
	return report, nil
}

func (a *Analyzer) analyze(ctx context.Context, profile assessment.UserProfile, answers []assessment.Answer, questions []assessment.Question) (*assessment.Report, error) {
	if len(answers) == 0 {
		return nil, errors.New("no answers to analyze")
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeAnalysis)

	msg := llm.Message{
		Role:    llm.RoleUser,
		Content: buildUserMessage(profile, answers, questions, a.now()),
	}
	if profile.Photo != nil && len(profile.Photo.Data) > 0 {
		msg.Attachments = []llm.Attachment{{MIMEType: profile.Photo.MIMEType, Data: profile.Photo.Data}}
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{msg},
		Schema:      ReportSchema,
		Model:       a.config.Model,
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM analysis failed: %w", err)
	}

	var report assessment.Report
	if err := json.Unmarshal(resp.Content, &report); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	if err := checkReport(&report); err != nil {
		return nil, err
	}
	return &report, nil
}

// checkReport enforces what the schema cannot express on every provider.
func checkReport(r *assessment.Report) error {
	if strings.TrimSpace(r.Summary) == "" {
		return &llm.ErrInvalidResponse{Err: errors.New("summary is empty")}
	}
	if len(r.Traits) == 0 {
		return &llm.ErrInvalidResponse{Err: errors.New("no traits scored")}
	}
	for i, t := range r.Traits {
		if strings.TrimSpace(t.Trait) == "" {
			return &llm.ErrInvalidResponse{Err: fmt.Errorf("trait %d has no name", i)}
		}
		if t.Score < 0 || t.Score > 100 {
			return &llm.ErrInvalidResponse{Err: fmt.Errorf("trait %q score %v outside [0,100]", t.Trait, t.Score)}
		}
	}
	if r.Strengths == nil {
		r.Strengths = []string{}
	}
	if r.Weaknesses == nil {
		r.Weaknesses = []string{}
	}
	return nil
}

// buildUserMessage lays out demographics and one line per answer.
func buildUserMessage(p assessment.UserProfile, answers []assessment.Answer, questions []assessment.Question, now time.Time) string {
	byID := make(map[string]assessment.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	var b strings.Builder
	b.WriteString("User demographics:\n")
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Age: %d\n", p.Age(now))
	fmt.Fprintf(&b, "Gender: %s\n", p.Gender)
	fmt.Fprintf(&b, "Nationality: %s\n", p.Nationality)

	b.WriteString("\nQuestionnaire responses:\n")
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		text, _ := q.Options.Get(a.SelectedOption)
		fmt.Fprintf(&b, "Category: %s | Question: %s | Answer: %s\n", q.Category.Label(), q.Text, text)
	}

	if p.Photo != nil && len(p.Photo.Data) > 0 {
		b.WriteString("\nA photo of the user is attached.")
	} else {
		b.WriteString("\nNo photo was provided.")
	}
	return b.String()
}
