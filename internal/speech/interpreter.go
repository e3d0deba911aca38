package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/psychometric/internal/assessment"
	"github.com/abhisek/psychometric/internal/audio"
	"github.com/abhisek/psychometric/internal/llm"
)

const unknownSelection = "UNKNOWN"

// SelectionSchema constrains the interpreter's answer to one option label.
var SelectionSchema = &llm.Schema{
	Name:        "spoken-selection",
	Description: "The option the speaker chose",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"selection": map[string]any{
				"type":        "string",
				"enum":        []any{"A", "B", "C", "D", "E", unknownSelection},
				"description": "Chosen option label, or UNKNOWN if it cannot be determined",
			},
		},
		"required":             []any{"selection"},
		"additionalProperties": false,
	},
}

const interpretSystemPrompt = `You transcribe spoken answers to a multiple-choice question.
The speaker might say "Option A", "the first one", or read an option's text aloud.
Decide which option they selected. If you cannot tell, or they chose an option that does not exist, answer UNKNOWN.`

// Interpreter maps a voice recording to an option label.
type Interpreter struct {
	provider llm.Provider
}

// NewInterpreter returns an Interpreter backed by provider, which must
// accept audio attachments.
func NewInterpreter(provider llm.Provider) *Interpreter {
	return &Interpreter{provider: provider}
}

type selectionOutput struct {
	Selection string `json:"selection"`
}

// Interpret returns the label spoken in rec for q. ok is false when the
// speech could not be mapped to an option of q. Call failures are reported
// as *assessment.InterpretationError.
func (i *Interpreter) Interpret(ctx context.Context, rec audio.Recording, q assessment.Question) (assessment.Label, bool, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeInterpretation)

	req := llm.Request{
		System: interpretSystemPrompt,
		Messages: []llm.Message{{
			Role:        llm.RoleUser,
			Content:     buildInterpretMessage(q),
			Attachments: []llm.Attachment{{MIMEType: rec.MIMEType, Data: rec.Data}},
		}},
		Schema:    SelectionSchema,
		MaxTokens: 64,
	}

	resp, err := i.provider.Generate(ctx, req)
	if err != nil {
		return "", false, &assessment.InterpretationError{Err: err}
	}

	var out selectionOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", false, &assessment.InterpretationError{Err: fmt.Errorf("parse selection: %w", err)}
	}
	label, ok := assessment.ParseLabel(out.Selection)
	if !ok {
		return "", false, nil
	}
	if _, present := q.Options.Get(label); !present {
		return "", false, nil
	}
	return label, true, nil
}

func buildInterpretMessage(q assessment.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", q.Text)
	for _, l := range q.Options.Labels() {
		text, _ := q.Options.Get(l)
		fmt.Fprintf(&b, "%s: %s\n", l, text)
	}
	b.WriteString("\nWhich option did the speaker choose?")
	return b.String()
}
