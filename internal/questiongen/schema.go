package questiongen

import "github.com/abhisek/psychometric/internal/llm"

// QuestionSchema defines the JSON schema for LLM question generation responses.
var QuestionSchema = &llm.Schema{
	Name:        "personality-questions",
	Description: "A batch of multiple-choice personality assessment questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text": map[string]any{
							"type":        "string",
							"description": "The question shown to the respondent",
						},
						"options": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"A": map[string]any{"type": "string"},
								"B": map[string]any{"type": "string"},
								"C": map[string]any{"type": "string"},
								"D": map[string]any{"type": "string"},
								"E": map[string]any{
									"type":        "string",
									"description": "Optional fifth option. Empty string when unused.",
								},
							},
							"required":             []any{"A", "B", "C", "D", "E"},
							"additionalProperties": false,
						},
					},
					"required":             []any{"text", "options"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
