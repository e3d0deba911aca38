package analysis

import "github.com/abhisek/psychometric/internal/llm"

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func strList(desc string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": desc,
	}
}

// ReportSchema defines the JSON schema of the personality report.
var ReportSchema = &llm.Schema{
	Name:        "personality-report",
	Description: "A psychological profile derived from questionnaire answers and a photo",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": str("Two or three paragraphs summarizing the personality"),
			"traits": map[string]any{
				"type":        "array",
				"description": "Scored personality dimensions, most salient first",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"trait": str("Name of the trait, e.g. Openness"),
						"score": map[string]any{
							"type":        "number",
							"minimum":     0,
							"maximum":     100,
							"description": "Strength of the trait from 0 to 100",
						},
						"description": str("One sentence on how the trait shows up"),
					},
					"required":             []any{"trait", "score", "description"},
					"additionalProperties": false,
				},
			},
			"psychologicalArchetype": str("A single archetype label, e.g. The Explorer"),
			"strengths":              strList("Notable strengths"),
			"weaknesses":             strList("Notable weaknesses or blind spots"),
			"relationshipStyle":      str("How the person tends to relate to others"),
			"careerFit":              str("Kinds of work that suit the person"),
			"visualCorrelation":      str("Impression from the photo and how it lines up with the answers"),
		},
		"required": []any{
			"summary", "traits", "psychologicalArchetype", "strengths", "weaknesses",
			"relationshipStyle", "careerFit", "visualCorrelation",
		},
		"additionalProperties": false,
	},
}
