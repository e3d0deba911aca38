package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-trait",
		Description: "A scored trait",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"trait": map[string]any{"type": "string"},
				"score": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
				"band":  map[string]any{"type": "string", "enum": []any{"low", "mid", "high"}},
			},
			"required": []any{"trait", "score"},
		},
	}
}

func TestValidateResponse_ValidJSON(t *testing.T) {
	raw := json.RawMessage(`{"trait":"Openness","score":72,"band":"high"}`)
	out, err := validateResponse(testSchema(), raw)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if string(out) != string(raw) {
		t.Fatalf("valid content should pass through unchanged, got %s", out)
	}
}

func TestValidateResponse_ValidWithoutOptional(t *testing.T) {
	raw := json.RawMessage(`{"trait":"Neuroticism","score":30}`)
	if _, err := validateResponse(testSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateResponse_Rejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing required", `{"trait":"Agreeableness"}`},
		{"wrong type", `{"trait":"Agreeableness","score":"high"}`},
		{"invalid enum", `{"trait":"Agreeableness","score":40,"band":"extreme"}`},
		{"score above range", `{"trait":"Agreeableness","score":140}`},
		{"score below range", `{"trait":"Agreeableness","score":-1}`},
		{"malformed", `{not json}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateResponse(testSchema(), json.RawMessage(tt.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			var invErr *ErrInvalidResponse
			if !errors.As(err, &invErr) {
				t.Fatalf("expected ErrInvalidResponse, got: %T", err)
			}
		})
	}
}

func TestValidateResponse_EmptyResponse(t *testing.T) {
	if _, err := validateResponse(testSchema(), json.RawMessage(``)); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestValidateResponse_RepairsTrailingComma(t *testing.T) {
	raw := json.RawMessage(`{"trait":"Conscientiousness","score":55,}`)
	out, err := validateResponse(testSchema(), raw)
	if err != nil {
		t.Fatalf("expected repair to succeed, got: %v", err)
	}
	var got struct {
		Trait string  `json:"trait"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("repaired content is not valid JSON: %v", err)
	}
	if got.Trait != "Conscientiousness" || got.Score != 55 {
		t.Fatalf("unexpected repaired content: %s", out)
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	raw := json.RawMessage(`{"anything":"goes"}`)
	if _, err := validateResponse(nil, raw); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_NestedObjects(t *testing.T) {
	schema := &Schema{
		Name:        "test-nested-report",
		Description: "Nested test",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"traits": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"trait": map[string]any{"type": "string"},
							"score": map[string]any{"type": "number"},
						},
						"required": []any{"trait", "score"},
					},
				},
			},
			"required": []any{"traits"},
		},
	}

	valid := json.RawMessage(`{"traits":[{"trait":"Openness","score":80}]}`)
	if _, err := validateResponse(schema, valid); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	invalid := json.RawMessage(`{"traits":[{"trait":"Openness","score":"eighty"}]}`)
	if _, err := validateResponse(schema, invalid); err == nil {
		t.Fatal("expected error for wrong nested item type")
	}
}
