package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"match", `{"message":"a","tip":"b"}`, true},
		{"missing field", `{"message":"a"}`, false},
		{"extra field", `{"message":"a","tip":"b","mood":"c"}`, false},
		{"wrong type", `{"message":1,"tip":"b"}`, false},
		{"not json", `Sure! Here you go`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tipSchema, json.RawMessage(tt.raw))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, Invalid, kind)
		})
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string", "description": "text"},
			"mood":    map[string]any{"type": "string", "enum": []any{"calm", "upbeat"}},
			"steps": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "integer"},
			},
		},
		"required":             []any{"message"},
		"additionalProperties": false,
	})

	assert.Equal(t, genai.TypeObject, s.Type)
	require.Len(t, s.Properties, 3)
	assert.Equal(t, "text", s.Properties["message"].Description)
	assert.Equal(t, []string{"calm", "upbeat"}, s.Properties["mood"].Enum)
	assert.Equal(t, genai.TypeArray, s.Properties["steps"].Type)
	assert.Equal(t, genai.TypeInteger, s.Properties["steps"].Items.Type)
	assert.Equal(t, []string{"message"}, s.Required)
}
