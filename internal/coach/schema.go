package coach

import "github.com/aranyoray/studybot/internal/llm"

// MessageSchema defines the JSON schema for a coaching message.
var MessageSchema = &llm.Schema{
	Name:        "coach-message",
	Description: "A short coaching message shown to a learner during or after practice",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "One or two short sentences addressed to the learner",
			},
			"tip": map[string]any{
				"type":        "string",
				"description": "One concrete suggestion (a break activity or a study tip), at most 15 words",
			},
		},
		"required":             []any{"message", "tip"},
		"additionalProperties": false,
	},
}
