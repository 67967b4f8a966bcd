package diagnosis

import "github.com/abhisek/laesemaskine/internal/llm"

// ReviewSchema defines the JSON schema for LLM dispute review responses.
var ReviewSchema = &llm.Schema{
	Name:        "dispute-review",
	Description: "Verdict on whether a disputed reading result was a speech recognition mistake or a reading mistake",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"verdict": map[string]any{
				"type":        "string",
				"enum":        []any{string(VerdictRecognizer), string(VerdictReader), string(VerdictUnclear)},
				"description": "recognizer if the child most likely read correctly and recognition failed, reader if the child misread, unclear otherwise",
			},
			"error_type": map[string]any{
				"type":        []any{"string", "null"},
				"description": "The reading error type from the allowed list when verdict is reader, otherwise null",
			},
			"confidence": map[string]any{
				"type":    "number",
				"minimum": 0.0,
				"maximum": 1.0,
			},
			"reasoning": map[string]any{
				"type":        "string",
				"description": "One sentence in Danish explaining the verdict",
			},
		},
		"required":             []any{"verdict", "error_type", "confidence", "reasoning"},
		"additionalProperties": false,
	},
}
