package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// suggestionsJSONSchema mirrors gemini.SuggestionsSchema in JSON Schema form.
const suggestionsJSONSchema = `{
	"type": "object",
	"properties": {
		"suggestions": {
			"type": "array",
			"items": {"type": "string"}
		}
	}
}`

var suggestionsSchema = jsonschema.MustCompileString("suggestions.schema.json", suggestionsJSONSchema)

// checkStructuredText logs a warning when structured output does not match the
// requested schema. The text is relayed unchanged either way.
func checkStructuredText(ctx context.Context, text json.RawMessage) {
	var s string
	if err := json.Unmarshal(text, &s); err != nil {
		slog.WarnContext(ctx, "structured output is not a string", "error", err)
		return
	}

	var doc any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		slog.WarnContext(ctx, "structured output is not valid JSON", "error", err)
		return
	}

	if err := suggestionsSchema.Validate(doc); err != nil {
		slog.WarnContext(ctx, "structured output does not match suggestions schema", "error", err)
	}
}
