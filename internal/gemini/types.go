package gemini

// GenerateContentRequest is the request body of the models/{model}:generateContent endpoint.
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content is a single conversation turn.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is a piece of turn content. Only text parts are sent.
// A nil Text omits the field, which is how an absent prompt reaches upstream.
type Part struct {
	Text *string `json:"text,omitempty"`
}

// GenerationConfig constrains the shape of the generated output.
type GenerationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType"`
	ResponseSchema   *Schema `json:"responseSchema"`
}

// Schema is the OpenAPI subset Gemini accepts for structured output.
// Type names are upper case (OBJECT, ARRAY, STRING).
type Schema struct {
	Type       string             `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
}

// RoleUser is the role of prompts sent on behalf of the frontend user.
const RoleUser = "user"

// MIMETypeJSON requests JSON output from the model.
const MIMETypeJSON = "application/json"

// SuggestionsSchema returns the only supported structured-output schema:
// an object with a single "suggestions" property holding an array of strings.
func SuggestionsSchema() *Schema {
	return &Schema{
		Type: "OBJECT",
		Properties: map[string]*Schema{
			"suggestions": {
				Type:  "ARRAY",
				Items: &Schema{Type: "STRING"},
			},
		},
	}
}

// NewTextRequest builds a single-turn user request for prompt.
// When structured is set, the request asks for JSON matching SuggestionsSchema.
func NewTextRequest(prompt *string, structured bool) *GenerateContentRequest {
	req := &GenerateContentRequest{
		Contents: []Content{
			{Role: RoleUser, Parts: []Part{{Text: prompt}}},
		},
	}

	if structured {
		req.GenerationConfig = &GenerationConfig{
			ResponseMIMEType: MIMETypeJSON,
			ResponseSchema:   SuggestionsSchema(),
		}
	}

	return req
}
