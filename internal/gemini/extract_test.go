package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateText(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantText string
		wantOK   bool
		wantErr  bool
	}{
		{
			name:     "first candidate text",
			body:     `{"candidates":[{"content":{"parts":[{"text":"hello"}]}}]}`,
			wantText: `"hello"`,
			wantOK:   true,
		},
		{
			name:     "only first part is used",
			body:     `{"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}]}},{"content":{"parts":[{"text":"c"}]}}]}`,
			wantText: `"a"`,
			wantOK:   true,
		},
		{
			name:     "null text is kept",
			body:     `{"candidates":[{"content":{"parts":[{"text":null}]}}]}`,
			wantText: `null`,
			wantOK:   true,
		},
		{name: "no candidates", body: `{}`},
		{name: "empty candidates", body: `{"candidates":[]}`},
		{name: "candidate without content", body: `{"candidates":[{"finishReason":"SAFETY"}]}`},
		{name: "content without parts", body: `{"candidates":[{"content":{}}]}`},
		{name: "part without text", body: `{"candidates":[{"content":{"parts":[{"inlineData":{}}]}}]}`},
		{name: "candidates of wrong type", body: `{"candidates":"nope"}`},
		{name: "top-level array", body: `[]`},
		{name: "invalid JSON", body: `{"candidates":`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
		{name: "JSON null", body: `null`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok, err := CandidateText([]byte(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.JSONEq(t, tt.wantText, string(text))
			} else {
				assert.Nil(t, text)
			}
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantNil bool
		wantErr bool
	}{
		{name: "message", body: `{"error":{"code":429,"message":"rate limited","status":"RESOURCE_EXHAUSTED"}}`, want: `"rate limited"`},
		{name: "error without message", body: `{"error":{"code":500}}`, wantNil: true},
		{name: "error is a string", body: `{"error":"boom"}`, wantNil: true},
		{name: "missing error object", body: `{"message":"x"}`, wantErr: true},
		{name: "null error object", body: `{"error":null}`, wantErr: true},
		{name: "HTML body", body: `<html>502 Bad Gateway</html>`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := &APIError{StatusCode: 500, Body: []byte(tt.body)}
			msg, err := apiErr.Message()
			switch {
			case tt.wantErr:
				assert.ErrorIs(t, err, ErrMalformedErrorBody)
			case tt.wantNil:
				require.NoError(t, err)
				assert.Nil(t, msg)
			default:
				require.NoError(t, err)
				assert.JSONEq(t, tt.want, string(msg))
			}
		})
	}
}
