package gemini

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// candidateTextPath is the location of the generated text in a generateContent response.
const candidateTextPath = "candidates.0.content.parts.0.text"

// ErrMalformedResponse is returned when a successful response body is not usable JSON.
var ErrMalformedResponse = errors.New("malformed generateContent response")

// CandidateText returns the first candidate's first text part as raw JSON.
//
// Navigation is lenient: any missing segment along the path reports ok=false
// instead of an error. Only a body that is not JSON, or is JSON null, fails.
func CandidateText(body []byte) (text json.RawMessage, ok bool, err error) {
	if !gjson.ValidBytes(body) {
		return nil, false, ErrMalformedResponse
	}
	if gjson.ParseBytes(body).Type == gjson.Null {
		return nil, false, ErrMalformedResponse
	}

	result := gjson.GetBytes(body, candidateTextPath)
	if !result.Exists() {
		return nil, false, nil
	}

	return json.RawMessage(result.Raw), true, nil
}
