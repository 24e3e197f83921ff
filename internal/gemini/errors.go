package gemini

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrMalformedErrorBody is returned by APIError.Message when the upstream error
// body is not JSON or carries no "error" object.
var ErrMalformedErrorBody = errors.New("malformed upstream error body")

// APIError is a completed upstream call that signaled failure.
// Body holds the unmodified upstream error payload.
type APIError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API returned status %d", e.StatusCode)
}

// Message extracts error.message from the upstream error body.
//
// The returned value is the raw JSON of the message field, nil when the error
// object exists but has no message. A body that cannot be parsed, or that has
// no usable "error" value, yields ErrMalformedErrorBody.
func (e *APIError) Message() (json.RawMessage, error) {
	if !gjson.ValidBytes(e.Body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedErrorBody)
	}

	errObj := gjson.GetBytes(e.Body, "error")
	if !errObj.Exists() || errObj.Type == gjson.Null {
		return nil, fmt.Errorf("%w: missing error object", ErrMalformedErrorBody)
	}

	msg := errObj.Get("message")
	if !msg.Exists() {
		return nil, nil
	}

	return json.RawMessage(msg.Raw), nil
}
