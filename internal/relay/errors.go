package relay

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/florianilch/prompt-relay/internal/gemini"
)

// Messages returned to callers. Internal failures never expose more than msgInternal.
const (
	msgMissingCredential = "API key is not configured on the server."
	msgInternal          = "An error occurred in the server function."
)

// ErrMissingCredential reports that no upstream credential is configured.
var ErrMissingCredential = errors.New("upstream credential is not configured")

// UpstreamError is an upstream rejection whose status and message are passed
// through to the caller.
type UpstreamError struct {
	StatusCode int
	// Message is the raw JSON of the upstream error.message, nil if absent.
	Message json.RawMessage
	// Payload is the complete upstream error body, kept for logging.
	Payload []byte
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream rejected request with status %d", e.StatusCode)
}

// fromAPIError converts a failed upstream call into an UpstreamError.
// If the upstream error body cannot be understood, the returned error is not an
// UpstreamError and ends up as a generic failure.
func fromAPIError(apiErr *gemini.APIError) error {
	msg, err := apiErr.Message()
	if err != nil {
		return fmt.Errorf("status %d: %w", apiErr.StatusCode, err)
	}

	return &UpstreamError{
		StatusCode: apiErr.StatusCode,
		Message:    msg,
		Payload:    apiErr.Body,
	}
}
