// Package gemini is a minimal client for the Gemini generateContent REST endpoint.
//
// It only covers what the relay needs:
//
//   - Single-turn text requests, optionally constrained to the fixed suggestions
//     schema (see SuggestionsSchema).
//   - Error bodies of failed calls are kept verbatim in APIError so callers can
//     pass the upstream message through.
//   - Lenient extraction of the first candidate's text (see CandidateText).
//
// The API key is sent as the "key" query parameter. Client.Endpoint and all
// returned errors omit the query so the key never reaches logs.
package gemini
