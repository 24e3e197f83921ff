// Package relay forwards frontend prompts to Gemini and maps the outcome to a
// status and JSON body.
//
// A Handler is transport-agnostic: hosting adapters translate their envelope
// into a Request and write back the Response. Every request is independent;
// the only shared state is the Config passed to New.
//
// Responses:
//
//	405                      non-POST, empty body
//	200 {"text": ...}        text omitted when upstream produced none
//	500 {"error": ...}       missing credential or any internal failure
//	N   {"error": ...}       upstream rejection, N is the upstream status
package relay
