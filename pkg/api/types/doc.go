// Package types defines the request and response bodies of the stormwatch
// HTTP API that are not evaluation responses.
//
// Every error is returned as
//
//	{"error": {"message": "...", "type": "invalid_request_error", "code": "invalid_json"}}
//
// except on the evaluate endpoints, where rejected bodies also carry the
// invalid_input escalation flag:
//
//	{"error": {...}, "escalationFlags": ["invalid_input"]}
package types
