// Package api holds the request parsing, response writing and error
// mapping shared by the stormwatch HTTP handlers.
//
// Handlers live in api/handlers, middleware in api/middleware and wire
// types in api/types. HandleError maps domain errors to API errors:
//
//	records.NotFoundError        404 not_found
//	records.InvalidRecordError   400 invalid_request_error
//	records.ErrConflict          409 conflict
//	evidence.QueryError          400 invalid_request_error
//	advisor.ErrNoRecordStore     503 service_unavailable
//	context.DeadlineExceeded     504 gateway_timeout
//	anything else                500 server_error
package api
