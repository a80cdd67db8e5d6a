package api

import (
	"context"
	"errors"

	"mercator-hq/stormwatch/pkg/advisor"
	"mercator-hq/stormwatch/pkg/api/types"
	"mercator-hq/stormwatch/pkg/evidence"
	"mercator-hq/stormwatch/pkg/records"
)

// HandleError converts an error to an API error response.
//
//	if err != nil {
//		_ = WriteErrorResponse(w, HandleError(err))
//		return
//	}
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	var notFound *records.NotFoundError
	if errors.As(err, &notFound) {
		return types.NewNotFoundError(notFound.Error())
	}

	var invalid *records.InvalidRecordError
	if errors.As(err, &invalid) {
		return types.NewInvalidRequestError(invalid.Error(), invalid.Field, types.CodeInvalidValue)
	}

	if errors.Is(err, records.ErrConflict) {
		return types.NewConflictError(err.Error())
	}

	var queryErr *evidence.QueryError
	if errors.As(err, &queryErr) {
		return types.NewInvalidRequestError(queryErr.Error(), "", types.CodeInvalidValue)
	}

	if errors.Is(err, advisor.ErrNoRecordStore) {
		return types.NewServiceUnavailableError(err.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewGatewayTimeoutError("Request timeout: the request took too long to complete")
	}

	return types.NewServerError("An internal error occurred. Please try again later.")
}
