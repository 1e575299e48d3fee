package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "globaltrust/pkg/domain-errors"
)

// DecodeJSON decodes a JSON request body into the target type.
// On failure it writes a 400 and returns nil, false.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return nil, false
	}
	return &req, true
}

// Preparer is implemented by request bodies that resolve and check their own
// fields once decoded.
type Preparer interface {
	Prepare() error
}

// DecodeAndPrepare decodes the body and runs Prepare when *T implements
// Preparer. A domain error from Prepare keeps its code; any other error is
// reported as invalid input.
//
// Usage:
//
//	req, ok := httputil.DecodeAndPrepare[selectViewRequest](w, r, h.logger, ctx, requestID)
//	if !ok {
//	    return
//	}
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger, ctx, requestID)
	if !ok {
		return nil, false
	}
	p, prepares := any(req).(Preparer)
	if !prepares {
		return req, true
	}
	if err := p.Prepare(); err != nil {
		logger.WarnContext(ctx, "request rejected",
			"error", err,
			"request_id", requestID,
		)
		if _, coded := dErrors.CodeOf(err); !coded {
			err = dErrors.New(dErrors.CodeInvalidInput, err.Error())
		}
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
