package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/usecase"
	"github.com/secmon-lab/entelligence/pkg/utils/errutil"
)

type errorResponse struct {
	Error string `json:"error"`
}

// errInvalidBody is returned when a request body is not a JSON object
var errInvalidBody = errors.New("request body must be a JSON object")

// maxBodySize limits request bodies
const maxBodySize = 1 << 20

// writeJSON writes a JSON response with proper error handling
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		_ = errutil.Handle(ctx, err, "failed to encode JSON response")
	}
}

// decodePayload reads the request body as exactly one JSON object. An empty
// body is an empty payload.
func decodePayload(r *http.Request) (model.Payload, error) {
	payload := model.Payload{}
	if r.Body == nil {
		return payload, nil
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return model.Payload{}, nil
		}
		return nil, goerr.Wrap(errInvalidBody, "failed to decode request body", goerr.V("reason", err.Error()))
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, goerr.Wrap(errInvalidBody, "unexpected data after JSON body")
	}
	if payload == nil {
		payload = model.Payload{}
	}
	return payload, nil
}

// writeError maps a use case error to its HTTP status and message. Unknown
// errors are logged and reported, and the client only sees a generic message.
func writeError(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		_ = errutil.Handle(ctx, err, fallback)
		if msg == "" {
			msg = fallback
		}
	}
	writeJSON(ctx, w, status, errorResponse{Error: msg})
}

func classify(err error) (int, string) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, errInvalidBody):
		return http.StatusBadRequest, "Invalid JSON body"
	case errors.Is(err, usecase.ErrMissingCredentials):
		return http.StatusBadRequest, usecase.ErrMissingCredentials.Error()
	case errors.Is(err, usecase.ErrAssigneeOutOfScope):
		return http.StatusBadRequest, "Assignee must be in the same site/tenant"
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, usecase.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, usecase.ErrAssignDenied):
		return http.StatusForbidden, "Operators cannot assign to others"
	case errors.Is(err, usecase.ErrAccessDenied):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, usecase.ErrActionNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, usecase.ErrUserAlreadyExists):
		return http.StatusConflict, "User already exists"
	default:
		return http.StatusInternalServerError, ""
	}
}
