// Package httputil holds the JSON envelope shared by every endpoint:
//
//	{ "success": bool, "data"?: T, "error"?: string }
//
// Handlers write through WriteJSON and WriteError so status mapping and the
// envelope shape live in one place.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "trustlessid/pkg/domain-errors"
)

// maxBodyBytes bounds request bodies accepted by DecodeAndPrepare.
const maxBodyBytes = 1 << 20

// Envelope is the wire wrapper for all responses.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Validatable is implemented by request DTOs. Validate may normalize fields.
type Validatable interface {
	Validate() error
}

// WriteJSON writes a success envelope around data.
func WriteJSON[T any](w http.ResponseWriter, status int, data T) {
	writeEnvelope(w, status, Envelope[T]{Success: true, Data: &data})
}

// WriteError maps err to a status and writes a failure envelope. Messages of
// coded errors are client-safe; anything else is reported as internal.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := dErrors.CodeInternal
	msg := "internal server error"
	if de, ok := dErrors.As(err); ok {
		status = dErrors.ToHTTPStatus(de.Code)
		code = de.Code
		if de.Code != dErrors.CodeInternal {
			msg = de.Message
		}
	}
	writeEnvelope(w, status, Envelope[struct{}]{Success: false, Error: msg, Code: string(code)})
}

// DecodeAndPrepare decodes a JSON body into T and validates it. On failure it
// writes the error response and returns false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.WarnContext(ctx, "failed to decode request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return nil, false
	}
	if err := PT(&req).Validate(); err != nil {
		logger.InfoContext(ctx, "request validation failed",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}

func writeEnvelope[T any](w http.ResponseWriter, status int, env Envelope[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
