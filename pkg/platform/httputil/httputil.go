// Package httputil holds the JSON request/response plumbing shared by handlers.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	dErrors "smartration/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// Validatable is implemented by request DTOs that check and normalize themselves.
type Validatable interface {
	Validate() error
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into the JSON error envelope. Internal errors never
// carry a description so storage details stay server-side.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	desc := ""
	if de, ok := dErrors.As(err); ok {
		code = de.Code
		desc = de.Message
	}
	resp := errorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		resp.ErrorDescription = desc
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}

// DecodeAndPrepare decodes a JSON body into T, trims its string fields and
// runs Validate. On failure it writes the error response and returns false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body",
			"request_id", requestID,
			"error", err.Error(),
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}

	sanitize(&req)
	if err := PT(&req).Validate(); err != nil {
		logger.WarnContext(ctx, "request validation failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
