package apperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// errorResponse is the JSON body written for every failed request.
type errorResponse struct {
	Error   Kind   `json:"error"`
	Message string `json:"message"`
}

// Public returns the kind and message a client is allowed to see for err.
// Integrity faults are reported as a plain not-found so the filesystem
// layout never leaks; internal errors get a generic message.
func Public(err error) (Kind, string) {
	var e *Error
	if !errors.As(err, &e) {
		return Internal, "Something went wrong."
	}
	switch e.Kind {
	case IntegrityFault:
		return NotFound, "File not found."
	case Internal:
		return Internal, "Something went wrong."
	}
	return e.Kind, e.Message
}

// Write renders err as JSON with the status mapped from its kind.
// Server-side failures and integrity faults are logged with their cause.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	kind := KindOf(err)
	status := Status(kind)

	if log != nil && (status >= http.StatusInternalServerError || kind == IntegrityFault) {
		log.Error("request failed",
			zap.String("kind", string(kind)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}

	pubKind, msg := Public(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: pubKind, Message: msg})
}
