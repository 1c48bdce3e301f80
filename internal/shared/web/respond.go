// Package web holds the helpers every HTTP handler shares: buffered JSON
// responses, error bodies, and request-id plumbing.
package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/shortland/backend/internal/shared/logger"
)

// JSONResponse encodes data to a buffer first so the status code can still be
// controlled when encoding fails.
func JSONResponse(ctx context.Context, log *logger.Logger, w http.ResponseWriter, status int, data any) {
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			log.Error(ctx, "response_encode_failed", "failed to encode response", err)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// HTTPError sends a JSON error response with a message and logs it with a
// status-derived action tag.
func HTTPError(ctx context.Context, log *logger.Logger, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	switch {
	case status >= 500:
		action = "http_internal_error"
	case status == http.StatusBadRequest:
		action = "validation_failed"
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		action = "access_denied"
	case status == http.StatusNotFound:
		action = "not_found"
	}
	log.Error(ctx, action, msg, err)

	type errBody struct {
		Error string `json:"error"`
	}
	JSONResponse(ctx, log, w, status, errBody{Error: msg})
}

// RequestID returns middleware that extracts or generates a request id and
// stores it in the context for the logger.
func RequestID(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get("X-Request-ID")
			if rid == "" {
				rid = randID()
			}
			next.ServeHTTP(w, r.WithContext(log.WithRequestID(r.Context(), rid)))
		})
	}
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
