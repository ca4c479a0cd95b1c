// Package httputil centralizes JSON encoding and error envelopes for the HTTP
// layer so every handler responds in the same shape.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// maxBodyBytes caps request bodies; verification requests are tiny.
const maxBodyBytes = 1 << 20

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDetail writes the standard error envelope {"detail": ...}.
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, map[string]string{"detail": detail})
}

// Decode reads and unmarshals a JSON request body into T. On failure it
// writes a 400 detail response and returns ok=false; the handler must return
// without writing anything further.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		detail := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			detail = "request body is required"
		}
		logger.WarnContext(r.Context(), "request decode failed", "error", err)
		WriteDetail(w, http.StatusBadRequest, detail)
		return req, false
	}
	return req, true
}
