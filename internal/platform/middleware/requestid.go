package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"clearpath/pkg/requestcontext"
)

// RequestIDHeader is honored when the caller supplies its own correlation ID.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns every request a correlation ID, reusing the caller's
// X-Request-ID when present, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
