package testutil

import (
	"net/http"

	"clearpath/pkg/requestcontext"
)

// WithSubject adds an authenticated subject to the request context, simulating
// what the auth middleware does for authenticated requests.
func WithSubject(req *http.Request, subject string) *http.Request {
	return req.WithContext(requestcontext.WithSubject(req.Context(), subject))
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
