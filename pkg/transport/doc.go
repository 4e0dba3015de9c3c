// Package transport provides the HTTP boundary shared pieces: mapping the
// APIError taxonomy to status codes, JSON error serialization, and the
// HTTP middleware stack (request ID, panic recovery, structured logging).
//
// The concrete route handlers and server lifecycle live in
// pkg/transport/http.
package transport
