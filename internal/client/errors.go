package client

import "errors"

// Fetch errors returned by the client. Callers classify with errors.Is.
var (
	// ErrUnauthorized means the API key is missing, invalid or suspended. Fatal for a run.
	ErrUnauthorized = errors.New("api-football: unauthorized")

	// ErrRateLimited means the daily or per-minute quota is exhausted
	ErrRateLimited = errors.New("api-football: rate limited")

	// ErrUnexpectedStatus wraps any other non-200 response
	ErrUnexpectedStatus = errors.New("api-football: unexpected status")

	// ErrAPI means a 200 response carried provider errors in its envelope
	ErrAPI = errors.New("api-football: request rejected")

	// ErrMalformedResponse means the payload could not be decoded or converted
	ErrMalformedResponse = errors.New("api-football: malformed response")
)
