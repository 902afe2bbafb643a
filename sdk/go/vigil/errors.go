// Package vigil provides a Go client for the Validation Gate's HTTP API.
package vigil

import "fmt"

// Error represents an error response from the gate: the HTTP status code
// and the server's machine-readable error code and message. It is only
// ever returned for transport-layer failures (bad request, unauthorized,
// gate unavailable) — a DENY or ESCALATE verdict is not an Error, since the
// gate returns 200 for a request it actually evaluated, apart from the 503
// described at IsUnavailable.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("vigil: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsUnauthorized returns true if the error is a 401: the caller's bearer
// token was missing or invalid.
func IsUnauthorized(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.StatusCode == 401
	}
	return false
}

// IsUnavailable returns true if the error is a 503: the gate escalated a
// ledger-write failure under COMPLETE_FAIL_CLOSED rather than returning its
// usual DENY LEDGER_ERROR verdict.
func IsUnavailable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.StatusCode == 503
	}
	return false
}
