package agent

import "fmt"

// Reason classifies a dispatch failure. All transport-specific detail is
// folded into one of three reasons so callers never branch on error strings.
type Reason string

const (
	ReasonUnreachable Reason = "unreachable"
	ReasonTimeout     Reason = "timeout"
	ReasonBadResponse Reason = "bad-response"
)

// DispatchError is the single failure type returned by the client. It wraps
// the underlying transport error for logging.
type DispatchError struct {
	Reason Reason
	Err    error
}

func (e *DispatchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("dispatch failed: %s", e.Reason)
	}
	return fmt.Sprintf("dispatch failed (%s): %v", e.Reason, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
