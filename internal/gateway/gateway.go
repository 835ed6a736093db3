// Package gateway holds what the payment provider adapters share: the error
// type every adapter surfaces when a provider call fails or is rejected.
package gateway

import "fmt"

// Error is a provider-side failure: a rejected request, a non-success status
// in the provider's reply, or a transport failure (including timeouts, which
// callers must treat as retryable, never as success).
type Error struct {
	Provider string
	Reason   string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}
