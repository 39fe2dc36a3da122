package auth

import "fmt"

// Reason classifies terminal authentication failures.
type Reason string

const (
	// ReasonInvalidCode means the authorization code was rejected.
	// Codes are single-use and short-lived; the flow must be restarted.
	ReasonInvalidCode Reason = "invalid_code"
	// ReasonReauthRequired means the stored credential can no longer be
	// refreshed and the operator must authenticate again.
	ReasonReauthRequired Reason = "reauth_required"
)

// Error is a terminal authentication failure. It is never retried
// automatically; the operator has to act.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth %s", e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}
