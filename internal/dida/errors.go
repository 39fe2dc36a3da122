package dida

import "fmt"

// ValidationError means the caller's input was malformed. No request is
// sent and the call is never retried.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// Kind classifies API failures by how they were handled.
type Kind string

const (
	// KindRejected means the service refused the request; retrying the
	// same request would fail again.
	KindRejected Kind = "rejected"
	// KindTransient means retries with backoff were exhausted.
	KindTransient Kind = "transient"
)

// APIError is a failed call against the task service. It carries enough
// context for the caller to log and decide.
type APIError struct {
	Kind     Kind
	Endpoint string
	Status   int
	Body     string
	Err      error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Kind, e.Endpoint, e.Status, e.Body)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Endpoint, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
