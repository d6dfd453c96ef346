package adminclient

import "fmt"

// Error is the typed failure every operation returns. Status holds the HTTP
// status code of the response, a Status of zero means the request never got
// a response at all.
type Error struct {
	Message string            `json:"message"`
	Status  int               `json:"-"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("network error: %s", e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// IsNetwork reports whether the request failed before a response arrived.
func (e *Error) IsNetwork() bool {
	return e.Status == 0
}

// IsClient reports whether the server rejected the request.
func (e *Error) IsClient() bool {
	return e.Status >= 400 && e.Status < 500
}

// IsServer reports whether the server failed to process the request.
func (e *Error) IsServer() bool {
	return e.Status >= 500
}

// retryable failures are the ones a later attempt could fix. A 4xx will
// fail the same way every time, so it is never retried.
func (e *Error) retryable() bool {
	return e.IsNetwork() || e.IsServer()
}

func networkError(err error) *Error {
	return &Error{Message: err.Error()}
}
