package inference

import "fmt"

// ConnectionError reports an endpoint that cannot be used: no URL, not
// reachable, or offering no models.
type ConnectionError struct {
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection failed: %s: %v", e.Reason, e.Err)
	}
	return "connection failed: " + e.Reason
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx answer from a backend.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Body)
}
