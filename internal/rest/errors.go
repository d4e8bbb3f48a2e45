package rest

import "fmt"

// NetworkError is a backend call that failed in transport or was rejected
// with a non-2xx status.
type NetworkError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.StatusCode)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }
