package engine

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx answer from the worker.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("worker %s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("worker %s: %d %s: %s", e.Op, e.Status, http.StatusText(e.Status), e.Body)
}

// IsStatus reports whether err is a worker StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == code
}

// ErrNotRunning is returned by Spawner when no worker process is live.
var ErrNotRunning = errors.New("engine: worker not running")
