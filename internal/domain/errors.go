package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTrainingData is returned when an optimization is attempted with
	// zero captured sessions. User-correctable.
	ErrNoTrainingData = errors.New("at least one chat session is required to optimize")

	// ErrOptimizerUnavailable means the optimizer collaborator could not be
	// reached or the request deadline expired before it answered.
	ErrOptimizerUnavailable = errors.New("optimizer unavailable")

	// ErrVersionNotFound means the requested prompt version id does not exist.
	ErrVersionNotFound = errors.New("version not found")

	// ErrSchemaCorrupt means stored data matched neither the current nor the
	// legacy schema.
	ErrSchemaCorrupt = errors.New("stored data matches no known schema")
)

// OptimizerError is a failure reported by the optimizer itself: it was
// reachable but answered with a non-2xx status or an undecodable body.
// Status and Body are preserved for operator diagnosis.
type OptimizerError struct {
	Status int
	Body   string
}

func (e *OptimizerError) Error() string {
	return fmt.Sprintf("optimizer error %d: %s", e.Status, e.Body)
}
