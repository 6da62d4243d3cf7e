package mockfactory

import (
	"errors"
	"fmt"
)

var (
	// ErrColumnNotFound is returned by Get for a column that is neither
	// materialized locally nor declared by the backing source.
	ErrColumnNotFound = errors.New("column not found")

	// ErrCommunicatorMismatch is returned when catalogs bound to different
	// process groups are combined.
	ErrCommunicatorMismatch = errors.New("catalogs are bound to different process groups")

	// ErrEmptyConcatenate is returned when Concatenate is given no inputs.
	ErrEmptyConcatenate = errors.New("concatenate needs at least one catalog")
)

// ColumnMismatchError indicates concatenation inputs with differing column
// sets.
type ColumnMismatchError struct {
	Got  []string
	Want []string
}

func (e *ColumnMismatchError) Error() string {
	return fmt.Sprintf("column mismatch: %v != %v", e.Got, e.Want)
}
