package repository

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to the service layer. Everything else is a
// StorageError wrapping the pgx cause; retry policy belongs to the
// caller, the store never retries.
var (
	// ErrNotFound means no row matched the lookup
	ErrNotFound = errors.New("not found")
	// ErrNothingRemoved means the delete filter excluded every existing row
	ErrNothingRemoved = errors.New("nothing removed")
	// ErrNoAssignments means the packager holds no assignments at all
	ErrNoAssignments = errors.New("packager has no assignments")
	// ErrNotAssigned means none of the packager's assignments is for the package
	ErrNotAssigned = errors.New("package not assigned to packager")
)

// StorageError wraps an underlying persistence failure
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
