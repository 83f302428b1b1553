package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch matches every *FetchError.
	ErrFetch = errors.New("document unavailable")

	// ErrWrite matches every *WriteError.
	ErrWrite = errors.New("document write failed")

	// ErrRowCountMismatch is returned when edited rows do not line up with the original rows.
	ErrRowCountMismatch = errors.New("edited rows do not match original rows")

	// ErrImmutableName is returned when an edited row changes the debtor name.
	ErrImmutableName = errors.New("debtor name cannot be edited")
)

// FetchError reports that the document could not be read or parsed.
// The enclosing operation is aborted and nothing is written.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", ErrFetch, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// WriteError reports that the document could not be overwritten. The caller's
// change is lost and the whole operation has to be retried.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %v", ErrWrite, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}
