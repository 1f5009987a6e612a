package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateKey is returned when inserting a record whose id already exists.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound is returned when an operation requires an existing record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFormat is returned when import text is not a valid export document.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrStorageUnavailable is returned when the local store cannot be opened.
	// It is fatal for the session.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidInput is returned for caller-supplied values that fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPartialWrite matches any *PartialWriteError.
	ErrPartialWrite = errors.New("partial write")
)

// PartialWriteError reports a check-in that was stored while some of its
// photos were not. Nothing is rolled back.
type PartialWriteError struct {
	CheckinID string
	Stored    int
	Total     int
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("checkin %s saved but only %d of %d photos stored: %v", e.CheckinID, e.Stored, e.Total, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

func (e *PartialWriteError) Is(target error) bool {
	return target == ErrPartialWrite
}
