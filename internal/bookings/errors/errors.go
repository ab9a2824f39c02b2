package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged signals that the conditional status update matched
	// nothing because the booking moved out of the expected status first.
	ErrStatusChanged = errors.New("booking status changed concurrently")
)
