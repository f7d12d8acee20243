package model

import (
	"errors"
	"fmt"
)

var (
	// ErrConversionDegraded indicates a rate was missing and 1 was assumed.
	ErrConversionDegraded = errors.New("conversion degraded: rate unavailable, assumed 1")
	// ErrRateFetchFailed indicates the rate source could not be reached or parsed.
	ErrRateFetchFailed = errors.New("rate fetch failed")
	// ErrStaleRates indicates a fetched table was discarded because the active
	// table changed or the caller went away while the fetch was in flight.
	ErrStaleRates = errors.New("rate fetch result discarded")
	// ErrPersistenceWrite indicates the store write failed; the change is
	// still applied in memory.
	ErrPersistenceWrite = errors.New("persistence write failed")
)

// ValidationError reports malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NotFoundError reports an operation on an unknown record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsWarning reports whether err is non-fatal: the requested change or read
// succeeded but something degraded along the way.
func IsWarning(err error) bool {
	return errors.Is(err, ErrPersistenceWrite) ||
		errors.Is(err, ErrConversionDegraded) ||
		errors.Is(err, ErrRateFetchFailed) ||
		errors.Is(err, ErrStaleRates)
}
