package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrMalformedRecord   = errors.New("malformed record")
	ErrUnknownIndex      = errors.New("unknown vocabulary index")
	ErrNotFitted         = errors.New("co-occurrences not fitted")
	ErrCoordinatorClosed = errors.New("spill coordinator closed")
	ErrAlreadyFitted     = errors.New("co-occurrences already fitted")
	ErrNotFound          = errors.New("not found")
)
