package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a malformed search request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrStoreUnavailable signals that the listings store could not be queried.
	ErrStoreUnavailable = errors.New("listings store unavailable")
	// ErrScorerUnavailable signals a scoring provider failure.
	ErrScorerUnavailable = errors.New("scorer unavailable")
)
