package record

import "errors"

var (
	// ErrInvalidBatch means the submitted payload is not a sequence of
	// record mappings. Nothing is written when it is returned.
	ErrInvalidBatch = errors.New("expected a list of performance records")

	// ErrStoreUnavailable means the underlying storage cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)
