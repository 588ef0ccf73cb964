package roi

import "errors"

var (
	// ErrDuplicateName is returned when committing an ROI whose name is
	// already present in the active set.
	ErrDuplicateName = errors.New("roi name already exists")

	// ErrInvalidName is returned for empty or otherwise unusable names.
	ErrInvalidName = errors.New("invalid roi name")

	// ErrNotFound is returned when an operation references an unknown ROI.
	ErrNotFound = errors.New("roi not found")
)
