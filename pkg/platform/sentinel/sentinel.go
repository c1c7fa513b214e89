package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and the person service translates them into domain errors.
//
//   - ErrNotFound: no person row carries the requested id
//   - ErrConflict: a person row with the same id already exists
//   - ErrUnavailable: the backing store cannot be reached
//
// Field rule violations are not infrastructure facts; they use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
