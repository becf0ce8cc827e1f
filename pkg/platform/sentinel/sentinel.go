package sentinel

import "errors"

// Sentinel errors for persistence facts. Stores return these (optionally wrapped)
// and services translate them into coded domain errors:
//   - ErrNotFound: row does not exist
//   - ErrConflict: a compare-and-swap lost to a concurrent writer
//   - ErrAlreadyUsed: a uniqueness constraint rejected the write
//   - ErrInvalidState: row is in the wrong lifecycle state for the operation
//   - ErrHasDependents: row is still referenced and cannot be removed
//   - ErrUnavailable: backing service temporarily unreachable
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyUsed   = errors.New("already used")
	ErrInvalidState  = errors.New("invalid state")
	ErrHasDependents = errors.New("has dependents")
	ErrUnavailable   = errors.New("unavailable")
)
