package booking

import "errors"

// Error kinds returned by booking, listing and auth operations. Callers match
// them with errors.Is; the message after the kind describes the failed check.
var (
	ErrValidation  = errors.New("invalid request")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrPersistence = errors.New("storage failure")
	ErrPolicy      = errors.New("not permitted")
)

var kinds = []error{ErrValidation, ErrNotFound, ErrConflict, ErrPolicy, ErrPersistence}

// Kind returns the error kind err belongs to. Unclassified errors are
// storage failures.
func Kind(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrPersistence
}
