package booking

import "errors"

// Every failure returned by the lifecycle wraps exactly one of these kinds.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrPermission          = errors.New("permission denied")
	ErrCapacityExceeded    = errors.New("session is full")
	ErrValidation          = errors.New("validation failed")
	ErrConcurrencyConflict = errors.New("concurrent modification")
	ErrDuplicate           = errors.New("already exists")
)

// Kind returns the taxonomy sentinel err wraps, or nil for unexpected errors.
func Kind(err error) error {
	for _, kind := range []error{
		ErrNotFound,
		ErrInvalidState,
		ErrPermission,
		ErrCapacityExceeded,
		ErrValidation,
		ErrConcurrencyConflict,
		ErrDuplicate,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
