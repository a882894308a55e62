package schedule

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by store lookups for missing rows.
var ErrNotFound = errors.New("schedule: not found")

// ErrVersionConflict is returned when an optimistic-concurrency write
// loses the race: the row was updated since the caller read it. The
// caller should refresh and re-validate.
var ErrVersionConflict = errors.New("schedule: version conflict")

// ValidationError reports malformed input, such as a shift template whose
// end time is not after its start time. It is always raised synchronously,
// before any state change.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schedule: invalid %s: %s", e.Field, e.Msg)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
