package pipeline

import (
	"errors"
	"fmt"
)

// ErrMalformedInput marks top-level batch malformation: an empty file, an
// unparsable line or row, or a missing header. It aborts the whole
// invocation before anything is written, so the transport can redeliver.
var ErrMalformedInput = errors.New("malformed input")

// ValidationKind names the way a record failed schema validation.
type ValidationKind string

const (
	MissingField     ValidationKind = "missing_field"
	InvalidTimestamp ValidationKind = "invalid_timestamp"
	InvalidNumber    ValidationKind = "invalid_number"
)

// ValidationError reports the first field of a record that failed
// validation. It only ever drives a drop-and-log decision; it is never
// returned from Ingest.
type ValidationError struct {
	Field string
	Kind  ValidationKind
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingField:
		return fmt.Sprintf("missing field: %s", e.Field)
	case InvalidTimestamp:
		return fmt.Sprintf("invalid timestamp in %s", e.Field)
	case InvalidNumber:
		return fmt.Sprintf("invalid number in %s", e.Field)
	default:
		return fmt.Sprintf("invalid field: %s", e.Field)
	}
}
