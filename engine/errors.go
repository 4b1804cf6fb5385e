package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is wrapped by every configuration failure so
// callers can fail fast at construction with a single errors.Is check.
var ErrInvalidConfiguration = errors.New("invalid engine configuration")

// MalformedRecordError aborts a single run: the extracted record is missing a
// required field or carries an unparsable value. It never aborts sibling runs.
type MalformedRecordError struct {
	Record string
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record: field %q %s", e.Record, e.Field, e.Reason)
}

func malformed(record, field, reason string) *MalformedRecordError {
	return &MalformedRecordError{Record: record, Field: field, Reason: reason}
}

// IsMalformedRecord reports whether err is (or wraps) a MalformedRecordError.
func IsMalformedRecord(err error) bool {
	var target *MalformedRecordError
	return errors.As(err, &target)
}
