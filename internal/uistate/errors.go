package uistate

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPeriod is matched by InvalidPeriodError via errors.Is.
	ErrInvalidPeriod = errors.New("uistate: invalid pricing period")
	// ErrIndexOutOfRange is matched by IndexOutOfRangeError via errors.Is.
	ErrIndexOutOfRange = errors.New("uistate: index out of range")
	// ErrUnknownEvent reports an event kind no container handles.
	ErrUnknownEvent = errors.New("uistate: unknown event")
)

// InvalidPeriodError is returned when a period index outside {0, 1} is selected.
type InvalidPeriodError struct {
	Index int
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("uistate: invalid pricing period %d (want 0 or 1)", e.Index)
}

// Is reports whether target is ErrInvalidPeriod.
func (e *InvalidPeriodError) Is(target error) bool {
	return target == ErrInvalidPeriod
}

// IndexOutOfRangeError is returned when an index falls outside a configured collection.
type IndexOutOfRangeError struct {
	Collection string
	Index      int
	Len        int
}

func (e *IndexOutOfRangeError) Error() string {
	name := e.Collection
	if name == "" {
		name = "collection"
	}
	return fmt.Sprintf("uistate: %s index %d out of range [0,%d)", name, e.Index, e.Len)
}

// Is reports whether target is ErrIndexOutOfRange.
func (e *IndexOutOfRangeError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// CheckIndex returns an IndexOutOfRangeError when index is not within [0, length).
func CheckIndex(collection string, index, length int) error {
	if index < 0 || index >= length {
		return &IndexOutOfRangeError{Collection: collection, Index: index, Len: length}
	}
	return nil
}

// IsContractViolation reports whether err is one of the caller-bug errors raised
// by a transition.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) || errors.Is(err, ErrIndexOutOfRange) || errors.Is(err, ErrUnknownEvent)
}
