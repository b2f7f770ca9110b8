package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("frontdesk: not found")

// ValidationError collects field-keyed input problems. Malformed dates, party
// size over capacity and meal-plan overcounts all land here; they are always
// surfaced to the caller, never defaulted to a zero result.
type ValidationError struct {
	fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{fields: make(map[string][]string)}
}

func (e *ValidationError) Add(field, msg string) {
	e.fields[field] = append(e.fields[field], msg)
}

func (e *ValidationError) Empty() bool { return len(e.fields) == 0 }

func (e *ValidationError) Fields() map[string][]string { return e.fields }

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %+v", e.fields)
}

func AsValidationError(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// GuardViolation is a rejected status transition. Nothing is recorded for a
// rejected transition; the booking keeps its current status.
type GuardViolation struct {
	From   Status
	To     Status
	Reason string
}

func (e *GuardViolation) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s: %s", e.From, e.To, e.Reason)
}

func AsGuardViolation(err error) *GuardViolation {
	var gv *GuardViolation
	if errors.As(err, &gv) {
		return gv
	}
	return nil
}

// CapacityExceeded means the requested range has no spare capacity in the
// room's pool. There is no retry; the caller must pick other dates or a room.
type CapacityExceeded struct {
	Pool     string
	Capacity int
	Booked   int
}

func (e *CapacityExceeded) Error() string {
	return fmt.Sprintf("pool %s is full for the requested dates (%d of %d booked)", e.Pool, e.Booked, e.Capacity)
}

func AsCapacityExceeded(err error) *CapacityExceeded {
	var ce *CapacityExceeded
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}
