package domain

import "fmt"

// Status is the booking lifecycle state. CheckedOut and Cancelled are
// terminal; cancelled bookings are retained, not purged.
type Status string

const (
	StatusOption     Status = "Option"
	StatusConfirmed  Status = "Confirmed"
	StatusCheckedIn  Status = "CheckedIn"
	StatusCheckedOut Status = "CheckedOut"
	StatusCancelled  Status = "Cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOption, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

func (s Status) Terminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled
}

func (s Status) String() string { return string(s) }
