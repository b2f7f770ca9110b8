// Package booking holds the booking lifecycle rules: which status moves are
// legal and which guards protect them.
package booking

import "frontdesk/internal/domain"

var transitions = map[domain.Status][]domain.Status{
	domain.StatusOption:    {domain.StatusConfirmed, domain.StatusCheckedIn, domain.StatusCancelled},
	domain.StatusConfirmed: {domain.StatusCheckedIn, domain.StatusCancelled},
	domain.StatusCheckedIn: {domain.StatusCheckedOut, domain.StatusCancelled},
	// CheckedOut and Cancelled are terminal
}

// NextStatus validates the requested status move. Checking out requires the
// stay to end today and the bill to be settled; a failed guard rejects the
// transition outright — the caller records nothing and keeps the old status.
func NextStatus(current, requested domain.Status, departure, today domain.Date, paid bool) (domain.Status, error) {
	allowed := false
	for _, s := range transitions[current] {
		if s == requested {
			allowed = true
			break
		}
	}
	if !allowed {
		reason := "transition not permitted"
		if current.Terminal() {
			reason = "booking is in a terminal state"
		}
		return "", &domain.GuardViolation{From: current, To: requested, Reason: reason}
	}

	if requested == domain.StatusCheckedOut {
		if departure != today {
			return "", &domain.GuardViolation{From: current, To: requested,
				Reason: "checkout is only allowed on the departure day"}
		}
		if !paid {
			return "", &domain.GuardViolation{From: current, To: requested,
				Reason: "booking is not paid"}
		}
	}
	return requested, nil
}
