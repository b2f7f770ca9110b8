package domain

import "time"

// Guest is one person on a booking. Birthdate may be missing for additional
// guests; such guests are skipped by the age classifier. Guests are owned by
// exactly one booking and replaced wholesale on edit.
type Guest struct {
	Name      string
	Birthdate *Date
}

// MealPlan is the half-board add-on. MeatCount and VegCount split the
// non-adult dinner covers by menu; together they may never exceed the number
// of non-adult guests.
type MealPlan struct {
	HalfBoard bool
	MeatCount int
	VegCount  int
}

type Contact struct {
	Email string
	Phone string
}

type Address struct {
	Street     string
	PostalCode string
	City       string
	Country    string
}

// Booking is one stay. ID is opaque and assigned by the store; the core never
// constructs or parses it. Arrival/Departure form the half-open range
// [Arrival, Departure) — the departure day is neither priced nor occupied.
type Booking struct {
	ID            string
	PrimaryGuest  Guest
	ExtraGuests   []Guest
	Room          string
	PartySize     int
	Arrival       Date
	Departure     Date
	Meal          MealPlan
	Status        Status
	Contact       Contact
	Address       Address
	Notes         string
	PaymentStatus bool
	PaymentMethod string
}

// Birthdates returns the extra guests' birthdates in roster order (nil where
// unknown), the shape the age classifier consumes.
func (b Booking) Birthdates() []*Date {
	out := make([]*Date, 0, len(b.ExtraGuests))
	for _, g := range b.ExtraGuests {
		out = append(out, g.Birthdate)
	}
	return out
}

// HistoryRecord is one entry in the append-only status log. Records are never
// mutated or deleted, including for cancelled and checked-out bookings.
type HistoryRecord struct {
	BookingID string
	Status    Status
	ChangedAt time.Time
	ChangedBy string
}

// BookingWindow is the slice of a booking the availability checker needs.
type BookingWindow struct {
	BookingID string
	Room      string
	Arrival   Date
	Departure Date
	Status    Status
}
