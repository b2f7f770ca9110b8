package domain

import "context"

// BookingStore is the persistence boundary. The core's availability check is
// pure; callers that create or move bookings must run the check-then-write
// sequence inside InTx so two concurrent bookings cannot both take the last
// slot in a pool.
type BookingStore interface {
	// Write paths
	CreateBooking(ctx context.Context, b Booking) (string, error)
	UpdateBooking(ctx context.Context, b Booking) error
	UpdateStatus(ctx context.Context, id string, s Status) error
	UpdatePayment(ctx context.Context, id string, paid bool, method string) error
	DeleteBooking(ctx context.Context, id string) error
	AppendHistory(ctx context.Context, rec HistoryRecord) error

	// Read paths
	GetBooking(ctx context.Context, id string) (Booking, error)
	SearchBookings(ctx context.Context, q string) ([]Booking, error)
	ListHistory(ctx context.Context, id string) ([]HistoryRecord, error)
	GetRoom(ctx context.Context, name string) (RoomCategory, error)
	ListRooms(ctx context.Context) ([]RoomCategory, error)
	// ListWindows returns the non-cancelled booking windows for the named
	// rooms. Inside InTx the returned rows are locked for update.
	ListWindows(ctx context.Context, rooms []string) ([]BookingWindow, error)

	// Rate configuration, loaded once at process start
	LoadRateTable(ctx context.Context) (RateTable, error)
	LoadTaxTable(ctx context.Context) (TaxTable, error)
	LoadDinnerTable(ctx context.Context) (DinnerTable, error)

	// InTx runs fn against a transactional view of the store and commits if
	// fn returns nil.
	InTx(ctx context.Context, fn func(BookingStore) error) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
