package app

import (
	"context"
	"fmt"
	"time"

	"frontdesk/internal/availability"
	"frontdesk/internal/domain"
	"frontdesk/internal/pricing"
)

// OccupancyReport is the per-day occupancy of one capacity pool over a
// half-open date range.
type OccupancyReport struct {
	Room     string
	Pool     string
	Capacity int
	Days     []availability.DayCount
}

// QuoteInput prices a prospective stay without persisting anything.
type QuoteInput struct {
	PrimaryBirthdate domain.Date
	ExtraBirthdates  []*domain.Date
	Arrival          domain.Date
	Departure        domain.Date
	Meal             domain.MealPlan
}

type QueryService struct {
	store    domain.BookingStore
	cache    domain.Cache
	cacheTTL time.Duration
	rates    domain.RateTable
	tax      domain.TaxTable
	dinner   domain.DinnerTable
	pooled   bool
	now      func() time.Time
}

func NewQueryService(store domain.BookingStore, cache domain.Cache, ttl time.Duration,
	rates domain.RateTable, tax domain.TaxTable, dinner domain.DinnerTable,
	pooled bool, now func() time.Time) *QueryService {
	if now == nil {
		now = time.Now
	}
	return &QueryService{store: store, cache: cache, cacheTTL: ttl, rates: rates,
		tax: tax, dinner: dinner, pooled: pooled, now: now}
}

func (s *QueryService) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	key := "booking:" + id
	var b domain.Booking
	if ok, _ := s.cache.Get(ctx, key, &b); ok {
		return b, nil
	}
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	// copy the roster so callers mutating the result cannot poison the cache
	_ = s.cache.Set(ctx, key, deepCopyBooking(b), int(s.cacheTTL.Seconds()))
	return b, nil
}

// SearchBookings matches the front desk's quick search: case-insensitive
// substring over primary guest name and booking ID. Uncached; the result set
// changes with every keystroke anyway.
func (s *QueryService) SearchBookings(ctx context.Context, q string) ([]domain.Booking, error) {
	return s.store.SearchBookings(ctx, q)
}

func (s *QueryService) History(ctx context.Context, id string) ([]domain.HistoryRecord, error) {
	return s.store.ListHistory(ctx, id)
}

// Occupancy reports the per-day occupied slots of the room's pool over
// [from, to). Cached under a short TTL rather than invalidated on writes:
// the calendar tolerates staleness measured in seconds, and range-shaped
// keys cannot be enumerated for eviction.
func (s *QueryService) Occupancy(ctx context.Context, roomName string, from, to domain.Date) (OccupancyReport, error) {
	if err := pricing.ValidateStayDates(from, to); err != nil {
		return OccupancyReport{}, err
	}

	key := fmt.Sprintf("occupancy:%s:%s:%s", roomName, from, to)
	var rep OccupancyReport
	if ok, _ := s.cache.Get(ctx, key, &rep); ok {
		return rep, nil
	}

	room, err := s.store.GetRoom(ctx, roomName)
	if err != nil {
		return OccupancyReport{}, err
	}
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return OccupancyReport{}, err
	}
	pool := availability.PoolFor(room, rooms, s.pooled)

	windows, err := s.store.ListWindows(ctx, pool.Rooms)
	if err != nil {
		return OccupancyReport{}, err
	}

	rep = OccupancyReport{
		Room:     room.Name,
		Pool:     pool.Key,
		Capacity: pool.Capacity,
		Days:     availability.DailyCounts(pool, from, to, windows),
	}
	_ = s.cache.Set(ctx, key, deepCopyReport(rep), int(s.cacheTTL.Seconds()))
	return rep, nil
}

// CheckAvailability answers "would this range fit" without writing anything.
// Callers that go on to book must not rely on this answer; Create re-checks
// inside the store transaction.
func (s *QueryService) CheckAvailability(ctx context.Context, roomName string, from, to domain.Date, excludeID string) error {
	room, err := s.store.GetRoom(ctx, roomName)
	if err != nil {
		return err
	}
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return err
	}
	pool := availability.PoolFor(room, rooms, s.pooled)
	windows, err := s.store.ListWindows(ctx, pool.Rooms)
	if err != nil {
		return err
	}
	return availability.CheckRoom(pool, from, to, windows, excludeID)
}

// PriceQuote prices a prospective stay against today's ages.
func (s *QueryService) PriceQuote(ctx context.Context, in QuoteInput) (domain.Money, error) {
	if in.PrimaryBirthdate.IsZero() {
		ve := domain.NewValidationError()
		ve.Add("primaryBirthdate", "primary guest birthdate is required")
		return 0, ve
	}
	today := domain.DateOf(s.now())
	dist := pricing.ComputeAgeDistribution(in.PrimaryBirthdate, in.ExtraBirthdates, today)
	return pricing.Quote(in.Arrival, in.Departure, dist, in.Meal, s.rates, s.tax, s.dinner)
}

func deepCopyBooking(b domain.Booking) domain.Booking {
	out := b
	if n := len(b.ExtraGuests); n > 0 {
		out.ExtraGuests = make([]domain.Guest, n)
		copy(out.ExtraGuests, b.ExtraGuests)
	}
	return out
}

func deepCopyReport(r OccupancyReport) OccupancyReport {
	out := r
	if n := len(r.Days); n > 0 {
		out.Days = make([]availability.DayCount, n)
		copy(out.Days, r.Days)
	}
	return out
}
