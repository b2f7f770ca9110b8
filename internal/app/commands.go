package app

import (
	"context"
	"fmt"
	"time"

	"frontdesk/internal/availability"
	"frontdesk/internal/booking"
	"frontdesk/internal/domain"
	"frontdesk/internal/pricing"
)

// StayInput is the normalized new/edit booking form: an explicit ordered
// guest roster, never form-field naming conventions.
type StayInput struct {
	PrimaryName      string
	PrimaryBirthdate domain.Date
	ExtraGuests      []domain.Guest
	Room             string
	PartySize        int
	Arrival          domain.Date
	Departure        domain.Date
	Meal             domain.MealPlan
	Contact          domain.Contact
	Address          domain.Address
	Notes            string
	PaymentMethod    string
}

// BookingService executes booking commands. Rate tables are loaded once at
// startup and held immutably; "today" comes from the injected clock so the
// age-as-of-today pricing quirk is at least deterministic under test.
type BookingService struct {
	store  domain.BookingStore
	cache  domain.Cache
	rates  domain.RateTable
	tax    domain.TaxTable
	dinner domain.DinnerTable
	pooled bool
	now    func() time.Time
}

func NewBookingService(store domain.BookingStore, cache domain.Cache,
	rates domain.RateTable, tax domain.TaxTable, dinner domain.DinnerTable,
	pooled bool, now func() time.Time) *BookingService {
	if now == nil {
		now = time.Now
	}
	return &BookingService{store: store, cache: cache, rates: rates, tax: tax,
		dinner: dinner, pooled: pooled, now: now}
}

func (s *BookingService) today() domain.Date { return domain.DateOf(s.now()) }

// validateStay runs every input check that does not need store data.
func validateStay(in StayInput) error {
	ve := domain.NewValidationError()
	if in.PrimaryName == "" {
		ve.Add("primaryName", "primary guest name is required")
	}
	if in.PrimaryBirthdate.IsZero() {
		ve.Add("primaryBirthdate", "primary guest birthdate is required")
	}
	if in.Room == "" {
		ve.Add("room", "room is required")
	}
	if in.PartySize < 1 {
		ve.Add("partySize", "party size must be at least 1")
	}
	if 1+len(in.ExtraGuests) > in.PartySize {
		ve.Add("guests", fmt.Sprintf("roster has %d guests but party size is %d",
			1+len(in.ExtraGuests), in.PartySize))
	}
	if !ve.Empty() {
		return ve
	}
	return pricing.ValidateStayDates(in.Arrival, in.Departure)
}

// prepare validates input against the room and prices the stay. The returned
// booking has no ID yet.
func (s *BookingService) prepare(ctx context.Context, in StayInput) (domain.Booking, domain.Money, availability.Pool, error) {
	if err := validateStay(in); err != nil {
		return domain.Booking{}, 0, availability.Pool{}, err
	}

	room, err := s.store.GetRoom(ctx, in.Room)
	if err != nil {
		if err == domain.ErrNotFound {
			ve := domain.NewValidationError()
			ve.Add("room", fmt.Sprintf("unknown room %q", in.Room))
			return domain.Booking{}, 0, availability.Pool{}, ve
		}
		return domain.Booking{}, 0, availability.Pool{}, err
	}
	if in.PartySize > room.Capacity {
		ve := domain.NewValidationError()
		ve.Add("partySize", fmt.Sprintf("maximum occupancy for %s is %d", room.Name, room.Capacity))
		return domain.Booking{}, 0, availability.Pool{}, ve
	}

	b := domain.Booking{
		PrimaryGuest:  domain.Guest{Name: in.PrimaryName, Birthdate: &in.PrimaryBirthdate},
		ExtraGuests:   in.ExtraGuests,
		Room:          in.Room,
		PartySize:     in.PartySize,
		Arrival:       in.Arrival,
		Departure:     in.Departure,
		Meal:          in.Meal,
		Status:        domain.StatusOption,
		Contact:       in.Contact,
		Address:       in.Address,
		Notes:         in.Notes,
		PaymentMethod: in.PaymentMethod,
	}

	dist := pricing.ComputeAgeDistribution(in.PrimaryBirthdate, b.Birthdates(), s.today())
	price, err := pricing.Quote(in.Arrival, in.Departure, dist, in.Meal, s.rates, s.tax, s.dinner)
	if err != nil {
		return domain.Booking{}, 0, availability.Pool{}, err
	}

	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return domain.Booking{}, 0, availability.Pool{}, err
	}
	return b, price, availability.PoolFor(room, rooms, s.pooled), nil
}

// Create validates, prices and persists a new stay. The availability check
// and the insert run inside one store transaction; the pool's rows are locked
// there so two desks cannot both take the last slot.
func (s *BookingService) Create(ctx context.Context, in StayInput) (domain.Booking, domain.Money, error) {
	b, price, pool, err := s.prepare(ctx, in)
	if err != nil {
		return domain.Booking{}, 0, err
	}

	err = s.store.InTx(ctx, func(tx domain.BookingStore) error {
		windows, err := tx.ListWindows(ctx, pool.Rooms)
		if err != nil {
			return err
		}
		if err := availability.CheckRoom(pool, b.Arrival, b.Departure, windows, ""); err != nil {
			return err
		}
		id, err := tx.CreateBooking(ctx, b)
		if err != nil {
			return err
		}
		b.ID = id
		return nil
	})
	if err != nil {
		return domain.Booking{}, 0, err
	}
	return b, price, nil
}

// Edit replaces a stay's details wholesale, guest roster included. The
// booking's own prior window is excluded from the availability count so a
// date move never collides with itself.
func (s *BookingService) Edit(ctx context.Context, id string, in StayInput) (domain.Booking, domain.Money, error) {
	existing, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, 0, err
	}
	if existing.Status.Terminal() {
		return domain.Booking{}, 0, &domain.GuardViolation{From: existing.Status, To: existing.Status,
			Reason: "terminal bookings cannot be edited"}
	}

	b, price, pool, err := s.prepare(ctx, in)
	if err != nil {
		return domain.Booking{}, 0, err
	}
	b.ID = id
	b.Status = existing.Status
	b.PaymentStatus = existing.PaymentStatus

	err = s.store.InTx(ctx, func(tx domain.BookingStore) error {
		windows, err := tx.ListWindows(ctx, pool.Rooms)
		if err != nil {
			return err
		}
		if err := availability.CheckRoom(pool, b.Arrival, b.Departure, windows, id); err != nil {
			return err
		}
		return tx.UpdateBooking(ctx, b)
	})
	if err != nil {
		return domain.Booking{}, 0, err
	}
	s.evict(ctx, id)
	return b, price, nil
}

// Transition moves a booking to a new status. Accepted moves append exactly
// one history record in the same transaction; rejected guards append nothing
// and leave the booking untouched.
func (s *BookingService) Transition(ctx context.Context, id string, to domain.Status, actor string) (domain.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	next, err := booking.NextStatus(b.Status, to, b.Departure, s.today(), b.PaymentStatus)
	if err != nil {
		return domain.Booking{}, err
	}

	err = s.store.InTx(ctx, func(tx domain.BookingStore) error {
		if err := tx.UpdateStatus(ctx, id, next); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, domain.HistoryRecord{
			BookingID: id,
			Status:    next,
			ChangedAt: s.now().UTC(),
			ChangedBy: actor,
		})
	})
	if err != nil {
		return domain.Booking{}, err
	}
	b.Status = next
	s.evict(ctx, id)
	return b, nil
}

// Cancel is a Transition to Cancelled; it is legal from any non-terminal
// state and the booking is retained, never purged.
func (s *BookingService) Cancel(ctx context.Context, id, actor string) (domain.Booking, error) {
	return s.Transition(ctx, id, domain.StatusCancelled, actor)
}

// SetPayment records settlement of the bill, a precondition for checkout.
func (s *BookingService) SetPayment(ctx context.Context, id string, paid bool, method string) error {
	if _, err := s.store.GetBooking(ctx, id); err != nil {
		return err
	}
	if err := s.store.UpdatePayment(ctx, id, paid, method); err != nil {
		return err
	}
	s.evict(ctx, id)
	return nil
}

// Delete removes a booking outright. Rarely exercised; cancellation is the
// normal path and keeps history intact.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteBooking(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	return nil
}

func (s *BookingService) evict(ctx context.Context, id string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, "booking:"+id)
	}
}
