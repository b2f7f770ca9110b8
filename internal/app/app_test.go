package app_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"frontdesk/internal/app"
	"frontdesk/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	rooms    map[string]domain.RoomCategory
	bookings map[string]domain.Booking
	history  []domain.HistoryRecord
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms: map[string]domain.RoomCategory{
			"Doppelzimmer": {Name: "Doppelzimmer", GroupKey: "Doppelzimmer", Capacity: 2},
			"4er-Zimmer 1": {Name: "4er-Zimmer 1", GroupKey: "Viererzimmer", Capacity: 4},
			"4er-Zimmer 2": {Name: "4er-Zimmer 2", GroupKey: "Viererzimmer", Capacity: 4},
		},
		bookings: map[string]domain.Booking{},
	}
}

func (f *fakeStore) CreateBooking(ctx context.Context, b domain.Booking) (string, error) {
	f.nextID++
	b.ID = fmt.Sprintf("bk-%d", f.nextID)
	f.bookings[b.ID] = b
	return b.ID, nil
}

func (f *fakeStore) UpdateBooking(ctx context.Context, b domain.Booking) error {
	if _, ok := f.bookings[b.ID]; !ok {
		return domain.ErrNotFound
	}
	f.bookings[b.ID] = b
	return nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id string, s domain.Status) error {
	b, ok := f.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = s
	f.bookings[id] = b
	return nil
}

func (f *fakeStore) UpdatePayment(ctx context.Context, id string, paid bool, method string) error {
	b, ok := f.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.PaymentStatus = paid
	b.PaymentMethod = method
	f.bookings[id] = b
	return nil
}

func (f *fakeStore) DeleteBooking(ctx context.Context, id string) error {
	if _, ok := f.bookings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.bookings, id)
	return nil
}

func (f *fakeStore) AppendHistory(ctx context.Context, rec domain.HistoryRecord) error {
	f.history = append(f.history, rec)
	return nil
}

func (f *fakeStore) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) SearchBookings(ctx context.Context, q string) ([]domain.Booking, error) {
	q = strings.ToLower(q)
	var out []domain.Booking
	for _, b := range f.bookings {
		if strings.Contains(strings.ToLower(b.PrimaryGuest.Name), q) ||
			strings.Contains(strings.ToLower(b.ID), q) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListHistory(ctx context.Context, id string) ([]domain.HistoryRecord, error) {
	var out []domain.HistoryRecord
	for _, h := range f.history {
		if h.BookingID == id {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) GetRoom(ctx context.Context, name string) (domain.RoomCategory, error) {
	r, ok := f.rooms[name]
	if !ok {
		return domain.RoomCategory{}, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) ListRooms(ctx context.Context) ([]domain.RoomCategory, error) {
	var out []domain.RoomCategory
	for _, r := range f.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) ListWindows(ctx context.Context, rooms []string) ([]domain.BookingWindow, error) {
	in := map[string]bool{}
	for _, r := range rooms {
		in[r] = true
	}
	var out []domain.BookingWindow
	for _, b := range f.bookings {
		if b.Status == domain.StatusCancelled || !in[b.Room] {
			continue
		}
		out = append(out, domain.BookingWindow{
			BookingID: b.ID, Room: b.Room,
			Arrival: b.Arrival, Departure: b.Departure, Status: b.Status,
		})
	}
	return out, nil
}

func (f *fakeStore) LoadRateTable(ctx context.Context) (domain.RateTable, error) {
	return domain.DefaultRateTable(), nil
}
func (f *fakeStore) LoadTaxTable(ctx context.Context) (domain.TaxTable, error) {
	return domain.DefaultTaxTable(), nil
}
func (f *fakeStore) LoadDinnerTable(ctx context.Context) (domain.DinnerTable, error) {
	return domain.DefaultDinnerTable(), nil
}

func (f *fakeStore) InTx(ctx context.Context, fn func(domain.BookingStore) error) error {
	return fn(f)
}

type fakeCache struct {
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Booking:
		*d = v.(domain.Booking)
	case *app.OccupancyReport:
		*d = v.(app.OccupancyReport)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

// ---- fixtures ----

var testNow = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func newServices(store *fakeStore) (*app.BookingService, *app.QueryService, *fakeCache) {
	cache := &fakeCache{}
	cmd := app.NewBookingService(store, cache,
		domain.DefaultRateTable(), domain.DefaultTaxTable(), domain.DefaultDinnerTable(),
		true, fixedNow)
	qry := app.NewQueryService(store, cache, time.Minute,
		domain.DefaultRateTable(), domain.DefaultTaxTable(), domain.DefaultDinnerTable(),
		true, fixedNow)
	return cmd, qry, cache
}

func stay(room string, arrival domain.Date, nights int) app.StayInput {
	return app.StayInput{
		PrimaryName:      "Anna Muster",
		PrimaryBirthdate: domain.NewDate(1985, time.March, 2),
		Room:             room,
		PartySize:        2,
		Arrival:          arrival,
		Departure:        arrival.AddDays(nights),
	}
}

// ---- tests ----

func TestCreate_HappyPathPricesAndPersists(t *testing.T) {
	store := newFakeStore()
	cmd, _, _ := newServices(store)

	arrival := domain.NewDate(2025, time.July, 7) // a Monday
	b, price, err := cmd.Create(context.Background(), stay("Doppelzimmer", arrival, 2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID == "" {
		t.Fatal("expected a store-assigned id")
	}
	if b.Status != domain.StatusOption {
		t.Fatalf("new bookings start as Option, got %s", b.Status)
	}
	// one adult, two weekday nights, per-stay tax
	if want := domain.Cents(2*7000 + 400); price != want {
		t.Fatalf("price %s, want %s", price, want)
	}
	if len(store.bookings) != 1 {
		t.Fatalf("stored %d bookings", len(store.bookings))
	}
}

func TestCreate_PartySizeOverCapacity(t *testing.T) {
	store := newFakeStore()
	cmd, _, _ := newServices(store)

	in := stay("Doppelzimmer", domain.NewDate(2025, time.July, 7), 2)
	in.PartySize = 3
	_, _, err := cmd.Create(context.Background(), in)
	if domain.AsValidationError(err) == nil {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if len(store.bookings) != 0 {
		t.Fatal("nothing may be persisted on validation failure")
	}
}

func TestCreate_PoolFullThenCancelFrees(t *testing.T) {
	store := newFakeStore()
	cmd, _, _ := newServices(store)
	ctx := context.Background()
	arrival := domain.NewDate(2025, time.July, 7)

	// fill the Viererzimmer pool (two rooms, one stay each)
	first, _, err := cmd.Create(ctx, stay("4er-Zimmer 1", arrival, 3))
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, _, err := cmd.Create(ctx, stay("4er-Zimmer 2", arrival, 3)); err != nil {
		t.Fatalf("second: %v", err)
	}

	// third overlapping stay anywhere in the pool is rejected
	_, _, err = cmd.Create(ctx, stay("4er-Zimmer 1", arrival.AddDays(1), 2))
	if domain.AsCapacityExceeded(err) == nil {
		t.Fatalf("want CapacityExceeded, got %v", err)
	}

	// cancelling one stay frees the slot for the same range
	if _, err := cmd.Cancel(ctx, first.ID, "reception"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, _, err := cmd.Create(ctx, stay("4er-Zimmer 1", arrival.AddDays(1), 2)); err != nil {
		t.Fatalf("slot not freed after cancel: %v", err)
	}
}

func TestEdit_NeverCollidesWithItself(t *testing.T) {
	store := newFakeStore()
	cmd, _, _ := newServices(store)
	ctx := context.Background()
	arrival := domain.NewDate(2025, time.July, 7)

	b, _, err := cmd.Create(ctx, stay("Doppelzimmer", arrival, 3))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// shift by one day within the same room: overlaps the prior window
	moved := stay("Doppelzimmer", arrival.AddDays(1), 3)
	got, _, err := cmd.Edit(ctx, b.ID, moved)
	if err != nil {
		t.Fatalf("edit must exclude the booking's own row: %v", err)
	}
	if got.Arrival != arrival.AddDays(1) {
		t.Fatalf("arrival not updated: %s", got.Arrival)
	}
}

func TestEdit_ReplacesGuestRoster(t *testing.T) {
	store := newFakeStore()
	cmd, _, _ := newServices(store)
	ctx := context.Background()

	in := stay("4er-Zimmer 1", domain.NewDate(2025, time.July, 7), 2)
	in.PartySize = 3
	in.ExtraGuests = []domain.Guest{{Name: "Kind A"}}
	b, _, err := cmd.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	in.ExtraGuests = []domain.Guest{{Name: "Kind B"}, {Name: "Kind C"}}
	got, _, err := cmd.Edit(ctx, b.ID, in)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if len(got.ExtraGuests) != 2 || got.ExtraGuests[0].Name != "Kind B" {
		t.Fatalf("roster not replaced: %+v", got.ExtraGuests)
	}
}

func TestTransition_CheckoutGuardAndHistory(t *testing.T) {
	store := newFakeStore()
	cmd, _, _ := newServices(store)
	ctx := context.Background()

	// departing today so the checkout guard can pass
	in := stay("Doppelzimmer", domain.DateOf(testNow).AddDays(-2), 2)
	b, _, err := cmd.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := cmd.Transition(ctx, b.ID, domain.StatusCheckedIn, "reception"); err != nil {
		t.Fatalf("check in: %v", err)
	}

	// unpaid: guard rejects, no history appended
	before := len(store.history)
	_, err = cmd.Transition(ctx, b.ID, domain.StatusCheckedOut, "reception")
	if domain.AsGuardViolation(err) == nil {
		t.Fatalf("unpaid checkout: want GuardViolation, got %v", err)
	}
	if len(store.history) != before {
		t.Fatal("rejected transition must append nothing")
	}

	// paid: accepted, exactly one new record
	if err := cmd.SetPayment(ctx, b.ID, true, "cash"); err != nil {
		t.Fatalf("set payment: %v", err)
	}
	got, err := cmd.Transition(ctx, b.ID, domain.StatusCheckedOut, "reception")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if got.Status != domain.StatusCheckedOut {
		t.Fatalf("status %s", got.Status)
	}
	if len(store.history) != before+1 {
		t.Fatalf("history grew by %d, want 1", len(store.history)-before)
	}
	last := store.history[len(store.history)-1]
	if last.Status != domain.StatusCheckedOut || last.ChangedBy != "reception" {
		t.Fatalf("unexpected record: %+v", last)
	}
}

func TestGetBooking_CacheMissThenHit(t *testing.T) {
	store := newFakeStore()
	cmd, qry, _ := newServices(store)
	ctx := context.Background()

	b, _, err := cmd.Create(ctx, stay("Doppelzimmer", domain.NewDate(2025, time.July, 7), 2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := qry.GetBooking(ctx, b.ID)
	if err != nil || got.PrimaryGuest.Name != "Anna Muster" {
		t.Fatalf("first read: %+v, %v", got, err)
	}

	// mutate the store under the cache; second read must still be served cached
	mut := store.bookings[b.ID]
	mut.PrimaryGuest.Name = "SHOULD NOT SEE THIS"
	store.bookings[b.ID] = mut

	got2, err := qry.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if got2.PrimaryGuest.Name != "Anna Muster" {
		t.Fatalf("expected cached booking, got %q", got2.PrimaryGuest.Name)
	}
}

func TestOccupancy_Report(t *testing.T) {
	store := newFakeStore()
	cmd, qry, _ := newServices(store)
	ctx := context.Background()
	from := domain.NewDate(2025, time.July, 7)

	if _, _, err := cmd.Create(ctx, stay("4er-Zimmer 1", from, 2)); err != nil {
		t.Fatalf("create: %v", err)
	}

	rep, err := qry.Occupancy(ctx, "4er-Zimmer 2", from, from.AddDays(3))
	if err != nil {
		t.Fatalf("occupancy: %v", err)
	}
	if rep.Pool != "Viererzimmer" || rep.Capacity != 2 {
		t.Fatalf("pool resolution: %+v", rep)
	}
	wantBooked := []int{1, 1, 0}
	for i, d := range rep.Days {
		if d.Booked != wantBooked[i] {
			t.Fatalf("day %s: booked %d, want %d", d.Date, d.Booked, wantBooked[i])
		}
	}
}

func TestPriceQuote_MatchesCalculator(t *testing.T) {
	store := newFakeStore()
	_, qry, _ := newServices(store)

	arrival := domain.NewDate(2025, time.June, 13) // Friday
	child := domain.DateOf(testNow).AddDays(-13 * 365)
	got, err := qry.PriceQuote(context.Background(), app.QuoteInput{
		PrimaryBirthdate: domain.NewDate(1985, time.March, 2),
		ExtraBirthdates:  []*domain.Date{&child},
		Arrival:          arrival,
		Departure:        arrival.AddDays(2),
		Meal:             domain.MealPlan{HalfBoard: true, VegCount: 1},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if got != domain.Cents(43550) {
		t.Fatalf("got %s, want 435.50", got)
	}
}

func TestSearchBookings(t *testing.T) {
	store := newFakeStore()
	cmd, qry, _ := newServices(store)
	ctx := context.Background()

	b, _, err := cmd.Create(ctx, stay("Doppelzimmer", domain.NewDate(2025, time.July, 7), 2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	byName, err := qry.SearchBookings(ctx, "anna")
	if err != nil || len(byName) != 1 {
		t.Fatalf("name search: %v, %d hits", err, len(byName))
	}
	byID, err := qry.SearchBookings(ctx, b.ID)
	if err != nil || len(byID) != 1 {
		t.Fatalf("id search: %v, %d hits", err, len(byID))
	}
}
