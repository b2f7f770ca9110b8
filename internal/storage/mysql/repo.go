package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"frontdesk/internal/domain"
)

// querier is the subset of *sql.DB / *sql.Tx the repo needs, so the same
// methods run inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repo struct {
	db *sql.DB
	q  querier
}

func New(db *sql.DB) *Repo { return &Repo{db: db, q: db} }

// InTx runs fn against a transactional repo. Nested calls reuse the
// surrounding transaction.
func (r *Repo) InTx(ctx context.Context, fn func(domain.BookingStore) error) error {
	if _, already := r.q.(*sql.Tx); already {
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Repo{db: r.db, q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func dateVal(d domain.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Time()
}

func birthdateVal(d *domain.Date) any {
	if d == nil {
		return nil
	}
	return d.Time()
}

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) (string, error) {
	id := uuid.NewString()
	_, err := r.q.ExecContext(ctx, insertBookingSQL,
		id,
		b.PrimaryGuest.Name,
		birthdateVal(b.PrimaryGuest.Birthdate),
		b.Room,
		b.PartySize,
		dateVal(b.Arrival),
		dateVal(b.Departure),
		b.Meal.HalfBoard,
		b.Meal.MeatCount,
		b.Meal.VegCount,
		b.Contact.Email,
		b.Contact.Phone,
		string(b.Status),
		b.Address.Street,
		b.Address.PostalCode,
		b.Address.City,
		b.Address.Country,
		b.Notes,
		b.PaymentStatus,
		b.PaymentMethod,
	)
	if err != nil {
		return "", err
	}
	if err := r.insertGuests(ctx, id, b.ExtraGuests); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateBooking rewrites the row and replaces the guest roster wholesale;
// guest identity never survives an edit.
func (r *Repo) UpdateBooking(ctx context.Context, b domain.Booking) error {
	res, err := r.q.ExecContext(ctx, updateBookingSQL,
		b.PrimaryGuest.Name,
		birthdateVal(b.PrimaryGuest.Birthdate),
		b.Room,
		b.PartySize,
		dateVal(b.Arrival),
		dateVal(b.Departure),
		b.Meal.HalfBoard,
		b.Meal.MeatCount,
		b.Meal.VegCount,
		b.Contact.Email,
		b.Contact.Phone,
		b.Address.Street,
		b.Address.PostalCode,
		b.Address.City,
		b.Address.Country,
		b.Notes,
		b.PaymentMethod,
		b.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if !r.bookingExists(ctx, b.ID) {
			return domain.ErrNotFound
		}
	}
	if _, err := r.q.ExecContext(ctx, deleteGuestsSQL, b.ID); err != nil {
		return err
	}
	return r.insertGuests(ctx, b.ID, b.ExtraGuests)
}

func (r *Repo) bookingExists(ctx context.Context, id string) bool {
	var one int
	err := r.q.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, id).Scan(&one)
	return err == nil
}

func (r *Repo) insertGuests(ctx context.Context, bookingID string, guests []domain.Guest) error {
	if len(guests) == 0 {
		return nil
	}
	values := make([]string, 0, len(guests))
	args := make([]any, 0, len(guests)*3)
	for _, g := range guests {
		values = append(values, "(?,?,?)")
		args = append(args, bookingID, g.Name, birthdateVal(g.Birthdate))
	}
	_, err := r.q.ExecContext(ctx, insertGuestsPrefix+strings.Join(values, ","), args...)
	return err
}

func (r *Repo) UpdateStatus(ctx context.Context, id string, s domain.Status) error {
	res, err := r.q.ExecContext(ctx, updateStatusSQL, string(s), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 && !r.bookingExists(ctx, id) {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) UpdatePayment(ctx context.Context, id string, paid bool, method string) error {
	res, err := r.q.ExecContext(ctx, updatePaymentSQL, paid, method, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 && !r.bookingExists(ctx, id) {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteBooking(ctx context.Context, id string) error {
	if _, err := r.q.ExecContext(ctx, deleteGuestsSQL, id); err != nil {
		return err
	}
	if _, err := r.q.ExecContext(ctx, deleteHistorySQL, id); err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, deleteBookingSQL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) AppendHistory(ctx context.Context, rec domain.HistoryRecord) error {
	_, err := r.q.ExecContext(ctx, insertHistorySQL,
		rec.BookingID, string(rec.Status), rec.ChangedAt, rec.ChangedBy)
	return err
}

func (r *Repo) ListHistory(ctx context.Context, id string) ([]domain.HistoryRecord, error) {
	rows, err := r.q.QueryContext(ctx, listHistorySQL, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		var status string
		if err := rows.Scan(&rec.BookingID, &status, &rec.ChangedAt, &rec.ChangedBy); err != nil {
			return nil, err
		}
		rec.Status = domain.Status(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repo) scanBooking(scan func(dest ...any) error) (domain.Booking, error) {
	var b domain.Booking
	var (
		birthdate          sql.NullTime
		arrival, departure sql.NullTime
		status             string
	)
	if err := scan(
		&b.ID,
		&b.PrimaryGuest.Name,
		&birthdate,
		&b.Room,
		&b.PartySize,
		&arrival,
		&departure,
		&b.Meal.HalfBoard,
		&b.Meal.MeatCount,
		&b.Meal.VegCount,
		&b.Contact.Email,
		&b.Contact.Phone,
		&status,
		&b.Address.Street,
		&b.Address.PostalCode,
		&b.Address.City,
		&b.Address.Country,
		&b.Notes,
		&b.PaymentStatus,
		&b.PaymentMethod,
	); err != nil {
		return domain.Booking{}, err
	}
	if birthdate.Valid {
		d := domain.DateOf(birthdate.Time)
		b.PrimaryGuest.Birthdate = &d
	}
	if arrival.Valid {
		b.Arrival = domain.DateOf(arrival.Time)
	}
	if departure.Valid {
		b.Departure = domain.DateOf(departure.Time)
	}
	b.Status = domain.Status(status)
	return b, nil
}

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	row := r.q.QueryRowContext(ctx, getBookingSQL, id)
	b, err := r.scanBooking(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, err
	}

	guests, err := r.listGuests(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	b.ExtraGuests = guests
	return b, nil
}

func (r *Repo) listGuests(ctx context.Context, bookingID string) ([]domain.Guest, error) {
	rows, err := r.q.QueryContext(ctx, listGuestsSQL, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Guest
	for rows.Next() {
		var g domain.Guest
		var bd sql.NullTime
		if err := rows.Scan(&g.Name, &bd); err != nil {
			return nil, err
		}
		if bd.Valid {
			d := domain.DateOf(bd.Time)
			g.Birthdate = &d
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repo) SearchBookings(ctx context.Context, q string) ([]domain.Booking, error) {
	pat := "%" + strings.ToLower(q) + "%"
	rows, err := r.q.QueryContext(ctx, searchBookingsSQL, pat, pat)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := r.scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// attach rosters after the result set is closed; MySQL connections do not
	// interleave queries on one conn
	for i := range out {
		guests, err := r.listGuests(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].ExtraGuests = guests
	}
	return out, nil
}

func (r *Repo) GetRoom(ctx context.Context, name string) (domain.RoomCategory, error) {
	var rc domain.RoomCategory
	err := r.q.QueryRowContext(ctx, getRoomSQL, name).Scan(&rc.Name, &rc.GroupKey, &rc.Capacity)
	if err == sql.ErrNoRows {
		return domain.RoomCategory{}, domain.ErrNotFound
	}
	return rc, err
}

func (r *Repo) ListRooms(ctx context.Context) ([]domain.RoomCategory, error) {
	rows, err := r.q.QueryContext(ctx, listRoomsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoomCategory
	for rows.Next() {
		var rc domain.RoomCategory
		if err := rows.Scan(&rc.Name, &rc.GroupKey, &rc.Capacity); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func (r *Repo) ListWindows(ctx context.Context, rooms []string) ([]domain.BookingWindow, error) {
	if len(rooms) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(rooms)), ",")
	args := make([]any, len(rooms))
	for i, rm := range rooms {
		args[i] = rm
	}
	rows, err := r.q.QueryContext(ctx, fmt.Sprintf(listWindowsSQL, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BookingWindow
	for rows.Next() {
		var w domain.BookingWindow
		var arrival, departure sql.NullTime
		var status string
		if err := rows.Scan(&w.BookingID, &w.Room, &arrival, &departure, &status); err != nil {
			return nil, err
		}
		if arrival.Valid {
			w.Arrival = domain.DateOf(arrival.Time)
		}
		if departure.Valid {
			w.Departure = domain.DateOf(departure.Time)
		}
		w.Status = domain.Status(status)
		out = append(out, w)
	}
	return out, rows.Err()
}

// Rate tables start from the built-in defaults; seeded rows override per
// category, so a partially populated prices table still yields a usable
// configuration.

func (r *Repo) LoadRateTable(ctx context.Context) (domain.RateTable, error) {
	t := domain.DefaultRateTable()
	rows, err := r.q.QueryContext(ctx, loadRatesSQL)
	if err != nil {
		return t, err
	}
	defer rows.Close()

	for rows.Next() {
		var cat string
		var weekend, weekday float64
		if err := rows.Scan(&cat, &weekend, &weekday); err != nil {
			return t, err
		}
		nr := domain.NightlyRate{
			Weekend: domain.MoneyFromFloat(weekend),
			Weekday: domain.MoneyFromFloat(weekday),
		}
		switch cat {
		case "adult":
			t.Adult = nr
		case "child":
			t.Child = nr
		}
	}
	return t, rows.Err()
}

func (r *Repo) LoadTaxTable(ctx context.Context) (domain.TaxTable, error) {
	t := domain.DefaultTaxTable()
	rows, err := r.q.QueryContext(ctx, loadTaxSQL)
	if err != nil {
		return t, err
	}
	defer rows.Close()

	for rows.Next() {
		var cat string
		var tax float64
		if err := rows.Scan(&cat, &tax); err != nil {
			return t, err
		}
		switch cat {
		case "adult":
			t.Adult = domain.MoneyFromFloat(tax)
		case "child":
			t.Child = domain.MoneyFromFloat(tax)
		}
	}
	return t, rows.Err()
}

func (r *Repo) LoadDinnerTable(ctx context.Context) (domain.DinnerTable, error) {
	t := domain.DefaultDinnerTable()
	rows, err := r.q.QueryContext(ctx, loadDinnerSQL)
	if err != nil {
		return t, err
	}
	defer rows.Close()

	for rows.Next() {
		var cat string
		var price float64
		if err := rows.Scan(&cat, &price); err != nil {
			return t, err
		}
		switch cat {
		case "adult":
			t.Adult = domain.MoneyFromFloat(price)
		case "child":
			t.Child = domain.MoneyFromFloat(price)
		}
	}
	return t, rows.Err()
}
