package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"frontdesk/internal/adapters/observability"
	"frontdesk/internal/app"
	"frontdesk/internal/domain"
)

type Handlers struct {
	C *app.BookingService
	Q *app.QueryService
}

type problem struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Post("/v1/bookings", h.createBooking)
	s.mux.Get("/v1/bookings", h.searchBookings)
	s.mux.Get("/v1/bookings/{id}", h.getBooking)
	s.mux.Put("/v1/bookings/{id}", h.editBooking)
	s.mux.Delete("/v1/bookings/{id}", h.deleteBooking)
	s.mux.Post("/v1/bookings/{id}/status", h.changeStatus)
	s.mux.Post("/v1/bookings/{id}/payment", h.setPayment)
	s.mux.Get("/v1/bookings/{id}/history", h.history)

	s.mux.Get("/v1/rooms/{name}/occupancy", h.occupancy)
	s.mux.Get("/v1/rooms/{name}/availability", h.availability)
	s.mux.Post("/v1/quotes", h.quote)
}

// ---- request/response shapes ----

type guestJSON struct {
	Name      string `json:"name"`
	Birthdate string `json:"birthdate,omitempty"`
}

type stayRequest struct {
	PrimaryName      string      `json:"primaryName"`
	PrimaryBirthdate string      `json:"primaryBirthdate"`
	Guests           []guestJSON `json:"guests"`
	Room             string      `json:"room"`
	PartySize        int         `json:"partySize"`
	Arrival          string      `json:"arrival"`
	Departure        string      `json:"departure"`
	HalfBoard        bool        `json:"halfBoard"`
	MeatCount        int         `json:"meatCount"`
	VegCount         int         `json:"vegCount"`
	Email            string      `json:"email"`
	Phone            string      `json:"phone"`
	Street           string      `json:"street"`
	PostalCode       string      `json:"postalCode"`
	City             string      `json:"city"`
	Country          string      `json:"country"`
	Notes            string      `json:"notes"`
	PaymentMethod    string      `json:"paymentMethod"`
}

// toInput maps the wire form onto the service input. Malformed dates surface
// as a ValidationError here, at the decode boundary — never as a zero price.
func (req stayRequest) toInput() (app.StayInput, error) {
	ve := domain.NewValidationError()

	parse := func(field, s string) domain.Date {
		if s == "" {
			ve.Add(field, "is required")
			return domain.Date{}
		}
		d, err := domain.ParseDate(s)
		if err != nil {
			ve.Add(field, "must be a date in YYYY-MM-DD form")
		}
		return d
	}

	in := app.StayInput{
		PrimaryName:      req.PrimaryName,
		PrimaryBirthdate: parse("primaryBirthdate", req.PrimaryBirthdate),
		Room:             req.Room,
		PartySize:        req.PartySize,
		Arrival:          parse("arrival", req.Arrival),
		Departure:        parse("departure", req.Departure),
		Meal:             domain.MealPlan{HalfBoard: req.HalfBoard, MeatCount: req.MeatCount, VegCount: req.VegCount},
		Contact:          domain.Contact{Email: req.Email, Phone: req.Phone},
		Address:          domain.Address{Street: req.Street, PostalCode: req.PostalCode, City: req.City, Country: req.Country},
		Notes:            req.Notes,
		PaymentMethod:    req.PaymentMethod,
	}
	for _, g := range req.Guests {
		guest := domain.Guest{Name: g.Name}
		if g.Birthdate != "" {
			d, err := domain.ParseDate(g.Birthdate)
			if err != nil {
				ve.Add("guests", "guest birthdates must be dates in YYYY-MM-DD form")
			} else {
				guest.Birthdate = &d
			}
		}
		in.ExtraGuests = append(in.ExtraGuests, guest)
	}
	if !ve.Empty() {
		return app.StayInput{}, ve
	}
	return in, nil
}

type bookingResponse struct {
	ID            string        `json:"id"`
	PrimaryGuest  guestJSON     `json:"primaryGuest"`
	Guests        []guestJSON   `json:"guests,omitempty"`
	Room          string        `json:"room"`
	PartySize     int           `json:"partySize"`
	Arrival       domain.Date   `json:"arrival"`
	Departure     domain.Date   `json:"departure"`
	HalfBoard     bool          `json:"halfBoard"`
	MeatCount     int           `json:"meatCount"`
	VegCount      int           `json:"vegCount"`
	Status        string        `json:"status"`
	Email         string        `json:"email,omitempty"`
	Phone         string        `json:"phone,omitempty"`
	Street        string        `json:"street,omitempty"`
	PostalCode    string        `json:"postalCode,omitempty"`
	City          string        `json:"city,omitempty"`
	Country       string        `json:"country,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	PaymentStatus bool          `json:"paymentStatus"`
	PaymentMethod string        `json:"paymentMethod,omitempty"`
	Price         *domain.Money `json:"price,omitempty"`
}

func toBookingResponse(b domain.Booking, price *domain.Money) bookingResponse {
	resp := bookingResponse{
		ID:            b.ID,
		PrimaryGuest:  guestJSON{Name: b.PrimaryGuest.Name},
		Room:          b.Room,
		PartySize:     b.PartySize,
		Arrival:       b.Arrival,
		Departure:     b.Departure,
		HalfBoard:     b.Meal.HalfBoard,
		MeatCount:     b.Meal.MeatCount,
		VegCount:      b.Meal.VegCount,
		Status:        string(b.Status),
		Email:         b.Contact.Email,
		Phone:         b.Contact.Phone,
		Street:        b.Address.Street,
		PostalCode:    b.Address.PostalCode,
		City:          b.Address.City,
		Country:       b.Address.Country,
		Notes:         b.Notes,
		PaymentStatus: b.PaymentStatus,
		PaymentMethod: b.PaymentMethod,
		Price:         price,
	}
	if b.PrimaryGuest.Birthdate != nil {
		resp.PrimaryGuest.Birthdate = b.PrimaryGuest.Birthdate.String()
	}
	for _, g := range b.ExtraGuests {
		gj := guestJSON{Name: g.Name}
		if g.Birthdate != nil {
			gj.Birthdate = g.Birthdate.String()
		}
		resp.Guests = append(resp.Guests, gj)
	}
	return resp
}

// ---- error and body plumbing ----

func writeProblem(w http.ResponseWriter, status int, title, detail string, fields map[string][]string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Errors: fields}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the core's error taxonomy onto HTTP statuses and returns a
// metric outcome label.
func writeError(w http.ResponseWriter, err error) string {
	if ve := domain.AsValidationError(err); ve != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid input", "", ve.Fields())
		return "validation"
	}
	if ce := domain.AsCapacityExceeded(err); ce != nil {
		writeProblem(w, http.StatusConflict, "No capacity", ce.Error(), nil)
		return "capacity"
	}
	if gv := domain.AsGuardViolation(err); gv != nil {
		writeProblem(w, http.StatusConflict, "Illegal status change", gv.Error(), nil)
		return "guard"
	}
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "booking or room not found", nil)
		return "not_found"
	}
	log.Error().Err(err).Msg("request failed")
	writeProblem(w, http.StatusInternalServerError, "Internal error", "", nil)
	return "error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// ---- handlers ----

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req stayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), nil)
		observability.ObserveBooking("create", "validation")
		return
	}
	in, err := req.toInput()
	if err != nil {
		observability.ObserveBooking("create", writeError(w, err))
		return
	}
	b, price, err := h.C.Create(r.Context(), in)
	if err != nil {
		observability.ObserveBooking("create", writeError(w, err))
		return
	}
	observability.ObserveBooking("create", "ok")
	writeJSON(w, http.StatusCreated, toBookingResponse(b, &price))
}

func (h *Handlers) editBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req stayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), nil)
		observability.ObserveBooking("edit", "validation")
		return
	}
	in, err := req.toInput()
	if err != nil {
		observability.ObserveBooking("edit", writeError(w, err))
		return
	}
	b, price, err := h.C.Edit(r.Context(), id, in)
	if err != nil {
		observability.ObserveBooking("edit", writeError(w, err))
		return
	}
	observability.ObserveBooking("edit", "ok")
	writeJSON(w, http.StatusOK, toBookingResponse(b, &price))
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Q.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeWithETag(w, r, toBookingResponse(b, nil))
}

func (h *Handlers) searchBookings(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Q.SearchBookings(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]bookingResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBookingResponse(b, nil))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) deleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.C.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		observability.ObserveBooking("delete", writeError(w, err))
		return
	}
	observability.ObserveBooking("delete", "ok")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) changeStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
		Actor  string `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), nil)
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid status", err.Error(), nil)
		observability.ObserveBooking("status", "validation")
		return
	}
	b, err := h.C.Transition(r.Context(), chi.URLParam(r, "id"), status, req.Actor)
	if err != nil {
		observability.ObserveBooking("status", writeError(w, err))
		return
	}
	observability.ObserveBooking("status", "ok")
	writeJSON(w, http.StatusOK, toBookingResponse(b, nil))
}

func (h *Handlers) setPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paid   bool   `json:"paid"`
		Method string `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), nil)
		return
	}
	if err := h.C.SetPayment(r.Context(), chi.URLParam(r, "id"), req.Paid, req.Method); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) history(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Q.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func parseRange(r *http.Request) (domain.Date, domain.Date, error) {
	ve := domain.NewValidationError()
	from, err := domain.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		ve.Add("from", "must be a date in YYYY-MM-DD form")
	}
	to, err := domain.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		ve.Add("to", "must be a date in YYYY-MM-DD form")
	}
	if !ve.Empty() {
		return domain.Date{}, domain.Date{}, ve
	}
	return from, to, nil
}

func (h *Handlers) occupancy(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rep, err := h.Q.Occupancy(r.Context(), chi.URLParam(r, "name"), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeWithETag(w, r, rep)
}

func (h *Handlers) availability(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	err = h.Q.CheckAvailability(r.Context(), chi.URLParam(r, "name"), from, to, r.URL.Query().Get("exclude"))
	if ce := domain.AsCapacityExceeded(err); ce != nil {
		writeJSON(w, http.StatusOK, map[string]any{"available": false, "pool": ce.Pool, "booked": ce.Booked, "capacity": ce.Capacity})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": true})
}

func (h *Handlers) quote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PrimaryBirthdate string   `json:"primaryBirthdate"`
		GuestBirthdates  []string `json:"guestBirthdates"`
		Arrival          string   `json:"arrival"`
		Departure        string   `json:"departure"`
		HalfBoard        bool     `json:"halfBoard"`
		MeatCount        int      `json:"meatCount"`
		VegCount         int      `json:"vegCount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), nil)
		return
	}

	ve := domain.NewValidationError()
	in := app.QuoteInput{
		Meal: domain.MealPlan{HalfBoard: req.HalfBoard, MeatCount: req.MeatCount, VegCount: req.VegCount},
	}
	var err error
	if in.PrimaryBirthdate, err = domain.ParseDate(req.PrimaryBirthdate); err != nil {
		ve.Add("primaryBirthdate", "must be a date in YYYY-MM-DD form")
	}
	if in.Arrival, err = domain.ParseDate(req.Arrival); err != nil {
		ve.Add("arrival", "must be a date in YYYY-MM-DD form")
	}
	if in.Departure, err = domain.ParseDate(req.Departure); err != nil {
		ve.Add("departure", "must be a date in YYYY-MM-DD form")
	}
	for _, s := range req.GuestBirthdates {
		if s == "" {
			in.ExtraBirthdates = append(in.ExtraBirthdates, nil)
			continue
		}
		d, err := domain.ParseDate(s)
		if err != nil {
			ve.Add("guestBirthdates", "must be dates in YYYY-MM-DD form")
			continue
		}
		in.ExtraBirthdates = append(in.ExtraBirthdates, &d)
	}
	if !ve.Empty() {
		writeError(w, ve)
		return
	}

	price, err := h.Q.PriceQuote(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": price})
}
