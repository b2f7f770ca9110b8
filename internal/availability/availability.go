// Package availability decides whether a room's capacity pool has a free slot
// for a requested date range. The check is pure: the caller loads the
// existing windows (inside a store transaction when it intends to write) and
// the checker only counts overlaps.
package availability

import (
	"frontdesk/internal/domain"
	"frontdesk/internal/pricing"
)

// Pool is a set of rooms that share occupancy. Capacity is the number of
// concurrent stays the pool can host: each booking takes a whole room, so a
// pooled pair of Viererzimmer hosts two overlapping stays, a standalone
// Doppelzimmer one.
type Pool struct {
	Key      string
	Rooms    []string
	Capacity int
}

func (p Pool) Contains(room string) bool {
	for _, r := range p.Rooms {
		if r == room {
			return true
		}
	}
	return false
}

// PoolFor resolves the capacity pool a room belongs to. With pooling enabled,
// every room sharing the GroupKey joins the pool; disabled, the room stands
// alone. Pooling is a configuration variant, not a universal rule.
func PoolFor(room domain.RoomCategory, all []domain.RoomCategory, pooled bool) Pool {
	if !pooled || room.GroupKey == "" || room.GroupKey == room.Name {
		return Pool{Key: room.Name, Rooms: []string{room.Name}, Capacity: 1}
	}
	p := Pool{Key: room.GroupKey}
	for _, rc := range all {
		if rc.GroupKey == room.GroupKey {
			p.Rooms = append(p.Rooms, rc.Name)
			p.Capacity++
		}
	}
	if p.Capacity == 0 {
		p.Rooms = []string{room.Name}
		p.Capacity = 1
	}
	return p
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share a night.
// Half-open ranges make same-day turnover legal: a stay departing on the day
// another arrives does not overlap it.
func Overlaps(aStart, aEnd, bStart, bEnd domain.Date) bool {
	return !(!aEnd.After(bStart) || !aStart.Before(bEnd))
}

// CheckRoom returns nil when the pool still has a free slot for
// [arrival, departure), CapacityExceeded when it does not, and a
// ValidationError for inverted or empty ranges. Cancelled bookings never
// occupy a slot. excludeID skips a booking's own prior window so that editing
// its dates does not collide with itself; pass "" for new bookings.
func CheckRoom(pool Pool, arrival, departure domain.Date, existing []domain.BookingWindow, excludeID string) error {
	if err := pricing.ValidateStayDates(arrival, departure); err != nil {
		return err
	}
	booked := 0
	for _, w := range existing {
		if w.Status == domain.StatusCancelled {
			continue
		}
		if excludeID != "" && w.BookingID == excludeID {
			continue
		}
		if !pool.Contains(w.Room) {
			continue
		}
		if Overlaps(w.Arrival, w.Departure, arrival, departure) {
			booked++
		}
	}
	if booked >= pool.Capacity {
		return &domain.CapacityExceeded{Pool: pool.Key, Capacity: pool.Capacity, Booked: booked}
	}
	return nil
}

// DayCount is one day of an occupancy report.
type DayCount struct {
	Date     domain.Date
	Booked   int
	Capacity int
}

// DailyCounts walks [from, to) and counts the pool's occupied slots per day,
// the series behind the occupancy calendar and the nightly report.
func DailyCounts(pool Pool, from, to domain.Date, existing []domain.BookingWindow) []DayCount {
	var out []DayCount
	for d := from; d.Before(to); d = d.AddDays(1) {
		c := DayCount{Date: d, Capacity: pool.Capacity}
		for _, w := range existing {
			if w.Status == domain.StatusCancelled || !pool.Contains(w.Room) {
				continue
			}
			if Overlaps(w.Arrival, w.Departure, d, d.AddDays(1)) {
				c.Booked++
			}
		}
		out = append(out, c)
	}
	return out
}
