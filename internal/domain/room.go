package domain

// RoomCategory is immutable reference data for one bookable room. GroupKey
// groups physically distinct rooms ("4er-Zimmer 1"/"4er-Zimmer 2") that share
// a capacity pool; a room whose GroupKey equals its own name stands alone.
// Capacity is the number of persons the room sleeps and bounds PartySize.
type RoomCategory struct {
	Name     string
	GroupKey string
	Capacity int
}
