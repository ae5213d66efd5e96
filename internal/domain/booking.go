package domain

import (
	"strings"
	"time"
)

// BookingRequest carries everything the settlement flow needs from the
// caller. All fields are required except GuestInfo, which is passed through
// untouched.
type BookingRequest struct {
	HotelID       string
	RoomID        string
	GuestAddress  string
	ArrivalDate   time.Time
	DepartureDate time.Time
	TotalCost     float64 // display units; converted once via ToBaseUnits
	GuestInfo     map[string]string
}

// Validate checks every required field before any network call is made.
// Field order is fixed so the first missing field is reported.
func (r BookingRequest) Validate() error {
	switch {
	case blank(r.HotelID):
		return InvalidField("hotelId")
	case blank(r.RoomID):
		return InvalidField("roomId")
	case blank(r.GuestAddress):
		return InvalidField("guestAddress")
	case r.ArrivalDate.IsZero():
		return InvalidField("arrivalDate")
	case r.DepartureDate.IsZero():
		return InvalidField("departureDate")
	case !r.DepartureDate.After(r.ArrivalDate):
		return InvalidField("departureDate")
	case r.TotalCost <= 0:
		return InvalidField("totalCost")
	}
	return nil
}

// Nights is the stay length in whole nights.
func (r BookingRequest) Nights() int {
	return int(r.DepartureDate.Sub(r.ArrivalDate).Hours() / 24)
}

func blank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "undefined"
}

// Receipt is the ledger's acknowledgement of a settled booking.
type Receipt struct {
	Digest    string
	Status    string
	Timestamp time.Time
}

// Room is the catalog entry fetched from the booking backend, used to
// cross-check the submitted total before touching the ledger.
type Room struct {
	ID           string
	HotelID      string
	NightlyRate  float64 // display units
	Availability bool
}
