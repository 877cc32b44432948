package domain

import "strconv"

type Seat struct {
	ID         int64  `json:"seat_id"`
	FlightID   int64  `json:"flight_id"`
	SeatNumber string `json:"seat_number"`
	IsBooked   bool   `json:"is_booked"`
}

// SeatLabel renders the sequential label given to the n-th seat of a flight.
func SeatLabel(n int) string {
	return strconv.Itoa(n)
}
