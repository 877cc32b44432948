package domain

import (
	"time"

	"github.com/google/uuid"
)

type Ticket struct {
	ID               int64     `json:"ticket_id"`
	Reference        uuid.UUID `json:"reference"`
	PassengerName    string    `json:"passenger_name"`
	PassengerSurname string    `json:"passenger_surname"`
	PassengerEmail   string    `json:"passenger_email"`
	FlightID         int64     `json:"flight_id"`
	SeatID           int64     `json:"seat_id"`
	SeatNumber       string    `json:"seat_number"`
	BookedBy         string    `json:"booked_by"`
	CreatedAt        time.Time `json:"created_at"`
}

type TicketFilter struct {
	BookedBy string
	FlightID int64
}
