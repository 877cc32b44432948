package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Flight struct {
	ID             int64           `json:"flight_id"`
	FromCity       int64           `json:"from_city"`
	ToCity         int64           `json:"to_city"`
	FromCityName   string          `json:"from_city_name,omitempty"`
	ToCityName     string          `json:"to_city_name,omitempty"`
	DepartureTime  time.Time       `json:"departure_time"`
	ArrivalTime    time.Time       `json:"arrival_time"`
	Price          decimal.Decimal `json:"price"`
	SeatsTotal     int             `json:"seats_total"`
	SeatsAvailable int             `json:"seats_available"`
	Seats          []Seat          `json:"seats,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// FlightDetails holds the admin-editable fields of a flight.
type FlightDetails struct {
	FromCity      int64
	ToCity        int64
	DepartureTime time.Time
	ArrivalTime   time.Time
	Price         decimal.Decimal
	SeatsTotal    int
}

type FlightFilter struct {
	Origin      *int64
	Destination *int64
	Date        *time.Time
}

// Validate checks the fields a flight cannot be stored without.
func (d FlightDetails) Validate() error {
	v := &ValidationError{}
	if d.FromCity <= 0 {
		v.Add("from_city", "is required")
	}
	if d.ToCity <= 0 {
		v.Add("to_city", "is required")
	}
	if d.DepartureTime.IsZero() {
		v.Add("departure_time", "is required")
	}
	if d.ArrivalTime.IsZero() {
		v.Add("arrival_time", "is required")
	}
	if d.Price.IsNegative() {
		v.Add("price", "must not be negative")
	}
	if d.SeatsTotal < 0 {
		v.Add("seats_total", "must not be negative")
	}
	if v.Empty() {
		return nil
	}
	return v
}
