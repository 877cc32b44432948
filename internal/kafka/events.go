package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/google/uuid"
)

const (
	EventTicketPurchased = "ticket_purchased"
	EventTicketCancelled = "ticket_cancelled"
)

// TicketEvent is the message published on the notifications topic.
type TicketEvent struct {
	Type             string    `json:"type"`
	EventID          uuid.UUID `json:"event_id"`
	TicketID         int64     `json:"ticket_id"`
	Reference        uuid.UUID `json:"reference"`
	FlightID         int64     `json:"flight_id"`
	SeatNumber       string    `json:"seat_number"`
	PassengerName    string    `json:"passenger_name"`
	PassengerSurname string    `json:"passenger_surname"`
	Email            string    `json:"email"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func NewTicketEvent(eventType string, t domain.Ticket) TicketEvent {
	return TicketEvent{
		Type:             eventType,
		EventID:          uuid.New(),
		TicketID:         t.ID,
		Reference:        t.Reference,
		FlightID:         t.FlightID,
		SeatNumber:       t.SeatNumber,
		PassengerName:    t.PassengerName,
		PassengerSurname: t.PassengerSurname,
		Email:            t.PassengerEmail,
		OccurredAt:       time.Now().UTC(),
	}
}

// Key partitions events by ticket.
func (e TicketEvent) Key() string {
	return strconv.FormatInt(e.TicketID, 10)
}

func DecodeTicketEvent(data []byte) (TicketEvent, error) {
	var e TicketEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return TicketEvent{}, fmt.Errorf("decode ticket event: %w", err)
	}
	if e.Type == "" {
		return TicketEvent{}, fmt.Errorf("decode ticket event: missing type")
	}
	return e, nil
}
