package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/Domenick1991/flightticket/internal/kafka"
	"github.com/Domenick1991/flightticket/internal/metrics"
	"github.com/Domenick1991/flightticket/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	Purchase(ctx context.Context, input PurchaseInput) (*domain.Ticket, error)
	Cancel(ctx context.Context, ticketID int64) (*domain.Ticket, error)
	ResizeFlight(ctx context.Context, flightID int64, details domain.FlightDetails) (*domain.Flight, error)
	ReconcileAll(ctx context.Context) ([]int64, error)
	ListTickets(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error)
	GetTicket(ctx context.Context, id int64) (*domain.Ticket, error)
}

// Notifier receives committed ticket changes.
type Notifier interface {
	Notify(eventType string, ticket domain.Ticket)
}

type FlightsCache interface {
	InvalidateFlights(ctx context.Context) error
}

// emailCheck applies the rule the HTTP binding uses for passenger_email.
var emailCheck = validator.New()

type PurchaseInput struct {
	PassengerName    string
	PassengerSurname string
	PassengerEmail   string
	FlightID         int64
	SeatNumber       string
	BookedBy         string
}

func (in PurchaseInput) Validate() error {
	v := &domain.ValidationError{}
	if strings.TrimSpace(in.PassengerName) == "" {
		v.Add("passenger_name", "is required")
	}
	if strings.TrimSpace(in.PassengerSurname) == "" {
		v.Add("passenger_surname", "is required")
	}
	if email := strings.TrimSpace(in.PassengerEmail); email == "" {
		v.Add("passenger_email", "is required")
	} else if emailCheck.Var(email, "email") != nil {
		v.Add("passenger_email", "must be a valid email address")
	}
	if in.FlightID <= 0 {
		v.Add("flight_id", "must be positive")
	}
	if in.SeatNumber == "" {
		v.Add("seat_number", "is required")
	}
	if v.Empty() {
		return nil
	}
	return v
}

// Transactor runs every seat-changing operation as one database transaction
// that starts by locking the flight row. seats_available is only written by
// recounting free seats inside that same transaction.
type Transactor struct {
	tx       repository.TxManager
	flights  repository.FlightRepository
	seats    repository.SeatLedger
	tickets  repository.TicketRepository
	notifier Notifier
	cache    FlightsCache
}

type Option func(*Transactor)

func WithNotifier(n Notifier) Option {
	return func(t *Transactor) {
		t.notifier = n
	}
}

func WithFlightsCache(c FlightsCache) Option {
	return func(t *Transactor) {
		t.cache = c
	}
}

func NewTransactor(
	tx repository.TxManager,
	flights repository.FlightRepository,
	seats repository.SeatLedger,
	tickets repository.TicketRepository,
	opts ...Option,
) *Transactor {
	t := &Transactor{
		tx:      tx,
		flights: flights,
		seats:   seats,
		tickets: tickets,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transactor) Purchase(ctx context.Context, input PurchaseInput) (*domain.Ticket, error) {
	started := time.Now()
	ticket, err := t.purchase(ctx, input)
	metrics.ObserveBooking("purchase", started, err)
	if err != nil {
		return nil, err
	}

	slog.Info("ticket purchased", "ticket_id", ticket.ID, "flight_id", ticket.FlightID, "seat", ticket.SeatNumber)
	t.afterCommit(ctx, kafka.EventTicketPurchased, ticket)
	return ticket, nil
}

func (t *Transactor) purchase(ctx context.Context, input PurchaseInput) (*domain.Ticket, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var ticket *domain.Ticket
	err := t.tx.WithinTx(ctx, func(ctx context.Context, q repository.Querier) error {
		if _, err := t.flights.LockForUpdate(ctx, q, input.FlightID); err != nil {
			return err
		}

		seat, err := t.seats.FindSeat(ctx, q, input.FlightID, input.SeatNumber)
		if err != nil {
			return err
		}
		if seat.IsBooked {
			return &domain.SeatAlreadyBookedError{FlightID: input.FlightID, Label: seat.SeatNumber}
		}
		if err := t.seats.MarkBooked(ctx, q, seat.ID); err != nil {
			return err
		}

		created := &domain.Ticket{
			Reference:        uuid.New(),
			PassengerName:    strings.TrimSpace(input.PassengerName),
			PassengerSurname: strings.TrimSpace(input.PassengerSurname),
			PassengerEmail:   strings.TrimSpace(input.PassengerEmail),
			FlightID:         input.FlightID,
			SeatID:           seat.ID,
			SeatNumber:       seat.SeatNumber,
			BookedBy:         input.BookedBy,
		}
		if err := t.tickets.Create(ctx, q, created); err != nil {
			return err
		}

		if _, err := t.recount(ctx, q, input.FlightID); err != nil {
			return err
		}
		ticket = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// ResizeFlight writes the new flight details and grows or shrinks the seat
// pool to the new total. Shrinking removes labels from the highest down and
// fails with SeatBookedError on the first booked seat, leaving the flight
// untouched.
func (t *Transactor) ResizeFlight(ctx context.Context, flightID int64, details domain.FlightDetails) (*domain.Flight, error) {
	started := time.Now()
	err := t.resize(ctx, flightID, details)
	metrics.ObserveBooking("resize", started, err)
	if err != nil {
		return nil, err
	}

	t.invalidate(ctx)
	return t.flights.GetByID(ctx, flightID)
}

func (t *Transactor) resize(ctx context.Context, flightID int64, details domain.FlightDetails) error {
	if err := details.Validate(); err != nil {
		return err
	}

	return t.tx.WithinTx(ctx, func(ctx context.Context, q repository.Querier) error {
		current, err := t.flights.LockForUpdate(ctx, q, flightID)
		if err != nil {
			return err
		}

		if err := t.updateDetails(ctx, q, flightID, details); err != nil {
			return err
		}
		if err := t.reconcileSeats(ctx, q, flightID, current.SeatsTotal, details.SeatsTotal); err != nil {
			return err
		}

		available, err := t.recount(ctx, q, flightID)
		if err != nil {
			return err
		}
		slog.Info("flight resized", "flight_id", flightID,
			"seats_total_before", current.SeatsTotal, "seats_total", details.SeatsTotal, "seats_available", available)
		return nil
	})
}

func (t *Transactor) updateDetails(ctx context.Context, q repository.Querier, flightID int64, details domain.FlightDetails) error {
	return t.flights.UpdateDetails(ctx, q, flightID, details)
}

func (t *Transactor) reconcileSeats(ctx context.Context, q repository.Querier, flightID int64, oldTotal, newTotal int) error {
	switch {
	case newTotal > oldTotal:
		return t.seats.AddSeats(ctx, q, flightID, oldTotal+1, newTotal)
	case newTotal < oldTotal:
		for n := oldTotal; n > newTotal; n-- {
			err := t.seats.RemoveSeat(ctx, q, flightID, domain.SeatLabel(n))
			if errors.Is(err, domain.ErrNotFound) {
				// already gone, nothing to remove
				continue
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Transactor) Cancel(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	started := time.Now()
	ticket, err := t.cancel(ctx, ticketID)
	metrics.ObserveBooking("cancel", started, err)
	if err != nil {
		return nil, err
	}

	slog.Info("ticket cancelled", "ticket_id", ticket.ID, "flight_id", ticket.FlightID, "seat", ticket.SeatNumber)
	t.afterCommit(ctx, kafka.EventTicketCancelled, ticket)
	return ticket, nil
}

func (t *Transactor) cancel(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	var cancelled *domain.Ticket
	err := t.tx.WithinTx(ctx, func(ctx context.Context, q repository.Querier) error {
		ticket, err := t.tickets.Find(ctx, q, ticketID)
		if err != nil {
			return err
		}
		if _, err := t.flights.LockForUpdate(ctx, q, ticket.FlightID); err != nil {
			return err
		}

		// a concurrent cancel that won the lock leaves nothing to delete here
		if err := t.tickets.Delete(ctx, q, ticketID); err != nil {
			return err
		}
		if err := t.seats.MarkFree(ctx, q, ticket.SeatID); err != nil {
			return err
		}
		if _, err := t.recount(ctx, q, ticket.FlightID); err != nil {
			return err
		}
		cancelled = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// ReconcileAll rewrites seats_available of every flight whose stored counter
// no longer matches its free seats. It returns the ids it repaired.
func (t *Transactor) ReconcileAll(ctx context.Context) ([]int64, error) {
	started := time.Now()
	repaired, err := t.reconcileAll(ctx)
	metrics.ObserveBooking("reconcile", started, err)
	metrics.AddReconciled(len(repaired))
	if len(repaired) > 0 {
		t.invalidate(ctx)
	}
	return repaired, err
}

func (t *Transactor) reconcileAll(ctx context.Context) ([]int64, error) {
	ids, err := t.flights.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	repaired := make([]int64, 0)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}

		fixed, err := t.reconcileFlight(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return repaired, err
		}
		if fixed {
			repaired = append(repaired, id)
		}
	}
	return repaired, nil
}

func (t *Transactor) reconcileFlight(ctx context.Context, flightID int64) (bool, error) {
	var fixed bool
	err := t.tx.WithinTx(ctx, func(ctx context.Context, q repository.Querier) error {
		flight, err := t.flights.LockForUpdate(ctx, q, flightID)
		if err != nil {
			return err
		}
		free, err := t.seats.CountFree(ctx, q, flightID)
		if err != nil {
			return err
		}
		if free == flight.SeatsAvailable {
			return nil
		}

		slog.Warn("seats_available drifted", "flight_id", flightID, "stored", flight.SeatsAvailable, "free", free)
		fixed = true
		return t.flights.SetAvailability(ctx, q, flightID, free)
	})
	return fixed, err
}

func (t *Transactor) ListTickets(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	return t.tickets.List(ctx, filter)
}

func (t *Transactor) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	return t.tickets.GetByID(ctx, id)
}

func (t *Transactor) recount(ctx context.Context, q repository.Querier, flightID int64) (int, error) {
	free, err := t.seats.CountFree(ctx, q, flightID)
	if err != nil {
		return 0, err
	}
	if err := t.flights.SetAvailability(ctx, q, flightID, free); err != nil {
		return 0, err
	}
	return free, nil
}

func (t *Transactor) afterCommit(ctx context.Context, eventType string, ticket *domain.Ticket) {
	t.invalidate(ctx)
	if t.notifier != nil {
		t.notifier.Notify(eventType, *ticket)
	}
}

func (t *Transactor) invalidate(ctx context.Context) {
	if t.cache == nil {
		return
	}
	if err := t.cache.InvalidateFlights(ctx); err != nil {
		slog.Warn("flights cache not invalidated", "error", err)
	}
}

var _ BookingUseCase = (*Transactor)(nil)
