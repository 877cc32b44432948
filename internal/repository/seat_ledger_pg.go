package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/jackc/pgx/v5"
)

// SeatLedger tracks the free/booked status of every seat of a flight.
// It has no concurrency control of its own: callers pass the Querier of the
// transaction that holds the flight row lock.
type SeatLedger interface {
	SeatsFor(ctx context.Context, q Querier, flightID int64) ([]domain.Seat, error)
	SeatsForFlights(ctx context.Context, q Querier, flightIDs []int64) (map[int64][]domain.Seat, error)
	FindSeat(ctx context.Context, q Querier, flightID int64, label string) (*domain.Seat, error)
	MarkBooked(ctx context.Context, q Querier, seatID int64) error
	MarkFree(ctx context.Context, q Querier, seatID int64) error
	AddSeats(ctx context.Context, q Querier, flightID int64, from, to int) error
	RemoveSeat(ctx context.Context, q Querier, flightID int64, label string) error
	CountFree(ctx context.Context, q Querier, flightID int64) (int, error)
}

type PGSeatLedger struct{}

func NewSeatLedger() *PGSeatLedger {
	return &PGSeatLedger{}
}

const seatColumns = `id, flight_id, seat_number, is_booked`

func (l *PGSeatLedger) SeatsFor(ctx context.Context, q Querier, flightID int64) ([]domain.Seat, error) {
	rows, err := q.Query(ctx, `SELECT `+seatColumns+` FROM seats WHERE flight_id=$1 ORDER BY seat_number::int`, flightID)
	if err != nil {
		return nil, domain.NewStorageError("list seats", err)
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.FlightID, &s.SeatNumber, &s.IsBooked); err != nil {
			return nil, domain.NewStorageError("scan seat", err)
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("list seats", err)
	}
	return seats, nil
}

func (l *PGSeatLedger) SeatsForFlights(ctx context.Context, q Querier, flightIDs []int64) (map[int64][]domain.Seat, error) {
	byFlight := make(map[int64][]domain.Seat, len(flightIDs))
	if len(flightIDs) == 0 {
		return byFlight, nil
	}

	rows, err := q.Query(ctx, `SELECT `+seatColumns+` FROM seats WHERE flight_id = ANY($1) ORDER BY flight_id, seat_number::int`, flightIDs)
	if err != nil {
		return nil, domain.NewStorageError("list seats", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.FlightID, &s.SeatNumber, &s.IsBooked); err != nil {
			return nil, domain.NewStorageError("scan seat", err)
		}
		byFlight[s.FlightID] = append(byFlight[s.FlightID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("list seats", err)
	}
	return byFlight, nil
}

func (l *PGSeatLedger) FindSeat(ctx context.Context, q Querier, flightID int64, label string) (*domain.Seat, error) {
	var s domain.Seat
	err := q.QueryRow(ctx, `SELECT `+seatColumns+` FROM seats WHERE flight_id=$1 AND seat_number=$2`, flightID, label).
		Scan(&s.ID, &s.FlightID, &s.SeatNumber, &s.IsBooked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.SeatNotFound(flightID, label)
		}
		return nil, domain.NewStorageError("find seat", err)
	}
	return &s, nil
}

func (l *PGSeatLedger) MarkBooked(ctx context.Context, q Querier, seatID int64) error {
	return l.setBooked(ctx, q, seatID, true)
}

func (l *PGSeatLedger) MarkFree(ctx context.Context, q Querier, seatID int64) error {
	return l.setBooked(ctx, q, seatID, false)
}

func (l *PGSeatLedger) setBooked(ctx context.Context, q Querier, seatID int64, booked bool) error {
	tag, err := q.Exec(ctx, `UPDATE seats SET is_booked=$1 WHERE id=$2`, booked, seatID)
	if err != nil {
		return domain.NewStorageError("update seat", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "seat", Key: strconv.FormatInt(seatID, 10)}
	}
	return nil
}

// AddSeats inserts free seats labelled from..to inclusive.
func (l *PGSeatLedger) AddSeats(ctx context.Context, q Querier, flightID int64, from, to int) error {
	if from > to {
		return nil
	}
	_, err := q.Exec(ctx, `INSERT INTO seats (flight_id, seat_number)
		SELECT $1, g::text FROM generate_series($2::int, $3::int) AS g`, flightID, from, to)
	if err != nil {
		return domain.NewStorageError("add seats", err)
	}
	return nil
}

func (l *PGSeatLedger) RemoveSeat(ctx context.Context, q Querier, flightID int64, label string) error {
	tag, err := q.Exec(ctx, `DELETE FROM seats WHERE flight_id=$1 AND seat_number=$2 AND NOT is_booked`, flightID, label)
	if err != nil {
		return domain.NewStorageError("remove seat", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	seat, err := l.FindSeat(ctx, q, flightID, label)
	if err != nil {
		return err
	}
	if seat.IsBooked {
		return &domain.SeatBookedError{FlightID: flightID, Label: label}
	}
	return domain.NewStorageError("remove seat", errors.New("seat row was not deleted"))
}

func (l *PGSeatLedger) CountFree(ctx context.Context, q Querier, flightID int64) (int, error) {
	var n int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM seats WHERE flight_id=$1 AND NOT is_booked`, flightID).Scan(&n); err != nil {
		return 0, domain.NewStorageError("count free seats", err)
	}
	return n, nil
}

var _ SeatLedger = (*PGSeatLedger)(nil)
