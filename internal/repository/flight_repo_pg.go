package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FlightRepository reads flights in a snapshot of their own and writes them
// through the Querier of the caller's transaction.
type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	Filter(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	ListIDs(ctx context.Context) ([]int64, error)

	Create(ctx context.Context, q Querier, details domain.FlightDetails) (*domain.Flight, error)
	LockForUpdate(ctx context.Context, q Querier, id int64) (*domain.Flight, error)
	UpdateDetails(ctx context.Context, q Querier, id int64, details domain.FlightDetails) error
	SetAvailability(ctx context.Context, q Querier, id int64, available int) error
	Delete(ctx context.Context, q Querier, id int64) error
}

// flightDB is satisfied by *pgxpool.Pool.
type flightDB interface {
	Querier
	txBeginner
}

type PGFlightRepository struct {
	db    flightDB
	seats SeatLedger
}

func NewFlightRepository(db *pgxpool.Pool, seats SeatLedger) FlightRepository {
	return &PGFlightRepository{db: db, seats: seats}
}

const flightSelect = `SELECT f.id, f.from_city, f.to_city, fc.name, tc.name, f.departure_time, f.arrival_time,
	f.price, f.seats_total, f.seats_available, f.created_at, f.updated_at
	FROM flights f
	JOIN cities fc ON fc.id = f.from_city
	JOIN cities tc ON tc.id = f.to_city`

func scanFlight(row pgx.Row) (domain.Flight, error) {
	var f domain.Flight
	err := row.Scan(&f.ID, &f.FromCity, &f.ToCity, &f.FromCityName, &f.ToCityName, &f.DepartureTime, &f.ArrivalTime,
		&f.Price, &f.SeatsTotal, &f.SeatsAvailable, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	return r.query(ctx, flightSelect+` ORDER BY f.departure_time`)
}

func (r *PGFlightRepository) Filter(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Origin != nil {
		args = append(args, *filter.Origin)
		clauses = append(clauses, fmt.Sprintf("f.from_city = $%d", len(args)))
	}
	if filter.Destination != nil {
		args = append(args, *filter.Destination)
		clauses = append(clauses, fmt.Sprintf("f.to_city = $%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, filter.Date.Format("2006-01-02"))
		clauses = append(clauses, fmt.Sprintf("(f.departure_time AT TIME ZONE 'UTC')::date = $%d::date", len(args)))
	}

	sql := flightSelect
	if len(clauses) > 0 {
		sql += " WHERE " + strings.Join(clauses, " AND ")
	}
	return r.query(ctx, sql+" ORDER BY f.departure_time", args...)
}

// query reads the flights and their seats in one snapshot, so each
// seats_available matches the seat rows it is returned with.
func (r *PGFlightRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Flight, error) {
	var flights []domain.Flight
	err := readSnapshot(ctx, r.db, func(q Querier) error {
		var err error
		flights, err = scanFlights(ctx, q, sql, args...)
		if err != nil {
			return err
		}

		ids := make([]int64, len(flights))
		for i := range flights {
			ids[i] = flights[i].ID
		}
		seats, err := r.seats.SeatsForFlights(ctx, q, ids)
		if err != nil {
			return err
		}
		for i := range flights {
			flights[i].Seats = seats[flights[i].ID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return flights, nil
}

// scanFlights drains and closes its rows before returning; the snapshot
// transaction runs on a single connection.
func scanFlights(ctx context.Context, q Querier, sql string, args ...any) ([]domain.Flight, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.NewStorageError("list flights", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, domain.NewStorageError("scan flight", err)
		}
		flights = append(flights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("list flights", err)
	}
	return flights, nil
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	var f domain.Flight
	err := readSnapshot(ctx, r.db, func(q Querier) error {
		var err error
		f, err = scanFlight(q.QueryRow(ctx, flightSelect+` WHERE f.id=$1`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.FlightNotFound(id)
			}
			return domain.NewStorageError("get flight", err)
		}
		f.Seats, err = r.seats.SeatsFor(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM flights ORDER BY id`)
	if err != nil {
		return nil, domain.NewStorageError("list flight ids", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, domain.NewStorageError("list flight ids", err)
	}
	return ids, nil
}

// Create inserts the flight row with no available seats; the caller seeds the
// seat pool and recounts in the same transaction.
func (r *PGFlightRepository) Create(ctx context.Context, q Querier, d domain.FlightDetails) (*domain.Flight, error) {
	f := domain.Flight{
		FromCity:      d.FromCity,
		ToCity:        d.ToCity,
		DepartureTime: d.DepartureTime,
		ArrivalTime:   d.ArrivalTime,
		Price:         d.Price,
		SeatsTotal:    d.SeatsTotal,
	}
	err := q.QueryRow(ctx, `INSERT INTO flights (from_city, to_city, departure_time, arrival_time, price, seats_total, seats_available)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
		RETURNING id, created_at, updated_at`,
		d.FromCity, d.ToCity, d.DepartureTime, d.ArrivalTime, d.Price, d.SeatsTotal).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, domain.NewStorageError("insert flight", err)
	}
	return &f, nil
}

// LockForUpdate reads the flight row and holds its row lock until the
// transaction ends. Every mutation of a flight's seats starts here.
func (r *PGFlightRepository) LockForUpdate(ctx context.Context, q Querier, id int64) (*domain.Flight, error) {
	var f domain.Flight
	err := q.QueryRow(ctx, `SELECT id, from_city, to_city, departure_time, arrival_time, price, seats_total, seats_available, created_at, updated_at
		FROM flights WHERE id=$1 FOR UPDATE`, id).
		Scan(&f.ID, &f.FromCity, &f.ToCity, &f.DepartureTime, &f.ArrivalTime, &f.Price, &f.SeatsTotal, &f.SeatsAvailable, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.FlightNotFound(id)
		}
		return nil, domain.NewStorageError("lock flight", err)
	}
	return &f, nil
}

func (r *PGFlightRepository) UpdateDetails(ctx context.Context, q Querier, id int64, d domain.FlightDetails) error {
	tag, err := q.Exec(ctx, `UPDATE flights
		SET from_city=$1, to_city=$2, departure_time=$3, arrival_time=$4, price=$5, seats_total=$6, updated_at=now()
		WHERE id=$7`,
		d.FromCity, d.ToCity, d.DepartureTime, d.ArrivalTime, d.Price, d.SeatsTotal, id)
	if err != nil {
		return domain.NewStorageError("update flight", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.FlightNotFound(id)
	}
	return nil
}

func (r *PGFlightRepository) SetAvailability(ctx context.Context, q Querier, id int64, available int) error {
	tag, err := q.Exec(ctx, `UPDATE flights SET seats_available=$1, updated_at=now() WHERE id=$2`, available, id)
	if err != nil {
		return domain.NewStorageError("update availability", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.FlightNotFound(id)
	}
	return nil
}

func (r *PGFlightRepository) Delete(ctx context.Context, q Querier, id int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM flights WHERE id=$1`, id)
	if err != nil {
		return domain.NewStorageError("delete flight", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.FlightNotFound(id)
	}
	return nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
