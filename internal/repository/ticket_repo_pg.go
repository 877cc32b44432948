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

type TicketRepository interface {
	List(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)

	Create(ctx context.Context, q Querier, ticket *domain.Ticket) error
	Find(ctx context.Context, q Querier, id int64) (*domain.Ticket, error)
	Delete(ctx context.Context, q Querier, id int64) error
	CountForFlight(ctx context.Context, q Querier, flightID int64) (int, error)
}

type PGTicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db}
}

const ticketSelect = `SELECT t.id, t.reference, t.passenger_name, t.passenger_surname, t.passenger_email,
	t.flight_id, t.seat_id, s.seat_number, t.booked_by, t.created_at
	FROM tickets t
	JOIN seats s ON s.id = t.seat_id`

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(&t.ID, &t.Reference, &t.PassengerName, &t.PassengerSurname, &t.PassengerEmail,
		&t.FlightID, &t.SeatID, &t.SeatNumber, &t.BookedBy, &t.CreatedAt)
	return t, err
}

func (r *PGTicketRepository) List(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.BookedBy != "" {
		args = append(args, filter.BookedBy)
		clauses = append(clauses, fmt.Sprintf("t.booked_by = $%d", len(args)))
	}
	if filter.FlightID != 0 {
		args = append(args, filter.FlightID)
		clauses = append(clauses, fmt.Sprintf("t.flight_id = $%d", len(args)))
	}

	sql := ticketSelect
	if len(clauses) > 0 {
		sql += " WHERE " + strings.Join(clauses, " AND ")
	}

	rows, err := r.db.Query(ctx, sql+" ORDER BY t.id", args...)
	if err != nil {
		return nil, domain.NewStorageError("list tickets", err)
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, domain.NewStorageError("scan ticket", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("list tickets", err)
	}
	return tickets, nil
}

func (r *PGTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.Find(ctx, r.db, id)
}

func (r *PGTicketRepository) Find(ctx context.Context, q Querier, id int64) (*domain.Ticket, error) {
	t, err := scanTicket(q.QueryRow(ctx, ticketSelect+` WHERE t.id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.TicketNotFound(id)
		}
		return nil, domain.NewStorageError("get ticket", err)
	}
	return &t, nil
}

func (r *PGTicketRepository) Create(ctx context.Context, q Querier, t *domain.Ticket) error {
	err := q.QueryRow(ctx, `INSERT INTO tickets (reference, passenger_name, passenger_surname, passenger_email, flight_id, seat_id, booked_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		t.Reference, t.PassengerName, t.PassengerSurname, t.PassengerEmail, t.FlightID, t.SeatID, t.BookedBy).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return domain.NewStorageError("insert ticket", err)
	}
	return nil
}

func (r *PGTicketRepository) Delete(ctx context.Context, q Querier, id int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return domain.NewStorageError("delete ticket", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.TicketNotFound(id)
	}
	return nil
}

func (r *PGTicketRepository) CountForFlight(ctx context.Context, q Querier, flightID int64) (int, error) {
	var n int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM tickets WHERE flight_id=$1`, flightID).Scan(&n); err != nil {
		return 0, domain.NewStorageError("count tickets", err)
	}
	return n, nil
}

var _ TicketRepository = (*PGTicketRepository)(nil)
