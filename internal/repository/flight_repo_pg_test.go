package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx is a transaction whose statements go to an in-memory querier.
type fakeTx struct {
	pgx.Tx
	q          *fakeQuerier
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return tx.q.Exec(ctx, sql, args...)
}

func (tx *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return tx.q.Query(ctx, sql, args...)
}

func (tx *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return tx.q.QueryRow(ctx, sql, args...)
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	if !tx.committed {
		tx.rolledBack = true
	}
	return nil
}

// fakePool records autocommit statements separately from the ones run
// inside the transaction it hands out.
type fakePool struct {
	fakeQuerier
	tx       *fakeTx
	beginErr error
	opts     []pgx.TxOptions
}

func (p *fakePool) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	p.opts = append(p.opts, opts)
	if p.beginErr != nil {
		return nil, p.beginErr
	}
	return p.tx, nil
}

var (
	departure = time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	arrival   = time.Date(2026, 7, 1, 9, 15, 0, 0, time.UTC)
)

func flightValues(id int64, total, available int) []any {
	return []any{id, int64(6), int64(34), "Ankara", "İstanbul", departure, arrival,
		decimal.NewFromInt(1500), total, available, departure, departure}
}

func seatValues(id, flightID int64, label string, booked bool) []any {
	return []any{id, flightID, label, booked}
}

func newSnapshotRepo(tx *fakeQuerier) (*PGFlightRepository, *fakePool) {
	pool := &fakePool{tx: &fakeTx{q: tx}}
	return &PGFlightRepository{db: pool, seats: NewSeatLedger()}, pool
}

func TestNewFlightRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewFlightRepository(pool, NewSeatLedger())
	assert.NotNil(t, repo)
}

func TestNewTicketRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewTicketRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewCityAndUserRepositories(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.NotNil(t, NewCityRepository(pool))
	assert.NotNil(t, NewUserRepository(pool))
	assert.NotNil(t, NewTxManager(pool))
}

func TestFlightRepository_GetByID_ReadsFlightAndSeatsInOneSnapshot(t *testing.T) {
	tx := &fakeQuerier{
		row: fakeRow{values: flightValues(1, 3, 2)},
		rows: []*fakeRows{{data: [][]any{
			seatValues(1, 1, "1", false),
			seatValues(2, 1, "2", true),
			seatValues(3, 1, "3", false),
		}}},
	}
	repo, pool := newSnapshotRepo(tx)

	flight, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []pgx.TxOptions{{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}}, pool.opts)
	assert.Empty(t, pool.queryRow, "flight row read outside the snapshot")
	assert.Empty(t, pool.querySQL, "seats read outside the snapshot")
	assert.Len(t, tx.queryRow, 1)
	assert.Len(t, tx.querySQL, 1)
	assert.True(t, pool.tx.committed)

	free := 0
	for _, s := range flight.Seats {
		if !s.IsBooked {
			free++
		}
	}
	assert.Equal(t, flight.SeatsAvailable, free)
	assert.Equal(t, "Ankara", flight.FromCityName)
	assert.True(t, flight.Price.Equal(decimal.NewFromInt(1500)))
}

func TestFlightRepository_GetByID_NotFound(t *testing.T) {
	repo, pool := newSnapshotRepo(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})

	_, err := repo.GetByID(context.Background(), 9)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, pool.tx.rolledBack)
}

func TestFlightRepository_GetByID_BeginFails(t *testing.T) {
	pool := &fakePool{beginErr: errors.New("pool closed")}
	repo := &PGFlightRepository{db: pool, seats: NewSeatLedger()}

	_, err := repo.GetByID(context.Background(), 1)

	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestFlightRepository_List_ReadsSeatsInSameSnapshot(t *testing.T) {
	tx := &fakeQuerier{rows: []*fakeRows{
		{data: [][]any{flightValues(1, 2, 1), flightValues(2, 1, 1)}},
		{data: [][]any{
			seatValues(1, 1, "1", true),
			seatValues(2, 1, "2", false),
			seatValues(3, 2, "1", false),
		}},
	}}
	repo, pool := newSnapshotRepo(tx)

	flights, err := repo.List(context.Background())
	require.NoError(t, err)

	require.Len(t, pool.opts, 1)
	assert.Equal(t, pgx.RepeatableRead, pool.opts[0].IsoLevel)
	assert.Equal(t, pgx.ReadOnly, pool.opts[0].AccessMode)
	assert.Empty(t, pool.querySQL)
	require.Len(t, tx.querySQL, 2)
	assert.Contains(t, tx.querySQL[1], "ANY($1)")
	assert.True(t, pool.tx.committed)

	require.Len(t, flights, 2)
	assert.Len(t, flights[0].Seats, 2)
	assert.Len(t, flights[1].Seats, 1)
}

func TestFlightRepository_Filter_Empty(t *testing.T) {
	tx := &fakeQuerier{rows: []*fakeRows{{}}}
	repo, _ := newSnapshotRepo(tx)

	flights, err := repo.Filter(context.Background(), domain.FlightFilter{})

	require.NoError(t, err)
	assert.Empty(t, flights)
	// no flights, no seat query
	assert.Len(t, tx.querySQL, 1)
}

func TestFlightRepository_LockForUpdate(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{values: []any{int64(1), int64(6), int64(34), departure, arrival,
		decimal.NewFromInt(1500), 3, 3, departure, departure}}}

	flight, err := NewFlightRepository(nil, NewSeatLedger()).LockForUpdate(context.Background(), q, 1)

	require.NoError(t, err)
	assert.Equal(t, 3, flight.SeatsTotal)
	require.Len(t, q.queryRow, 1)
	assert.Contains(t, q.queryRow[0], "FOR UPDATE")
}

func TestFlightRepository_LockForUpdate_NotFound(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}

	_, err := NewFlightRepository(nil, NewSeatLedger()).LockForUpdate(context.Background(), q, 5)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
