package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager runs fn inside one database transaction. The transaction is
// committed when fn returns nil and rolled back on any error or panic.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error
}

type PGTxManager struct {
	db *pgxpool.Pool
}

func NewTxManager(db *pgxpool.Pool) *PGTxManager {
	return &PGTxManager{db: db}
}

func (m *PGTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	tx, err := m.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return domain.NewStorageError("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewStorageError("commit tx", err)
	}
	return nil
}

// snapshotTx gives multi-statement reads one consistent view of the
// database: a flight row and its seats come from the same snapshot.
var snapshotTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

type txBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// readSnapshot runs fn inside a read-only REPEATABLE READ transaction.
func readSnapshot(ctx context.Context, db txBeginner, fn func(q Querier) error) error {
	tx, err := db.BeginTx(ctx, snapshotTx)
	if err != nil {
		return domain.NewStorageError("begin read tx", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.NewStorageError("commit read tx", err)
	}
	return nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ TxManager = (*PGTxManager)(nil)
