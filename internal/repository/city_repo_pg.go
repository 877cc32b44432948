package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CityRepository interface {
	List(ctx context.Context) ([]domain.City, error)
	GetByID(ctx context.Context, id int64) (*domain.City, error)
}

type PGCityRepository struct {
	db *pgxpool.Pool
}

func NewCityRepository(db *pgxpool.Pool) CityRepository {
	return &PGCityRepository{db: db}
}

func (r *PGCityRepository) List(ctx context.Context) ([]domain.City, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM cities ORDER BY name`)
	if err != nil {
		return nil, domain.NewStorageError("list cities", err)
	}
	cities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.City, error) {
		var c domain.City
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, domain.NewStorageError("list cities", err)
	}
	return cities, nil
}

func (r *PGCityRepository) GetByID(ctx context.Context, id int64) (*domain.City, error) {
	var c domain.City
	if err := r.db.QueryRow(ctx, `SELECT id, name FROM cities WHERE id=$1`, id).Scan(&c.ID, &c.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.CityNotFound(id)
		}
		return nil, domain.NewStorageError("get city", err)
	}
	return &c, nil
}

var _ CityRepository = (*PGCityRepository)(nil)
