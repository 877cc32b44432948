package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpsertAdmin(ctx context.Context, email, passwordHash string) error
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRow(ctx, `INSERT INTO users (email, password_hash, is_admin) VALUES ($1, $2, $3) RETURNING created_at`,
		u.Email, u.PasswordHash, u.IsAdmin).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("email", "is already registered")
		}
		return domain.NewStorageError("insert user", err)
	}
	return nil
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `SELECT email, password_hash, is_admin, created_at FROM users WHERE email=$1`, email).
		Scan(&u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.UserNotFound(email)
		}
		return nil, domain.NewStorageError("get user", err)
	}
	return &u, nil
}

// UpsertAdmin creates the admin account, leaving an existing one untouched.
func (r *PGUserRepository) UpsertAdmin(ctx context.Context, email, passwordHash string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO users (email, password_hash, is_admin) VALUES ($1, $2, TRUE)
		ON CONFLICT (email) DO NOTHING`, email, passwordHash)
	if err != nil {
		return domain.NewStorageError("seed admin", err)
	}
	return nil
}

var _ UserRepository = (*PGUserRepository)(nil)
