package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (username, email, password_hash, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	u.CreatedAt = time.Now()
	return r.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash, u.CreatedAt).Scan(&u.ID)
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	query := `SELECT id, username, COALESCE(email, ''), password_hash, created_at FROM users WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT id, username, COALESCE(email, ''), password_hash, created_at FROM users WHERE LOWER(username) = LOWER($1)`
	return r.get(ctx, query, username)
}

func (r *userRepository) get(ctx context.Context, query string, arg any) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
