package postgres

import (
	"context"
	"database/sql"
	"errors"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/repository"
)

type apartmentRepository struct {
	db *sql.DB
}

func NewApartmentRepository(db *sql.DB) repository.ApartmentRepository {
	return &apartmentRepository{db: db}
}

func (r *apartmentRepository) Create(ctx context.Context, a *domain.Apartment) error {
	query := `INSERT INTO apartments (name, type, address) VALUES ($1, $2, $3) RETURNING id`
	return r.db.QueryRowContext(ctx, query, a.Name, a.Type, a.Address).Scan(&a.ID)
}

func (r *apartmentRepository) GetByID(ctx context.Context, id int32) (*domain.Apartment, error) {
	a := &domain.Apartment{}
	query := `SELECT id, name, type, COALESCE(address, '') FROM apartments WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.Type, &a.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *apartmentRepository) List(ctx context.Context) ([]domain.Apartment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, type, COALESCE(address, '') FROM apartments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Apartment
	for rows.Next() {
		var a domain.Apartment
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Address); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
