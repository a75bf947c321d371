package employee

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, e *Employee) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO employees (id, user_type, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.UserType, e.Password, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateUserType
		}
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}

func (r *Repository) GetByUserType(ctx context.Context, userType UserType) (*Employee, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_type, password, created_at, updated_at
		FROM employees WHERE user_type = $1
	`, userType)
	return scanEmployee(row)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Employee, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_type, password, created_at, updated_at
		FROM employees WHERE id = $1
	`, id)
	return scanEmployee(row)
}

func scanEmployee(row *sql.Row) (*Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.UserType, &e.Password, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query employee: %w", err)
	}
	return &e, nil
}
