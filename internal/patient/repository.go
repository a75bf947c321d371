package patient

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// Repository stores each patient aggregate as a JSONB document next to the
// columns needed for uniqueness and optimistic locking.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, p *Patient) error {
	if p.Revision == 0 {
		p.Revision = 1
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode patient: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO patients (id, form_number, revision, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.FormNumber, p.Revision, doc, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateFormNumber
		}
		return fmt.Errorf("failed to insert patient: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Patient, error) {
	row := r.db.QueryRowContext(ctx, `SELECT revision, document FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *Repository) GetByFormNumber(ctx context.Context, formNumber string) (*Patient, error) {
	row := r.db.QueryRowContext(ctx, `SELECT revision, document FROM patients WHERE form_number = $1`, formNumber)
	return scanPatient(row)
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]Patient, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, `
			SELECT revision, document FROM patients
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`, limit, offset)
	} else {
		rows, err = r.db.QueryContext(ctx, `SELECT revision, document FROM patients ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	patients := []Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patients: %w", err)
	}
	return patients, nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return total, nil
}

func (r *Repository) VisitFormNumberExists(ctx context.Context, formNumber string) (bool, error) {
	needle, err := json.Marshal([]map[string]string{{"formNumber": formNumber}})
	if err != nil {
		return false, err
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM patients WHERE document->'visits' @> $1::jsonb)
	`, string(needle)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check visit form number: %w", err)
	}
	return exists, nil
}

func (r *Repository) Save(ctx context.Context, p *Patient) error {
	expected := p.Revision
	p.Revision = expected + 1

	doc, err := json.Marshal(p)
	if err != nil {
		p.Revision = expected
		return fmt.Errorf("failed to encode patient: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE patients
		SET form_number = $2, revision = $3, document = $4, updated_at = $5
		WHERE id = $1 AND revision = $6
	`, p.ID, p.FormNumber, p.Revision, doc, p.UpdatedAt, expected)
	if err != nil {
		p.Revision = expected
		if isUniqueViolation(err) {
			return ErrDuplicateFormNumber
		}
		return fmt.Errorf("failed to update patient: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		p.Revision = expected
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		p.Revision = expected
		var one int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM patients WHERE id = $1`, p.ID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check patient: %w", err)
		}
		return ErrRevisionConflict
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*Patient, error) {
	var (
		revision int64
		doc      []byte
	)
	if err := row.Scan(&revision, &doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan patient: %w", err)
	}

	var p Patient
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("failed to decode patient: %w", err)
	}
	p.Revision = revision
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
