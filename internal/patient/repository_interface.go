package patient

import "context"

// RepositoryInterface defines the contract for patient data access.
// The whole aggregate is read and written at once.
type RepositoryInterface interface {
	// Create stores a new patient. ErrDuplicateFormNumber on a taken form number.
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id string) (*Patient, error)
	GetByFormNumber(ctx context.Context, formNumber string) (*Patient, error)
	// List returns patients most recent first. limit <= 0 returns all.
	List(ctx context.Context, limit, offset int) ([]Patient, error)
	Count(ctx context.Context) (int, error)
	VisitFormNumberExists(ctx context.Context, formNumber string) (bool, error)
	// Save replaces the stored aggregate if its revision still equals
	// p.Revision, and bumps p.Revision. ErrRevisionConflict otherwise.
	Save(ctx context.Context, p *Patient) error
}

// Ensure the stores implement RepositoryInterface
var (
	_ RepositoryInterface = (*Repository)(nil)
	_ RepositoryInterface = (*MongoRepository)(nil)
	_ RepositoryInterface = (*MemoryRepository)(nil)
)
