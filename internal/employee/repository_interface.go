package employee

import "context"

// RepositoryInterface defines the contract for employee data access
type RepositoryInterface interface {
	// Create stores a new record. ErrDuplicateUserType when the role is taken.
	Create(ctx context.Context, e *Employee) error
	GetByUserType(ctx context.Context, userType UserType) (*Employee, error)
	GetByID(ctx context.Context, id string) (*Employee, error)
}

// Ensure the stores implement RepositoryInterface
var (
	_ RepositoryInterface = (*Repository)(nil)
	_ RepositoryInterface = (*MongoRepository)(nil)
	_ RepositoryInterface = (*MemoryRepository)(nil)
)
