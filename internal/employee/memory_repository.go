package employee

import (
	"context"
	"sync"
)

type MemoryRepository struct {
	mu         sync.RWMutex
	byID       map[string]Employee
	byUserType map[UserType]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[string]Employee),
		byUserType: make(map[UserType]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, e *Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUserType[e.UserType]; taken {
		return ErrDuplicateUserType
	}
	r.byID[e.ID] = *e
	r.byUserType[e.UserType] = e.ID
	return nil
}

func (r *MemoryRepository) GetByUserType(ctx context.Context, userType UserType) (*Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUserType[userType]
	if !ok {
		return nil, ErrNotFound
	}
	e := r.byID[id]
	return &e, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}
