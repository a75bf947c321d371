package patient

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-process store with the same uniqueness and
// revision semantics as the database backends.
type MemoryRepository struct {
	mu       sync.RWMutex
	patients map[string]*Patient
	order    []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{patients: make(map[string]*Patient)}
}

func (r *MemoryRepository) Create(ctx context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.formNumberTaken(p.FormNumber, "") {
		return ErrDuplicateFormNumber
	}
	if p.Revision == 0 {
		p.Revision = 1
	}
	r.patients[p.ID] = clonePatient(p)
	r.order = append(r.order, p.ID)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePatient(p), nil
}

func (r *MemoryRepository) GetByFormNumber(ctx context.Context, formNumber string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.patients {
		if p.FormNumber == formNumber {
			return clonePatient(p), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) List(ctx context.Context, limit, offset int) ([]Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// newest insertion first so equal timestamps keep a stable order
	all := make([]Patient, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		all = append(all, *clonePatient(r.patients[r.order[i]]))
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if limit <= 0 {
		return all, nil
	}
	if offset >= len(all) {
		return []Patient{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patients), nil
}

func (r *MemoryRepository) VisitFormNumberExists(ctx context.Context, formNumber string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.patients {
		if p.HasVisitFormNumber(formNumber) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) Save(ctx context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.patients[p.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Revision != p.Revision {
		return ErrRevisionConflict
	}
	if r.formNumberTaken(p.FormNumber, p.ID) {
		return ErrDuplicateFormNumber
	}

	p.Revision++
	r.patients[p.ID] = clonePatient(p)
	return nil
}

func (r *MemoryRepository) formNumberTaken(formNumber, exceptID string) bool {
	for id, p := range r.patients {
		if id != exceptID && p.FormNumber == formNumber {
			return true
		}
	}
	return false
}

func clonePatient(p *Patient) *Patient {
	c := *p
	if p.Visits != nil {
		c.Visits = make([]Visit, len(p.Visits))
		for i, v := range p.Visits {
			c.Visits[i] = cloneVisit(v)
		}
	}
	if p.ProgressNotes != nil {
		c.ProgressNotes = append([]ProgressNote(nil), p.ProgressNotes...)
	}
	return &c
}

func cloneVisit(v Visit) Visit {
	v.Payments.Registration = clonePayment(v.Payments.Registration)
	v.Payments.Laboratory = clonePayment(v.Payments.Laboratory)
	v.Payments.Medication = clonePayment(v.Payments.Medication)
	return v
}

func clonePayment(p Payment) Payment {
	if p.TotalAmount != nil {
		total := *p.TotalAmount
		p.TotalAmount = &total
	}
	if p.LastPaymentDate != nil {
		date := *p.LastPaymentDate
		p.LastPaymentDate = &date
	}
	return p
}
