//go:build integration

package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jalh2/healthyubackend/internal/testutil"
)

func newPostgresRepository(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(testutil.SetupTestDB(t))
}

// TestRepositoryCreateAndGet_Integration round-trips the aggregate through JSONB
func TestRepositoryCreateAndGet_Integration(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()

	p := newStoredPatient(uuid.NewString(), "F-INT-1", time.Now().UTC().Truncate(time.Millisecond))
	p.Visits[0].Vitals = Vitals{Temperature: 38.1, BloodPressure: "130/85"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Revision != 1 {
		t.Errorf("Expected revision 1 after create, got %d", p.Revision)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FormNumber != "F-INT-1" || len(got.Visits) != 1 {
		t.Errorf("Unexpected patient %+v", got)
	}
	if got.Visits[0].Vitals.BloodPressure != "130/85" {
		t.Errorf("Expected vitals to survive storage, got %+v", got.Visits[0].Vitals)
	}

	byForm, err := repo.GetByFormNumber(ctx, "F-INT-1")
	if err != nil || byForm.ID != p.ID {
		t.Errorf("GetByFormNumber returned %v, %v", byForm, err)
	}

	if _, err := repo.GetByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestRepositoryDuplicateFormNumber_Integration(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()

	if err := repo.Create(ctx, newStoredPatient(uuid.NewString(), "F-DUP", time.Now())); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	err := repo.Create(ctx, newStoredPatient(uuid.NewString(), "F-DUP", time.Now()))
	if !errors.Is(err, ErrDuplicateFormNumber) {
		t.Errorf("Expected ErrDuplicateFormNumber, got: %v", err)
	}
}

func TestRepositorySaveRevisionConflict_Integration(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()

	p := newStoredPatient(uuid.NewString(), "F-CAS", time.Now())
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first, _ := repo.GetByID(ctx, p.ID)
	second, _ := repo.GetByID(ctx, p.ID)

	first.Address = "Sinkor"
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second.Address = "Congo Town"
	if err := repo.Save(ctx, second); !errors.Is(err, ErrRevisionConflict) {
		t.Errorf("Expected ErrRevisionConflict, got: %v", err)
	}
	if second.Revision != first.Revision-1 {
		t.Errorf("Expected failed save to leave revision untouched, got %d", second.Revision)
	}

	if err := repo.Save(ctx, &Patient{ID: uuid.NewString(), Revision: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestRepositoryListCountAndVisitForms_Integration(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, form := range []string{"F-L1", "F-L2", "F-L3"} {
		if err := repo.Create(ctx, newStoredPatient(uuid.NewString(), form, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	total, err := repo.Count(ctx)
	if err != nil || total != 3 {
		t.Fatalf("Expected 3 patients, got %d (%v)", total, err)
	}

	page, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 2 || page[0].FormNumber != "F-L3" {
		t.Errorf("Expected most recent first, got %v", formNumbers(page))
	}

	exists, err := repo.VisitFormNumberExists(ctx, "F-L2")
	if err != nil || !exists {
		t.Errorf("Expected visit form F-L2 to exist, got %v (%v)", exists, err)
	}
	exists, _ = repo.VisitFormNumberExists(ctx, "F-NONE")
	if exists {
		t.Error("Expected unknown visit form number to be absent")
	}
}
