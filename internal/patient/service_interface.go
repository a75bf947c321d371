package patient

import (
	"context"

	"github.com/jalh2/healthyubackend/internal/pagination"
)

// ServiceInterface defines the contract for patient business logic operations.
// Every mutating operation returns the updated patient.
type ServiceInterface interface {
	RegisterPatient(ctx context.Context, req RegisterPatientRequest) (*Patient, error)
	GetPatient(ctx context.Context, id string) (*Patient, error)
	GetPatientByFormNumber(ctx context.Context, formNumber string) (*Patient, error)
	GetBasicInfo(ctx context.Context, id string) (*BasicInfo, error)
	ListPatients(ctx context.Context) ([]Patient, error)
	ListPatientsWithPagination(ctx context.Context, params pagination.Params) (*PaginatedPatientListResponse, error)
	UpdatePatientInfo(ctx context.Context, id string, req UpdatePatientRequest) (*Patient, error)

	AddVisit(ctx context.Context, id string, req AddVisitRequest) (*Patient, error)
	UpdateVisit(ctx context.Context, id, visitID string, req UpdateVisitRequest) (*Patient, error)
	UpdateLabOrdersAndResults(ctx context.Context, id, visitID string, update LaboratoryUpdate) (*Patient, error)
	UpdateLaboratoryData(ctx context.Context, id, visitID string, update LaboratoryUpdate) (*Patient, error)
	UpdateLabTests(ctx context.Context, id string, req UpdateLabTestsRequest) (*Patient, error)
	UpdateDoctorNotes(ctx context.Context, id, visitID string, notes MedicalNotes) (*Patient, error)
	UpdatePrescription(ctx context.Context, id, prescription string) (*Patient, error)
	ApplyPayment(ctx context.Context, id, visitID string, category Category, c Contribution) (*Patient, error)
	AddProgressNote(ctx context.Context, id, note, author string) (*Patient, error)
	SetProgress(ctx context.Context, id string, progress Progress) (*Patient, error)
}

var _ ServiceInterface = (*Service)(nil)
