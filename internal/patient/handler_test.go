package patient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/jalh2/healthyubackend/internal/auth"
	"github.com/jalh2/healthyubackend/internal/pagination"
)

// mockService implements ServiceInterface for testing
type mockService struct {
	registerPatientFunc            func(ctx context.Context, req RegisterPatientRequest) (*Patient, error)
	getPatientFunc                 func(ctx context.Context, id string) (*Patient, error)
	getPatientByFormNumberFunc     func(ctx context.Context, formNumber string) (*Patient, error)
	getBasicInfoFunc               func(ctx context.Context, id string) (*BasicInfo, error)
	listPatientsFunc               func(ctx context.Context) ([]Patient, error)
	listPatientsWithPaginationFunc func(ctx context.Context, params pagination.Params) (*PaginatedPatientListResponse, error)
	updatePatientInfoFunc          func(ctx context.Context, id string, req UpdatePatientRequest) (*Patient, error)
	addVisitFunc                   func(ctx context.Context, id string, req AddVisitRequest) (*Patient, error)
	updateVisitFunc                func(ctx context.Context, id, visitID string, req UpdateVisitRequest) (*Patient, error)
	updateLabOrdersAndResultsFunc  func(ctx context.Context, id, visitID string, update LaboratoryUpdate) (*Patient, error)
	updateLaboratoryDataFunc       func(ctx context.Context, id, visitID string, update LaboratoryUpdate) (*Patient, error)
	updateLabTestsFunc             func(ctx context.Context, id string, req UpdateLabTestsRequest) (*Patient, error)
	updateDoctorNotesFunc          func(ctx context.Context, id, visitID string, notes MedicalNotes) (*Patient, error)
	updatePrescriptionFunc         func(ctx context.Context, id, prescription string) (*Patient, error)
	applyPaymentFunc               func(ctx context.Context, id, visitID string, category Category, c Contribution) (*Patient, error)
	addProgressNoteFunc            func(ctx context.Context, id, note, author string) (*Patient, error)
	setProgressFunc                func(ctx context.Context, id string, progress Progress) (*Patient, error)
}

var errNotImplemented = errors.New("not implemented")

func (m *mockService) RegisterPatient(ctx context.Context, req RegisterPatientRequest) (*Patient, error) {
	if m.registerPatientFunc != nil {
		return m.registerPatientFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockService) GetPatient(ctx context.Context, id string) (*Patient, error) {
	if m.getPatientFunc != nil {
		return m.getPatientFunc(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockService) GetPatientByFormNumber(ctx context.Context, formNumber string) (*Patient, error) {
	if m.getPatientByFormNumberFunc != nil {
		return m.getPatientByFormNumberFunc(ctx, formNumber)
	}
	return nil, errNotImplemented
}

func (m *mockService) GetBasicInfo(ctx context.Context, id string) (*BasicInfo, error) {
	if m.getBasicInfoFunc != nil {
		return m.getBasicInfoFunc(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockService) ListPatients(ctx context.Context) ([]Patient, error) {
	if m.listPatientsFunc != nil {
		return m.listPatientsFunc(ctx)
	}
	return nil, errNotImplemented
}

func (m *mockService) ListPatientsWithPagination(ctx context.Context, params pagination.Params) (*PaginatedPatientListResponse, error) {
	if m.listPatientsWithPaginationFunc != nil {
		return m.listPatientsWithPaginationFunc(ctx, params)
	}
	return nil, errNotImplemented
}

func (m *mockService) UpdatePatientInfo(ctx context.Context, id string, req UpdatePatientRequest) (*Patient, error) {
	if m.updatePatientInfoFunc != nil {
		return m.updatePatientInfoFunc(ctx, id, req)
	}
	return nil, errNotImplemented
}

func (m *mockService) AddVisit(ctx context.Context, id string, req AddVisitRequest) (*Patient, error) {
	if m.addVisitFunc != nil {
		return m.addVisitFunc(ctx, id, req)
	}
	return nil, errNotImplemented
}

func (m *mockService) UpdateVisit(ctx context.Context, id, visitID string, req UpdateVisitRequest) (*Patient, error) {
	if m.updateVisitFunc != nil {
		return m.updateVisitFunc(ctx, id, visitID, req)
	}
	return nil, errNotImplemented
}

func (m *mockService) UpdateLabOrdersAndResults(ctx context.Context, id, visitID string, update LaboratoryUpdate) (*Patient, error) {
	if m.updateLabOrdersAndResultsFunc != nil {
		return m.updateLabOrdersAndResultsFunc(ctx, id, visitID, update)
	}
	return nil, errNotImplemented
}

func (m *mockService) UpdateLaboratoryData(ctx context.Context, id, visitID string, update LaboratoryUpdate) (*Patient, error) {
	if m.updateLaboratoryDataFunc != nil {
		return m.updateLaboratoryDataFunc(ctx, id, visitID, update)
	}
	return nil, errNotImplemented
}

func (m *mockService) UpdateLabTests(ctx context.Context, id string, req UpdateLabTestsRequest) (*Patient, error) {
	if m.updateLabTestsFunc != nil {
		return m.updateLabTestsFunc(ctx, id, req)
	}
	return nil, errNotImplemented
}

func (m *mockService) UpdateDoctorNotes(ctx context.Context, id, visitID string, notes MedicalNotes) (*Patient, error) {
	if m.updateDoctorNotesFunc != nil {
		return m.updateDoctorNotesFunc(ctx, id, visitID, notes)
	}
	return nil, errNotImplemented
}

func (m *mockService) UpdatePrescription(ctx context.Context, id, prescription string) (*Patient, error) {
	if m.updatePrescriptionFunc != nil {
		return m.updatePrescriptionFunc(ctx, id, prescription)
	}
	return nil, errNotImplemented
}

func (m *mockService) ApplyPayment(ctx context.Context, id, visitID string, category Category, c Contribution) (*Patient, error) {
	if m.applyPaymentFunc != nil {
		return m.applyPaymentFunc(ctx, id, visitID, category, c)
	}
	return nil, errNotImplemented
}

func (m *mockService) AddProgressNote(ctx context.Context, id, note, author string) (*Patient, error) {
	if m.addProgressNoteFunc != nil {
		return m.addProgressNoteFunc(ctx, id, note, author)
	}
	return nil, errNotImplemented
}

func (m *mockService) SetProgress(ctx context.Context, id string, progress Progress) (*Patient, error) {
	if m.setProgressFunc != nil {
		return m.setProgressFunc(ctx, id, progress)
	}
	return nil, errNotImplemented
}

func doRequest(t *testing.T, method, route, target string, body interface{}, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	router := mux.NewRouter()
	router.HandleFunc(route, h).Methods(method)
	router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	return body
}

func TestHandlerRegisterPatient_Success(t *testing.T) {
	mockSvc := &mockService{
		registerPatientFunc: func(ctx context.Context, req RegisterPatientRequest) (*Patient, error) {
			return &Patient{
				ID:         "p-1",
				FormNumber: req.FormNumber,
				FirstName:  req.FirstName,
				Visits:     []Visit{{ID: "v-1", FormNumber: req.FormNumber, Progress: DefaultProgress}},
			}, nil
		},
	}
	handler := NewHandler(mockSvc, nil)

	rr := doRequest(t, http.MethodPost, "/api/patients", "/api/patients", validRegistration("F001"), handler.RegisterPatient)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var p Patient
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if p.ID != "p-1" || p.FormNumber != "F001" {
		t.Errorf("Unexpected patient %+v", p)
	}
}

func TestHandlerRegisterPatient_InvalidJSON(t *testing.T) {
	handler := NewHandler(&mockService{}, nil)

	rr := doRequest(t, http.MethodPost, "/api/patients", "/api/patients", "{not json", handler.RegisterPatient)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
	if body := decodeError(t, rr); body["error"] != "invalid_request" {
		t.Errorf("Expected invalid_request, got %v", body)
	}
}

func TestHandler_ServiceErrorMapping(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantMsg    string
	}{
		{"Validation", ErrFormNumberInUse, http.StatusBadRequest, "validation_error", "Form number already in use"},
		{"Not found", ErrPatientNotFound, http.StatusNotFound, "not_found", "No such patient"},
		{"Conflict", ErrPaymentComplete, http.StatusConflict, "conflict", "Payment is already complete. No further updates allowed."},
		{"Untyped", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error", "Internal server error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc := &mockService{
				getPatientFunc: func(ctx context.Context, id string) (*Patient, error) {
					return nil, tc.err
				},
			}
			handler := NewHandler(mockSvc, nil)

			rr := doRequest(t, http.MethodGet, "/api/patients/{id}", "/api/patients/p-1", nil, handler.GetPatient)

			if rr.Code != tc.wantStatus {
				t.Fatalf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			body := decodeError(t, rr)
			if body["error"] != tc.wantType || body["message"] != tc.wantMsg {
				t.Errorf("Unexpected error body %v", body)
			}
		})
	}
}

func TestHandlerListPatients_BareArray(t *testing.T) {
	mockSvc := &mockService{
		listPatientsFunc: func(ctx context.Context) ([]Patient, error) {
			return nil, nil
		},
	}
	handler := NewHandler(mockSvc, nil)

	rr := doRequest(t, http.MethodGet, "/api/patients", "/api/patients", nil, handler.ListPatients)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if got := bytes.TrimSpace(rr.Body.Bytes()); string(got) != "[]" {
		t.Errorf("Expected empty JSON array, got %s", got)
	}
}

func TestHandlerListPatients_Paginated(t *testing.T) {
	var gotParams pagination.Params
	mockSvc := &mockService{
		listPatientsWithPaginationFunc: func(ctx context.Context, params pagination.Params) (*PaginatedPatientListResponse, error) {
			gotParams = params
			return &PaginatedPatientListResponse{
				Patients:   []Patient{{ID: "p-1"}},
				Pagination: params.Meta(1),
			}, nil
		},
	}
	handler := NewHandler(mockSvc, nil)

	rr := doRequest(t, http.MethodGet, "/api/patients", "/api/patients?page=2&limit=5", nil, handler.ListPatients)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if gotParams.Page != 2 || gotParams.Limit != 5 {
		t.Errorf("Expected page 2 limit 5, got %+v", gotParams)
	}
	var resp PaginatedPatientListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Patients) != 1 {
		t.Errorf("Expected one patient, got %d", len(resp.Patients))
	}
}

func TestHandlerGetPatientByFormNumber(t *testing.T) {
	mockSvc := &mockService{
		getPatientByFormNumberFunc: func(ctx context.Context, formNumber string) (*Patient, error) {
			if formNumber != "F001" {
				t.Errorf("Expected form number F001, got %s", formNumber)
			}
			return &Patient{ID: "p-1", FormNumber: formNumber}, nil
		},
	}
	handler := NewHandler(mockSvc, nil)

	rr := doRequest(t, http.MethodGet, "/api/patients/form/{formNumber}", "/api/patients/form/F001", nil, handler.GetPatientByFormNumber)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
}

func TestHandlerAddVisit_Created(t *testing.T) {
	mockSvc := &mockService{
		addVisitFunc: func(ctx context.Context, id string, req AddVisitRequest) (*Patient, error) {
			if id != "p-1" || req.FormNumber != "F002" {
				t.Errorf("Unexpected arguments id=%s form=%s", id, req.FormNumber)
			}
			return &Patient{ID: id}, nil
		},
	}
	handler := NewHandler(mockSvc, nil)

	rr := doRequest(t, http.MethodPost, "/api/patients/{id}/visit", "/api/patients/p-1/visit",
		AddVisitRequest{FormNumber: "F002"}, handler.AddVisit)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rr.Code)
	}
}

func TestHandlerApplyPayment_PassesCategoryAndContribution(t *testing.T) {
	mockSvc := &mockService{
		applyPaymentFunc: func(ctx context.Context, id, visitID string, category Category, c Contribution) (*Patient, error) {
			if id != "p-1" || visitID != "v-1" {
				t.Errorf("Unexpected ids %s/%s", id, visitID)
			}
			if category != CategoryRegistration {
				t.Errorf("Expected registration, got %s", category)
			}
			if c.LRD == nil || *c.LRD != 300 || c.PercentagePaid == nil || *c.PercentagePaid != 60 {
				t.Errorf("Unexpected contribution %+v", c)
			}
			if c.USD != nil {
				t.Error("Expected absent USD to stay nil")
			}
			return &Patient{ID: id}, nil
		},
	}
	handler := NewHandler(mockSvc, nil)

	body := `{"type":"registration","LRD":300,"percentagePaid":60,"totalAmount":{"LRD":500,"USD":0}}`
	rr := doRequest(t, http.MethodPut, "/api/patients/{id}/visits/{visitId}/payment", "/api/patients/p-1/visits/v-1/payment", body, handler.ApplyPayment)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandlerUpdateLabOrdersAndResults_AbsentKeysStayNil(t *testing.T) {
	mockSvc := &mockService{
		updateLabOrdersAndResultsFunc: func(ctx context.Context, id, visitID string, update LaboratoryUpdate) (*Patient, error) {
			if update.HematologyLab == nil || !*update.HematologyLab {
				t.Error("Expected hematologyLab true")
			}
			if update.Ward != nil || update.Serology != nil {
				t.Error("Expected absent keys to be nil")
			}
			return &Patient{ID: id}, nil
		},
	}
	handler := NewHandler(mockSvc, nil)

	rr := doRequest(t, http.MethodPost, "/api/patients/{id}/visits/{visitId}/lab-results",
		"/api/patients/p-1/visits/v-1/lab-results", `{"hematologyLab":true}`, handler.UpdateLabOrdersAndResults)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
}

func TestHandlerUpdateLaboratoryData_WrappedPayload(t *testing.T) {
	mockSvc := &mockService{
		updateLaboratoryDataFunc: func(ctx context.Context, id, visitID string, update LaboratoryUpdate) (*Patient, error) {
			if id != "p-1" || visitID != "v-1" {
				t.Errorf("Unexpected ids %s/%s", id, visitID)
			}
			if update.Ward == nil || *update.Ward != "W1" {
				t.Errorf("Expected ward W1, got %v", update.Ward)
			}
			if update.HematologyLab == nil || !*update.HematologyLab {
				t.Error("Expected hematologyLab true")
			}
			return &Patient{ID: id}, nil
		},
	}
	handler := NewHandler(mockSvc, nil)

	rr := doRequest(t, http.MethodPatch, "/api/patients/{id}/visits/{visitId}/laboratory",
		"/api/patients/p-1/visits/v-1/laboratory", `{"laboratoryData":{"ward":"W1","hematologyLab":true}}`, handler.UpdateLaboratoryData)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandlerAddProgressNote_DefaultsAuthorToCaller(t *testing.T) {
	var gotAuthor string
	mockSvc := &mockService{
		addProgressNoteFunc: func(ctx context.Context, id, note, author string) (*Patient, error) {
			gotAuthor = author
			return &Patient{ID: id}, nil
		},
	}
	handler := NewHandler(mockSvc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/patients/p-1/progress", bytes.NewBufferString(`{"note":"Stable"}`))
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), &auth.Principal{UserID: "e-1", UserType: "doctor"}))
	req = mux.SetURLVars(req, map[string]string{"id": "p-1"})
	rr := httptest.NewRecorder()

	handler.AddProgressNote(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if gotAuthor != "doctor" {
		t.Errorf("Expected author doctor, got %q", gotAuthor)
	}
}

func TestHandlerSetProgress(t *testing.T) {
	mockSvc := &mockService{
		setProgressFunc: func(ctx context.Context, id string, progress Progress) (*Patient, error) {
			if progress != ProgressTreatmentCompleted {
				t.Errorf("Unexpected progress %q", progress)
			}
			return &Patient{ID: id}, nil
		},
	}
	handler := NewHandler(mockSvc, nil)

	rr := doRequest(t, http.MethodPut, "/api/patients/{id}/progress", "/api/patients/p-1/progress",
		SetProgressRequest{Progress: ProgressTreatmentCompleted}, handler.SetProgress)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
}
