package patient

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jalh2/healthyubackend/internal/apperror"
	"github.com/jalh2/healthyubackend/internal/auth"
	"github.com/jalh2/healthyubackend/internal/pagination"
)

type Handler struct {
	service ServiceInterface
	logger  *zap.Logger
}

func NewHandler(service ServiceInterface, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req RegisterPatientRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.service.RegisterPatient(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// ListPatients returns a bare array unless page or limit is supplied.
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	if pagination.Requested(r) {
		resp, err := h.service.ListPatientsWithPagination(r.Context(), pagination.ParseParams(r))
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, resp)
		return
	}

	patients, err := h.service.ListPatients(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if patients == nil {
		patients = []Patient{}
	}
	respondJSON(w, http.StatusOK, patients)
}

func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPatient(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) GetPatientByFormNumber(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPatientByFormNumber(r.Context(), mux.Vars(r)["formNumber"])
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) GetBasicInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetBasicInfo(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (h *Handler) UpdatePatientInfo(w http.ResponseWriter, r *http.Request) {
	var req UpdatePatientRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.service.UpdatePatientInfo(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) AddVisit(w http.ResponseWriter, r *http.Request) {
	var req AddVisitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.service.AddVisit(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateVisit(w http.ResponseWriter, r *http.Request) {
	var req UpdateVisitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	vars := mux.Vars(r)
	p, err := h.service.UpdateVisit(r.Context(), vars["id"], vars["visitId"], req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateLabOrdersAndResults(w http.ResponseWriter, r *http.Request) {
	var update LaboratoryUpdate
	if !decodeBody(w, r, &update) {
		return
	}

	vars := mux.Vars(r)
	p, err := h.service.UpdateLabOrdersAndResults(r.Context(), vars["id"], vars["visitId"], update)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// UpdateLaboratoryData expects the patch wrapped as {"laboratoryData": {...}}.
func (h *Handler) UpdateLaboratoryData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LaboratoryData LaboratoryUpdate `json:"laboratoryData"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	vars := mux.Vars(r)
	p, err := h.service.UpdateLaboratoryData(r.Context(), vars["id"], vars["visitId"], req.LaboratoryData)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateLabTests(w http.ResponseWriter, r *http.Request) {
	var req UpdateLabTestsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.service.UpdateLabTests(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateDoctorNotes(w http.ResponseWriter, r *http.Request) {
	var notes MedicalNotes
	if !decodeBody(w, r, &notes) {
		return
	}

	vars := mux.Vars(r)
	p, err := h.service.UpdateDoctorNotes(r.Context(), vars["id"], vars["visitId"], notes)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	vars := mux.Vars(r)
	p, err := h.service.ApplyPayment(r.Context(), vars["id"], vars["visitId"], req.Type, req.Contribution)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdatePrescription(w http.ResponseWriter, r *http.Request) {
	var req PrescriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.service.UpdatePrescription(r.Context(), mux.Vars(r)["id"], req.Prescription)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// AddProgressNote attributes the note to the caller's user type when the
// body does not name an author.
func (h *Handler) AddProgressNote(w http.ResponseWriter, r *http.Request) {
	var req ProgressNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	author := req.UpdatedBy
	if author == "" {
		if principal, ok := auth.FromContext(r.Context()); ok {
			author = principal.UserType
		}
	}

	p, err := h.service.AddProgressNote(r.Context(), mux.Vars(r)["id"], req.Note, author)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) SetProgress(w http.ResponseWriter, r *http.Request) {
	var req SetProgressRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.service.SetProgress(r.Context(), mux.Vars(r)["id"], req.Progress)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("patient request failed", zap.Error(err))
	}
	respondError(w, status, string(apperror.KindOf(err)), apperror.Message(err))
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   errorType,
		"message": message,
	})
}
