package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/jalh2/healthyubackend/internal/auth"
	"github.com/jalh2/healthyubackend/internal/employee"
	"github.com/jalh2/healthyubackend/internal/patient"
)

const serviceName = "healthyu-backend"

// AuthMetrics records token and permission failures.
type AuthMetrics interface {
	auth.MetricsRecorder
	auth.PermissionMetricsRecorder
}

// Dependencies is everything SetupRouter wires together.
type Dependencies struct {
	Patients    patient.ServiceInterface
	Employees   employee.ServiceInterface
	Verifier    auth.TokenVerifier
	Permissions auth.Permissions
	AuthMetrics AuthMetrics
	HTTPMetrics *Metrics
	RateLimit   RateLimitConfig
	Logger      *zap.Logger
}

// SetupRouter initializes all routes for the application
func SetupRouter(deps Dependencies) *mux.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	patientHandler := patient.NewHandler(deps.Patients, logger.Named("patient"))
	employeeHandler := employee.NewHandler(deps.Employees)

	r := mux.NewRouter()
	r.Use(otelmux.Middleware(serviceName))
	r.Use(RequestLogger(logger.Named("http")))
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Middleware)
		r.Handle("/metrics", deps.HTTPMetrics.Handler()).Methods("GET")
	}

	// Public health endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"` + serviceName + `"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Employee credentials are public but throttled per client
	employees := api.PathPrefix("/employee").Subrouter()
	employees.Use(RateLimit(deps.RateLimit))
	employees.HandleFunc("/signup", employeeHandler.Signup).Methods("POST")
	employees.HandleFunc("/login", employeeHandler.Login).Methods("POST")

	authenticate := auth.MiddlewareWithMetrics(deps.Verifier, deps.AuthMetrics)
	protect := func(permission string, h http.HandlerFunc) http.Handler {
		return authenticate(auth.RequirePermissionWithMetrics(permission, deps.Permissions, deps.AuthMetrics)(h))
	}

	// Registration desk
	api.Handle("/patients", protect("patient:register", patientHandler.RegisterPatient)).Methods("POST")
	api.Handle("/patients", protect("patient:view", patientHandler.ListPatients)).Methods("GET")
	api.Handle("/patients/form/{formNumber}", protect("patient:view", patientHandler.GetPatientByFormNumber)).Methods("GET")
	api.Handle("/patients/{id}", protect("patient:view", patientHandler.GetPatient)).Methods("GET")
	api.Handle("/patients/{id}/basic-info", protect("patient:view", patientHandler.GetBasicInfo)).Methods("GET")
	api.Handle("/patients/{id}", protect("patient:update", patientHandler.UpdatePatientInfo)).Methods("PUT", "PATCH")
	api.Handle("/patients/{id}/visit", protect("visit:create", patientHandler.AddVisit)).Methods("POST")

	// Clinical work on a visit
	api.Handle("/patients/{id}/visits/{visitId}", protect("visit:update", patientHandler.UpdateVisit)).Methods("PUT")
	api.Handle("/patients/{id}/visits/{visitId}/doctor-notes", protect("visit:notes", patientHandler.UpdateDoctorNotes)).Methods("PUT")
	api.Handle("/patients/{id}/prescription", protect("visit:prescribe", patientHandler.UpdatePrescription)).Methods("POST")

	// Laboratory
	api.Handle("/patients/{id}/visits/{visitId}/lab-results", protect("lab:update", patientHandler.UpdateLabOrdersAndResults)).Methods("POST")
	api.Handle("/patients/{id}/visits/{visitId}/laboratory", protect("lab:update", patientHandler.UpdateLaboratoryData)).Methods("PATCH")
	api.Handle("/patients/{id}/lab-tests", protect("lab:update", patientHandler.UpdateLabTests)).Methods("POST")

	// Cashier
	api.Handle("/patients/{id}/visits/{visitId}/payment", protect("payment:apply", patientHandler.ApplyPayment)).Methods("PUT")

	// Workflow
	api.Handle("/patients/{id}/progress", protect("progress:note", patientHandler.AddProgressNote)).Methods("POST")
	api.Handle("/patients/{id}/progress", protect("progress:set", patientHandler.SetProgress)).Methods("PUT")

	return r
}
