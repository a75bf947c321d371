package messaging

import (
	"time"

	"github.com/google/uuid"
)

// ServiceName is stamped on every event.
const ServiceName = "healthyu-backend"

// Event routing keys as constants
const (
	// Patient events
	EventPatientRegistered = "patient.registered"
	EventPatientUpdated    = "patient.updated"

	// Visit events
	EventVisitCreated         = "visit.created"
	EventVisitProgressChanged = "visit.progress_changed"
	EventPaymentApplied       = "payment.applied"

	// Employee events
	EventEmployeeSignedUp = "employee.signed_up"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
}

type PatientRegisteredEvent struct {
	BaseEvent
	Data PatientRegisteredData `json:"data"`
}

type PatientRegisteredData struct {
	PatientID    string    `json:"patient_id"`
	FormNumber   string    `json:"form_number"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	FirstVisitID string    `json:"first_visit_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type PatientUpdatedEvent struct {
	BaseEvent
	Data PatientUpdatedData `json:"data"`
}

type PatientUpdatedData struct {
	PatientID  string    `json:"patient_id"`
	FormNumber string    `json:"form_number"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type VisitCreatedEvent struct {
	BaseEvent
	Data VisitCreatedData `json:"data"`
}

type VisitCreatedData struct {
	PatientID  string    `json:"patient_id"`
	VisitID    string    `json:"visit_id"`
	FormNumber string    `json:"form_number"`
	VisitDate  time.Time `json:"visit_date"`
}

// VisitProgressChangedEvent is emitted whenever a visit moves to another stage.
type VisitProgressChangedEvent struct {
	BaseEvent
	Data VisitProgressChangedData `json:"data"`
}

type VisitProgressChangedData struct {
	PatientID   string    `json:"patient_id"`
	VisitID     string    `json:"visit_id"`
	OldProgress string    `json:"old_progress"`
	NewProgress string    `json:"new_progress"`
	ChangedAt   time.Time `json:"changed_at"`
}

type PaymentAppliedEvent struct {
	BaseEvent
	Data PaymentAppliedData `json:"data"`
}

type PaymentAppliedData struct {
	PatientID      string    `json:"patient_id"`
	VisitID        string    `json:"visit_id"`
	Category       string    `json:"category"`
	LRD            float64   `json:"lrd"`
	USD            float64   `json:"usd"`
	PercentagePaid float64   `json:"percentage_paid"`
	Paid           bool      `json:"paid"`
	AppliedAt      time.Time `json:"applied_at"`
}

type EmployeeSignedUpEvent struct {
	BaseEvent
	Data EmployeeSignedUpData `json:"data"`
}

type EmployeeSignedUpData struct {
	EmployeeID string    `json:"employee_id"`
	UserType   string    `json:"user_type"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		ServiceName: ServiceName,
	}
}
