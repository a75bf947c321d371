package patient

import (
	"errors"

	"github.com/jalh2/healthyubackend/internal/apperror"
)

// Service level failures, surfaced to callers as typed errors.
var (
	ErrMissingFields          = apperror.Validation("Please fill in all required fields")
	ErrInvalidSex             = apperror.Validation("Invalid sex")
	ErrInvalidAge             = apperror.Validation("Invalid age")
	ErrFormNumberInUse        = apperror.Validation("Form number already in use")
	ErrFormNumberRequired     = apperror.Validation("Form number is required")
	ErrEmptyUpdate            = apperror.Validation("No fields to update")
	ErrInvalidProgress        = apperror.Validation("Invalid progress value")
	ErrInvalidPaymentType     = apperror.Validation("Invalid payment type")
	ErrNegativeAmount         = apperror.Validation("Payment amounts and percentage must be non-negative numbers")
	ErrMissingNote            = apperror.Validation("Note is required")
	ErrMissingPrescription    = apperror.Validation("Prescription is required")
	ErrPatientNotFound        = apperror.NotFound("No such patient")
	ErrVisitNotFound          = apperror.NotFound("Visit not found")
	ErrNoVisits               = apperror.NotFound("Patient has no visits")
	ErrPaymentComplete        = apperror.Conflict("Payment is already complete. No further updates allowed.")
	ErrConcurrentModification = apperror.Conflict("Patient was modified concurrently, please retry")
)

// Store level failures returned by repositories.
var (
	ErrNotFound            = errors.New("patient not found")
	ErrDuplicateFormNumber = errors.New("form number already exists")
	ErrRevisionConflict    = errors.New("patient revision conflict")
)
