package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jalh2/healthyubackend/internal/apperror"
	"github.com/jalh2/healthyubackend/internal/messaging"
	"github.com/jalh2/healthyubackend/internal/pagination"
)

var tracer = otel.Tracer("github.com/jalh2/healthyubackend/patient")

// maxSaveAttempts bounds the reload-and-reapply loop on revision conflicts.
const maxSaveAttempts = 3

// MetricsRecorder is the subset of telemetry.Metrics used by the service.
type MetricsRecorder interface {
	RecordPatientOperation(ctx context.Context, operation string, success bool)
	RecordPayment(ctx context.Context, category, outcome string, percentagePaid float64)
	RecordProgressChange(ctx context.Context, progress string)
}

type Service struct {
	repo      RepositoryInterface
	publisher messaging.PublisherInterface
	metrics   MetricsRecorder
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewService(repo RepositoryInterface, publisher messaging.PublisherInterface, metrics MetricsRecorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = messaging.NewNopPublisher(logger)
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.Named("patient"),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

func (s *Service) RegisterPatient(ctx context.Context, req RegisterPatientRequest) (*Patient, error) {
	ctx, span := s.startSpan(ctx, "RegisterPatient", attribute.String("patient.form_number", req.FormNumber))
	defer span.End()

	p, err := s.registerPatient(ctx, req)
	s.finish(ctx, span, "register", err)
	return p, err
}

func (s *Service) registerPatient(ctx context.Context, req RegisterPatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureFormNumberFree(ctx, req.FormNumber); err != nil {
		return nil, err
	}

	now := s.now()
	first := s.newVisit(req.FormNumber, req.Vitals, req.SymptomsA, req.IsEyeDoctor, nil, now)
	p := &Patient{
		ID:            s.newID(),
		FormNumber:    req.FormNumber,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Age:           req.Age,
		Sex:           req.Sex,
		Address:       req.Address,
		ContactNumber: req.ContactNumber,
		Visits:        []Visit{first},
		ProgressNotes: []ProgressNote{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrDuplicateFormNumber) {
			return nil, ErrFormNumberInUse
		}
		return nil, apperror.Internal("failed to create patient", err)
	}

	s.logger.Info("patient registered",
		zap.String("patient_id", p.ID),
		zap.String("visit_id", first.ID),
	)
	s.publish(ctx, messaging.EventPatientRegistered, messaging.PatientRegisteredEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventPatientRegistered),
		Data: messaging.PatientRegisteredData{
			PatientID:    p.ID,
			FormNumber:   p.FormNumber,
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			FirstVisitID: first.ID,
			CreatedAt:    p.CreatedAt,
		},
	})
	return p, nil
}

// ensureFormNumberFreeFor is ensureFormNumberFree for a number p itself may
// already carry on one of its own visits.
func (s *Service) ensureFormNumberFreeFor(ctx context.Context, p *Patient, formNumber string) error {
	existing, err := s.repo.GetByFormNumber(ctx, formNumber)
	switch {
	case err == nil && existing.ID != p.ID:
		return ErrFormNumberInUse
	case err != nil && !errors.Is(err, ErrNotFound):
		return apperror.Internal("failed to check form number", err)
	}

	if p.HasVisitFormNumber(formNumber) {
		return nil
	}
	used, err := s.repo.VisitFormNumberExists(ctx, formNumber)
	if err != nil {
		return apperror.Internal("failed to check form number", err)
	}
	if used {
		return ErrFormNumberInUse
	}
	return nil
}

// ensureFormNumberFree rejects a form number already used by a patient or by
// any visit.
func (s *Service) ensureFormNumberFree(ctx context.Context, formNumber string) error {
	_, err := s.repo.GetByFormNumber(ctx, formNumber)
	switch {
	case err == nil:
		return ErrFormNumberInUse
	case !errors.Is(err, ErrNotFound):
		return apperror.Internal("failed to check form number", err)
	}

	used, err := s.repo.VisitFormNumberExists(ctx, formNumber)
	if err != nil {
		return apperror.Internal("failed to check form number", err)
	}
	if used {
		return ErrFormNumberInUse
	}
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id string) (*Patient, error) {
	ctx, span := s.startSpan(ctx, "GetPatient", attribute.String("patient.id", id))
	defer span.End()

	p, err := s.load(ctx, id)
	s.finish(ctx, span, "get", err)
	return p, err
}

func (s *Service) GetPatientByFormNumber(ctx context.Context, formNumber string) (*Patient, error) {
	ctx, span := s.startSpan(ctx, "GetPatientByFormNumber", attribute.String("patient.form_number", formNumber))
	defer span.End()

	p, err := s.repo.GetByFormNumber(ctx, formNumber)
	if err != nil {
		err = storeError(err, "failed to get patient")
	}
	s.finish(ctx, span, "get_by_form_number", err)
	return p, err
}

func (s *Service) GetBasicInfo(ctx context.Context, id string) (*BasicInfo, error) {
	ctx, span := s.startSpan(ctx, "GetBasicInfo", attribute.String("patient.id", id))
	defer span.End()

	p, err := s.load(ctx, id)
	s.finish(ctx, span, "get_basic_info", err)
	if err != nil {
		return nil, err
	}
	info := p.BasicInfo()
	return &info, nil
}

func (s *Service) ListPatients(ctx context.Context) ([]Patient, error) {
	ctx, span := s.startSpan(ctx, "ListPatients")
	defer span.End()

	patients, err := s.repo.List(ctx, 0, 0)
	if err != nil {
		err = apperror.Internal("failed to list patients", err)
	}
	s.finish(ctx, span, "list", err)
	return patients, err
}

func (s *Service) ListPatientsWithPagination(ctx context.Context, params pagination.Params) (*PaginatedPatientListResponse, error) {
	ctx, span := s.startSpan(ctx, "ListPatientsWithPagination")
	defer span.End()

	params.Normalize()

	total, err := s.repo.Count(ctx)
	if err != nil {
		err = apperror.Internal("failed to count patients", err)
		s.finish(ctx, span, "list", err)
		return nil, err
	}

	patients, err := s.repo.List(ctx, params.Limit, params.Skip())
	if err != nil {
		err = apperror.Internal("failed to list patients", err)
		s.finish(ctx, span, "list", err)
		return nil, err
	}

	s.finish(ctx, span, "list", nil)
	return &PaginatedPatientListResponse{
		Patients:   patients,
		Pagination: params.Meta(total),
	}, nil
}

func (s *Service) UpdatePatientInfo(ctx context.Context, id string, req UpdatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.mutate(ctx, "update_patient", id, func(p *Patient, m *mutation) error {
		if req.FormNumber != nil && *req.FormNumber != p.FormNumber {
			if err := s.ensureFormNumberFreeFor(ctx, p, *req.FormNumber); err != nil {
				return err
			}
		}
		req.apply(p)
		m.emit(messaging.EventPatientUpdated, messaging.PatientUpdatedEvent{
			BaseEvent: messaging.NewBaseEvent(messaging.EventPatientUpdated),
			Data: messaging.PatientUpdatedData{
				PatientID:  p.ID,
				FormNumber: p.FormNumber,
				UpdatedAt:  m.now,
			},
		})
		return nil
	})
	return p, err
}

func (s *Service) AddVisit(ctx context.Context, id string, req AddVisitRequest) (*Patient, error) {
	if req.FormNumber == "" {
		return nil, ErrFormNumberRequired
	}

	return s.mutate(ctx, "add_visit", id, func(p *Patient, m *mutation) error {
		used, err := s.repo.VisitFormNumberExists(ctx, req.FormNumber)
		if err != nil {
			return apperror.Internal("failed to check form number", err)
		}
		if used || p.HasVisitFormNumber(req.FormNumber) {
			return ErrFormNumberInUse
		}
		v := s.newVisit(req.FormNumber, req.Vitals, req.SymptomsA, req.IsEyeDoctor, req.EyeDoctorData, m.now)
		p.Visits = append(p.Visits, v)
		m.emit(messaging.EventVisitCreated, messaging.VisitCreatedEvent{
			BaseEvent: messaging.NewBaseEvent(messaging.EventVisitCreated),
			Data: messaging.VisitCreatedData{
				PatientID:  p.ID,
				VisitID:    v.ID,
				FormNumber: v.FormNumber,
				VisitDate:  v.VisitDate,
			},
		})
		return nil
	})
}

func (s *Service) UpdateVisit(ctx context.Context, id, visitID string, req UpdateVisitRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, "update_visit", id, func(p *Patient, m *mutation) error {
		v, err := p.Visit(visitID)
		if err != nil {
			return err
		}
		req.apply(v)
		if req.Progress != nil {
			m.setProgress(v, *req.Progress)
		}
		m.touch(v)
		return nil
	})
}

// UpdateLabOrdersAndResults replaces the lab orders of a visit and records any
// provided result panels. Ordering a lab test moves the visit to
// "Laboratory tests ordered", or "Laboratory tests completed" when results
// arrive in the same call.
func (s *Service) UpdateLabOrdersAndResults(ctx context.Context, id, visitID string, update LaboratoryUpdate) (*Patient, error) {
	return s.mutate(ctx, "update_lab_results", id, func(p *Patient, m *mutation) error {
		v, err := p.Visit(visitID)
		if err != nil {
			return err
		}
		update.ReplaceOrders(&v.LaboratoryData)
		if next, ok := LabProgress(&update); ok {
			m.setProgress(v, next)
		}
		m.touch(v)
		return nil
	})
}

// UpdateLaboratoryData merges the supplied keys into the visit lab data
// without touching progress.
func (s *Service) UpdateLaboratoryData(ctx context.Context, id, visitID string, update LaboratoryUpdate) (*Patient, error) {
	if update.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	return s.mutate(ctx, "update_lab_data", id, func(p *Patient, m *mutation) error {
		v, err := p.Visit(visitID)
		if err != nil {
			return err
		}
		update.Merge(&v.LaboratoryData)
		m.touch(v)
		return nil
	})
}

// UpdateLabTests replaces the lab data of the latest visit wholesale and
// optionally sets its progress.
func (s *Service) UpdateLabTests(ctx context.Context, id string, req UpdateLabTestsRequest) (*Patient, error) {
	if req.Progress != nil && !req.Progress.IsValid() {
		return nil, ErrInvalidProgress
	}

	return s.mutate(ctx, "update_lab_tests", id, func(p *Patient, m *mutation) error {
		v, err := p.LatestVisit()
		if err != nil {
			return err
		}
		v.LaboratoryData = req.LaboratoryData
		if req.Progress != nil {
			m.setProgress(v, *req.Progress)
		}
		m.touch(v)
		return nil
	})
}

func (s *Service) UpdateDoctorNotes(ctx context.Context, id, visitID string, notes MedicalNotes) (*Patient, error) {
	return s.mutate(ctx, "update_doctor_notes", id, func(p *Patient, m *mutation) error {
		v, err := p.Visit(visitID)
		if err != nil {
			return err
		}
		v.MedicalNotes = notes
		m.touch(v)
		return nil
	})
}

// UpdatePrescription records a prescription on the latest visit and moves it
// to the awaiting medication payment stage.
func (s *Service) UpdatePrescription(ctx context.Context, id, prescription string) (*Patient, error) {
	if prescription == "" {
		return nil, ErrMissingPrescription
	}

	return s.mutate(ctx, "update_prescription", id, func(p *Patient, m *mutation) error {
		v, err := p.LatestVisit()
		if err != nil {
			return err
		}
		v.MedicalNotes.Prescription = prescription
		m.setProgress(v, ProgressPrescriptionIssued)
		m.touch(v)
		return nil
	})
}

// ApplyPayment records a contribution on one category of a visit ledger.
func (s *Service) ApplyPayment(ctx context.Context, id, visitID string, category Category, c Contribution) (*Patient, error) {
	if !category.IsValid() {
		s.metrics.RecordPayment(ctx, string(category), "rejected", 0)
		return nil, ErrInvalidPaymentType
	}

	var percentage float64
	p, err := s.mutate(ctx, "apply_payment", id, func(p *Patient, m *mutation) error {
		v, err := p.Visit(visitID)
		if err != nil {
			return err
		}
		ledger, err := v.Payments.For(category)
		if err != nil {
			return err
		}
		if err := ledger.Apply(c, m.now); err != nil {
			return err
		}
		if next, ok := PaymentProgress(category, ledger); ok {
			m.setProgress(v, next)
		}
		m.touch(v)

		percentage = ledger.PercentagePaid
		m.emit(messaging.EventPaymentApplied, messaging.PaymentAppliedEvent{
			BaseEvent: messaging.NewBaseEvent(messaging.EventPaymentApplied),
			Data: messaging.PaymentAppliedData{
				PatientID:      p.ID,
				VisitID:        v.ID,
				Category:       string(category),
				LRD:            ledger.LRD,
				USD:            ledger.USD,
				PercentagePaid: ledger.PercentagePaid,
				Paid:           ledger.Paid,
				AppliedAt:      m.now,
			},
		})
		return nil
	})
	if err != nil {
		s.metrics.RecordPayment(ctx, string(category), "rejected", 0)
		return nil, err
	}

	s.metrics.RecordPayment(ctx, string(category), "accepted", percentage)
	s.logger.Info("payment applied",
		zap.String("patient_id", id),
		zap.String("visit_id", visitID),
		zap.String("category", string(category)),
		zap.Float64("percentage_paid", percentage),
	)
	return p, nil
}

func (s *Service) AddProgressNote(ctx context.Context, id, note, author string) (*Patient, error) {
	if note == "" {
		return nil, ErrMissingNote
	}

	return s.mutate(ctx, "add_progress_note", id, func(p *Patient, m *mutation) error {
		p.ProgressNotes = append(p.ProgressNotes, ProgressNote{
			Date:      m.now,
			Note:      note,
			UpdatedBy: author,
		})
		return nil
	})
}

// SetProgress sets the latest visit to any known label. No ordering check.
func (s *Service) SetProgress(ctx context.Context, id string, progress Progress) (*Patient, error) {
	if !progress.IsValid() {
		return nil, ErrInvalidProgress
	}

	return s.mutate(ctx, "set_progress", id, func(p *Patient, m *mutation) error {
		v, err := p.LatestVisit()
		if err != nil {
			return err
		}
		m.setProgress(v, progress)
		m.touch(v)
		return nil
	})
}

func (s *Service) newVisit(formNumber string, vitals *Vitals, symptoms *Symptoms, isEyeDoctor bool, eye *EyeDoctorData, now time.Time) Visit {
	v := Visit{
		ID:          s.newID(),
		VisitDate:   now,
		FormNumber:  formNumber,
		IsEyeDoctor: isEyeDoctor,
		Progress:    DefaultProgress,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if vitals != nil {
		v.Vitals = *vitals
	}
	if symptoms != nil {
		v.SymptomsA = *symptoms
	}
	if eye != nil {
		v.EyeDoctorData = *eye
	}
	return v
}

func (s *Service) load(ctx context.Context, id string) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "failed to load patient")
	}
	return p, nil
}

// mutation collects the side effects of one attempt. A fresh one is used for
// every retry so a conflicting attempt leaves nothing behind.
type mutation struct {
	now     time.Time
	changes []progressChange
	events  []pendingEvent
}

type progressChange struct {
	visitID  string
	from, to Progress
}

type pendingEvent struct {
	routingKey string
	payload    interface{}
}

func (m *mutation) setProgress(v *Visit, to Progress) {
	if v.Progress == to {
		return
	}
	m.changes = append(m.changes, progressChange{visitID: v.ID, from: v.Progress, to: to})
	v.Progress = to
}

func (m *mutation) touch(v *Visit) {
	v.UpdatedAt = m.now
}

func (m *mutation) emit(routingKey string, payload interface{}) {
	m.events = append(m.events, pendingEvent{routingKey: routingKey, payload: payload})
}

// mutate runs a load, apply, compare-and-swap save cycle. On a revision
// conflict the aggregate is reloaded and fn re-applied.
func (s *Service) mutate(ctx context.Context, operation, id string, fn func(p *Patient, m *mutation) error) (*Patient, error) {
	ctx, span := s.startSpan(ctx, operation, attribute.String("patient.id", id))
	defer span.End()

	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		p, err := s.load(ctx, id)
		if err != nil {
			s.finish(ctx, span, operation, err)
			return nil, err
		}

		m := &mutation{now: s.now()}
		if err := fn(p, m); err != nil {
			s.finish(ctx, span, operation, err)
			return nil, err
		}
		p.UpdatedAt = m.now

		err = s.repo.Save(ctx, p)
		if err == nil {
			s.finish(ctx, span, operation, nil)
			s.afterCommit(ctx, p.ID, m)
			return p, nil
		}
		if errors.Is(err, ErrRevisionConflict) {
			s.logger.Warn("revision conflict, retrying",
				zap.String("patient_id", id),
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if errors.Is(err, ErrDuplicateFormNumber) {
			err = ErrFormNumberInUse
		} else {
			err = storeError(err, "failed to save patient")
		}
		s.finish(ctx, span, operation, err)
		return nil, err
	}

	s.finish(ctx, span, operation, ErrConcurrentModification)
	return nil, ErrConcurrentModification
}

func (s *Service) afterCommit(ctx context.Context, patientID string, m *mutation) {
	for _, c := range m.changes {
		s.metrics.RecordProgressChange(ctx, string(c.to))
		s.publish(ctx, messaging.EventVisitProgressChanged, messaging.VisitProgressChangedEvent{
			BaseEvent: messaging.NewBaseEvent(messaging.EventVisitProgressChanged),
			Data: messaging.VisitProgressChangedData{
				PatientID:   patientID,
				VisitID:     c.visitID,
				OldProgress: string(c.from),
				NewProgress: string(c.to),
				ChangedAt:   m.now,
			},
		})
	}
	for _, e := range m.events {
		s.publish(ctx, e.routingKey, e.payload)
	}
}

// publish never fails the request; the aggregate is already committed.
func (s *Service) publish(ctx context.Context, routingKey string, payload interface{}) {
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "patient."+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

func (s *Service) finish(ctx context.Context, span trace.Span, operation string, err error) {
	s.metrics.RecordPatientOperation(ctx, operation, err == nil)
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetAttributes(attribute.String("error.kind", string(apperror.KindOf(err))))
	span.SetStatus(codes.Error, err.Error())
	if apperror.Is(err, apperror.KindInternal) {
		s.logger.Error("patient operation failed", zap.String("operation", operation), zap.Error(err))
	}
}

func storeError(err error, message string) error {
	if errors.Is(err, ErrNotFound) {
		return ErrPatientNotFound
	}
	return apperror.Internal(message, err)
}

type nopMetrics struct{}

func (nopMetrics) RecordPatientOperation(context.Context, string, bool)   {}
func (nopMetrics) RecordPayment(context.Context, string, string, float64) {}
func (nopMetrics) RecordProgressChange(context.Context, string)           {}
