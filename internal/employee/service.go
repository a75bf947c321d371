package employee

import (
	"context"
	"crypto/subtle"
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
)

var tracer = otel.Tracer("github.com/jalh2/healthyubackend/employee")

// TokenIssuer mints the session token handed out on signup and login.
type TokenIssuer interface {
	Issue(employeeID, userType string) (string, error)
}

// MetricsRecorder is the subset of telemetry.Metrics used by the service.
type MetricsRecorder interface {
	RecordEmployeeAuth(ctx context.Context, action, userType string, success bool)
}

type Service struct {
	repo      RepositoryInterface
	cipher    *Cipher
	tokens    TokenIssuer
	publisher messaging.PublisherInterface
	metrics   MetricsRecorder
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo RepositoryInterface, cipher *Cipher, tokens TokenIssuer, publisher messaging.PublisherInterface, metrics MetricsRecorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = messaging.NewNopPublisher(logger)
	}
	return &Service{
		repo:      repo,
		cipher:    cipher,
		tokens:    tokens,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.Named("employee"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "employee.Signup",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("employee.user_type", string(req.UserType))),
	)
	defer span.End()

	res, err := s.signup(ctx, req)
	s.record(ctx, span, "signup", req.UserType, err)
	return res, err
}

func (s *Service) signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	if req.UserType == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if !req.UserType.IsValid() {
		return nil, ErrInvalidUserType
	}

	_, err := s.repo.GetByUserType(ctx, req.UserType)
	switch {
	case err == nil:
		return nil, ErrUserTypeExists
	case !errors.Is(err, ErrNotFound):
		return nil, apperror.Internal("failed to look up employee", err)
	}

	ciphertext, err := s.cipher.Encrypt(req.Password)
	if err != nil {
		return nil, apperror.Internal("failed to encrypt password", err)
	}

	now := s.now()
	e := &Employee{
		ID:        uuid.NewString(),
		UserType:  req.UserType,
		Password:  ciphertext,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		if errors.Is(err, ErrDuplicateUserType) {
			return nil, ErrUserTypeExists
		}
		return nil, apperror.Internal("failed to create employee", err)
	}

	token, err := s.tokens.Issue(e.ID, string(e.UserType))
	if err != nil {
		return nil, apperror.Internal("failed to issue token", err)
	}

	s.logger.Info("✓ employee signed up", zap.String("employee_id", e.ID), zap.String("user_type", string(e.UserType)))

	event := messaging.EmployeeSignedUpEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventEmployeeSignedUp),
		Data: messaging.EmployeeSignedUpData{
			EmployeeID: e.ID,
			UserType:   string(e.UserType),
			CreatedAt:  e.CreatedAt,
		},
	}
	if err := s.publisher.Publish(ctx, messaging.EventEmployeeSignedUp, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("routing_key", messaging.EventEmployeeSignedUp), zap.Error(err))
	}

	return &AuthResult{UserType: e.UserType, Token: token}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "employee.Login",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("employee.user_type", string(req.UserType))),
	)
	defer span.End()

	res, err := s.login(ctx, req)
	s.record(ctx, span, "login", req.UserType, err)
	return res, err
}

func (s *Service) login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if req.UserType == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	e, err := s.repo.GetByUserType(ctx, req.UserType)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownUserType
		}
		return nil, apperror.Internal("failed to look up employee", err)
	}

	// every decrypt failure reads as a wrong password
	plain, err := s.cipher.Decrypt(e.Password)
	if err != nil || subtle.ConstantTimeCompare([]byte(plain), []byte(req.Password)) != 1 {
		return nil, ErrIncorrectPassword
	}

	token, err := s.tokens.Issue(e.ID, string(e.UserType))
	if err != nil {
		return nil, apperror.Internal("failed to issue token", err)
	}
	return &AuthResult{UserType: e.UserType, Token: token}, nil
}

func (s *Service) record(ctx context.Context, span trace.Span, action string, userType UserType, err error) {
	if s.metrics != nil {
		s.metrics.RecordEmployeeAuth(ctx, action, string(userType), err == nil)
	}
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetAttributes(attribute.String("error.kind", string(apperror.KindOf(err))))
	span.SetStatus(codes.Error, apperror.Message(err))
	if apperror.Is(err, apperror.KindInternal) {
		s.logger.Error("employee operation failed", zap.String("action", action), zap.Error(err))
	}
}
