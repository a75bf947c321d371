package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/jalh2/healthyubackend"

// Metrics holds all custom metrics for the service
type Metrics struct {
	// Business metrics
	PatientOperationsTotal metric.Int64Counter
	PaymentsTotal          metric.Int64Counter
	PaymentPercentage      metric.Float64Histogram
	ProgressChangesTotal   metric.Int64Counter
	EmployeeAuthTotal      metric.Int64Counter

	// Auth metrics
	AuthFailuresTotal       metric.Int64Counter
	PermissionCheckDuration metric.Float64Histogram
}

// InitMetrics registers the instruments on the global meter provider.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	patientOps, err := meter.Int64Counter(
		"patient_operations_total",
		metric.WithDescription("Total number of patient record operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	payments, err := meter.Int64Counter(
		"payments_total",
		metric.WithDescription("Payment contributions by category and outcome"),
		metric.WithUnit("{payment}"),
	)
	if err != nil {
		return nil, err
	}

	paymentPercentage, err := meter.Float64Histogram(
		"payment_percentage_paid",
		metric.WithDescription("Ledger percentage after an accepted contribution"),
		metric.WithUnit("%"),
	)
	if err != nil {
		return nil, err
	}

	progressChanges, err := meter.Int64Counter(
		"visit_progress_changes_total",
		metric.WithDescription("Visit progress transitions by target stage"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	employeeAuth, err := meter.Int64Counter(
		"employee_auth_total",
		metric.WithDescription("Employee signups and logins by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	authFailures, err := meter.Int64Counter(
		"auth_failures_total",
		metric.WithDescription("Total number of authentication failures"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	permissionCheck, err := meter.Float64Histogram(
		"permission_check_duration_ms",
		metric.WithDescription("Permission check duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		PatientOperationsTotal:  patientOps,
		PaymentsTotal:           payments,
		PaymentPercentage:       paymentPercentage,
		ProgressChangesTotal:    progressChanges,
		EmployeeAuthTotal:       employeeAuth,
		AuthFailuresTotal:       authFailures,
		PermissionCheckDuration: permissionCheck,
	}, nil
}

// RecordPatientOperation counts a patient operation and whether it failed.
func (m *Metrics) RecordPatientOperation(ctx context.Context, operation string, success bool) {
	m.PatientOperationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	))
}

// RecordPayment counts a contribution and, when accepted, the resulting percentage.
func (m *Metrics) RecordPayment(ctx context.Context, category, outcome string, percentagePaid float64) {
	attrs := metric.WithAttributes(
		attribute.String("category", category),
		attribute.String("outcome", outcome),
	)
	m.PaymentsTotal.Add(ctx, 1, attrs)
	if outcome == "accepted" {
		m.PaymentPercentage.Record(ctx, percentagePaid, metric.WithAttributes(attribute.String("category", category)))
	}
}

func (m *Metrics) RecordProgressChange(ctx context.Context, progress string) {
	m.ProgressChangesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("progress", progress),
	))
}

func (m *Metrics) RecordEmployeeAuth(ctx context.Context, action, userType string, success bool) {
	m.EmployeeAuthTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("user_type", userType),
		attribute.Bool("success", success),
	))
}

// RecordAuthFailure records an authentication failure metric
func (m *Metrics) RecordAuthFailure(ctx context.Context, reason string) {
	m.AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordPermissionCheck records a permission check duration metric
func (m *Metrics) RecordPermissionCheck(ctx context.Context, permission string, durationMs float64, allowed bool) {
	m.PermissionCheckDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("permission", permission),
		attribute.Bool("allowed", allowed),
	))
}
