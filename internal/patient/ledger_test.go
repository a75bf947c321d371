package patient

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jalh2/healthyubackend/internal/apperror"
)

func f64(v float64) *float64 { return &v }

func TestPaymentApply_PartialThenComplete(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var p Payment

	err := p.Apply(Contribution{
		LRD:            f64(500),
		USD:            f64(10),
		TotalAmount:    &Amount{LRD: 1000, USD: 20},
		PercentagePaid: f64(60),
	}, now)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if p.PercentagePaid != 60 || !p.PartialPayment || p.Paid {
		t.Errorf("Expected 60%% partial, got %+v", p)
	}
	if p.LRD != 500 || p.USD != 10 {
		t.Errorf("Expected amounts 500/10, got %v/%v", p.LRD, p.USD)
	}
	if p.TotalAmount == nil || *p.TotalAmount != (Amount{LRD: 1000, USD: 20}) {
		t.Errorf("Expected total 1000/20, got %+v", p.TotalAmount)
	}
	if p.LastPaymentDate == nil || !p.LastPaymentDate.Equal(now) {
		t.Errorf("Expected last payment date %v, got %v", now, p.LastPaymentDate)
	}

	later := now.Add(time.Hour)
	if err := p.Apply(Contribution{LRD: f64(500), PercentagePaid: f64(40)}, later); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if p.PercentagePaid != 100 || !p.Paid || p.PartialPayment {
		t.Errorf("Expected paid in full, got %+v", p)
	}
	if p.LRD != 1000 || p.USD != 10 {
		t.Errorf("Expected amounts 1000/10, got %v/%v", p.LRD, p.USD)
	}
	if !p.LastPaymentDate.Equal(later) {
		t.Errorf("Expected last payment date %v, got %v", later, p.LastPaymentDate)
	}
}

func TestPaymentApply_AlreadyComplete(t *testing.T) {
	p := Payment{PercentagePaid: 100, Paid: true}

	err := p.Apply(Contribution{LRD: f64(1)}, time.Now())
	if !errors.Is(err, ErrPaymentComplete) {
		t.Fatalf("Expected ErrPaymentComplete, got: %v", err)
	}
	if !apperror.Is(err, apperror.KindConflict) {
		t.Errorf("Expected conflict kind, got %s", apperror.KindOf(err))
	}
	if p.LRD != 0 {
		t.Errorf("Expected ledger untouched, got LRD %v", p.LRD)
	}
}

func TestPaymentApply_ExceedsRemaining(t *testing.T) {
	p := Payment{LRD: 300, PercentagePaid: 70, PartialPayment: true}

	err := p.Apply(Contribution{LRD: f64(200), PercentagePaid: f64(40)}, time.Now())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Errorf("Expected validation kind, got %s", apperror.KindOf(err))
	}
	if got := apperror.Message(err); got != "Invalid percentage. Only 30% remaining to be paid." {
		t.Errorf("Unexpected message: %q", got)
	}
	if p.LRD != 300 || p.PercentagePaid != 70 || p.LastPaymentDate != nil {
		t.Errorf("Expected ledger untouched, got %+v", p)
	}
}

func TestPaymentApply_FractionalRemainingMessage(t *testing.T) {
	p := Payment{PercentagePaid: 62.5}

	err := p.Apply(Contribution{PercentagePaid: f64(50)}, time.Now())
	if got := apperror.Message(err); got != "Invalid percentage. Only 37.5% remaining to be paid." {
		t.Errorf("Unexpected message: %q", got)
	}
}

func TestPaymentApply_ThirdsSettleInFull(t *testing.T) {
	var p Payment
	for i, pct := range []float64{33.4, 33.3, 33.3} {
		if err := p.Apply(Contribution{PercentagePaid: f64(pct)}, time.Now()); err != nil {
			t.Fatalf("Expected contribution %d accepted, got: %v", i+1, err)
		}
	}
	if p.PercentagePaid != 100 || !p.Paid || p.PartialPayment {
		t.Errorf("Expected paid in full, got %+v", p)
	}
	if err := p.Apply(Contribution{PercentagePaid: f64(1)}, time.Now()); !errors.Is(err, ErrPaymentComplete) {
		t.Errorf("Expected ErrPaymentComplete, got: %v", err)
	}
}

func TestPaymentApply_RemainingIsRounded(t *testing.T) {
	p := Payment{PercentagePaid: 33.4}
	if err := p.Apply(Contribution{PercentagePaid: f64(33.3)}, time.Now()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	err := p.Apply(Contribution{PercentagePaid: f64(40)}, time.Now())
	if got := apperror.Message(err); got != "Invalid percentage. Only 33.3% remaining to be paid." {
		t.Errorf("Unexpected message: %q", got)
	}
}

func TestPaymentApply_RejectsNegativeAndNonFinite(t *testing.T) {
	testCases := []struct {
		name string
		c    Contribution
	}{
		{"Negative LRD", Contribution{LRD: f64(-1)}},
		{"Negative USD", Contribution{USD: f64(-0.5)}},
		{"Negative percentage", Contribution{PercentagePaid: f64(-10)}},
		{"NaN percentage", Contribution{PercentagePaid: f64(math.NaN())}},
		{"Infinite LRD", Contribution{LRD: f64(math.Inf(1))}},
		{"Negative total", Contribution{TotalAmount: &Amount{LRD: -5}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p Payment
			if err := p.Apply(tc.c, time.Now()); !errors.Is(err, ErrNegativeAmount) {
				t.Errorf("Expected ErrNegativeAmount, got: %v", err)
			}
			if p.LastPaymentDate != nil {
				t.Error("Expected ledger untouched")
			}
		})
	}
}

func TestPaymentApply_TotalSeededFromFirstAmounts(t *testing.T) {
	var p Payment
	if err := p.Apply(Contribution{LRD: f64(250), USD: f64(5)}, time.Now()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if p.TotalAmount == nil || *p.TotalAmount != (Amount{LRD: 250, USD: 5}) {
		t.Errorf("Expected seeded total 250/5, got %+v", p.TotalAmount)
	}

	// a later contribution without a total keeps the seeded one
	if err := p.Apply(Contribution{LRD: f64(100)}, time.Now()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if p.TotalAmount.LRD != 250 {
		t.Errorf("Expected total LRD to stay 250, got %v", p.TotalAmount.LRD)
	}
	if p.PercentagePaid != 0 || p.Paid || p.PartialPayment {
		t.Errorf("Expected flags unset without a percentage, got %+v", p)
	}
}

func TestPaymentsFor(t *testing.T) {
	var ps Payments
	for _, c := range []Category{CategoryRegistration, CategoryLaboratory, CategoryMedication} {
		if _, err := ps.For(c); err != nil {
			t.Errorf("Expected ledger for %s, got: %v", c, err)
		}
	}
	if _, err := ps.For("pharmacy"); !errors.Is(err, ErrInvalidPaymentType) {
		t.Errorf("Expected ErrInvalidPaymentType, got: %v", err)
	}

	reg, _ := ps.For(CategoryRegistration)
	reg.LRD = 42
	if ps.Registration.LRD != 42 {
		t.Error("Expected For to return the ledger in place")
	}
}
