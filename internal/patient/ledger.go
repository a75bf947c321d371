package patient

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jalh2/healthyubackend/internal/apperror"
)

// Category is a payment bucket tracked independently per visit.
type Category string

const (
	CategoryRegistration Category = "registration"
	CategoryLaboratory   Category = "laboratory"
	CategoryMedication   Category = "medication"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryRegistration, CategoryLaboratory, CategoryMedication:
		return true
	}
	return false
}

const fullPercentage = 100.0

// percentScale bounds the precision of stored percentages so that splits such
// as 33.4 + 33.3 + 33.3 settle at exactly 100.
const percentScale = 1e9

func roundPercent(v float64) float64 {
	return math.Round(v*percentScale) / percentScale
}

// Amount is a pair of independent currency totals. No conversion between
// LRD and USD ever happens.
type Amount struct {
	LRD float64 `json:"LRD" bson:"LRD"`
	USD float64 `json:"USD" bson:"USD"`
}

// Payment is the ledger of one category on one visit.
// PercentagePaid is caller asserted, never derived from the amounts.
type Payment struct {
	LRD             float64    `json:"LRD" bson:"LRD"`
	USD             float64    `json:"USD" bson:"USD"`
	TotalAmount     *Amount    `json:"totalAmount,omitempty" bson:"totalAmount,omitempty"`
	PercentagePaid  float64    `json:"percentagePaid" bson:"percentagePaid"`
	Paid            bool       `json:"paid" bson:"paid"`
	PartialPayment  bool       `json:"partialPayment" bson:"partialPayment"`
	LastPaymentDate *time.Time `json:"lastPaymentDate,omitempty" bson:"lastPaymentDate,omitempty"`
}

type Payments struct {
	Registration Payment `json:"registration" bson:"registration"`
	Laboratory   Payment `json:"laboratory" bson:"laboratory"`
	Medication   Payment `json:"medication" bson:"medication"`
}

// For returns the ledger of category c.
func (p *Payments) For(c Category) (*Payment, error) {
	switch c {
	case CategoryRegistration:
		return &p.Registration, nil
	case CategoryLaboratory:
		return &p.Laboratory, nil
	case CategoryMedication:
		return &p.Medication, nil
	}
	return nil, ErrInvalidPaymentType
}

// Contribution is one incremental payment. Nil fields were not supplied.
type Contribution struct {
	LRD            *float64 `json:"LRD,omitempty"`
	USD            *float64 `json:"USD,omitempty"`
	TotalAmount    *Amount  `json:"totalAmount,omitempty"`
	PercentagePaid *float64 `json:"percentagePaid,omitempty"`
}

func (c *Contribution) validate() error {
	for _, v := range []*float64{c.LRD, c.USD, c.PercentagePaid} {
		if v != nil && (*v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return ErrNegativeAmount
		}
	}
	if c.TotalAmount != nil && (c.TotalAmount.LRD < 0 || c.TotalAmount.USD < 0) {
		return ErrNegativeAmount
	}
	return nil
}

// Remaining is the percentage still open on this ledger.
func (p *Payment) Remaining() float64 {
	return roundPercent(fullPercentage - p.PercentagePaid)
}

// Apply records a contribution. On error the ledger is left untouched.
func (p *Payment) Apply(c Contribution, now time.Time) error {
	if roundPercent(p.PercentagePaid) >= fullPercentage {
		return ErrPaymentComplete
	}
	if err := c.validate(); err != nil {
		return err
	}
	remaining := p.Remaining()
	if c.PercentagePaid != nil && roundPercent(*c.PercentagePaid) > remaining {
		return apperror.Validation(fmt.Sprintf(
			"Invalid percentage. Only %s%% remaining to be paid.",
			strconv.FormatFloat(remaining, 'f', -1, 64)))
	}

	if c.LRD != nil {
		p.LRD += *c.LRD
	}
	if c.USD != nil {
		p.USD += *c.USD
	}

	switch {
	case c.TotalAmount != nil:
		total := *c.TotalAmount
		p.TotalAmount = &total
	case p.TotalAmount == nil:
		p.TotalAmount = &Amount{LRD: p.LRD, USD: p.USD}
	}

	if c.PercentagePaid != nil {
		p.PercentagePaid = math.Min(fullPercentage, roundPercent(p.PercentagePaid+*c.PercentagePaid))
	}

	p.Paid = p.PercentagePaid == fullPercentage
	p.PartialPayment = p.PercentagePaid > 0 && p.PercentagePaid < fullPercentage
	stamp := now
	p.LastPaymentDate = &stamp
	return nil
}
