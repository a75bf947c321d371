package patient

// Progress is the advisory workflow stage of a visit. Any mutator may set any
// label; ordering between stages is not enforced.
type Progress string

const (
	ProgressRegistered          Progress = "Registration complete - awaiting cashier"
	ProgressRegistrationPaid    Progress = "Registration payment completed"
	ProgressRegistrationPartial Progress = "Registration payment partial"
	ProgressLabOrdered          Progress = "Laboratory tests ordered"
	ProgressLabPaid             Progress = "Laboratory payment completed"
	ProgressLabPartial          Progress = "Laboratory payment partial"
	ProgressLabCompleted        Progress = "Laboratory tests completed"
	ProgressDoctorSeen          Progress = "Doctor consultation completed"
	ProgressPrescriptionIssued  Progress = "Doctor prescription updated - awaiting medical payment"
	ProgressMedicationPaid      Progress = "Medication payment completed"
	ProgressMedicationPartial   Progress = "Medication payment partial"
	ProgressTreatmentCompleted  Progress = "Treatment completed"

	DefaultProgress = ProgressRegistered
)

// AllProgress lists every label in typical workflow order.
var AllProgress = []Progress{
	ProgressRegistered,
	ProgressRegistrationPaid,
	ProgressRegistrationPartial,
	ProgressLabOrdered,
	ProgressLabPaid,
	ProgressLabPartial,
	ProgressLabCompleted,
	ProgressDoctorSeen,
	ProgressPrescriptionIssued,
	ProgressMedicationPaid,
	ProgressMedicationPartial,
	ProgressTreatmentCompleted,
}

func (p Progress) IsValid() bool {
	for _, known := range AllProgress {
		if p == known {
			return true
		}
	}
	return false
}

var paymentProgress = map[Category]struct{ completed, partial Progress }{
	CategoryRegistration: {ProgressRegistrationPaid, ProgressRegistrationPartial},
	CategoryLaboratory:   {ProgressLabPaid, ProgressLabPartial},
	CategoryMedication:   {ProgressMedicationPaid, ProgressMedicationPartial},
}

// PaymentProgress returns the stage implied by a category's ledger state.
// The second result is false when the ledger is untouched (0%) and the
// visit progress must stay as it is.
func PaymentProgress(c Category, p *Payment) (Progress, bool) {
	labels, ok := paymentProgress[c]
	if !ok {
		return "", false
	}
	switch {
	case p.Paid:
		return labels.completed, true
	case p.PartialPayment:
		return labels.partial, true
	}
	return "", false
}

// LabProgress returns the stage implied by a lab orders/results update.
// Without any lab order the visit progress is left unchanged.
func LabProgress(u *LaboratoryUpdate) (Progress, bool) {
	if !u.HasOrders() {
		return "", false
	}
	if u.HasResults() {
		return ProgressLabCompleted, true
	}
	return ProgressLabOrdered, true
}
