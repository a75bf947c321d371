package patient

import (
	"time"

	"github.com/jalh2/healthyubackend/internal/pagination"
)

type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
	SexOther  Sex = "Other"
)

func (s Sex) IsValid() bool {
	switch s {
	case SexMale, SexFemale, SexOther:
		return true
	}
	return false
}

// Patient is the aggregate root. Visits and their payments are persisted
// together with it as a single document.
type Patient struct {
	ID            string         `json:"_id" bson:"_id"`
	FormNumber    string         `json:"formNumber" bson:"formNumber"`
	FirstName     string         `json:"firstName" bson:"firstName"`
	LastName      string         `json:"lastName" bson:"lastName"`
	Age           int            `json:"age" bson:"age"`
	Sex           Sex            `json:"sex" bson:"sex"`
	Address       string         `json:"address" bson:"address"`
	ContactNumber string         `json:"contactNumber" bson:"contactNumber"`
	Visits        []Visit        `json:"visits" bson:"visits"`
	ProgressNotes []ProgressNote `json:"progressNotes" bson:"progressNotes"`
	Revision      int64          `json:"revision" bson:"revision"`
	CreatedAt     time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updatedAt"`
}

type Visit struct {
	ID             string         `json:"_id" bson:"_id"`
	VisitDate      time.Time      `json:"visitDate" bson:"visitDate"`
	FormNumber     string         `json:"formNumber" bson:"formNumber"`
	IsEyeDoctor    bool           `json:"isEyeDoctor" bson:"isEyeDoctor"`
	EyeDoctorData  EyeDoctorData  `json:"eyeDoctorData" bson:"eyeDoctorData"`
	Vitals         Vitals         `json:"vitals" bson:"vitals"`
	SymptomsA      Symptoms       `json:"symptomsA" bson:"symptomsA"`
	LaboratoryData LaboratoryData `json:"laboratoryData" bson:"laboratoryData"`
	Payments       Payments       `json:"payments" bson:"payments"`
	MedicalNotes   MedicalNotes   `json:"medicalNotes" bson:"medicalNotes"`
	Progress       Progress       `json:"progress" bson:"progress"`
	CreatedAt      time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt" bson:"updatedAt"`
}

type EyeDoctorData struct {
	Notes      string `json:"notes" bson:"notes"`
	Medication string `json:"medication" bson:"medication"`
	Glasses    string `json:"glasses" bson:"glasses"`
}

type Vitals struct {
	Temperature   float64 `json:"temperature" bson:"temperature"`
	BloodPressure string  `json:"bloodPressure" bson:"bloodPressure"`
	Respiration   float64 `json:"respiration" bson:"respiration"`
	Pulse         float64 `json:"pulse" bson:"pulse"`
	Pregnancy     bool    `json:"pregnancy" bson:"pregnancy"`
}

type Symptoms struct {
	Fever                bool `json:"fever" bson:"fever"`
	Nausea               bool `json:"nausea" bson:"nausea"`
	Vomiting             bool `json:"vomiting" bson:"vomiting"`
	WateryDiarrhea       bool `json:"wateryDiarrhea" bson:"wateryDiarrhea"`
	BloodyDiarrhea       bool `json:"bloodyDiarrhea" bson:"bloodyDiarrhea"`
	RedEyes              bool `json:"redEyes" bson:"redEyes"`
	DifficultyBreathing  bool `json:"difficultyBreathing" bson:"difficultyBreathing"`
	BoneMusclePain       bool `json:"boneMusclepain" bson:"boneMusclepain"`
	LossOfAppetite       bool `json:"lossOfAppetite" bson:"lossOfAppetite"`
	Weakness             bool `json:"weakness" bson:"weakness"`
	AbdominalPain        bool `json:"abdominalPain" bson:"abdominalPain"`
	DifficultySwallowing bool `json:"difficultySwallowing" bson:"difficultySwallowing"`
}

type MedicalNotes struct {
	DoctorNote   string `json:"doctorNote" bson:"doctorNote"`
	Prescription string `json:"prescription" bson:"prescription"`
}

// ProgressNote is a free text journal entry on the patient.
type ProgressNote struct {
	Date      time.Time `json:"date" bson:"date"`
	Note      string    `json:"note" bson:"note"`
	UpdatedBy string    `json:"updatedBy" bson:"updatedBy"`
}

// BasicInfo is the identity projection used to pre-fill forms.
type BasicInfo struct {
	ID            string `json:"_id"`
	FormNumber    string `json:"formNumber"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Age           int    `json:"age"`
	Sex           Sex    `json:"sex"`
	Address       string `json:"address"`
	ContactNumber string `json:"contactNumber"`
}

func (p *Patient) BasicInfo() BasicInfo {
	return BasicInfo{
		ID:            p.ID,
		FormNumber:    p.FormNumber,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Age:           p.Age,
		Sex:           p.Sex,
		Address:       p.Address,
		ContactNumber: p.ContactNumber,
	}
}

// Visit returns the visit with the given id.
func (p *Patient) Visit(visitID string) (*Visit, error) {
	for i := range p.Visits {
		if p.Visits[i].ID == visitID {
			return &p.Visits[i], nil
		}
	}
	return nil, ErrVisitNotFound
}

// LatestVisit returns the most recently appended visit.
func (p *Patient) LatestVisit() (*Visit, error) {
	if len(p.Visits) == 0 {
		return nil, ErrNoVisits
	}
	return &p.Visits[len(p.Visits)-1], nil
}

// HasVisitFormNumber reports whether any visit of p uses formNumber.
func (p *Patient) HasVisitFormNumber(formNumber string) bool {
	for _, v := range p.Visits {
		if v.FormNumber == formNumber {
			return true
		}
	}
	return false
}

// RegisterPatientRequest carries identity fields plus the inputs of the first visit.
type RegisterPatientRequest struct {
	FormNumber    string    `json:"formNumber"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Age           int       `json:"age"`
	Sex           Sex       `json:"sex"`
	Address       string    `json:"address"`
	ContactNumber string    `json:"contactNumber"`
	Vitals        *Vitals   `json:"vitals,omitempty"`
	SymptomsA     *Symptoms `json:"symptomsA,omitempty"`
	IsEyeDoctor   bool      `json:"isEyeDoctor"`
}

func (r *RegisterPatientRequest) Validate() error {
	if r.FirstName == "" || r.LastName == "" || r.Age == 0 || r.Sex == "" ||
		r.Address == "" || r.ContactNumber == "" || r.FormNumber == "" {
		return ErrMissingFields
	}
	if r.Age < 0 {
		return ErrInvalidAge
	}
	if !r.Sex.IsValid() {
		return ErrInvalidSex
	}
	return nil
}

// UpdatePatientRequest is a partial update of identity fields.
type UpdatePatientRequest struct {
	FormNumber    *string `json:"formNumber,omitempty"`
	FirstName     *string `json:"firstName,omitempty"`
	LastName      *string `json:"lastName,omitempty"`
	Age           *int    `json:"age,omitempty"`
	Sex           *Sex    `json:"sex,omitempty"`
	Address       *string `json:"address,omitempty"`
	ContactNumber *string `json:"contactNumber,omitempty"`
}

func (r *UpdatePatientRequest) IsEmpty() bool {
	return r.FormNumber == nil && r.FirstName == nil && r.LastName == nil && r.Age == nil &&
		r.Sex == nil && r.Address == nil && r.ContactNumber == nil
}

func (r *UpdatePatientRequest) Validate() error {
	if r.IsEmpty() {
		return ErrEmptyUpdate
	}
	for _, s := range []*string{r.FormNumber, r.FirstName, r.LastName, r.Address, r.ContactNumber} {
		if s != nil && *s == "" {
			return ErrMissingFields
		}
	}
	if r.Age != nil && *r.Age <= 0 {
		return ErrInvalidAge
	}
	if r.Sex != nil && !r.Sex.IsValid() {
		return ErrInvalidSex
	}
	return nil
}

func (r *UpdatePatientRequest) apply(p *Patient) {
	if r.FormNumber != nil {
		p.FormNumber = *r.FormNumber
	}
	if r.FirstName != nil {
		p.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		p.LastName = *r.LastName
	}
	if r.Age != nil {
		p.Age = *r.Age
	}
	if r.Sex != nil {
		p.Sex = *r.Sex
	}
	if r.Address != nil {
		p.Address = *r.Address
	}
	if r.ContactNumber != nil {
		p.ContactNumber = *r.ContactNumber
	}
}

type AddVisitRequest struct {
	FormNumber    string         `json:"formNumber"`
	Vitals        *Vitals        `json:"vitals,omitempty"`
	SymptomsA     *Symptoms      `json:"symptomsA,omitempty"`
	IsEyeDoctor   bool           `json:"isEyeDoctor"`
	EyeDoctorData *EyeDoctorData `json:"eyeDoctorData,omitempty"`
}

// UpdateVisitRequest patches the clinical fields of a visit. Payments and
// laboratory data have dedicated operations.
type UpdateVisitRequest struct {
	VisitDate     *time.Time     `json:"visitDate,omitempty"`
	IsEyeDoctor   *bool          `json:"isEyeDoctor,omitempty"`
	EyeDoctorData *EyeDoctorData `json:"eyeDoctorData,omitempty"`
	Vitals        *Vitals        `json:"vitals,omitempty"`
	SymptomsA     *Symptoms      `json:"symptomsA,omitempty"`
	MedicalNotes  *MedicalNotes  `json:"medicalNotes,omitempty"`
	Progress      *Progress      `json:"progress,omitempty"`
}

func (r *UpdateVisitRequest) IsEmpty() bool {
	return r.VisitDate == nil && r.IsEyeDoctor == nil && r.EyeDoctorData == nil && r.Vitals == nil &&
		r.SymptomsA == nil && r.MedicalNotes == nil && r.Progress == nil
}

func (r *UpdateVisitRequest) Validate() error {
	if r.IsEmpty() {
		return ErrEmptyUpdate
	}
	if r.Progress != nil && !r.Progress.IsValid() {
		return ErrInvalidProgress
	}
	return nil
}

// apply copies everything except Progress, which goes through the service
// so the change is recorded.
func (r *UpdateVisitRequest) apply(v *Visit) {
	if r.VisitDate != nil {
		v.VisitDate = *r.VisitDate
	}
	if r.IsEyeDoctor != nil {
		v.IsEyeDoctor = *r.IsEyeDoctor
	}
	if r.EyeDoctorData != nil {
		v.EyeDoctorData = *r.EyeDoctorData
	}
	if r.Vitals != nil {
		v.Vitals = *r.Vitals
	}
	if r.SymptomsA != nil {
		v.SymptomsA = *r.SymptomsA
	}
	if r.MedicalNotes != nil {
		v.MedicalNotes = *r.MedicalNotes
	}
}

type UpdateLabTestsRequest struct {
	LaboratoryData LaboratoryData `json:"laboratoryData"`
	Progress       *Progress      `json:"progress,omitempty"`
}

type PaymentRequest struct {
	Type Category `json:"type"`
	Contribution
}

type PrescriptionRequest struct {
	Prescription string `json:"prescription"`
}

type ProgressNoteRequest struct {
	Note      string `json:"note"`
	UpdatedBy string `json:"updatedBy"`
}

type SetProgressRequest struct {
	Progress Progress `json:"progress"`
}

// PaginatedPatientListResponse represents a paginated list of patients
type PaginatedPatientListResponse struct {
	Patients   []Patient       `json:"patients"`
	Pagination pagination.Meta `json:"pagination"`
}
