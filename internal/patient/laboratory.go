package patient

// LaboratoryData holds lab orders and structured results for a visit.
type LaboratoryData struct {
	Ward       string `json:"ward" bson:"ward"`
	HospitalNo string `json:"hospitalNo" bson:"hospitalNo"`
	OrderedBy  string `json:"orderedBy" bson:"orderedBy"`

	HematologyLab        bool `json:"hematologyLab" bson:"hematologyLab"`
	SerologyLab          bool `json:"serologyLab" bson:"serologyLab"`
	UrineTestStripLab    bool `json:"urineTestStripLab" bson:"urineTestStripLab"`
	UrineMicroscopyLab   bool `json:"urineMicroscopyLab" bson:"urineMicroscopyLab"`
	WbcCbcLab            bool `json:"wbcCbcLab" bson:"wbcCbcLab"`
	BloodChemistryLab    bool `json:"bloodChemistryLab" bson:"bloodChemistryLab"`
	CsfTestMeningitisLab bool `json:"csfTestMeningitisLab" bson:"csfTestMeningitisLab"`
	Therapy              bool `json:"therapy" bson:"therapy"`
	UltraSound           bool `json:"ultraSound" bson:"ultraSound"`
	XRay                 bool `json:"xRay" bson:"xRay"`
	ShortStay            bool `json:"shortStay" bson:"shortStay"`
	MinorSurgery         bool `json:"minorSurgery" bson:"minorSurgery"`
	BodyScan             bool `json:"bodyScan" bson:"bodyScan"`

	Hematology        Hematology        `json:"hematology" bson:"hematology"`
	Serology          Serology          `json:"serology" bson:"serology"`
	UrineTestStrip    UrineTestStrip    `json:"urineTestStrip" bson:"urineTestStrip"`
	UrineMicroscopy   UrineMicroscopy   `json:"urineMicroscopy" bson:"urineMicroscopy"`
	WbcCbc            WbcCbc            `json:"wbcCbc" bson:"wbcCbc"`
	BloodChemistry    BloodChemistry    `json:"bloodChemistry" bson:"bloodChemistry"`
	CsfTestMeningitis CsfTestMeningitis `json:"csfTestMeningitis" bson:"csfTestMeningitis"`
}

type Hematology struct {
	Hemoglobin     float64 `json:"hemoglobin" bson:"hemoglobin"`
	Hematocrit     float64 `json:"hematocrit" bson:"hematocrit"`
	MS             string  `json:"ms" bson:"ms"`
	WBC            float64 `json:"wbc" bson:"wbc"`
	BloodType      string  `json:"bloodType" bson:"bloodType"`
	Rh             string  `json:"rh" bson:"rh"`
	SickleCellPrep string  `json:"sickleCellPrep" bson:"sickleCellPrep"`
	ESR            float64 `json:"esr" bson:"esr"`
	Syphilis       string  `json:"syphilis" bson:"syphilis"`
}

type Serology struct {
	Widal       string `json:"widal" bson:"widal"`
	VctPict     string `json:"vctPict" bson:"vctPict"`
	HepatitisBC string `json:"hepatitisBC" bson:"hepatitisBC"`
}

type UrineTestStrip struct {
	Appearance      string  `json:"appearance" bson:"appearance"`
	Color           string  `json:"color" bson:"color"`
	Nitrite         string  `json:"nitrite" bson:"nitrite"`
	Blood           string  `json:"blood" bson:"blood"`
	Urobilinogen    string  `json:"urobilinogen" bson:"urobilinogen"`
	Ketones         string  `json:"ketones" bson:"ketones"`
	Protein         string  `json:"protein" bson:"protein"`
	Glucose         string  `json:"glucose" bson:"glucose"`
	PH              float64 `json:"ph" bson:"ph"`
	SpecificGravity float64 `json:"specificGravity" bson:"specificGravity"`
	Leucocyte       string  `json:"leucocyte" bson:"leucocyte"`
	Leucocytes      string  `json:"leucocytes" bson:"leucocytes"`
}

type UrineMicroscopy struct {
	WBC        string `json:"wbc" bson:"wbc"`
	RBC        string `json:"rbc" bson:"rbc"`
	EpithCells string `json:"epithCells" bson:"epithCells"`
	Parasite   string `json:"parasite" bson:"parasite"`
	Crystals   string `json:"crystals" bson:"crystals"`
	Casts      string `json:"casts" bson:"casts"`
}

type WbcCbc struct {
	Poly    float64 `json:"poly" bson:"poly"`
	Lymph   float64 `json:"lymph" bson:"lymph"`
	Mono    float64 `json:"mono" bson:"mono"`
	Eosi    float64 `json:"eosi" bson:"eosi"`
	Baso    float64 `json:"baso" bson:"baso"`
	RcMorph string  `json:"rcMorph" bson:"rcMorph"`
}

// BloodChemistry values are in mg/dl except the enzyme activities (U/l).
type BloodChemistry struct {
	Creatinine      float64 `json:"creatinine" bson:"creatinine"`
	RandomGlucose   float64 `json:"randomGlucose" bson:"randomGlucose"`
	Urea            float64 `json:"urea" bson:"urea"`
	FBS             float64 `json:"fbs" bson:"fbs"`
	CPK             float64 `json:"cpk" bson:"cpk"`
	Amylase         float64 `json:"amylase" bson:"amylase"`
	TotalBilirubin  float64 `json:"totalBilirubin" bson:"totalBilirubin"`
	Prostphosp      float64 `json:"prostphosp" bson:"prostphosp"`
	Cholesterol     float64 `json:"cholesterol" bson:"cholesterol"`
	DirectBilirubin float64 `json:"directBilirubin" bson:"directBilirubin"`
	GammaGT         float64 `json:"gammaGt" bson:"gammaGt"`
	Potassium       float64 `json:"potassium" bson:"potassium"`
	GotAST          float64 `json:"gotAst" bson:"gotAst"`
	GrpALT          float64 `json:"grpAlt" bson:"grpAlt"`
	UricAcid        float64 `json:"uricAcid" bson:"uricAcid"`
	Alkphosp        float64 `json:"alkphosp" bson:"alkphosp"`
	TotalProtein    float64 `json:"totalProtein" bson:"totalProtein"`
	Triglycerides   float64 `json:"triglycerides" bson:"triglycerides"`
	Calcium         float64 `json:"calcium" bson:"calcium"`
}

type CsfTestMeningitis struct {
	Protein    string `json:"protein" bson:"protein"`
	Glucose    string `json:"glucose" bson:"glucose"`
	PandyTest  string `json:"pandyTest" bson:"pandyTest"`
	WBC        string `json:"wbc" bson:"wbc"`
	Leucocytes string `json:"leucocytes" bson:"leucocytes"`
}

// LaboratoryUpdate is the payload of both lab operations. Nil means the key
// was absent from the request.
type LaboratoryUpdate struct {
	Ward       *string `json:"ward,omitempty"`
	HospitalNo *string `json:"hospitalNo,omitempty"`
	OrderedBy  *string `json:"orderedBy,omitempty"`

	HematologyLab        *bool `json:"hematologyLab,omitempty"`
	SerologyLab          *bool `json:"serologyLab,omitempty"`
	UrineTestStripLab    *bool `json:"urineTestStripLab,omitempty"`
	UrineMicroscopyLab   *bool `json:"urineMicroscopyLab,omitempty"`
	WbcCbcLab            *bool `json:"wbcCbcLab,omitempty"`
	BloodChemistryLab    *bool `json:"bloodChemistryLab,omitempty"`
	CsfTestMeningitisLab *bool `json:"csfTestMeningitisLab,omitempty"`
	Therapy              *bool `json:"therapy,omitempty"`
	UltraSound           *bool `json:"ultraSound,omitempty"`
	XRay                 *bool `json:"xRay,omitempty"`
	ShortStay            *bool `json:"shortStay,omitempty"`
	MinorSurgery         *bool `json:"minorSurgery,omitempty"`
	BodyScan             *bool `json:"bodyScan,omitempty"`

	Hematology        *Hematology        `json:"hematology,omitempty"`
	Serology          *Serology          `json:"serology,omitempty"`
	UrineTestStrip    *UrineTestStrip    `json:"urineTestStrip,omitempty"`
	UrineMicroscopy   *UrineMicroscopy   `json:"urineMicroscopy,omitempty"`
	WbcCbc            *WbcCbc            `json:"wbcCbc,omitempty"`
	BloodChemistry    *BloodChemistry    `json:"bloodChemistry,omitempty"`
	CsfTestMeningitis *CsfTestMeningitis `json:"csfTestMeningitis,omitempty"`
}

// HasOrders reports whether any of the *Lab order flags is set to true.
// Procedure flags (therapy, xRay, ...) are not lab orders.
func (u *LaboratoryUpdate) HasOrders() bool {
	for _, f := range []*bool{
		u.HematologyLab, u.SerologyLab, u.UrineTestStripLab, u.UrineMicroscopyLab,
		u.WbcCbcLab, u.BloodChemistryLab, u.CsfTestMeningitisLab,
	} {
		if f != nil && *f {
			return true
		}
	}
	return false
}

// HasResults reports whether any provided panel carries a non-empty value.
func (u *LaboratoryUpdate) HasResults() bool {
	return (u.Hematology != nil && *u.Hematology != Hematology{}) ||
		(u.Serology != nil && *u.Serology != Serology{}) ||
		(u.UrineTestStrip != nil && *u.UrineTestStrip != UrineTestStrip{}) ||
		(u.UrineMicroscopy != nil && *u.UrineMicroscopy != UrineMicroscopy{}) ||
		(u.WbcCbc != nil && *u.WbcCbc != WbcCbc{}) ||
		(u.BloodChemistry != nil && *u.BloodChemistry != BloodChemistry{}) ||
		(u.CsfTestMeningitis != nil && *u.CsfTestMeningitis != CsfTestMeningitis{})
}

// ReplaceOrders overwrites admin fields and order flags, absent keys reset
// to their zero value. Panels follow merge semantics.
func (u *LaboratoryUpdate) ReplaceOrders(lab *LaboratoryData) {
	lab.Ward = stringOrEmpty(u.Ward)
	lab.HospitalNo = stringOrEmpty(u.HospitalNo)
	lab.OrderedBy = stringOrEmpty(u.OrderedBy)

	lab.HematologyLab = boolOrFalse(u.HematologyLab)
	lab.SerologyLab = boolOrFalse(u.SerologyLab)
	lab.UrineTestStripLab = boolOrFalse(u.UrineTestStripLab)
	lab.UrineMicroscopyLab = boolOrFalse(u.UrineMicroscopyLab)
	lab.WbcCbcLab = boolOrFalse(u.WbcCbcLab)
	lab.BloodChemistryLab = boolOrFalse(u.BloodChemistryLab)
	lab.CsfTestMeningitisLab = boolOrFalse(u.CsfTestMeningitisLab)
	lab.Therapy = boolOrFalse(u.Therapy)
	lab.UltraSound = boolOrFalse(u.UltraSound)
	lab.XRay = boolOrFalse(u.XRay)
	lab.ShortStay = boolOrFalse(u.ShortStay)
	lab.MinorSurgery = boolOrFalse(u.MinorSurgery)
	lab.BodyScan = boolOrFalse(u.BodyScan)

	u.mergePanels(lab)
}

// Merge applies only the keys present in the update.
func (u *LaboratoryUpdate) Merge(lab *LaboratoryData) {
	setString(&lab.Ward, u.Ward)
	setString(&lab.HospitalNo, u.HospitalNo)
	setString(&lab.OrderedBy, u.OrderedBy)

	setBool(&lab.HematologyLab, u.HematologyLab)
	setBool(&lab.SerologyLab, u.SerologyLab)
	setBool(&lab.UrineTestStripLab, u.UrineTestStripLab)
	setBool(&lab.UrineMicroscopyLab, u.UrineMicroscopyLab)
	setBool(&lab.WbcCbcLab, u.WbcCbcLab)
	setBool(&lab.BloodChemistryLab, u.BloodChemistryLab)
	setBool(&lab.CsfTestMeningitisLab, u.CsfTestMeningitisLab)
	setBool(&lab.Therapy, u.Therapy)
	setBool(&lab.UltraSound, u.UltraSound)
	setBool(&lab.XRay, u.XRay)
	setBool(&lab.ShortStay, u.ShortStay)
	setBool(&lab.MinorSurgery, u.MinorSurgery)
	setBool(&lab.BodyScan, u.BodyScan)

	u.mergePanels(lab)
}

func (u *LaboratoryUpdate) mergePanels(lab *LaboratoryData) {
	if u.Hematology != nil {
		lab.Hematology = *u.Hematology
	}
	if u.Serology != nil {
		lab.Serology = *u.Serology
	}
	if u.UrineTestStrip != nil {
		lab.UrineTestStrip = *u.UrineTestStrip
	}
	if u.UrineMicroscopy != nil {
		lab.UrineMicroscopy = *u.UrineMicroscopy
	}
	if u.WbcCbc != nil {
		lab.WbcCbc = *u.WbcCbc
	}
	if u.BloodChemistry != nil {
		lab.BloodChemistry = *u.BloodChemistry
	}
	if u.CsfTestMeningitis != nil {
		lab.CsfTestMeningitis = *u.CsfTestMeningitis
	}
}

func (u *LaboratoryUpdate) IsEmpty() bool {
	return *u == LaboratoryUpdate{}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func boolOrFalse(b *bool) bool {
	return b != nil && *b
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
