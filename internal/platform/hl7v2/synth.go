package hl7v2

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

// CodedValue is one entry of a coded table: the code, its human-readable
// display text, and the coding-system tag. The three always travel
// together, so a synthesized coded field never mixes parts from
// different entries.
type CodedValue struct {
	Code   string
	Text   string
	System string
}

// HL7 component string (code^text^system).
func (c CodedValue) String() string {
	return c.Code + "^" + c.Text + "^" + c.System
}

// LabTest is a coded laboratory test together with its reference range.
type LabTest struct {
	CodedValue
	Low   float64
	High  float64
	Units string
}

// RefRange returns the HL7 references-range string (low-high).
func (t LabTest) RefRange() string {
	return trimFloat(t.Low) + "-" + trimFloat(t.High)
}

// LabResult is a drawn observation value with its abnormal-flag
// classification computed against the test's reference range.
type LabResult struct {
	Test  LabTest
	Value float64
	Flag  string // H, L, or N
}

// ---- Enumeration pools. Constructed once, never mutated. ----

var (
	maleFirstNames   = []string{"James", "Robert", "Michael", "David", "William", "Carlos", "Thomas", "Daniel", "Samuel", "Luis"}
	femaleFirstNames = []string{"Mary", "Patricia", "Jennifer", "Linda", "Maria", "Susan", "Margaret", "Sofia", "Karen", "Amara"}
	lastNames        = []string{"Smith", "Johnson", "Williams", "Garcia", "Martinez", "Brown", "Davis", "Nguyen", "Kim", "Okafor"}

	genderCodes       = []string{"M", "F"}
	raceCodes         = []string{"1002-5", "2028-9", "2054-5", "2076-8", "2106-3", "2131-1"}
	maritalCodes      = []string{"S", "M", "D", "W", "A"}
	patientClassCodes = []string{"I", "O", "E"}

	nursingUnits = []string{"MED", "ICU", "SURG", "PEDS", "ER", "ONC"}

	streetNames = []string{"Main St", "Oak Ave", "Maple Dr", "Cedar Ln", "Washington Blvd", "Park Rd"}
	cities      = []string{"Springfield", "Riverton", "Fairview", "Georgetown", "Clinton", "Madison"}
	states      = []string{"IL", "OH", "TX", "CA", "NY", "GA"}

	diagnoses = []CodedValue{
		{"E11.9", "Type 2 diabetes mellitus without complications", "I10"},
		{"I10", "Essential (primary) hypertension", "I10"},
		{"J45.909", "Unspecified asthma, uncomplicated", "I10"},
		{"M54.50", "Low back pain, unspecified", "I10"},
		{"N39.0", "Urinary tract infection, site not specified", "I10"},
		{"J06.9", "Acute upper respiratory infection, unspecified", "I10"},
		{"K21.9", "Gastro-esophageal reflux disease without esophagitis", "I10"},
		{"F41.9", "Anxiety disorder, unspecified", "I10"},
	}

	labTests = []LabTest{
		{CodedValue{"718-7", "Hemoglobin", "LN"}, 12.0, 17.5, "g/dL"},
		{CodedValue{"4544-3", "Hematocrit", "LN"}, 36.0, 53.0, "%"},
		{CodedValue{"2345-7", "Glucose", "LN"}, 70.0, 110.0, "mg/dL"},
		{CodedValue{"2160-0", "Creatinine", "LN"}, 0.6, 1.3, "mg/dL"},
		{CodedValue{"2951-2", "Sodium", "LN"}, 135.0, 145.0, "mmol/L"},
		{CodedValue{"2823-3", "Potassium", "LN"}, 3.5, 5.1, "mmol/L"},
		{CodedValue{"6690-2", "Leukocytes", "LN"}, 4.5, 11.0, "10*3/uL"},
	}

	medications = []CodedValue{
		{"197361", "Amlodipine 5 MG Oral Tablet", "RXNORM"},
		{"860975", "Metformin hydrochloride 500 MG Oral Tablet", "RXNORM"},
		{"617314", "Atorvastatin 20 MG Oral Tablet", "RXNORM"},
		{"311036", "Lisinopril 10 MG Oral Tablet", "RXNORM"},
		{"198440", "Omeprazole 20 MG Delayed Release Oral Capsule", "RXNORM"},
		{"308192", "Amoxicillin 500 MG Oral Capsule", "RXNORM"},
	}

	vaccines = []CodedValue{
		{"140", "Influenza, seasonal, injectable, preservative free", "CVX"},
		{"208", "COVID-19, mRNA, LNP-S, PF, 30 mcg/0.3mL dose", "CVX"},
		{"115", "Tdap", "CVX"},
		{"33", "Pneumococcal polysaccharide PPV23", "CVX"},
		{"43", "Hep B, adult", "CVX"},
	}

	appointmentTypes = []CodedValue{
		{"ROUTINE", "Routine appointment", "HL70276"},
		{"FOLLOWUP", "A follow up visit from a previous appointment", "HL70276"},
		{"CHECKUP", "A routine check-up, such as an annual physical", "HL70276"},
		{"WALKIN", "A previously unscheduled walk-in visit", "HL70276"},
	}

	documentTypes = []CodedValue{
		{"DS", "Discharge Summary", "HL70270"},
		{"HP", "History and Physical Examination", "HL70270"},
		{"CN", "Consultation", "HL70270"},
		{"OP", "Operative Report", "HL70270"},
		{"PN", "Progress Note", "HL70270"},
	}

	transactionCodes = []CodedValue{
		{"99213", "Office outpatient visit, established patient, 15 minutes", "C4"},
		{"99203", "Office outpatient visit, new patient, 30 minutes", "C4"},
		{"85025", "Complete blood count with differential", "C4"},
		{"80053", "Comprehensive metabolic panel", "C4"},
		{"93000", "Electrocardiogram, complete", "C4"},
	}

	providerLastNames  = []string{"Reyes", "Patel", "Larson", "Whitfield", "Osei", "Tanaka"}
	providerFirstNames = []string{"Evelyn", "Marcus", "Priya", "Howard", "Grace", "Victor"}
)

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// tsLayout formats timestamps with the local-time UTC-offset suffix.
const tsLayout = "20060102150405-0700"

// Synth draws plausible, self-consistent clinical values for fields the
// caller did not supply. Draws are uniform; cryptographic strength is not
// required even for values that resemble identifiers.
type Synth struct {
	r   *rand.Rand
	now func() time.Time
}

// NewSynth returns a generator seeded from the wall clock.
func NewSynth() *Synth {
	return NewSynthWith(rand.New(rand.NewSource(time.Now().UnixNano())), time.Now)
}

// NewSynthWith returns a generator with an injected random source and
// clock, for deterministic tests.
func NewSynthWith(r *rand.Rand, now func() time.Time) *Synth {
	return &Synth{r: r, now: now}
}

func (s *Synth) pick(pool []string) string {
	return pool[s.r.Intn(len(pool))]
}

func (s *Synth) pickCoded(pool []CodedValue) CodedValue {
	return pool[s.r.Intn(len(pool))]
}

// Gender draws an administrative sex code.
func (s *Synth) Gender() string { return s.pick(genderCodes) }

// Race draws a CDC race code.
func (s *Synth) Race() string { return s.pick(raceCodes) }

// MaritalStatus draws a marital status code.
func (s *Synth) MaritalStatus() string { return s.pick(maritalCodes) }

// PatientClass draws a patient class code.
func (s *Synth) PatientClass() string { return s.pick(patientClassCodes) }

// FirstName draws a first name from the pool matching the given gender.
func (s *Synth) FirstName(gender string) string {
	switch gender {
	case "M":
		return s.pick(maleFirstNames)
	case "F":
		return s.pick(femaleFirstNames)
	}
	if s.r.Intn(2) == 0 {
		return s.pick(maleFirstNames)
	}
	return s.pick(femaleFirstNames)
}

// LastName draws a surname.
func (s *Synth) LastName() string { return s.pick(lastNames) }

// Address draws a street^^city^state^zip HL7 address.
func (s *Synth) Address() string {
	return fmt.Sprintf("%d %s^^%s^%s^%05d",
		100+s.r.Intn(9900), s.pick(streetNames), s.pick(cities), s.pick(states), 10000+s.r.Intn(89999))
}

// Phone draws a home phone number.
func (s *Synth) Phone() string {
	return fmt.Sprintf("555-%03d-%04d", s.r.Intn(1000), s.r.Intn(10000))
}

// Location draws a unit^room^bed patient location.
func (s *Synth) Location() string {
	return fmt.Sprintf("%s^%03d^%s", s.pick(nursingUnits), 100+s.r.Intn(400), s.pick([]string{"A", "B"}))
}

// Provider draws an id^last^first provider identifier.
func (s *Synth) Provider() string {
	return fmt.Sprintf("%s^%s^%s", s.ID(6), s.pick(providerLastNames), s.pick(providerFirstNames))
}

// Diagnosis draws one code/description pair from the diagnosis table.
// The pair always comes from a single entry.
func (s *Synth) Diagnosis() CodedValue { return s.pickCoded(diagnoses) }

// Medication draws one medication bundle.
func (s *Synth) Medication() CodedValue { return s.pickCoded(medications) }

// Vaccine draws one vaccine bundle.
func (s *Synth) Vaccine() CodedValue { return s.pickCoded(vaccines) }

// AppointmentType draws one appointment-type bundle.
func (s *Synth) AppointmentType() CodedValue { return s.pickCoded(appointmentTypes) }

// DocumentType draws one document-type bundle.
func (s *Synth) DocumentType() CodedValue { return s.pickCoded(documentTypes) }

// TransactionCode draws one financial transaction code bundle.
func (s *Synth) TransactionCode() CodedValue { return s.pickCoded(transactionCodes) }

// LabTest draws one laboratory test bundle.
func (s *Synth) LabTest() LabTest { return labTests[s.r.Intn(len(labTests))] }

// LabResult draws a value for the given test in one of three bands
// (below, within, or above the reference range, each with uniform
// probability) and classifies the result against the range. The flag is
// always computed from the value, never pre-assigned.
func (s *Synth) LabResult(t LabTest) LabResult {
	span := t.High - t.Low
	var v float64
	switch s.r.Intn(3) {
	case 0: // below range
		v = t.Low - s.r.Float64()*span/2
		if v < 0 {
			v = 0
		}
	case 1: // within range
		v = t.Low + s.r.Float64()*span
	default: // above range
		v = t.High + s.r.Float64()*span/2
	}
	v = roundTo(v, 1)
	return LabResult{Test: t, Value: v, Flag: ClassifyValue(v, t.Low, t.High)}
}

// ClassifyValue computes the abnormal flag for a value against a
// reference range: L below, H above, N within.
func ClassifyValue(v, low, high float64) string {
	switch {
	case v < low:
		return "L"
	case v > high:
		return "H"
	default:
		return "N"
	}
}

// Now formats the current time with the local UTC-offset suffix.
func (s *Synth) Now() string { return s.now().Format(tsLayout) }

// AdmitTime defaults to now.
func (s *Synth) AdmitTime() string { return s.Now() }

// DischargeTime defaults to now plus a uniformly chosen 1-5 day offset.
func (s *Synth) DischargeTime() string {
	return s.now().AddDate(0, 0, 1+s.r.Intn(5)).Format(tsLayout)
}

// FutureDate returns a date within the next week, for appointment and
// document timestamps.
func (s *Synth) FutureDate() string {
	return s.now().AddDate(0, 0, 1+s.r.Intn(7)).Format(tsLayout)
}

// DateOfBirth draws an 8-digit YYYYMMDD birth date for an adult aged
// 18-90 years.
func (s *Synth) DateOfBirth() string {
	years := 18 + s.r.Intn(73)
	days := s.r.Intn(365)
	return s.now().AddDate(-years, 0, -days).Format("20060102")
}

// ID draws a fixed-length random alphanumeric identifier. Uniqueness
// across invocations is not guaranteed and not required.
func (s *Synth) ID(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[s.r.Intn(len(idAlphabet))]
	}
	return string(b)
}

// Amount draws a dollar amount for financial transactions.
func (s *Synth) Amount() string {
	return trimFloat(roundTo(20+s.r.Float64()*480, 2))
}

func roundTo(v float64, places int) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	return f
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
