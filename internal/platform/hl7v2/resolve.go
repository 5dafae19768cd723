package hl7v2

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Logical field names. Explicit inputs, bucket values and resolved values
// are all keyed by these.
const (
	FieldControlID       = "controlId"
	FieldMessageDateTime = "messageDateTime"

	FieldPatientID     = "patientId"
	FieldFirstName     = "firstName"
	FieldLastName      = "lastName"
	FieldDateOfBirth   = "dateOfBirth"
	FieldGender        = "gender"
	FieldRace          = "race"
	FieldMaritalStatus = "maritalStatus"
	FieldAddress       = "address"
	FieldPhone         = "phone"

	FieldPatientClass      = "patientClass"
	FieldLocation          = "location"
	FieldAttendingDoctor   = "attendingDoctor"
	FieldAdmitDateTime     = "admitDateTime"
	FieldDischargeDateTime = "dischargeDateTime"

	FieldDiagnosisCode        = "diagnosisCode"
	FieldDiagnosisDescription = "diagnosisDescription"

	FieldOrderNumber       = "orderNumber"
	FieldFillerOrderNumber = "fillerOrderNumber"

	FieldLabTestCode       = "labTestCode"
	FieldLabTestName       = "labTestName"
	FieldLabValue          = "labValue"
	FieldLabUnits          = "labUnits"
	FieldLabReferenceRange = "labReferenceRange"
	FieldAbnormalFlag      = "abnormalFlag"

	FieldMedicationCode = "medicationCode"
	FieldMedicationName = "medicationName"
	FieldDoseAmount     = "doseAmount"
	FieldDoseUnits      = "doseUnits"

	FieldVaccineCode          = "vaccineCode"
	FieldVaccineName          = "vaccineName"
	FieldLotNumber            = "lotNumber"
	FieldAdministeredDateTime = "administeredDateTime"

	FieldAppointmentID       = "appointmentId"
	FieldAppointmentTypeCode = "appointmentTypeCode"
	FieldAppointmentTypeName = "appointmentTypeName"
	FieldAppointmentDateTime = "appointmentDateTime"
	FieldAppointmentDuration = "appointmentDuration"

	FieldDocumentID       = "documentId"
	FieldDocumentTypeCode = "documentTypeCode"
	FieldDocumentTypeName = "documentTypeName"
	FieldDocumentDateTime = "documentDateTime"

	FieldTransactionID          = "transactionId"
	FieldTransactionCode        = "transactionCode"
	FieldTransactionDescription = "transactionDescription"
	FieldTransactionAmount      = "transactionAmount"
	FieldTransactionDateTime    = "transactionDateTime"
)

type inputKind int

const (
	unsetKind inputKind = iota
	explicitKind
	forceRandomKind
)

// FieldInput is the tri-state explicit input for one logical field:
// an explicit value, a forced random draw, or unset. The zero value is
// unset.
type FieldInput struct {
	kind  inputKind
	value string
}

// Explicit supplies a caller-provided value.
func Explicit(v string) FieldInput { return FieldInput{kind: explicitKind, value: v} }

// ForceRandom requests a synthesized value even though the caller set the
// field. It is honored only on enumerable-choice fields.
func ForceRandom() FieldInput { return FieldInput{kind: forceRandomKind} }

// Inputs maps logical field names to explicit inputs.
type Inputs map[string]FieldInput

// Input maps one caller-supplied parameter to a FieldInput. The literal
// value "random" requests a synthesized draw on the enumerable-choice
// fields only; on every other field it is an ordinary explicit value.
func Input(name, value string) FieldInput {
	if value == "random" && randomizable[name] {
		return ForceRandom()
	}
	return Explicit(value)
}

// BucketLookup returns the externally supplied bucket value for a logical
// field name, if present.
type BucketLookup func(field string) (string, bool)

// ResolvedFields is the final value-per-field mapping for one generation
// call. It is built once by precedence and never partially overwritten.
type ResolvedFields map[string]string

// randomizable lists the enumerable-choice fields on which ForceRandom is
// honored.
var randomizable = map[string]bool{
	FieldGender:        true,
	FieldRace:          true,
	FieldMaritalStatus: true,
	FieldPatientClass:  true,
}

// FieldFormatError reports one field whose external value failed format
// validation.
type FieldFormatError struct {
	Field  string
	Value  string
	Format string
}

func (e *FieldFormatError) Error() string {
	return fmt.Sprintf("field %s: value %q does not match required format %s", e.Field, e.Value, e.Format)
}

// ResolveError aggregates every format violation found during one
// resolution. Any violation fails the resolution as a whole.
type ResolveError struct {
	Violations []*FieldFormatError
}

func (e *ResolveError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return "hl7v2: field format validation failed: " + strings.Join(msgs, "; ")
}

var formatRules = map[string]struct {
	re     *regexp.Regexp
	format string
}{
	FieldControlID:         {regexp.MustCompile(`^[A-Za-z0-9._-]+$`), "alphanumeric with . _ -"},
	FieldDateOfBirth:       {regexp.MustCompile(`^\d{8}$`), "YYYYMMDD"},
	FieldAdmitDateTime:     {regexp.MustCompile(`^\d{12}$`), "YYYYMMDDHHmm"},
	FieldDischargeDateTime: {regexp.MustCompile(`^\d{12}$`), "YYYYMMDDHHmm"},
}

// Resolver merges explicit inputs, bucket values and synthetic defaults
// into a ResolvedFields mapping. Precedence per field: explicit non-empty
// (after trimming) wins, else non-empty bucket value, else synthesis.
type Resolver struct {
	synth *Synth
}

// NewResolver returns a resolver backed by the given synthetic source.
func NewResolver(s *Synth) *Resolver {
	return &Resolver{synth: s}
}

// Resolve produces the value-per-field mapping for one (message type,
// event) generation. Format validation runs on whichever external value
// would otherwise be used; all violations are collected and reported
// together, and any violation fails resolution entirely.
func (r *Resolver) Resolve(msgType, event string, in Inputs, bucket BucketLookup) (ResolvedFields, error) {
	needed := neededFields(msgType, event)
	want := make(map[string]bool, len(needed))
	for _, f := range needed {
		want[f] = true
	}

	rf := make(ResolvedFields, len(needed))
	var violations []*FieldFormatError

	// external returns the highest-precedence external value for a field.
	// ForceRandom on an enumerable-choice field suppresses both sources.
	external := func(name string) (string, bool) {
		fi := in[name]
		if fi.kind == forceRandomKind && randomizable[name] {
			return "", false
		}
		if fi.kind == explicitKind {
			if v := strings.TrimSpace(fi.value); v != "" {
				return v, true
			}
		}
		if bucket != nil {
			if v, ok := bucket(name); ok {
				if v = strings.TrimSpace(v); v != "" {
					return v, true
				}
			}
		}
		return "", false
	}

	resolve := func(name string, synthesize func() string) {
		if !want[name] {
			return
		}
		if v, ok := external(name); ok {
			if rule, has := formatRules[name]; has && !rule.re.MatchString(v) {
				violations = append(violations, &FieldFormatError{Field: name, Value: v, Format: rule.format})
				return
			}
			rf[name] = v
			return
		}
		rf[name] = synthesize()
	}

	s := r.synth

	// Enumerable-choice fields first: the gendered name pool depends on
	// the resolved gender.
	resolve(FieldGender, s.Gender)
	resolve(FieldRace, s.Race)
	resolve(FieldMaritalStatus, s.MaritalStatus)
	if want[FieldPatientClass] {
		if msgType == TypeSIU {
			rf[FieldPatientClass] = resolveSIUPatientClass(in, bucket, s)
		} else {
			resolve(FieldPatientClass, s.PatientClass)
		}
	}

	resolve(FieldControlID, func() string { return s.ID(12) })
	resolve(FieldMessageDateTime, s.Now)
	resolve(FieldPatientID, func() string { return s.ID(8) })
	resolve(FieldFirstName, func() string { return s.FirstName(rf[FieldGender]) })
	resolve(FieldLastName, s.LastName)
	resolve(FieldDateOfBirth, s.DateOfBirth)
	resolve(FieldAddress, s.Address)
	resolve(FieldPhone, s.Phone)

	resolve(FieldLocation, s.Location)
	resolve(FieldAttendingDoctor, s.Provider)
	resolve(FieldAdmitDateTime, s.AdmitTime)
	resolve(FieldDischargeDateTime, s.DischargeTime)

	if want[FieldDiagnosisCode] || want[FieldDiagnosisDescription] {
		d := s.Diagnosis()
		resolve(FieldDiagnosisCode, func() string { return d.Code })
		resolve(FieldDiagnosisDescription, func() string { return d.Text })
	}

	resolve(FieldOrderNumber, func() string { return s.ID(10) })
	resolve(FieldFillerOrderNumber, func() string { return s.ID(10) })

	if want[FieldLabTestCode] || want[FieldLabTestName] {
		t := s.LabTest()
		resolve(FieldLabTestCode, func() string { return t.Code })
		resolve(FieldLabTestName, func() string { return t.Text })
		if want[FieldLabValue] {
			resolve(FieldLabUnits, func() string { return t.Units })
			resolve(FieldLabReferenceRange, t.RefRange)
			res := s.LabResult(t)
			resolve(FieldLabValue, func() string { return trimFloat(res.Value) })
			// The flag is always computed from the resolved value against
			// the resolved range, never taken as input.
			rf[FieldAbnormalFlag] = classifyResolved(rf[FieldLabValue], rf[FieldLabReferenceRange])
		}
	}

	if want[FieldMedicationCode] || want[FieldMedicationName] {
		m := s.Medication()
		resolve(FieldMedicationCode, func() string { return m.Code })
		resolve(FieldMedicationName, func() string { return m.Text })
		resolve(FieldDoseAmount, func() string { return "1" })
		resolve(FieldDoseUnits, func() string { return "TAB" })
	}

	if want[FieldVaccineCode] || want[FieldVaccineName] {
		v := s.Vaccine()
		resolve(FieldVaccineCode, func() string { return v.Code })
		resolve(FieldVaccineName, func() string { return v.Text })
		resolve(FieldLotNumber, func() string { return s.ID(8) })
		resolve(FieldAdministeredDateTime, s.Now)
	}

	if want[FieldAppointmentTypeCode] || want[FieldAppointmentTypeName] {
		a := s.AppointmentType()
		resolve(FieldAppointmentID, func() string { return s.ID(10) })
		resolve(FieldAppointmentTypeCode, func() string { return a.Code })
		resolve(FieldAppointmentTypeName, func() string { return a.Text })
		resolve(FieldAppointmentDateTime, s.FutureDate)
		resolve(FieldAppointmentDuration, func() string { return "30" })
	}

	if want[FieldDocumentTypeCode] || want[FieldDocumentTypeName] {
		d := s.DocumentType()
		resolve(FieldDocumentID, func() string { return s.ID(10) })
		resolve(FieldDocumentTypeCode, func() string { return d.Code })
		resolve(FieldDocumentTypeName, func() string { return d.Text })
		resolve(FieldDocumentDateTime, s.Now)
	}

	if want[FieldTransactionCode] || want[FieldTransactionDescription] {
		t := s.TransactionCode()
		resolve(FieldTransactionID, func() string { return s.ID(10) })
		resolve(FieldTransactionCode, func() string { return t.Code })
		resolve(FieldTransactionDescription, func() string { return t.Text })
		resolve(FieldTransactionAmount, s.Amount)
		resolve(FieldTransactionDateTime, s.Now)
	}

	if len(violations) > 0 {
		return nil, &ResolveError{Violations: violations}
	}
	return rf, nil
}

// resolveSIUPatientClass applies the scheduling default: Outpatient
// unless the caller explicitly supplied Inpatient or Emergency (or forced
// a random draw).
func resolveSIUPatientClass(in Inputs, bucket BucketLookup, s *Synth) string {
	fi := in[FieldPatientClass]
	if fi.kind == forceRandomKind {
		return s.PatientClass()
	}
	supplied := ""
	if fi.kind == explicitKind {
		supplied = strings.TrimSpace(fi.value)
	}
	if supplied == "" && bucket != nil {
		if v, ok := bucket(FieldPatientClass); ok {
			supplied = strings.TrimSpace(v)
		}
	}
	if supplied == "I" || supplied == "E" {
		return supplied
	}
	return "O"
}

// classifyResolved computes the H/L/N abnormal flag from a resolved value
// and references-range string. Values or ranges that do not parse yield
// no flag.
func classifyResolved(value, refRange string) string {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return ""
	}
	lowStr, highStr, ok := strings.Cut(refRange, "-")
	if !ok {
		return ""
	}
	low, err1 := strconv.ParseFloat(lowStr, 64)
	high, err2 := strconv.ParseFloat(highStr, 64)
	if err1 != nil || err2 != nil {
		return ""
	}
	return ClassifyValue(v, low, high)
}

// patientFields are resolved for every message type.
var patientFields = []string{
	FieldControlID, FieldMessageDateTime,
	FieldPatientID, FieldFirstName, FieldLastName, FieldDateOfBirth,
	FieldGender, FieldRace, FieldMaritalStatus, FieldAddress, FieldPhone,
}

// visitFields back the PV1 segment.
var visitFields = []string{
	FieldPatientClass, FieldLocation, FieldAttendingDoctor, FieldAdmitDateTime,
}

// neededFields enumerates the logical fields one (message type, event)
// generation resolves. The key set is fixed per message type.
func neededFields(msgType, event string) []string {
	fields := append([]string(nil), patientFields...)

	switch msgType {
	case TypeADT:
		fields = append(fields, visitFields...)
		fields = append(fields, FieldDiagnosisCode, FieldDiagnosisDescription)
		if event == EventDischarge {
			fields = append(fields, FieldDischargeDateTime)
		}
	case TypeORM:
		fields = append(fields, visitFields...)
		fields = append(fields, FieldOrderNumber, FieldFillerOrderNumber,
			FieldLabTestCode, FieldLabTestName)
	case TypeORU:
		fields = append(fields, visitFields...)
		fields = append(fields, FieldOrderNumber, FieldFillerOrderNumber,
			FieldLabTestCode, FieldLabTestName,
			FieldLabValue, FieldLabUnits, FieldLabReferenceRange)
	case TypeSIU:
		fields = append(fields, visitFields...)
		fields = append(fields, FieldAppointmentID,
			FieldAppointmentTypeCode, FieldAppointmentTypeName,
			FieldAppointmentDateTime, FieldAppointmentDuration)
	case TypeRDE:
		fields = append(fields, visitFields...)
		fields = append(fields, FieldOrderNumber,
			FieldMedicationCode, FieldMedicationName, FieldDoseAmount, FieldDoseUnits)
	case TypeMDM:
		fields = append(fields, FieldAttendingDoctor, FieldDocumentID,
			FieldDocumentTypeCode, FieldDocumentTypeName, FieldDocumentDateTime)
	case TypeDFT:
		fields = append(fields, visitFields...)
		fields = append(fields, FieldTransactionID, FieldTransactionCode,
			FieldTransactionDescription, FieldTransactionAmount, FieldTransactionDateTime)
	case TypeVXU:
		fields = append(fields, FieldOrderNumber,
			FieldVaccineCode, FieldVaccineName, FieldLotNumber, FieldAdministeredDateTime)
	}
	return fields
}
