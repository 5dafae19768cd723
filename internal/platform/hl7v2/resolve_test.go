package hl7v2

import (
	"strings"
	"testing"
)

// =========== Resolver Tests ===========

func newTestResolver() *Resolver {
	return NewResolver(newTestSynth())
}

func TestResolve_Precedence(t *testing.T) {
	r := newTestResolver()

	rf, err := r.Resolve(TypeADT, EventAdmit,
		Inputs{FieldLastName: Explicit("Ngata")},
		mapBucket(map[string]string{
			FieldLastName:  "Ibrahim",
			FieldFirstName: "Tariq",
			FieldGender:    "M",
		}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rf[FieldLastName] != "Ngata" {
		t.Errorf("explicit value lost: %q", rf[FieldLastName])
	}
	if rf[FieldFirstName] != "Tariq" {
		t.Errorf("bucket value lost: %q", rf[FieldFirstName])
	}
	if rf[FieldPatientID] == "" {
		t.Error("expected synthesized patient id")
	}
}

func TestResolve_TrimsExternalValues(t *testing.T) {
	r := newTestResolver()
	rf, err := r.Resolve(TypeADT, EventAdmit,
		Inputs{FieldFirstName: Explicit("  Dana  ")}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rf[FieldFirstName] != "Dana" {
		t.Errorf("expected trimmed value, got %q", rf[FieldFirstName])
	}
}

func TestResolve_KeySetFixedPerType(t *testing.T) {
	r := newTestResolver()

	cases := map[string][]string{
		TypeADT: {FieldDiagnosisCode, FieldDiagnosisDescription, FieldAdmitDateTime},
		TypeORU: {FieldLabValue, FieldLabUnits, FieldLabReferenceRange, FieldAbnormalFlag},
		TypeSIU: {FieldAppointmentID, FieldAppointmentDateTime, FieldAppointmentDuration},
		TypeRDE: {FieldMedicationCode, FieldDoseAmount, FieldDoseUnits},
		TypeMDM: {FieldDocumentID, FieldDocumentTypeCode, FieldDocumentDateTime},
		TypeDFT: {FieldTransactionID, FieldTransactionCode, FieldTransactionAmount},
		TypeVXU: {FieldVaccineCode, FieldLotNumber, FieldAdministeredDateTime},
	}
	for msgType, wantKeys := range cases {
		event := EventsFor(msgType)[0]
		rf, err := r.Resolve(msgType, event, nil, nil)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", msgType, err)
		}
		for _, k := range wantKeys {
			if rf[k] == "" {
				t.Errorf("%s: expected resolved %s", msgType, k)
			}
		}
		for _, k := range patientFields {
			if rf[k] == "" {
				t.Errorf("%s: expected resolved patient field %s", msgType, k)
			}
		}
		if msgType != TypeADT {
			if _, ok := rf[FieldDiagnosisCode]; ok {
				t.Errorf("%s: unexpected diagnosis field", msgType)
			}
		}
	}
}

func TestResolve_DischargeOnlyOnA03(t *testing.T) {
	r := newTestResolver()

	rf, err := r.Resolve(TypeADT, EventAdmit, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := rf[FieldDischargeDateTime]; ok {
		t.Error("unexpected discharge time on admit")
	}

	rf, err = r.Resolve(TypeADT, EventDischarge, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rf[FieldDischargeDateTime] == "" {
		t.Error("expected discharge time on discharge")
	}
}

func TestResolve_BundleConsistency(t *testing.T) {
	r := newTestResolver()

	for i := 0; i < 20; i++ {
		rf, err := r.Resolve(TypeORU, "R01", nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Code, name, units and range must come from one table entry.
		var found bool
		for _, lt := range labTests {
			if lt.Code == rf[FieldLabTestCode] {
				found = true
				if rf[FieldLabTestName] != lt.Text {
					t.Errorf("test name %q does not belong to code %q", rf[FieldLabTestName], lt.Code)
				}
				if rf[FieldLabUnits] != lt.Units {
					t.Errorf("units %q do not belong to code %q", rf[FieldLabUnits], lt.Code)
				}
				if rf[FieldLabReferenceRange] != lt.RefRange() {
					t.Errorf("range %q does not belong to code %q", rf[FieldLabReferenceRange], lt.Code)
				}
			}
		}
		if !found {
			t.Fatalf("unknown lab test code %q", rf[FieldLabTestCode])
		}
	}
}

func TestResolve_ForceRandomOnlyOnEnumerables(t *testing.T) {
	r := newTestResolver()

	// On a free-text field the force-random request is not honored; the
	// bucket value still applies.
	rf, err := r.Resolve(TypeADT, EventAdmit,
		Inputs{FieldLastName: ForceRandom()},
		mapBucket(map[string]string{FieldLastName: "Haddad"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rf[FieldLastName] != "Haddad" {
		t.Errorf("expected bucket value on non-enumerable field, got %q", rf[FieldLastName])
	}

	// On an enumerable field it suppresses both external sources.
	rf, err = r.Resolve(TypeADT, EventAdmit,
		Inputs{FieldMaritalStatus: ForceRandom()},
		mapBucket(map[string]string{FieldMaritalStatus: "Z"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rf[FieldMaritalStatus] == "Z" {
		t.Error("expected random draw to suppress bucket value")
	}
}

func TestInput_SentinelOnlyOnEnumerables(t *testing.T) {
	if Input(FieldGender, "random").kind != forceRandomKind {
		t.Error("expected forced draw for random gender")
	}
	if Input(FieldPatientClass, "random").kind != forceRandomKind {
		t.Error("expected forced draw for random patient class")
	}
	if in := Input(FieldLastName, "random"); in.kind != explicitKind || in.value != "random" {
		t.Errorf("expected literal explicit value on free-text field, got kind=%d value=%q", in.kind, in.value)
	}
	if in := Input(FieldGender, "F"); in.kind != explicitKind || in.value != "F" {
		t.Errorf("expected ordinary explicit value, got kind=%d value=%q", in.kind, in.value)
	}
}

func TestResolve_LiteralRandomOnFreeTextField(t *testing.T) {
	r := newTestResolver()

	rf, err := r.Resolve(TypeADT, EventAdmit,
		Inputs{FieldLastName: Input(FieldLastName, "random")}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rf[FieldLastName] != "random" {
		t.Errorf("expected literal value to survive, got %q", rf[FieldLastName])
	}
}

func TestResolve_SIUPatientClassFromBucket(t *testing.T) {
	r := newTestResolver()

	rf, err := r.Resolve(TypeSIU, "S12", nil,
		mapBucket(map[string]string{FieldPatientClass: "I"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rf[FieldPatientClass] != "I" {
		t.Errorf("expected bucket inpatient class, got %q", rf[FieldPatientClass])
	}

	rf, err = r.Resolve(TypeSIU, "S12", nil,
		mapBucket(map[string]string{FieldPatientClass: "X"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rf[FieldPatientClass] != "O" {
		t.Errorf("expected outpatient default, got %q", rf[FieldPatientClass])
	}
}

func TestResolveError_Message(t *testing.T) {
	err := &ResolveError{Violations: []*FieldFormatError{
		{Field: FieldDateOfBirth, Value: "bad", Format: "YYYYMMDD"},
		{Field: FieldAdmitDateTime, Value: "worse", Format: "YYYYMMDDHHmm"},
	}}
	msg := err.Error()
	if !strings.HasPrefix(msg, "hl7v2: field format validation failed: ") {
		t.Errorf("unexpected prefix: %q", msg)
	}
	if !strings.Contains(msg, "dateOfBirth") || !strings.Contains(msg, "admitDateTime") {
		t.Errorf("expected both violations in message: %q", msg)
	}
	if !strings.Contains(msg, "; ") {
		t.Errorf("expected violations joined with '; ': %q", msg)
	}
}

func TestClassifyResolved(t *testing.T) {
	cases := []struct {
		value, rng, want string
	}{
		{"5", "10-20", "L"},
		{"25", "10-20", "H"},
		{"15", "10-20", "N"},
		{"abc", "10-20", ""},
		{"15", "n/a", ""},
		{"15", "", ""},
	}
	for _, tc := range cases {
		if got := classifyResolved(tc.value, tc.rng); got != tc.want {
			t.Errorf("classifyResolved(%q, %q) = %q, want %q", tc.value, tc.rng, got, tc.want)
		}
	}
}
