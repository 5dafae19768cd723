package hl7v2

import "strings"

// Fixed literal codes from the standard tables. These are emitted as
// constants, never derived from input.
const (
	sendingApp        = "HL7FORGE"
	sendingFacility   = "HL7ForgeFac"
	receivingApp      = "Receiver"
	receivingFacility = "ReceiverFac"

	encodingCharacters = `^~\&`
	processingID       = "P"

	diagnosisCodingMethod = "I10"
	labCodingSystem       = "LN"
	medCodingSystem       = "RXNORM"
	vaccineCodingSystem   = "CVX"
	apptCodingSystem      = "HL70276"
	docCodingSystem       = "HL70270"
	procCodingSystem      = "C4"

	resultStatusFinal   = "F"
	docStatusAuth       = "AU"
	chargeTxnType       = "CG"
	rxaCompletionStatus = "CP"
	rxaActionAdd        = "A"
	vaccineTypeOBX3     = "30956-7^Vaccine type^LN"
	rxaAdminNotes       = "00^New immunization record^NIP001"
)

var (
	oralRoute          = CodedValue{"PO", "By Mouth", "HL70162"}
	intramuscularRoute = CodedValue{"IM", "Intramuscular", "HL70162"}
)

// segmentBuilder renders one segment at the field positions the catalog
// defines, preserving empty placeholders for unused intermediate fields.
// Positional correctness, not compactness, is the contract.
type segmentBuilder struct {
	id     string
	values map[int]string
	max    int
}

func newSegment(id string) *segmentBuilder {
	return &segmentBuilder{id: id, values: make(map[int]string)}
}

// set places a value at the position the catalog defines for the named
// field. Builders and catalog are both static tables, so an unknown name
// panics at development time rather than silently drifting.
func (b *segmentBuilder) set(name, value string) {
	pos := fieldPosition(b.id, name)
	b.values[pos] = value
	if pos > b.max {
		b.max = pos
	}
}

// render emits id|f1|f2|...|fmax. For MSH, field 1 is the field separator
// itself, so rendering starts at field 2.
func (b *segmentBuilder) render() string {
	start := 1
	if b.id == "MSH" {
		start = 2
	}
	fields := make([]string, 0, b.max-start+1)
	for i := start; i <= b.max; i++ {
		fields = append(fields, b.values[i])
	}
	return b.id + "|" + strings.Join(fields, "|")
}

// coded joins a code bundle into an HL7 coded element, escaping the
// leaf values.
func coded(code, text, system string) string {
	return escape(code) + "^" + escape(text) + "^" + system
}

func buildMSH(msgType, event string, rf ResolvedFields) string {
	b := newSegment("MSH")
	b.set("Encoding Characters", encodingCharacters)
	b.set("Sending Application", sendingApp)
	b.set("Sending Facility", sendingFacility)
	b.set("Receiving Application", receivingApp)
	b.set("Receiving Facility", receivingFacility)
	b.set("Date/Time of Message", rf[FieldMessageDateTime])
	b.set("Message Type", msgType+"^"+event)
	b.set("Message Control ID", escape(rf[FieldControlID]))
	b.set("Processing ID", processingID)
	b.set("Version ID", DefaultVersion)
	return b.render()
}

func buildEVN(event string, rf ResolvedFields) string {
	b := newSegment("EVN")
	b.set("Event Type Code", event)
	b.set("Recorded Date/Time", rf[FieldMessageDateTime])
	return b.render()
}

func buildPID(rf ResolvedFields) string {
	b := newSegment("PID")
	b.set("Set ID - PID", "1")
	b.set("Patient Identifier List", escape(rf[FieldPatientID])+"^^^MRN")
	b.set("Patient Name", escape(rf[FieldLastName])+"^"+escape(rf[FieldFirstName]))
	b.set("Date/Time of Birth", rf[FieldDateOfBirth])
	b.set("Administrative Sex", rf[FieldGender])
	b.set("Race", rf[FieldRace])
	b.set("Patient Address", rf[FieldAddress])
	b.set("Phone Number - Home", escape(rf[FieldPhone]))
	b.set("Marital Status", rf[FieldMaritalStatus])
	return b.render()
}

func buildPV1(event string, rf ResolvedFields) string {
	b := newSegment("PV1")
	b.set("Set ID - PV1", "1")
	b.set("Patient Class", rf[FieldPatientClass])
	b.set("Assigned Patient Location", rf[FieldLocation])
	b.set("Attending Doctor", rf[FieldAttendingDoctor])
	b.set("Admit Date/Time", rf[FieldAdmitDateTime])
	if event == EventDischarge {
		b.set("Discharge Date/Time", rf[FieldDischargeDateTime])
	}
	return b.render()
}

func buildPV2(rf ResolvedFields) string {
	b := newSegment("PV2")
	b.set("Admit Reason", escape(rf[FieldDiagnosisDescription]))
	b.set("Expected Discharge Date/Time", rf[FieldDischargeDateTime])
	return b.render()
}

// diagnosisType maps the event to the DG1-6 code: admitting events carry
// an admitting diagnosis, discharge a final one, everything else working.
func diagnosisType(event string) string {
	switch event {
	case EventAdmit, EventRegister:
		return "A"
	case EventDischarge:
		return "F"
	default:
		return "W"
	}
}

func buildDG1(event string, rf ResolvedFields) string {
	b := newSegment("DG1")
	b.set("Set ID - DG1", "1")
	b.set("Diagnosis Coding Method", diagnosisCodingMethod)
	b.set("Diagnosis Code", coded(rf[FieldDiagnosisCode], rf[FieldDiagnosisDescription], diagnosisCodingMethod))
	b.set("Diagnosis Date/Time", rf[FieldMessageDateTime])
	b.set("Diagnosis Type", diagnosisType(event))
	return b.render()
}

func buildORC(orderControl string, rf ResolvedFields) string {
	b := newSegment("ORC")
	b.set("Order Control", orderControl)
	b.set("Placer Order Number", escape(rf[FieldOrderNumber]))
	if v := rf[FieldFillerOrderNumber]; v != "" {
		b.set("Filler Order Number", escape(v))
	}
	b.set("Date/Time of Transaction", rf[FieldMessageDateTime])
	if v := rf[FieldAttendingDoctor]; v != "" {
		b.set("Ordering Provider", v)
	}
	return b.render()
}

func buildOBR(rf ResolvedFields) string {
	b := newSegment("OBR")
	b.set("Set ID - OBR", "1")
	b.set("Placer Order Number", escape(rf[FieldOrderNumber]))
	b.set("Filler Order Number", escape(rf[FieldFillerOrderNumber]))
	b.set("Universal Service Identifier", coded(rf[FieldLabTestCode], rf[FieldLabTestName], labCodingSystem))
	b.set("Observation Date/Time", rf[FieldMessageDateTime])
	if v := rf[FieldAttendingDoctor]; v != "" {
		b.set("Ordering Provider", v)
	}
	return b.render()
}

func buildOBXResult(rf ResolvedFields) string {
	b := newSegment("OBX")
	b.set("Set ID - OBX", "1")
	b.set("Value Type", "NM")
	b.set("Observation Identifier", coded(rf[FieldLabTestCode], rf[FieldLabTestName], labCodingSystem))
	b.set("Observation Value", escape(rf[FieldLabValue]))
	b.set("Units", escape(rf[FieldLabUnits]))
	b.set("References Range", escape(rf[FieldLabReferenceRange]))
	b.set("Abnormal Flags", rf[FieldAbnormalFlag])
	b.set("Observation Result Status", resultStatusFinal)
	return b.render()
}

func buildOBXDocument(rf ResolvedFields) string {
	b := newSegment("OBX")
	b.set("Set ID - OBX", "1")
	b.set("Value Type", "TX")
	b.set("Observation Identifier", coded(rf[FieldDocumentTypeCode], rf[FieldDocumentTypeName], docCodingSystem))
	b.set("Observation Value", "Document content accompanies this message")
	b.set("Observation Result Status", resultStatusFinal)
	return b.render()
}

func buildOBXVaccine(rf ResolvedFields) string {
	b := newSegment("OBX")
	b.set("Set ID - OBX", "1")
	b.set("Value Type", "CE")
	b.set("Observation Identifier", vaccineTypeOBX3)
	b.set("Observation Value", coded(rf[FieldVaccineCode], rf[FieldVaccineName], vaccineCodingSystem))
	b.set("Observation Result Status", resultStatusFinal)
	return b.render()
}

func buildSCH(rf ResolvedFields) string {
	b := newSegment("SCH")
	b.set("Placer Appointment ID", escape(rf[FieldAppointmentID]))
	b.set("Filler Appointment ID", escape(rf[FieldAppointmentID]))
	b.set("Appointment Type", coded(rf[FieldAppointmentTypeCode], rf[FieldAppointmentTypeName], apptCodingSystem))
	b.set("Appointment Duration", rf[FieldAppointmentDuration])
	b.set("Appointment Duration Units", "MIN")
	b.set("Appointment Timing Quantity", "^^^"+rf[FieldAppointmentDateTime])
	return b.render()
}

func buildAIS(rf ResolvedFields) string {
	b := newSegment("AIS")
	b.set("Set ID - AIS", "1")
	b.set("Universal Service Identifier", coded(rf[FieldAppointmentTypeCode], rf[FieldAppointmentTypeName], apptCodingSystem))
	b.set("Start Date/Time", rf[FieldAppointmentDateTime])
	b.set("Duration", rf[FieldAppointmentDuration])
	b.set("Duration Units", "MIN")
	return b.render()
}

func buildAIL(rf ResolvedFields) string {
	b := newSegment("AIL")
	b.set("Set ID - AIL", "1")
	b.set("Location Resource ID", rf[FieldLocation])
	b.set("Start Date/Time", rf[FieldAppointmentDateTime])
	return b.render()
}

func buildAIP(rf ResolvedFields) string {
	b := newSegment("AIP")
	b.set("Set ID - AIP", "1")
	b.set("Personnel Resource ID", rf[FieldAttendingDoctor])
	b.set("Start Date/Time", rf[FieldAppointmentDateTime])
	return b.render()
}

func buildRXE(rf ResolvedFields) string {
	b := newSegment("RXE")
	b.set("Quantity/Timing", "1")
	b.set("Give Code", coded(rf[FieldMedicationCode], rf[FieldMedicationName], medCodingSystem))
	b.set("Give Amount - Minimum", escape(rf[FieldDoseAmount]))
	b.set("Give Units", escape(rf[FieldDoseUnits]))
	return b.render()
}

func buildRXR(route CodedValue) string {
	b := newSegment("RXR")
	b.set("Route", route.String())
	return b.render()
}

func buildTXA(rf ResolvedFields) string {
	b := newSegment("TXA")
	b.set("Set ID - TXA", "1")
	b.set("Document Type", coded(rf[FieldDocumentTypeCode], rf[FieldDocumentTypeName], docCodingSystem))
	b.set("Document Content Presentation", "TX")
	b.set("Activity Date/Time", rf[FieldDocumentDateTime])
	b.set("Primary Activity Provider", rf[FieldAttendingDoctor])
	b.set("Origination Date/Time", rf[FieldDocumentDateTime])
	b.set("Unique Document Number", escape(rf[FieldDocumentID]))
	b.set("Document Completion Status", docStatusAuth)
	return b.render()
}

func buildFT1(rf ResolvedFields) string {
	b := newSegment("FT1")
	b.set("Set ID - FT1", "1")
	b.set("Transaction ID", escape(rf[FieldTransactionID]))
	b.set("Transaction Date", rf[FieldTransactionDateTime])
	b.set("Transaction Posting Date", rf[FieldTransactionDateTime])
	b.set("Transaction Type", chargeTxnType)
	b.set("Transaction Code", coded(rf[FieldTransactionCode], rf[FieldTransactionDescription], procCodingSystem))
	b.set("Transaction Description", escape(rf[FieldTransactionDescription]))
	b.set("Transaction Quantity", "1")
	b.set("Transaction Amount - Extended", escape(rf[FieldTransactionAmount]))
	return b.render()
}

func buildRXA(rf ResolvedFields) string {
	b := newSegment("RXA")
	b.set("Give Sub-ID Counter", "0")
	b.set("Administration Sub-ID Counter", "1")
	b.set("Date/Time Start of Administration", rf[FieldAdministeredDateTime])
	b.set("Date/Time End of Administration", rf[FieldAdministeredDateTime])
	b.set("Administered Code", coded(rf[FieldVaccineCode], rf[FieldVaccineName], vaccineCodingSystem))
	b.set("Administered Amount", "0.5")
	b.set("Administered Units", "mL")
	b.set("Administration Notes", rxaAdminNotes)
	b.set("Substance Lot Number", escape(rf[FieldLotNumber]))
	b.set("Completion Status", rxaCompletionStatus)
	b.set("Action Code - RXA", rxaActionAdd)
	return b.render()
}
