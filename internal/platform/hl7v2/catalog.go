package hl7v2

import "fmt"

// SegmentDefinition is one entry of the segment catalog: the 3-letter
// segment id, a human-readable display name, whether the segment must
// (or should) be present in a message, and the ordered field names.
//
// Field names are 1-based: Fields[0] is the name of field 1. The same
// table drives both directions of the codec. Segment builders place
// values by field name and the tokenizer labels parsed fields by
// position, so the emitted layout and the parsed labels cannot drift
// apart.
type SegmentDefinition struct {
	ID          string
	Name        string
	Required    bool
	Recommended bool
	Fields      []string
}

// Catalog maps segment id to its definition. It is constructed once and
// never mutated.
var Catalog = map[string]SegmentDefinition{
	"MSH": {
		ID:       "MSH",
		Name:     "Message Header",
		Required: true,
		Fields: []string{
			"Field Separator",
			"Encoding Characters",
			"Sending Application",
			"Sending Facility",
			"Receiving Application",
			"Receiving Facility",
			"Date/Time of Message",
			"Security",
			"Message Type",
			"Message Control ID",
			"Processing ID",
			"Version ID",
		},
	},
	"EVN": {
		ID:   "EVN",
		Name: "Event Type",
		Fields: []string{
			"Event Type Code",
			"Recorded Date/Time",
			"Date/Time Planned Event",
			"Event Reason Code",
			"Operator ID",
			"Event Occurred",
		},
	},
	"PID": {
		ID:          "PID",
		Name:        "Patient Identification",
		Recommended: true,
		Fields: []string{
			"Set ID - PID",
			"Patient ID",
			"Patient Identifier List",
			"Alternate Patient ID",
			"Patient Name",
			"Mother's Maiden Name",
			"Date/Time of Birth",
			"Administrative Sex",
			"Patient Alias",
			"Race",
			"Patient Address",
			"County Code",
			"Phone Number - Home",
			"Phone Number - Business",
			"Primary Language",
			"Marital Status",
			"Religion",
			"Patient Account Number",
			"SSN Number - Patient",
		},
	},
	"PV1": {
		ID:   "PV1",
		Name: "Patient Visit",
		Fields: []string{
			"Set ID - PV1",
			"Patient Class",
			"Assigned Patient Location",
			"Admission Type",
			"Preadmit Number",
			"Prior Patient Location",
			"Attending Doctor",
			"Referring Doctor",
			"Consulting Doctor",
			"Hospital Service",
			"Temporary Location",
			"Preadmit Test Indicator",
			"Re-admission Indicator",
			"Admit Source",
			"Ambulatory Status",
			"VIP Indicator",
			"Admitting Doctor",
			"Patient Type",
			"Visit Number",
			"Financial Class",
			"Charge Price Indicator",
			"Courtesy Code",
			"Credit Rating",
			"Contract Code",
			"Contract Effective Date",
			"Contract Amount",
			"Contract Period",
			"Interest Code",
			"Transfer to Bad Debt Code",
			"Transfer to Bad Debt Date",
			"Bad Debt Agency Code",
			"Bad Debt Transfer Amount",
			"Bad Debt Recovery Amount",
			"Delete Account Indicator",
			"Delete Account Date",
			"Discharge Disposition",
			"Discharged to Location",
			"Diet Type",
			"Servicing Facility",
			"Bed Status",
			"Account Status",
			"Pending Location",
			"Prior Temporary Location",
			"Admit Date/Time",
			"Discharge Date/Time",
		},
	},
	"PV2": {
		ID:   "PV2",
		Name: "Patient Visit - Additional Information",
		Fields: []string{
			"Prior Pending Location",
			"Accommodation Code",
			"Admit Reason",
			"Transfer Reason",
			"Patient Valuables",
			"Patient Valuables Location",
			"Visit User Code",
			"Expected Admit Date/Time",
			"Expected Discharge Date/Time",
		},
	},
	"DG1": {
		ID:   "DG1",
		Name: "Diagnosis",
		Fields: []string{
			"Set ID - DG1",
			"Diagnosis Coding Method",
			"Diagnosis Code",
			"Diagnosis Description",
			"Diagnosis Date/Time",
			"Diagnosis Type",
		},
	},
	"ORC": {
		ID:   "ORC",
		Name: "Common Order",
		Fields: []string{
			"Order Control",
			"Placer Order Number",
			"Filler Order Number",
			"Placer Group Number",
			"Order Status",
			"Response Flag",
			"Quantity/Timing",
			"Parent Order",
			"Date/Time of Transaction",
			"Entered By",
			"Verified By",
			"Ordering Provider",
		},
	},
	"OBR": {
		ID:   "OBR",
		Name: "Observation Request",
		Fields: []string{
			"Set ID - OBR",
			"Placer Order Number",
			"Filler Order Number",
			"Universal Service Identifier",
			"Priority",
			"Requested Date/Time",
			"Observation Date/Time",
			"Observation End Date/Time",
			"Collection Volume",
			"Collector Identifier",
			"Specimen Action Code",
			"Danger Code",
			"Relevant Clinical Information",
			"Specimen Received Date/Time",
			"Specimen Source",
			"Ordering Provider",
		},
	},
	"OBX": {
		ID:   "OBX",
		Name: "Observation/Result",
		Fields: []string{
			"Set ID - OBX",
			"Value Type",
			"Observation Identifier",
			"Observation Sub-ID",
			"Observation Value",
			"Units",
			"References Range",
			"Abnormal Flags",
			"Probability",
			"Nature of Abnormal Test",
			"Observation Result Status",
			"Effective Date of Reference Range",
			"User Defined Access Checks",
			"Date/Time of the Observation",
		},
	},
	"SCH": {
		ID:   "SCH",
		Name: "Scheduling Activity Information",
		Fields: []string{
			"Placer Appointment ID",
			"Filler Appointment ID",
			"Occurrence Number",
			"Placer Group Number",
			"Schedule ID",
			"Event Reason",
			"Appointment Reason",
			"Appointment Type",
			"Appointment Duration",
			"Appointment Duration Units",
			"Appointment Timing Quantity",
		},
	},
	"AIS": {
		ID:   "AIS",
		Name: "Appointment Information - Service",
		Fields: []string{
			"Set ID - AIS",
			"Segment Action Code",
			"Universal Service Identifier",
			"Start Date/Time",
			"Start Date/Time Offset",
			"Start Date/Time Offset Units",
			"Duration",
			"Duration Units",
		},
	},
	"AIL": {
		ID:   "AIL",
		Name: "Appointment Information - Location Resource",
		Fields: []string{
			"Set ID - AIL",
			"Segment Action Code",
			"Location Resource ID",
			"Location Type",
			"Location Group",
			"Start Date/Time",
			"Start Date/Time Offset",
			"Start Date/Time Offset Units",
			"Duration",
			"Duration Units",
		},
	},
	"AIP": {
		ID:   "AIP",
		Name: "Appointment Information - Personnel Resource",
		Fields: []string{
			"Set ID - AIP",
			"Segment Action Code",
			"Personnel Resource ID",
			"Resource Type",
			"Resource Group",
			"Start Date/Time",
			"Start Date/Time Offset",
			"Start Date/Time Offset Units",
			"Duration",
			"Duration Units",
		},
	},
	"RXE": {
		ID:   "RXE",
		Name: "Pharmacy/Treatment Encoded Order",
		Fields: []string{
			"Quantity/Timing",
			"Give Code",
			"Give Amount - Minimum",
			"Give Amount - Maximum",
			"Give Units",
			"Give Dosage Form",
			"Provider's Administration Instructions",
		},
	},
	"RXR": {
		ID:   "RXR",
		Name: "Pharmacy/Treatment Route",
		Fields: []string{
			"Route",
			"Administration Site",
			"Administration Device",
			"Administration Method",
		},
	},
	"TXA": {
		ID:   "TXA",
		Name: "Transcription Document Header",
		Fields: []string{
			"Set ID - TXA",
			"Document Type",
			"Document Content Presentation",
			"Activity Date/Time",
			"Primary Activity Provider",
			"Origination Date/Time",
			"Transcription Date/Time",
			"Edit Date/Time",
			"Originator",
			"Assigned Document Authenticator",
			"Transcriptionist",
			"Unique Document Number",
			"Parent Document Number",
			"Placer Order Number",
			"Filler Order Number",
			"Unique Document File Name",
			"Document Completion Status",
		},
	},
	"FT1": {
		ID:   "FT1",
		Name: "Financial Transaction",
		Fields: []string{
			"Set ID - FT1",
			"Transaction ID",
			"Transaction Batch ID",
			"Transaction Date",
			"Transaction Posting Date",
			"Transaction Type",
			"Transaction Code",
			"Transaction Description",
			"Transaction Description - Alternate",
			"Transaction Quantity",
			"Transaction Amount - Extended",
			"Transaction Amount - Unit",
		},
	},
	"RXA": {
		ID:   "RXA",
		Name: "Pharmacy/Treatment Administration",
		Fields: []string{
			"Give Sub-ID Counter",
			"Administration Sub-ID Counter",
			"Date/Time Start of Administration",
			"Date/Time End of Administration",
			"Administered Code",
			"Administered Amount",
			"Administered Units",
			"Administered Dosage Form",
			"Administration Notes",
			"Administering Provider",
			"Administered-at Location",
			"Administered Per (Time Unit)",
			"Administered Strength",
			"Administered Strength Units",
			"Substance Lot Number",
			"Substance Expiration Date",
			"Substance Manufacturer Name",
			"Substance/Treatment Refusal Reason",
			"Indication",
			"Completion Status",
			"Action Code - RXA",
		},
	},
}

// segmentOrder fixes a deterministic iteration order over the catalog so
// rules that scan it produce stable output.
var segmentOrder = []string{
	"MSH", "EVN", "PID", "PV1", "PV2", "DG1", "ORC", "OBR", "OBX",
	"SCH", "AIS", "AIL", "AIP", "RXE", "RXR", "TXA", "FT1", "RXA",
}

var catalogOrder = func() []SegmentDefinition {
	defs := make([]SegmentDefinition, 0, len(segmentOrder))
	for _, id := range segmentOrder {
		defs = append(defs, Catalog[id])
	}
	return defs
}()

// FieldLabel returns the catalog field name for a 1-based position within
// the given segment. Positions beyond the catalog's defined range (or
// segments not in the catalog at all) get a generic positional label.
func FieldLabel(segID string, index int) string {
	if def, ok := Catalog[segID]; ok {
		if index >= 1 && index <= len(def.Fields) {
			return def.Fields[index-1]
		}
	}
	return fmt.Sprintf("Field %d", index)
}

// fieldPosition returns the 1-based position the catalog defines for a
// field name within a segment. Segment builders use it to place values;
// an unknown name is a programming error in the static tables.
func fieldPosition(segID, name string) int {
	def, ok := Catalog[segID]
	if !ok {
		panic(fmt.Sprintf("hl7v2: segment %q not in catalog", segID))
	}
	for i, f := range def.Fields {
		if f == name {
			return i + 1
		}
	}
	panic(fmt.Sprintf("hl7v2: segment %s has no field named %q", segID, name))
}
