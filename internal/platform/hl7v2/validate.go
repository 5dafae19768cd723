package hl7v2

import "fmt"

// mshMinFields is the smallest header the validator accepts: MSH must
// carry at least the version field (MSH-12).
const mshMinFields = 12

// Validate applies the required/recommended rules to a tokenized message
// and returns the ordered issue list. It never fails: validator findings
// are soft relative to the parse itself.
func Validate(m *Message) []ValidationIssue {
	var issues []ValidationIssue

	msh := m.GetSegment("MSH")
	if msh == nil {
		// Tokenize rejects such input before validation runs.
		return []ValidationIssue{{SeverityError, "missing MSH segment"}}
	}

	if msh.FieldValue(9) == "" {
		issues = append(issues, ValidationIssue{SeverityError, "missing message type (MSH-9)"})
	}
	if msh.FieldValue(10) == "" {
		issues = append(issues, ValidationIssue{SeverityError, "missing message control ID (MSH-10)"})
	}
	if n := msh.FieldCount(); n < mshMinFields {
		issues = append(issues, ValidationIssue{SeverityError,
			fmt.Sprintf("MSH segment has %d fields, expected at least %d", n, mshMinFields)})
	}
	if msh.FieldValue(12) == "" {
		issues = append(issues, ValidationIssue{SeverityWarning, "missing version ID (MSH-12)"})
	}

	for _, def := range catalogOrder {
		if !def.Recommended {
			continue
		}
		if m.GetSegment(def.ID) == nil {
			issues = append(issues, ValidationIssue{SeverityWarning,
				fmt.Sprintf("no %s (%s) segment present", def.ID, def.Name)})
		}
	}

	return issues
}

// SplitIssues partitions issues into ordered error and warning message
// lists. Overall validity is len(errors) == 0.
func SplitIssues(issues []ValidationIssue) (errors, warnings []string) {
	for _, is := range issues {
		if is.Severity == SeverityError {
			errors = append(errors, is.Message)
		} else {
			warnings = append(warnings, is.Message)
		}
	}
	return errors, warnings
}
