package hl7v2

// SegmentTerminator is the canonical terminator between rendered
// segments. Tokenization normalizes \r\n and \n to it before splitting.
const SegmentTerminator = "\r"

// DefaultVersion is the HL7 version id emitted in MSH-12.
const DefaultVersion = "2.5.1"

// Message is one tokenized HL7v2 message.
type Message struct {
	Type      string // MSH-9.1, e.g. "ADT"
	Event     string // MSH-9.2, e.g. "A01"; empty when MSH-9 has no component
	Version   string // MSH-12
	ControlID string // MSH-10
	Segments  []Segment
}

// Segment is one tokenized segment line.
type Segment struct {
	ID     string // 3-letter segment id
	Name   string // catalog display name, empty for unknown segments
	Raw    string // the raw line as received, after line-ending normalization
	Fields []Field
}

// Field is one delimited value within a segment. Index is 1-based and
// follows the standard's field numbering; for MSH, index 1 is the field
// separator character itself.
type Field struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is one finding from the validator. Errors make a parsed
// message invalid; warnings do not.
type ValidationIssue struct {
	Severity Severity
	Message  string
}

// GetSegment returns the first segment with the given id, or nil.
func (m *Message) GetSegment(id string) *Segment {
	for i := range m.Segments {
		if m.Segments[i].ID == id {
			return &m.Segments[i]
		}
	}
	return nil
}

// GetSegments returns all segments with the given id.
func (m *Message) GetSegments(id string) []Segment {
	var out []Segment
	for _, s := range m.Segments {
		if s.ID == id {
			out = append(out, s)
		}
	}
	return out
}

// FieldValue returns the value at a 1-based field position, or "" when
// the position is absent.
func (s *Segment) FieldValue(index int) string {
	for _, f := range s.Fields {
		if f.Index == index {
			return f.Value
		}
	}
	return ""
}

// FieldCount returns the highest field position present in the segment.
func (s *Segment) FieldCount() int {
	n := 0
	for _, f := range s.Fields {
		if f.Index > n {
			n = f.Index
		}
	}
	return n
}
