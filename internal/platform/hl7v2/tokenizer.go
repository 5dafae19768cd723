package hl7v2

import (
	"fmt"
	"strings"
)

// Tokenize splits raw message text into labeled segments and fields.
//
// Line endings are normalized to the canonical segment terminator and
// blank lines dropped. The field separator is the single character
// immediately following the MSH id, the component separator the character
// after that; both are read once from the header line and applied
// literally to every line (strings.Split never interprets them as
// pattern metacharacters).
//
// MSH is the standard's structural quirk: its first field is the
// separator character itself, so splitting the header line yields the
// encoding characters as the first token after the id. The tokenizer
// materializes field 1 as the separator and shifts the remaining tokens
// up one position, which keeps MSH-9/10/12 on their standard indices and
// every segment's indices aligned with the catalog's field-name ordering.
//
// A message whose first non-blank line does not begin with MSH is a
// structural error: no partial result is returned.
func Tokenize(raw string) (*Message, error) {
	text := strings.ReplaceAll(raw, "\r\n", SegmentTerminator)
	text = strings.ReplaceAll(text, "\n", SegmentTerminator)

	var lines []string
	for _, line := range strings.Split(text, SegmentTerminator) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("hl7v2: message is empty")
	}

	header := lines[0]
	if !strings.HasPrefix(header, "MSH") {
		return nil, fmt.Errorf("hl7v2: first segment must be MSH, got %q", header[:min(3, len(header))])
	}
	if len(header) < 4 {
		return nil, fmt.Errorf("hl7v2: MSH segment declares no field separator")
	}

	fieldSep := string(header[3])
	compSep := ""
	if len(header) > 4 {
		compSep = string(header[4])
	}

	msg := &Message{}
	for _, line := range lines {
		msg.Segments = append(msg.Segments, tokenizeSegment(line, fieldSep))
	}

	extractHeader(msg, compSep)
	return msg, nil
}

// tokenizeSegment splits one line into indexed, labeled fields.
func tokenizeSegment(line, fieldSep string) Segment {
	tokens := strings.Split(line, fieldSep)
	id := tokens[0]

	seg := Segment{ID: id, Raw: line}
	if def, ok := Catalog[id]; ok {
		seg.Name = def.Name
	}

	offset := 1
	if id == "MSH" {
		seg.Fields = append(seg.Fields, Field{
			Index: 1,
			Name:  FieldLabel(id, 1),
			Value: fieldSep,
		})
		offset = 2
	}
	for i, tok := range tokens[1:] {
		index := i + offset
		seg.Fields = append(seg.Fields, Field{
			Index: index,
			Name:  FieldLabel(id, index),
			Value: tok,
		})
	}
	return seg
}

// extractHeader pulls message type, event type, control id and version
// out of the tokenized MSH segment (fields 9, 10 and 12).
func extractHeader(m *Message, compSep string) {
	msh := m.GetSegment("MSH")
	if msh == nil {
		return
	}

	typeField := msh.FieldValue(9)
	if compSep != "" && strings.Contains(typeField, compSep) {
		parts := strings.SplitN(typeField, compSep, 3)
		m.Type = parts[0]
		m.Event = parts[1]
	} else {
		m.Type = typeField
	}

	m.ControlID = msh.FieldValue(10)
	m.Version = msh.FieldValue(12)
}
