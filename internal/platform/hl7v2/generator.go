package hl7v2

import (
	"fmt"
	"strings"
)

// The eight supported message types.
const (
	TypeADT = "ADT"
	TypeORM = "ORM"
	TypeORU = "ORU"
	TypeSIU = "SIU"
	TypeRDE = "RDE"
	TypeMDM = "MDM"
	TypeDFT = "DFT"
	TypeVXU = "VXU"
)

// ADT event codes with generator-visible semantics.
const (
	EventAdmit     = "A01"
	EventTransfer  = "A02"
	EventDischarge = "A03"
	EventRegister  = "A04"
	EventUpdate    = "A08"
)

// messageEvents lists the valid event types per message type; the first
// entry is the default substituted when the caller supplies an event not
// valid for the chosen type.
var messageEvents = map[string][]string{
	TypeADT: {EventAdmit, EventTransfer, EventDischarge, EventRegister, EventUpdate},
	TypeORM: {"O01"},
	TypeORU: {"R01"},
	TypeSIU: {"S12", "S13", "S14", "S15"},
	TypeRDE: {"O11"},
	TypeMDM: {"T02", "T04"},
	TypeDFT: {"P03"},
	TypeVXU: {"V04"},
}

// MessageTypes returns the supported message type codes in a fixed order.
func MessageTypes() []string {
	return []string{TypeADT, TypeORM, TypeORU, TypeSIU, TypeRDE, TypeMDM, TypeDFT, TypeVXU}
}

// EventsFor returns the valid event types for a message type.
func EventsFor(msgType string) []string {
	return messageEvents[msgType]
}

// normalizeEvent substitutes the message type's default event when the
// supplied event is empty or not valid for the type.
func normalizeEvent(msgType, event string) string {
	events := messageEvents[msgType]
	for _, e := range events {
		if e == event {
			return event
		}
	}
	return events[0]
}

// GenerateOptions are the inputs to one generation call.
type GenerateOptions struct {
	Type   string
	Event  string
	Inputs Inputs
	Bucket BucketLookup
}

// GenerateResult is the structured outcome of one generation call.
type GenerateResult struct {
	Type      string
	Event     string
	Version   string
	ControlID string
	Segments  []string
	Message   string
}

// Generator renders complete messages from resolved field sets.
type Generator struct {
	resolver *Resolver
}

// NewGenerator returns a generator backed by the given synthetic source.
func NewGenerator(s *Synth) *Generator {
	return &Generator{resolver: NewResolver(s)}
}

// Generate resolves fields and renders the fixed segment sequence for the
// requested message type. Resolution failures abort the call entirely; no
// partial message is produced.
func (g *Generator) Generate(opts GenerateOptions) (*GenerateResult, error) {
	if _, ok := messageEvents[opts.Type]; !ok {
		return nil, fmt.Errorf("hl7v2: unsupported message type %q", opts.Type)
	}
	event := normalizeEvent(opts.Type, opts.Event)

	rf, err := g.resolver.Resolve(opts.Type, event, opts.Inputs, opts.Bucket)
	if err != nil {
		return nil, err
	}

	segments := buildSegments(opts.Type, event, rf)
	return &GenerateResult{
		Type:      opts.Type,
		Event:     event,
		Version:   DefaultVersion,
		ControlID: rf[FieldControlID],
		Segments:  segments,
		Message:   Assemble(segments),
	}, nil
}

// Assemble joins rendered segments with the canonical terminator, with no
// terminator after the final segment. Segment content passes through
// unchanged.
func Assemble(segments []string) string {
	return strings.Join(segments, SegmentTerminator)
}

// buildSegments renders the fixed per-message-type segment sequence.
func buildSegments(msgType, event string, rf ResolvedFields) []string {
	segs := []string{buildMSH(msgType, event, rf)}

	switch msgType {
	case TypeADT:
		segs = append(segs, buildEVN(event, rf), buildPID(rf), buildPV1(event, rf), buildDG1(event, rf))
		if event == EventDischarge {
			segs = append(segs, buildPV2(rf))
		}
	case TypeORM:
		segs = append(segs, buildPID(rf), buildPV1(event, rf), buildORC("NW", rf), buildOBR(rf))
	case TypeORU:
		segs = append(segs, buildPID(rf), buildPV1(event, rf), buildOBR(rf), buildOBXResult(rf))
	case TypeSIU:
		segs = append(segs, buildPID(rf), buildPV1(event, rf),
			buildSCH(rf), buildAIS(rf), buildAIL(rf), buildAIP(rf))
	case TypeRDE:
		segs = append(segs, buildPID(rf), buildPV1(event, rf), buildORC("NW", rf),
			buildRXE(rf), buildRXR(oralRoute))
	case TypeMDM:
		segs = append(segs, buildPID(rf), buildTXA(rf), buildOBXDocument(rf))
	case TypeDFT:
		segs = append(segs, buildPID(rf), buildPV1(event, rf), buildFT1(rf))
	case TypeVXU:
		segs = append(segs, buildPID(rf), buildORC("RE", rf), buildRXA(rf),
			buildRXR(intramuscularRoute), buildOBXVaccine(rf))
	}
	return segs
}

// escape substitutes the HL7 escape sequences for the structural
// separators in emitted field values:
//
//	\F\ = |   \S\ = ^   \R\ = ~   \E\ = \   \T\ = &
func escape(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\E\\")
	s = strings.ReplaceAll(s, "|", "\\F\\")
	s = strings.ReplaceAll(s, "^", "\\S\\")
	s = strings.ReplaceAll(s, "~", "\\R\\")
	s = strings.ReplaceAll(s, "&", "\\T\\")
	return s
}
