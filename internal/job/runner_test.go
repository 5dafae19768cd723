package job

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hl7forge/hl7forge/internal/config"
	"github.com/hl7forge/hl7forge/internal/platform/hl7v2"
)

// =========== Runner Tests ===========

const runnerSampleADT = "MSH|^~\\&|HL7FORGE|HL7ForgeFac|Receiver|ReceiverFac|20240115143025-0500||ADT^A01|MSG00001|P|2.5.1\rPID|1||MRN12345^^^MRN||Doe^John||19800515|M"

func newTestRunner(t *testing.T) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{Env: "test", WorkDir: dir, FileExt: "hl7"}
	gen := hl7v2.NewGenerator(hl7v2.NewSynth())
	return NewRunner(cfg, gen, zerolog.Nop()), dir
}

// terminalLine returns the decoded final notification line.
func terminalLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("invalid terminal line: %v", err)
	}
	if m["kind"] != "result" {
		t.Fatalf("expected terminal result line, got %v", m)
	}
	return m
}

func TestRunner_Generator(t *testing.T) {
	r, dir := newTestRunner(t)
	var buf bytes.Buffer
	n := NewNotifier(&buf)

	status := r.Run(&Request{
		Tool: ToolGenerator,
		Params: map[string]string{
			"messageType": "ADT",
			"eventType":   "A03",
			"lastName":    "Okonkwo",
		},
	}, n)
	if status != 0 {
		t.Fatalf("expected status 0, got %d: %s", status, buf.String())
	}

	term := terminalLine(t, &buf)
	result, ok := term["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object, got %v", term)
	}
	if result["tool"] != ToolGenerator {
		t.Errorf("unexpected tool %v", result["tool"])
	}
	if result["messageType"] != "ADT" || result["eventType"] != "A03" {
		t.Errorf("unexpected type/event: %v/%v", result["messageType"], result["eventType"])
	}

	fileName, _ := result["fileName"].(string)
	controlID, _ := result["controlId"].(string)
	if fileName != "hl7-ADT-A03-"+controlID+".hl7" {
		t.Errorf("unexpected artifact name %q for control id %q", fileName, controlID)
	}

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		t.Fatalf("expected artifact file: %v", err)
	}
	if string(data) != result["message"] {
		t.Error("artifact content differs from result message")
	}
	if !strings.Contains(string(data), "Okonkwo^") {
		t.Error("expected explicit last name in artifact")
	}
}

func TestRunner_GeneratorLiteralRandomParam(t *testing.T) {
	r, _ := newTestRunner(t)
	var buf bytes.Buffer
	n := NewNotifier(&buf)

	status := r.Run(&Request{
		Tool: ToolGenerator,
		Params: map[string]string{
			"messageType": "ADT",
			"lastName":    "random",
			"gender":      "random",
		},
	}, n)
	if status != 0 {
		t.Fatalf("expected status 0, got %d: %s", status, buf.String())
	}

	result := terminalLine(t, &buf)["result"].(map[string]any)
	msg, _ := result["message"].(string)
	if !strings.Contains(msg, "random^") {
		t.Error("expected literal last name to survive in the patient name field")
	}
	if strings.Contains(msg, "|random|") {
		t.Error("expected gender sentinel to draw a code, not the literal value")
	}
}

func TestRunner_GeneratorFormatViolationWritesNothing(t *testing.T) {
	r, dir := newTestRunner(t)
	var buf bytes.Buffer
	n := NewNotifier(&buf)

	status := r.Run(&Request{
		Tool: ToolGenerator,
		Params: map[string]string{
			"messageType": "ADT",
			"dateOfBirth": "1985-03-15",
		},
	}, n)
	if status == 0 {
		t.Fatal("expected nonzero status")
	}

	term := terminalLine(t, &buf)
	desc, _ := term["description"].(string)
	if !strings.Contains(desc, "dateOfBirth") {
		t.Errorf("expected field name in failure description, got %q", desc)
	}
	if _, ok := term["result"]; ok {
		t.Error("failure must not carry a result")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no artifact on failure, found %v", entries)
	}
}

func TestRunner_GeneratorBucket(t *testing.T) {
	r, _ := newTestRunner(t)
	var buf bytes.Buffer
	n := NewNotifier(&buf)

	status := r.Run(&Request{
		Tool:   ToolGenerator,
		Params: map[string]string{"messageType": "ADT", "bucketPath": "patient"},
		Bucket: map[string]any{
			"patient": map[string]any{"patientId": "MRN-BUCKET-1"},
		},
	}, n)
	if status != 0 {
		t.Fatalf("expected status 0, got %d: %s", status, buf.String())
	}

	result := terminalLine(t, &buf)["result"].(map[string]any)
	if !strings.Contains(result["message"].(string), "MRN-BUCKET-1") {
		t.Error("expected scoped bucket value in message")
	}
}

func TestRunner_ParserInline(t *testing.T) {
	r, _ := newTestRunner(t)
	var buf bytes.Buffer
	n := NewNotifier(&buf)

	status := r.Run(&Request{
		Tool:   ToolParser,
		Params: map[string]string{"message": runnerSampleADT},
	}, n)
	if status != 0 {
		t.Fatalf("expected status 0, got %d: %s", status, buf.String())
	}

	result := terminalLine(t, &buf)["result"].(map[string]any)
	if result["tool"] != ToolParser {
		t.Errorf("unexpected tool %v", result["tool"])
	}
	if result["messageType"] != "ADT" || result["eventType"] != "A01" {
		t.Errorf("unexpected type/event: %v/%v", result["messageType"], result["eventType"])
	}
	if result["valid"] != true {
		t.Errorf("expected valid message: %v", result)
	}
	segments := result["segments"].([]any)
	if len(segments) != 2 {
		t.Errorf("expected 2 segments, got %d", len(segments))
	}
}

func TestRunner_ParserFromFile(t *testing.T) {
	r, dir := newTestRunner(t)
	if err := os.WriteFile(filepath.Join(dir, "msg.hl7"), []byte(runnerSampleADT), 0o644); err != nil {
		t.Fatalf("write message file: %v", err)
	}

	var buf bytes.Buffer
	n := NewNotifier(&buf)
	status := r.Run(&Request{
		Tool:   ToolParser,
		Params: map[string]string{"file": "msg.hl7"},
	}, n)
	if status != 0 {
		t.Fatalf("expected status 0, got %d: %s", status, buf.String())
	}
}

func TestRunner_ParserFromBucket(t *testing.T) {
	r, _ := newTestRunner(t)

	cases := map[string]*Request{
		"scalar path": {
			Tool:   ToolParser,
			Params: map[string]string{"bucketPath": "inbound.raw"},
			Bucket: map[string]any{"inbound": map[string]any{"raw": runnerSampleADT}},
		},
		"object with message key": {
			Tool:   ToolParser,
			Params: map[string]string{"bucketPath": "inbound"},
			Bucket: map[string]any{"inbound": map[string]any{"hl7": runnerSampleADT}},
		},
	}
	for name, req := range cases {
		var buf bytes.Buffer
		status := r.Run(req, NewNotifier(&buf))
		if status != 0 {
			t.Errorf("%s: expected status 0, got %d: %s", name, status, buf.String())
		}
	}
}

func TestRunner_ParserNoInput(t *testing.T) {
	r, _ := newTestRunner(t)
	var buf bytes.Buffer
	n := NewNotifier(&buf)

	status := r.Run(&Request{Tool: ToolParser, Params: map[string]string{}}, n)
	if status == 0 {
		t.Fatal("expected nonzero status")
	}
	desc := terminalLine(t, &buf)["description"].(string)
	if !strings.Contains(desc, "no message input") {
		t.Errorf("unexpected description %q", desc)
	}
}

func TestRunner_ParserStructuralFailure(t *testing.T) {
	r, _ := newTestRunner(t)
	var buf bytes.Buffer
	n := NewNotifier(&buf)

	status := r.Run(&Request{
		Tool:   ToolParser,
		Params: map[string]string{"message": "PID|only|segment"},
	}, n)
	if status == 0 {
		t.Fatal("expected nonzero status for non-MSH message")
	}
	if _, ok := terminalLine(t, &buf)["result"]; ok {
		t.Error("structural failure must not carry a partial result")
	}
}

func TestRunner_UnknownTool(t *testing.T) {
	r, _ := newTestRunner(t)
	var buf bytes.Buffer
	n := NewNotifier(&buf)

	status := r.Run(&Request{Tool: "hl7-transmogrifier"}, n)
	if status != 2 {
		t.Errorf("expected status 2, got %d", status)
	}
	desc := terminalLine(t, &buf)["description"].(string)
	if !strings.Contains(desc, "hl7-transmogrifier") {
		t.Errorf("expected tool name in description, got %q", desc)
	}
}
