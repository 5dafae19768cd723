package job

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =========== Job Description Tests ===========

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "job.json", `{
		"tool": "hl7-generator",
		"params": {"messageType": "ADT", "eventType": "A01", "lastName": "Doe"},
		"bucket": {"patient": {"id": "MRN12345"}},
		"workDir": "/tmp/out"
	}`)

	req, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Tool != ToolGenerator {
		t.Errorf("expected tool %s, got %s", ToolGenerator, req.Tool)
	}
	if req.Params["lastName"] != "Doe" {
		t.Errorf("unexpected params: %v", req.Params)
	}
	if req.WorkDir != "/tmp/out" {
		t.Errorf("unexpected work dir %q", req.WorkDir)
	}
	patient, ok := req.Bucket["patient"].(map[string]any)
	if !ok || patient["id"] != "MRN12345" {
		t.Errorf("unexpected bucket: %v", req.Bucket)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "job.yaml", strings.Join([]string{
		"tool: hl7-parser",
		"params:",
		"  bucketPath: inbound",
		"bucket:",
		"  inbound:",
		"    message: MSH|...",
	}, "\n"))

	req, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Tool != ToolParser {
		t.Errorf("expected tool %s, got %s", ToolParser, req.Tool)
	}
	if req.Params["bucketPath"] != "inbound" {
		t.Errorf("unexpected params: %v", req.Params)
	}
	inbound, ok := req.Bucket["inbound"].(map[string]any)
	if !ok || inbound["message"] != "MSH|..." {
		t.Errorf("unexpected bucket: %v", req.Bucket)
	}
}

func TestLoad_BadJSON(t *testing.T) {
	path := writeFile(t, "job.json", "{not json")
	if _, err := Load(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected read error")
	}
}

func TestRead_Stream(t *testing.T) {
	req, err := Read(strings.NewReader(`{"tool":"hl7-parser","params":{"message":"MSH|x"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Tool != ToolParser || req.Params["message"] != "MSH|x" {
		t.Errorf("unexpected request: %+v", req)
	}
}
