// Package job implements the invocation envelope around the HL7 codec:
// one job description in, a stream of progress notifications out, and
// exactly one terminal outcome per invocation.
package job

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tool names accepted in a job description.
const (
	ToolGenerator = "hl7-generator"
	ToolParser    = "hl7-parser"
)

// Request is one decoded job description.
type Request struct {
	Tool    string            `json:"tool" yaml:"tool"`
	Params  map[string]string `json:"params" yaml:"params"`
	Bucket  map[string]any    `json:"bucket" yaml:"bucket"`
	WorkDir string            `json:"workDir" yaml:"workDir"`
}

// Load reads and decodes a job description file. The format follows the
// file extension: .yaml/.yml is YAML, everything else JSON.
func Load(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("job: read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(data)
	default:
		return decodeJSON(data)
	}
}

// Read decodes a JSON job description from a stream (typically stdin).
func Read(r io.Reader) (*Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("job: read input: %w", err)
	}
	return decodeJSON(data)
}

func decodeJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("job: decode JSON job description: %w", err)
	}
	return &req, nil
}

func decodeYAML(data []byte) (*Request, error) {
	var req Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("job: decode YAML job description: %w", err)
	}
	return &req, nil
}
