package hl7v2

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hl7forge/hl7forge/internal/platform/bucket"
)

// Handler provides HTTP endpoints for HL7v2 message parsing and generation.
type Handler struct {
	generator *Generator
}

// NewHandler creates a new HL7v2 handler backed by the given generator.
func NewHandler(g *Generator) *Handler {
	return &Handler{generator: g}
}

// RegisterRoutes registers HL7v2 endpoints on the provided route group.
//
//	POST /hl7/parse    - Parse and validate an HL7v2 message
//	POST /hl7/generate - Generate an HL7v2 message
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/hl7/parse", h.ParseMessage)
	g.POST("/hl7/generate", h.GenerateMessage)
}

// segmentJSON is the JSON representation of a parsed segment.
type segmentJSON struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Fields []Field `json:"fields"`
}

// parseResponse is the JSON representation of a parsed, validated message.
type parseResponse struct {
	Type      string        `json:"messageType"`
	Event     string        `json:"eventType"`
	Version   string        `json:"version"`
	ControlID string        `json:"controlId"`
	Valid     bool          `json:"valid"`
	Errors    []string      `json:"errors"`
	Warnings  []string      `json:"warnings"`
	Segments  []segmentJSON `json:"segments"`
}

// ParseMessage handles POST /api/v1/hl7/parse.
// It reads raw HL7v2 from the request body and returns the tokenized
// segments together with the validator's findings.
func (h *Handler) ParseMessage(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
	}
	if len(body) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "request body is empty",
		})
	}

	msg, err := Tokenize(string(body))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	errs, warns := SplitIssues(Validate(msg))

	segments := make([]segmentJSON, len(msg.Segments))
	for i, seg := range msg.Segments {
		segments[i] = segmentJSON{ID: seg.ID, Name: seg.Name, Fields: seg.Fields}
	}

	return c.JSON(http.StatusOK, parseResponse{
		Type:      msg.Type,
		Event:     msg.Event,
		Version:   msg.Version,
		ControlID: msg.ControlID,
		Valid:     len(errs) == 0,
		Errors:    errs,
		Warnings:  warns,
		Segments:  segments,
	})
}

// generateRequest is the JSON request body for message generation.
// Fields maps logical field names to explicit values; the literal value
// "random" forces a fresh draw on enumerable-choice fields. Bucket is an
// arbitrary JSON document consulted for fields not set explicitly.
type generateRequest struct {
	Type   string            `json:"messageType"`
	Event  string            `json:"eventType"`
	Fields map[string]string `json:"fields"`
	Bucket map[string]any    `json:"bucket"`
}

// generateResponse is the JSON representation of a generated message.
type generateResponse struct {
	Type      string   `json:"messageType"`
	Event     string   `json:"eventType"`
	Version   string   `json:"version"`
	ControlID string   `json:"controlId"`
	Segments  []string `json:"segments"`
	Message   string   `json:"message"`
}

// GenerateMessage handles POST /api/v1/hl7/generate.
func (h *Handler) GenerateMessage(c echo.Context) error {
	var req generateRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
	}
	if req.Type == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "messageType is required",
		})
	}

	inputs := make(Inputs, len(req.Fields))
	for name, v := range req.Fields {
		inputs[name] = Input(name, v)
	}

	var lookup BucketLookup
	if len(req.Bucket) > 0 {
		lookup = bucket.New(req.Bucket).Lookup
	}

	res, err := h.generator.Generate(GenerateOptions{
		Type:   req.Type,
		Event:  req.Event,
		Inputs: inputs,
		Bucket: lookup,
	})
	if err != nil {
		// Unsupported type and format violations are both caller errors.
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, generateResponse{
		Type:      res.Type,
		Event:     res.Event,
		Version:   res.Version,
		ControlID: res.ControlID,
		Segments:  res.Segments,
		Message:   res.Message,
	})
}

// decodeJSONBody decodes a JSON request body with unknown-field rejection.
func decodeJSONBody(c echo.Context, v any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
