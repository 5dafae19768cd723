package job

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/hl7forge/hl7forge/internal/config"
	"github.com/hl7forge/hl7forge/internal/platform/bucket"
	"github.com/hl7forge/hl7forge/internal/platform/hl7v2"
)

// Params that steer the invocation rather than binding to message fields.
const (
	paramMessageType = "messageType"
	paramEventType   = "eventType"
	paramMessage     = "message"
	paramFile        = "file"
	paramBucketPath  = "bucketPath"
)

// messageKeys are the bucket keys tried, in order, when a bucketPath
// lands on an object rather than a message string.
var messageKeys = []string{"message", "hl7", "text", "content", "raw"}

// GeneratorResult is the terminal result of one hl7-generator invocation.
type GeneratorResult struct {
	Tool        string   `json:"tool"`
	MessageType string   `json:"messageType"`
	EventType   string   `json:"eventType"`
	Version     string   `json:"version"`
	ControlID   string   `json:"controlId"`
	Segments    []string `json:"segments"`
	FileName    string   `json:"fileName"`
	Message     string   `json:"message"`
}

// ParsedSegment is one segment of a parser result.
type ParsedSegment struct {
	ID     string        `json:"id"`
	Name   string        `json:"name,omitempty"`
	Fields []hl7v2.Field `json:"fields"`
	Raw    string        `json:"raw"`
}

// ParserResult is the terminal result of one hl7-parser invocation.
type ParserResult struct {
	Tool        string          `json:"tool"`
	MessageType string          `json:"messageType"`
	EventType   string          `json:"eventType"`
	Version     string          `json:"version"`
	ControlID   string          `json:"controlId"`
	Segments    []ParsedSegment `json:"segments"`
	Errors      []string        `json:"errors"`
	Warnings    []string        `json:"warnings"`
	Valid       bool            `json:"valid"`
}

// Runner executes one job request against the codec.
type Runner struct {
	cfg *config.Config
	gen *hl7v2.Generator
	log zerolog.Logger
}

// NewRunner returns a runner using the given configuration and logger.
func NewRunner(cfg *config.Config, gen *hl7v2.Generator, log zerolog.Logger) *Runner {
	return &Runner{cfg: cfg, gen: gen, log: log}
}

// Run dispatches the request to its tool and returns the process exit
// status. Every path emits exactly one terminal outcome on the notifier.
func (r *Runner) Run(req *Request, n *Notifier) int {
	r.log.Info().
		Str("invocation_id", n.InvocationID()).
		Str("tool", req.Tool).
		Msg("job started")

	switch req.Tool {
	case ToolGenerator:
		return r.runGenerator(req, n)
	case ToolParser:
		return r.runParser(req, n)
	default:
		return n.Fail(2, fmt.Sprintf("unknown tool %q", req.Tool))
	}
}

func (r *Runner) runGenerator(req *Request, n *Notifier) int {
	msgType := req.Params[paramMessageType]
	event := req.Params[paramEventType]
	n.Progress("resolve", fmt.Sprintf("resolving fields for %s message", msgType))

	inputs := make(hl7v2.Inputs)
	for name, v := range req.Params {
		switch name {
		case paramMessageType, paramEventType, paramMessage, paramFile, paramBucketPath:
			continue
		}
		inputs[name] = hl7v2.Input(name, v)
	}

	var lookup hl7v2.BucketLookup
	if len(req.Bucket) > 0 {
		lookup = bucket.New(req.Bucket).At(req.Params[paramBucketPath])
	}

	res, err := r.gen.Generate(hl7v2.GenerateOptions{
		Type:   msgType,
		Event:  event,
		Inputs: inputs,
		Bucket: lookup,
	})
	if err != nil {
		r.log.Error().Err(err).Msg("generation failed")
		return n.Fail(1, err.Error())
	}

	n.Progress("render", fmt.Sprintf("assembled %d segments", len(res.Segments)))

	fileName := fmt.Sprintf("hl7-%s-%s-%s.%s", res.Type, res.Event, res.ControlID, r.cfg.FileExt)
	path := filepath.Join(r.workDir(req), fileName)
	if err := os.WriteFile(path, []byte(res.Message), 0o644); err != nil {
		r.log.Error().Err(err).Str("path", path).Msg("artifact write failed")
		return n.Fail(1, fmt.Sprintf("write message file: %v", err))
	}
	n.Progress("write", "wrote "+fileName)

	return n.Succeed(GeneratorResult{
		Tool:        ToolGenerator,
		MessageType: res.Type,
		EventType:   res.Event,
		Version:     res.Version,
		ControlID:   res.ControlID,
		Segments:    res.Segments,
		FileName:    fileName,
		Message:     res.Message,
	}, fmt.Sprintf("generated %s^%s message %s", res.Type, res.Event, res.ControlID))
}

func (r *Runner) runParser(req *Request, n *Notifier) int {
	raw, src, err := r.acquireInput(req)
	if err != nil {
		r.log.Error().Err(err).Msg("input acquisition failed")
		return n.Fail(1, err.Error())
	}
	n.Progress("acquire", "message text from "+src)

	msg, err := hl7v2.Tokenize(raw)
	if err != nil {
		r.log.Error().Err(err).Msg("tokenization failed")
		return n.Fail(1, err.Error())
	}
	n.Progress("tokenize", fmt.Sprintf("tokenized %d segments", len(msg.Segments)))

	errs, warns := hl7v2.SplitIssues(hl7v2.Validate(msg))

	segments := make([]ParsedSegment, len(msg.Segments))
	for i, seg := range msg.Segments {
		segments[i] = ParsedSegment{ID: seg.ID, Name: seg.Name, Fields: seg.Fields, Raw: seg.Raw}
	}

	return n.Succeed(ParserResult{
		Tool:        ToolParser,
		MessageType: msg.Type,
		EventType:   msg.Event,
		Version:     msg.Version,
		ControlID:   msg.ControlID,
		Segments:    segments,
		Errors:      errs,
		Warnings:    warns,
		Valid:       len(errs) == 0,
	}, fmt.Sprintf("parsed %s message with %d errors, %d warnings", msg.Type, len(errs), len(warns)))
}

// acquireInput finds the message text for a parse: inline param first,
// then a file path, then a bucket path. The first source present wins;
// a present but unreadable source is fatal rather than skipped.
func (r *Runner) acquireInput(req *Request) (raw, src string, err error) {
	if msg := req.Params[paramMessage]; msg != "" {
		return msg, "inline parameter", nil
	}

	if file := req.Params[paramFile]; file != "" {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.workDir(req), path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", "", fmt.Errorf("job: read message file: %w", err)
		}
		return string(data), "file " + file, nil
	}

	if path, ok := req.Params[paramBucketPath]; ok {
		if len(req.Bucket) == 0 {
			return "", "", fmt.Errorf("job: bucketPath given but job carries no bucket data")
		}
		b := bucket.New(req.Bucket)
		if v, ok := b.Lookup(path); ok {
			return v, "bucket path " + path, nil
		}
		scoped := b.At(path)
		for _, key := range messageKeys {
			if v, ok := scoped(key); ok {
				return v, fmt.Sprintf("bucket path %s key %s", path, key), nil
			}
		}
		return "", "", fmt.Errorf("job: no message text at bucket path %q", path)
	}

	return "", "", fmt.Errorf("job: no message input: expected message, file or bucketPath parameter")
}

func (r *Runner) workDir(req *Request) string {
	if req.WorkDir != "" {
		return req.WorkDir
	}
	return r.cfg.WorkDir
}
