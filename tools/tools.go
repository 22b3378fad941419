package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	jsv "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ToolDefinition is the contract every tool exposes to the model: a unique name,
// a description, the JSON schema of its input, and an execution function that only
// ever sees input which passed that schema.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema

	decode  func(json.RawMessage) (any, error)
	execute func(context.Context, any) (string, error)
}

// NewTool builds a ToolDefinition from a typed function. The input schema is derived
// from In; Out is rendered verbatim when it is a string and as JSON otherwise.
func NewTool[In, Out any](name, description string, fn func(context.Context, In) (Out, error)) ToolDefinition {
	schema := GenerateSchema[In]()
	compiled, compileErr := compileSchema(name, schema)
	return ToolDefinition{
		Name:        name,
		Description: description,
		InputSchema: schema,
		decode: func(raw json.RawMessage) (any, error) {
			if compileErr != nil {
				return nil, &ValidationError{Tool: name, Reason: compileErr.Error()}
			}
			return decodeInput[In](name, schema, compiled, raw)
		},
		execute: func(ctx context.Context, v any) (string, error) {
			out, err := fn(ctx, v.(In))
			if err != nil {
				return "", err
			}
			return renderOutput(out)
		},
	}
}

// GenerateSchema reflects T into an inline JSON schema that rejects unknown properties.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// compileSchema builds the validator that checks raw input against the whole
// generated schema, nested objects included.
func compileSchema(tool string, s *jsonschema.Schema) (*jsv.Schema, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	doc, err := jsv.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	loc := tool + ".schema.json"
	c := jsv.NewCompiler()
	if err := c.AddResource(loc, doc); err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	compiled, err := c.Compile(loc)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}

// Validate checks raw input against the tool's schema without executing it.
func (d ToolDefinition) Validate(raw json.RawMessage) error {
	if d.decode == nil {
		return &ValidationError{Tool: d.Name, Reason: "tool has no input decoder"}
	}
	_, err := d.decode(raw)
	return err
}

// Call validates raw and, only when it is valid, executes the tool.
// Validation failures are *ValidationError; failures of the tool itself are *ExecutionError.
func (d ToolDefinition) Call(ctx context.Context, raw json.RawMessage) (string, error) {
	if d.decode == nil || d.execute == nil {
		return "", &ValidationError{Tool: d.Name, Reason: "tool has no input decoder"}
	}
	in, err := d.decode(raw)
	if err != nil {
		return "", err
	}
	out, err := d.execute(ctx, in)
	if err != nil {
		return "", &ExecutionError{Tool: d.Name, Err: err}
	}
	return out, nil
}

// ValidationError reports tool input that does not satisfy the input schema.
type ValidationError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input for %s: %s", e.Tool, e.Reason)
	}
	return fmt.Sprintf("invalid input for %s: %s: %s", e.Tool, e.Field, e.Reason)
}

// ExecutionError wraps a failure raised by a tool after its input was accepted.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ErrUnknownTool is returned when the model names a tool that is not registered.
var ErrUnknownTool = errors.New("tool not found")

// inputValidator is implemented by tool inputs that carry checks beyond the schema.
type inputValidator interface {
	Validate() error
}

func decodeInput[In any](tool string, schema *jsonschema.Schema, compiled *jsv.Schema, raw json.RawMessage) (In, error) {
	var in In

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
		return in, &ValidationError{Tool: tool, Reason: "input must be a JSON object"}
	}

	if schema != nil && schema.Properties != nil {
		for key := range fields {
			if _, ok := schema.Properties.Get(key); !ok {
				return in, &ValidationError{Tool: tool, Field: key, Reason: "unknown property"}
			}
		}
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if _, present := fields[pair.Key]; present || pair.Value == nil || pair.Value.Default == nil {
				continue
			}
			b, err := json.Marshal(pair.Value.Default)
			if err != nil {
				return in, &ValidationError{Tool: tool, Field: pair.Key, Reason: "invalid default"}
			}
			fields[pair.Key] = b
		}
	}
	if schema != nil {
		for _, name := range schema.Required {
			v, ok := fields[name]
			if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				return in, &ValidationError{Tool: tool, Field: name, Reason: "required property missing"}
			}
		}
	}

	normalized, err := json.Marshal(fields)
	if err != nil {
		return in, &ValidationError{Tool: tool, Reason: err.Error()}
	}
	if compiled != nil {
		doc, err := jsv.UnmarshalJSON(bytes.NewReader(normalized))
		if err != nil {
			return in, &ValidationError{Tool: tool, Reason: err.Error()}
		}
		if err := compiled.Validate(doc); err != nil {
			return in, schemaViolation(tool, err)
		}
	}
	dec := json.NewDecoder(bytes.NewReader(normalized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return in, &ValidationError{Tool: tool, Field: typeErr.Field, Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value)}
		}
		return in, &ValidationError{Tool: tool, Reason: err.Error()}
	}

	if v, ok := any(&in).(inputValidator); ok {
		if err := v.Validate(); err != nil {
			return in, &ValidationError{Tool: tool, Reason: err.Error()}
		}
	}
	return in, nil
}

var english = message.NewPrinter(language.English)

// schemaViolation reports the first leaf failure of a schema validation.
// Field is the dotted instance path, e.g. "diffs.0".
func schemaViolation(tool string, err error) *ValidationError {
	var verr *jsv.ValidationError
	if !errors.As(err, &verr) {
		return &ValidationError{Tool: tool, Reason: err.Error()}
	}
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	return &ValidationError{
		Tool:   tool,
		Field:  strings.Join(verr.InstanceLocation, "."),
		Reason: verr.ErrorKind.LocalizedString(english),
	}
}

func renderOutput(out any) (string, error) {
	if s, ok := out.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode output: %w", err)
	}
	return string(b), nil
}
