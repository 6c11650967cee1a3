package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// FieldError is a single path-qualified validation failure.
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationResult is the outcome of validating a value against a Schema.
type ValidationResult struct {
	OK      bool
	Coerced map[string]any
	Errors  []FieldError
}

// Validator compiles a Schema once and validates many values against it.
// Structural checks (type, enum, pattern, min/max) are delegated to
// gojsonschema; the date/time family is additionally checked by walking
// the declarative Schema, since gojsonschema's "format" keyword is
// advisory only. Such a value must parse in its ISO 8601 form; it is left
// in place as the original string.
type Validator struct {
	schema    Schema
	jsonDoc   map[string]any
	compiled  *gojsonschema.Schema
}

// Compile builds a Validator from a Schema. It is grounded on
// dkmcp/internal/mcp/tools.go's habit of building schemas once at startup
// and reusing them per call.
func Compile(s Schema) (*Validator, error) {
	doc := ToJSONSchema(s)
	loader := gojsonschema.NewGoLoader(doc)
	compiled, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("schema: compile: %w", err)
	}
	return &Validator{schema: s, jsonDoc: doc, compiled: compiled}, nil
}

// CompileJSONSchema builds a Validator directly from an already-rendered
// JSON Schema document, for callers that only hold the wire form (e.g. a
// client re-validating a tool's outputSchema as advertised by
// tools/list) rather than the declarative Schema that produced it.
// Date/time checking is unavailable in this path since it depends on the
// declarative Kind information the wire form doesn't carry.
func CompileJSONSchema(doc map[string]any) (*Validator, error) {
	loader := gojsonschema.NewGoLoader(doc)
	compiled, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("schema: compile json schema: %w", err)
	}
	return &Validator{jsonDoc: doc, compiled: compiled}, nil
}

// JSONSchema returns the emitted JSON Schema document, e.g. for
// advertising a tool's inputSchema over the wire.
func (v *Validator) JSONSchema() map[string]any {
	return v.jsonDoc
}

// Validate checks value against the compiled schema and checks that
// date/time fields parse; those values stay strings in Coerced. Errors
// carry dotted paths, e.g. "address.zip".
func (v *Validator) Validate(value map[string]any) ValidationResult {
	result := ValidationResult{Coerced: cloneMap(value)}

	applyDefaults(v.schema, result.Coerced)

	loader := gojsonschema.NewGoLoader(result.Coerced)
	gr, err := v.compiled.Validate(loader)
	if err != nil {
		result.Errors = append(result.Errors, FieldError{Path: "", Message: err.Error()})
		return result
	}
	for _, e := range gr.Errors() {
		path := e.Field()
		if path == "(root)" {
			path = ""
		}
		result.Errors = append(result.Errors, FieldError{Path: path, Message: e.Description()})
	}

	coerceErrs := coerceDateFields("", v.schema, result.Coerced)
	result.Errors = append(result.Errors, coerceErrs...)

	result.OK = len(result.Errors) == 0
	return result
}

func applyDefaults(s Schema, value map[string]any) {
	for name, f := range s {
		if _, present := value[name]; !present && f.hasDefault {
			value[name] = f.defaultVal
		}
	}
}

func coerceDateFields(prefix string, s Schema, value map[string]any) []FieldError {
	var errs []FieldError
	for name, f := range s {
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		raw, present := value[name]
		if !present {
			continue
		}
		switch f.kind {
		case KindDate, KindTime, KindDateTime, KindNaiveDateTime:
			str, ok := raw.(string)
			if !ok {
				continue
			}
			if err := validateTemporal(f.kind, str); err != nil {
				errs = append(errs, FieldError{Path: path, Message: err.Error()})
			}
		case kindObject:
			nested, ok := raw.(map[string]any)
			if ok {
				errs = append(errs, coerceDateFields(path, Schema(f.fields), nested)...)
			}
		case kindList:
			items, ok := raw.([]any)
			if ok && f.item != nil {
				for i, item := range items {
					m, ok := item.(map[string]any)
					if ok && f.item.kind == kindObject {
						errs = append(errs, coerceDateFields(fmt.Sprintf("%s[%d]", path, i), Schema(f.item.fields), m)...)
					}
				}
			}
		}
	}
	return errs
}

// validateTemporal enforces the ISO 8601 coercion rules from spec.md §4.3:
// naive_datetime rejects a trailing "Z" or explicit UTC offset.
func validateTemporal(kind Kind, value string) error {
	switch kind {
	case KindDate:
		_, err := time.Parse("2006-01-02", value)
		return err
	case KindTime:
		_, err := time.Parse("15:04:05", value)
		return err
	case KindDateTime:
		_, err := time.Parse(time.RFC3339, value)
		return err
	case KindNaiveDateTime:
		if strings.HasSuffix(value, "Z") || hasOffsetSuffix(value) {
			return fmt.Errorf("naive_datetime must not carry a timezone offset: %q", value)
		}
		_, err := time.Parse("2006-01-02T15:04:05", value)
		return err
	}
	return nil
}

func hasOffsetSuffix(value string) bool {
	if len(value) < 6 {
		return false
	}
	tail := value[len(value)-6:]
	return (tail[0] == '+' || tail[0] == '-') && tail[3] == ':'
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	b, err := json.Marshal(m)
	if err != nil {
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	_ = json.Unmarshal(b, &out)
	return out
}
