// Package schema implements the declarative field model described in
// spec.md §4.3: a small data structure describing tool/prompt/resource
// parameters, a JSON Schema emitter, and a gojsonschema-backed validator.
//
// The teacher's tools.go hardcodes ToolInputSchema/ToolProperty structs per
// tool; this package generalizes that into a reusable builder so any
// component can declare a schema without hand-writing JSON Schema.
package schema

// Kind enumerates the primitive type_specs from spec.md §4.3.
type Kind string

const (
	KindString       Kind = "string"
	KindInteger      Kind = "integer"
	KindFloat        Kind = "float"
	KindBoolean      Kind = "boolean"
	KindAny          Kind = "any"
	KindDate         Kind = "date"
	KindTime         Kind = "time"
	KindDateTime     Kind = "datetime"
	KindNaiveDateTime Kind = "naive_datetime"

	kindEnum    Kind = "enum"
	kindList    Kind = "list"
	kindObject  Kind = "object"
	kindEither  Kind = "either"
	kindOneOf   Kind = "oneof"
	kindLiteral Kind = "literal"
)

// Field is a single declarative field spec. It is built through the
// constructor functions below rather than populated by hand, mirroring the
// "builder functions... used at runtime" re-expression spec.md §9 calls for
// in place of the original macro DSL.
type Field struct {
	kind Kind

	// enum
	enumValues   []any
	enumBaseType Kind

	// list
	item *Field

	// object
	fields map[string]*Field

	// either / oneof
	alternatives []*Field

	// literal
	literal any

	required   bool
	hasDefault bool
	defaultVal any

	description string
	format      string
	regex       string

	min, max                     *float64
	minLength, maxLength         *int
	jsonTypeOverride             string
}

// Schema is a named collection of fields, e.g. a tool's input schema.
type Schema map[string]*Field

func String() *Field   { return &Field{kind: KindString} }
func Integer() *Field  { return &Field{kind: KindInteger} }
func Float() *Field    { return &Field{kind: KindFloat} }
func Boolean() *Field  { return &Field{kind: KindBoolean} }
func Any() *Field      { return &Field{kind: KindAny} }
func Date() *Field     { return &Field{kind: KindDate} }
func Time() *Field     { return &Field{kind: KindTime} }
func DateTime() *Field { return &Field{kind: KindDateTime} }
func NaiveDateTime() *Field { return &Field{kind: KindNaiveDateTime} }

// Enum declares a field restricted to a fixed set of values. baseType
// defaults to KindString when empty, matching spec.md's default.
func Enum(baseType Kind, values ...any) *Field {
	bt := baseType
	if bt == "" {
		bt = KindString
	}
	return &Field{kind: kindEnum, enumValues: values, enumBaseType: bt}
}

// List declares a repeated field of the given item spec.
func List(item *Field) *Field {
	return &Field{kind: kindList, item: item}
}

// Object declares a nested field map.
func Object(fields map[string]*Field) *Field {
	return &Field{kind: kindObject, fields: fields}
}

// Either declares a field matching one of exactly two alternatives.
func Either(a, b *Field) *Field {
	return &Field{kind: kindEither, alternatives: []*Field{a, b}}
}

// OneOf declares a field matching exactly one of several alternatives.
func OneOf(specs ...*Field) *Field {
	return &Field{kind: kindOneOf, alternatives: specs}
}

// Literal declares a field that must equal a fixed value.
func Literal(v any) *Field {
	return &Field{kind: kindLiteral, literal: v}
}

// Required marks a field spec as mandatory. It wraps rather than mutates so
// the underlying spec can still be reused unwrapped elsewhere.
func Required(f *Field) *Field {
	clone := *f
	clone.required = true
	return &clone
}

// Default attaches a default value, applied by the validator when the
// field is absent from the input.
func Default(f *Field, v any) *Field {
	clone := *f
	clone.hasDefault = true
	clone.defaultVal = v
	return &clone
}

// With* methods attach optional metadata; they return the receiver to
// allow chaining at the declaration site, e.g. schema.String().WithDescription("name").

func (f *Field) WithDescription(d string) *Field { f.description = d; return f }
func (f *Field) WithFormat(fmtName string) *Field { f.format = fmtName; return f }
func (f *Field) WithRegex(re string) *Field       { f.regex = re; return f }
func (f *Field) WithJSONType(t string) *Field     { f.jsonTypeOverride = t; return f }

func (f *Field) WithRange(min, max float64) *Field {
	f.min = &min
	f.max = &max
	return f
}

func (f *Field) WithLength(minLen, maxLen int) *Field {
	f.minLength = &minLen
	f.maxLength = &maxLen
	return f
}

func (f *Field) IsRequired() bool { return f.required }
