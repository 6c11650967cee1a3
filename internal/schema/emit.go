package schema

// ToJSONSchema converts a declarative Schema into a JSON Schema
// draft-compatible document: an object with "type", "properties",
// "required" and the constraint keywords spec.md §4.3 enumerates. Unknown
// specs emit an empty (open) schema rather than failing, matching the
// spec's "Unknown specs emit {}" rule.
func ToJSONSchema(s Schema) map[string]any {
	properties := map[string]any{}
	var required []string

	for name, field := range s {
		properties[name] = fieldToJSONSchema(field)
		if field.required {
			required = append(required, name)
		}
	}

	doc := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func fieldToJSONSchema(f *Field) map[string]any {
	if f == nil {
		return map[string]any{}
	}

	doc := map[string]any{}
	if f.description != "" {
		doc["description"] = f.description
	}
	if f.format != "" {
		doc["format"] = f.format
	}
	if f.regex != "" {
		doc["pattern"] = f.regex
	}
	if f.min != nil {
		doc["minimum"] = *f.min
	}
	if f.max != nil {
		doc["maximum"] = *f.max
	}
	if f.minLength != nil {
		doc["minLength"] = *f.minLength
	}
	if f.maxLength != nil {
		doc["maxLength"] = *f.maxLength
	}
	if f.hasDefault {
		doc["default"] = f.defaultVal
	}
	if f.jsonTypeOverride != "" {
		doc["type"] = f.jsonTypeOverride
		return doc
	}

	switch f.kind {
	case KindString:
		doc["type"] = "string"
	case KindInteger:
		doc["type"] = "integer"
	case KindFloat:
		doc["type"] = "number"
	case KindBoolean:
		doc["type"] = "boolean"
	case KindAny:
		// open schema: no type constraint
	case KindDate, KindTime, KindDateTime, KindNaiveDateTime:
		doc["type"] = "string"
		if doc["format"] == nil {
			doc["format"] = string(f.kind)
		}
	case kindEnum:
		doc["type"] = jsonTypeForKind(f.enumBaseType)
		doc["enum"] = f.enumValues
	case kindList:
		doc["type"] = "array"
		doc["items"] = fieldToJSONSchema(f.item)
	case kindObject:
		nested := Schema(f.fields)
		sub := ToJSONSchema(nested)
		for k, v := range sub {
			doc[k] = v
		}
	case kindEither, kindOneOf:
		var alts []any
		for _, a := range f.alternatives {
			alts = append(alts, fieldToJSONSchema(a))
		}
		doc["oneOf"] = alts
	case kindLiteral:
		doc["const"] = f.literal
	default:
		return map[string]any{}
	}

	return doc
}

func jsonTypeForKind(k Kind) string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "number"
	case KindBoolean:
		return "boolean"
	default:
		return "string"
	}
}
