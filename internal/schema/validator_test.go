package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiredAndType(t *testing.T) {
	s := Schema{
		"location": Required(String()),
	}
	v, err := Compile(s)
	require.NoError(t, err)

	result := v.Validate(map[string]any{"location": "NYC"})
	assert.True(t, result.OK)

	result = v.Validate(map[string]any{})
	assert.False(t, result.OK)
	require.NotEmpty(t, result.Errors)
}

func TestValidateOutputSchemaGuard(t *testing.T) {
	s := Schema{
		"temperature": Required(Float()),
		"conditions":  Required(String()),
	}
	v, err := Compile(s)
	require.NoError(t, err)

	good := v.Validate(map[string]any{"temperature": 72.5, "conditions": "sunny"})
	assert.True(t, good.OK)

	bad := v.Validate(map[string]any{"temperature": "hot", "conditions": "sunny"})
	assert.False(t, bad.OK)
	var sawTemperature bool
	for _, e := range bad.Errors {
		if e.Path == "temperature" {
			sawTemperature = true
		}
	}
	assert.True(t, sawTemperature, "expected error path temperature, got %+v", bad.Errors)
}

func TestNaiveDatetimeRejectsOffset(t *testing.T) {
	s := Schema{"when": Required(NaiveDateTime())}
	v, err := Compile(s)
	require.NoError(t, err)

	ok := v.Validate(map[string]any{"when": "2024-01-01T10:00:00"})
	assert.True(t, ok.OK)

	withZ := v.Validate(map[string]any{"when": "2024-01-01T10:00:00Z"})
	assert.False(t, withZ.OK)

	withOffset := v.Validate(map[string]any{"when": "2024-01-01T10:00:00+02:00"})
	assert.False(t, withOffset.OK)
}

func TestDefaultApplied(t *testing.T) {
	s := Schema{"level": Default(String(), "info")}
	v, err := Compile(s)
	require.NoError(t, err)

	result := v.Validate(map[string]any{})
	require.True(t, result.OK)
	assert.Equal(t, "info", result.Coerced["level"])
}

func TestJSONSchemaEmission(t *testing.T) {
	s := Schema{
		"name": Required(String().WithLength(1, 64)),
		"tags": List(String()),
	}
	doc := ToJSONSchema(s)
	assert.Equal(t, "object", doc["type"])
	required, ok := doc["required"].([]string)
	require.True(t, ok)
	assert.Contains(t, required, "name")
}
