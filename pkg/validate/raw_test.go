package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lapTimeJSONSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "driver_id": {"type": "integer"},
    "circuit_id": {"type": "integer"},
    "time_ms": {"type": "integer", "minimum": 0}
  },
  "required": ["driver_id", "circuit_id", "time_ms"],
  "additionalProperties": false
}`

func TestRawValidator_Valid(t *testing.T) {
	v := NewRawValidator(json.RawMessage(lapTimeJSONSchema))

	result := v.Validate(map[string]any{
		"driver_id":  1,
		"circuit_id": 1,
		"time_ms":    80000,
	}, LocationBody)
	assert.True(t, result.Valid, result.Summary())
}

func TestRawValidator_Violations(t *testing.T) {
	v := NewRawValidator(json.RawMessage(lapTimeJSONSchema))

	result := v.Validate(map[string]any{
		"driver_id": 1,
		"time_ms":   -5,
	}, LocationBody)

	require.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
	for _, e := range result.Errors {
		assert.Equal(t, CodeSchema, e.Code)
		assert.Equal(t, LocationBody, e.Location)
	}
}

func TestRawValidator_CompileErrorReportedOnce(t *testing.T) {
	v := NewRawValidator(json.RawMessage(`{"type": ["not", 1, "valid"`))

	first := v.Validate(map[string]any{}, LocationBody)
	require.False(t, first.Valid)
	assert.Contains(t, first.Errors[0].Message, "schema compilation error")

	second := v.Validate(map[string]any{}, LocationBody)
	assert.False(t, second.Valid)
}

func TestPointerToPath(t *testing.T) {
	assert.Equal(t, "", pointerToPath("/"))
	assert.Equal(t, "", pointerToPath(""))
	assert.Equal(t, "driver.laps.0", pointerToPath("/driver/laps/0"))
}
