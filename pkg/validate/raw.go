package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RawValidator validates request bodies against a full JSON Schema
// document (draft 2020-12). The schema compiles once, on first use.
type RawValidator struct {
	raw json.RawMessage

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// NewRawValidator wraps a raw JSON Schema document.
func NewRawValidator(raw json.RawMessage) *RawValidator {
	return &RawValidator{raw: raw}
}

// Validate checks a decoded body against the schema and maps every leaf
// validation error to a FieldError under the given location.
func (v *RawValidator) Validate(body any, location string) *Result {
	result := NewResult()

	v.once.Do(func() {
		v.compiled, v.err = v.compile()
	})
	if v.err != nil {
		result.Add(&FieldError{
			Location: location,
			Code:     CodeSchema,
			Message:  fmt.Sprintf("schema compilation error: %v", v.err),
		})
		return result
	}

	// Round-trip through encoding/json so the instance uses the numeric
	// representations the compiled schema expects.
	normalized, err := normalizeJSON(body)
	if err != nil {
		result.Add(&FieldError{
			Location: location,
			Code:     CodeInvalidJSON,
			Message:  err.Error(),
		})
		return result
	}

	if err := v.compiled.Validate(normalized); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			collectSchemaErrors(verr, location, result)
		} else {
			result.Add(&FieldError{
				Location: location,
				Code:     CodeSchema,
				Message:  err.Error(),
			})
		}
	}
	return result
}

func (v *RawValidator) compile() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("request.schema.json", bytes.NewReader(v.raw)); err != nil {
		return nil, err
	}
	return compiler.Compile("request.schema.json")
}

// collectSchemaErrors flattens the cause tree into leaf FieldErrors with
// dotted paths.
func collectSchemaErrors(err *jsonschema.ValidationError, location string, result *Result) {
	if len(err.Causes) == 0 {
		result.Add(&FieldError{
			Field:    pointerToPath(err.InstanceLocation),
			Location: location,
			Code:     CodeSchema,
			Message:  err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, location, result)
	}
}

// pointerToPath converts a JSON Pointer ("/driver/laps/0") to the dotted
// form the rest of the package uses ("driver.laps.0").
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	return strings.ReplaceAll(ptr, "/", ".")
}

func normalizeJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("body is not JSON-encodable: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
