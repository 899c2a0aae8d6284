package validate

import (
	"fmt"
	"strings"
)

// Machine-readable violation codes.
const (
	CodeRequired           = "required"
	CodeType               = "type"
	CodeEnum               = "enum"
	CodeFormat             = "format"
	CodeUnknownField       = "unknown_field"
	CodeInvalidJSON        = "invalid_json"
	CodeSchema             = "schema"
	CodeStatus             = "status"
	CodeUndocumentedStatus = "undocumented_status"
	CodeResolution         = "resolution"
)

// Violation locations.
const (
	LocationBody     = "body"
	LocationPath     = "path"
	LocationQuery    = "query"
	LocationHeader   = "header"
	LocationForm     = "formData"
	LocationResponse = "response"
)

// FieldError is one contract violation at one field path.
type FieldError struct {
	// Field is the dotted/indexed path of the offending value, empty for
	// whole-value violations.
	Field string `json:"field,omitempty" yaml:"field,omitempty"`

	// Location is where the value travelled: body, path, query, header,
	// formData, response.
	Location string `json:"location" yaml:"location"`

	// Code is the machine-readable violation code.
	Code string `json:"code" yaml:"code"`

	// Message is the human-readable description.
	Message string `json:"message" yaml:"message"`

	// Expected describes the violated constraint.
	Expected string `json:"expected,omitempty" yaml:"expected,omitempty"`

	// Received is the offending value or its JSON kind.
	Received any `json:"received,omitempty" yaml:"received,omitempty"`
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s.%s: %s", e.Location, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

// Result accumulates the violations found while validating one value or
// one exchange.
type Result struct {
	Valid  bool          `json:"valid" yaml:"valid"`
	Errors []*FieldError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewResult returns an empty passing result.
func NewResult() *Result { return &Result{Valid: true} }

// Add records a violation.
func (r *Result) Add(err *FieldError) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// Merge folds another result into the receiver.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	if !other.Valid {
		r.Valid = false
	}
	r.Errors = append(r.Errors, other.Errors...)
}

// Summary renders a one-line digest, "3 violations: body.circuit_id: ...".
func (r *Result) Summary() string {
	if r.Valid {
		return "valid"
	}
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("%d violation(s): %s", len(r.Errors), strings.Join(parts, "; "))
}

// requiredError reports a missing required field.
func requiredError(field, location string) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     CodeRequired,
		Message:  fmt.Sprintf("field %q is required", field),
		Expected: "present",
	}
}

// typeError reports a JSON kind mismatch.
func typeError(field, location, expected string, received any) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     CodeType,
		Message:  fmt.Sprintf("expected %s, got %s", expected, jsonKind(received)),
		Expected: expected,
		Received: jsonKind(received),
	}
}

// enumError reports a value outside the enumerated literals.
func enumError(field, location string, allowed []any, received any) *FieldError {
	parts := make([]string, len(allowed))
	for i, v := range allowed {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     CodeEnum,
		Message:  fmt.Sprintf("must be one of: %s", strings.Join(parts, ", ")),
		Expected: "one of: " + strings.Join(parts, ", "),
		Received: received,
	}
}

// formatError reports a string failing its format validator.
func formatError(field, location, format string, received any) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     CodeFormat,
		Message:  fmt.Sprintf("must be a valid %s", format),
		Expected: "format: " + format,
		Received: received,
	}
}

// unknownFieldError reports an object key the contract does not declare.
func unknownFieldError(field, location string) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     CodeUnknownField,
		Message:  fmt.Sprintf("field %q is not declared in the contract", field),
		Expected: "declared field",
	}
}

// resolutionError reports a reference that failed to resolve during
// validation. Freeze catches these earlier; this is a backstop for
// resolvers built outside a registry.
func resolutionError(field, location string, err error) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     CodeResolution,
		Message:  err.Error(),
	}
}
