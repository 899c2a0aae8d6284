package spec

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getspecd/specd/pkg/schema"
)

// Location identifies where a parameter travels in the request.
type Location string

// Parameter locations.
const (
	InQuery    Location = "query"
	InPath     Location = "path"
	InHeader   Location = "header"
	InBody     Location = "requestBody"
	InFormData Location = "formData"
)

// Parameter declares one input of an operation. (Name, In) is unique
// within the owning operation.
type Parameter struct {
	Name        string
	In          Location
	Schema      *schema.Schema
	Required    bool
	Description string
}

// Operation is one documented (path template, HTTP method) endpoint.
// Values are immutable once built; the registry hands out the same value
// to every reader.
type Operation struct {
	Method string
	Path   string

	OperationID string
	Summary     string
	Description string
	Tags        []string

	Parameters []Parameter

	// RequestBody declares the request body shape for POST/PUT/PATCH.
	RequestBody         *schema.Schema
	RequestBodyRequired bool

	// RawRequestSchema optionally carries a full JSON Schema document
	// (draft 2020-12) for the request body instead of RequestBody. Used
	// when the contract is maintained as an external schema file.
	RawRequestSchema json.RawMessage

	// Responses maps status codes to the declared response body schema.
	// A nil schema documents a bodyless response.
	Responses map[int]*schema.Schema
}

// Key returns the registry key for the operation, "METHOD path".
func (o *Operation) Key() string {
	return OperationKey(o.Method, o.Path)
}

// OperationKey builds the registry key for a (method, path) pair.
func OperationKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// ResponseFor returns the schema declared for a status code.
// ok is false when the status is undocumented.
func (o *Operation) ResponseFor(status int) (*schema.Schema, bool) {
	s, ok := o.Responses[status]
	return s, ok
}

// DocumentedStatuses returns the declared status codes in ascending order.
func (o *Operation) DocumentedStatuses() []int {
	statuses := make([]int, 0, len(o.Responses))
	for code := range o.Responses {
		statuses = append(statuses, code)
	}
	sort.Ints(statuses)
	return statuses
}

// ParamsIn returns the operation's parameters for one location, in
// declaration order.
func (o *Operation) ParamsIn(in Location) []Parameter {
	var out []Parameter
	for _, p := range o.Parameters {
		if p.In == in {
			out = append(out, p)
		}
	}
	return out
}

// Builder accumulates an operation. All methods return the receiver; Build
// produces the immutable value and reports declaration mistakes (bad
// method, duplicate parameter, missing responses).
type Builder struct {
	op  Operation
	err error
}

var validMethods = map[string]struct{}{
	"GET": {}, "POST": {}, "PUT": {}, "PATCH": {}, "DELETE": {}, "HEAD": {}, "OPTIONS": {},
}

// NewOperation starts building an operation for the given method and path
// template.
func NewOperation(method, path string) *Builder {
	b := &Builder{op: Operation{
		Method:    strings.ToUpper(method),
		Path:      path,
		Responses: make(map[int]*schema.Schema),
	}}
	if _, ok := validMethods[b.op.Method]; !ok {
		b.err = fmt.Errorf("invalid HTTP method %q", method)
	}
	if !strings.HasPrefix(path, "/") {
		b.fail(fmt.Errorf("path %q must start with /", path))
	}
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// ID sets the operationId.
func (b *Builder) ID(id string) *Builder {
	b.op.OperationID = id
	return b
}

// Summary sets the one-line summary.
func (b *Builder) Summary(s string) *Builder {
	b.op.Summary = s
	return b
}

// Describe sets the long description.
func (b *Builder) Describe(s string) *Builder {
	b.op.Description = s
	return b
}

// Tags appends grouping tags.
func (b *Builder) Tags(tags ...string) *Builder {
	b.op.Tags = append(b.op.Tags, tags...)
	return b
}

// Param declares a parameter. (name, in) must be unique.
func (b *Builder) Param(name string, in Location, s *schema.Schema, required bool, description string) *Builder {
	for _, p := range b.op.Parameters {
		if p.Name == name && p.In == in {
			b.fail(fmt.Errorf("duplicate parameter %q in %s", name, in))
			return b
		}
	}
	b.op.Parameters = append(b.op.Parameters, Parameter{
		Name: name, In: in, Schema: s, Required: required, Description: description,
	})
	return b
}

// Query declares a query parameter.
func (b *Builder) Query(name string, s *schema.Schema, required bool) *Builder {
	return b.Param(name, InQuery, s, required, "")
}

// PathParam declares a path parameter. Path parameters are always
// required.
func (b *Builder) PathParam(name string, s *schema.Schema) *Builder {
	return b.Param(name, InPath, s, true, "")
}

// Header declares a header parameter.
func (b *Builder) Header(name string, s *schema.Schema, required bool) *Builder {
	return b.Param(name, InHeader, s, required, "")
}

// Body declares the request body schema.
func (b *Builder) Body(s *schema.Schema, required bool) *Builder {
	b.op.RequestBody = s
	b.op.RequestBodyRequired = required
	return b
}

// RawBody attaches a full JSON Schema document for the request body in
// place of a schema node.
func (b *Builder) RawBody(jsonSchema json.RawMessage, required bool) *Builder {
	b.op.RawRequestSchema = jsonSchema
	b.op.RequestBodyRequired = required
	return b
}

// Response declares the body schema for a status code. A nil schema
// documents a bodyless response.
func (b *Builder) Response(status int, s *schema.Schema) *Builder {
	if status < 100 || status > 599 {
		b.fail(fmt.Errorf("invalid status code %d", status))
		return b
	}
	if _, dup := b.op.Responses[status]; dup {
		b.fail(fmt.Errorf("duplicate response for status %d", status))
		return b
	}
	b.op.Responses[status] = s
	return b
}

// Build finalizes the operation.
func (b *Builder) Build() (*Operation, error) {
	if b.err != nil {
		return nil, fmt.Errorf("operation %s %s: %w", b.op.Method, b.op.Path, b.err)
	}
	if len(b.op.Responses) == 0 {
		return nil, fmt.Errorf("operation %s %s: no responses declared", b.op.Method, b.op.Path)
	}
	if b.op.RequestBody != nil && b.op.RawRequestSchema != nil {
		return nil, fmt.Errorf("operation %s %s: both schema and raw request body declared", b.op.Method, b.op.Path)
	}
	op := b.op
	return &op, nil
}

// MustBuild is Build for declaration sites where a mistake is a programming
// error.
func (b *Builder) MustBuild() *Operation {
	op, err := b.Build()
	if err != nil {
		panic(err)
	}
	return op
}

// schemas returns every schema node attached to the operation, keyed by a
// human-readable origin for error reporting.
func (o *Operation) schemas() map[string]*schema.Schema {
	out := make(map[string]*schema.Schema)
	for _, p := range o.Parameters {
		if p.Schema != nil {
			out[fmt.Sprintf("parameter %q in %s", p.Name, p.In)] = p.Schema
		}
	}
	if o.RequestBody != nil {
		out["request body"] = o.RequestBody
	}
	for status, s := range o.Responses {
		if s != nil {
			out[fmt.Sprintf("response %d", status)] = s
		}
	}
	return out
}
