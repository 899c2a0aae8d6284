package document

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/getspecd/specd/pkg/schema"
	"github.com/getspecd/specd/pkg/spec"
)

// Document is a compiled OpenAPI 3 specification. It is built once per
// compilation run and never mutated afterwards.
type Document struct {
	OpenAPI    string               `json:"openapi" yaml:"openapi"`
	Info       spec.Info            `json:"info" yaml:"info"`
	Servers    []spec.Server        `json:"servers,omitempty" yaml:"servers,omitempty"`
	Paths      map[string]*PathItem `json:"paths" yaml:"paths"`
	Components *Components          `json:"components,omitempty" yaml:"components,omitempty"`
}

// Components holds the reusable pieces referenced from paths.
type Components struct {
	Schemas         map[string]*schema.Schema      `json:"schemas,omitempty" yaml:"schemas,omitempty"`
	SecuritySchemes map[string]spec.SecurityScheme `json:"securitySchemes,omitempty" yaml:"securitySchemes,omitempty"`
}

// PathItem holds the operations under one path template. Field order fixes
// the canonical method order of the serialized document.
type PathItem struct {
	Get     *Operation `json:"get,omitempty" yaml:"get,omitempty"`
	Post    *Operation `json:"post,omitempty" yaml:"post,omitempty"`
	Put     *Operation `json:"put,omitempty" yaml:"put,omitempty"`
	Patch   *Operation `json:"patch,omitempty" yaml:"patch,omitempty"`
	Delete  *Operation `json:"delete,omitempty" yaml:"delete,omitempty"`
	Head    *Operation `json:"head,omitempty" yaml:"head,omitempty"`
	Options *Operation `json:"options,omitempty" yaml:"options,omitempty"`
}

// Operation is the serialized form of one registered operation.
type Operation struct {
	OperationID string               `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Summary     string               `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string             `json:"tags,omitempty" yaml:"tags,omitempty"`
	Parameters  []*Parameter         `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody *RequestBody         `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   map[string]*Response `json:"responses" yaml:"responses"`
}

// Parameter is the serialized form of a query, path, or header parameter.
type Parameter struct {
	Name        string         `json:"name" yaml:"name"`
	In          string         `json:"in" yaml:"in"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool           `json:"required,omitempty" yaml:"required,omitempty"`
	Schema      *schema.Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// RequestBody is the serialized request body declaration.
type RequestBody struct {
	Required bool                  `json:"required,omitempty" yaml:"required,omitempty"`
	Content  map[string]*MediaType `json:"content" yaml:"content"`
}

// MediaType binds a content type to its schema. Schema is either a
// *schema.Schema or, for operations declared with a raw JSON Schema, the
// decoded schema document.
type MediaType struct {
	Schema any `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Response is the serialized form of one declared response.
type Response struct {
	Description string                `json:"description" yaml:"description"`
	Content     map[string]*MediaType `json:"content,omitempty" yaml:"content,omitempty"`
}

// ToYAML serializes the document as YAML. Output is byte-stable for an
// unchanged document.
func (d *Document) ToYAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// ToJSON serializes the document as indented JSON with sorted keys.
func (d *Document) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
