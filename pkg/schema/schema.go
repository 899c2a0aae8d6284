package schema

import (
	"fmt"
	"sort"
	"strings"
)

// JSON type names used in Schema.Type.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// RefPrefix is the pointer prefix for component references.
const RefPrefix = "#/components/schemas/"

// Schema describes the shape of a JSON-like value. A node is either
// concrete (Type set) or a reference (Ref set); never both.
type Schema struct {
	// Ref points at a named component ("#/components/schemas/Name").
	// A reference node carries no other constraint fields.
	Ref string `json:"$ref,omitempty" yaml:"$ref,omitempty"`

	// Type is one of: object, array, string, integer, number, boolean.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Format is an optional semantic tag for strings (date-time, email,
	// uuid, uri, ipv4, ipv6, hostname, date).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Properties declares the fields of an object node.
	Properties map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`

	// Required lists property names that must be present. Every entry
	// must name a key of Properties.
	Required []string `json:"required,omitempty" yaml:"required,omitempty"`

	// AdditionalProperties allows object keys not declared in Properties.
	// The default is false: undeclared keys are contract violations.
	AdditionalProperties bool `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`

	// Items declares the element shape of an array node.
	Items *Schema `json:"items,omitempty" yaml:"items,omitempty"`

	// Enum restricts the value to one of the listed literals.
	Enum []any `json:"enum,omitempty" yaml:"enum,omitempty"`

	// Nullable allows null in place of a value of Type.
	Nullable bool `json:"nullable,omitempty" yaml:"nullable,omitempty"`

	Example any `json:"example,omitempty" yaml:"example,omitempty"`
}

// Object returns a new object schema with no properties.
func Object() *Schema { return &Schema{Type: TypeObject} }

// String returns a new string schema.
func String() *Schema { return &Schema{Type: TypeString} }

// Integer returns a new integer schema.
func Integer() *Schema { return &Schema{Type: TypeInteger} }

// Number returns a new number schema.
func Number() *Schema { return &Schema{Type: TypeNumber} }

// Bool returns a new boolean schema.
func Bool() *Schema { return &Schema{Type: TypeBoolean} }

// ArrayOf returns a new array schema whose elements match items.
func ArrayOf(items *Schema) *Schema { return &Schema{Type: TypeArray, Items: items} }

// RefTo returns a reference node pointing at the named component.
func RefTo(name string) *Schema { return &Schema{Ref: RefPrefix + name} }

// Prop declares a property on an object schema and returns the receiver
// for chaining.
func (s *Schema) Prop(name string, prop *Schema) *Schema {
	if s.Properties == nil {
		s.Properties = make(map[string]*Schema)
	}
	s.Properties[name] = prop
	return s
}

// Req marks the named properties as required.
func (s *Schema) Req(names ...string) *Schema {
	s.Required = append(s.Required, names...)
	return s
}

// WithFormat sets the format tag.
func (s *Schema) WithFormat(format string) *Schema {
	s.Format = format
	return s
}

// WithEnum restricts the value to the given literals.
func (s *Schema) WithEnum(values ...any) *Schema {
	s.Enum = values
	return s
}

// WithDescription sets the description.
func (s *Schema) WithDescription(desc string) *Schema {
	s.Description = desc
	return s
}

// WithExample attaches an example value.
func (s *Schema) WithExample(example any) *Schema {
	s.Example = example
	return s
}

// AllowAdditional permits object keys not declared in Properties.
func (s *Schema) AllowAdditional() *Schema {
	s.AdditionalProperties = true
	return s
}

// AllowNull permits null in place of a typed value.
func (s *Schema) AllowNull() *Schema {
	s.Nullable = true
	return s
}

// IsRef reports whether the node is a reference.
func (s *Schema) IsRef() bool { return s != nil && s.Ref != "" }

// RefName returns the component name a reference points at.
// ok is false when the node is not a reference or the pointer does not use
// the component prefix.
func (s *Schema) RefName() (name string, ok bool) {
	if !s.IsRef() || !strings.HasPrefix(s.Ref, RefPrefix) {
		return "", false
	}
	name = strings.TrimPrefix(s.Ref, RefPrefix)
	return name, name != ""
}

// Clone returns a deep copy of the schema tree.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	if s.Properties != nil {
		out.Properties = make(map[string]*Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = v.Clone()
		}
	}
	if s.Required != nil {
		out.Required = append([]string(nil), s.Required...)
	}
	if s.Enum != nil {
		out.Enum = append([]any(nil), s.Enum...)
	}
	out.Items = s.Items.Clone()
	return &out
}

// CheckWellFormed verifies the structural invariants of the schema tree:
// a reference node carries nothing else, Required names only declared
// properties, and Items is present exactly on array nodes.
func (s *Schema) CheckWellFormed() error {
	return s.checkWellFormed("")
}

func (s *Schema) checkWellFormed(path string) error {
	if s == nil {
		return fmt.Errorf("schema%s: nil node", at(path))
	}
	if s.IsRef() {
		if s.Type != "" || s.Properties != nil || s.Items != nil ||
			len(s.Required) > 0 || len(s.Enum) > 0 || s.Format != "" {
			return fmt.Errorf("schema%s: reference node %q must not carry other fields", at(path), s.Ref)
		}
		return nil
	}
	switch s.Type {
	case TypeObject, TypeArray, TypeString, TypeInteger, TypeNumber, TypeBoolean:
	case "":
		return fmt.Errorf("schema%s: missing type", at(path))
	default:
		return fmt.Errorf("schema%s: unknown type %q", at(path), s.Type)
	}
	if s.Items != nil && s.Type != TypeArray {
		return fmt.Errorf("schema%s: items on non-array type %q", at(path), s.Type)
	}
	if s.Type == TypeArray && s.Items == nil {
		return fmt.Errorf("schema%s: array without items", at(path))
	}
	for _, name := range s.Required {
		if _, ok := s.Properties[name]; !ok {
			return fmt.Errorf("schema%s: required field %q is not declared in properties", at(path), name)
		}
	}
	for _, name := range sortedKeys(s.Properties) {
		child := path + "." + name
		if path == "" {
			child = name
		}
		if err := s.Properties[name].checkWellFormed(child); err != nil {
			return err
		}
	}
	if s.Items != nil {
		return s.Items.checkWellFormed(path + "[]")
	}
	return nil
}

func at(path string) string {
	if path == "" {
		return ""
	}
	return " at " + path
}

func sortedKeys(m map[string]*Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
