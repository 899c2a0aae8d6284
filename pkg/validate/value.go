package validate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/getspecd/specd/pkg/schema"
)

// Value validates a decoded JSON value against a schema node, resolving
// references through r. r may be nil when the schema tree is ref-free.
// The returned result accumulates every violation found.
func Value(s *schema.Schema, value any, r *schema.Resolver) *Result {
	result := NewResult()
	valueAt(s, value, r, "", LocationBody, result)
	return result
}

// ValueAt is Value with an explicit starting path and location, used by the
// harness to report response-body violations under the response location.
func ValueAt(s *schema.Schema, value any, r *schema.Resolver, path, location string) *Result {
	result := NewResult()
	valueAt(s, value, r, path, location, result)
	return result
}

func valueAt(s *schema.Schema, value any, r *schema.Resolver, path, location string, result *Result) {
	if s == nil {
		return
	}

	if s.IsRef() {
		if r == nil {
			result.Add(resolutionError(path, location, fmt.Errorf("reference %q with no resolver", s.Ref)))
			return
		}
		resolved, err := r.Resolve(s)
		if err != nil {
			result.Add(resolutionError(path, location, err))
			return
		}
		valueAt(resolved, value, r, path, location, result)
		return
	}

	if value == nil {
		if !s.Nullable {
			result.Add(typeError(path, location, s.Type, nil))
		}
		return
	}

	switch s.Type {
	case schema.TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			result.Add(typeError(path, location, schema.TypeObject, value))
			return
		}
		validateObject(s, obj, r, path, location, result)
	case schema.TypeArray:
		arr, ok := value.([]any)
		if !ok {
			result.Add(typeError(path, location, schema.TypeArray, value))
			return
		}
		for i, item := range arr {
			valueAt(s.Items, item, r, fmt.Sprintf("%s[%d]", path, i), location, result)
		}
	case schema.TypeString:
		str, ok := value.(string)
		if !ok {
			result.Add(typeError(path, location, schema.TypeString, value))
			return
		}
		if s.Format != "" && !schema.ValidFormat(s.Format, str) {
			result.Add(formatError(path, location, s.Format, str))
		}
	case schema.TypeInteger:
		if !isInteger(value) {
			result.Add(typeError(path, location, schema.TypeInteger, value))
			return
		}
	case schema.TypeNumber:
		if _, ok := toFloat64(value); !ok {
			result.Add(typeError(path, location, schema.TypeNumber, value))
			return
		}
	case schema.TypeBoolean:
		if _, ok := value.(bool); !ok {
			result.Add(typeError(path, location, schema.TypeBoolean, value))
			return
		}
	}

	if len(s.Enum) > 0 && !enumContains(s.Enum, value) {
		result.Add(enumError(path, location, s.Enum, value))
	}
}

func validateObject(s *schema.Schema, obj map[string]any, r *schema.Resolver, path, location string, result *Result) {
	for _, name := range s.Required {
		if _, present := obj[name]; !present {
			result.Add(requiredError(join(path, name), location))
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		prop, declared := s.Properties[k]
		if !declared {
			if !s.AdditionalProperties {
				result.Add(unknownFieldError(join(path, k), location))
			}
			continue
		}
		valueAt(prop, obj[k], r, join(path, k), location, result)
	}
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

// isInteger accepts whole numbers regardless of the decoder's numeric
// representation (float64, json.Number, or native ints).
func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int32, int64:
		return true
	case float64:
		return n == float64(int64(n))
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return true
		}
		f, err := n.Float64()
		return err == nil && f == float64(int64(f))
	default:
		return false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// enumContains compares with exact equality; numbers compare across
// representations, but there is no cross-type coercion ("1" never matches
// 1).
func enumContains(allowed []any, value any) bool {
	for _, a := range allowed {
		if literalEqual(a, value) {
			return true
		}
	}
	return false
}

func literalEqual(a, b any) bool {
	if af, aok := toFloat64(a); aok {
		bf, bok := toFloat64(b)
		return bok && af == bf
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		aj, _ := json.Marshal(a)
		bj, _ := json.Marshal(b)
		return string(aj) == string(bj)
	}
}

// ParamValue validates a string-carried parameter (path, query, header,
// form) against its schema, coercing the raw string to the schema's type
// first. A raw string that cannot be parsed as the declared type is a type
// violation.
func ParamValue(s *schema.Schema, name, raw, location string, r *schema.Resolver) *Result {
	result := NewResult()
	if s == nil {
		return result
	}

	target := s
	if s.IsRef() && r != nil {
		resolved, err := r.Resolve(s)
		if err != nil {
			result.Add(resolutionError(name, location, err))
			return result
		}
		target = resolved
	}

	var value any = raw
	switch target.Type {
	case schema.TypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			result.Add(typeError(name, location, schema.TypeInteger, raw))
			return result
		}
		value = n
	case schema.TypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			result.Add(typeError(name, location, schema.TypeNumber, raw))
			return result
		}
		value = f
	case schema.TypeBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			result.Add(typeError(name, location, schema.TypeBoolean, raw))
			return result
		}
		value = b
	}

	valueAt(target, value, r, name, location, result)
	return result
}

// jsonKind names the JSON kind of a decoded value for error reporting.
func jsonKind(v any) string {
	switch n := v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return "integer"
		}
		return "number"
	case float64:
		if n == float64(int64(n)) {
			return "integer"
		}
		return "number"
	case int, int32, int64, float32:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
