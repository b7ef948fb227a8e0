// In file: internal/tools/validate.go
package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ValidateArguments checks args against an object schema: required fields
// must be present and every known field must match its declared type and
// enumeration. Fields the schema does not describe are ignored.
func ValidateArguments(schema JSONSchema, args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	for _, field := range schema.Required {
		if _, ok := args[field]; !ok {
			return fmt.Errorf("%w: missing required field %q", ErrInvalidArguments, field)
		}
	}
	for key, value := range args {
		prop, ok := schema.Properties[key]
		if !ok || prop == nil {
			continue
		}
		if err := validateValue(key, value, prop); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
	}
	return nil
}

func validateValue(path string, value any, s *JSONSchema) error {
	switch s.Type {
	case "", "any":
		return nil
	case "string":
		str, ok := value.(string)
		if !ok {
			return typeError(path, s.Type, value)
		}
		if s.Enum != nil && !s.AdvisoryEnum && canonicalEnum(s.Enum, str) == "" {
			return fmt.Errorf("field %s: %q is not one of %v", path, str, s.Enum)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return typeError(path, s.Type, value)
		}
	case "number":
		if _, ok := toFloat(value); !ok {
			return typeError(path, s.Type, value)
		}
	case "integer":
		f, ok := toFloat(value)
		if !ok || f != math.Trunc(f) {
			return typeError(path, s.Type, value)
		}
	case "array":
		items, ok := toSlice(value)
		if !ok {
			return typeError(path, s.Type, value)
		}
		if s.Items == nil {
			return nil
		}
		for i, item := range items {
			if err := validateValue(fmt.Sprintf("%s[%d]", path, i), item, s.Items); err != nil {
				return err
			}
		}
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return typeError(path, s.Type, value)
		}
		for _, field := range s.Required {
			if _, ok := obj[field]; !ok {
				return fmt.Errorf("field %s: missing required field %q", path, field)
			}
		}
		for k, v := range obj {
			if prop, ok := s.Properties[k]; ok && prop != nil {
				if err := validateValue(path+"."+k, v, prop); err != nil {
					return err
				}
			}
		}
	default:
		return fmt.Errorf("field %s: unsupported schema type %q", path, s.Type)
	}
	return nil
}

func typeError(path, expected string, value any) error {
	return fmt.Errorf("field %s: expected %s but got %T", path, expected, value)
}

// canonicalEnum returns the enum member equal to v ignoring case, or "".
func canonicalEnum(enum []string, v string) string {
	v = strings.TrimSpace(v)
	for _, e := range enum {
		if strings.EqualFold(e, v) {
			return e
		}
	}
	return ""
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func toSlice(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// stringList reads an array-of-strings argument. Non-string elements are skipped.
func stringList(args map[string]any, key string) []string {
	items, ok := toSlice(args[key])
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func boolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}
