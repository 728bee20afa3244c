package flow

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type FieldType string

const (
	FIELD_TYPE_STRING FieldType = "string"
	FIELD_TYPE_BOOL   FieldType = "bool"
	FIELD_TYPE_SELECT FieldType = "select"
)

type Field struct {
	Name      string    `json:"name"`
	Type      FieldType `json:"type"`
	Required  bool      `json:"required"`
	Default   any       `json:"default,omitempty"`
	Suggested any       `json:"suggested_value,omitempty"`
	Options   []string  `json:"options,omitempty"`

	// CustomValue lets a select field take strings outside Options. The
	// step decides whether such a value is acceptable.
	CustomValue bool `json:"custom_value,omitempty"`
}

type Schema struct {
	Fields []Field `json:"fields"`
}

// ValidationError maps field names (or "base") to messages.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Errors[k]))
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

func NewSchema(fields ...Field) *Schema {
	return &Schema{Fields: fields}
}

// WithSuggestedValues returns a copy of the schema where every field named in
// values carries that value as its suggestion.
func (s *Schema) WithSuggestedValues(values map[string]any) *Schema {
	out := &Schema{Fields: make([]Field, len(s.Fields))}
	copy(out.Fields, s.Fields)
	for i := range out.Fields {
		if v, ok := values[out.Fields[i].Name]; ok {
			out.Fields[i].Suggested = v
		}
	}
	return out
}

// Validate coerces input against the schema. Optional fields that are
// missing get their default, unknown keys are rejected.
func (s *Schema) Validate(input map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(s.Fields))
	errs := map[string]string{}

	known := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		known[f.Name] = true
		raw, present := input[f.Name]
		if !present {
			if f.Required {
				errs[f.Name] = "required key not provided"
			} else {
				out[f.Name] = f.Default
			}
			continue
		}
		value, err := f.coerce(raw)
		if err != nil {
			errs[f.Name] = err.Error()
			continue
		}
		out[f.Name] = value
	}
	for k := range input {
		if !known[k] {
			errs[k] = "extra keys not allowed"
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return out, nil
}

func (f Field) coerce(raw any) (any, error) {
	switch f.Type {
	case FIELD_TYPE_STRING:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected str")
		}
		return s, nil
	case FIELD_TYPE_BOOL:
		return CoerceBool(raw)
	case FIELD_TYPE_SELECT:
		if raw == nil && !f.Required {
			return nil, nil
		}
		s, ok := raw.(string)
		if ok && f.CustomValue {
			return s, nil
		}
		if !ok || !slices.Contains(f.Options, s) {
			return nil, fmt.Errorf("value must be one of %v", f.Options)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unsupported field type %q", f.Type)
}

// CoerceBool accepts booleans, numbers and the usual on/off spellings.
func CoerceBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case nil:
		return false, nil
	case float64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "on", "yes", "enable":
			return true, nil
		case "off", "no", "disable", "":
			return false, nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("expected boolean")
		}
		return b, nil
	}
	return false, fmt.Errorf("expected boolean")
}
