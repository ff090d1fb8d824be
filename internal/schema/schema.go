package schema

import (
	"errors"
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/tendant/simple-translate-pipeline/internal/classify"
)

// FieldMapping declares one expected output field. Output defaults to Source
// when empty, so mappings double as a rename table.
type FieldMapping struct {
	Source   string
	Output   string
	Type     classify.TypeTag
	Optional bool
}

// Field is one validated output field, keyed by output name.
type Field struct {
	Name     string
	Type     classify.TypeTag
	Optional bool
}

// Validator rejects provider output that does not conform exactly to the
// synthesized shape: extra, missing or mistyped fields all fail validation.
// There is no coercion.
type Validator struct {
	fields []Field
	rule   validation.MapRule
}

// FromClassified synthesizes a validator from separated content: one required
// key per translatable field, typed string or string-array.
func FromClassified(c classify.Classified) (*Validator, error) {
	names := make([]string, 0, len(c.Translatable))
	for name := range c.Translatable {
		names = append(names, name)
	}
	sort.Strings(names)

	mappings := make([]FieldMapping, 0, len(names))
	for _, name := range names {
		mappings = append(mappings, FieldMapping{Source: name, Type: c.Types[name]})
	}
	return FromMappings(mappings)
}

// FromMappings synthesizes a validator from an explicit field-mapping list.
func FromMappings(mappings []FieldMapping) (*Validator, error) {
	if len(mappings) == 0 {
		return nil, errors.New("no fields to validate")
	}

	fields := make([]Field, 0, len(mappings))
	keys := make([]*validation.KeyRules, 0, len(mappings))
	for _, m := range mappings {
		name := m.Output
		if name == "" {
			name = m.Source
		}
		var rule validation.Rule
		switch m.Type {
		case classify.TypeString:
			rule = validation.By(stringValue)
		case classify.TypeStringArray:
			rule = validation.By(stringArrayValue)
		default:
			return nil, fmt.Errorf("field %q: type %s is not translatable", name, m.Type)
		}
		key := validation.Key(name, rule)
		if m.Optional {
			key = key.Optional()
		}
		keys = append(keys, key)
		fields = append(fields, Field{Name: name, Type: m.Type, Optional: m.Optional})
	}

	return &Validator{fields: fields, rule: validation.Map(keys...)}, nil
}

// Fields returns the expected output fields in declaration order.
func (v *Validator) Fields() []Field {
	return v.fields
}

// Validate checks provider output against the synthesized shape.
func (v *Validator) Validate(output map[string]any) error {
	if output == nil {
		return errors.New("output is empty")
	}
	return validation.Validate(output, v.rule)
}

func stringValue(value interface{}) error {
	if _, ok := value.(string); !ok {
		return errors.New("must be a string")
	}
	return nil
}

func stringArrayValue(value interface{}) error {
	switch v := value.(type) {
	case []string:
		return nil
	case []any:
		for _, item := range v {
			if _, ok := item.(string); !ok {
				return errors.New("must contain only strings")
			}
		}
		return nil
	default:
		return errors.New("must be an array of strings")
	}
}
