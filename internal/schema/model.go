package schema

import (
	"fmt"
	"strings"
)

// ModelValidationError holds every problem found in an authored content
// model. Each problem is keyed by the path of the offending property, e.g.
// "fields[2].api_identifier".
type ModelValidationError struct {
	Problems []FieldError
}

// Error returns a human-readable summary of all validation problems.
func (e *ModelValidationError) Error() string {
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = p.Field + ": " + p.Message
	}
	return fmt.Sprintf("content model validation failed with %d problem(s):\n- %s",
		len(e.Problems), strings.Join(lines, "\n- "))
}

// ValidateModel validates an authored content model. others is the set of
// models already stored; it is used for the global api_identifier uniqueness
// check and for reference targets, and may contain m itself (matched by ID).
// All problems are collected; nil means the model is valid.
func ValidateModel(m ContentModel, others []ContentModel) error {
	var problems []FieldError
	add := func(field, format string, args ...any) {
		problems = append(problems, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(m.Name) == "" {
		add("name", "name is required")
	}
	if err := ValidateAPIIdentifier(m.APIIdentifier); err != nil {
		add("api_identifier", "%s", err.Error())
	} else {
		for _, o := range others {
			if o.ID != m.ID && o.APIIdentifier == m.APIIdentifier {
				add("api_identifier", "api identifier %q is already used by model %q", m.APIIdentifier, o.Name)
				break
			}
		}
	}

	seen := make(map[string]bool, len(m.Fields))
	for i, f := range m.Fields {
		prefix := fmt.Sprintf("fields[%d]", i)

		if strings.TrimSpace(f.Name) == "" {
			add(prefix+".name", "field name is required")
		}
		if err := ValidateAPIIdentifier(f.APIIdentifier); err != nil {
			add(prefix+".api_identifier", "%s", err.Error())
		} else {
			if seen[f.APIIdentifier] {
				add(prefix+".api_identifier", "duplicate field api identifier %q", f.APIIdentifier)
			}
			seen[f.APIIdentifier] = true
		}

		spec, ok := Spec(f.FieldType)
		if !ok {
			add(prefix+".field_type", "invalid field type %q", string(f.FieldType))
			continue
		}

		problems = append(problems, validateFieldConfig(prefix, f, spec)...)
	}

	if len(problems) == 0 {
		return nil
	}
	return &ModelValidationError{Problems: problems}
}

// validateFieldConfig checks the type-dependent configuration of one field.
func validateFieldConfig(prefix string, f FieldDefinition, spec TypeSpec) []FieldError {
	var problems []FieldError
	add := func(field, format string, args ...any) {
		problems = append(problems, FieldError{Field: prefix + field, Message: fmt.Sprintf(format, args...)})
	}

	if spec.NeedsReference {
		if f.ReferenceTo == "" {
			add(".reference_to", "reference field must have reference_to")
		} else if err := ValidateAPIIdentifier(f.ReferenceTo); err != nil {
			add(".reference_to", "%s", err.Error())
		}
	} else if f.ReferenceTo != "" {
		add(".reference_to", "reference_to is only valid on reference fields")
	}

	if spec.NeedsItemFields {
		if len(f.Options.ItemFields) == 0 {
			add(".options.item_fields", "array field must have at least one item field")
		}
		itemSeen := make(map[string]bool, len(f.Options.ItemFields))
		for j, item := range f.Options.ItemFields {
			itemPrefix := fmt.Sprintf(".options.item_fields[%d]", j)
			if strings.TrimSpace(item.Name) == "" {
				add(itemPrefix+".name", "item field name is required")
			}
			if err := ValidateAPIIdentifier(item.APIIdentifier); err != nil {
				add(itemPrefix+".api_identifier", "%s", err.Error())
			} else {
				if itemSeen[item.APIIdentifier] {
					add(itemPrefix+".api_identifier", "duplicate item field api identifier %q", item.APIIdentifier)
				}
				itemSeen[item.APIIdentifier] = true
			}
			if !validItemFieldTypes[item.FieldType] {
				add(itemPrefix+".field_type", "invalid array item field type %q", string(item.FieldType))
			}
		}
	} else if len(f.Options.ItemFields) > 0 {
		add(".options.item_fields", "item_fields is only valid on array fields")
	}

	if v := f.Validation; v != nil {
		hasText := v.MinLength != nil || v.MaxLength != nil || v.Pattern != ""
		hasNumeric := v.MinValue != nil || v.MaxValue != nil
		if hasText && spec.Rules != RuleKindText {
			add(".validation", "min_length, max_length and pattern are only valid on text fields")
		}
		if hasNumeric && spec.Rules != RuleKindNumeric {
			add(".validation", "min_value and max_value are only valid on number fields")
		}
		if v.MinLength != nil && *v.MinLength < 0 {
			add(".validation.min_length", "min_length must be >= 0 (got %d)", *v.MinLength)
		}
		if v.MaxLength != nil && *v.MaxLength < 0 {
			add(".validation.max_length", "max_length must be >= 0 (got %d)", *v.MaxLength)
		}
		if v.MinLength != nil && v.MaxLength != nil && *v.MinLength > *v.MaxLength {
			add(".validation", "min_length (%d) must be <= max_length (%d)", *v.MinLength, *v.MaxLength)
		}
		if v.MinValue != nil && v.MaxValue != nil && *v.MinValue > *v.MaxValue {
			add(".validation", "min_value (%g) must be <= max_value (%g)", *v.MinValue, *v.MaxValue)
		}
		if v.Pattern != "" {
			if _, err := compileWholePattern(v.Pattern); err != nil {
				add(".validation.pattern", "invalid pattern %q: %v", v.Pattern, err)
			}
		}
	}

	if f.DefaultValue != nil && IsPresent(f.FieldType, *f.DefaultValue) {
		if err := ValidateField(f, *f.DefaultValue); err != nil {
			add(".default_value", "default value is invalid: %s", err.Message)
		}
	}

	return problems
}

// CheckImmutableTypes rejects updates that change the field_type of an
// existing field. Fields are matched by ID; new fields and removed fields are
// not checked here.
func CheckImmutableTypes(before, after ContentModel) error {
	prev := make(map[string]FieldType, len(before.Fields))
	for _, f := range before.Fields {
		if f.ID != "" {
			prev[f.ID] = f.FieldType
		}
	}

	var problems []FieldError
	for i, f := range after.Fields {
		old, ok := prev[f.ID]
		if !ok || old == f.FieldType {
			continue
		}
		problems = append(problems, FieldError{
			Field:   fmt.Sprintf("fields[%d].field_type", i),
			Message: fmt.Sprintf("field type of %q cannot change from %s to %s", f.APIIdentifier, old, f.FieldType),
		})
	}

	if len(problems) == 0 {
		return nil
	}
	return &ModelValidationError{Problems: problems}
}

// ReorderFields returns fields rearranged into the order given by field IDs.
// order must name every field exactly once.
func ReorderFields(fields []FieldDefinition, order []string) ([]FieldDefinition, error) {
	if len(order) != len(fields) {
		return nil, fmt.Errorf("field order has %d ids, model has %d fields", len(order), len(fields))
	}

	byID := make(map[string]FieldDefinition, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	out := make([]FieldDefinition, 0, len(fields))
	used := make(map[string]bool, len(order))
	for _, id := range order {
		f, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown field id %q", id)
		}
		if used[id] {
			return nil, fmt.Errorf("field id %q listed more than once", id)
		}
		used[id] = true
		out = append(out, f)
	}
	return out, nil
}
