package schema

import "github.com/GyroZepelix/mithril-admin/internal/dynval"

// RuleKind names a family of validation constraints a field type accepts.
type RuleKind string

// Rule kinds. Text covers min_length, max_length and pattern; numeric covers
// min_value and max_value.
const (
	RuleKindText    RuleKind = "text"
	RuleKindNumeric RuleKind = "numeric"
)

// TypeSpec is the registry entry of a field type.
type TypeSpec struct {
	// Rules is the rule kind legal for the type, or "" when none apply.
	Rules RuleKind

	// NeedsItemFields is set for types configured with item fields (array).
	NeedsItemFields bool

	// NeedsReference is set for types that require a target model (reference).
	NeedsReference bool

	// Default seeds a new entry or array item.
	Default func() dynval.Value
}

func emptyString() dynval.Value { return dynval.String("") }

var registry = map[FieldType]TypeSpec{
	FieldTypeShortText: {Rules: RuleKindText, Default: emptyString},
	FieldTypeLongText:  {Rules: RuleKindText, Default: emptyString},
	FieldTypeRichText:  {Rules: RuleKindText, Default: emptyString},
	FieldTypeNumber:    {Rules: RuleKindNumeric, Default: func() dynval.Value { return dynval.Number(0) }},
	FieldTypeBoolean:   {Default: func() dynval.Value { return dynval.Bool(false) }},
	FieldTypeDate:      {Default: emptyString},
	FieldTypeMedia:     {Default: emptyString},
	FieldTypeReference: {NeedsReference: true, Default: emptyString},
	FieldTypeButton:    {Default: func() dynval.Value { return ButtonValue{Target: TargetSelf}.Value() }},
	FieldTypeArray:     {NeedsItemFields: true, Default: func() dynval.Value { return dynval.Array() }},
}

// Spec returns the registry entry for t.
func Spec(t FieldType) (TypeSpec, bool) {
	spec, ok := registry[t]
	return spec, ok
}

// DefaultValue returns the empty value used to seed a field of type t.
// Numbers seed to 0 both at the top level and inside array items, which means
// a freshly created entry cannot tell "unset" from an entered zero.
// Unknown types seed to null.
func DefaultValue(t FieldType) dynval.Value {
	spec, ok := registry[t]
	if !ok {
		return dynval.Null()
	}
	return spec.Default()
}

// ItemDefaultValue returns the empty value for one column of a new array item.
func ItemDefaultValue(t ItemFieldType) dynval.Value {
	return DefaultValue(t.FieldType())
}

// SeedValue returns the value a new entry starts with for f: its authored
// default_value when present, otherwise the type's default.
func SeedValue(f FieldDefinition) dynval.Value {
	if f.DefaultValue != nil {
		return *f.DefaultValue
	}
	return DefaultValue(f.FieldType)
}

// SeedFields fills every field of m missing from data with its seed value.
// Keys already present are left untouched. The returned map is a copy.
func SeedFields(m ContentModel, data map[string]dynval.Value) map[string]dynval.Value {
	out := make(map[string]dynval.Value, len(m.Fields)+len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, f := range m.Fields {
		if _, ok := out[f.APIIdentifier]; !ok {
			out[f.APIIdentifier] = SeedValue(f)
		}
	}
	return out
}

// NewArrayItem returns a new array item with every item field set to its
// default value.
func NewArrayItem(fields []ArrayItemField) dynval.Value {
	item := make(map[string]dynval.Value, len(fields))
	for _, f := range fields {
		item[f.APIIdentifier] = ItemDefaultValue(f.FieldType)
	}
	return dynval.Object(item)
}
