// Package schema defines content models and their field definitions, and
// implements the schema engine around them: the field type registry, model
// authoring validation, and validation of entry values against a model.
package schema

import (
	"fmt"
	"time"

	"github.com/GyroZepelix/mithril-admin/internal/dynval"
)

// FieldType represents the type of a content model field.
type FieldType string

// Supported field types for content models.
const (
	FieldTypeShortText FieldType = "short_text"
	FieldTypeLongText  FieldType = "long_text"
	FieldTypeRichText  FieldType = "rich_text"
	FieldTypeNumber    FieldType = "number"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeDate      FieldType = "date"
	FieldTypeMedia     FieldType = "media"
	FieldTypeReference FieldType = "reference"
	FieldTypeButton    FieldType = "button"
	FieldTypeArray     FieldType = "array"
)

// FieldTypes lists every supported field type in display order.
var FieldTypes = []FieldType{
	FieldTypeShortText,
	FieldTypeLongText,
	FieldTypeRichText,
	FieldTypeNumber,
	FieldTypeBoolean,
	FieldTypeDate,
	FieldTypeMedia,
	FieldTypeReference,
	FieldTypeButton,
	FieldTypeArray,
}

// IsKnown reports whether t is one of the supported field types. Unknown tags
// are kept as-is when decoding so that editors can show them as unsupported.
func (t FieldType) IsKnown() bool {
	_, ok := registry[t]
	return ok
}

// ItemFieldType is the field type of one column of an array field's items.
// It is deliberately a separate type: array and reference cannot be
// expressed, so items never nest beyond one level.
type ItemFieldType string

// Supported array item field types.
const (
	ItemFieldShortText ItemFieldType = "short_text"
	ItemFieldLongText  ItemFieldType = "long_text"
	ItemFieldNumber    ItemFieldType = "number"
	ItemFieldBoolean   ItemFieldType = "boolean"
	ItemFieldMedia     ItemFieldType = "media"
	ItemFieldButton    ItemFieldType = "button"
)

var validItemFieldTypes = map[ItemFieldType]bool{
	ItemFieldShortText: true,
	ItemFieldLongText:  true,
	ItemFieldNumber:    true,
	ItemFieldBoolean:   true,
	ItemFieldMedia:     true,
	ItemFieldButton:    true,
}

// FieldType widens an item field type to the general field type it shares
// storage and validation semantics with.
func (t ItemFieldType) FieldType() FieldType { return FieldType(t) }

// UnmarshalText rejects every tag outside the item field type set, including
// "array" and "reference".
func (t *ItemFieldType) UnmarshalText(text []byte) error {
	v := ItemFieldType(text)
	if !validItemFieldTypes[v] {
		return fmt.Errorf("invalid array item field type %q", string(text))
	}
	*t = v
	return nil
}

// Validation holds the optional type-appropriate constraints of a field.
// Length rules apply to text types, value rules to number.
type Validation struct {
	MinLength *int     `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	MinValue  *float64 `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue  *float64 `json:"max_value,omitempty" yaml:"max_value,omitempty"`
}

// FieldOptions is the type-specific configuration bag of a field.
type FieldOptions struct {
	Placeholder string           `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Rows        int              `json:"rows,omitempty" yaml:"rows,omitempty"`
	ItemFields  []ArrayItemField `json:"item_fields,omitempty" yaml:"item_fields,omitempty"`
}

// ArrayItemField describes one column of an array field's repeatable items.
type ArrayItemField struct {
	Name          string        `json:"name" yaml:"name"`
	APIIdentifier string        `json:"api_identifier" yaml:"api_identifier"`
	FieldType     ItemFieldType `json:"field_type" yaml:"field_type"`
	Required      bool          `json:"required" yaml:"required"`
}

// FieldDefinition is one authored field of a content model.
type FieldDefinition struct {
	// ID is generated once when the field is created and never reused.
	ID string `json:"id" yaml:"id,omitempty"`

	// Name is the human label shown to editors.
	Name string `json:"name" yaml:"name"`

	// APIIdentifier is the machine key used in entry field maps.
	APIIdentifier string `json:"api_identifier" yaml:"api_identifier"`

	// FieldType is fixed after creation.
	FieldType FieldType `json:"field_type" yaml:"field_type"`

	Required     bool          `json:"required" yaml:"required"`
	HelpText     string        `json:"help_text,omitempty" yaml:"help_text,omitempty"`
	Validation   *Validation   `json:"validation,omitempty" yaml:"validation,omitempty"`
	DefaultValue *dynval.Value `json:"default_value,omitempty" yaml:"default_value,omitempty"`

	// ReferenceTo is the api_identifier of the target model of a reference field.
	ReferenceTo string `json:"reference_to,omitempty" yaml:"reference_to,omitempty"`

	Options FieldOptions `json:"options" yaml:"options,omitempty"`
}

// ContentModel is a named, versionless schema that entries conform to.
type ContentModel struct {
	ID            string            `json:"id" yaml:"id,omitempty"`
	Name          string            `json:"name" yaml:"name"`
	APIIdentifier string            `json:"api_identifier" yaml:"api_identifier"`
	Description   string            `json:"description" yaml:"description,omitempty"`
	Icon          string            `json:"icon" yaml:"icon,omitempty"`
	Fields        []FieldDefinition `json:"fields" yaml:"fields"`
	CreatedBy     string            `json:"created_by,omitempty" yaml:"-"`
	CreatedAt     time.Time         `json:"created_at" yaml:"-"`
	UpdatedAt     time.Time         `json:"updated_at" yaml:"-"`
}

// FieldByIdentifier returns the field whose api_identifier equals key.
func (m ContentModel) FieldByIdentifier(key string) (FieldDefinition, bool) {
	for _, f := range m.Fields {
		if f.APIIdentifier == key {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// FieldError is a single field-scoped validation failure keyed by the field's
// api_identifier.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
