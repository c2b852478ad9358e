// Package form maps content model field definitions onto editable control
// descriptors and maps control changes back onto stored values. It carries no
// UI code; the admin SPA renders the descriptors.
package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GyroZepelix/mithril-admin/internal/dynval"
	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

// ControlKind identifies the editable control used for a field.
type ControlKind string

// Supported control kinds.
const (
	ControlTextInput       ControlKind = "text_input"
	ControlTextArea        ControlKind = "text_area"
	ControlRichText        ControlKind = "rich_text"
	ControlNumberInput     ControlKind = "number_input"
	ControlCheckbox        ControlKind = "checkbox"
	ControlDateInput       ControlKind = "date_input"
	ControlMediaPicker     ControlKind = "media_picker"
	ControlReferencePicker ControlKind = "reference_picker"
	ControlButtonEditor    ControlKind = "button_editor"
	ControlRepeater        ControlKind = "repeater"
	ControlUnsupported     ControlKind = "unsupported"
)

// defaultTextAreaRows is used when a long text field has no rows option.
const defaultTextAreaRows = 4

// Control describes one editable control bound to a field value.
type Control struct {
	Kind        ControlKind  `json:"kind"`
	Field       string       `json:"field"`
	Label       string       `json:"label"`
	Required    bool         `json:"required"`
	HelpText    string       `json:"help_text,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Rows        int          `json:"rows,omitempty"`
	Value       dynval.Value `json:"value"`
	Error       string       `json:"error,omitempty"`

	// ReferenceTo is the target model api_identifier of a reference picker.
	ReferenceTo string `json:"reference_to,omitempty"`

	// Items holds one block per element of a repeater.
	Items []Item `json:"items,omitempty"`
}

// Item is one repeatable block of a repeater control.
type Item struct {
	Index     int       `json:"index"`
	Label     string    `json:"label"`
	Collapsed bool      `json:"collapsed"`
	Controls  []Control `json:"controls"`
}

// Render produces the control for a field and its current value. Unknown
// field types yield an unsupported control carrying an error marker.
func Render(fd schema.FieldDefinition, v dynval.Value) Control {
	c := Control{
		Field:       fd.APIIdentifier,
		Label:       fd.Name,
		Required:    fd.Required,
		HelpText:    fd.HelpText,
		Placeholder: fd.Options.Placeholder,
		Value:       v,
	}

	switch fd.FieldType {
	case schema.FieldTypeShortText:
		c.Kind = ControlTextInput
	case schema.FieldTypeLongText:
		c.Kind = ControlTextArea
		c.Rows = fd.Options.Rows
		if c.Rows <= 0 {
			c.Rows = defaultTextAreaRows
		}
	case schema.FieldTypeRichText:
		c.Kind = ControlRichText
	case schema.FieldTypeNumber:
		c.Kind = ControlNumberInput
	case schema.FieldTypeBoolean:
		c.Kind = ControlCheckbox
	case schema.FieldTypeDate:
		c.Kind = ControlDateInput
	case schema.FieldTypeMedia:
		c.Kind = ControlMediaPicker
		c.Value = schema.NormalizeMediaValue(v).Value()
	case schema.FieldTypeReference:
		c.Kind = ControlReferencePicker
		c.ReferenceTo = fd.ReferenceTo
	case schema.FieldTypeButton:
		c.Kind = ControlButtonEditor
		c.Value = schema.NormalizeButtonValue(v).Value()
	case schema.FieldTypeArray:
		c.Kind = ControlRepeater
		c.Items = NewArrayEditor(fd.Options.ItemFields, v).Render()
	default:
		c.Kind = ControlUnsupported
		c.Error = fmt.Sprintf("Unsupported field type %q", string(fd.FieldType))
	}

	return c
}

// renderItemField produces the sub-control of one array item column.
func renderItemField(f schema.ArrayItemField, v dynval.Value) Control {
	return Render(schema.FieldDefinition{
		Name:          f.Name,
		APIIdentifier: f.APIIdentifier,
		FieldType:     f.FieldType.FieldType(),
		Required:      f.Required,
	}, v)
}

// RenderModel produces the controls of a whole entry form in schema order.
// Validation errors are attached inline to the control of their field.
func RenderModel(m schema.ContentModel, data map[string]dynval.Value, errs []schema.FieldError) []Control {
	byField := make(map[string]string, len(errs))
	for _, e := range errs {
		if _, ok := byField[e.Field]; !ok {
			byField[e.Field] = e.Message
		}
	}

	controls := make([]Control, 0, len(m.Fields))
	for _, f := range m.Fields {
		c := Render(f, data[f.APIIdentifier])
		if msg, ok := byField[f.APIIdentifier]; ok && c.Error == "" {
			c.Error = msg
		}
		controls = append(controls, c)
	}
	return controls
}

// Normalize converts a raw control change into the stored value shape of the
// field. Text inputs deliver strings, so numbers and checkboxes also accept
// their string forms.
func Normalize(fd schema.FieldDefinition, input dynval.Value) (dynval.Value, error) {
	switch fd.FieldType {
	case schema.FieldTypeShortText, schema.FieldTypeLongText, schema.FieldTypeRichText,
		schema.FieldTypeReference:
		return normalizeString(fd, input)
	case schema.FieldTypeDate:
		v, err := normalizeString(fd, input)
		if err != nil {
			return v, err
		}
		s, _ := v.AsString()
		return dynval.String(strings.TrimSpace(s)), nil
	case schema.FieldTypeNumber:
		return normalizeNumber(fd, input)
	case schema.FieldTypeBoolean:
		return normalizeBool(fd, input)
	case schema.FieldTypeMedia:
		if input.IsNull() {
			return dynval.String(""), nil
		}
		m := schema.NormalizeMediaValue(input)
		if m.URL == "" && input.Kind() != dynval.KindString && input.Kind() != dynval.KindObject {
			return dynval.Null(), fmt.Errorf("%s must be a URL or a media item", fd.Name)
		}
		return m.Value(), nil
	case schema.FieldTypeButton:
		if input.IsNull() {
			return schema.DefaultValue(schema.FieldTypeButton), nil
		}
		if input.Kind() != dynval.KindObject {
			return dynval.Null(), fmt.Errorf("%s must be a button with text and a URL", fd.Name)
		}
		return schema.NormalizeButtonValue(input).Value(), nil
	case schema.FieldTypeArray:
		return normalizeArray(fd, input)
	default:
		return dynval.Null(), fmt.Errorf("%s has unsupported field type %q", fd.Name, string(fd.FieldType))
	}
}

func normalizeString(fd schema.FieldDefinition, input dynval.Value) (dynval.Value, error) {
	if input.IsNull() {
		return dynval.String(""), nil
	}
	if _, ok := input.AsString(); !ok {
		return dynval.Null(), fmt.Errorf("%s must be text", fd.Name)
	}
	return input, nil
}

func normalizeNumber(fd schema.FieldDefinition, input dynval.Value) (dynval.Value, error) {
	switch input.Kind() {
	case dynval.KindNull:
		return dynval.Null(), nil
	case dynval.KindNumber:
		return input, nil
	case dynval.KindString:
		s, _ := input.AsString()
		s = strings.TrimSpace(s)
		if s == "" {
			return dynval.Null(), nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return dynval.Null(), fmt.Errorf("%s must be a number", fd.Name)
		}
		return dynval.Number(n), nil
	default:
		return dynval.Null(), fmt.Errorf("%s must be a number", fd.Name)
	}
}

func normalizeBool(fd schema.FieldDefinition, input dynval.Value) (dynval.Value, error) {
	switch input.Kind() {
	case dynval.KindNull:
		return dynval.Bool(false), nil
	case dynval.KindBool:
		return input, nil
	case dynval.KindString:
		s, _ := input.AsString()
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "on", "1":
			return dynval.Bool(true), nil
		case "false", "off", "0", "":
			return dynval.Bool(false), nil
		}
		return dynval.Null(), fmt.Errorf("%s must be checked or unchecked", fd.Name)
	default:
		return dynval.Null(), fmt.Errorf("%s must be checked or unchecked", fd.Name)
	}
}

// normalizeArray normalizes each item column through its item field type.
// Keys not described by the item fields are dropped.
func normalizeArray(fd schema.FieldDefinition, input dynval.Value) (dynval.Value, error) {
	if input.IsNull() {
		return dynval.Array(), nil
	}
	items, ok := input.AsArray()
	if !ok {
		return dynval.Null(), fmt.Errorf("%s must be a list of items", fd.Name)
	}

	out := make([]dynval.Value, 0, len(items))
	for i, item := range items {
		if item.Kind() != dynval.KindObject {
			return dynval.Null(), fmt.Errorf("%s item %d must be an object", fd.Name, i+1)
		}
		members := make(map[string]dynval.Value, len(fd.Options.ItemFields))
		for _, f := range fd.Options.ItemFields {
			raw, present := item.AsObject()
			v := dynval.Null()
			if present {
				v = raw[f.APIIdentifier]
			}
			if v.IsNull() {
				members[f.APIIdentifier] = schema.ItemDefaultValue(f.FieldType)
				continue
			}
			nv, err := Normalize(schema.FieldDefinition{
				Name:          f.Name,
				APIIdentifier: f.APIIdentifier,
				FieldType:     f.FieldType.FieldType(),
			}, v)
			if err != nil {
				return dynval.Null(), fmt.Errorf("%s item %d: %w", fd.Name, i+1, err)
			}
			members[f.APIIdentifier] = nv
		}
		out = append(out, dynval.Object(members))
	}
	return dynval.Array(out...), nil
}

// NormalizeFields normalizes every model field present in data. Keys that no
// field describes are kept unchanged. Failures are reported per field.
func NormalizeFields(m schema.ContentModel, data map[string]dynval.Value) (map[string]dynval.Value, []schema.FieldError) {
	out := make(map[string]dynval.Value, len(data))
	for k, v := range data {
		out[k] = v
	}

	var errs []schema.FieldError
	for _, f := range m.Fields {
		v, ok := data[f.APIIdentifier]
		if !ok {
			continue
		}
		nv, err := Normalize(f, v)
		if err != nil {
			errs = append(errs, schema.FieldError{Field: f.APIIdentifier, Message: err.Error()})
			continue
		}
		out[f.APIIdentifier] = nv
	}
	return out, errs
}
