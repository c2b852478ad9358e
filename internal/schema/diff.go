package schema

import (
	"fmt"
	"slices"
)

// ChangeType describes the kind of change detected between two versions of a
// content model.
type ChangeType string

// Supported change types.
const (
	ChangeAddField         ChangeType = "add_field"
	ChangeRemoveField      ChangeType = "remove_field"
	ChangeRenameIdentifier ChangeType = "rename_identifier"
	ChangeFieldType        ChangeType = "change_type"
	ChangeRequired         ChangeType = "change_required"
	ChangeReferenceTarget  ChangeType = "change_reference"
	ChangeItemFields       ChangeType = "change_item_fields"
	ChangeFieldOrder       ChangeType = "change_order"
	ChangeModelIdentifier  ChangeType = "rename_model"
)

// Change is a single difference between two versions of a content model.
type Change struct {
	// Type is the kind of change.
	Type ChangeType `json:"type"`

	// Field is the api_identifier of the affected field (after the change
	// when it still exists), or "" for model-level changes.
	Field string `json:"field,omitempty"`

	// Breaking indicates that downstream consumers reading the persisted JSON
	// shape will observe different keys or value shapes.
	Breaking bool `json:"breaking"`

	// Detail is a human-readable description of the change.
	Detail string `json:"detail"`
}

// DiffModel compares two versions of a content model. Fields are matched by
// ID, so renaming an api_identifier is reported as a rename rather than a
// remove plus add. Renames, removals, type changes and reference retargets
// are breaking for consumers; there is no versioning to absorb them.
func DiffModel(before, after ContentModel) []Change {
	var changes []Change

	if before.APIIdentifier != after.APIIdentifier {
		changes = append(changes, Change{
			Type:     ChangeModelIdentifier,
			Breaking: true,
			Detail:   fmt.Sprintf("model api identifier renamed from %q to %q", before.APIIdentifier, after.APIIdentifier),
		})
	}

	oldFields := make(map[string]FieldDefinition, len(before.Fields))
	for _, f := range before.Fields {
		oldFields[f.ID] = f
	}
	newFields := make(map[string]FieldDefinition, len(after.Fields))
	for _, f := range after.Fields {
		newFields[f.ID] = f
	}

	for _, f := range after.Fields {
		old, ok := oldFields[f.ID]
		if !ok {
			changes = append(changes, Change{
				Type:   ChangeAddField,
				Field:  f.APIIdentifier,
				Detail: fmt.Sprintf("add field %q (%s)", f.APIIdentifier, f.FieldType),
			})
			continue
		}
		changes = append(changes, diffField(old, f)...)
	}

	for _, f := range before.Fields {
		if _, ok := newFields[f.ID]; ok {
			continue
		}
		changes = append(changes, Change{
			Type:     ChangeRemoveField,
			Field:    f.APIIdentifier,
			Breaking: true,
			Detail:   fmt.Sprintf("remove field %q; stored values are no longer described by the model", f.APIIdentifier),
		})
	}

	if !slices.Equal(commonOrder(before.Fields, newFields), commonOrder(after.Fields, oldFields)) {
		changes = append(changes, Change{
			Type:   ChangeFieldOrder,
			Detail: "field order changed",
		})
	}

	return changes
}

func diffField(old, f FieldDefinition) []Change {
	var changes []Change

	if old.APIIdentifier != f.APIIdentifier {
		changes = append(changes, Change{
			Type:     ChangeRenameIdentifier,
			Field:    f.APIIdentifier,
			Breaking: true,
			Detail:   fmt.Sprintf("field api identifier renamed from %q to %q", old.APIIdentifier, f.APIIdentifier),
		})
	}

	if old.FieldType != f.FieldType {
		changes = append(changes, Change{
			Type:     ChangeFieldType,
			Field:    f.APIIdentifier,
			Breaking: true,
			Detail:   fmt.Sprintf("field %q type changed from %s to %s", f.APIIdentifier, old.FieldType, f.FieldType),
		})
	}

	if old.Required != f.Required {
		detail := fmt.Sprintf("field %q is no longer required", f.APIIdentifier)
		if f.Required {
			detail = fmt.Sprintf("field %q is now required; existing entries may not conform", f.APIIdentifier)
		}
		changes = append(changes, Change{
			Type:   ChangeRequired,
			Field:  f.APIIdentifier,
			Detail: detail,
		})
	}

	if old.ReferenceTo != f.ReferenceTo && old.FieldType == f.FieldType {
		changes = append(changes, Change{
			Type:     ChangeReferenceTarget,
			Field:    f.APIIdentifier,
			Breaking: true,
			Detail:   fmt.Sprintf("field %q now references %q instead of %q", f.APIIdentifier, f.ReferenceTo, old.ReferenceTo),
		})
	}

	if !slices.Equal(old.Options.ItemFields, f.Options.ItemFields) {
		changes = append(changes, Change{
			Type:     ChangeItemFields,
			Field:    f.APIIdentifier,
			Breaking: itemFieldsBreaking(old.Options.ItemFields, f.Options.ItemFields),
			Detail:   fmt.Sprintf("item fields of %q changed", f.APIIdentifier),
		})
	}

	return changes
}

// itemFieldsBreaking reports whether an item field was removed or changed
// type. Item fields have no ids, so they are matched by api_identifier.
func itemFieldsBreaking(old, updated []ArrayItemField) bool {
	types := make(map[string]ItemFieldType, len(updated))
	for _, f := range updated {
		types[f.APIIdentifier] = f.FieldType
	}
	for _, f := range old {
		t, ok := types[f.APIIdentifier]
		if !ok || t != f.FieldType {
			return true
		}
	}
	return false
}

// commonOrder returns the ids of fields that also appear in other, in the
// order of fields.
func commonOrder(fields []FieldDefinition, other map[string]FieldDefinition) []string {
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := other[f.ID]; ok {
			ids = append(ids, f.ID)
		}
	}
	return ids
}
