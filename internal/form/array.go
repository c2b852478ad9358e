package form

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/GyroZepelix/mithril-admin/internal/dynval"
	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

const (
	// itemLabelMaxRunes is the length of an item summary label before it is
	// cut and suffixed with an ellipsis.
	itemLabelMaxRunes = 60

	// fallbackItemLabel is shown when no text item field has a value.
	fallbackItemLabel = "Item"
)

// ArrayEditor edits the value of an array field. Collapse state is
// positional: it is keyed by item index, shifted down when an earlier item is
// removed, and not carried along when items move.
type ArrayEditor struct {
	fields    []schema.ArrayItemField
	items     []dynval.Value
	collapsed map[int]bool
}

// NewArrayEditor starts editing v. Non-array values start an empty list.
func NewArrayEditor(fields []schema.ArrayItemField, v dynval.Value) *ArrayEditor {
	items, _ := v.AsArray()
	return &ArrayEditor{
		fields:    fields,
		items:     append([]dynval.Value(nil), items...),
		collapsed: make(map[int]bool),
	}
}

// Len returns the number of items.
func (e *ArrayEditor) Len() int { return len(e.items) }

// Item returns the item at index i.
func (e *ArrayEditor) Item(i int) dynval.Value {
	if i < 0 || i >= len(e.items) {
		return dynval.Null()
	}
	return e.items[i]
}

// Value returns the edited array. Later edits do not change a returned
// value.
func (e *ArrayEditor) Value() dynval.Value {
	return dynval.Array(append([]dynval.Value(nil), e.items...)...)
}

// Add appends a new item seeded with each item field's default and returns
// its index.
func (e *ArrayEditor) Add() int {
	e.items = append(e.items, schema.NewArrayItem(e.fields))
	return len(e.items) - 1
}

// Remove deletes item k. Collapse state of later items shifts down by one;
// earlier items are untouched.
func (e *ArrayEditor) Remove(k int) error {
	if err := e.checkIndex(k); err != nil {
		return err
	}
	items := make([]dynval.Value, 0, len(e.items)-1)
	items = append(items, e.items[:k]...)
	e.items = append(items, e.items[k+1:]...)

	shifted := make(map[int]bool, len(e.collapsed))
	for i, c := range e.collapsed {
		switch {
		case i < k:
			shifted[i] = c
		case i > k:
			shifted[i-1] = c
		}
	}
	e.collapsed = shifted
	return nil
}

// Move removes the item at from and re-inserts it at to. All other items
// keep their relative order.
func (e *ArrayEditor) Move(from, to int) error {
	if err := e.checkIndex(from); err != nil {
		return err
	}
	if err := e.checkIndex(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	item := e.items[from]
	rest := append(e.items[:from:from], e.items[from+1:]...)
	out := make([]dynval.Value, 0, len(e.items))
	out = append(out, rest[:to]...)
	out = append(out, item)
	out = append(out, rest[to:]...)
	e.items = out
	return nil
}

// Toggle flips the collapse state of item i.
func (e *ArrayEditor) Toggle(i int) error {
	if err := e.checkIndex(i); err != nil {
		return err
	}
	if e.collapsed[i] {
		delete(e.collapsed, i)
	} else {
		e.collapsed[i] = true
	}
	return nil
}

// IsCollapsed reports whether item i is collapsed.
func (e *ArrayEditor) IsCollapsed(i int) bool { return e.collapsed[i] }

// SetField sets one column of item i after normalizing it through the item
// field's type.
func (e *ArrayEditor) SetField(i int, key string, v dynval.Value) error {
	if err := e.checkIndex(i); err != nil {
		return err
	}
	var field *schema.ArrayItemField
	for j := range e.fields {
		if e.fields[j].APIIdentifier == key {
			field = &e.fields[j]
			break
		}
	}
	if field == nil {
		return fmt.Errorf("unknown item field %q", key)
	}

	nv, err := Normalize(schema.FieldDefinition{
		Name:          field.Name,
		APIIdentifier: field.APIIdentifier,
		FieldType:     field.FieldType.FieldType(),
	}, v)
	if err != nil {
		return err
	}
	e.items[i] = e.items[i].With(key, nv)
	return nil
}

// Render produces one block per item with its sub-controls.
func (e *ArrayEditor) Render() []Item {
	out := make([]Item, 0, len(e.items))
	for i, item := range e.items {
		controls := make([]Control, 0, len(e.fields))
		for _, f := range e.fields {
			controls = append(controls, renderItemField(f, item.Get(f.APIIdentifier)))
		}
		out = append(out, Item{
			Index:     i,
			Label:     ItemLabel(e.fields, item),
			Collapsed: e.collapsed[i],
			Controls:  controls,
		})
	}
	return out
}

func (e *ArrayEditor) checkIndex(i int) error {
	if i < 0 || i >= len(e.items) {
		return fmt.Errorf("item index %d out of range [0,%d)", i, len(e.items))
	}
	return nil
}

// ItemLabel returns the summary label of an array item: the value of the
// first short or long text item field, cut at 60 characters, or "Item" when
// there is no such field or it is empty.
func ItemLabel(fields []schema.ArrayItemField, item dynval.Value) string {
	for _, f := range fields {
		if f.FieldType != schema.ItemFieldShortText && f.FieldType != schema.ItemFieldLongText {
			continue
		}
		s := strings.TrimSpace(item.GetString(f.APIIdentifier))
		if s == "" {
			return fallbackItemLabel
		}
		if utf8.RuneCountInString(s) <= itemLabelMaxRunes {
			return s
		}
		return string([]rune(s)[:itemLabelMaxRunes]) + "..."
	}
	return fallbackItemLabel
}
