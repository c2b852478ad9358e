package form

import (
	"strings"
	"testing"

	"github.com/GyroZepelix/mithril-admin/internal/dynval"
	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

var slideFields = []schema.ArrayItemField{
	{Name: "Caption", APIIdentifier: "caption", FieldType: schema.ItemFieldShortText},
	{Name: "Count", APIIdentifier: "count", FieldType: schema.ItemFieldNumber},
}

func slide(caption string) dynval.Value {
	return dynval.Object(map[string]dynval.Value{"caption": dynval.String(caption)})
}

func captions(e *ArrayEditor) string {
	var out []string
	for i := 0; i < e.Len(); i++ {
		out = append(out, e.Item(i).GetString("caption"))
	}
	return strings.Join(out, ",")
}

func TestArrayEditor_Move(t *testing.T) {
	tests := []struct {
		from, to int
		want     string
	}{
		{0, 2, "B,C,A"},
		{2, 0, "C,A,B"},
		{1, 2, "A,C,B"},
		{1, 1, "A,B,C"},
	}

	for _, tt := range tests {
		e := NewArrayEditor(slideFields, dynval.Array(slide("A"), slide("B"), slide("C")))
		if err := e.Move(tt.from, tt.to); err != nil {
			t.Fatalf("Move(%d, %d) error: %v", tt.from, tt.to, err)
		}
		if got := captions(e); got != tt.want {
			t.Errorf("Move(%d, %d) = %s, want %s", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestArrayEditor_MoveKeepsCollapseStatePositional(t *testing.T) {
	e := NewArrayEditor(slideFields, dynval.Array(slide("A"), slide("B"), slide("C")))
	if err := e.Toggle(2); err != nil {
		t.Fatal(err)
	}

	if err := e.Move(0, 2); err != nil {
		t.Fatal(err)
	}

	// C is now at index 1, but collapse state stays with index 2.
	if e.IsCollapsed(1) {
		t.Error("index 1 should not be collapsed after move")
	}
	if !e.IsCollapsed(2) {
		t.Error("index 2 should still be collapsed after move")
	}
}

func TestArrayEditor_RemoveShiftsLaterCollapseState(t *testing.T) {
	e := NewArrayEditor(slideFields, dynval.Array(slide("A"), slide("B"), slide("C"), slide("D"), slide("E")))
	for _, i := range []int{0, 2, 4} {
		if err := e.Toggle(i); err != nil {
			t.Fatal(err)
		}
	}

	if err := e.Remove(1); err != nil {
		t.Fatal(err)
	}

	if got := captions(e); got != "A,C,D,E" {
		t.Fatalf("items = %s, want A,C,D,E", got)
	}

	want := map[int]bool{0: true, 1: true, 2: false, 3: true}
	for i, w := range want {
		if got := e.IsCollapsed(i); got != w {
			t.Errorf("IsCollapsed(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestArrayEditor_RemoveCollapsedItemDropsItsState(t *testing.T) {
	e := NewArrayEditor(slideFields, dynval.Array(slide("A"), slide("B"), slide("C")))
	_ = e.Toggle(1)

	if err := e.Remove(1); err != nil {
		t.Fatal(err)
	}
	if e.IsCollapsed(1) {
		t.Error("the item that took index 1 must not inherit the removed item's state")
	}
}

func TestArrayEditor_AddSeedsDefaults(t *testing.T) {
	e := NewArrayEditor(slideFields, dynval.Null())
	i := e.Add()
	if i != 0 {
		t.Fatalf("Add() = %d, want 0", i)
	}

	item := e.Item(0)
	if s, ok := item.Get("caption").AsString(); !ok || s != "" {
		t.Errorf("caption = %v, want empty string", item.Get("caption").ToAny())
	}
	if n, ok := item.Get("count").AsNumber(); !ok || n != 0 {
		t.Errorf("count = %v, want 0", item.Get("count").ToAny())
	}
}

func TestArrayEditor_SetField(t *testing.T) {
	e := NewArrayEditor(slideFields, dynval.Array(slide("A")))

	if err := e.SetField(0, "count", dynval.String("7")); err != nil {
		t.Fatalf("SetField() error: %v", err)
	}
	if n, _ := e.Item(0).Get("count").AsNumber(); n != 7 {
		t.Errorf("count = %v, want 7", n)
	}
	if err := e.SetField(0, "missing", dynval.String("x")); err == nil {
		t.Error("expected error for unknown item field")
	}
	if err := e.SetField(3, "caption", dynval.String("x")); err == nil {
		t.Error("expected error for out of range index")
	}
}

func TestArrayEditor_OutOfRange(t *testing.T) {
	e := NewArrayEditor(slideFields, dynval.Array(slide("A")))
	if err := e.Remove(1); err == nil {
		t.Error("Remove(1): expected error")
	}
	if err := e.Move(0, 5); err == nil {
		t.Error("Move(0, 5): expected error")
	}
	if err := e.Toggle(-1); err == nil {
		t.Error("Toggle(-1): expected error")
	}
}

func TestItemLabel(t *testing.T) {
	long := strings.Repeat("é", 61)

	tests := []struct {
		name   string
		fields []schema.ArrayItemField
		item   dynval.Value
		want   string
	}{
		{"first text field", slideFields, slide("Hello"), "Hello"},
		{"empty text", slideFields, slide(""), "Item"},
		{"no text field", []schema.ArrayItemField{{APIIdentifier: "count", FieldType: schema.ItemFieldNumber}}, slide("x"), "Item"},
		{"truncated", slideFields, slide(long), strings.Repeat("é", 60) + "..."},
		{"exactly sixty", slideFields, slide(strings.Repeat("a", 60)), strings.Repeat("a", 60)},
		{"long text counts", []schema.ArrayItemField{
			{APIIdentifier: "visible", FieldType: schema.ItemFieldBoolean},
			{APIIdentifier: "body", FieldType: schema.ItemFieldLongText},
		}, dynval.Object(map[string]dynval.Value{"body": dynval.String("Body text")}), "Body text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ItemLabel(tt.fields, tt.item); got != tt.want {
				t.Errorf("ItemLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArrayEditor_ValueIsSnapshot(t *testing.T) {
	e := NewArrayEditor(slideFields, dynval.Array(slide("A"), slide("B"), slide("C")))
	snapshot := e.Value()
	want := dynval.Array(slide("A"), slide("B"), slide("C"))

	if err := e.Remove(0); err != nil {
		t.Fatalf("Remove(0) error: %v", err)
	}
	if err := e.SetField(0, "caption", dynval.String("Z")); err != nil {
		t.Fatalf("SetField() error: %v", err)
	}
	e.Add()

	if !dynval.Equal(snapshot, want) {
		t.Errorf("snapshot = %v, want %v", snapshot.ToAny(), want.ToAny())
	}
	if got := captions(e); got != "Z,C," {
		t.Errorf("captions = %q, want %q", got, "Z,C,")
	}
}
