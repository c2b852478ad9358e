package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/GyroZepelix/mithril-admin/internal/dynval"
)

func validModel() ContentModel {
	return ContentModel{
		ID:            "m1",
		Name:          "Blog Post",
		APIIdentifier: "blog_post",
		Fields: []FieldDefinition{
			{ID: "f1", Name: "Title", APIIdentifier: "title", FieldType: FieldTypeShortText, Required: true,
				Validation: &Validation{MinLength: intPtr(1), MaxLength: intPtr(120)}},
			{ID: "f2", Name: "Rating", APIIdentifier: "rating", FieldType: FieldTypeNumber,
				Validation: &Validation{MinValue: floatPtr(0), MaxValue: floatPtr(5)}, DefaultValue: valuePtr(dynval.Number(3))},
			{ID: "f3", Name: "Author", APIIdentifier: "author", FieldType: FieldTypeReference, ReferenceTo: "author"},
			{ID: "f4", Name: "Slides", APIIdentifier: "slides", FieldType: FieldTypeArray, Options: FieldOptions{
				ItemFields: []ArrayItemField{
					{Name: "Caption", APIIdentifier: "caption", FieldType: ItemFieldShortText},
					{Name: "Image", APIIdentifier: "image", FieldType: ItemFieldMedia, Required: true},
				},
			}},
		},
	}
}

func problemFields(t *testing.T, err error) []string {
	t.Helper()
	var mve *ModelValidationError
	if !errors.As(err, &mve) {
		t.Fatalf("expected *ModelValidationError, got %T: %v", err, err)
	}
	fields := make([]string, len(mve.Problems))
	for i, p := range mve.Problems {
		fields[i] = p.Field
	}
	return fields
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestValidateModel_Valid(t *testing.T) {
	m := validModel()
	if err := ValidateModel(m, []ContentModel{m}); err != nil {
		t.Fatalf("ValidateModel() unexpected error: %v", err)
	}
}

func TestValidateModel_CollectsAllProblems(t *testing.T) {
	m := validModel()
	m.Name = ""
	m.Fields[0].APIIdentifier = "Title"
	m.Fields[1].Validation.MinLength = intPtr(2)
	m.Fields[2].ReferenceTo = ""

	fields := problemFields(t, ValidateModel(m, nil))

	want := []string{"name", "fields[0].api_identifier", "fields[1].validation", "fields[2].reference_to"}
	for _, w := range want {
		if !containsString(fields, w) {
			t.Errorf("problems %v missing %q", fields, w)
		}
	}
}

func TestValidateModel_GlobalIdentifierUniqueness(t *testing.T) {
	m := validModel()
	other := ContentModel{ID: "m2", Name: "Other", APIIdentifier: "blog_post"}

	fields := problemFields(t, ValidateModel(m, []ContentModel{other}))
	if !containsString(fields, "api_identifier") {
		t.Errorf("problems %v missing api_identifier conflict", fields)
	}

	// The model itself is not a conflict.
	if err := ValidateModel(m, []ContentModel{m}); err != nil {
		t.Errorf("same id should not conflict: %v", err)
	}
}

func TestValidateModel_DuplicateFieldIdentifier(t *testing.T) {
	m := validModel()
	m.Fields[1].APIIdentifier = "title"

	fields := problemFields(t, ValidateModel(m, nil))
	if !containsString(fields, "fields[1].api_identifier") {
		t.Errorf("problems %v missing duplicate field", fields)
	}

	// Uniqueness is case-sensitive, but uppercase fails the format anyway.
	m = validModel()
	m.Fields[1].APIIdentifier = "title_2"
	if err := ValidateModel(m, nil); err != nil {
		t.Errorf("distinct identifiers: unexpected error %v", err)
	}
}

func TestValidateModel_ArrayNeedsItemFields(t *testing.T) {
	m := validModel()
	m.Fields[3].Options.ItemFields = nil

	fields := problemFields(t, ValidateModel(m, nil))
	if !containsString(fields, "fields[3].options.item_fields") {
		t.Errorf("problems %v missing item_fields", fields)
	}

	m = validModel()
	m.Fields[3].Options.ItemFields[1].Name = ""
	m.Fields[3].Options.ItemFields[1].APIIdentifier = ""
	fields = problemFields(t, ValidateModel(m, nil))
	for _, w := range []string{
		"fields[3].options.item_fields[1].name",
		"fields[3].options.item_fields[1].api_identifier",
	} {
		if !containsString(fields, w) {
			t.Errorf("problems %v missing %q", fields, w)
		}
	}
}

func TestValidateModel_RuleKindsPerType(t *testing.T) {
	m := validModel()
	m.Fields[0].Validation = &Validation{MinValue: floatPtr(1)}
	m.Fields[1].Validation = &Validation{Pattern: "x"}

	fields := problemFields(t, ValidateModel(m, nil))
	for _, w := range []string{"fields[0].validation", "fields[1].validation"} {
		if !containsString(fields, w) {
			t.Errorf("problems %v missing %q", fields, w)
		}
	}
}

func TestValidateModel_InvalidPattern(t *testing.T) {
	m := validModel()
	m.Fields[0].Validation.Pattern = "(["

	fields := problemFields(t, ValidateModel(m, nil))
	if !containsString(fields, "fields[0].validation.pattern") {
		t.Errorf("problems %v missing pattern problem", fields)
	}
}

func TestValidateModel_UnknownFieldType(t *testing.T) {
	m := validModel()
	m.Fields[0].FieldType = "color"

	fields := problemFields(t, ValidateModel(m, nil))
	if !containsString(fields, "fields[0].field_type") {
		t.Errorf("problems %v missing field_type", fields)
	}
}

func TestValidateModel_DefaultValueChecked(t *testing.T) {
	m := validModel()
	m.Fields[1].DefaultValue = valuePtr(dynval.Number(42))

	fields := problemFields(t, ValidateModel(m, nil))
	if !containsString(fields, "fields[1].default_value") {
		t.Errorf("problems %v missing default_value", fields)
	}
}

func TestModelValidationError_Message(t *testing.T) {
	err := &ModelValidationError{Problems: []FieldError{
		{Field: "name", Message: "name is required"},
		{Field: "fields[0].api_identifier", Message: "bad"},
	}}
	msg := err.Error()
	if !strings.Contains(msg, "2 problem(s)") {
		t.Errorf("message %q should mention problem count", msg)
	}
	if !strings.Contains(msg, "fields[0].api_identifier: bad") {
		t.Errorf("message %q should list problems", msg)
	}
}

func TestItemFieldType_RejectsNesting(t *testing.T) {
	for _, tag := range []string{"array", "reference", "rich_text", "date", ""} {
		var item ArrayItemField
		body := `{"name":"Nested","api_identifier":"nested","field_type":"` + tag + `"}`
		if err := json.Unmarshal([]byte(body), &item); err == nil {
			t.Errorf("item field type %q: expected decode error", tag)
		}
	}

	var item ArrayItemField
	if err := json.Unmarshal([]byte(`{"name":"Cap","api_identifier":"cap","field_type":"button"}`), &item); err != nil {
		t.Fatalf("button item field: unexpected error %v", err)
	}
	if item.FieldType != ItemFieldButton {
		t.Errorf("FieldType = %q, want %q", item.FieldType, ItemFieldButton)
	}
}

func TestFieldType_UnknownSurvivesDecoding(t *testing.T) {
	var f FieldDefinition
	if err := json.Unmarshal([]byte(`{"name":"X","api_identifier":"xx","field_type":"color"}`), &f); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if f.FieldType != "color" {
		t.Errorf("FieldType = %q, want %q", f.FieldType, "color")
	}
	if f.FieldType.IsKnown() {
		t.Error("color should not be a known field type")
	}
}

func TestCheckImmutableTypes(t *testing.T) {
	before := validModel()
	after := validModel()
	after.Fields[1].FieldType = FieldTypeShortText

	fields := problemFields(t, CheckImmutableTypes(before, after))
	if len(fields) != 1 || fields[0] != "fields[1].field_type" {
		t.Errorf("problems = %v, want [fields[1].field_type]", fields)
	}

	// A brand new field may have any type.
	after = validModel()
	after.Fields = append(after.Fields, FieldDefinition{ID: "f5", Name: "Flag", APIIdentifier: "flag", FieldType: FieldTypeBoolean})
	if err := CheckImmutableTypes(before, after); err != nil {
		t.Errorf("new field: unexpected error %v", err)
	}
}

func TestReorderFields(t *testing.T) {
	fields := validModel().Fields

	got, err := ReorderFields(fields, []string{"f3", "f1", "f4", "f2"})
	if err != nil {
		t.Fatalf("ReorderFields() error: %v", err)
	}
	var ids []string
	for _, f := range got {
		ids = append(ids, f.ID)
	}
	if strings.Join(ids, ",") != "f3,f1,f4,f2" {
		t.Errorf("order = %v, want [f3 f1 f4 f2]", ids)
	}

	tests := []struct {
		name  string
		order []string
	}{
		{"missing id", []string{"f1", "f2", "f3"}},
		{"unknown id", []string{"f1", "f2", "f3", "f9"}},
		{"duplicate id", []string{"f1", "f1", "f2", "f3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReorderFields(fields, tt.order); err == nil {
				t.Error("expected error")
			}
		})
	}
}
