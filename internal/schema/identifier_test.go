package schema

import (
	"strings"
	"testing"
)

func TestValidateAPIIdentifier(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"blog_post", true},
		{"a1", true},
		{"hero_image_2", true},
		{"1abc", false},
		{"Has-Caps", false},
		{"a", false},
		{"", false},
		{"_lead", false},
		{"with space", false},
		{strings.Repeat("a", 50), true},
		{strings.Repeat("a", 51), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := ValidateAPIIdentifier(tt.in)
			if tt.valid && err != nil {
				t.Errorf("ValidateAPIIdentifier(%q) unexpected error: %v", tt.in, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("ValidateAPIIdentifier(%q) = nil, want error", tt.in)
			}
		})
	}
}

func TestDeriveAPIIdentifier(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Title", "title"},
		{"Blog Post", "blog_post"},
		{"  Hero   Image  ", "hero_image"},
		{"2nd Place", "nd_place"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveAPIIdentifier(tt.name); got != tt.want {
				t.Errorf("DeriveAPIIdentifier(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestDeriveAPIIdentifier_AlwaysValidForWordNames(t *testing.T) {
	names := []string{"Call To Action", "Author's Bio", "FAQ Items", strings.Repeat("Long Name ", 10)}
	for _, name := range names {
		got := DeriveAPIIdentifier(name)
		if err := ValidateAPIIdentifier(got); err != nil {
			t.Errorf("DeriveAPIIdentifier(%q) = %q, which is invalid: %v", name, got, err)
		}
	}
}

func TestApplyDerivedIdentifiers_KeepsUserOwned(t *testing.T) {
	m := ContentModel{
		Name: "Landing Page",
		Fields: []FieldDefinition{
			{Name: "Headline"},
			{Name: "Sub Headline", APIIdentifier: "kicker"},
			{Name: "Features", FieldType: FieldTypeArray, Options: FieldOptions{
				ItemFields: []ArrayItemField{{Name: "Feature Title", FieldType: ItemFieldShortText}},
			}},
		},
	}

	ApplyDerivedIdentifiers(&m)

	if m.APIIdentifier != "landing_page" {
		t.Errorf("model identifier = %q, want %q", m.APIIdentifier, "landing_page")
	}
	if m.Fields[0].APIIdentifier != "headline" {
		t.Errorf("fields[0] = %q, want %q", m.Fields[0].APIIdentifier, "headline")
	}
	if m.Fields[1].APIIdentifier != "kicker" {
		t.Errorf("fields[1] = %q, want user-owned %q", m.Fields[1].APIIdentifier, "kicker")
	}
	if got := m.Fields[2].Options.ItemFields[0].APIIdentifier; got != "feature_title" {
		t.Errorf("item field = %q, want %q", got, "feature_title")
	}
}
