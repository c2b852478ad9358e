package dynval

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestZeroValueIsNull(t *testing.T) {
	var v Value
	if !v.IsNull() {
		t.Fatalf("zero Value kind = %s, want null", v.Kind())
	}
	if got := v.Get("anything"); !got.IsNull() {
		t.Errorf("Get on null = %s, want null", got.Kind())
	}
}

func TestUnmarshalJSON_Kinds(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Kind
	}{
		{"null", `null`, KindNull},
		{"bool", `false`, KindBool},
		{"int", `0`, KindNumber},
		{"float", `3.5`, KindNumber},
		{"string", `""`, KindString},
		{"array", `[1,"a"]`, KindArray},
		{"object", `{"url":"/a.png"}`, KindObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.in, err)
			}
			if v.Kind() != tt.want {
				t.Errorf("Kind = %s, want %s", v.Kind(), tt.want)
			}
		})
	}
}

func TestMarshalJSON_SortedObjectKeys(t *testing.T) {
	v := Object(map[string]Value{
		"url":   String("https://x/y.png"),
		"alt":   Null(),
		"items": Array(Number(1), Bool(true)),
	})

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"alt":null,"items":[1,true],"url":"https://x/y.png"}`
	if string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}
}

func TestFieldMapRoundTrip(t *testing.T) {
	in := `{"title":"Hello","count":2,"tags":[{"label":"a"}],"hidden":false}`

	fields, err := DecodeFields([]byte(in))
	if err != nil {
		t.Fatalf("DecodeFields: %v", err)
	}
	b, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	again, err := DecodeFields(b)
	if err != nil {
		t.Fatalf("DecodeFields (second pass): %v", err)
	}
	if !Equal(Object(fields), Object(again)) {
		t.Errorf("round trip changed value: %s", b)
	}
}

func TestDecodeFields_RejectsNonObject(t *testing.T) {
	if _, err := DecodeFields([]byte(`[1,2]`)); err == nil {
		t.Fatal("expected error for array document")
	}
}

func TestFromAny_Unsupported(t *testing.T) {
	if _, err := FromAny(struct{}{}); err == nil {
		t.Fatal("expected error for struct input")
	}
}

func TestWith_DoesNotMutateOriginal(t *testing.T) {
	orig := Object(map[string]Value{"url": String("a")})
	next := orig.With("url", String("b"))

	if orig.GetString("url") != "a" {
		t.Errorf("original mutated: url = %q", orig.GetString("url"))
	}
	if next.GetString("url") != "b" {
		t.Errorf("With url = %q, want %q", next.GetString("url"), "b")
	}
}

func TestUnmarshalYAML(t *testing.T) {
	var holder struct {
		Default Value `yaml:"default"`
	}
	src := "default:\n  text: Read more\n  target: _blank\n"
	if err := yaml.Unmarshal([]byte(src), &holder); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if got := holder.Default.GetString("text"); got != "Read more" {
		t.Errorf("text = %q, want %q", got, "Read more")
	}
}
