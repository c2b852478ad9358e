package schema

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/GyroZepelix/mithril-admin/internal/dynval"
)

// uuidPattern matches the textual UUID form, case-insensitively.
var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsUUID reports whether s has the textual UUID form.
func IsUUID(s string) bool {
	return uuidPattern.MatchString(s)
}

// dateLayouts are tried in order when parsing date field values.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses an ISO-8601 style date or date-time string.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// IsPresent reports whether v counts as a provided value for a field of type
// t. Buttons need text or a URL, arrays need one item, media needs a URL.
// For every other type only null and the empty string are absent, so 0 and
// false are present.
func IsPresent(t FieldType, v dynval.Value) bool {
	switch t {
	case FieldTypeButton:
		if _, ok := v.AsObject(); !ok {
			return false
		}
		return v.GetString("text") != "" || v.GetString("url") != ""
	case FieldTypeArray:
		items, ok := v.AsArray()
		return ok && len(items) > 0
	case FieldTypeMedia:
		return mediaURL(v) != ""
	default:
		if v.IsNull() {
			return false
		}
		if s, ok := v.AsString(); ok && s == "" {
			return false
		}
		return true
	}
}

// ValidateField checks a single candidate value against its definition and
// returns nil when it is valid. Type-specific rules only run on present
// values; an optional field with no value is always valid.
func ValidateField(f FieldDefinition, v dynval.Value) *FieldError {
	fail := func(format string, args ...any) *FieldError {
		return &FieldError{Field: f.APIIdentifier, Message: f.Name + " " + fmt.Sprintf(format, args...)}
	}

	if !IsPresent(f.FieldType, v) {
		if !f.Required {
			return nil
		}
		if f.FieldType == FieldTypeArray {
			return fail("must have at least one item")
		}
		return fail("is required")
	}

	rules := f.Validation
	if rules == nil {
		rules = &Validation{}
	}

	switch f.FieldType {
	case FieldTypeShortText, FieldTypeLongText, FieldTypeRichText:
		s, ok := v.AsString()
		if !ok {
			return nil
		}
		n := utf8.RuneCountInString(s)
		if rules.MinLength != nil && n < *rules.MinLength {
			return fail("must be at least %d characters", *rules.MinLength)
		}
		if rules.MaxLength != nil && n > *rules.MaxLength {
			return fail("must be at most %d characters", *rules.MaxLength)
		}
		if rules.Pattern != "" {
			re, err := compileWholePattern(rules.Pattern)
			if err == nil && !re.MatchString(s) {
				return fail("has an invalid format")
			}
		}

	case FieldTypeNumber:
		n, ok := v.AsNumber()
		if !ok {
			return nil
		}
		if rules.MinValue != nil && n < *rules.MinValue {
			return fail("must be at least %s", formatNumber(*rules.MinValue))
		}
		if rules.MaxValue != nil && n > *rules.MaxValue {
			return fail("must be at most %s", formatNumber(*rules.MaxValue))
		}

	case FieldTypeBoolean:
		// Always valid.

	case FieldTypeDate:
		s, ok := v.AsString()
		if !ok {
			return fail("must be a valid date")
		}
		if _, err := ParseDate(s); err != nil {
			return fail("must be a valid date")
		}

	case FieldTypeMedia:
		// A bare media record id is a legacy reference the resolver still
		// understands.
		if _, isRecord := MediaRecordID(v); !isRecord && !isMediaURL(mediaURL(v)) {
			return fail("must be a valid URL or a path starting with /")
		}

	case FieldTypeReference:
		s, ok := v.AsString()
		if !ok || !IsUUID(s) {
			return fail("must reference a valid entry")
		}

	case FieldTypeButton:
		if f.Required {
			b := NormalizeButtonValue(v)
			if b.Text == "" || b.URL == "" {
				return fail("requires both button text and URL")
			}
		}

	case FieldTypeArray:
		// Presence already guarantees at least one item. Item contents are
		// checked by the per-item controls, not recursively here.

	default:
		return fail("has unsupported field type %q", string(f.FieldType))
	}

	return nil
}

// ValidateAllFields validates every field of the model against data in schema
// order and collects one error per failing field. Fields are independent of
// each other; a failure never stops later fields from being checked.
func ValidateAllFields(m ContentModel, data map[string]dynval.Value) []FieldError {
	var errs []FieldError
	for _, f := range m.Fields {
		if err := ValidateField(f, data[f.APIIdentifier]); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}

// isMediaURL accepts absolute URLs and site-relative paths.
func isMediaURL(s string) bool {
	if strings.HasPrefix(s, "/") {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}

// compileWholePattern compiles an authored pattern so that it must match the
// entire value.
func compileWholePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + pattern + `)$`)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
