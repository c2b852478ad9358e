package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-slug"
)

// identifierPattern matches valid api identifiers: a lowercase letter
// followed by lowercase letters, digits, or underscores.
var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

const (
	minIdentifierLength = 2
	maxIdentifierLength = 50
)

// ValidateAPIIdentifier checks the format and length of a model or field
// api_identifier.
func ValidateAPIIdentifier(s string) error {
	if s == "" {
		return fmt.Errorf("api identifier is required")
	}
	if !identifierPattern.MatchString(s) {
		return fmt.Errorf("api identifier %q must start with a lowercase letter and contain only lowercase letters, digits, and underscores", s)
	}
	if len(s) < minIdentifierLength || len(s) > maxIdentifierLength {
		return fmt.Errorf("api identifier %q must be between %d and %d characters", s, minIdentifierLength, maxIdentifierLength)
	}
	return nil
}

// DeriveAPIIdentifier turns a human label into an api identifier candidate,
// e.g. "Blog Post" -> "blog_post". The result may still fail validation
// (for example a single-letter name), in which case the author has to pick
// one by hand.
func DeriveAPIIdentifier(name string) string {
	normalized, err := slug.Normalize(strings.TrimSpace(name))
	if err != nil || normalized == "" {
		normalized = strings.ToLower(strings.TrimSpace(name))
	}
	normalized = strings.ReplaceAll(strings.ToLower(normalized), "-", "_")

	var b strings.Builder
	lastUnderscore := false
	for _, r := range normalized {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			lastUnderscore = false
		case r >= '0' && r <= '9':
			if b.Len() == 0 {
				continue
			}
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if b.Len() == 0 || lastUnderscore {
				continue
			}
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	out := b.String()
	if len(out) > maxIdentifierLength {
		out = out[:maxIdentifierLength]
	}
	return strings.TrimRight(out, "_")
}

// ApplyDerivedIdentifiers fills empty api identifiers of the model, its fields
// and their array item fields from their names. Identifiers that are already
// set are user-owned and never rewritten.
func ApplyDerivedIdentifiers(m *ContentModel) {
	if m.APIIdentifier == "" {
		m.APIIdentifier = DeriveAPIIdentifier(m.Name)
	}
	for i := range m.Fields {
		f := &m.Fields[i]
		if f.APIIdentifier == "" {
			f.APIIdentifier = DeriveAPIIdentifier(f.Name)
		}
		for j := range f.Options.ItemFields {
			item := &f.Options.ItemFields[j]
			if item.APIIdentifier == "" {
				item.APIIdentifier = DeriveAPIIdentifier(item.Name)
			}
		}
	}
}
