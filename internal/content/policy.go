package content

import (
	"fmt"
	"time"
)

// PublishedAtPolicy decides how published_at follows status changes.
type PublishedAtPolicy string

const (
	// PolicyRetain sets published_at on every transition into published and
	// keeps it when the entry leaves published.
	PolicyRetain PublishedAtPolicy = "retain"

	// PolicyClearOnDraft is PolicyRetain, except that a draft entry never
	// carries a published_at.
	PolicyClearOnDraft PublishedAtPolicy = "clear_on_draft"

	// PolicyManual stores a caller-supplied published_at as given, whatever
	// the status. Without one it behaves like PolicyRetain.
	PolicyManual PublishedAtPolicy = "manual"
)

// ParsePublishedAtPolicy parses a policy name. The empty string selects
// PolicyRetain.
func ParsePublishedAtPolicy(s string) (PublishedAtPolicy, error) {
	switch p := PublishedAtPolicy(s); p {
	case "":
		return PolicyRetain, nil
	case PolicyRetain, PolicyClearOnDraft, PolicyManual:
		return p, nil
	}
	return "", fmt.Errorf("unknown published_at policy %q (want retain, clear_on_draft or manual)", s)
}

// apply updates e.PublishedAt for a write that moves the entry from status
// prev to e.Status. prev is empty for a new entry.
func (p PublishedAtPolicy) apply(e *Entry, prev Status, supplied *time.Time, now time.Time) {
	if p == PolicyManual && supplied != nil {
		t := supplied.UTC()
		e.PublishedAt = &t
		return
	}

	if e.Status == StatusPublished && prev != StatusPublished {
		t := now.UTC()
		e.PublishedAt = &t
	}
	if p == PolicyClearOnDraft && e.Status == StatusDraft {
		e.PublishedAt = nil
	}
}
