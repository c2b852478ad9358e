// Package content manages content entries: instances of a content model whose
// field values are checked against the model's schema. It provides the entry
// service, its PostgreSQL repository, list query parsing, and the HTTP
// handlers of the entry API and entry forms.
package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GyroZepelix/mithril-admin/internal/dynval"
	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

var (
	// ErrNotFound is returned when a content entry does not exist.
	ErrNotFound = errors.New("content entry not found")

	// ErrModelNotFound is returned when the model an entry refers to does
	// not exist.
	ErrModelNotFound = errors.New("content model not found")
)

// Status is the publication state of an entry.
type Status string

// Entry statuses.
const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Entry is one stored instance of a content model. ContentModelID is fixed at
// creation.
type Entry struct {
	ID             string                  `json:"id"`
	ContentModelID string                  `json:"content_model_id"`
	Title          string                  `json:"title"`
	Fields         map[string]dynval.Value `json:"fields"`
	Status         Status                  `json:"status"`
	PublishedAt    *time.Time              `json:"published_at"`
	CreatedBy      string                  `json:"created_by,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// NewEntry is the body of an entry creation. An empty Status means draft.
type NewEntry struct {
	ContentModelID string                  `json:"content_model_id"`
	Title          string                  `json:"title"`
	Fields         map[string]dynval.Value `json:"fields"`
	Status         Status                  `json:"status"`
	PublishedAt    *time.Time              `json:"published_at"`
}

// EntryPatch is the body of an entry update. Keys present in Fields replace
// the stored values; absent keys are kept. ContentModelID is only decoded so
// that an attempt to move an entry between models can be rejected.
type EntryPatch struct {
	ContentModelID *string                 `json:"content_model_id,omitempty"`
	Title          *string                 `json:"title"`
	Fields         map[string]dynval.Value `json:"fields"`
	Status         *Status                 `json:"status"`
	PublishedAt    *time.Time              `json:"published_at"`
}

// ValidationError is returned when entry data fails validation. Fields holds
// every failure in schema order.
type ValidationError struct {
	Fields []schema.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field errors", len(e.Fields))
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []schema.FieldError{{Field: field, Message: message}}}
}

// EntryFilter selects a page of entries. Empty members do not filter.
type EntryFilter struct {
	ModelID string
	Status  Status
	Search  string
	Page    int
	PerPage int
}

// Store persists content entries.
type Store interface {
	Create(ctx context.Context, e Entry) (Entry, error)
	Update(ctx context.Context, e Entry) (Entry, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (Entry, error)

	// List returns one page of matching entries, newest first, and the
	// total number of matches.
	List(ctx context.Context, f EntryFilter) ([]Entry, int, error)
}
