// Package contenttypes manages content models: the authored schemas that
// content entries conform to. It provides the model service, its PostgreSQL
// repository, and the HTTP handlers of the model authoring API.
package contenttypes

import (
	"context"
	"errors"

	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

var (
	// ErrNotFound is returned when a content model does not exist.
	ErrNotFound = errors.New("content model not found")

	// ErrConflict is returned when a write collides with an existing model
	// api_identifier.
	ErrConflict = errors.New("content model api_identifier already in use")
)

// Store persists content models. Lookups by api_identifier are exact and
// case-sensitive.
type Store interface {
	Create(ctx context.Context, m schema.ContentModel) (schema.ContentModel, error)
	Update(ctx context.Context, m schema.ContentModel) (schema.ContentModel, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]schema.ContentModel, error)
	GetByID(ctx context.Context, id string) (schema.ContentModel, error)
	GetByAPIIdentifier(ctx context.Context, apiIdentifier string) (schema.ContentModel, error)
}
