package form

import (
	"context"
	"fmt"

	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

// NoEntriesLabel is shown by a reference picker with nothing to choose from.
const NoEntriesLabel = "No entries found"

// ReferenceOption is one selectable entry of a reference picker.
type ReferenceOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ReferenceOptions is the content of a reference picker.
type ReferenceOptions struct {
	ModelID    string            `json:"model_id,omitempty"`
	Options    []ReferenceOption `json:"options"`
	Empty      bool              `json:"empty"`
	EmptyLabel string            `json:"empty_label,omitempty"`
}

// ReferenceSource looks up reference targets. ModelByIdentifier reports
// found=false, not an error, when no model has the identifier.
type ReferenceSource interface {
	ModelByIdentifier(ctx context.Context, apiIdentifier string) (model schema.ContentModel, found bool, err error)
	EntryOptions(ctx context.Context, modelID string) ([]ReferenceOption, error)
}

// LoadReferenceOptions lists the entries a reference field may point to. The
// target model is resolved from reference_to by exact api_identifier match.
// A missing target model renders as an empty picker rather than an error.
func LoadReferenceOptions(ctx context.Context, src ReferenceSource, fd schema.FieldDefinition) (ReferenceOptions, error) {
	if fd.FieldType != schema.FieldTypeReference {
		return ReferenceOptions{}, fmt.Errorf("field %q is not a reference field", fd.APIIdentifier)
	}

	empty := ReferenceOptions{Options: []ReferenceOption{}, Empty: true, EmptyLabel: NoEntriesLabel}
	if fd.ReferenceTo == "" {
		return empty, nil
	}

	model, found, err := src.ModelByIdentifier(ctx, fd.ReferenceTo)
	if err != nil {
		return ReferenceOptions{}, fmt.Errorf("resolving reference target %q: %w", fd.ReferenceTo, err)
	}
	if !found {
		return empty, nil
	}

	opts, err := src.EntryOptions(ctx, model.ID)
	if err != nil {
		return ReferenceOptions{}, fmt.Errorf("listing entries of %q: %w", fd.ReferenceTo, err)
	}
	if len(opts) == 0 {
		empty.ModelID = model.ID
		return empty, nil
	}

	return ReferenceOptions{ModelID: model.ID, Options: opts}, nil
}
