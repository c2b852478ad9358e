package contenttypes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

// ModelInput is the authored part of a new content model.
type ModelInput struct {
	Name          string                   `json:"name"`
	APIIdentifier string                   `json:"api_identifier"`
	Description   string                   `json:"description"`
	Icon          string                   `json:"icon"`
	Fields        []schema.FieldDefinition `json:"fields"`
}

// ModelPatch holds the members of an update. Nil members are left unchanged;
// Fields replaces the whole field list.
type ModelPatch struct {
	Name          *string                   `json:"name"`
	APIIdentifier *string                   `json:"api_identifier"`
	Description   *string                   `json:"description"`
	Icon          *string                   `json:"icon"`
	Fields        *[]schema.FieldDefinition `json:"fields"`
}

// Service implements content model authoring on top of a Store.
type Service struct {
	store Store
}

// NewService creates a content model Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates and stores a new model. The model and every field get a
// fresh id, and empty api_identifiers are derived from names.
func (s *Service) Create(ctx context.Context, in ModelInput, actor string) (schema.ContentModel, error) {
	m := schema.ContentModel{
		ID:            uuid.NewString(),
		Name:          in.Name,
		APIIdentifier: in.APIIdentifier,
		Description:   in.Description,
		Icon:          in.Icon,
		Fields:        make([]schema.FieldDefinition, len(in.Fields)),
		CreatedBy:     actor,
	}
	for i, f := range in.Fields {
		f.ID = uuid.NewString()
		m.Fields[i] = f
	}
	schema.ApplyDerivedIdentifiers(&m)

	others, err := s.store.List(ctx)
	if err != nil {
		return schema.ContentModel{}, fmt.Errorf("loading existing models: %w", err)
	}
	if err := schema.ValidateModel(m, others); err != nil {
		return schema.ContentModel{}, err
	}

	created, err := s.store.Create(ctx, m)
	if err != nil {
		return schema.ContentModel{}, err
	}
	slog.Info("content model created", "id", created.ID, "api_identifier", created.APIIdentifier, "fields", len(created.Fields))
	return created, nil
}

// Update applies patch to the model with the given id. Existing fields keep
// their ids and types; fields with an unknown id are treated as new.
func (s *Service) Update(ctx context.Context, id string, patch ModelPatch) (schema.ContentModel, error) {
	before, err := s.store.GetByID(ctx, id)
	if err != nil {
		return schema.ContentModel{}, err
	}

	after := before
	if patch.Name != nil {
		after.Name = *patch.Name
	}
	if patch.APIIdentifier != nil {
		after.APIIdentifier = *patch.APIIdentifier
	}
	if patch.Description != nil {
		after.Description = *patch.Description
	}
	if patch.Icon != nil {
		after.Icon = *patch.Icon
	}
	if patch.Fields != nil {
		after.Fields = assignFieldIDs(before.Fields, *patch.Fields)
	} else {
		after.Fields = append([]schema.FieldDefinition(nil), before.Fields...)
	}
	schema.ApplyDerivedIdentifiers(&after)

	if err := schema.CheckImmutableTypes(before, after); err != nil {
		return schema.ContentModel{}, err
	}
	others, err := s.store.List(ctx)
	if err != nil {
		return schema.ContentModel{}, fmt.Errorf("loading existing models: %w", err)
	}
	if err := schema.ValidateModel(after, others); err != nil {
		return schema.ContentModel{}, err
	}

	for _, c := range schema.DiffModel(before, after) {
		if c.Breaking {
			slog.Warn("breaking content model change",
				"model", after.APIIdentifier,
				"change", c.Type,
				"field", c.Field,
				"detail", c.Detail,
			)
		}
	}

	return s.store.Update(ctx, after)
}

// assignFieldIDs keeps the ids of fields that already exist and gives every
// other field a new one.
func assignFieldIDs(existing, fields []schema.FieldDefinition) []schema.FieldDefinition {
	known := make(map[string]bool, len(existing))
	for _, f := range existing {
		known[f.ID] = true
	}
	out := make([]schema.FieldDefinition, len(fields))
	for i, f := range fields {
		if !known[f.ID] {
			f.ID = uuid.NewString()
		}
		out[i] = f
	}
	return out
}

// ReorderFields rearranges the model's fields to follow order, a permutation
// of the field ids.
func (s *Service) ReorderFields(ctx context.Context, id string, order []string) (schema.ContentModel, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return schema.ContentModel{}, err
	}
	fields, err := schema.ReorderFields(m.Fields, order)
	if err != nil {
		return schema.ContentModel{}, &schema.ModelValidationError{Problems: []schema.FieldError{
			{Field: "field_order", Message: err.Error()},
		}}
	}
	m.Fields = fields
	return s.store.Update(ctx, m)
}

// Delete removes a model. Entries of the model are not deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("content model deleted", "id", id)
	return nil
}

// List returns every model, newest first.
func (s *Service) List(ctx context.Context) ([]schema.ContentModel, error) {
	models, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if models == nil {
		models = []schema.ContentModel{}
	}
	return models, nil
}

// Get returns the model with the given id.
func (s *Service) Get(ctx context.Context, id string) (schema.ContentModel, error) {
	return s.store.GetByID(ctx, id)
}

// GetByAPIIdentifier returns the model addressed by apiIdentifier.
func (s *Service) GetByAPIIdentifier(ctx context.Context, apiIdentifier string) (schema.ContentModel, error) {
	return s.store.GetByAPIIdentifier(ctx, apiIdentifier)
}

// ModelByIdentifier is GetByAPIIdentifier with a missing model reported as
// found=false instead of an error.
func (s *Service) ModelByIdentifier(ctx context.Context, apiIdentifier string) (schema.ContentModel, bool, error) {
	m, err := s.store.GetByAPIIdentifier(ctx, apiIdentifier)
	if errors.Is(err, ErrNotFound) {
		return schema.ContentModel{}, false, nil
	}
	if err != nil {
		return schema.ContentModel{}, false, err
	}
	return m, true, nil
}

// Seed creates each model whose api_identifier is not stored yet and returns
// how many were created. Existing models are never modified.
func (s *Service) Seed(ctx context.Context, models []schema.ContentModel) (int, error) {
	created := 0
	for _, m := range models {
		_, err := s.store.GetByAPIIdentifier(ctx, m.APIIdentifier)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return created, fmt.Errorf("checking model %q: %w", m.APIIdentifier, err)
		}

		_, err = s.Create(ctx, ModelInput{
			Name:          m.Name,
			APIIdentifier: m.APIIdentifier,
			Description:   m.Description,
			Icon:          m.Icon,
			Fields:        m.Fields,
		}, "")
		if err != nil {
			return created, fmt.Errorf("seeding model %q: %w", m.APIIdentifier, err)
		}
		created++
	}
	return created, nil
}
