package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GyroZepelix/mithril-admin/internal/contenttypes"
	"github.com/GyroZepelix/mithril-admin/internal/dynval"
	"github.com/GyroZepelix/mithril-admin/internal/form"
	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

const (
	// untitled is the title of an entry with no title and no text to
	// derive one from.
	untitled = "Untitled"

	// referenceOptionLimit caps the entries offered by a reference picker.
	referenceOptionLimit = 100

	invalidStatusMessage = "status must be one of draft, published, archived"
)

// ModelSource looks up the content models entries conform to.
type ModelSource interface {
	Get(ctx context.Context, id string) (schema.ContentModel, error)
	ModelByIdentifier(ctx context.Context, apiIdentifier string) (schema.ContentModel, bool, error)
}

// MediaResolver replaces media record ids in entry fields with public URLs.
// Resolution is best-effort and never fails.
type MediaResolver interface {
	ResolveEntry(ctx context.Context, m schema.ContentModel, fields map[string]dynval.Value) map[string]dynval.Value
}

// Form is an entry form: the controls of every model field bound to the
// entry's values, with validation errors attached inline.
type Form struct {
	Model    schema.ContentModel `json:"model"`
	Entry    *Entry              `json:"entry,omitempty"`
	Controls []form.Control      `json:"controls"`
}

// ValidationResult is the outcome of a dry-run validation.
type ValidationResult struct {
	Valid  bool                `json:"valid"`
	Errors []schema.FieldError `json:"errors"`
}

// Service implements the business logic of content entries.
type Service struct {
	store    Store
	models   ModelSource
	resolver MediaResolver
	policy   PublishedAtPolicy
	now      func() time.Time
}

// NewService creates an entry Service. The resolver is optional; without one
// exports carry the stored media values.
func NewService(store Store, models ModelSource, resolver MediaResolver, policy PublishedAtPolicy) *Service {
	if policy == "" {
		policy = PolicyRetain
	}
	return &Service{
		store:    store,
		models:   models,
		resolver: resolver,
		policy:   policy,
		now:      time.Now,
	}
}

// model loads the model an entry belongs to.
func (s *Service) model(ctx context.Context, id string) (schema.ContentModel, error) {
	if !schema.IsUUID(id) {
		return schema.ContentModel{}, invalid("content_model_id", "content_model_id must be a valid UUID")
	}
	m, err := s.models.Get(ctx, id)
	if errors.Is(err, contenttypes.ErrNotFound) {
		return schema.ContentModel{}, ErrModelNotFound
	}
	if err != nil {
		return schema.ContentModel{}, fmt.Errorf("loading content model: %w", err)
	}
	return m, nil
}

// prepare normalizes data through the model's field types, seeds absent
// fields and validates the result. A field that fails to normalize keeps its
// raw value and reports that failure; every other field is still validated.
// The errors come back in schema order, at most one per field.
func prepare(m schema.ContentModel, data map[string]dynval.Value) (map[string]dynval.Value, []schema.FieldError) {
	normalized, normErrs := form.NormalizeFields(m, data)
	seeded := schema.SeedFields(m, normalized)
	valErrs := schema.ValidateAllFields(m, seeded)
	if len(normErrs) == 0 {
		return seeded, valErrs
	}

	byField := make(map[string]schema.FieldError, len(normErrs)+len(valErrs))
	for _, e := range valErrs {
		byField[e.Field] = e
	}
	for _, e := range normErrs {
		byField[e.Field] = e
	}
	errs := make([]schema.FieldError, 0, len(byField))
	for _, f := range m.Fields {
		if e, ok := byField[f.APIIdentifier]; ok {
			errs = append(errs, e)
		}
	}
	return seeded, errs
}

// Create validates and stores a new entry of in.ContentModelID.
func (s *Service) Create(ctx context.Context, in NewEntry, actor string) (Entry, error) {
	m, err := s.model(ctx, in.ContentModelID)
	if err != nil {
		return Entry{}, err
	}

	status := in.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return Entry{}, invalid("status", invalidStatusMessage)
	}

	fields, errs := prepare(m, in.Fields)
	if len(errs) > 0 {
		return Entry{}, &ValidationError{Fields: errs}
	}

	e := Entry{
		ID:             uuid.NewString(),
		ContentModelID: m.ID,
		Title:          entryTitle(in.Title, m, fields),
		Fields:         fields,
		Status:         status,
		CreatedBy:      actor,
	}
	s.policy.apply(&e, "", in.PublishedAt, s.now())

	created, err := s.store.Create(ctx, e)
	if err != nil {
		return Entry{}, err
	}
	slog.Info("entry created", "id", created.ID, "model", m.APIIdentifier, "status", created.Status)
	return created, nil
}

// Update merges patch into the entry and re-validates the merged fields
// against the current model.
func (s *Service) Update(ctx context.Context, id string, patch EntryPatch) (Entry, error) {
	before, err := s.store.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if patch.ContentModelID != nil && *patch.ContentModelID != before.ContentModelID {
		return Entry{}, invalid("content_model_id", "content_model_id cannot be changed")
	}

	m, err := s.model(ctx, before.ContentModelID)
	if err != nil {
		return Entry{}, err
	}

	after := before
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return Entry{}, invalid("status", invalidStatusMessage)
		}
		after.Status = *patch.Status
	}

	merged := make(map[string]dynval.Value, len(before.Fields)+len(patch.Fields))
	for k, v := range before.Fields {
		merged[k] = v
	}
	for k, v := range patch.Fields {
		merged[k] = v
	}
	fields, errs := prepare(m, merged)
	if len(errs) > 0 {
		return Entry{}, &ValidationError{Fields: errs}
	}
	after.Fields = fields

	switch {
	case patch.Title != nil:
		after.Title = entryTitle(*patch.Title, m, fields)
	case before.Title == entryTitle("", m, before.Fields):
		// A derived title follows the field it was derived from.
		after.Title = entryTitle("", m, fields)
	}
	s.policy.apply(&after, before.Status, patch.PublishedAt, s.now())

	updated, err := s.store.Update(ctx, after)
	if err != nil {
		return Entry{}, err
	}
	if updated.Status != before.Status {
		slog.Info("entry status changed", "id", id, "from", before.Status, "to", updated.Status)
	}
	return updated, nil
}

// Delete removes an entry.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("entry deleted", "id", id)
	return nil
}

// Get returns the entry with the given id.
func (s *Service) Get(ctx context.Context, id string) (Entry, error) {
	return s.store.Get(ctx, id)
}

// List returns a page of entries and the total number of matches.
func (s *Service) List(ctx context.Context, f EntryFilter) ([]Entry, int, error) {
	entries, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, total, nil
}

// Validate checks fields against a model without storing anything.
func (s *Service) Validate(ctx context.Context, modelID string, fields map[string]dynval.Value) (ValidationResult, error) {
	m, err := s.model(ctx, modelID)
	if err != nil {
		return ValidationResult{}, err
	}
	_, errs := prepare(m, fields)
	if errs == nil {
		errs = []schema.FieldError{}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}, nil
}

// Export returns the entry with media record ids replaced by public URLs. An
// entry whose model was deleted is exported unresolved.
func (s *Service) Export(ctx context.Context, id string) (Entry, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if s.resolver == nil {
		return e, nil
	}

	m, err := s.models.Get(ctx, e.ContentModelID)
	if err != nil {
		slog.Warn("exporting entry without its model", "id", id, "model", e.ContentModelID, "error", err)
		return e, nil
	}
	e.Fields = s.resolver.ResolveEntry(ctx, m, e.Fields)
	return e, nil
}

// EntryForm renders the edit form of an existing entry.
func (s *Service) EntryForm(ctx context.Context, id string) (Form, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return Form{}, err
	}
	m, err := s.model(ctx, e.ContentModelID)
	if err != nil {
		return Form{}, err
	}
	data := schema.SeedFields(m, e.Fields)
	return Form{
		Model:    m,
		Entry:    &e,
		Controls: form.RenderModel(m, data, schema.ValidateAllFields(m, data)),
	}, nil
}

// NewEntryForm renders the form of a new entry of the model, seeded with
// default values and without errors.
func (s *Service) NewEntryForm(ctx context.Context, modelID string) (Form, error) {
	m, err := s.model(ctx, modelID)
	if err != nil {
		return Form{}, err
	}
	return Form{
		Model:    m,
		Controls: form.RenderModel(m, schema.SeedFields(m, nil), nil),
	}, nil
}

// ReferenceOptions lists the entries the reference field fieldKey of the
// model may point to.
func (s *Service) ReferenceOptions(ctx context.Context, modelID, fieldKey string) (form.ReferenceOptions, error) {
	m, err := s.model(ctx, modelID)
	if err != nil {
		return form.ReferenceOptions{}, err
	}
	fd, ok := m.FieldByIdentifier(fieldKey)
	if !ok || fd.FieldType != schema.FieldTypeReference {
		return form.ReferenceOptions{}, invalid("field", fmt.Sprintf("%q is not a reference field of %s", fieldKey, m.APIIdentifier))
	}
	return form.LoadReferenceOptions(ctx, s, fd)
}

// ModelByIdentifier resolves a reference target model.
func (s *Service) ModelByIdentifier(ctx context.Context, apiIdentifier string) (schema.ContentModel, bool, error) {
	return s.models.ModelByIdentifier(ctx, apiIdentifier)
}

// EntryOptions lists the newest entries of a model as picker options.
func (s *Service) EntryOptions(ctx context.Context, modelID string) ([]form.ReferenceOption, error) {
	entries, _, err := s.store.List(ctx, EntryFilter{ModelID: modelID, Page: 1, PerPage: referenceOptionLimit})
	if err != nil {
		return nil, err
	}
	opts := make([]form.ReferenceOption, 0, len(entries))
	for _, e := range entries {
		opts = append(opts, form.ReferenceOption{ID: e.ID, Title: e.Title})
	}
	return opts, nil
}

// entryTitle returns the explicit title, or the value of the first non-empty
// short text field, or "Untitled".
func entryTitle(explicit string, m schema.ContentModel, fields map[string]dynval.Value) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	for _, f := range m.Fields {
		if f.FieldType != schema.FieldTypeShortText {
			continue
		}
		if s, ok := fields[f.APIIdentifier].AsString(); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return untitled
}
