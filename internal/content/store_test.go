package content

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GyroZepelix/mithril-admin/internal/contenttypes"
	"github.com/GyroZepelix/mithril-admin/internal/dynval"
	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

// memStore is an in-memory Store.
type memStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	seq     int
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]Entry{}}
}

func copyFields(in map[string]dynval.Value) map[string]dynval.Value {
	out := make(map[string]dynval.Value, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *memStore) Create(_ context.Context, e Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	e.CreatedAt = time.Unix(int64(s.seq), 0)
	e.UpdatedAt = e.CreatedAt
	e.Fields = copyFields(e.Fields)
	s.entries[e.ID] = e
	return e, nil
}

func (s *memStore) Update(_ context.Context, e Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.entries[e.ID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	e.ContentModelID = existing.ContentModelID
	e.CreatedBy = existing.CreatedBy
	e.CreatedAt = existing.CreatedAt
	e.Fields = copyFields(e.Fields)
	s.entries[e.ID] = e
	return e, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	e.Fields = copyFields(e.Fields)
	return e, nil
}

func (s *memStore) List(_ context.Context, f EntryFilter) ([]Entry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []Entry
	for _, e := range s.entries {
		if f.ModelID != "" && e.ContentModelID != f.ModelID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Search)) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	start := (f.Page - 1) * f.PerPage
	if start > total {
		start = total
	}
	end := start + f.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// fakeModels is an in-memory ModelSource.
type fakeModels struct {
	models []schema.ContentModel
}

func (f *fakeModels) Get(_ context.Context, id string) (schema.ContentModel, error) {
	for _, m := range f.models {
		if m.ID == id {
			return m, nil
		}
	}
	return schema.ContentModel{}, contenttypes.ErrNotFound
}

func (f *fakeModels) ModelByIdentifier(_ context.Context, apiIdentifier string) (schema.ContentModel, bool, error) {
	for _, m := range f.models {
		if m.APIIdentifier == apiIdentifier {
			return m, true, nil
		}
	}
	return schema.ContentModel{}, false, nil
}

// fakeResolver replaces every media field value with a fixed URL and records
// the calls.
type fakeResolver struct {
	url   string
	calls int
}

func (r *fakeResolver) ResolveEntry(_ context.Context, m schema.ContentModel, fields map[string]dynval.Value) map[string]dynval.Value {
	r.calls++
	out := copyFields(fields)
	for _, f := range m.Fields {
		if f.FieldType == schema.FieldTypeMedia && schema.IsPresent(f.FieldType, fields[f.APIIdentifier]) {
			out[f.APIIdentifier] = schema.MediaValue{URL: r.url}.Value()
		}
	}
	return out
}

const (
	postModelID   = "11111111-1111-4111-8111-111111111111"
	authorModelID = "22222222-2222-4222-8222-222222222222"
	missingID     = "99999999-9999-4999-8999-999999999999"
)

func postModel() schema.ContentModel {
	return schema.ContentModel{
		ID:            postModelID,
		Name:          "Post",
		APIIdentifier: "post",
		Fields: []schema.FieldDefinition{
			{ID: "f1", Name: "Title", APIIdentifier: "title", FieldType: schema.FieldTypeShortText, Required: true},
			{ID: "f2", Name: "Rating", APIIdentifier: "rating", FieldType: schema.FieldTypeNumber},
			{ID: "f3", Name: "Gallery", APIIdentifier: "gallery", FieldType: schema.FieldTypeArray, Required: true,
				Options: schema.FieldOptions{ItemFields: []schema.ArrayItemField{
					{Name: "Caption", APIIdentifier: "caption", FieldType: schema.ItemFieldShortText},
					{Name: "Image", APIIdentifier: "image", FieldType: schema.ItemFieldMedia},
				}}},
			{ID: "f4", Name: "Author", APIIdentifier: "author", FieldType: schema.FieldTypeReference, ReferenceTo: "author"},
			{ID: "f5", Name: "Related", APIIdentifier: "related", FieldType: schema.FieldTypeReference, ReferenceTo: "product"},
			{ID: "f6", Name: "Hero", APIIdentifier: "hero", FieldType: schema.FieldTypeMedia},
		},
	}
}

func authorModel() schema.ContentModel {
	return schema.ContentModel{
		ID:            authorModelID,
		Name:          "Author",
		APIIdentifier: "author",
		Fields: []schema.FieldDefinition{
			{ID: "a1", Name: "Name", APIIdentifier: "name", FieldType: schema.FieldTypeShortText, Required: true},
		},
	}
}

func oneSlide(caption string) dynval.Value {
	return dynval.Array(dynval.Object(map[string]dynval.Value{"caption": dynval.String(caption)}))
}
