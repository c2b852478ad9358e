package media

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// memStore is an in-memory Store.
type memStore struct {
	recs      map[string]Record
	seq       int64
	getMany   int
	failWrite error
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[string]Record)}
}

func (m *memStore) Create(_ context.Context, rec Record) (Record, error) {
	if m.failWrite != nil {
		return Record{}, m.failWrite
	}
	m.seq++
	rec.CreatedAt = time.Unix(m.seq, 0).UTC()
	m.recs[rec.ID] = rec
	return rec, nil
}

func (m *memStore) Get(_ context.Context, id string) (Record, error) {
	rec, ok := m.recs[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *memStore) List(_ context.Context, page, perPage int) ([]Record, int, error) {
	all := make([]Record, 0, len(m.recs))
	for _, rec := range m.recs {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := (page - 1) * perPage
	if start >= len(all) {
		return nil, len(all), nil
	}
	end := min(start+perPage, len(all))
	return all[start:end], len(all), nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	if _, ok := m.recs[id]; !ok {
		return ErrNotFound
	}
	delete(m.recs, id)
	return nil
}

func (m *memStore) GetMany(_ context.Context, ids []string) ([]Record, error) {
	m.getMany++
	var out []Record
	for _, id := range ids {
		if rec, ok := m.recs[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeRemover struct {
	removed []string
	err     error
}

func (f *fakeRemover) Remove(filename string) error {
	f.removed = append(f.removed, filename)
	return f.err
}

func validInput() RecordInput {
	return RecordInput{Filename: "a.png", URL: "https://cdn.example/media/a.png", MimeType: "image/png", Size: 1234}
}

func TestService_Record(t *testing.T) {
	s := NewService(newMemStore(), nil)

	rec, err := s.Record(context.Background(), validInput(), "00000000-0000-0000-0000-000000000001")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if rec.ID == "" {
		t.Error("record id not assigned")
	}
	if rec.UploadedBy != "00000000-0000-0000-0000-000000000001" {
		t.Errorf("UploadedBy = %q", rec.UploadedBy)
	}
	if rec.MimeType != "image/png" {
		t.Errorf("MimeType = %q", rec.MimeType)
	}
}

func TestService_Record_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RecordInput)
		field  string
	}{
		{"missing filename", func(in *RecordInput) { in.Filename = "" }, "filename"},
		{"traversal", func(in *RecordInput) { in.Filename = "../a.png" }, "filename"},
		{"missing url", func(in *RecordInput) { in.URL = "" }, "url"},
		{"bad url", func(in *RecordInput) { in.URL = "not a url" }, "url"},
		{"disallowed type", func(in *RecordInput) { in.MimeType = "text/html" }, "mimeType"},
		{"oversized", func(in *RecordInput) { in.Size = MaxFileSize + 1 }, "size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			s := NewService(store, nil)
			in := validInput()
			tt.mutate(&in)

			_, err := s.Record(context.Background(), in, "")
			var errs validation.Errors
			if !errors.As(err, &errs) {
				t.Fatalf("Record() error = %v, want validation.Errors", err)
			}
			if errs[tt.field] == nil {
				t.Errorf("errors = %v, want an error for %q", errs, tt.field)
			}
			if len(store.recs) != 0 {
				t.Error("invalid record was stored")
			}
		})
	}
}

func TestService_List_NewestFirst(t *testing.T) {
	s := NewService(newMemStore(), nil)
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		in := validInput()
		in.Filename = name
		if _, err := s.Record(context.Background(), in, ""); err != nil {
			t.Fatalf("Record(%s) error = %v", name, err)
		}
	}

	recs, total, err := s.List(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(recs) != 2 || recs[0].Filename != "c.png" || recs[1].Filename != "b.png" {
		t.Errorf("page 1 = %+v, want c.png then b.png", recs)
	}

	recs, _, err = s.List(context.Background(), 5, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("past-the-end page = %#v, want empty non-nil slice", recs)
	}
}

func TestService_Delete(t *testing.T) {
	store := newMemStore()
	objects := &fakeRemover{err: errors.New("disk busy")}
	s := NewService(store, objects)

	rec, err := s.Record(context.Background(), validInput(), "")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if err := s.Delete(context.Background(), rec.ID); err != nil {
		t.Fatalf("Delete() error = %v, want object removal failure to be logged only", err)
	}
	if len(objects.removed) != 1 || objects.removed[0] != "a.png" {
		t.Errorf("removed = %v, want [a.png]", objects.removed)
	}
	if err := s.Delete(context.Background(), rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestService_MediaURLAndLookupMany(t *testing.T) {
	store := newMemStore()
	s := NewService(store, nil)
	rec, err := s.Record(context.Background(), validInput(), "")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	u, err := s.MediaURL(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("MediaURL() error = %v", err)
	}
	if u != "https://cdn.example/media/a.png" {
		t.Errorf("MediaURL() = %q", u)
	}
	if _, err := s.MediaURL(context.Background(), goneID); !errors.Is(err, ErrNotFound) {
		t.Errorf("MediaURL(unknown) error = %v, want ErrNotFound", err)
	}

	urls, err := s.LookupMany(context.Background(), []string{rec.ID, goneID})
	if err != nil {
		t.Fatalf("LookupMany() error = %v", err)
	}
	if len(urls) != 1 || urls[rec.ID] != u {
		t.Errorf("LookupMany() = %v", urls)
	}
	if store.getMany != 1 {
		t.Errorf("GetMany calls = %d, want 1", store.getMany)
	}
}
