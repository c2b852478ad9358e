package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// RecordInput is the body of POST /admin/api/media, sent after the object
// transfer succeeded.
type RecordInput struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Validate checks the metadata of an uploaded object.
func (in RecordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Filename, validation.Required, validation.By(checkFilename)),
		validation.Field(&in.URL, validation.Required, is.URL),
		validation.Field(&in.MimeType, validation.Required, validation.By(checkContentType)),
		validation.Field(&in.Size, validation.Min(int64(1)), validation.Max(int64(MaxFileSize))),
	)
}

// ObjectRemover deletes stored objects by filename. The local store
// implements it; with S3 object cleanup is operational.
type ObjectRemover interface {
	Remove(filename string) error
}

// Service manages the media library.
type Service struct {
	store   Store
	objects ObjectRemover
}

// NewService creates a media Service. objects may be nil.
func NewService(store Store, objects ObjectRemover) *Service {
	return &Service{store: store, objects: objects}
}

// Record stores metadata for an uploaded object. Validation failures are
// returned as validation.Errors.
func (s *Service) Record(ctx context.Context, in RecordInput, actor string) (Record, error) {
	if err := in.Validate(); err != nil {
		return Record{}, err
	}
	rec, err := s.store.Create(ctx, Record{
		ID:         uuid.NewString(),
		Filename:   in.Filename,
		URL:        in.URL,
		MimeType:   normalizeContentType(in.MimeType),
		Size:       in.Size,
		UploadedBy: actor,
	})
	if err != nil {
		return Record{}, err
	}
	slog.Info("media recorded", "id", rec.ID, "filename", rec.Filename, "uploaded_by", actor)
	return rec, nil
}

// List returns a page of the library, newest first.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Record, int, error) {
	recs, total, err := s.store.List(ctx, page, perPage)
	if err != nil {
		return nil, 0, err
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, total, nil
}

// Delete removes a record and, when an object remover is configured, its
// stored object. Object removal failures are logged, not returned.
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.objects != nil {
		if err := s.objects.Remove(rec.Filename); err != nil {
			slog.Warn("failed to remove media object", "id", id, "filename", rec.Filename, "error", err)
		}
	}
	return nil
}

// MediaURL returns the public URL of a library item. It lets the form media
// picker choose from previously uploaded files.
func (s *Service) MediaURL(ctx context.Context, id string) (string, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("media %s: %w", id, err)
		}
		return "", err
	}
	return rec.URL, nil
}

// LookupMany maps each known id among ids to its public URL.
func (s *Service) LookupMany(ctx context.Context, ids []string) (map[string]string, error) {
	recs, err := s.store.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	urls := make(map[string]string, len(recs))
	for _, rec := range recs {
		urls[rec.ID] = rec.URL
	}
	return urls, nil
}
