package form

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

// MediaLibrary resolves previously uploaded media records to their public
// URL.
type MediaLibrary interface {
	MediaURL(ctx context.Context, id string) (string, error)
}

// MediaUploader uploads a new file through the upload collaborator and
// returns its public URL.
type MediaUploader interface {
	UploadFile(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// ErrInvalidMediaURL is returned by FromURL for values that are neither
// absolute URLs nor site-relative paths.
var ErrInvalidMediaURL = errors.New("media url must be absolute or start with /")

// MediaPicker produces media field values from the three supported sources.
// The result always has the normalized MediaValue shape.
type MediaPicker struct {
	library  MediaLibrary
	uploader MediaUploader
}

// NewMediaPicker creates a picker. Either collaborator may be nil, which
// disables that source.
func NewMediaPicker(library MediaLibrary, uploader MediaUploader) *MediaPicker {
	return &MediaPicker{library: library, uploader: uploader}
}

// FromLibrary picks an existing media record by id.
func (p *MediaPicker) FromLibrary(ctx context.Context, id string) (schema.MediaValue, error) {
	if p.library == nil {
		return schema.MediaValue{}, errors.New("media library is not available")
	}
	u, err := p.library.MediaURL(ctx, id)
	if err != nil {
		return schema.MediaValue{}, fmt.Errorf("picking media %q: %w", id, err)
	}
	return schema.MediaValue{URL: u}, nil
}

// FromUpload uploads a new file and picks it.
func (p *MediaPicker) FromUpload(ctx context.Context, filename, contentType string, data []byte) (schema.MediaValue, error) {
	if p.uploader == nil {
		return schema.MediaValue{}, errors.New("uploads are not available")
	}
	u, err := p.uploader.UploadFile(ctx, filename, contentType, data)
	if err != nil {
		return schema.MediaValue{}, err
	}
	return schema.MediaValue{URL: u}, nil
}

// FromURL picks an external absolute URL or a root-relative path.
func (p *MediaPicker) FromURL(raw string) (schema.MediaValue, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "/") {
		return schema.MediaValue{URL: s}, nil
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return schema.MediaValue{}, ErrInvalidMediaURL
	}
	return schema.MediaValue{URL: s}, nil
}
