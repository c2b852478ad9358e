package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/GyroZepelix/mithril-admin/internal/metrics"
)

// GrantTTL is how long an upload grant stays valid.
const GrantTTL = 15 * time.Minute

// keyPrefix scopes every object key issued by a grant.
const keyPrefix = "media/"

// GrantRequest is the body of POST /admin/api/uploads/grant.
type GrantRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// Validate checks the request against the filename guard and the MIME
// allow-list.
func (g GrantRequest) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.Filename, validation.Required, validation.By(checkFilename)),
		validation.Field(&g.ContentType, validation.Required, validation.By(checkContentType)),
	)
}

func checkFilename(value any) error {
	s, _ := value.(string)
	if s != "" && !isSecureFilename(s) {
		return errors.New("must be a plain file name without path segments")
	}
	return nil
}

func checkContentType(value any) error {
	s, _ := value.(string)
	if s != "" && !AllowedContentType(s) {
		return fmt.Errorf("type %q is not allowed", s)
	}
	return nil
}

// Grant is a short-lived permission to PUT one object.
type Grant struct {
	PresignedURL string    `json:"presignedUrl"`
	PublicURL    string    `json:"publicUrl"`
	Filename     string    `json:"filename"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Presigner signs a PUT for a single object key.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

// GrantService issues upload grants.
type GrantService struct {
	presigner  Presigner
	publicBase string
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewGrantService creates a GrantService. publicBase is the URL objects are
// served from once uploaded.
func NewGrantService(presigner Presigner, publicBase string, m *metrics.Metrics) *GrantService {
	return &GrantService{
		presigner:  presigner,
		publicBase: strings.TrimRight(publicBase, "/"),
		metrics:    m,
		now:        time.Now,
	}
}

// Issue validates req and returns a grant for the object media/<filename>.
// Validation failures are returned as validation.Errors.
func (s *GrantService) Issue(ctx context.Context, req GrantRequest) (*Grant, error) {
	if err := req.Validate(); err != nil {
		s.metrics.RecordUploadGrant(ctx, "rejected")
		return nil, err
	}

	contentType := normalizeContentType(req.ContentType)
	signed, err := s.presigner.PresignPut(ctx, keyPrefix+req.Filename, contentType, GrantTTL)
	if err != nil {
		s.metrics.RecordUploadGrant(ctx, "failed")
		return nil, fmt.Errorf("presigning upload for %s: %w", req.Filename, err)
	}

	s.metrics.RecordUploadGrant(ctx, "issued")
	slog.Debug("upload grant issued", "filename", req.Filename, "content_type", contentType)

	return &Grant{
		PresignedURL: signed,
		PublicURL:    s.publicBase + "/" + url.PathEscape(req.Filename),
		Filename:     req.Filename,
		ExpiresAt:    s.now().Add(GrantTTL).UTC(),
	}, nil
}
