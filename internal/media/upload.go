package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// OrphanError reports an object that was stored but whose metadata could not
// be recorded. The object stays in the store.
type OrphanError struct {
	URL string
	Err error
}

func (e *OrphanError) Error() string {
	return fmt.Sprintf("uploaded %s but recording metadata failed: %v", e.URL, e.Err)
}

func (e *OrphanError) Unwrap() error { return e.Err }

// ProgressFunc is called as upload bytes are sent.
type ProgressFunc func(sent, total int64)

// Uploader runs the client side of an upload against the admin API:
// validate, request a grant, transfer the bytes, record the metadata.
type Uploader struct {
	client   *http.Client
	baseURL  string
	token    string
	progress ProgressFunc
}

// NewUploader creates an Uploader for the admin API at baseURL, authorized
// with the bearer token. A nil client uses http.DefaultClient.
func NewUploader(client *http.Client, baseURL, token string) *Uploader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Uploader{client: client, baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

// OnProgress sets the transfer progress callback.
func (u *Uploader) OnProgress(fn ProgressFunc) *Uploader {
	u.progress = fn
	return u
}

// Upload sends one file and returns its media record. Local validation
// failures and grant rejections are *UploadError. A failed metadata write
// after a successful transfer is *OrphanError; no compensating delete is
// attempted.
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, data []byte) (Record, error) {
	if err := ValidateFile(filename, contentType, data); err != nil {
		return Record{}, err
	}
	contentType = normalizeContentType(contentType)

	var grant Grant
	if err := u.api(ctx, http.MethodPost, "/admin/api/uploads/grant",
		GrantRequest{Filename: filename, ContentType: contentType}, &grant); err != nil {
		return Record{}, err
	}

	if err := u.transfer(ctx, grant.PresignedURL, contentType, data); err != nil {
		return Record{}, err
	}

	var rec Record
	err := u.api(ctx, http.MethodPost, "/admin/api/media", RecordInput{
		Filename: filename,
		URL:      grant.PublicURL,
		MimeType: contentType,
		Size:     int64(len(data)),
	}, &rec)
	if err != nil {
		slog.Warn("uploaded object left without metadata", "url", grant.PublicURL, "error", err)
		return Record{}, &OrphanError{URL: grant.PublicURL, Err: err}
	}
	return rec, nil
}

// UploadFile uploads a file and returns its public URL. It lets the form
// media picker upload new files.
func (u *Uploader) UploadFile(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	rec, err := u.Upload(ctx, filename, contentType, data)
	if err != nil {
		return "", err
	}
	return rec.URL, nil
}

func (u *Uploader) transfer(ctx context.Context, target, contentType string, data []byte) error {
	body := &progressReader{r: bytes.NewReader(data), total: int64(len(data)), fn: u.progress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, body)
	if err != nil {
		return fmt.Errorf("building upload request: %w", err)
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("uploading file: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload transfer failed with status %d", resp.StatusCode)
	}
	return nil
}

// apiError is the error envelope returned by the admin API.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// api sends a JSON request and decodes the data envelope of the response
// into out. 400 responses become *UploadError.
func (u *Uploader) api(ctx context.Context, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if resp.StatusCode == http.StatusBadRequest && apiErr.Error.Message != "" {
			return &UploadError{Message: apiErr.Error.Message}
		}
		return fmt.Errorf("%s %s: status %d %s", method, path, resp.StatusCode, apiErr.Error.Code)
	}

	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// progressReader reports cumulative bytes read to fn.
type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.fn != nil {
			p.fn(p.sent, p.total)
		}
	}
	return n, err
}
