package media

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	_ "golang.org/x/image/webp"

	"github.com/GyroZepelix/mithril-admin/internal/server"
)

const (
	originalDir = "original"
	smallDir    = "sm"

	// smallWidth is the target width of the sm thumbnail variant.
	smallWidth = 480
)

// ErrFileExists is returned when attempting to save a file that already exists.
var ErrFileExists = errors.New("file already exists")

// LocalStore is a filesystem object store that accepts uploads through
// HMAC-signed PUT URLs, standing in for S3 when no bucket is configured.
// Raster images also get a small thumbnail variant.
type LocalStore struct {
	root      string
	secret    []byte
	uploadURL string
	now       func() time.Time
}

// NewLocalStore creates a LocalStore rooted at root and ensures the variant
// directories exist. origin is the scheme and host the signed URLs point at.
func NewLocalStore(root string, secret []byte, origin string) (*LocalStore, error) {
	if len(secret) == 0 {
		return nil, errors.New("local store requires a signing secret")
	}
	for _, dir := range []string{originalDir, smallDir} {
		path := filepath.Join(root, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("creating media directory %s: %w", path, err)
		}
	}
	return &LocalStore{
		root:      root,
		secret:    secret,
		uploadURL: strings.TrimRight(origin, "/") + "/uploads/media/",
		now:       time.Now,
	}, nil
}

// PresignPut implements Presigner. Only keys under media/ are signed.
func (s *LocalStore) PresignPut(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	filename, ok := strings.CutPrefix(key, keyPrefix)
	if !ok || !isSecureFilename(filename) {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	expires := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("content_type", contentType)
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", s.sign(filename, contentType, expires))

	return s.uploadURL + url.PathEscape(filename) + "?" + q.Encode(), nil
}

func (s *LocalStore) sign(filename, contentType string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%s\n%d", filename, contentType, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// verify checks the signature and expiry of a signed upload request and
// returns the content type it was issued for.
func (s *LocalStore) verify(filename string, q url.Values) (string, error) {
	contentType := q.Get("content_type")
	expires, err := strconv.ParseInt(q.Get("expires"), 10, 64)
	if err != nil {
		return "", errors.New("missing expiry")
	}
	got, err := hex.DecodeString(q.Get("signature"))
	if err != nil {
		return "", errors.New("malformed signature")
	}
	want, _ := hex.DecodeString(s.sign(filename, contentType, expires))
	if !hmac.Equal(got, want) {
		return "", errors.New("signature mismatch")
	}
	if s.now().Unix() > expires {
		return "", errors.New("grant expired")
	}
	return contentType, nil
}

// Put handles PUT /uploads/media/{filename}.
func (s *LocalStore) Put(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !isSecureFilename(filename) {
		server.Error(w, http.StatusBadRequest, "INVALID_FILENAME", "invalid filename", nil)
		return
	}

	contentType, err := s.verify(filename, r.URL.Query())
	if err != nil {
		server.Error(w, http.StatusForbidden, "INVALID_GRANT", "upload grant rejected: "+err.Error(), nil)
		return
	}
	if normalizeContentType(r.Header.Get("Content-Type")) != contentType {
		server.Error(w, http.StatusBadRequest, "CONTENT_TYPE_MISMATCH",
			"Content-Type does not match the upload grant", nil)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxFileSize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			server.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
				fmt.Sprintf("file exceeds maximum of %d bytes", MaxFileSize), nil)
			return
		}
		server.Error(w, http.StatusBadRequest, "INVALID_BODY", "failed to read upload body", nil)
		return
	}

	if err := ValidateFile(filename, contentType, data); err != nil {
		server.Error(w, http.StatusBadRequest, "INVALID_FILE", err.Error(), nil)
		return
	}

	if err := s.save(originalDir, filename, data); err != nil {
		if errors.Is(err, ErrFileExists) {
			server.Error(w, http.StatusConflict, "FILE_EXISTS", "an object with this name already exists", nil)
			return
		}
		slog.Error("saving uploaded object", "filename", filename, "error", err)
		server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil)
		return
	}

	if IsImage(contentType) {
		s.writeThumbnail(filename, contentType, data)
	}

	slog.Info("object stored", "filename", filename, "content_type", contentType, "size", len(data))
	w.WriteHeader(http.StatusOK)
}

// save writes data to {root}/{dir}/{filename}, refusing to overwrite.
func (s *LocalStore) save(dir, filename string, data []byte) error {
	path := filepath.Join(s.root, dir, filename)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrFileExists, path)
		}
		return fmt.Errorf("creating file %s: %w", path, err)
	}

	_, writeErr := f.Write(data)
	closeErr := f.Close()

	if writeErr != nil {
		_ = os.Remove(path)
		return fmt.Errorf("writing file %s: %w", path, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing file %s: %w", path, closeErr)
	}
	return nil
}

// writeThumbnail stores a smallWidth-wide copy of a raster image. Images
// already narrower than that get none. Failures are logged and skipped.
func (s *LocalStore) writeThumbnail(filename, contentType string, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic during thumbnail generation", "filename", filename, "panic", fmt.Sprintf("%v", r))
		}
	}()

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Warn("failed to decode image for thumbnail", "filename", filename, "error", err)
		return
	}
	if img.Bounds().Dx() <= smallWidth {
		return
	}

	format, ext := thumbnailFormat(contentType)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Resize(img, smallWidth, 0, imaging.Lanczos), format); err != nil {
		slog.Warn("failed to encode thumbnail", "filename", filename, "error", err)
		return
	}
	if err := s.save(smallDir, replaceExt(filename, ext), buf.Bytes()); err != nil {
		slog.Warn("failed to save thumbnail", "filename", filename, "error", err)
	}
}

// thumbnailFormat returns the encoding and extension for a thumbnail. WebP
// cannot be encoded by imaging, so PNG keeps its transparency.
func thumbnailFormat(contentType string) (imaging.Format, string) {
	switch normalizeContentType(contentType) {
	case "image/png", "image/webp":
		return imaging.PNG, ".png"
	case "image/gif":
		return imaging.GIF, ".gif"
	default:
		return imaging.JPEG, ".jpg"
	}
}

func replaceExt(filename, ext string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ext
}

// Serve handles GET /media/{filename}. ?v=sm serves the thumbnail when one
// exists and falls back to the original otherwise.
func (s *LocalStore) Serve(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !isSecureFilename(filename) {
		server.Error(w, http.StatusBadRequest, "INVALID_FILENAME", "invalid filename", nil)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	path := filepath.Join(s.root, originalDir, filename)

	if r.URL.Query().Get("v") == smallDir && IsImage(contentType) {
		_, ext := thumbnailFormat(contentType)
		thumb := filepath.Join(s.root, smallDir, replaceExt(filename, ext))
		if _, err := os.Stat(thumb); err == nil {
			path = thumb
			contentType = mime.TypeByExtension(ext)
		}
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			server.Error(w, http.StatusNotFound, "NOT_FOUND", "media file not found", nil)
			return
		}
		slog.Error("media file stat failed", "error", err)
		server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")

	// Anything that is not a raster image is downloaded, never rendered inline.
	if !IsImage(contentType) {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sanitizeFilename(filename)))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")

	http.ServeFile(w, r, path)
}

// Remove deletes an object and its thumbnail. Missing files are ignored.
func (s *LocalStore) Remove(filename string) error {
	if !isSecureFilename(filename) {
		return fmt.Errorf("invalid filename %q", filename)
	}
	paths := []string{filepath.Join(s.root, originalDir, filename)}
	if ct := mime.TypeByExtension(filepath.Ext(filename)); IsImage(ct) {
		_, ext := thumbnailFormat(ct)
		paths = append(paths, filepath.Join(s.root, smallDir, replaceExt(filename, ext)))
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting file %s: %w", p, err)
		}
	}
	return nil
}

// sanitizeFilename removes characters that are problematic in
// Content-Disposition headers (double quotes and backslashes).
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `"`, "")
	name = strings.ReplaceAll(name, `\`, "")
	if name == "" {
		name = "download"
	}
	return name
}
