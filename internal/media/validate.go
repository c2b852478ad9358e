// Package media implements the upload surface of the admin: file validation,
// pre-signed upload grants (S3 or the local signed store), the media library
// records, the client upload flow, and batched resolution of media record ids
// in entries.
package media

import (
	"bytes"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

const (
	// MaxFileSize is the largest accepted upload (10 MiB).
	MaxFileSize = 10 << 20

	// svgSniffLen is how much of an SVG file is searched for the root tag.
	svgSniffLen = 1024
)

// allowedContentTypes is the set of MIME types accepted for upload.
var allowedContentTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"image/webp":      true,
	"image/svg+xml":   true,
	"application/pdf": true,
	"text/csv":        true,
	"text/plain":      true,
}

// imageContentTypes is the subset of allowed types that are raster images.
var imageContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// signatures holds the leading magic bytes of the binary allowed types.
// Text types have none and are trusted by MIME type.
var signatures = map[string][]byte{
	"image/png":       {0x89, 0x50, 0x4E, 0x47},
	"image/jpeg":      {0xFF, 0xD8, 0xFF},
	"image/gif":       {0x47, 0x49, 0x46},
	"image/webp":      {0x52, 0x49, 0x46, 0x46},
	"application/pdf": {0x25, 0x50, 0x44, 0x46},
}

// UploadError represents a user-facing upload validation error.
type UploadError struct {
	Message string
}

func (e *UploadError) Error() string {
	return e.Message
}

// normalizeContentType strips parameters and lowercases a MIME type, e.g.
// "Text/Plain; charset=utf-8" becomes "text/plain".
func normalizeContentType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// AllowedContentType reports whether contentType is in the upload allow-list.
func AllowedContentType(contentType string) bool {
	return allowedContentTypes[normalizeContentType(contentType)]
}

// IsImage reports whether contentType is a raster image type.
func IsImage(contentType string) bool {
	return imageContentTypes[normalizeContentType(contentType)]
}

// isSecureFilename reports whether filename is a single safe path element.
// It rejects empty and dot-prefixed names, traversal sequences, and path
// separators of either kind.
func isSecureFilename(filename string) bool {
	if filename == "" || strings.HasPrefix(filename, ".") {
		return false
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") || filepath.IsAbs(filename) {
		return false
	}
	return true
}

// ValidateFile checks a file before it is uploaded: size, MIME allow-list and
// the leading bytes of the content. SVG is recognized by an <svg tag in its
// first KiB.
func ValidateFile(filename, contentType string, data []byte) error {
	if !isSecureFilename(filename) {
		return &UploadError{Message: fmt.Sprintf("filename %q is not allowed", filename)}
	}
	if len(data) == 0 {
		return &UploadError{Message: "file is empty"}
	}
	if len(data) > MaxFileSize {
		return &UploadError{Message: fmt.Sprintf("file size %d exceeds maximum of %d bytes", len(data), MaxFileSize)}
	}

	ct := normalizeContentType(contentType)
	if !allowedContentTypes[ct] {
		return &UploadError{Message: fmt.Sprintf("MIME type '%s' is not allowed", ct)}
	}

	if ct == "image/svg+xml" {
		head := data[:min(svgSniffLen, len(data))]
		if !bytes.Contains(bytes.ToLower(head), []byte("<svg")) {
			return &UploadError{Message: "file content is not an SVG image"}
		}
		return nil
	}

	if sig, ok := signatures[ct]; ok && !bytes.HasPrefix(data, sig) {
		return &UploadError{Message: fmt.Sprintf("file content does not match MIME type '%s'", ct)}
	}
	return nil
}
