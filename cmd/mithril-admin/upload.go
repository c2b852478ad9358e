package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/GyroZepelix/mithril-admin/internal/form"
	"github.com/GyroZepelix/mithril-admin/internal/media"
)

// runUpload sends one file through the grant, transfer and record steps and
// prints the media value to store in a media field.
func runUpload(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	var (
		baseURL     = fs.String("url", "http://localhost:8080", "Base URL of the admin backend")
		token       = fs.String("token", os.Getenv("MITHRIL_TOKEN"), "Bearer token (defaults to $MITHRIL_TOKEN)")
		contentType = fs.String("type", "", "MIME type (defaults to the one implied by the file extension)")
		name        = fs.String("name", "", "Object filename (defaults to the base name of the file)")
		timeout     = fs.Duration("timeout", 2*time.Minute, "Overall timeout")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: mithril-admin upload [flags] <file>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("exactly one file is required")
	}

	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	filename := *name
	if filename == "" {
		filename = filepath.Base(path)
	}
	ct := *contentType
	if ct == "" {
		ct = mime.TypeByExtension(filepath.Ext(filename))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	uploader := media.NewUploader(&http.Client{Timeout: *timeout}, *baseURL, *token).
		OnProgress(func(sent, total int64) {
			fmt.Fprintf(os.Stderr, "\r%s: %d/%d bytes", filename, sent, total)
		})

	value, err := form.NewMediaPicker(nil, uploader).FromUpload(ctx, filename, ct, data)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		var orphan *media.OrphanError
		if errors.As(err, &orphan) {
			return fmt.Errorf("object stored at %s but not recorded in the library: %w", orphan.URL, orphan.Err)
		}
		return err
	}

	out, err := value.Value().MarshalJSON()
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
