package server

import (
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path"
	"strings"
)

const (
	cacheNoStore   = "no-cache, no-store, must-revalidate"
	cacheImmutable = "public, max-age=31536000, immutable"
)

// newSPAHandler returns an http.HandlerFunc that serves the admin single-page
// application. In dev mode it reverse-proxies to the Vite dev server at
// localhost:5173. Otherwise it serves files from dist, falling back to
// index.html for client-side routes. A nil dist serves a placeholder page.
//
// Requests to API paths never reach the SPA; they receive a JSON 404 so that
// API misses don't return HTML.
func newSPAHandler(devMode bool, dist fs.FS) http.HandlerFunc {
	if devMode {
		return newDevProxyHandler()
	}
	if dist == nil {
		return placeholderHandler
	}
	return newEmbeddedHandler(dist)
}

func apiNotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "NOT_FOUND", "The requested API endpoint does not exist", nil)
}

// newDevProxyHandler returns a handler that reverse-proxies all requests to
// the Vite dev server for hot-reload during development.
func newDevProxyHandler() http.HandlerFunc {
	target := &url.URL{Scheme: "http", Host: "localhost:5173"}
	proxy := httputil.NewSingleHostReverseProxy(target)

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Warn("SPA dev proxy error (is Vite running?)",
			"error", err,
			"path", r.URL.Path,
		)
		Error(w, http.StatusBadGateway, "DEV_PROXY_ERROR",
			"Admin UI dev server not reachable. Is Vite running on :5173?", nil)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if isAPIPath(r.URL.Path) {
			apiNotFound(w)
			return
		}
		proxy.ServeHTTP(w, r)
	}
}

// newEmbeddedHandler serves the built SPA from dist. Hashed files under
// assets/ are cached forever; everything else, index.html included, is
// revalidated on every load.
func newEmbeddedHandler(dist fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if isAPIPath(r.URL.Path) {
			apiNotFound(w)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")

		name := strings.TrimPrefix(r.URL.Path, "/admin")
		name = strings.TrimPrefix(name, "/")

		// fs.ValidPath rejects ".." elements, so traversal falls through to
		// the index page.
		if name != "" && name != "index.html" && fs.ValidPath(name) {
			if data, err := fs.ReadFile(dist, name); err == nil {
				if strings.HasPrefix(name, "assets/") {
					w.Header().Set("Cache-Control", cacheImmutable)
				} else {
					w.Header().Set("Cache-Control", cacheNoStore)
				}
				if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
					w.Header().Set("Content-Type", ct)
				}
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(data)
				return
			}
		}

		serveIndex(w, dist)
	}
}

func serveIndex(w http.ResponseWriter, dist fs.FS) {
	data, err := fs.ReadFile(dist, "index.html")
	if err != nil {
		slog.Error("admin index.html missing from embedded assets", "error", err)
		placeholderHandler(w, nil)
		return
	}
	w.Header().Set("Cache-Control", cacheNoStore)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// placeholderHandler is served when the binary was built without the admin
// UI.
func placeholderHandler(w http.ResponseWriter, r *http.Request) {
	if r != nil && isAPIPath(r.URL.Path) {
		apiNotFound(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Mithril Admin</title></head>
<body>
<h1>Mithril Admin</h1>
<p>Admin UI not built. Run <code>make build-admin</code> and rebuild with <code>-tags embed_admin</code>.</p>
</body>
</html>`)
}
