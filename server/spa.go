package server

import (
	"cryptochat/domain/mimetypes"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

//go:embed web
var webFS embed.FS

const indexFile = "index.html"

// spaHandler serves the embedded browser client.
// Files under /assets/ are served as-is, every other path gets index.html and is routed client-side.
type spaHandler struct {
	log    *slog.Logger
	assets fs.FS
}

func newSPAHandler(log *slog.Logger) spaHandler {
	assets, err := fs.Sub(webFS, "web")
	if err != nil {
		// the embed directive guarantees the directory exists
		panic(err)
	}
	return spaHandler{log: log, assets: assets}
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name := indexFile
	if clean := path.Clean(r.URL.Path); strings.HasPrefix(clean, "/assets/") {
		name = strings.TrimPrefix(clean, "/")
	}

	content, err := fs.ReadFile(h.assets, name)
	if err != nil {
		if name != indexFile {
			http.NotFound(w, r)
			return
		}
		h.log.Error("Embedded index missing", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", mimetypes.ForAsset(name, content))
	if name == indexFile {
		w.Header().Set("Cache-Control", "no-cache")
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(content)
	}
}
