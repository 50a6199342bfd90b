package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SPAHandler serves the prebuilt dashboard bundle from a directory and falls
// back to index.html for anything that is not a real file, so client-side
// routes deep-link correctly.
type SPAHandler struct {
	StaticDir string
	Prefix    string
}

func (h SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, h.Prefix)
	rel = strings.TrimPrefix(rel, "/")

	path := filepath.Join(h.StaticDir, filepath.Clean("/"+rel))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		http.ServeFile(w, r, filepath.Join(h.StaticDir, "index.html"))
		return
	}
	http.ServeFile(w, r, path)
}
