package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactHandler serves generated output files (portal pages, datasets,
// starter code). Artifacts change between generations of the same role,
// so responses are never cached.
type ArtifactHandler struct {
	root string
}

// NewArtifactHandler creates an artifact handler rooted at the output
// directory.
func NewArtifactHandler(root string) *ArtifactHandler {
	return &ArtifactHandler{
		root: root,
	}
}

// Serve handles GET /output/{path}
func (h *ArtifactHandler) Serve(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/output/")
	rel = filepath.Clean("/" + rel)[1:] // strip traversal segments
	if rel == "" || rel == "." {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}

	path := filepath.Join(h.root, rel)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	http.ServeFile(w, r, path)
}
