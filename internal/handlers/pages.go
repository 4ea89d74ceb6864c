package handlers

import (
	"net/http"
	"os"
	"path/filepath"
)

// PagesHandler serves the static marketing site and the tutor avatar.
type PagesHandler struct {
	publicDir string
	files     http.Handler
}

func NewPagesHandler(publicDir string) *PagesHandler {
	return &PagesHandler{publicDir: publicDir, files: http.FileServer(http.Dir(publicDir))}
}

// Avatar serves the tutor image from assets/botonic.png, falling back to dr-botonic.png.
func (h *PagesHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{filepath.Join("assets", "botonic.png"), "dr-botonic.png"} {
		path := filepath.Join(h.publicDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Tutor avatar not found in public assets", r))
}

func (h *PagesHandler) Static(w http.ResponseWriter, r *http.Request) {
	h.files.ServeHTTP(w, r)
}
