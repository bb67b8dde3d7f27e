package web

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Server serves the front-end bundle from Dir. Unknown paths without a file
// extension fall back to index.html so client-side routes load.
type Server struct {
	Dir string
}

func (s *Server) Handler() http.Handler {
	fs := http.FileServer(http.Dir(s.Dir))
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		w := &noStoreWriter{ResponseWriter: rw}

		clean := path.Clean("/" + r.URL.Path)
		if path.Ext(clean) == "" && !s.exists(clean) {
			http.ServeFile(w, r, filepath.Join(s.Dir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	})
}

func (s *Server) exists(urlPath string) bool {
	_, err := os.Stat(filepath.Join(s.Dir, filepath.FromSlash(strings.TrimPrefix(urlPath, "/"))))
	return err == nil
}

// noStoreWriter applies the no-cache headers when the status is written.
// http.FileServer clears Cache-Control on error responses, so setting them
// before serving is not enough.
type noStoreWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *noStoreWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		h := w.Header()
		h.Set("Cache-Control", "no-store")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *noStoreWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(p)
}

func (w *noStoreWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
