package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flitsinc/go-datachat/internal/logger"
	"github.com/flitsinc/go-datachat/internal/pipeline"
	"github.com/flitsinc/go-datachat/internal/session"
)

// Querier answers one turn.
type Querier interface {
	Handle(ctx context.Context, req pipeline.Request) (pipeline.Response, error)
}

type Server struct {
	Pipeline  Querier
	Sessions  session.Store
	Schema    pipeline.SchemaSource
	StartedAt time.Time
	Info      DiagnosticsInfo
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/query/text", s.handleQueryText)
	mux.HandleFunc("/api/query/ws", s.handleQueryWS)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/sessions/", s.handleSessionItem)
	mux.HandleFunc("/api/schema", s.handleSchema)
	mux.HandleFunc("/api/diagnostics", s.handleDiagnostics)

	return Recover(mux)
}

// Recover turns a handler panic into the generic 500 body. http.ErrAbortHandler
// is re-raised so net/http can abort the response as asked.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.LogPanic(logger.FromContext(r.Context()), rec, "request panicked", "method", r.Method, "path", r.URL.Path)
			writeJSON(w, http.StatusInternalServerError, internalError("unexpected failure"))
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) handleQueryText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req pipeline.Request
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.Pipeline.Handle(r.Context(), req)
	if err != nil {
		status, body := failure(r.Context(), err)
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	items, err := s.Sessions.List(r.Context())
	if err != nil {
		status, body := failure(r.Context(), err)
		writeJSON(w, status, body)
		return
	}
	if items == nil {
		items = []session.Summary{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSessionItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	if id == "" {
		writeError(w, http.StatusNotFound, errNotFound("session"))
		return
	}
	sess, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		status, body := failure(r.Context(), err)
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	summary, err := s.Schema.Get(r.Context())
	if err != nil {
		status, body := failure(r.Context(), err)
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

// failure maps a pipeline or store error to a status and body. Hard failures
// are logged in full but only the failing stage reaches the caller.
func failure(ctx context.Context, err error) (int, map[string]any) {
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput):
		return http.StatusBadRequest, map[string]any{"error": "Text input cannot be empty."}
	case errors.Is(err, session.ErrInvalidHandle):
		return http.StatusBadRequest, map[string]any{"error": "Invalid session handle"}
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, map[string]any{"error": "Session not found"}
	}

	details := "unexpected failure"
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		details = string(stageErr.Stage) + " failed"
	}
	logger.FromContext(ctx).Error("request failed", "error", err)
	return http.StatusInternalServerError, internalError(details)
}

func internalError(details string) map[string]any {
	return map[string]any{"error": "Internal server error", "details": details}
}

func decodeJSON(body io.Reader, dest any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
}

type notFoundError struct {
	msg string
}

func (e notFoundError) Error() string { return e.msg }

func errNotFound(target string) error {
	return notFoundError{msg: target + " not found"}
}
