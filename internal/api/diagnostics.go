package api

import (
	"net/http"
	"runtime"
	"time"
)

type DiagnosticsInfo struct {
	HTTPAddr       string `json:"http_addr"`
	DataDir        string `json:"data_dir"`
	WebDir         string `json:"web_dir"`
	StoreDriver    string `json:"store_driver"`
	SessionBackend string `json:"session_backend"`
	LLMProvider    string `json:"llm_provider"`
	LLMModel       string `json:"llm_model"`
	TTSConfigured  bool   `json:"tts_configured"`
}

type DiagnosticsResponse struct {
	Time          time.Time       `json:"time"`
	StartedAt     time.Time       `json:"started_at"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	GoVersion     string          `json:"go_version"`
	LLMConfigured bool            `json:"llm_configured"`
	Info          DiagnosticsInfo `json:"info"`
	Sessions      map[string]any  `json:"sessions"`
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	now := time.Now().UTC()
	started := s.StartedAt
	if started.IsZero() {
		started = now
	}
	resp := DiagnosticsResponse{
		Time:          now,
		StartedAt:     started,
		UptimeSeconds: int64(now.Sub(started).Seconds()),
		GoVersion:     runtime.Version(),
		LLMConfigured: s.Info.LLMProvider != "" && s.Info.LLMModel != "" && s.Pipeline != nil,
		Info:          s.Info,
		Sessions:      map[string]any{},
	}
	if s.Sessions != nil {
		if items, err := s.Sessions.List(r.Context()); err == nil {
			resp.Sessions["count"] = len(items)
		} else {
			resp.Sessions["error"] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
