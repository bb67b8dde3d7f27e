// Package speech converts reply text to audio. Synthesis failures are soft:
// a Synthesizer returns no bytes instead of an error.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Synthesizer interface {
	// Synthesize returns audio for text, or nil when no audio could be made.
	Synthesize(ctx context.Context, text string) []byte
}

// Disabled never produces audio.
type Disabled struct{}

func (Disabled) Synthesize(context.Context, string) []byte { return nil }

const (
	defaultElevenLabsBaseURL = "https://api.elevenlabs.io"
	maxAudioBytes            = 32 << 20
)

type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string
	ModelID string
	Format  string
	BaseURL string
	Timeout time.Duration
}

type ElevenLabs struct {
	cfg    ElevenLabsConfig
	client *http.Client
}

var _ Synthesizer = (*ElevenLabs)(nil)

func NewElevenLabs(cfg ElevenLabsConfig) *ElevenLabs {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultElevenLabsBaseURL
	}
	if cfg.Format == "" {
		cfg.Format = "mp3_44100_128"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &ElevenLabs{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) []byte {
	audio, err := e.synthesize(ctx, text)
	if err != nil {
		slog.Error("speech synthesis failed", "voice", e.cfg.VoiceID, "error", err)
		return nil
	}
	return audio
}

func (e *ElevenLabs) synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(e.cfg.APIKey) == "" {
		return nil, fmt.Errorf("elevenlabs api key not configured")
	}
	if strings.TrimSpace(e.cfg.VoiceID) == "" {
		return nil, fmt.Errorf("elevenlabs voice id not configured")
	}

	body, err := json.Marshal(ttsRequest{Text: text, ModelID: e.cfg.ModelID})
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		strings.TrimRight(e.cfg.BaseURL, "/"), url.PathEscape(e.cfg.VoiceID), url.QueryEscape(e.cfg.Format))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("xi-api-key", e.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call tts api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("tts api status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("read tts audio: %w", err)
	}
	return audio, nil
}
