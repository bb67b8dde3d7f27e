package ai

import (
	"context"
	"errors"
)

var ErrEmptyPrompt = errors.New("ai: no messages to send")

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }

type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature *float64
}

type CompletionResponse struct {
	Content    string
	Model      string
	StopReason string
	Usage      Usage
}

type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Provider performs one completion. Implementations return transport, auth
// and rate-limit failures as errors and never retry.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}
