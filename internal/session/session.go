// Package session records conversations turn by turn. A Session is built in
// memory by the caller and handed to a Store, which persists it as one record
// keyed by its handle.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/flitsinc/go-datachat/internal/idgen"
	"github.com/oklog/ulid/v2"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidHandle   = errors.New("invalid session handle")
)

const handlePrefix = "session_"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Session struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// Summary is one entry of a session listing.
type Summary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	Load(ctx context.Context, handle string) (Session, error)
	// Save overwrites the whole record for s.SessionID.
	Save(ctx context.Context, s Session) error
	// List returns every session, newest first.
	List(ctx context.Context) ([]Summary, error)
}

// New starts an empty session whose handle encodes now.
func New(now time.Time) Session {
	now = now.UTC()
	return Session{
		SessionID: NewHandle(now),
		CreatedAt: now,
		Messages:  []Message{},
	}
}

func NewHandle(now time.Time) string {
	return handlePrefix + idgen.NewULID(now).String()
}

// ParseHandle normalises a caller supplied handle. A trailing ".json" is
// accepted so file names returned by older clients keep working. Anything that
// is not session_<ULID> is rejected, which keeps handles inside the store.
func ParseHandle(handle string) (string, error) {
	h := strings.TrimSpace(handle)
	h = strings.TrimSuffix(h, ".json")
	if h == "" || h != filepath.Base(h) || !strings.HasPrefix(h, handlePrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	if _, err := ulid.ParseStrict(strings.TrimPrefix(h, handlePrefix)); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	return h, nil
}

// AppendExchange adds the user turn followed by the assistant turn.
func (s *Session) AppendExchange(user, assistant string) {
	s.Messages = append(s.Messages,
		Message{Role: RoleUser, Content: user},
		Message{Role: RoleAssistant, Content: assistant},
	)
}

// Clone returns a copy whose message slice does not alias s.
func (s Session) Clone() Session {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}
