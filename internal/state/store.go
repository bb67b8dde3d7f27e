package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flitsinc/go-datachat/internal/session"
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store persists sessions as rows of the state database.
type Store struct {
	db *sql.DB
}

var _ session.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Load(ctx context.Context, handle string) (session.Session, error) {
	id, err := session.ParseHandle(handle)
	if err != nil {
		return session.Session{}, err
	}

	var createdAtStr, messagesJSON string
	err = s.db.QueryRowContext(ctx, `SELECT created_at, messages FROM sessions WHERE id = ?`, id).Scan(&createdAtStr, &messagesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, fmt.Errorf("%w: %s", session.ErrSessionNotFound, id)
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("load session %s: %w", id, err)
	}

	createdAt, err := time.Parse(timeLayout, createdAtStr)
	if err != nil {
		return session.Session{}, fmt.Errorf("parse created_at of %s: %w", id, err)
	}
	messages := []session.Message{}
	if err := json.Unmarshal([]byte(messagesJSON), &messages); err != nil {
		return session.Session{}, fmt.Errorf("decode messages of %s: %w", id, err)
	}
	return session.Session{SessionID: id, CreatedAt: createdAt, Messages: messages}, nil
}

func (s *Store) Save(ctx context.Context, sess session.Session) error {
	id, err := session.ParseHandle(sess.SessionID)
	if err != nil {
		return err
	}
	messages := sess.Messages
	if messages == nil {
		messages = []session.Message{}
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode messages of %s: %w", id, err)
	}

	now := time.Now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, updated_at, messages) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at, messages = excluded.messages`,
		id, sess.CreatedAt.UTC().Format(timeLayout), now, string(messagesJSON))
	if err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]session.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at FROM sessions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := []session.Summary{}
	for rows.Next() {
		var item session.Summary
		var createdAtStr string
		if err := rows.Scan(&item.ID, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		createdAt, err := time.Parse(timeLayout, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", item.ID, err)
		}
		item.CreatedAt = createdAt
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}
