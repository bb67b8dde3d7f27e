package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore keeps one indented JSON document per session in dir.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(handle string) string {
	return filepath.Join(s.dir, handle+".json")
}

func (s *FileStore) Load(ctx context.Context, handle string) (Session, error) {
	h, err := ParseHandle(handle)
	if err != nil {
		return Session{}, err
	}
	data, err := os.ReadFile(s.path(h))
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, h)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session %s: %w", h, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session %s: %w", h, err)
	}
	if sess.Messages == nil {
		sess.Messages = []Message{}
	}
	return sess, nil
}

// Save writes to a temporary file and renames it over the record, so readers
// see either the previous or the new session.
func (s *FileStore) Save(ctx context.Context, sess Session) error {
	h, err := ParseHandle(sess.SessionID)
	if err != nil {
		return err
	}
	if sess.Messages == nil {
		sess.Messages = []Message{}
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", h, err)
	}

	tmp, err := os.CreateTemp(s.dir, h+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write session %s: %w", h, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close session %s: %w", h, err)
	}
	if err := os.Rename(tmpName, s.path(h)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace session %s: %w", h, err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	out := []Summary{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			slog.Warn("skipping unreadable session", "file", name, "error", err)
			continue
		}
		var head Session
		if err := json.Unmarshal(data, &head); err != nil {
			slog.Warn("skipping malformed session", "file", name, "error", err)
			continue
		}
		id := head.SessionID
		if id == "" {
			id = strings.TrimSuffix(name, ".json")
		}
		out = append(out, Summary{ID: id, CreatedAt: head.CreatedAt})
	}
	SortNewestFirst(out)
	return out, nil
}

// SortNewestFirst orders summaries by creation time, newest first.
func SortNewestFirst(items []Summary) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
