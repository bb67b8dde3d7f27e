package tabular

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// SchemaCache holds the schema summary of a Store. The summary is computed on
// first use and recomputed after Invalidate.
type SchemaCache struct {
	store Store

	mu      sync.Mutex
	summary string
	valid   bool
}

func NewSchemaCache(store Store) *SchemaCache {
	return &SchemaCache{store: store}
}

func (c *SchemaCache) Get(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid {
		return c.summary, nil
	}
	summary, err := c.store.Summarize(ctx)
	if err != nil {
		return "", err
	}
	c.summary = summary
	c.valid = true
	return summary, nil
}

func (c *SchemaCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.summary = ""
	c.mu.Unlock()
}

// Watch invalidates the cache whenever the database file at path (or its
// journal) is created, written, removed or renamed. It returns once the watch
// is installed; watching stops when ctx is done.
func (c *SchemaCache) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	base := filepath.Base(path)
	watched := map[string]bool{
		base:              true,
		base + "-wal":     true,
		base + "-journal": true,
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !watched[filepath.Base(event.Name)] {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					slog.Debug("store changed, dropping schema summary", "file", event.Name, "op", event.Op.String())
					c.Invalidate()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("fsnotify error", "error", err)
			}
		}
	}()
	return nil
}
