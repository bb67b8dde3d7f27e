package state_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/flitsinc/go-datachat/internal/session"
	"github.com/flitsinc/go-datachat/internal/state"
	"github.com/flitsinc/go-datachat/internal/testutil"
)

func TestStoreSessionRoundTrip(t *testing.T) {
	db, closeFn := testutil.OpenTestDB(t)
	defer closeFn()

	store := state.NewStore(db)
	ctx := context.Background()

	sess := session.New(time.Now())
	sess.AppendExchange("What was October sales?", "October sales came to 38.65 lakh.")
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	sess.AppendExchange("And profit?", "Net profit was 23.19 lakh.")
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save again: %v", err)
	}

	loaded, err := store.Load(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded.Messages, sess.Messages) {
		t.Fatalf("messages differ:\n got %+v\nwant %+v", loaded.Messages, sess.Messages)
	}
	if !loaded.CreatedAt.Equal(sess.CreatedAt) {
		t.Fatalf("created_at differs: %s vs %s", loaded.CreatedAt, sess.CreatedAt)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	db, closeFn := testutil.OpenTestDB(t)
	defer closeFn()

	_, err := state.NewStore(db).Load(context.Background(), session.NewHandle(time.Now()))
	if !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	db, closeFn := testutil.OpenTestDB(t)
	defer closeFn()

	store := state.NewStore(db)
	ctx := context.Background()
	base := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

	older := session.New(base)
	newer := session.New(base.Add(2 * time.Minute))
	for _, s := range []session.Session{older, newer} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.SessionID || list[1].ID != older.SessionID {
		t.Fatalf("unexpected order %+v", list)
	}
}

func TestStoreListRejectsCorruptTimestamp(t *testing.T) {
	db, closeFn := testutil.OpenTestDB(t)
	defer closeFn()

	id := session.NewHandle(time.Now())
	if _, err := db.Exec(`INSERT INTO sessions (id, created_at, updated_at, messages) VALUES (?, ?, ?, ?)`,
		id, "yesterday-ish", "yesterday-ish", "[]"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := state.NewStore(db).List(context.Background()); err == nil {
		t.Fatalf("expected an error for an unparseable created_at")
	}
}
