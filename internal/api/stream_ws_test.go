package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/flitsinc/go-datachat/internal/pipeline"
)

type fakeWSConn struct {
	frames   [][]byte
	messages [][]byte
}

func (f *fakeWSConn) Read(context.Context) (websocket.MessageType, []byte, error) {
	if len(f.frames) == 0 {
		return 0, nil, io.EOF
	}
	next := f.frames[0]
	f.frames = f.frames[1:]
	return websocket.MessageText, next, nil
}

func (f *fakeWSConn) Write(_ context.Context, _ websocket.MessageType, data []byte) error {
	f.messages = append(f.messages, data)
	return nil
}

func TestServeQueriesSequential(t *testing.T) {
	q := &fakeQuerier{resp: pipeline.Response{Text: "ok", SessionFile: "session_01HZX3J8K6P9Q2R4S5T6V7W8XY"}}
	conn := &fakeWSConn{frames: [][]byte{
		[]byte(`{"text":"first"}`),
		[]byte(`not json`),
		[]byte(`{"text":"second","session_file":"session_01HZX3J8K6P9Q2R4S5T6V7W8XY"}`),
	}}

	err := serveQueries(context.Background(), q, conn)
	if err != io.EOF {
		t.Fatalf("expected EOF once frames run out, got %v", err)
	}
	if len(conn.messages) != 3 {
		t.Fatalf("expected 3 replies, got %d", len(conn.messages))
	}
	if len(q.reqs) != 2 || q.reqs[1].SessionFile == "" {
		t.Fatalf("unexpected requests %+v", q.reqs)
	}

	var bad map[string]any
	if err := json.Unmarshal(conn.messages[1], &bad); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bad["error"] != "invalid request" {
		t.Fatalf("expected invalid request reply, got %v", bad)
	}
}

func TestServeQueriesReportsFailures(t *testing.T) {
	q := &fakeQuerier{err: pipeline.ErrEmptyInput}
	conn := &fakeWSConn{frames: [][]byte{[]byte(`{"text":"  "}`)}}

	_ = serveQueries(context.Background(), q, conn)
	var out map[string]any
	if err := json.Unmarshal(conn.messages[0], &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["error"] != "Text input cannot be empty." {
		t.Fatalf("unexpected reply %v", out)
	}
}

func TestQueryWSRoundTrip(t *testing.T) {
	audio := "SUQz"
	q := &fakeQuerier{resp: pipeline.Response{Text: "October was strong.", Audio: &audio, SessionFile: "session_01HZX3J8K6P9Q2R4S5T6V7W8XY"}}
	server, _ := newTestServer(t, q)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, ts.URL+"/api/query/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"text":"October sales?"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var resp pipeline.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Text != "October was strong." || resp.Audio == nil || *resp.Audio != "SUQz" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestServeQueriesSurvivesPanic(t *testing.T) {
	conn := &fakeWSConn{frames: [][]byte{
		[]byte(`{"text":"first"}`),
		[]byte(`{"text":"second"}`),
	}}

	if err := serveQueries(context.Background(), panickingQuerier{}, conn); err != io.EOF {
		t.Fatalf("expected EOF once frames run out, got %v", err)
	}
	if len(conn.messages) != 2 {
		t.Fatalf("expected a reply per frame, got %d", len(conn.messages))
	}
	for _, msg := range conn.messages {
		var out map[string]any
		if err := json.Unmarshal(msg, &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out["error"] != "Internal server error" || out["details"] != "unexpected failure" {
			t.Fatalf("unexpected reply %v", out)
		}
	}
}
