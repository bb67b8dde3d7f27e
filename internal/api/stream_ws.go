package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/flitsinc/go-datachat/internal/logger"
	"github.com/flitsinc/go-datachat/internal/pipeline"
)

type wsConn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, msgType websocket.MessageType, data []byte) error
}

// handleQueryWS answers query frames one at a time over a single socket.
func (s *Server) handleQueryWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	if err := serveQueries(r.Context(), s.Pipeline, conn); err != nil {
		status := websocket.CloseStatus(err)
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			return
		}
		_ = conn.Close(websocket.StatusInternalError, "query stream error")
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "done")
}

func serveQueries(ctx context.Context, q Querier, conn wsConn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		out, err := json.Marshal(answerFrame(ctx, q, data))
		if err != nil {
			return err
		}
		if err := conn.Write(ctx, websocket.MessageText, out); err != nil {
			return err
		}
	}
}

// answerFrame handles one request frame. A panic while answering becomes the
// generic 500 body for that frame and the connection stays open.
func answerFrame(ctx context.Context, q Querier, data []byte) (payload any) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.LogPanic(logger.FromContext(ctx), rec, "query frame panicked")
			payload = internalError("unexpected failure")
		}
	}()

	var req pipeline.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return map[string]any{"error": "invalid request", "details": err.Error()}
	}
	resp, err := q.Handle(ctx, req)
	if err != nil {
		_, body := failure(ctx, err)
		return body
	}
	return resp
}
