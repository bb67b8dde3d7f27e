// Package pipeline answers one user turn: resolve the question, query the
// store if needed, narrate the result, synthesize audio and, only once audio
// exists, record the exchange in the session.
package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flitsinc/go-datachat/internal/intent"
	"github.com/flitsinc/go-datachat/internal/logger"
	"github.com/flitsinc/go-datachat/internal/session"
	"github.com/flitsinc/go-datachat/internal/speech"
	"github.com/flitsinc/go-datachat/internal/tabular"
)

var ErrEmptyInput = errors.New("empty input")

// QueryFailedReply is spoken when a generated query cannot be answered.
const QueryFailedReply = "I tried checking the data, but something went wrong."

type Stage string

const (
	StageStart        Stage = "start"
	StageResolving    Stage = "resolving"
	StageQuerying     Stage = "querying"
	StageNarrating    Stage = "narrating"
	StageSynthesizing Stage = "synthesizing"
	StagePersisting   Stage = "persisting"
	StageDone         Stage = "done"
)

// StageError is a hard failure and the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

type Request struct {
	Text        string `json:"text"`
	SessionFile string `json:"session_file,omitempty"`
}

// Response carries base64 audio; Audio is nil when synthesis produced nothing.
// SessionFile is empty when a new session was not stored for lack of audio.
type Response struct {
	Text        string  `json:"text"`
	Audio       *string `json:"audio"`
	SessionFile string  `json:"session_file"`
}

type SchemaSource interface {
	Get(ctx context.Context) (string, error)
}

type Resolver interface {
	Resolve(ctx context.Context, question, schema string) (string, error)
}

type Executor interface {
	Execute(ctx context.Context, query string) (tabular.Result, bool)
}

type Narrator interface {
	Narrate(ctx context.Context, question string, res *tabular.Result) (string, error)
}

type Orchestrator struct {
	Schema   SchemaSource
	Resolver Resolver
	Executor Executor
	Narrator Narrator
	Speech   speech.Synthesizer
	Sessions session.Store
	Now      func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Handle runs one turn. Each turn is resolved on its own; earlier turns of the
// session are not sent to the model.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (Response, error) {
	log := logger.FromContext(ctx)

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Response{}, ErrEmptyInput
	}

	sess, err := o.loadOrCreate(ctx, req.SessionFile)
	if err != nil {
		return Response{}, &StageError{Stage: StageStart, Err: err}
	}
	log = log.With("session", sess.SessionID)

	reply, err := o.reply(ctx, text)
	if err != nil {
		return Response{}, err
	}

	log.Debug("pipeline stage", "stage", StageSynthesizing)
	audio := o.Speech.Synthesize(ctx, reply)
	if len(audio) == 0 {
		log.Warn("no audio for reply, turn not recorded")
		resp := Response{Text: reply}
		if strings.TrimSpace(req.SessionFile) != "" {
			resp.SessionFile = sess.SessionID
		}
		return resp, nil
	}
	encoded := base64.StdEncoding.EncodeToString(audio)

	log.Debug("pipeline stage", "stage", StagePersisting)
	updated := sess.Clone()
	updated.AppendExchange(text, reply)
	if err := o.Sessions.Save(ctx, updated); err != nil {
		return Response{}, &StageError{Stage: StagePersisting, Err: err}
	}

	log.Debug("pipeline stage", "stage", StageDone, "turns", len(updated.Messages))
	return Response{Text: reply, Audio: &encoded, SessionFile: sess.SessionID}, nil
}

// Reply runs resolution, querying and narration without synthesis or
// persistence.
func (o *Orchestrator) Reply(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyInput
	}
	return o.reply(ctx, question)
}

func (o *Orchestrator) reply(ctx context.Context, question string) (string, error) {
	log := logger.FromContext(ctx)

	log.Debug("pipeline stage", "stage", StageResolving)
	schema, err := o.Schema.Get(ctx)
	if err != nil {
		return "", &StageError{Stage: StageResolving, Err: fmt.Errorf("schema summary: %w", err)}
	}
	raw, err := o.Resolver.Resolve(ctx, question, schema)
	if err != nil {
		return "", &StageError{Stage: StageResolving, Err: err}
	}

	outcome := intent.Classify(raw)
	if !outcome.IsQuery() {
		log.Debug("resolved to direct answer")
		return outcome.Text, nil
	}

	log.Debug("pipeline stage", "stage", StageQuerying, "query", outcome.Text)
	res, ok := o.Executor.Execute(ctx, outcome.Text)
	if !ok {
		log.Info("query produced no result", "query", outcome.Text)
		return QueryFailedReply, nil
	}

	log.Debug("pipeline stage", "stage", StageNarrating, "rows", len(res.Rows))
	reply, err := o.Narrator.Narrate(ctx, question, &res)
	if err != nil {
		return "", &StageError{Stage: StageNarrating, Err: err}
	}
	return reply, nil
}

func (o *Orchestrator) loadOrCreate(ctx context.Context, handle string) (session.Session, error) {
	if strings.TrimSpace(handle) == "" {
		return session.New(o.now()), nil
	}
	return o.Sessions.Load(ctx, handle)
}
