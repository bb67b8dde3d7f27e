package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/flitsinc/go-datachat/internal/ai"
	"github.com/flitsinc/go-datachat/internal/config"
	"github.com/flitsinc/go-datachat/internal/intent"
	"github.com/flitsinc/go-datachat/internal/logger"
	"github.com/flitsinc/go-datachat/internal/narrate"
	"github.com/flitsinc/go-datachat/internal/pipeline"
	"github.com/flitsinc/go-datachat/internal/session"
	"github.com/flitsinc/go-datachat/internal/speech"
	"github.com/flitsinc/go-datachat/internal/state"
	"github.com/flitsinc/go-datachat/internal/tabular"
)

// app holds the wired collaborators shared by every subcommand.
type app struct {
	cfg      config.Config
	store    tabular.Store
	schema   *tabular.SchemaCache
	sessions session.Store
	pipeline *pipeline.Orchestrator

	stateDB *sql.DB
}

// newApp loads configuration and builds the stores. The pipeline is only built
// when withPipeline is set, so offline commands run without an API key.
func newApp(withPipeline bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	logger.Init(logger.Config{DataDir: cfg.DataDir, DevMode: cfg.DevMode})

	a := &app{cfg: cfg}
	switch cfg.StoreDriver {
	case "postgres":
		a.store = tabular.NewPostgresStore(cfg.StoreDSN)
	default:
		a.store = tabular.NewSQLiteStore(cfg.StoreDSN)
	}
	a.schema = tabular.NewSchemaCache(a.store)

	switch cfg.SessionBackend {
	case "sqlite":
		db, err := state.Open(cfg.StateDBPath)
		if err != nil {
			return nil, err
		}
		a.stateDB = db
		a.sessions = state.NewStore(db)
	default:
		store, err := session.NewFileStore(cfg.SessionsDir)
		if err != nil {
			return nil, err
		}
		a.sessions = store
	}

	if withPipeline {
		if err := a.buildPipeline(); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) buildPipeline() error {
	llm, err := ai.NewClient(ai.Config{
		Provider: a.cfg.LLMProvider,
		Model:    a.cfg.LLMModel,
		APIKey:   a.cfg.LLMAPIKey,
		Endpoint: a.cfg.LLMEndpoint,
		Timeout:  a.cfg.LLMTimeout,
	})
	if err != nil {
		return fmt.Errorf("llm client: %w", err)
	}

	var synth speech.Synthesizer = speech.Disabled{}
	if a.cfg.TTSAPIKey != "" {
		synth = speech.NewElevenLabs(speech.ElevenLabsConfig{
			APIKey:  a.cfg.TTSAPIKey,
			VoiceID: a.cfg.TTSVoiceID,
			ModelID: a.cfg.TTSModelID,
			Format:  a.cfg.TTSFormat,
			Timeout: a.cfg.TTSTimeout,
		})
	} else {
		slog.Warn("ELEVENLABS_API_KEY not set, replies will have no audio and will not be recorded")
	}

	a.pipeline = &pipeline.Orchestrator{
		Schema:   a.schema,
		Resolver: intent.NewResolver(llm),
		Executor: a.store,
		Narrator: narrate.NewNarrator(llm),
		Speech:   synth,
		Sessions: a.sessions,
	}
	return nil
}

// watchSchema keeps the schema cache fresh while the sqlite store changes on disk.
func (a *app) watchSchema(ctx context.Context) {
	if a.cfg.StoreDriver != "sqlite" {
		return
	}
	if err := a.schema.Watch(ctx, a.cfg.StoreDSN); err != nil {
		slog.Warn("schema watch disabled", "path", a.cfg.StoreDSN, "error", err)
	}
}

func (a *app) Close() {
	if a.stateDB != nil {
		_ = a.stateDB.Close()
	}
}

var errNoSQLiteStore = errors.New("import needs the sqlite store driver")
