package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flitsinc/go-datachat/internal/api"
	"github.com/flitsinc/go-datachat/internal/logger"
	"github.com/flitsinc/go-datachat/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return err
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()
	a.watchSchema(serverCtx)

	apiServer := &api.Server{
		Pipeline:  a.pipeline,
		Sessions:  a.sessions,
		Schema:    a.schema,
		StartedAt: time.Now().UTC(),
		Info: api.DiagnosticsInfo{
			HTTPAddr:       cfg.HTTPAddr,
			DataDir:        cfg.DataDir,
			WebDir:         cfg.WebDir,
			StoreDriver:    cfg.StoreDriver,
			SessionBackend: cfg.SessionBackend,
			LLMProvider:    cfg.LLMProvider,
			LLMModel:       cfg.LLMModel,
			TTSConfigured:  cfg.TTSAPIKey != "",
		},
	}
	webServer := &web.Server{Dir: cfg.WebDir}

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer.Handler())
	mux.Handle("/", webServer.Handler())

	httpServer := &http.Server{
		Handler:           loggingMiddleware(api.Recover(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return serverCtx
		},
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("datachatd listening", "addr", listener.Addr().String(), "store", cfg.StoreDriver, "sessions", cfg.SessionBackend)
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-serveErr:
		if err != nil {
			slog.Error("http server error", "error", err)
			return err
		}
	}

	serverCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	_ = httpServer.Close()
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.NewRequestLogger()
		next.ServeHTTP(w, r.WithContext(logger.IntoContext(r.Context(), log)))
		log.Info("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
