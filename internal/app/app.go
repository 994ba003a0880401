package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hamzaa73/EduGenie/internal/config"
	"github.com/hamzaa73/EduGenie/internal/generate"
	"github.com/hamzaa73/EduGenie/internal/history"
	"github.com/hamzaa73/EduGenie/internal/ingest"
	"github.com/hamzaa73/EduGenie/internal/logging"
	"github.com/hamzaa73/EduGenie/internal/quiz"
	"github.com/hamzaa73/EduGenie/internal/server"
	"github.com/hamzaa73/EduGenie/internal/session"
	"github.com/hamzaa73/EduGenie/pkg/http/ws"
)

// Application bundles the wired components and their shutdown hooks.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	httpServer *http.Server
	closers    []func() error
}

// New wires the history store, collaborators, session and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)

	app := &Application{cfg: cfg, logger: logger}

	store, err := app.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	hist := history.NewService(ctx, store, logger)

	genClient := generate.NewClient(generate.Config{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.HTTPTimeout,
	}, logger)
	coordinator := ingest.NewCoordinator(ingest.PDFTextExtractor{}, genClient, logger)

	sess := session.New(hist, genClient, coordinator, session.Options{
		MinTextLen: cfg.Quiz.MinTextLen,
		DefaultConfig: quiz.GenerationConfig{
			MultipleChoiceCount: cfg.Quiz.DefaultMCQCount,
			TrueFalseCount:      cfg.Quiz.DefaultTFCount,
			Difficulty:          quiz.Difficulty(cfg.Quiz.DefaultDifficulty),
			Language:            quiz.Language(cfg.Quiz.DefaultLanguage),
		},
	}, logger)

	hub := ws.NewHub(logger)
	sess.SetListener(func(snap session.Snapshot) {
		payload, err := json.Marshal(snap)
		if err != nil {
			logger.Warn().Err(err).Msg("snapshot marshal failed")
			return
		}
		hub.Broadcast(ws.Message{Type: ws.TypePhaseChanged, Payload: payload})
	})

	app.httpServer = server.NewHTTPServer(cfg, logger, sess, hist, hub)
	return app, nil
}

func (a *Application) buildStore(ctx context.Context) (history.Store, error) {
	switch a.cfg.Store.Backend {
	case "sqlite":
		store, err := history.OpenSQLite(a.cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: a.cfg.Store.RedisAddr,
			DB:   a.cfg.Store.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		key := a.cfg.Store.RedisKey
		if key == "" {
			key = history.DefaultRedisKey
		}
		return history.NewRedisStore(client, key), nil
	case "memory":
		return history.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", a.cfg.Store.Backend)
	}
}

// Run starts the HTTP server and blocks until a shutdown signal.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
		a.logger.Info().Msg("context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Warn().Err(err).Msg("close error")
		}
	}
	a.logger.Info().Msg("shutdown complete")
	return nil
}
