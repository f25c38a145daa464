package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doc-composer/internal/api"
	"doc-composer/internal/common/config"
	"doc-composer/internal/common/database"
	"doc-composer/internal/common/logger"
	"doc-composer/internal/common/observability"
	"doc-composer/internal/compose"
	"doc-composer/internal/render"
	"doc-composer/internal/storage"
	"doc-composer/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting compose server", map[string]interface{}{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := observability.SetupTracing(cfg.App.Name, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			log.WithError(err).Warn("tracing disabled", nil)
		} else {
			defer shutdown()
		}
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	// Materialize template bodies and static assets before serving.
	fileStorage, err := buildStorage(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("storage setup failed", nil)
		os.Exit(1)
	}
	if err := fileStorage.LoadTemplates(ctx, cfg.Template.Directory); err != nil {
		log.WithError(err).Error("template sync failed", nil)
		os.Exit(1)
	}

	templates, cleanup, err := buildStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("template store setup failed", nil)
		os.Exit(1)
	}
	defer cleanup()

	env := compose.NewEnvironment(cfg.Template.Directory, cfg.Template.StaticRoot)
	registry := render.NewRegistry()
	composer := compose.NewComposer(templates, env, registry, log, obs, cfg.Template.ScratchDir)
	server := api.NewServer(composer, templates, registry, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", map[string]interface{}{"addr": httpServer.Addr})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received", nil)
	case err := <-errCh:
		log.WithError(err).Error("server stopped", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown incomplete", nil)
	}
}

func buildStorage(ctx context.Context, cfg *config.Config, log logger.Logger) (storage.FileStorage, error) {
	if cfg.Storage.Backend == "s3" {
		return storage.NewS3Storage(ctx, cfg.Storage.S3, log)
	}
	return storage.NewLocalStorage(cfg.Storage.Local.SourceDirectory, log), nil
}

// buildStore wires the metadata store: postgres when configured, with an
// optional redis read-through cache, or an in-memory store fed from the
// synced template directory for database-less deployments.
func buildStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.TemplateStore, func(), error) {
	cleanup := func() {}

	if cfg.Database.Postgres.Host == "" {
		templates, err := store.LoadDirectoryStore(cfg.Template.Directory)
		if err != nil {
			return nil, cleanup, err
		}
		log.Info("using in-memory template store", nil)
		return templates, cleanup, nil
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, cleanup, err
	}
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, cleanup, err
	}

	var templates store.TemplateStore = store.NewPostgresStore(pg, log)
	closers := []func() error{pg.Close}

	if cfg.Database.Redis.Enabled {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, caching disabled", nil)
		} else {
			ttl := time.Duration(cfg.Database.Redis.CacheTTL) * time.Second
			templates = store.NewCachedStore(templates, rdb, ttl, log)
			closers = append(closers, rdb.Close)
		}
	}

	cleanup = func() {
		for _, close := range closers {
			close()
		}
	}
	return templates, cleanup, nil
}
