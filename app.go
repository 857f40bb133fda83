package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/backsoul/quizdeck/pkg/cache"
	"github.com/backsoul/quizdeck/pkg/config"
	"github.com/backsoul/quizdeck/pkg/fetch"
	"github.com/backsoul/quizdeck/pkg/services"
)

// app agrupa los servicios compartidos por el servidor y la CLI
type app struct {
	quizzes *services.QuizService
	catalog *services.CatalogService
	closers []func() error
	logger  *zap.Logger
}

// openApp construye cliente, caché y servicios a partir de la configuración.
// backend permite a la CLI forzar "memory" y no tocar la caché del servidor.
func openApp(ctx context.Context, cfg *config.Config, backend string, logger *zap.Logger) (*app, error) {
	client := fetch.NewClient(fetch.Options{
		BaseURL:         cfg.Source.BaseURL,
		Timeout:         cfg.GetSourceTimeout(),
		Encoding:        cfg.Source.Encoding,
		MaxConnsPerHost: cfg.Source.Concurrency,
	}, logger)

	a := &app{logger: logger}

	var store cache.QuizStore
	switch backend {
	case "redis":
		logger.Info("🔌 Conectando a Redis", zap.String("addr", cfg.Cache.Redis.Addr))
		redisStore, err := cache.NewRedisStore(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("error abriendo caché redis: %w", err)
		}
		store = redisStore
		a.closers = append(a.closers, redisStore.Close)
	case "memory", "":
		store = cache.NewMemoryStore()
	default:
		return nil, fmt.Errorf("backend de caché desconocido: %q", backend)
	}

	a.wire(client, store, cfg)
	return a, nil
}

func (a *app) wire(source services.Source, store cache.QuizStore, cfg *config.Config) {
	a.quizzes = services.NewQuizService(source, store, cfg.GetQuizTTL(), a.logger)
	a.catalog = services.NewCatalogService(source, a.quizzes, services.CatalogOptions{
		TTL:         cfg.GetMetadataTTL(),
		Concurrency: cfg.Source.Concurrency,
	}, a.logger)
}

// contentChanged invalida las cachés y recarga el catálogo; si cambió, el
// notificador del catálogo lo difunde.
func (a *app) contentChanged(ctx context.Context, paths []string) {
	if err := a.quizzes.Invalidate(ctx); err != nil {
		a.logger.Warn("no se pudo vaciar la caché de quizzes", zap.Error(err))
	}
	a.catalog.Invalidate()

	quizzes := a.catalog.Metadata(ctx)
	a.logger.Info("📚 Catálogo recargado tras cambios en disco",
		zap.Int("files", len(paths)),
		zap.Int("quizzes", len(quizzes)))
}

// Close libera los recursos abiertos por openApp
func (a *app) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
