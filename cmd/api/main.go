package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/airportdex/favorite-sync/internal/adapters/httpapi"
	memcatalog "github.com/airportdex/favorite-sync/internal/adapters/memory/catalog"
	memfavoritestore "github.com/airportdex/favorite-sync/internal/adapters/memory/favoritestore"
	postgres "github.com/airportdex/favorite-sync/internal/adapters/postgres"
	pgcatalog "github.com/airportdex/favorite-sync/internal/adapters/postgres/catalog"
	pgfavoritestore "github.com/airportdex/favorite-sync/internal/adapters/postgres/favoritestore"
	redisfavoritestore "github.com/airportdex/favorite-sync/internal/adapters/redis/favoritestore"
	"github.com/airportdex/favorite-sync/internal/app/favorites"
	"github.com/airportdex/favorite-sync/internal/platform/auth/jwtverifier"
	"github.com/airportdex/favorite-sync/internal/platform/config"
	"github.com/airportdex/favorite-sync/internal/platform/logging"
	catalogport "github.com/airportdex/favorite-sync/internal/ports/out/catalog"
	favoritestoreport "github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
)

func main() {
	envFile, err := config.LoadDotEnv()
	if err != nil {
		_, _ = os.Stderr.WriteString("invalid config: " + err.Error() + "\n")
		os.Exit(1)
	}
	cfg, err := config.LoadServerConfigFromEnv()
	if err != nil {
		// No logger yet.
		_, _ = os.Stderr.WriteString("invalid config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogEnv)
	if err != nil {
		_, _ = os.Stderr.WriteString("build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	if envFile != "" {
		log.Info("loaded environment file", zap.String("path", envFile))
	}

	// Auth configuration:
	// - Production: require JWT_* env vars and enforce bearer auth
	// - Local dev: set AUTH_MODE=dev to bypass JWT verification and use X-Debug-Subject
	var authMW func(http.Handler) http.Handler
	switch cfg.AuthMode {
	case config.AuthModeDev:
		log.Warn("dev auth enabled; X-Debug-Subject is trusted", zap.String("default_subject", cfg.DevSubject))
		authMW = httpapi.NewDevAuthMiddleware(cfg.DevSubject)
	default:
		authMW = httpapi.NewAuthMiddleware(jwtverifier.New(cfg.JWT))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cat, cleanup, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("open storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	defer cleanup()

	svc := favorites.NewService(store, cat, log.Named("favorites"))
	handler := httpapi.NewRouter(
		httpapi.NewServer(svc, log.Named("httpapi")),
		httpapi.RouterOptions{AuthMiddleware: authMW, Logger: log.Named("access")},
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("api listening",
			zap.String("addr", srv.Addr),
			zap.String("backend", cfg.StorageBackend),
			zap.String("auth_mode", cfg.AuthMode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
}

func openStorage(ctx context.Context, cfg config.ServerConfig, log *zap.Logger) (favoritestoreport.Store, catalogport.Catalog, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		cat := pgcatalog.NewCatalog(pool)
		if cfg.SeedCatalog {
			seed := memcatalog.SeedEntities()
			if err := cat.Upsert(ctx, seed); err != nil {
				pool.Close()
				return nil, nil, nil, err
			}
			log.Info("catalog seeded", zap.Int("entities", len(seed)))
		}
		return pgfavoritestore.NewStore(pool), cat, pool.Close, nil
	case config.BackendRedis:
		store, err := redisfavoritestore.New(ctx, redisfavoritestore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup := func() {
			if err := store.Close(); err != nil {
				log.Warn("close redis", zap.Error(err))
			}
		}
		return store, memcatalog.NewSeededCatalog(), cleanup, nil
	default:
		return memfavoritestore.NewStore(), memcatalog.NewSeededCatalog(), func() {}, nil
	}
}
