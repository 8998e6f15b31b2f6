// Package main is the entry point for the Tripboard API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pkordes/tripboard/internal/auth"
	"github.com/pkordes/tripboard/internal/blob"
	"github.com/pkordes/tripboard/internal/config"
	"github.com/pkordes/tripboard/internal/geocode"
	"github.com/pkordes/tripboard/internal/handler"
	"github.com/pkordes/tripboard/internal/middleware"
	"github.com/pkordes/tripboard/internal/repo"
	"github.com/pkordes/tripboard/internal/service"
	"github.com/pkordes/tripboard/internal/stream"
	"github.com/pkordes/tripboard/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ----------------------------------------------------------
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	slog.Info("document store ready", "backend", cfg.StorageBackend)

	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer cache.Close()
	}

	// --- Services ---------------------------------------------------------
	itinerary, err := service.NewItineraryStore(store, service.ItineraryConfig{
		Key:         cfg.ItineraryDocKey,
		UndoDepth:   cfg.UndoDepth,
		PDFFontPath: cfg.PDFFontPath,
	}, logger)
	if err != nil {
		return err
	}
	wallet, err := service.NewWalletService(store, logger)
	if err != nil {
		return err
	}
	checklist, err := service.NewChecklistService(store, logger)
	if err != nil {
		return err
	}
	settings := service.NewSettingsService(store, cfg.AdminEmails, itinerary, logger)

	hub := stream.NewHub(cfg.CORSOrigins, logger)
	defer hub.Close()
	itinerary.OnChange(hub.PublishPlan)

	for _, s := range []interface {
		Start(context.Context) error
		Close()
	}{itinerary, wallet, checklist, settings} {
		if err := s.Start(ctx); err != nil {
			return err
		}
		defer s.Close()
	}
	hub.PublishPlan(itinerary.Plan(), itinerary.CanUndo())
	slog.Info("documents loaded", "itinerary", cfg.ItineraryDocKey)

	blobs, err := blob.NewLocalStore(cfg.UploadDir, cfg.PublicURL)
	if err != nil {
		return err
	}

	geoOpts := []geocode.Option{geocode.WithLogger(logger)}
	if cache != nil {
		geoOpts = append(geoOpts, geocode.WithCache(cache, 0))
	}

	server := handler.NewServer(handler.Deps{
		Itinerary:      itinerary,
		Planner:        service.NewPlanner(itinerary, wallet, service.SystemClock{}),
		Wallet:         wallet,
		Settings:       settings,
		Checklist:      checklist,
		Geocoder:       geocode.NewClient(cfg.GeocoderURL, cfg.GeocoderRPS, geoOpts...),
		Blobs:          blobs,
		Files:          blobs.Handler(),
		Stream:         hub,
		Log:            logger,
		PublicURL:      cfg.PublicURL,
		MaxUploadBytes: cfg.MaxBodyBytes,
	})

	var authenticator auth.Authenticator = auth.NewJWTAuthenticator(cfg.AuthJWTSecret)
	if cfg.AuthMode == config.AuthDev {
		slog.Warn("AUTH_MODE=dev: trusting X-Debug-Email headers; do not use in production")
		authenticator = auth.DevAuthenticator{}
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → rate limit → body cap → identity.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	if cfg.RateLimitRPS > 0 {
		burst := max(1, int(cfg.RateLimitRPS*2))
		r.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, burst).Handler)
	}
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(auth.Middleware(authenticator))
	r.Mount("/", server.Routes())

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	// Give in-flight requests up to 15 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// openStore connects the configured DocumentStore. The returned func
// releases the connection.
func openStore(ctx context.Context, cfg config.Config) (repo.DocumentStore, func(), error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("create database pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := migrate(ctx, cfg.DatabaseURL); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo.NewPostgresDocumentStore(pool), pool.Close, nil

	case config.StorageMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURL))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongo: %w", err)
		}
		disconnect := func() { _ = client.Disconnect(context.Background()) }
		if err := client.Ping(ctx, nil); err != nil {
			disconnect()
			return nil, nil, fmt.Errorf("ping mongo: %w", err)
		}
		return repo.NewMongoDocumentStore(client.Database(cfg.MongoDatabase)), disconnect, nil

	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return repo.NewRedisDocumentStore(rdb), func() { _ = rdb.Close() }, nil

	default:
		slog.Warn("STORAGE_BACKEND=memory: documents are lost on restart")
		return repo.NewMemoryDocumentStore(), func() {}, nil
	}
}

// migrate applies pending goose migrations. goose drives database/sql, so
// it gets its own short-lived connection through the pgx stdlib driver.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("migrations applied", "count", len(results))
	return nil
}
