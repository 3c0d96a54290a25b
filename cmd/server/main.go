package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"imagegen-backend/internal/config"
	"imagegen-backend/internal/database"
	"imagegen-backend/internal/handlers"
	"imagegen-backend/internal/locks"
	"imagegen-backend/internal/provider"
	"imagegen-backend/internal/services"
	"imagegen-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	store, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to initialize artifact store", "backend", cfg.ArtifactBackend, "error", err)
		os.Exit(1)
	}

	locker, closeLocker := openLocker(ctx, cfg)
	defer closeLocker()

	if cfg.APIKey == "" {
		slog.Warn("API_KEY not set, generation requests will fail")
	}
	client := provider.NewClient(cfg.UpstreamBaseURL, cfg.APIKey, cfg.UpstreamTimeout)

	router := handlers.NewRouter(handlers.RouterDeps{
		JWTSecret:  cfg.JWTSecret,
		DB:         repo,
		Generation: services.NewGenerationService(client, store, repo, repo),
		History:    services.NewHistoryService(repo, repo, store, locker),
		Projects:   services.NewProjectService(repo, repo, store),
		Snippets:   services.NewSnippetService(repo),
	})

	// Generation is synchronous, so writes may take as long as the upstream.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.Addr(), "environment", cfg.Environment, "artifact_backend", cfg.ArtifactBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// openRepository connects to Postgres and applies migrations. Without
// DATABASE_URL the server runs on an in-memory repository.
func openRepository(ctx context.Context, cfg *config.Config) (services.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, using in-memory repository; data will not survive a restart")
		return database.NewMemoryClient(), func() {}, nil
	}

	db, err := database.NewClient(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.NewMigrator(db.DB()).Run(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	slog.Info("migrations completed")
	return db, func() { db.Close() }, nil
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.ArtifactBackend {
	case config.BackendSupabase:
		return storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseStorageBucket)
	case config.BackendS3:
		return storage.NewS3Store(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
	default:
		return storage.NewLocalStore(cfg.GeneratedDir)
	}
}

func openLocker(ctx context.Context, cfg *config.Config) (locks.Locker, func()) {
	if cfg.RedisAddr == "" {
		return locks.NoopLocker{}, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, history locks will fail until it recovers", "addr", cfg.RedisAddr, "error", err)
	}
	return locks.NewRedisLocker(rdb, cfg.LockTTL), func() { _ = rdb.Close() }
}

func logLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
