package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/phonegate/portal/internal/auth"
	"github.com/phonegate/portal/internal/config"
	"github.com/phonegate/portal/internal/db"
	httphandler "github.com/phonegate/portal/internal/http"
	"github.com/phonegate/portal/internal/http/handlers"
	"github.com/phonegate/portal/internal/middleware"
	"github.com/phonegate/portal/internal/observability"
	"github.com/phonegate/portal/internal/randomuser"
	"github.com/phonegate/portal/internal/repo"
	"github.com/phonegate/portal/internal/session"
	"github.com/phonegate/portal/internal/storage"
	"github.com/phonegate/portal/internal/toast"
)

func main() {
	// Env vars set in the process override .env
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

// kvStore is a selected storage backend with its lifecycle hooks.
type kvStore struct {
	backend storage.Backend
	ping    func(ctx context.Context) error
	close   func() error
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*kvStore, error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		rdb := storage.NewRedisBackend(ctx, cfg.Redis, logger)
		return &kvStore{backend: rdb, ping: rdb.Ping, close: rdb.Close}, nil

	case config.StoragePostgres:
		database, err := db.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Migrate(database); err != nil {
			_ = database.Close()
			return nil, err
		}
		return &kvStore{backend: repo.NewKVRepo(database), ping: database.PingContext, close: database.Close}, nil

	default:
		return &kvStore{backend: storage.NewMemoryBackend(), close: func() error { return nil }}, nil
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	kv, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.close(); err != nil {
			logger.Warn("failed to close storage", zap.Error(err))
		}
	}()
	logger.Info("storage ready", zap.String("backend", cfg.StorageBackend))

	source, err := randomuser.New(cfg.RandomUserURL)
	if err != nil {
		return err
	}
	authService, err := auth.NewService(source, logger.Named("auth"))
	if err != nil {
		return err
	}
	sessions, err := session.NewFactory(kv.backend, logger.Named("session"))
	if err != nil {
		return err
	}

	toasts := toast.NewBoard(cfg.ToastDuration, toast.RealClock)
	defer toasts.Stop()

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateWindow, cfg.LoginRateLimit)
	defer loginLimiter.Stop()

	router, err := httphandler.NewRouter(httphandler.Deps{
		AuthService:  authService,
		JWTService:   auth.NewJWTService(cfg.ClientSecret),
		Sessions:     sessions,
		Toasts:       toasts,
		LoginLimiter: loginLimiter,
		Health:       handlers.NewHealthHandler(kv.ping, logger),
		Logger:       logger.Named("http"),
		CookieSecure: cfg.CookieSecure,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// The login submit waits on the upstream user API.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
