package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/BradenHooton/svatba/internal/auth"
	"github.com/BradenHooton/svatba/internal/background"
	"github.com/BradenHooton/svatba/internal/config"
	"github.com/BradenHooton/svatba/internal/database"
	"github.com/BradenHooton/svatba/internal/handlers"
	"github.com/BradenHooton/svatba/internal/repositories"
	"github.com/BradenHooton/svatba/internal/routes"
	"github.com/BradenHooton/svatba/internal/services"
	pkghttp "github.com/BradenHooton/svatba/pkg/http"
	pkglogger "github.com/BradenHooton/svatba/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = newLogger(cfg.Log)
	slog.SetDefault(logger)
	for _, warning := range cfg.Warnings {
		logger.Warn("insecure configuration", slog.String("warning", warning))
	}
	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("storage_backend", cfg.Storage.Backend))

	// Initialize storage
	store, err := openStorage(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.close()

	// Initialize security services
	auditLogger := pkglogger.NewAuditLogger(logger)
	ipConfig := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionDuration)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})
	cookieConfig := auth.CookieConfig{
		Domain:   cfg.Auth.CookieDomain,
		Secure:   cfg.Auth.CookieSecure,
		SameSite: "lax",
		MaxAge:   tokenManager.Duration(),
	}

	// New-RSVP notifications are optional
	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.Email.Enabled() {
		sesNotifier, err := services.NewAWSSESNotifier(cfg.Email.AWSRegion, cfg.Email.FromAddress, cfg.Email.NotifyTo, logger)
		if err != nil {
			logger.Error("failed to initialize email notifier", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = sesNotifier
		logger.Info("rsvp email notifications enabled", slog.Int("recipients", len(cfg.Email.NotifyTo)))
	}

	// Initialize services
	rateLimitService := services.NewRateLimitService(store.rateLimits, services.RateLimitConfig{
		MaxAttempts: cfg.RateLimit.MaxAttempts,
		Window:      cfg.RateLimit.Window,
	}, logger)
	rsvpService := services.NewRSVPService(store.guests, rateLimitService, notifier, logger)
	guestService := services.NewGuestService(store.guests, logger)
	exportService := services.NewExportService(guestService, logger)
	authService := services.NewAuthService(cfg.Auth.AdminAccessCode, tokenManager, timingDelay, logger, auditLogger)

	// Initialize handlers
	router := routes.NewRouter(routes.Handlers{
		Auth:   handlers.NewAuthHandler(authService, cookieConfig, ipConfig, logger),
		RSVP:   handlers.NewRSVPHandler(rsvpService, ipConfig, logger),
		Guests: handlers.NewGuestHandler(guestService, auditLogger, ipConfig, logger),
		Export: handlers.NewExportHandler(exportService, auditLogger, ipConfig, logger),
		Health: handlers.NewHealthHandler(store.guests, cfg.Storage.Backend, logger),
	}, routes.Options{
		Env:                    cfg.Server.Env,
		AllowedOrigins:         cfg.Server.AllowedOrigins,
		LoginRequestsPerMinute: cfg.RateLimit.LoginRequestsPerMinute,
		IPConfig:               ipConfig,
		Sessions:               tokenManager,
		Logger:                 logger,
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupManager := background.NewCleanupManager(logger, cfg.Storage.CleanupInterval, store.cleanupTasks...)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// newLogger builds the JSON logger, teeing to a rotated file when LOG_FILE is set.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}

// storage bundles the repositories of the selected backend.
type storage struct {
	guests       repositories.GuestRepository
	rateLimits   repositories.RateLimitRepository
	cleanupTasks []background.Task
	close        func()
}

func openStorage(cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		kv, err := database.NewRedisStore(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		logger.Info("using redis storage")
		return &storage{
			guests:     repositories.NewKVGuestRepository(kv),
			rateLimits: repositories.NewKVRateLimitRepository(kv),
			close:      func() { _ = kv.Close() },
		}, nil

	case config.BackendKV:
		db, err := database.NewConnection(&cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		kv := database.NewPostgresStore(db)
		logger.Info("using postgres key-value storage")
		return &storage{
			guests:       repositories.NewKVGuestRepository(kv),
			rateLimits:   repositories.NewKVRateLimitRepository(kv),
			cleanupTasks: []background.Task{background.KVPurgeTask(kv)},
			close:        db.Close,
		}, nil

	case config.BackendFile:
		rateLimits := repositories.NewFileRateLimitRepository(cfg.Storage.DataDir)
		logger.Info("using file storage", slog.String("data_dir", cfg.Storage.DataDir))
		return &storage{
			guests:       repositories.NewFileGuestRepository(cfg.Storage.DataDir),
			rateLimits:   rateLimits,
			cleanupTasks: []background.Task{background.RateLimitPruneTask(rateLimits, cfg.RateLimit.Window, nil)},
			close:        func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
