package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/coop-console/internal/api/http"
	"github.com/spec-kit/coop-console/internal/api/http/handlers"
	"github.com/spec-kit/coop-console/internal/auth"
	"github.com/spec-kit/coop-console/internal/backend"
	"github.com/spec-kit/coop-console/internal/config"
	"github.com/spec-kit/coop-console/internal/events"
	"github.com/spec-kit/coop-console/internal/guard"
	"github.com/spec-kit/coop-console/internal/observability"
	"github.com/spec-kit/coop-console/internal/persistence"
	"github.com/spec-kit/coop-console/internal/service"
	"github.com/spec-kit/coop-console/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, redisClient, err := persistence.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open client storage", zap.Error(err))
	}
	defer store.Close()

	local := events.NewInMemoryNotifier()
	var notifier events.Notifier = local
	if redisClient != nil && cfg.Redis.CrossInstances {
		relay := events.NewRedisNotifier(redisClient, cfg.Redis.NotifyChannel, local, logger)
		notifier = relay
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Error("storage notification relay stopped", zap.Error(err))
			}
		}()
	}

	demo, err := auth.NewDemoDirectory(cfg.Demo.Accounts, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("failed to load demo accounts", zap.Error(err))
	}
	if cfg.Demo.Enabled {
		logger.Warn("demo login enabled", zap.Int("accounts", demo.Len()))
	}

	metrics := observability.NewMetrics()
	sessions := session.NewFactory(store, auth.NewTokenDecoder(cfg.Auth.JWTSecret), notifier, logger)
	loginService := service.NewLoginService(service.LoginDependencies{
		Backend:     backend.NewClient(cfg.Backend),
		Sessions:    sessions,
		Demo:        demo,
		DemoEnabled: cfg.Demo.Enabled,
		Metrics:     metrics,
		Logger:      logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), auth.NewClientMiddleware(cfg.Auth))

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store),
		Auth:    handlers.NewAuthHandler(loginService, cfg.Demo.Enabled),
		Pages:   handlers.NewPagesHandler(sessions),
		Session: handlers.NewSessionHandler(sessions, ctx.Done(), logger),
		Guards:  guard.New(httptransport.SessionResolver(sessions), metrics),
		Metrics: metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
