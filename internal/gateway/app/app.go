package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gatewayhttp "github.com/berat-eth/huglu-gateway/internal/gateway/http"
	"github.com/berat-eth/huglu-gateway/internal/gateway/service"
	"github.com/berat-eth/huglu-gateway/internal/gateway/store"
	"github.com/berat-eth/huglu-gateway/internal/gateway/store/drivers/memory"
	"github.com/berat-eth/huglu-gateway/internal/gateway/store/drivers/redis"
	"github.com/berat-eth/huglu-gateway/pkg/slogx"
)

const BuildVersion = "v0.1.0"

// Application wires the gateway's services and HTTP surface together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	state store.Store

	tokens     *service.TokenService
	detector   *service.Detector
	limiter    *service.RateLimiter
	throttle   *service.Throttle
	reputation *service.Reputation
	events     *service.EventLog
	sweeper    *service.Sweeper

	server *http.Server
	router *gatewayhttp.Router
}

// New builds an Application from cfg.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "api-gateway",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Shared security state: in-process by default, Redis when configured
	// so multiple gateway replicas agree on blacklist/reputation/windows.
	if cfg.RedisAddr != "" {
		app.state = redis.NewStore(cfg.RedisAddr)
		app.logger.Info("using redis security state store", "addr", cfg.RedisAddr)
	} else {
		app.state = memory.NewStore()
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Router exposes the HTTP surface so a host process can mount business
// routes behind the pipeline.
func (app *Application) Router() *gatewayhttp.Router { return app.router }

// Run starts the gateway and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.sweeper.Start()

	app.logger.Info("api gateway starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops the sweeper and closes the
// state store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down api gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.sweeper.Stop()

	if err := app.state.Close(); err != nil {
		app.logger.Error("error closing state store", "error", err)
		return err
	}

	app.logger.Info("api gateway stopped")
	return nil
}

func (app *Application) initServices() {
	app.events = service.NewEventLog(app.logger)

	app.reputation = service.NewReputation(app.state.Reputation())
	app.reputation.BlockThreshold = app.cfg.BlockThreshold
	app.reputation.WarnThreshold = app.cfg.WarnThreshold

	app.detector = service.NewDetector(app.events, app.reputation)

	app.tokens = service.NewTokenService(
		app.state.Blacklist(), app.logger,
		app.cfg.AccessSecret, app.cfg.RefreshSecret,
		app.cfg.Issuer, app.cfg.Audience,
		app.cfg.AccessTTL, app.cfg.RefreshTTL,
	)

	app.limiter = service.NewRateLimiter(app.state.RateBuckets(), app.events)

	app.throttle = service.NewThrottle(service.ThrottleConfig{
		Window:     app.cfg.Throttle.Window,
		DelayAfter: app.cfg.Throttle.DelayAfter,
		DelayStep:  app.cfg.Throttle.DelayStep,
		MaxDelay:   app.cfg.Throttle.MaxDelay,
	}, app.state.RateBuckets(), app.events)

	app.sweeper = service.NewSweeper(
		app.state.Blacklist(), app.state.RateBuckets(),
		app.tokens, app.logger, app.cfg.SweepInterval,
	)
}

func (app *Application) initHTTP() {
	pipeline := &gatewayhttp.Pipeline{
		Tokens:               app.tokens,
		Detector:             app.detector,
		Limiter:              app.limiter,
		Throttle:             app.throttle,
		Reputation:           app.reputation,
		Events:               app.events,
		Logger:               app.logger,
		Tiers:                app.cfg.Tiers,
		MaxBodyBytes:         app.cfg.MaxRequestSize,
		MobileMultiplier:     app.cfg.MobileMultiplier,
		SuspiciousIPDisabled: app.cfg.SuspiciousIPDisabled,
	}

	app.router = gatewayhttp.NewRouter(pipeline, app.state.Reputation(), app.logger)

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: app.router,
	}
}
