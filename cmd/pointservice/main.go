package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/febry-setyawan/loyalty/internal/application/services"
	"github.com/febry-setyawan/loyalty/internal/config"
	"github.com/febry-setyawan/loyalty/internal/infrastructure/db/postgres"
	"github.com/febry-setyawan/loyalty/internal/infrastructure/messaging"
	rest "github.com/febry-setyawan/loyalty/internal/interface/api/rest/chi"
	"github.com/febry-setyawan/loyalty/internal/interface/api/rest/middleware"
	"github.com/febry-setyawan/loyalty/pkg/logger"
	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	trmcontext "github.com/avito-tech/go-transaction-manager/trm/v2/context"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Version indicates the current version of the application.
var Version = "1.0.0"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Server run context.
	serverCtx, serverStopCtx := context.WithCancel(context.Background())
	defer serverStopCtx()

	// Load application configurations.
	cfg := config.MustLoad()

	// Create root logger tagged with server version.
	logger := logger.New(cfg).With(serverCtx, "version", Version)

	db, err := postgres.Connect(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}

	// Close connection.
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(err)
		}
		_ = logger.Sync()
	}()

	// Create tables and indexes on first run.
	if err = postgres.Bootstrap(serverCtx, db); err != nil {
		return fmt.Errorf("failed to bootstrap the database: %w", err)
	}

	// Create default transaction manager for database/sql package.
	trManager := manager.Must(
		trmsql.NewDefaultFactory(db),
		manager.WithCtxManager(trmcontext.DefaultManager),
	)

	// Init repositories.
	balanceRepo, err := postgres.NewBalanceRepository(db, trmsql.DefaultCtxGetter, logger)
	if err != nil {
		return fmt.Errorf("failed to init balance repository: %w", err)
	}

	txRepo, err := postgres.NewTransactionRepository(db, trmsql.DefaultCtxGetter, logger)
	if err != nil {
		return fmt.Errorf("failed to init transaction repository: %w", err)
	}

	ruleRepo, err := postgres.NewEarningRuleRepository(db, trmsql.DefaultCtxGetter, logger)
	if err != nil {
		return fmt.Errorf("failed to init earning rule repository: %w", err)
	}

	// Make sure the default rule set exists.
	if err = services.SeedEarningRules(serverCtx, ruleRepo, logger); err != nil {
		return fmt.Errorf("failed to seed earning rules: %w", err)
	}

	publisher := messaging.NewLogPublisher(logger)

	// Init calculation service.
	calcService, err := services.NewPointCalculationService(ruleRepo)
	if err != nil {
		return fmt.Errorf("failed to init calculation service: %w", err)
	}

	// Init points service.
	pointsService, err := services.NewPointsService(
		balanceRepo, txRepo, calcService, publisher, trManager, logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to init points service: %w", err)
	}

	// Init and start the expiry sweeper.
	expiryService, err := services.NewExpiryService(
		balanceRepo, txRepo, publisher, trManager, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to init expiry service: %w", err)
	}
	expiryService.Run()
	defer expiryService.Stop()

	// Create root router.
	router := rest.InitChi(logger)

	// Gate the API with service tokens when a signing key is set.
	var middlewares []rest.MiddlewareFunc
	if cfg.JWT.SigningKey != "" {
		middlewares = append(middlewares, middleware.Middleware(cfg.JWT.SigningKey))
	}

	// Init and group handlers for point routes.
	rest.NewPointsController(pointsService, rest.ChiServerOptions{
		BaseURL:     "/api/points",
		BaseRouter:  router,
		Middlewares: middlewares,
	})

	// Build HTTP server.
	hs := &http.Server{
		Addr:              cfg.HTTPServer.Address,
		ReadHeaderTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:       cfg.HTTPServer.IdleTimeout,
		Handler:           router,
	}

	// Graceful shutdown.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT,
			syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)

		signal := <-sig

		logger.With(serverCtx, "signal", signal.String()).
			Infof("Shutting down server with %s timeout",
				cfg.HTTPServer.ShutdownTimeout)

		if err = hs.Shutdown(serverCtx); err != nil {
			logger.Errorf("graceful shutdown failed: %s", err)
		}
		serverStopCtx()
	}()

	// Start the HTTP server with graceful shutdown.
	logger.Infof("Server %v is running at %v", Version, cfg.HTTPServer.Address)
	if err = hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("run server failed: %w", err)
	}

	// Wait for server context to be stopped or force exit if timeout exceeded.
	select {
	case <-serverCtx.Done():
	case <-time.After(cfg.HTTPServer.ShutdownTimeout):
		return errors.New("graceful shutdown timed out.. forcing exit")
	}

	return nil
}
