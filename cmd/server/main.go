// Package main initializes and starts the Thingful HTTP server, setting up
// configuration, logging, the database, repositories, services, the
// authentication gate and handlers.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/thingful/thingful/internal/auth"
	"github.com/thingful/thingful/internal/config"
	"github.com/thingful/thingful/internal/db"
	"github.com/thingful/thingful/internal/hashing"
	"github.com/thingful/thingful/internal/logger"
	"github.com/thingful/thingful/internal/middleware"
	"github.com/thingful/thingful/internal/repository"
	"github.com/thingful/thingful/internal/sanitize"
	"github.com/thingful/thingful/internal/server/handler/http"
	"github.com/thingful/thingful/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(2)
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer func() { _ = postgresDB.Close() }()

	// Initialize repositories.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	thingRepo := repository.NewPostgresThingRepository(postgresDB)
	reviewRepo := repository.NewPostgresReviewRepository(postgresDB)

	// Initialize business-logic services.
	hasher := hashing.NewPool(options.BcryptCost, options.HashWorkers)
	sanitizer := sanitize.New()
	userService := service.NewUserService(userRepo, hasher, sanitizer)
	thingService := service.NewThingService(thingRepo, sanitizer)
	reviewService := service.NewReviewService(reviewRepo, thingRepo, sanitizer)

	// Authentication gate backed by the user store and the hashing pool.
	// Unknown users are checked against a throwaway hash of the same cost.
	dummyHash, err := hasher.Hash(context.Background(), uuid.NewString())
	if err != nil {
		zapLogger.Fatal("cannot prepare dummy password hash", zap.Error(err))
	}
	gate := auth.NewGate(userService, userService,
		auth.WithLookupTimeout(options.AuthTimeout.Duration()),
		auth.WithDummyHash(dummyHash),
		auth.WithLogger(zapLogger),
	)

	// Metrics registry.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)

	// Build the router with middleware and routes.
	router := http.NewRouter(http.RouterConfig{
		Users:          &http.UserHandler{UserService: userService, Logger: zapLogger},
		Things:         &http.ThingHandler{ThingService: thingService, Logger: zapLogger},
		Reviews:        &http.ReviewHandler{ReviewService: reviewService, Logger: zapLogger},
		RequireAuth:    middleware.RequireAuth(gate, zapLogger, metrics),
		Logger:         zapLogger,
		Metrics:        metrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if options.TLSCert != "" && options.TLSKey != "" {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
			serveErr <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
