package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fernandezvara/dbkit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	slooze "github.com/sujal0821/Slooze-Assignment"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	storeKind  = flag.String("store", "postgres", "Store backend: postgres or memory")
	seed       = flag.Bool("seed", false, "Load demo users, restaurants and menus")
	migrate    = flag.Bool("migrate", true, "Apply database migrations at startup")
)

func main() {
	flag.Parse()

	cfg, err := slooze.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := slooze.NewServerLogger(cfg.Log, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer closeStore()

	if *seed || cfg.Seed {
		if err := slooze.SeedDemoData(ctx, store); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		logger.Info("demo data seeded")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	service := slooze.NewService(store,
		slooze.WithLogger(logger),
		slooze.WithMetrics(slooze.NewMetrics(registry)),
	)

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("no JWT secret configured, every authenticated request will be rejected")
	}
	verifier := slooze.NewTokenVerifier([]byte(cfg.Auth.JWTSecret),
		slooze.WithIssuer(cfg.Auth.Issuer),
		slooze.WithLeeway(cfg.Auth.Leeway),
	)
	proxies, err := slooze.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		log.Fatalf("Invalid trusted proxies: %v", err)
	}
	mw := slooze.NewMiddleware(service, verifier, slooze.WithTrustedProxies(proxies...))

	opts := []slooze.HandlerOption{slooze.WithHandlerLogger(logger)}
	if cfg.Metrics.Enabled {
		opts = append(opts, slooze.WithRoute("GET "+cfg.Metrics.Path,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))
	}

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: slooze.NewHandler(service, mw, opts...),
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("received shutdown signal, gracefully stopping")
		shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
		cancel()
	}()

	logger.Info("listening", "addr", cfg.Server.Addr, "store", *storeKind)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	<-ctx.Done()
}

// openStore builds the configured store. The returned func releases it.
func openStore(ctx context.Context, cfg *slooze.Config, logger slooze.Logger) (slooze.Store, func(), error) {
	switch *storeKind {
	case "memory":
		return slooze.NewMemoryStore(), func() {}, nil
	case "postgres":
	default:
		return nil, nil, fmt.Errorf("unknown store %q", *storeKind)
	}

	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("database url is required (set %s)", slooze.EnvDatabaseURL)
	}
	db, err := dbkit.New(dbkit.Config{URL: cfg.Database.URL})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}

	if *migrate {
		applied, err := slooze.Migrate(ctx, db)
		if err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("migrations completed", "applied", len(applied))
	}

	store := slooze.NewBunStore(db)
	if err := store.ConfigureConnectionPool(cfg.Database.Pool); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("connection pool configuration failed: %w", err)
	}
	return store, closeDB, nil
}
