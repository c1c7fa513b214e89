package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	httpapi "peopleapi/internal/http"
	"peopleapi/internal/person"
	"peopleapi/internal/person/store"
	"peopleapi/internal/platform/config"
	"peopleapi/internal/platform/httpserver"
	"peopleapi/internal/platform/logger"
	"peopleapi/internal/platform/metrics"
	"peopleapi/internal/platform/redis"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "people-api: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode, err := store.ParseSchemaMode(cfg.Store.Schema.Mode)
	if err != nil {
		return err
	}
	backend, err := store.Open(ctx, store.Options{
		URL:             cfg.Store.URL,
		SchemaMode:      mode,
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		MaxIdleConns:    cfg.Store.MaxIdleConns,
		ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	personStore := backend
	var cacheHealth httpapi.HealthChecker
	redisClient, err := redis.New(ctx, cfg.Cache)
	if err != nil {
		return errors.Join(fmt.Errorf("connect cache: %w", err), backend.Close())
	}
	if redisClient != nil {
		defer redisClient.Close()
		personStore = store.NewCached(backend, redisClient,
			store.WithCacheTTL(cfg.Cache.TTL),
			store.WithCacheLogger(log),
			store.WithCacheMetrics(m),
		)
		cacheHealth = redisClient
		log.Info("person cache enabled", "ttl", cfg.Cache.TTL)
	}

	mod := person.New(personStore, log, m)
	router := httpapi.NewRouter(httpapi.Config{
		Logger:   log,
		Metrics:  m,
		Gatherer: reg,
		Ready:    personStore,
		Cache:    cacheHealth,
	}, mod.Handler)

	srv := httpserver.New(cfg.Listen.Address, router, httpserver.Timeouts{
		Read:  cfg.Server.ReadTimeout,
		Write: cfg.Server.WriteTimeout,
		Idle:  cfg.Server.IdleTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting people-api", "addr", cfg.Listen.Address, "schema_mode", mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "grace", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	serveErr := g.Wait()
	if err := personStore.Close(); err != nil {
		log.Error("closing store", "error", err)
		serveErr = errors.Join(serveErr, err)
	}
	if serveErr == nil {
		log.Info("people-api stopped")
	}
	return serveErr
}
