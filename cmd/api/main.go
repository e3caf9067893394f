package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	httpx "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/redisclient"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/repo/postgres"
	"github.com/geocoder89/taskhub/internal/repo/redisrepo"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	log.Info("config loaded", "config", cfg)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	startCtx, cancel := config.WithTimeout(15 * time.Second)
	defer cancel()

	shutdownTracer, err := observability.InitTracer(startCtx, cfg.ServiceName, cfg.Env, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	pool, err := db.NewPool(startCtx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		m, err := db.NewMigrator(pool, log)
		if err != nil {
			return err
		}
		if err := m.Up(startCtx); err != nil {
			return err
		}
	}

	ready := map[string]handlers.ReadyCheck{
		"postgres": func(ctx context.Context) error { return pool.Ping(ctx) },
	}

	users := postgres.NewUsersRepo(pool, prom)
	hasher := security.NewHasher(cfg.BcryptCost)

	codec, err := auth.NewCodec(cfg.AuthConfig())
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}

	opts := []auth.Option{auth.WithRecorder(prom)}

	if cfg.RedisAddr != "" {
		rc, err := redisclient.Connect(startCtx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer rc.Close()

		ready["redis"] = rc.Ping
		if cfg.TokenRevocation {
			opts = append(opts, auth.WithDenylist(redisrepo.NewDenylist(rc.Raw())))
			log.Info("token revocation enabled", "store", "redis")
		}
	} else if cfg.TokenRevocation {
		// single-instance only; revocations are lost on restart
		opts = append(opts, auth.WithDenylist(memory.NewDenylist()))
		log.Warn("token revocation enabled", "store", "memory")
	}

	svc := auth.NewService(cfg.AuthConfig(), users, hasher, codec, log, opts...)

	if err := db.EnsureAdminUser(startCtx, users, hasher, cfg, log); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	health := handlers.NewHealthHandler("TaskHub API", ready)

	// set up routers with the log
	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Auth:     svc,
		Prom:     prom,
		Gatherer: reg,
		Health:   health,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-stop:
	}
	log.Info("server shutting down")
	health.Drain()

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}

	return nil
}
