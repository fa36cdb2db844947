package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	_ "orderdesk/docs"
	"orderdesk/pkg/api"
	"orderdesk/pkg/config"
	"orderdesk/pkg/logger"
	"orderdesk/pkg/order"
	"orderdesk/pkg/order/memory"
	pg "orderdesk/pkg/order/postgres"
	"orderdesk/pkg/otel"
	"orderdesk/pkg/session"
)

// @title OrderDesk API
// @version 1.0
// @description API for managing orders
// @host localhost:8443
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(os.Stderr, logger.LevelInfo, "orderdesk", nil).Error(context.Background(), "load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(os.Stdout, cfg.LogLevel, "orderdesk", otel.GetTraceID)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error(context.Background(), "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdown, err := otel.InitTracing(log, otel.Config{ServiceName: "orderdesk", Host: cfg.OTELHost, Probability: cfg.SampleRatio})
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	repo, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	srv := api.New(
		order.NewService(repo, log),
		session.New(redisClient, cfg.SessionTTL),
		log,
		tp.Tracer("orderdesk"),
	)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.Addr, "tls", cfg.TLS())
		if cfg.TLS() {
			errCh <- httpServer.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			errCh <- httpServer.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func openRepository(ctx context.Context, cfg config.Config, log *logger.Logger) (order.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info(ctx, "using in-memory order store")
		return memory.New(), func() {}, nil
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info(ctx, "using postgres order store")
	return pg.New(db), func() { db.Close() }, nil
}
