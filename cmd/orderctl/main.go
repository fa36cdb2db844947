// Command orderctl is an interactive console for managing orders in memory.
package main

import (
	"context"
	"os"
	"os/signal"

	"orderdesk/pkg/config"
	"orderdesk/pkg/console"
	"orderdesk/pkg/logger"
	"orderdesk/pkg/order"
	"orderdesk/pkg/order/memory"
	"orderdesk/pkg/otel"
)

func main() {
	level := logger.LevelWarn
	if cfg, err := config.Load(); err == nil && cfg.LogLevel > level {
		level = cfg.LogLevel
	}
	// Logs go to stderr so they never interleave with the menu output.
	log := logger.New(os.Stderr, level, "orderctl", otel.GetTraceID)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc := order.NewService(memory.New(), log)
	if err := console.New(svc, os.Stdin, os.Stdout).Run(ctx); err != nil && ctx.Err() == nil {
		log.Error(ctx, "console", "error", err)
		os.Exit(1)
	}
}
