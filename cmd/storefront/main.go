package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Skotchmaster/lumina_shop/internal/app"
	"github.com/Skotchmaster/lumina_shop/internal/config"
	"github.com/Skotchmaster/lumina_shop/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel).With("service", "storefront")
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("init_error", "error", err)
		os.Exit(1)
	}

	runErr := a.Run(ctx)
	if err := a.Close(); err != nil {
		log.Error("close_error", "error", err)
	}
	if runErr != nil {
		log.Error("server_error", "error", runErr)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
