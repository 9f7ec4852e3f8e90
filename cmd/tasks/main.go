package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Novip1906/tasks-realtime/internal/app"
	"github.com/Novip1906/tasks-realtime/internal/config"
	"github.com/Novip1906/tasks-realtime/pkg/logging"
)

func main() {
	cfg := config.MustLoadConfig()
	log := logging.SetupLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := app.NewServer(cfg, log)
	defer srv.Close()

	if err := srv.Run(ctx); err != nil {
		log.Error("server run error", logging.Err(err))
		return
	}
	log.Info("server stopped")
}
