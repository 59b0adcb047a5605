// Command jarvisfi runs the JarvisFi API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jarvisfi/jarvisfi/internal/app"
	"github.com/jarvisfi/jarvisfi/internal/config"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault("main").WithError(err).Error("configuration error")
		return 1
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(startCtx, cfg)
	cancel()
	if err != nil {
		logger.NewDefault("main").WithError(err).Error("startup failed")
		return 1
	}
	log := application.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start services")
		return 1
	}
	log.WithField("version", cfg.App.Version).Info("jarvisfi is up")

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-application.ServerErr():
		if err != nil {
			log.WithError(err).Error("http server failed")
			exitCode = 1
		}
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancelStop()
	if err := application.Stop(stopCtx); err != nil {
		log.WithError(err).Error("shutdown incomplete")
		return 1
	}

	log.Info("goodbye")
	return exitCode
}
