package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jglobalproperties/estate_api/internal/config"
	"github.com/jglobalproperties/estate_api/internal/delivery/events"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewWithLevel(cfg.Env, cfg.LogLevel)
	logger.SetGlobalLogger(appLogger)
	appLogger.Info("Starting notifier service...")

	consumer, err := events.NewConsumer(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS consumer", err)
	}
	defer consumer.Close()

	for _, subject := range []string{events.SubjectModeration, events.SubjectNewsletter} {
		if err := consumer.Subscribe(subject, events.LoggingHandler(appLogger)); err != nil {
			appLogger.Fatal("Failed to subscribe to "+subject, err)
		}
	}

	appLogger.Info("Notifier service started and listening for events...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down notifier service...")
}
