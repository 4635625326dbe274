package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jglobalproperties/estate_api/internal/config"
	"github.com/jglobalproperties/estate_api/internal/delivery/events"
	"github.com/jglobalproperties/estate_api/internal/pkg/cache"
	"github.com/jglobalproperties/estate_api/internal/pkg/database"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
	cacheRepo "github.com/jglobalproperties/estate_api/internal/repository/cache"
	"github.com/jglobalproperties/estate_api/internal/repository/postgres"
	"github.com/jglobalproperties/estate_api/internal/usecase/moderation"
	"github.com/jglobalproperties/estate_api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewWithLevel(cfg.Env, cfg.LogLevel)
	logger.SetGlobalLogger(appLogger)
	appLogger.Info("Starting aggregate reconciler...")

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, appLogger, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()
	appLogger.Info("Connected to database")

	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(cfg, appLogger, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()

	listingRepo := postgres.NewListingRepository(db)
	blogRepo := postgres.NewBlogRepository(db)
	engine := moderation.NewEngine(
		postgres.NewReviewRepository(db),
		postgres.NewCommentRepository(db),
		listingRepo,
		blogRepo,
		cacheRepo.NewRedisCache(redisClient, cfg.Cache.ListingReviewsTTL),
		events.NopPublisher{},
		appLogger,
	)

	reconciler := worker.NewReconciler(engine, cfg.Reconciler.DebounceWindow, appLogger)

	sweeps, err := reconciler.StartSweeps(cfg.Reconciler.Cron, listingRepo, blogRepo)
	if err != nil {
		appLogger.Fatal("Failed to schedule aggregate sweep", err)
	}

	appLogger.Info("Connecting to NATS JetStream...")
	nc, err := events.Connect(cfg.NATS.URL, "estate-reconciler", appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to NATS", err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		appLogger.Fatal("Failed to create JetStream context", err)
	}

	streamConfig := events.NewStreamConfig(js, appLogger)
	if err := streamConfig.EnsureStream(events.ModerationStream); err != nil {
		appLogger.Fatal("Failed to ensure stream", err)
	}
	if err := streamConfig.EnsureReconcilerConsumer(); err != nil {
		appLogger.Fatal("Failed to ensure consumer", err)
	}

	sub, err := js.PullSubscribe(events.SubjectModeration, events.ReconcilerConsumer, nats.ManualAck())
	if err != nil {
		appLogger.Fatal("Failed to subscribe to JetStream consumer", err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			appLogger.Error("Failed to unsubscribe from JetStream", err)
		}
	}()

	appLogger.WithFields(map[string]any{
		"stream":   events.ModerationStream.Name,
		"consumer": events.ReconcilerConsumer,
	}).Info("Subscribed to JetStream consumer")

	stop := make(chan struct{})
	go consume(sub, reconciler, appLogger, stop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh
	appLogger.Info("Received shutdown signal")
	close(stop)

	<-sweeps.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := reconciler.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Error during shutdown", err)
	}

	appLogger.Info("Aggregate reconciler stopped")
}

// consume fetches moderation events in batches until stop is closed. Events are acked
// once scheduled: the recomputation reads current rows, so a lost one is healed by the
// next event for the same parent or by the sweep.
func consume(sub *nats.Subscription, reconciler *worker.Reconciler, log *logger.Logger, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			log.Error("Failed to fetch messages from JetStream", err)
			time.Sleep(5 * time.Second)
			continue
		}

		for _, msg := range msgs {
			if err := reconciler.HandleEvent(msg.Data); err != nil {
				log.Error("Failed to handle event", err)

				// Redelivered with backoff until MaxDeliveryAttempts, then discarded
				if nackErr := msg.Nak(); nackErr != nil {
					log.Error("Failed to NACK message", nackErr)
				}
				continue
			}

			if ackErr := msg.Ack(); ackErr != nil {
				log.Error("Failed to ACK message", ackErr)
			}
		}
	}
}
