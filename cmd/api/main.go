package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jglobalproperties/estate_api/internal/config"
	"github.com/jglobalproperties/estate_api/internal/delivery/events"
	httpDelivery "github.com/jglobalproperties/estate_api/internal/delivery/http"
	"github.com/jglobalproperties/estate_api/internal/delivery/http/handler"
	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/cache"
	"github.com/jglobalproperties/estate_api/internal/pkg/database"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
	cacheRepo "github.com/jglobalproperties/estate_api/internal/repository/cache"
	"github.com/jglobalproperties/estate_api/internal/repository/postgres"
	"github.com/jglobalproperties/estate_api/internal/repository/storage"
	"github.com/jglobalproperties/estate_api/internal/usecase/auth"
	"github.com/jglobalproperties/estate_api/internal/usecase/blog"
	"github.com/jglobalproperties/estate_api/internal/usecase/event"
	"github.com/jglobalproperties/estate_api/internal/usecase/listing"
	"github.com/jglobalproperties/estate_api/internal/usecase/media"
	"github.com/jglobalproperties/estate_api/internal/usecase/moderation"
	"github.com/jglobalproperties/estate_api/internal/usecase/newsletter"

	_ "github.com/jglobalproperties/estate_api/docs"
)

// @title Estate API
// @version 1.0
// @description Real-estate listings with units and images, moderated reviews and blog comments, events, newsletter and media management.

// @contact.name API Support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name Listings
// @tag.description House and land listings

// @tag.name Reviews
// @tag.description Listing reviews and their moderation

// @tag.name Blogs
// @tag.description Blog posts

// @tag.name Comments
// @tag.description Blog comments and their moderation

// @tag.name Auth
// @tag.description Administrator accounts

// @tag.name Newsletter
// @tag.description Newsletter subscriptions

// @tag.name Media
// @tag.description Image uploads

// @tag.name Events
// @tag.description Open days, inspections and other dated events

// eventPublisher is satisfied by both the JetStream publisher and the no-op fallback
type eventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewWithLevel(cfg.Env, cfg.LogLevel)
	logger.SetGlobalLogger(appLogger)
	appLogger.Info("Starting Estate API...")

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, appLogger, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL successfully")

	if err := database.RunMigrations(db, cfg.Server.MigrationsDir, appLogger); err != nil {
		appLogger.Fatal("Failed to run migrations", err)
	}

	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(cfg, appLogger, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis successfully")

	appLogger.Info("Connecting to NATS...")
	var publisher eventPublisher = events.NopPublisher{}
	natsPublisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Warnf("NATS unavailable, events will not be published: %v", err)
	} else {
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	objectStorage, err := storage.NewS3Storage(context.Background(), cfg.Storage.Region, cfg.Storage.Bucket, cfg.Storage.CDNDomain)
	if err != nil {
		appLogger.Fatal("Failed to configure object storage", err)
	}

	listingRepo := postgres.NewListingRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	blogRepo := postgres.NewBlogRepository(db)
	commentRepo := postgres.NewCommentRepository(db)
	userRepo := postgres.NewUserRepository(db)
	subscriberRepo := postgres.NewSubscriberRepository(db)
	mediaRepo := postgres.NewMediaRepository(db)
	assetRepo := postgres.NewListingAssetRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	redisCache := cacheRepo.NewRedisCache(redisClient, cfg.Cache.ListingReviewsTTL)

	engine := moderation.NewEngine(reviewRepo, commentRepo, listingRepo, blogRepo, redisCache, publisher, appLogger)
	mediaService := media.NewService(mediaRepo, objectStorage, cfg.Storage, appLogger)
	listingService := listing.NewService(listingRepo, assetRepo, mediaService, redisCache, appLogger)
	blogService := blog.NewService(blogRepo, appLogger)
	authService := auth.NewService(userRepo, cfg.Auth, appLogger)
	newsletterService := newsletter.NewService(subscriberRepo, publisher, appLogger)
	eventService := event.NewService(eventRepo, mediaService, appLogger)

	router := httpDelivery.NewRouter(httpDelivery.Handlers{
		Houses:     handler.NewListingHandler(domain.ParentHouse, listingService, appLogger),
		Lands:      handler.NewListingHandler(domain.ParentLand, listingService, appLogger),
		Reviews:    handler.NewReviewHandler(engine, appLogger),
		Blogs:      handler.NewBlogHandler(blogService, appLogger),
		Comments:   handler.NewCommentHandler(engine, appLogger),
		Auth:       handler.NewAuthHandler(authService, cfg.Auth.SecureCookies, appLogger),
		Newsletter: handler.NewNewsletterHandler(newsletterService, appLogger),
		Media:      handler.NewMediaHandler(mediaService, appLogger),
		Events:     handler.NewEventHandler(eventService, appLogger),
		Probes:     map[string]httpDelivery.Probe{
			"postgres": db.PingContext,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	}, authService, cfg, appLogger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}

	// Let background event publications finish before the NATS connection closes
	engine.Wait()
	newsletterService.Wait()

	appLogger.Info("Server stopped gracefully")
}
