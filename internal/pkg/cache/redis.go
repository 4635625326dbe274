package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jglobalproperties/estate_api/internal/config"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

const pingTimeout = 5 * time.Second

// NewRedisClient builds a pooled client from cfg and checks it with a ping
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  pingTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// WaitForRedis retries NewRedisClient up to maxRetries times, doubling the delay after
// every failure up to eight times retryDelay
func WaitForRedis(cfg *config.Config, log *logger.Logger, maxRetries int, retryDelay time.Duration) (*redis.Client, error) {
	var err error
	delay := retryDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		var client *redis.Client
		if client, err = NewRedisClient(cfg); err == nil {
			return client, nil
		}

		if attempt == maxRetries {
			break
		}

		log.WithFields(map[string]interface{}{
			"attempt": attempt,
			"addr":    cfg.GetRedisAddr(),
			"retry":   delay.String(),
		}).Warnf("Redis not ready: %v", err)

		time.Sleep(delay)
		if delay < 8*retryDelay {
			delay *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", maxRetries, err)
}
