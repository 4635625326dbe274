package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

// RedisCache caches per-listing review pages
type RedisCache struct {
	client     *redis.Client
	reviewsTTL time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, reviewsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     client,
		reviewsTTL: reviewsTTL,
	}
}

func (c *RedisCache) listingReviewsKey(ref domain.ParentRef, status domain.ModerationStatus, limit int) string {
	return fmt.Sprintf("%s:%s:reviews:status:%s:limit:%d", ref.Kind, ref.ID, status, limit)
}

func (c *RedisCache) listingCacheKeysSet(ref domain.ParentRef) string {
	return fmt.Sprintf("%s:%s:cache_keys", ref.Kind, ref.ID)
}

// GetListingReviews returns a cached review page or domain.ErrNotFound on a miss
func (c *RedisCache) GetListingReviews(ctx context.Context, ref domain.ParentRef, status domain.ModerationStatus, limit int) (*domain.ListingReviews, error) {
	val, err := c.client.Get(ctx, c.listingReviewsKey(ref, status, limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var page domain.ListingReviews
	if err := json.Unmarshal(val, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// SetListingReviews stores a review page and tracks its key in the listing's key SET
func (c *RedisCache) SetListingReviews(ctx context.Context, ref domain.ParentRef, status domain.ModerationStatus, limit int, page *domain.ListingReviews) error {
	key := c.listingReviewsKey(ref, status, limit)
	trackingKey := c.listingCacheKeysSet(ref)

	data, err := json.Marshal(page)
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, c.reviewsTTL)
	pipe.SAdd(ctx, trackingKey, key)
	pipe.Expire(ctx, trackingKey, c.reviewsTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateListing removes every cached review page of a listing
func (c *RedisCache) InvalidateListing(ctx context.Context, ref domain.ParentRef) error {
	trackingKey := c.listingCacheKeysSet(ref)

	keys, err := c.client.SMembers(ctx, trackingKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	keys = append(keys, trackingKey)
	return c.client.Unlink(ctx, keys...).Err()
}
