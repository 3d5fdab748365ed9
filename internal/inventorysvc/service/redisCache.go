package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const searchKeyPrefix = "cardsearch:"

// RedisCache shares search pages between inventorysvc replicas. Cache
// failures are logged and treated as misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.CardPage, bool) {
	raw, err := c.client.Get(ctx, searchKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warnf("search cache get: %s", err)
		}
		return nil, false
	}

	var page models.CardPage
	if err := json.Unmarshal(raw, &page); err != nil {
		log.Warnf("search cache decode %s: %s", key, err)
		return nil, false
	}
	return &page, true
}

func (c *RedisCache) Set(ctx context.Context, key string, page *models.CardPage) {
	raw, err := json.Marshal(page)
	if err != nil {
		log.Warnf("search cache encode %s: %s", key, err)
		return
	}
	if err := c.client.Set(ctx, searchKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		log.Warnf("search cache set: %s", err)
	}
}

func (c *RedisCache) Purge(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, searchKeyPrefix+"*", 500).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Warnf("search cache scan: %s", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Warnf("search cache purge: %s", err)
	}
}
