package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docvault/internal/config"
	"docvault/internal/model"
)

// DocumentCache is a read-through cache for document metadata. All methods
// are best-effort from the caller's point of view: the service logs cache
// errors and falls back to the repository.
type DocumentCache interface {
	// Get returns the cached document or (nil, nil) on a miss.
	Get(ctx context.Context, id, userID int64) (*model.Document, error)
	Set(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, id, userID int64) error
}

// redisDocumentCache stores JSON-encoded documents in Redis. The owner's id
// is part of the key, so a hit can never serve another tenant's document.
type redisDocumentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies connectivity.
func NewRedis(cfg config.RedisConfig) (DocumentCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := time.Duration(cfg.TTLSec) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisDocumentCache{client: client, ttl: ttl}, nil
}

var _ DocumentCache = (*redisDocumentCache)(nil)

// envelope re-adds the fields the model hides from client JSON (filepath);
// the cache is internal, so losing them here would break download/delete
// served from a cache hit.
type envelope struct {
	model.Document
	Filepath string `json:"filepath"`
}

func (c *redisDocumentCache) Get(ctx context.Context, id, userID int64) (*model.Document, error) {
	val, err := c.client.Get(ctx, key(id, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // miss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var env envelope
	if err := json.Unmarshal([]byte(val), &env); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	doc := env.Document
	doc.Filepath = env.Filepath
	return &doc, nil
}

func (c *redisDocumentCache) Set(ctx context.Context, doc *model.Document) error {
	data, err := json.Marshal(envelope{Document: *doc, Filepath: doc.Filepath})
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key(doc.ID, doc.UserID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *redisDocumentCache) Delete(ctx context.Context, id, userID int64) error {
	if err := c.client.Del(ctx, key(id, userID)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func key(id, userID int64) string {
	return fmt.Sprintf("doc:%d:%d", userID, id)
}
