package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/linktrace/internal/tracking"
)

// RedisLinkCache wraps a LinkRepository with Redis caching for the two
// hot lookups on the redirect and telemetry paths (by slug, by id).
// Cache errors are ignored; the underlying store stays authoritative.
type RedisLinkCache struct {
	store   tracking.LinkRepository
	client  *redis.Client
	prefix  string
	slugKey string
	ttl     time.Duration
}

// NewRedisLinkCache creates a new Redis-cached link repository decorator.
func NewRedisLinkCache(
	store tracking.LinkRepository, client *redis.Client, ttl time.Duration,
) *RedisLinkCache {
	return &RedisLinkCache{
		store:   store,
		client:  client,
		prefix:  "link:",
		slugKey: "link_slugs",
		ttl:     ttl,
	}
}

// Create stores through to the underlying repository and primes the cache.
func (r *RedisLinkCache) Create(ctx context.Context, name string, slug tracking.Slug) (*tracking.Link, error) {
	link, err := r.store.Create(ctx, name, slug)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

// GetBySlug checks the slug index cache first, then the store.
func (r *RedisLinkCache) GetBySlug(ctx context.Context, slug tracking.Slug) (*tracking.Link, error) {
	if id, err := r.client.HGet(ctx, r.slugKey, string(slug)).Result(); err == nil {
		if link, err := r.getFromCache(ctx, id); err == nil {
			return link, nil
		}
	}

	link, err := r.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

// GetByID checks the cache first, then the store.
func (r *RedisLinkCache) GetByID(ctx context.Context, id tracking.LinkID) (*tracking.Link, error) {
	if link, err := r.getFromCache(ctx, strconv.FormatInt(int64(id), 10)); err == nil {
		return link, nil
	}

	link, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

// List always goes to the store; the listing is an admin path.
func (r *RedisLinkCache) List(ctx context.Context) ([]tracking.Link, error) {
	return r.store.List(ctx)
}

// Delete removes the link and invalidates its cache entries.
func (r *RedisLinkCache) Delete(ctx context.Context, id tracking.LinkID) error {
	link, err := r.store.GetByID(ctx, id)
	if err == nil {
		pipe := r.client.Pipeline()
		pipe.Del(ctx, r.prefix+strconv.FormatInt(int64(id), 10))
		pipe.HDel(ctx, r.slugKey, string(link.Slug))
		_, _ = pipe.Exec(ctx)
	}

	return r.store.Delete(ctx, id)
}

func (r *RedisLinkCache) getFromCache(ctx context.Context, id string) (*tracking.Link, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+id).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, tracking.ErrNotFound
	}

	linkID, err := strconv.ParseInt(result["id"], 10, 64)
	if err != nil {
		return nil, err
	}

	var createdAt time.Time

	if ts, ok := result["created_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			createdAt = time.Unix(0, nanos)
		}
	}

	return &tracking.Link{
		ID:        tracking.LinkID(linkID),
		Slug:      tracking.Slug(result["slug"]),
		Name:      result["name"],
		CreatedAt: createdAt,
	}, nil
}

func (r *RedisLinkCache) cacheLink(ctx context.Context, link *tracking.Link) {
	pipe := r.client.Pipeline()
	key := r.prefix + strconv.FormatInt(int64(link.ID), 10)

	pipe.HSet(ctx, key, map[string]interface{}{
		"id":         int64(link.ID),
		"slug":       string(link.Slug),
		"name":       link.Name,
		"created_at": link.CreatedAt.UnixNano(),
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	pipe.HSet(ctx, r.slugKey, string(link.Slug), int64(link.ID))

	_, _ = pipe.Exec(ctx)
}

// Compile-time check.
var _ tracking.LinkRepository = (*RedisLinkCache)(nil)
