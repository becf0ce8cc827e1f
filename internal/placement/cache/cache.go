// Package cache holds the aggregate placement report between recomputations.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"campusgate/internal/placement/models"
)

const (
	reportKey     = "campusgate:placements:report:v1"
	generationKey = "campusgate:placements:report:generation"
)

// RedisCache shares the report across instances. Invalidation bumps a
// generation counter and deletes the report; Set is a WATCHed write that
// stores nothing once the generation has moved past the one the caller read.
type RedisCache struct {
	client redis.UniversalClient
	key    string
	genKey string
}

func NewRedis(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client, key: reportKey, genKey: generationKey}
}

func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	return readGeneration(ctx, c.client, c.genKey)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, client getter, key string) (int64, error) {
	raw, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get report generation: %w", err)
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse report generation: %w", err)
	}
	return gen, nil
}

func (c *RedisCache) Get(ctx context.Context) (*models.Report, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get report: %w", err)
	}
	var r models.Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, false, fmt.Errorf("decode report: %w", err)
	}
	return &r, true, nil
}

// Set stores r when the generation is still gen and reports whether it did.
func (c *RedisCache) Set(ctx context.Context, r *models.Report, ttl time.Duration, gen int64) (bool, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return false, fmt.Errorf("encode report: %w", err)
	}
	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, c.genKey)
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key, raw, ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, c.genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("set report: %w", err)
	}
	return stored, nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey)
		pipe.Del(ctx, c.key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate report: %w", err)
	}
	return nil
}

// MemoryCache is the single-process fallback when Redis is not configured.
type MemoryCache struct {
	mu         sync.Mutex
	report     *models.Report
	expires    time.Time
	generation int64
	now        func() time.Time
}

func NewMemory() *MemoryCache {
	return &MemoryCache{now: time.Now}
}

func (c *MemoryCache) Get(context.Context) (*models.Report, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.report == nil || !c.now().Before(c.expires) {
		return nil, false, nil
	}
	r := *c.report
	return &r, true, nil
}

func (c *MemoryCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *MemoryCache) Set(_ context.Context, r *models.Report, ttl time.Duration, gen int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false, nil
	}
	cp := *r
	c.report = &cp
	c.expires = c.now().Add(ttl)
	return true, nil
}

func (c *MemoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report = nil
	c.generation++
	return nil
}
