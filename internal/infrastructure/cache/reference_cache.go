// Package cache provides a Redis read-through cache for reference data.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"supplyplan/internal/domain/reference"
	"supplyplan/pkg/logger"
)

const (
	keyPrefix = "supplyplan:ref:"
	keyIndex  = keyPrefix + "keys"
)

var _ reference.Repository = (*ReferenceCache)(nil)

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// ReferenceCache wraps a reference.Repository. Reads are served from Redis
// when present and stored with ttl otherwise. Redis failures are logged and
// the call falls through to the wrapped repository.
type ReferenceCache struct {
	inner  reference.Repository
	client *redis.Client
	ttl    time.Duration
}

// NewReferenceCache creates the cache decorator.
func NewReferenceCache(inner reference.Repository, client *redis.Client, ttl time.Duration) *ReferenceCache {
	return &ReferenceCache{inner: inner, client: client, ttl: ttl}
}

// cached loads key into dest from Redis or fills it from load.
func cached[T any](ctx context.Context, c *ReferenceCache, key string, load func() (T, error)) (T, error) {
	key = keyPrefix + key

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		logger.Warn(ctx, "discarding undecodable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		logger.Warn(ctx, "reference cache read failed", "key", key, "error", err)
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if data, err := json.Marshal(v); err == nil {
		pipe := c.client.TxPipeline()
		pipe.Set(ctx, key, data, c.ttl)
		pipe.SAdd(ctx, keyIndex, key)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warn(ctx, "reference cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}

// Invalidate drops every cached reference entry.
func (c *ReferenceCache) Invalidate(ctx context.Context) error {
	keys, err := c.client.SMembers(ctx, keyIndex).Result()
	if err != nil {
		return fmt.Errorf("list cached keys: %w", err)
	}
	keys = append(keys, keyIndex)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("drop cached keys: %w", err)
	}
	return nil
}

func (c *ReferenceCache) GetSubdivision(ctx context.Context, id int64) (*reference.Subdivision, error) {
	return cached(ctx, c, fmt.Sprintf("subdivision:%d", id), func() (*reference.Subdivision, error) {
		return c.inner.GetSubdivision(ctx, id)
	})
}

func (c *ReferenceCache) GetMaterial(ctx context.Context, id int64) (*reference.Material, error) {
	return cached(ctx, c, fmt.Sprintf("material:%d", id), func() (*reference.Material, error) {
		return c.inner.GetMaterial(ctx, id)
	})
}

func (c *ReferenceCache) ListSubdivisions(ctx context.Context, subType *reference.SubdivisionType) ([]reference.Subdivision, error) {
	key := "subdivisions:all"
	if subType != nil {
		key = "subdivisions:" + string(*subType)
	}
	return cached(ctx, c, key, func() ([]reference.Subdivision, error) {
		return c.inner.ListSubdivisions(ctx, subType)
	})
}

func (c *ReferenceCache) ListMaterials(ctx context.Context, matType *reference.MaterialType) ([]reference.Material, error) {
	key := "materials:all"
	if matType != nil {
		key = "materials:" + string(*matType)
	}
	return cached(ctx, c, key, func() ([]reference.Material, error) {
		return c.inner.ListMaterials(ctx, matType)
	})
}

func (c *ReferenceCache) ListRegulations(ctx context.Context, f reference.RegulationFilter) ([]reference.Regulation, error) {
	key := fmt.Sprintf("regulations:%d:%d:%d", f.SubdivisionID, f.MaterialID, f.Year)
	return cached(ctx, c, key, func() ([]reference.Regulation, error) {
		return c.inner.ListRegulations(ctx, f)
	})
}

func (c *ReferenceCache) ListTechnologicalCards(ctx context.Context, f reference.CardFilter) ([]reference.TechnologicalCard, error) {
	key := fmt.Sprintf("cards:%d:%d:%d", f.SubdivisionID, f.RawMaterialID, f.FinishedProductID)
	return cached(ctx, c, key, func() ([]reference.TechnologicalCard, error) {
		return c.inner.ListTechnologicalCards(ctx, f)
	})
}

func (c *ReferenceCache) ListSupplySources(ctx context.Context, year int) ([]reference.SupplySource, error) {
	return cached(ctx, c, fmt.Sprintf("sources:%d", year), func() ([]reference.SupplySource, error) {
		return c.inner.ListSupplySources(ctx, year)
	})
}
