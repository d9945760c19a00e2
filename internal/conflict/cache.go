// Package conflict detects contradicting triples and holds pending
// conflicts until a caller resolves them.
package conflict

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/models"
)

const ttl = time.Hour
const memCapacity = 100

// Cache holds pending ConflictInfo records keyed by conflict id, backed by
// Redis when configured, falling back to a bounded in-memory map that
// evicts by first insertion when full.
type Cache struct {
	rdb *redis.Client

	mu    sync.Mutex
	mem   map[string]models.ConflictInfo
	order []string
}

// NewCache builds a Cache. rdb may be nil, in which case the cache is
// purely in-memory.
func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb, mem: map[string]models.ConflictInfo{}}
}

func redisKey(id string) string { return "conflict:" + id }

// Put stores a conflict, evicting the oldest in-memory entry if the
// fallback map is full.
func (c *Cache) Put(ctx context.Context, info models.ConflictInfo) error {
	if info.StoredAt == 0 {
		info.StoredAt = time.Now().Unix()
	}
	if c.rdb != nil {
		b, err := json.Marshal(info)
		if err != nil {
			return errs.Wrap(errs.Internal, err, "marshal conflict")
		}
		if err := c.rdb.Set(ctx, redisKey(info.ConflictID), b, ttl).Err(); err != nil {
			return errs.Wrap(errs.Dependency, err, "store conflict in redis")
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.mem[info.ConflictID]; !exists && len(c.mem) >= memCapacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.mem, oldest)
	}
	if _, exists := c.mem[info.ConflictID]; !exists {
		c.order = append(c.order, info.ConflictID)
	}
	c.mem[info.ConflictID] = info
	return nil
}

// Get retrieves a pending conflict by id.
func (c *Cache) Get(ctx context.Context, id string) (*models.ConflictInfo, error) {
	if c.rdb != nil {
		b, err := c.rdb.Get(ctx, redisKey(id)).Bytes()
		if err == redis.Nil {
			return nil, errs.NotFoundf("conflict %q not found or expired", id)
		}
		if err != nil {
			return nil, errs.Wrap(errs.Dependency, err, "fetch conflict from redis")
		}
		var info models.ConflictInfo
		if err := json.Unmarshal(b, &info); err != nil {
			return nil, errs.Wrap(errs.Internal, err, "unmarshal conflict")
		}
		return &info, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.mem[id]
	if !ok {
		return nil, errs.NotFoundf("conflict %q not found or expired", id)
	}
	return &info, nil
}

// Delete removes a resolved conflict.
func (c *Cache) Delete(ctx context.Context, id string) error {
	if c.rdb != nil {
		if err := c.rdb.Del(ctx, redisKey(id)).Err(); err != nil {
			return errs.Wrap(errs.Dependency, err, "delete conflict from redis")
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.mem, id)
	for i, cid := range c.order {
		if cid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}
