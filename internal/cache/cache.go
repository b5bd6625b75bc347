// Package cache keeps per-owner board lists in Redis so dashboards do not hit
// PostgreSQL on every refresh.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrMiss reports that nothing is cached for the key.
	ErrMiss = errors.New("cache miss")
	// ErrStale reports that the list was invalidated after the version was read.
	ErrStale = errors.New("cache version changed")
)

// BoardLists caches ListByOwner results keyed by owner.
type BoardLists struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewBoardLists constructs a Redis-backed board list cache.
func NewBoardLists(rdb redis.UniversalClient, ttl time.Duration) *BoardLists {
	return &BoardLists{rdb: rdb, ttl: ttl, prefix: "kanban:boards:owner:"}
}

func (c *BoardLists) key(ownerID uuid.UUID) string { return c.prefix + ownerID.String() }

func (c *BoardLists) verKey(ownerID uuid.UUID) string { return c.key(ownerID) + ":ver" }

// Get returns the cached list and the owner's list version. On ErrMiss the
// version is still valid and must be handed back to Set.
func (c *BoardLists) Get(ctx context.Context, ownerID uuid.UUID) ([]model.Board, int64, error) {
	vals, err := c.rdb.MGet(ctx, c.key(ownerID), c.verKey(ownerID)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("cache get: %w", err)
	}
	var ver int64
	if v, ok := vals[1].(string); ok {
		if ver, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, 0, fmt.Errorf("cache version: %w", err)
		}
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, ver, ErrMiss
	}
	var out []model.Board
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, ver, fmt.Errorf("cache decode: %w", err)
	}
	if out == nil {
		out = []model.Board{}
	}
	return out, ver, nil
}

// Set stores the list with the configured TTL unless the owner's version
// moved past ver, in which case it returns ErrStale and stores nothing.
func (c *BoardLists) Set(ctx context.Context, ownerID uuid.UUID, ver int64, boards []model.Board) error {
	raw, err := json.Marshal(boards)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	vk := c.verKey(ownerID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != ver {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, c.key(ownerID), raw, c.ttl)
			return nil
		})
		return err
	}, vk)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

// Invalidate drops the owner's cached list and bumps its version so that
// reads started earlier cannot store their result.
func (c *BoardLists) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, c.key(ownerID))
		p.Incr(ctx, c.verKey(ownerID))
		return nil
	})
	return err
}

// Ping checks connectivity.
func (c *BoardLists) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
