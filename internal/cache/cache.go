// Package cache is a read-through response cache backed by Redis, with an in-process
// fallback for single-instance and test runs.
//
// Cache failures never fail a request: reads fall through to the loader and write
// errors are logged.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

var ErrMiss = errors.New("cache: miss")

// Store is a byte-oriented key/value store with TTLs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	Name() string
}

// Observer is told about every lookup. metrics.Registry implements it.
type Observer interface {
	ObserveCache(store string, hit bool)
}

type Cache struct {
	store    Store
	log      *slog.Logger
	observer Observer
	group    singleflight.Group
}

func New(store Store, log *slog.Logger, obs Observer) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{store: store, log: log, observer: obs}
}

// Key joins parts into a namespaced key, e.g. Key("tasks", "list", h) = "sprintlite:tasks:list:h".
func Key(parts ...string) string {
	return "sprintlite:" + strings.Join(parts, ":")
}

// Invalidate drops every key under prefix.
func (c *Cache) Invalidate(ctx context.Context, prefix string) {
	if err := c.store.DeletePrefix(ctx, prefix); err != nil {
		c.log.WarnContext(ctx, "cache invalidate failed", "prefix", prefix, "err", err)
	}
}

func (c *Cache) observe(hit bool) {
	if c.observer != nil {
		c.observer.ObserveCache(c.store.Name(), hit)
	}
}

// Remember returns the cached value for key, or calls load, stores its result for ttl and
// returns it. Concurrent misses on the same key share one load. The bool reports a hit.
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	var zero T

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		if jerr := json.Unmarshal(raw, &v); jerr == nil {
			c.observe(true)
			return v, true, nil
		}
		c.log.WarnContext(ctx, "cache entry undecodable, reloading", "key", key)
	case !errors.Is(err, ErrMiss):
		c.log.WarnContext(ctx, "cache get failed", "key", key, "err", err)
	}
	c.observe(false)

	v, err, _ := c.group.Do(key, func() (any, error) {
		// The load is shared by every waiter, so one caller going away must not cancel it.
		lctx := context.WithoutCancel(ctx)
		val, err := load(lctx)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(val); err != nil {
			c.log.WarnContext(lctx, "cache encode failed", "key", key, "err", err)
		} else if err := c.store.Set(lctx, key, b, ttl); err != nil {
			c.log.WarnContext(lctx, "cache set failed", "key", key, "err", err)
		}
		return val, nil
	})
	if err != nil {
		return zero, false, err
	}
	return v.(T), false, nil
}
