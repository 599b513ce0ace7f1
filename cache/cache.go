// Package cache memoizes function results in Redis.
//
// Keys have the form
//
//	{prefix}:{namespace}:v{version}:{md5(name + json(args))}
//
// and the version of a namespace lives under {prefix}:{namespace}:version.
// Invalidate bumps it, which orphans every key of the namespace at once;
// the orphans expire through their TTL.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Cache builds keys and reads and writes memoized values. A nil *Cache is
// valid and caches nothing.
type Cache struct {
	store  Store
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func New(store Store, prefix string, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:  store,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *Cache) versionKey(namespace string) string {
	return c.prefix + ":" + namespace + ":version"
}

func (c *Cache) version(ctx context.Context, namespace string) (int64, error) {
	raw, err := c.store.Get(ctx, c.versionKey(namespace))
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cache version %q: %w", raw, err)
	}
	return v, nil
}

// Key returns the current key for a call of name with args.
func (c *Cache) Key(ctx context.Context, namespace, name string, args any) (string, error) {
	version, err := c.version(ctx, namespace)
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode cache args: %w", err)
	}
	sum := md5.Sum(append([]byte(name+":"), encoded...))
	return fmt.Sprintf("%s:%s:v%d:%s", c.prefix, namespace, version, hex.EncodeToString(sum[:])), nil
}

// Invalidate drops every memoized value of namespace.
func (c *Cache) Invalidate(ctx context.Context, namespace string) error {
	if c == nil {
		return nil
	}
	v, err := c.store.Incr(ctx, c.versionKey(namespace))
	if err != nil {
		return fmt.Errorf("invalidate %s: %w", namespace, err)
	}
	c.logger.Info("cache invalidated", zap.String("namespace", namespace), zap.Int64("version", v))
	return nil
}

// Func is a call that can be memoized.
type Func[A, R any] func(ctx context.Context, args A) (R, error)

// Wrap memoizes fn under namespace/name. Successful results are stored as
// JSON for the cache TTL; errors are never stored. When the store fails
// the failure is logged and fn is called directly.
func Wrap[A, R any](c *Cache, namespace, name string, fn Func[A, R]) Func[A, R] {
	if c == nil {
		return fn
	}
	return func(ctx context.Context, args A) (R, error) {
		key, err := c.Key(ctx, namespace, name, args)
		if err != nil {
			c.logger.Warn("cache key failed", zap.String("namespace", namespace), zap.String("name", name), zap.Error(err))
			return fn(ctx, args)
		}

		raw, err := c.store.Get(ctx, key)
		switch {
		case err == nil:
			var cached R
			decodeErr := json.Unmarshal(raw, &cached)
			if decodeErr == nil {
				return cached, nil
			}
			c.logger.Warn("cached value undecodable", zap.String("key", key), zap.Error(decodeErr))
		case !errors.Is(err, ErrMiss):
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}

		result, err := fn(ctx, args)
		if err != nil {
			return result, err
		}
		encoded, err := json.Marshal(result)
		if err != nil {
			c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
			return result, nil
		}
		if err := c.store.Set(ctx, key, encoded, c.ttl); err != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
		return result, nil
	}
}
