package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// VelocityCounter implements windowed counters on Redis INCR with a
// first-write expiry, shared by every routing instance.
type VelocityCounter struct {
	log    *logger.Logger
	rdb    goredis.Cmdable
	closer func() error
	prefix string
}

func NewVelocityCounter(cfg Config, log *logger.Logger) (*VelocityCounter, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("missing redis addr")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	c := NewVelocityCounterWithClient(rdb, cfg.Prefix, log)
	c.closer = rdb.Close
	return c, nil
}

// NewVelocityCounterWithClient wraps an existing client; Close is a no-op.
func NewVelocityCounterWithClient(rdb goredis.Cmdable, prefix string, log *logger.Logger) *VelocityCounter {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "pin"
	}
	return &VelocityCounter{
		log:    log.With("service", "RedisVelocityCounter"),
		rdb:    rdb,
		prefix: prefix,
	}
}

func (c *VelocityCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	full := c.prefix + ":" + key
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, full)
	pipe.ExpireNX(ctx, full, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *VelocityCounter) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *VelocityCounter) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
