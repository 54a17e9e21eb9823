package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/entitycache/internal/config"
	"github.com/unkn0wn-root/entitycache/provider"
	"github.com/unkn0wn-root/entitycache/provider/bigcache"
	"github.com/unkn0wn-root/entitycache/provider/redis"
	"github.com/unkn0wn-root/entitycache/provider/ristretto"
)

// newProvider returns nil, nil for "none".
func newProvider(ctx context.Context, cfg config.Archive) (provider.Provider, error) {
	switch cfg.Provider {
	case "none":
		return nil, nil
	case "bigcache":
		return bigcache.New(bigcache.Config{LifeWindow: cfg.TTL})
	case "ristretto":
		return ristretto.New(ristretto.Config{
			NumCounters: 1e5,
			MaxCost:     64 << 20,
			BufferItems: 64,
			SyncWrites:  true,
		})
	case "redis":
		p, err := redis.New(redis.Config{
			Client:      goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr}),
			CloseClient: true,
		})
		if err != nil {
			return nil, err
		}
		if err := p.Ping(ctx); err != nil {
			_ = p.Close(ctx)
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown archive provider %q", cfg.Provider)
	}
}
