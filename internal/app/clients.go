package app

import (
	"fmt"

	"github.com/Anil1013/mob13r-platform-sub000/internal/clients/redis"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/advclient"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

type Clients struct {
	// Velocity is nil when REDIS_ADDR is unset; fraud velocity checks are
	// then disabled.
	Velocity   *redis.VelocityCounter
	Advertiser *advclient.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var velocity *redis.VelocityCounter
	if cfg.Redis.Addr != "" {
		v, err := redis.NewVelocityCounter(redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis velocity counter: %w", err)
		}
		velocity = v
	} else if cfg.Fraud.VelocityLimit > 0 {
		log.Warn("FRAUD_VELOCITY_LIMIT set without REDIS_ADDR; velocity checks disabled")
	}

	// Advertisers
	adv := advclient.New(advclient.Config{
		Timeout:   cfg.Advertiser.Timeout,
		UserAgent: cfg.Advertiser.UserAgent,
	}, log)

	return Clients{
		Velocity:   velocity,
		Advertiser: adv,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Velocity != nil {
		_ = c.Velocity.Close()
	}
}
