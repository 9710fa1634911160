package cache

import (
	"github.com/redis/go-redis/v9"

	"runmatch/internal/config"
)

// NewRedisClient builds a client from engine config. Callers decide
// whether a failed connection is fatal; the client dials lazily.
func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
