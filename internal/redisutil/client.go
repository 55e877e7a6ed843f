package redisutil

import (
	"context"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/config"

	"github.com/go-redis/redis/v8"
)

// NewClient creates a redis client from config.
func NewClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping tests the redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// Close closes the redis connection.
func Close(client *redis.Client) error {
	return client.Close()
}
