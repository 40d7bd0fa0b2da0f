package utils

import (
	"context"
	"fmt"
	"time"

	"sportevents/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient is the generic cache client used for list snapshots and preferences.
var CacheClient *redis.Client

// InitCache initializes the generic Redis cache client.
// A failed ping is returned rather than fatal so the service can start degraded.
func InitCache() error {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := CacheClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis (Cache): %w", err)
	}
	return nil
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		_ = InitCache()
	}
	return CacheClient
}
