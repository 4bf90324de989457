package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wastebill/wastebill-backend/config"
	"github.com/wastebill/wastebill-backend/pkg/logger"
)

var client *redis.Client

// ErrCacheMiss is returned by GetJSON when the key does not exist or redis is disabled.
var ErrCacheMiss = errors.New("cache miss")

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		_ = c.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	client = c
	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance, nil when redis is disabled
func GetClient() *redis.Client {
	return client
}

// Enabled reports whether a client has been initialized
func Enabled() bool {
	return client != nil
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		err := client.Close()
		client = nil
		return err
	}
	return nil
}

func blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:%s", jti)
}

// BlacklistToken revokes a token id until it would have expired anyway
func BlacklistToken(ctx context.Context, jti string, expiry time.Duration) error {
	if client == nil {
		return nil
	}
	if expiry <= 0 {
		return nil
	}

	logger.Debug("Adding token to blacklist", map[string]interface{}{
		"expiry": expiry.String(),
	})

	if err := client.Set(ctx, blacklistKey(jti), "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err, nil)
		return err
	}
	return nil
}

// IsTokenBlacklisted checks if a token id is in the blacklist
func IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	if client == nil {
		return false, nil
	}

	val, err := client.Get(ctx, blacklistKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err, nil)
		return false, err
	}
	return val == "revoked", nil
}

// SetJSON stores v as JSON under key
func SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	if err := client.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Warn("Failed to write cache", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// GetJSON decodes the value under key into dest
func GetJSON(ctx context.Context, key string, dest interface{}) error {
	if client == nil {
		return ErrCacheMiss
	}
	data, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete removes cache keys
func Delete(ctx context.Context, keys ...string) error {
	if client == nil || len(keys) == 0 {
		return nil
	}
	if err := client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("Failed to delete cache keys", map[string]interface{}{
			"keys":  keys,
			"error": err.Error(),
		})
		return err
	}
	return nil
}
