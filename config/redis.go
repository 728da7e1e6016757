package config

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var RedisClient *redis.Client

// InitRedis connects the rate-limiter backend. The limiter fails open, so a
// missing Redis only disables throttling instead of taking the API down.
func InitRedis() {
	addr := getEnv("REDIS_ADDR", "127.0.0.1:6379")
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logrus.WithError(err).Warn("failed to connect to redis, rate limiting disabled")
		RedisClient = nil
		return
	}
	RedisClient = client
	logrus.Info("redis connected")
}
