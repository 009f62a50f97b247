package middlewares

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var (
	redisOnce   sync.Once
	redisClient *redis.Client
)

func throttleClient() *redis.Client {
	redisOnce.Do(func() {
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			return
		}
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
	})
	return redisClient
}

// RequestThrottle is a fixed-window per-IP limiter for the user-facing
// endpoints. This is plain request throttling, not fraud detection: the
// fraud gate's velocity checks run against durable ledger history and must
// not be replaced by this counter. Disabled when REDIS_ADDR is unset, and
// never blocks when redis is unreachable.
func RequestThrottle(limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		client := throttleClient()
		if client == nil {
			return c.Next()
		}

		key := fmt.Sprintf("throttle:%s:%s", c.Path(), c.IP())
		ctx := c.Context()

		n, err := client.Incr(ctx, key).Result()
		if err != nil {
			log.WithError(err).Warn("request throttle unavailable")
			return c.Next()
		}
		if n == 1 {
			client.Expire(ctx, key, window)
		}
		if n > int64(limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "TOO_MANY_REQUESTS",
			})
		}

		return c.Next()
	}
}
