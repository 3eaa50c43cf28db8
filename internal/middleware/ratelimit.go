package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// RateLimit returns a per-client-IP rate limiting middleware backed by Redis,
// so limits hold across server instances. formatted is a limiter rate string
// such as "20-M" (20 requests per minute). On setup failure the middleware is
// a pass-through: rate limiting degrades, requests do not.
func RateLimit(client *redis.Client, formatted, prefix string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		logger.Warn("invalid rate limit format, limiter disabled", zap.String("rate", formatted), zap.Error(err))
		return func(c *gin.Context) { c.Next() }
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   "ratelimit:" + prefix,
		MaxRetry: 3,
	})
	if err != nil {
		logger.Warn("rate limit store unavailable, limiter disabled", zap.Error(err))
		return func(c *gin.Context) { c.Next() }
	}
	return mgin.NewMiddleware(limiter.New(store, rate))
}
