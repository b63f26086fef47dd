package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// clientTTL is how long an idle client keeps its bucket before it is
// evicted and starts fresh.
const clientTTL = 10 * time.Minute

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
}

// RateLimiter throttles per client IP. Each client gets its own token
// bucket so one noisy caretaker dashboard cannot starve everyone else.
type RateLimiter struct {
	config  RateLimiterConfig
	clients *gocache.Cache
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		config:  config,
		clients: gocache.New(clientTTL, 2*clientTTL),
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	if cached, ok := rl.clients.Get(ip); ok {
		return cached.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rl.config.Rate, rl.config.Burst)
	rl.clients.SetDefault(ip, limiter)
	return limiter
}
