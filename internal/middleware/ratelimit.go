package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"

	"pdf-chat-go/pkg/log"
)

// TooManyRequestsDetail is the body detail of every 429 response.
const TooManyRequestsDetail = "Too many requests, please slow down."

// Limiter decides whether one more request under key fits in a budget of
// perMinute requests per minute.
type Limiter interface {
	Allow(ctx context.Context, key string, perMinute int) (bool, error)
}

// MemoryLimiter counts requests per key in fixed one-minute windows held in
// process memory, the same windows RedisLimiter uses. Counters of idle keys
// are dropped in least-recently-used order once maxKeys is reached.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters gcache.Cache
	now      func() time.Time
}

type windowCounter struct {
	window int64
	count  int
}

// NewMemoryLimiter returns a MemoryLimiter tracking at most maxKeys clients (10000 when maxKeys <= 0).
func NewMemoryLimiter(maxKeys int) *MemoryLimiter {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	return &MemoryLimiter{counters: gcache.New(maxKeys).LRU().Build(), now: time.Now}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string, perMinute int) (bool, error) {
	window := m.now().Unix() / 60

	m.mu.Lock()
	defer m.mu.Unlock()

	counter := &windowCounter{window: window}
	if v, err := m.counters.Get(key); err == nil {
		if c := v.(*windowCounter); c.window == window {
			counter = c
		}
	}
	counter.count++
	if err := m.counters.Set(key, counter); err != nil {
		return false, fmt.Errorf("failed to store rate counter: %w", err)
	}
	return counter.count <= perMinute, nil
}

// RedisLimiter counts requests per key in fixed one-minute windows shared by
// every instance using the same Redis.
type RedisLimiter struct {
	redisClient *redis.Client
	now         func() time.Time
}

// NewRedisLimiter creates a RedisLimiter.
func NewRedisLimiter(redisClient *redis.Client) *RedisLimiter {
	return &RedisLimiter{redisClient: redisClient, now: time.Now}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string, perMinute int) (bool, error) {
	window := r.now().Unix() / 60
	counterKey := fmt.Sprintf("ratelimit:%s:%d", key, window)

	count, err := r.redisClient.Incr(ctx, counterKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate counter: %w", err)
	}
	if count == 1 {
		// the window key only needs to outlive its minute
		_ = r.redisClient.Expire(ctx, counterKey, 2*time.Minute).Err()
	}
	return count <= int64(perMinute), nil
}

// rejectLog throttles the rejection warning so a flood of 429s does not flood the log.
var rejectLog = rate.Sometimes{Interval: time.Second}

// RateLimit rejects requests beyond perMinute per client address on route with 429.
// If the limiter itself fails the request is let through.
func RateLimit(limiter Limiter, route string, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := route + ":" + c.ClientIP()
		ok, err := limiter.Allow(c.Request.Context(), key, perMinute)
		if err != nil {
			log.Errorf("[RateLimit] limiter failed, key: %s, error: %v", key, err)
			c.Next()
			return
		}
		if !ok {
			rejectLog.Do(func() {
				log.Warnf("[RateLimit] rejected request, key: %s, limit: %d/min", key, perMinute)
			})
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": TooManyRequestsDetail})
			return
		}
		c.Next()
	}
}
