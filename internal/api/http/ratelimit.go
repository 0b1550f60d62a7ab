package http

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/KLAI0I/icu-nurse-dashboard/pkg/util/errorutil"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*clientLimiter
	now     func() time.Time
	swept   time.Time
}

// NewRateLimiter allows perMinute requests per client, with a burst of the same size.
// A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		burst:   perMinute,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
	if perMinute > 0 {
		rl.limit = rate.Limit(float64(perMinute) / 60.0)
	}
	return rl
}

// Handle is the fiber middleware.
func (rl *RateLimiter) Handle(c *fiber.Ctx) error {
	if rl.limit == 0 {
		return c.Next()
	}
	if !rl.allow(c.IP()) {
		return apperrors.NewRateLimited()
	}
	return c.Next()
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.swept) > limiterIdleTTL {
		for k, cl := range rl.clients {
			if now.Sub(cl.lastSeen) > limiterIdleTTL {
				delete(rl.clients, k)
			}
		}
		rl.swept = now
	}

	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}
