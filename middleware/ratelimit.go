package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one token bucket per client IP.
type limiterSet struct {
	mu   sync.Mutex
	r    rate.Limit
	b    int
	byIP map[string]*ipLimiter
}

func (s *limiterSet) allow(ip string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	il, ok := s.byIP[ip]
	if !ok {
		il = &ipLimiter{limiter: rate.NewLimiter(s.r, s.b)}
		s.byIP[ip] = il
	}
	il.lastSeen = now
	return il.limiter.AllowN(now, 1)
}

func (s *limiterSet) prune(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ip, il := range s.byIP {
		if il.lastSeen.Before(cutoff) {
			delete(s.byIP, ip)
		}
	}
}

// RateLimit provides per-IP token-bucket rate limiting.
// r = requests per second, b = burst size. r <= 0 disables limiting.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	if r <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	set := &limiterSet{r: r, b: b, byIP: make(map[string]*ipLimiter)}

	// Stale buckets are dropped every 5 minutes.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			set.prune(now.Add(-10 * time.Minute))
		}
	}()

	return func(c *gin.Context) {
		if !set.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
