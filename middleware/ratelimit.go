package middleware

import (
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/neutronx-labs/neutronx"
)

// RateLimitConfig configures the rate-limit middleware (§4.4 "Rate
// limit"), grounded on the pack's rateLimiterStore/ipLimiter pattern.
type RateLimitConfig struct {
	// ClientIDHeader names the header used as the token-bucket key
	// (falls back to RemoteAddr when empty or absent).
	ClientIDHeader string
	RequestsPerMinute int
	Burst             int
	// EvictAfter drops a client's bucket once idle for this long. A
	// zero value uses a 10-minute default.
	EvictAfter time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds one token bucket per client-id, evicting idle
// entries inline under the lock on each get (no background goroutine, so
// the store has no lifecycle of its own to leak past App.Shutdown).
type rateLimiterStore struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	r        rate.Limit
	b        int
	evictAge time.Duration
}

func newRateLimiterStore(cfg RateLimitConfig) *rateLimiterStore {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = rpm
	}
	evictAge := cfg.EvictAfter
	if evictAge <= 0 {
		evictAge = 10 * time.Minute
	}

	s := &rateLimiterStore{
		clients:  map[string]*clientLimiter{},
		r:        rate.Limit(float64(rpm) / 60.0),
		b:        burst,
		evictAge: evictAge,
	}

	return s
}

func (s *rateLimiterStore) get(clientID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	// In-memory eviction: drop entries idle longer than evictAge
	// (§4.4 "drop timestamps older than the window").
	for id, c := range s.clients {
		if now.Sub(c.lastSeen) > s.evictAge {
			delete(s.clients, id)
		}
	}

	c, ok := s.clients[clientID]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(s.r, s.b)}
		s.clients[clientID] = c
	}
	c.lastSeen = now

	return c.limiter
}

// RateLimit limits requests per client-identifier to cfg.RequestsPerMinute,
// responding 429 with retry-after once exceeded.
func RateLimit(cfg RateLimitConfig) neutronx.Middleware {
	store := newRateLimiterStore(cfg)
	header := cfg.ClientIDHeader

	return func(next neutronx.Handler) neutronx.Handler {
		return func(req neutronx.Request) (neutronx.Response, error) {
			clientID := ""
			if header != "" {
				clientID = req.Headers.Get(header)
			}
			if clientID == "" {
				clientID = req.RemoteAddr
			}

			limiter := store.get(clientID)
			reservation := limiter.Reserve()
			if d := reservation.Delay(); d > 0 {
				reservation.Cancel()

				retryAfter := int(d.Seconds()) + 1

				resp := neutronx.NewErrorResponse(429, "rate limit exceeded")
				resp.Headers.Set(neutronx.HeaderRetryAfter, strconv.Itoa(retryAfter))

				return resp, nil
			}

			return next(req)
		}
	}
}
