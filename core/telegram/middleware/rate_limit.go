package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/metrics"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	// Interval is the refill period of one token.
	Interval time.Duration
	// Burst is the number of updates accepted back to back.
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// limiterPool hands out one token bucket per user.
type limiterPool struct {
	mu    sync.Mutex
	m     map[int64]*rate.Limiter
	every rate.Limit
	burst int
}

func newLimiterPool(interval time.Duration, burst int) *limiterPool {
	if burst <= 0 {
		burst = 1
	}
	return &limiterPool{
		m:     make(map[int64]*rate.Limiter),
		every: rate.Every(interval),
		burst: burst,
	}
}

func (p *limiterPool) get(userID int64) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[userID]; ok {
		return l
	}
	l := rate.NewLimiter(p.every, p.burst)
	p.m[userID] = l
	return l
}

// Allow consumes one token for userID at now.
func (p *limiterPool) Allow(userID int64, now time.Time) bool {
	return p.get(userID).AllowN(now, 1)
}

// RateLimitMiddleware drops updates from users that exceed the configured rate.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	pool := newLimiterPool(opts.Interval, opts.Burst)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[UpdateKind(c.Update())]; skip {
				return next(c)
			}
			if pool.Allow(user.ID, time.Now()) {
				return next(c)
			}

			metrics.IncRateLimited()
			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("outcome", "rate_limited"),
				slog.Int64("user_id", user.ID),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
