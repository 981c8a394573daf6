package cache

import "time"

// RateLimiter remembers hosts that recently answered with HTTP 429 so
// scrapes against them are skipped until the block window expires.
type RateLimiter struct {
	cache CacheService
	block time.Duration
}

// NewRateLimiter creates a rate limiter over the given cache. A nil
// cache disables blocking entirely.
func NewRateLimiter(cache CacheService, block time.Duration) *RateLimiter {
	return &RateLimiter{
		cache: cache,
		block: block,
	}
}

// MarkLimited records that the host rate-limited us.
func (r *RateLimiter) MarkLimited(host string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Set(rateLimitKey(host), []byte("1"), r.block)
}

// IsLimited reports whether the host is inside its block window.
func (r *RateLimiter) IsLimited(host string) bool {
	if r.cache == nil {
		return false
	}
	_, err := r.cache.Get(rateLimitKey(host))
	return err == nil
}

// Clear lifts the block for a host.
func (r *RateLimiter) Clear(host string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(rateLimitKey(host))
}

func rateLimitKey(host string) string {
	return "ratelimit:" + host
}
