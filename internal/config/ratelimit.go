package config

import "time"

// RateLimitConfig drives the token bucket in front of /items.  Every key
// starts with Capacity tokens and regains one token per RefillEvery.
// Idle buckets expire after TTL.
type RateLimitConfig struct {
	Enabled     bool
	Capacity    int
	RefillEvery time.Duration
	TTL         time.Duration
	KeyStrategy string // "ip", "route" or "ip_route"
	Prefix      string
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  Capacity is at least
// one, a non-positive refill falls back to one second and TTL is stretched
// to cover five refills.
func LoadRateLimitConfig() RateLimitConfig {
	rl := RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		Capacity:    envInt("RATE_LIMIT_CAPACITY", 60),
		RefillEvery: envDur("RATE_LIMIT_REFILL_EVERY", time.Second),
		TTL:         envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy: getenv("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:      getenv("RATE_LIMIT_PREFIX", "items:rl"),
	}
	rl.Capacity = max(rl.Capacity, 1)
	if rl.RefillEvery <= 0 {
		rl.RefillEvery = time.Second
	}
	rl.TTL = max(rl.TTL, 5*rl.RefillEvery)
	return rl
}
