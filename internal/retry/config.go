package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// Defaults for caller-side retry: two retries, one second apart, doubling.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = time.Second
	DefaultMaxDelay     = 10 * time.Second
	DefaultMultiplier   = 2.0
	DefaultJitter       = 0.1
)

// Config bounds how often and how quickly a failed call is repeated.
type Config struct {
	// MaxAttempts counts the first call. Values below 1 mean a single call.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the wait between attempts. Zero means uncapped.
	MaxDelay time.Duration

	// Multiplier grows the wait after every attempt.
	Multiplier float64

	// Jitter spreads each wait by up to ±Jitter of its length.
	Jitter float64
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
		Jitter:       DefaultJitter,
	}
}

// Disabled returns a configuration that makes exactly one attempt.
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// jitterSource returns a value in [0, 1). Replaced in tests.
var jitterSource = rand.Float64

// Delay returns the wait after the given 0-indexed attempt.
func (c Config) Delay(attempt int) time.Duration {
	base := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(max(attempt, 0)))
	if c.MaxDelay > 0 {
		base = math.Min(base, float64(c.MaxDelay))
	}
	if c.Jitter <= 0 {
		return time.Duration(base)
	}
	spread := (jitterSource()*2 - 1) * c.Jitter
	return time.Duration(base * (1 + spread))
}
