package signer

import (
	"math"
	"math/rand"
	"time"
)

// BackoffConfig controls the wait between failed signing attempts of one file.
type BackoffConfig struct {
	// InitialDelay is the wait before the second attempt. Zero retries immediately.
	InitialDelay time.Duration
	// Multiplier grows the delay for each further attempt; values below 1 are treated as 1.
	Multiplier float64
	// MaxDelay caps the delay when positive.
	MaxDelay time.Duration
	// Jitter scales every delay by a random factor in [0.5, 1.5).
	Jitter bool
}

// NextBackoffDelay returns the wait after failed attempt N (1-based).
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}

	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}

	exponent := max(attempt-1, 0)

	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(exponent))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	if cfg.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}

		delay *= f
	}

	// float64(math.MaxInt64) rounds up to 2^63, which no longer fits a Duration.
	if delay >= float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(delay)
}
