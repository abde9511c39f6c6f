package taskhub

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// reconnectPolicy computes the delay before each reconnection attempt:
// exponential growth from the base interval, capped at the max delay, with a
// hard attempt budget. Randomization is off so delays stay predictable for
// callers watching state events.
type reconnectPolicy struct {
	bo       *backoff.ExponentialBackOff
	maxTries int
	attempts int
}

func newReconnectPolicy(cfg *Config) *reconnectPolicy {
	interval := cfg.ReconnectInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	multiplier := cfg.ReconnectMultiplier
	if multiplier <= 1 {
		multiplier = 2.0
	}
	maxDelay := cfg.MaxReconnectDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	maxTries := cfg.MaxReconnectTries
	if maxTries <= 0 {
		maxTries = 5
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = interval
	bo.Multiplier = multiplier
	bo.MaxInterval = maxDelay
	bo.RandomizationFactor = 0
	bo.Reset()

	return &reconnectPolicy{bo: bo, maxTries: maxTries}
}

// next returns the delay before the upcoming attempt, or false once the
// attempt budget is spent.
func (p *reconnectPolicy) next() (time.Duration, bool) {
	if p.attempts >= p.maxTries {
		return 0, false
	}
	p.attempts++
	return p.bo.NextBackOff(), true
}

// reset restores the full attempt budget and the base delay. Called on an
// explicit Connect and on every successful open.
func (p *reconnectPolicy) reset() {
	p.attempts = 0
	p.bo.Reset()
}
