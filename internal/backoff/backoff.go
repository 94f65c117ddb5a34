// Package backoff provides delay strategies for retrying failed backend calls.
// Strategies are stateless and safe for concurrent use.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before retry attempt n. Attempt 0 is the first
// retry after the initial failure.
type Strategy interface {
	Delay(attempt int) time.Duration
}

// Constant always waits the same interval.
type Constant struct {
	Interval time.Duration
}

func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// Exponential waits Base * 2^attempt, capped at Max (0 = no cap).
type Exponential struct {
	Base time.Duration
	Max  time.Duration
}

func NewExponential(base, maxDelay time.Duration) *Exponential {
	return &Exponential{Base: base, Max: maxDelay}
}

func (e *Exponential) Delay(attempt int) time.Duration {
	d := time.Duration(float64(e.Base) * math.Pow(2, float64(attempt)))
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// ExponentialJitter applies full jitter to an exponential base: a random
// delay in [0, Base * 2^attempt], capped at Max. Prevents synchronized
// retry storms when many operations fail at once.
type ExponentialJitter struct {
	Base time.Duration
	Max  time.Duration
}

func NewExponentialJitter(base, maxDelay time.Duration) *ExponentialJitter {
	return &ExponentialJitter{Base: base, Max: maxDelay}
}

func (e *ExponentialJitter) Delay(attempt int) time.Duration {
	d := float64(e.Base) * math.Pow(2, float64(attempt))
	if e.Max > 0 && d > float64(e.Max) {
		d = float64(e.Max)
	}
	return time.Duration(rand.Float64() * d)
}

// Default returns the strategy used when RetryConfig does not set one:
// plain exponential with a 30s cap, so retry timing stays deterministic
// unless jitter is opted into.
func Default(base time.Duration) Strategy {
	return NewExponential(base, 30*time.Second)
}
