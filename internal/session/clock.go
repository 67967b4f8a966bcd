package session

import "time"

// Clock abstracts time for the runner.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// ScaledClock runs Factor times faster than the wall clock. Durations passed
// to After and differences between Now values are in scaled time.
type ScaledClock struct {
	factor float64
	base   time.Time
	start  time.Time
}

// NewScaledClock creates a clock running factor times faster than real time.
// A factor <= 0 is treated as 1.
func NewScaledClock(factor float64) *ScaledClock {
	if factor <= 0 {
		factor = 1
	}
	now := time.Now()
	return &ScaledClock{factor: factor, base: now, start: now}
}

func (c *ScaledClock) Now() time.Time {
	return c.base.Add(time.Duration(float64(time.Since(c.start)) * c.factor))
}

func (c *ScaledClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	time.AfterFunc(time.Duration(float64(d)/c.factor), func() { ch <- c.Now() })
	return ch
}

// Real converts a scaled duration to wall time.
func (c *ScaledClock) Real(d time.Duration) time.Duration {
	return time.Duration(float64(d) / c.factor)
}
