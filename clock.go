package kinetic

import "time"

// ElapsedWithin returns the evaluator time for a curve window that opens at
// start and spans effective seconds, observed at now:
//
//   - 0 while now is before start (the curve has not begun),
//   - the raw elapsed seconds inside the window,
//   - exactly effective once the window has fully elapsed.
//
// Pinning the value to the window bound on the closing tick is what makes
// `elapsed >= effective` a reliable completion predicate: completion can
// never be skipped over by a large frame delta.
func ElapsedWithin(start time.Time, effective float64, now time.Time) float64 {
	if now.Before(start) {
		return 0
	}
	elapsed := now.Sub(start).Seconds()
	if elapsed >= effective {
		return effective
	}
	return elapsed
}

// frameClock measures the wall-clock delta between successive frame
// callbacks. The first tick reports a zero delta.
type frameClock struct {
	last    time.Time
	started bool
}

// tick records now and returns the seconds since the previous tick.
func (c *frameClock) tick(now time.Time) float64 {
	if !c.started {
		c.started = true
		c.last = now
		return 0
	}
	dt := now.Sub(c.last).Seconds()
	c.last = now
	if dt < 0 {
		dt = 0
	}
	return dt
}
