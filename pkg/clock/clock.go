// Package clock provides the wall-clock accessor used for timing
// instrumentation around statistic computations.
package clock

import "time"

// Now returns the current wall-clock time in seconds since the Unix epoch.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// Stopwatch measures elapsed time from its creation.
type Stopwatch struct {
	start time.Time
}

// Start returns a running Stopwatch.
func Start() Stopwatch {
	return Stopwatch{start: time.Now()}
}

// Elapsed returns the time since Start.
func (s Stopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Seconds returns the time since Start in seconds.
func (s Stopwatch) Seconds() float64 {
	return s.Elapsed().Seconds()
}
