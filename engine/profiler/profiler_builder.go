package profiler

import "time"

// ProfilerOption is a functional option applied to a Profiler during construction.
type ProfilerOption func(*Profiler)

// WithInterval sets how often stats are reported. Non-positive values are ignored.
//
// Parameters:
//   - d: the reporting interval
//
// Returns:
//   - ProfilerOption: option function to apply
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithClock replaces the time source.
//
// Parameters:
//   - now: returns the current time
//
// Returns:
//   - ProfilerOption: option function to apply
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}

// WithMemStats enables or disables reading runtime memory statistics each interval.
//
// Parameters:
//   - enabled: true to include heap and GC figures (default)
//
// Returns:
//   - ProfilerOption: option function to apply
func WithMemStats(enabled bool) ProfilerOption {
	return func(p *Profiler) {
		p.readMem = enabled
	}
}
