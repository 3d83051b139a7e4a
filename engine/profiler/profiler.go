package profiler

import (
	"fmt"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/engine/frame"
	"github.com/Carmen-Shannon/oxy-trace/log"
)

var logger = log.New("profiler")

// Stats summarizes one reporting interval.
type Stats struct {
	Interval time.Duration

	// Frames counts every RenderFrame call; Rendered only those that dispatched the kernel.
	Frames   int
	Rendered int
	FPS      float64

	// SamplesPerSecond is the rate the accumulated image converges at.
	SamplesPerSecond float64
	SampleCount      uint32
	Rebuilds         int
	Resets           int
	Skipped          int
	AvgFrameTime     time.Duration

	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
	SysMB       float64
}

// String formats the stats as a single log line.
func (s Stats) String() string {
	return fmt.Sprintf("FPS: %.2f | Samples: %d (%.1f/s) | Rebuilds: %d | Resets: %d | Skipped: %d | Frame: %s | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		s.FPS, s.SampleCount, s.SamplesPerSecond, s.Rebuilds, s.Resets, s.Skipped,
		s.AvgFrameTime.Round(time.Microsecond), s.HeapMB, s.AllocRateMB, s.GCCount, s.LastPauseUs, s.MaxPauseUs, s.SysMB)
}

// Profiler tracks frame rate, convergence and memory statistics for the tracer.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	now            func() time.Time
	lastTime       time.Time
	updateInterval time.Duration
	readMem        bool
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	current Stats
	busy    time.Duration
	last    Stats
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - opts: variadic list of ProfilerOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(opts ...ProfilerOption) *Profiler {
	p := &Profiler{
		now:            time.Now,
		updateInterval: time.Second,
		readMem:        true,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Record accounts for one frame. When the update interval has elapsed the interval's stats
// are logged at Info and returned.
//
// Parameters:
//   - r: the frame renderer's result for this frame
//
// Returns:
//   - Stats: the completed interval's stats, valid when the bool is true
//   - bool: true if an interval completed on this frame
func (p *Profiler) Record(r frame.Result) (Stats, bool) {
	p.current.Frames++
	if r.Rendered {
		p.current.Rendered++
	}
	if r.Rebuilt {
		p.current.Rebuilds++
	}
	if r.Reset {
		p.current.Resets++
	}
	p.current.Skipped += len(r.Skipped)
	p.current.SampleCount = r.SampleCount
	p.busy += r.Duration

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Stats{}, false
	}

	s := p.current
	s.Interval = elapsed
	s.FPS = float64(s.Frames) / elapsed.Seconds()
	s.SamplesPerSecond = float64(s.Rendered) / elapsed.Seconds()
	if s.Frames > 0 {
		s.AvgFrameTime = p.busy / time.Duration(s.Frames)
	}
	if p.readMem {
		p.fillMemStats(&s, elapsed)
	}

	logger.Infof("%s", s)

	p.last = s
	p.current = Stats{}
	p.busy = 0
	p.lastTime = currentTime
	return s, true
}

// Last returns the most recently completed interval.
func (p *Profiler) Last() Stats {
	return p.last
}

func (p *Profiler) fillMemStats(s *Stats, elapsed time.Duration) {
	runtime.ReadMemStats(&p.memStats)
	s.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	s.SysMB = float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	s.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	s.GCCount = gcCount
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		s.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > s.MaxPauseUs {
				s.MaxPauseUs = pause
			}
		}
	}

	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
}
