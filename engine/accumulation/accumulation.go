// Package accumulation tracks how many frames have been averaged into the accumulated image
// and decides when that image has to be thrown away.
package accumulation

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/engine/transform"
)

type controller struct {
	mu          *sync.Mutex
	sampleCount uint32
	resetCount  int
	maxSamples  uint32
	watched     []transform.Transform
	lastFOV     float32
	fovSeen     bool
	requested   bool
}

// Controller owns the progressive sample counter. Every invalidation source funnels into
// Reset; nothing else may lower the count.
type Controller interface {
	// Reset discards the accumulated samples by setting the count to zero. Resetting an
	// already empty accumulation is a no-op. Reset must only run between frames, on the
	// goroutine that renders them; other goroutines use RequestReset.
	Reset()

	// RequestReset asks for a reset at the start of the next frame. It is safe to call while
	// a frame is in flight: the running frame still counts against the old image.
	RequestReset()

	// RecordFrameRendered counts one more frame blended into the accumulated image.
	RecordFrameRendered()

	// BlendWeight returns the weight the next frame must be blended with so the
	// accumulated image stays an equal-weight average: 1 / (sampleCount + 1).
	//
	// Returns:
	//   - float32: the blend weight in (0, 1]
	BlendWeight() float32

	// SampleCount returns the number of frames averaged since the last reset.
	SampleCount() uint32

	// ResetCount returns how many resets actually discarded samples.
	ResetCount() int

	// MaxSamples returns the sample cap, or 0 when unlimited.
	MaxSamples() uint32

	// SetMaxSamples changes the sample cap. 0 removes it.
	//
	// Parameters:
	//   - n: the new cap
	SetMaxSamples(n uint32)

	// Converged reports whether the sample cap has been reached.
	Converged() bool

	// Watch adds t to the transforms whose movement invalidates the image. Nil and
	// already-watched transforms are ignored.
	//
	// Parameters:
	//   - t: the transform to observe
	Watch(t transform.Transform)

	// Unwatch stops observing t.
	//
	// Parameters:
	//   - t: the transform to stop observing
	Unwatch(t transform.Transform)

	// PollInvalidations checks the per-frame invalidation sources: a pending RequestReset, a
	// field of view that differs from the one recorded last frame, and every watched
	// transform's changed flag (each flag is consumed). Any hit resets the accumulation.
	//
	// Parameters:
	//   - fov: the camera's current vertical field of view
	//
	// Returns:
	//   - bool: true if at least one source fired
	PollInvalidations(fov float32) bool
}

var _ Controller = &controller{}

// NewController creates a Controller with a zero sample count.
//
// Parameters:
//   - options: variadic list of ControllerBuilderOption functions to configure the controller
//
// Returns:
//   - Controller: the new controller
func NewController(options ...ControllerBuilderOption) Controller {
	c := &controller{
		mu: &sync.Mutex{},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *controller) reset() {
	if c.sampleCount > 0 {
		c.resetCount++
	}
	c.sampleCount = 0
}

func (c *controller) RequestReset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requested = true
}

func (c *controller) RecordFrameRendered() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sampleCount++
}

func (c *controller) BlendWeight() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return 1 / float32(c.sampleCount+1)
}

func (c *controller) SampleCount() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sampleCount
}

func (c *controller) ResetCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetCount
}

func (c *controller) MaxSamples() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxSamples
}

func (c *controller) SetMaxSamples(n uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSamples = n
}

func (c *controller) Converged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxSamples > 0 && c.sampleCount >= c.maxSamples
}

func (c *controller) Watch(t transform.Transform) {
	if t == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, w := range c.watched {
		if w == t {
			return
		}
	}
	c.watched = append(c.watched, t)
}

func (c *controller) Unwatch(t transform.Transform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.watched {
		if w == t {
			c.watched = append(c.watched[:i], c.watched[i+1:]...)
			return
		}
	}
}

func (c *controller) PollInvalidations(fov float32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	fired := c.requested
	c.requested = false
	if c.fovSeen && fov != c.lastFOV {
		fired = true
	}
	c.lastFOV = fov
	c.fovSeen = true

	// every flag is consumed even after the first hit
	for _, t := range c.watched {
		if t.ConsumeChanged() {
			fired = true
		}
	}

	if fired {
		c.reset()
	}
	return fired
}
