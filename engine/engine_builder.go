package engine

import (
	"math/rand"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/frame"
	"github.com/Carmen-Shannon/oxy-trace/engine/profiler"
	"github.com/Carmen-Shannon/oxy-trace/engine/registry"
	"github.com/Carmen-Shannon/oxy-trace/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithProfiler replaces the default profiler.
//
// Parameters:
//   - p: the profiler that receives every frame result
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithWindow sets the window the engine renders into and takes input from.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithSurface sets the GPU surface kept in step with the window size and released on exit.
//
// Parameters:
//   - s: the surface, typically the renderer.Renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSurface(s Surface) EngineBuilderOption {
	return func(e *engine) {
		e.surface = s
	}
}

// WithFrameRenderer sets the progressive frame renderer.
//
// Parameters:
//   - r: the frame renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameRenderer(r frame.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithRegistry sets the registry whose objects are re-rolled by the material key.
//
// Parameters:
//   - reg: the object registry
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRegistry(reg registry.Registry) EngineBuilderOption {
	return func(e *engine) {
		e.registry = reg
	}
}

// WithCamera sets the camera whose field of view the scroll wheel changes, and the orbit
// controller driven by keyboard and mouse. Either may be nil.
//
// Parameters:
//   - c: the camera
//   - oc: the orbit controller placing the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera, oc camera.OrbitController) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
		e.orbit = oc
	}
}

// WithRand sets the random source used when re-rolling materials.
//
// Parameters:
//   - rng: the random source
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRand(rng *rand.Rand) EngineBuilderOption {
	return func(e *engine) {
		e.rng = rng
	}
}

// WithTitle sets the title prefix the sample count is appended to. Defaults to the window's
// title at construction.
//
// Parameters:
//   - title: the title prefix
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTitle(title string) EngineBuilderOption {
	return func(e *engine) {
		e.baseTitle = title
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithMaxFrameErrors sets how many consecutive failed frames stop the engine. 0 never stops.
//
// Parameters:
//   - n: the consecutive failure limit
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxFrameErrors(n int) EngineBuilderOption {
	return func(e *engine) {
		if n >= 0 {
			e.maxFrameErrors = n
		}
	}
}
