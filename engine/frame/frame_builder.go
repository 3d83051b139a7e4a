package frame

import (
	"math/rand"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/accumulation"
	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/light"
	"github.com/Carmen-Shannon/oxy-trace/engine/registry"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/gpu_buffer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene_buffer"
)

// RendererBuilderOption is a functional option used to configure a Renderer during construction.
type RendererBuilderOption func(*renderer)

// WithRegistry sets the registry whose objects are rendered.
//
// Parameters:
//   - reg: the object registry
//
// Returns:
//   - RendererBuilderOption: a function that sets the registry
func WithRegistry(reg registry.Registry) RendererBuilderOption {
	return func(r *renderer) {
		r.registry = reg
	}
}

// WithKernel sets the ray-tracing kernel.
//
// Parameters:
//   - k: the kernel
//
// Returns:
//   - RendererBuilderOption: a function that sets the kernel
func WithKernel(k Kernel) RendererBuilderOption {
	return func(r *renderer) {
		r.kernel = k
	}
}

// WithCompositor sets the blend and present passes.
//
// Parameters:
//   - c: the compositor
//
// Returns:
//   - RendererBuilderOption: a function that sets the compositor
func WithCompositor(c Compositor) RendererBuilderOption {
	return func(r *renderer) {
		r.compositor = c
	}
}

// WithSizeSource sets where the output resolution is read from each frame.
//
// Parameters:
//   - s: the size source
//
// Returns:
//   - RendererBuilderOption: a function that sets the size source
func WithSizeSource(s SizeSource) RendererBuilderOption {
	return func(r *renderer) {
		r.size = s
	}
}

// WithCamera sets the camera rays are shot from. Its transform is watched for movement.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - RendererBuilderOption: a function that sets the camera
func WithCamera(c camera.Camera) RendererBuilderOption {
	return func(r *renderer) {
		r.camera = c
	}
}

// WithLight sets the directional light. Its transform is watched for movement.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - RendererBuilderOption: a function that sets the light
func WithLight(l light.DirectionalLight) RendererBuilderOption {
	return func(r *renderer) {
		r.light = l
	}
}

// WithBufferAllocator sets the allocator a default buffer manager is created with.
//
// Parameters:
//   - a: the buffer allocator
//
// Returns:
//   - RendererBuilderOption: a function that sets the allocator
func WithBufferAllocator(a gpu_buffer.Allocator) RendererBuilderOption {
	return func(r *renderer) {
		r.bufferAlloc = a
	}
}

// WithTextureAllocator sets the allocator a default target manager is created with.
//
// Parameters:
//   - a: the texture allocator
//
// Returns:
//   - RendererBuilderOption: a function that sets the allocator
func WithTextureAllocator(a render_target.TextureAllocator) RendererBuilderOption {
	return func(r *renderer) {
		r.textureAlloc = a
	}
}

// WithBufferManager replaces the scene buffer manager. The buffer allocator is then optional.
//
// Parameters:
//   - m: the manager
//
// Returns:
//   - RendererBuilderOption: a function that sets the manager
func WithBufferManager(m gpu_buffer.Manager) RendererBuilderOption {
	return func(r *renderer) {
		r.buffers = m
	}
}

// WithTargetManager replaces the render target manager. The texture allocator is then optional.
//
// Parameters:
//   - m: the manager
//
// Returns:
//   - RendererBuilderOption: a function that sets the manager
func WithTargetManager(m render_target.Manager) RendererBuilderOption {
	return func(r *renderer) {
		r.targets = m
	}
}

// WithBuilder replaces the scene buffer builder. The renderer releases it on Release.
//
// Parameters:
//   - b: the builder
//
// Returns:
//   - RendererBuilderOption: a function that sets the builder
func WithBuilder(b scene_buffer.Builder) RendererBuilderOption {
	return func(r *renderer) {
		r.builder = b
	}
}

// WithAccumulation replaces the accumulation controller.
func WithAccumulation(c accumulation.Controller) RendererBuilderOption {
	return func(r *renderer) {
		r.accumulation = c
	}
}

// WithBounces sets the number of ray bounces, clamped to [MinBounces, MaxBounces].
//
// Parameters:
//   - n: the bounce count
//
// Returns:
//   - RendererBuilderOption: a function that sets the bounce count
func WithBounces(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.bounces = common.ClampInt(n, MinBounces, MaxBounces)
	}
}

// WithRand sets the source of the per-frame pixel jitter and seed.
//
// Parameters:
//   - rng: the random source
//
// Returns:
//   - RendererBuilderOption: a function that sets the random source
func WithRand(rng *rand.Rand) RendererBuilderOption {
	return func(r *renderer) {
		r.rng = rng
	}
}
