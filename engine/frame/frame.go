// Package frame drives one progressive ray-tracing frame: it rebuilds scene buffers when the
// registry is dirty, keeps the render targets sized to the output, dispatches the kernel and
// folds its result into the accumulated image.
package frame

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/accumulation"
	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/light"
	"github.com/Carmen-Shannon/oxy-trace/engine/registry"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/gpu_buffer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene_buffer"
	"github.com/Carmen-Shannon/oxy-trace/log"
)

var (
	// ErrNoKernel is returned by NewRenderer when no render kernel is available.
	ErrNoKernel = errors.New("frame: render kernel unavailable")

	// ErrMissingCollaborator is returned by NewRenderer when a required collaborator is nil.
	ErrMissingCollaborator = errors.New("frame: missing collaborator")

	// ErrNotPresented is returned by a Compositor whose output went away after the frame was
	// recorded. The dispatch and blend never ran, so the sample is not counted.
	ErrNotPresented = errors.New("frame: output unavailable, frame dropped")
)

// Bounce limits accepted by WithBounces.
const (
	MinBounces     = 2
	MaxBounces     = 32
	DefaultBounces = 4
)

var logger = log.New("frame")

// Result describes what a RenderFrame call did.
type Result struct {
	// Rendered is true when the kernel ran and its output was blended in.
	Rendered bool

	// Rebuilt is true when the scene buffers were rebuilt this frame.
	Rebuilt bool

	// Reset is true when the accumulated samples were discarded this frame.
	Reset bool

	// Skipped lists objects left out of this frame's rebuild.
	Skipped []scene_buffer.Skipped

	// SampleCount is the number of frames in the accumulated image after this frame.
	SampleCount uint32

	// Duration is the host time spent in RenderFrame.
	Duration time.Duration
}

type renderer struct {
	mu *sync.Mutex

	registry   registry.Registry
	kernel     Kernel
	compositor Compositor
	size       SizeSource
	camera     camera.Camera
	light      light.DirectionalLight

	builder      scene_buffer.Builder
	buffers      gpu_buffer.Manager
	targets      render_target.Manager
	accumulation accumulation.Controller

	bufferAlloc  gpu_buffer.Allocator
	textureAlloc render_target.TextureAllocator

	bounces int
	rng     *rand.Rand
	frames  uint64
}

// Renderer renders progressive frames.
type Renderer interface {
	// RenderFrame runs one frame: poll invalidations, rebuild scene buffers if the registry is
	// dirty, ensure the render targets match the output size, bind parameters, dispatch the
	// kernel, blend into the accumulated image, present, and count the sample.
	//
	// A zero output size renders nothing and returns no error. A failure to sync scene buffers
	// skips the frame, leaves the accumulated image and sample count untouched and marks the
	// registry dirty so the next frame retries.
	//
	// Returns:
	//   - Result: what the frame did
	//   - error: an error if the frame failed
	RenderFrame() (Result, error)

	// Accumulation returns the controller owning the sample count.
	Accumulation() accumulation.Controller

	// Buffers returns the scene buffer manager.
	Buffers() gpu_buffer.Manager

	// Targets returns the render target manager.
	Targets() render_target.Manager

	// Bounces returns the configured bounce count.
	Bounces() int

	// SetBounces changes the bounce count, clamped to [MinBounces, MaxBounces]. A change
	// resets the accumulation.
	//
	// Parameters:
	//   - n: the new bounce count
	SetBounces(n int)

	// Frames returns how many frames were rendered.
	Frames() uint64

	// Release frees every GPU resource the renderer owns and stops the builder's workers.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a frame renderer. A registry, kernel, compositor, size source, camera and
// both allocators (or prebuilt managers) are required.
//
// Parameters:
//   - opts: functional options
//
// Returns:
//   - Renderer: the new renderer
//   - error: ErrNoKernel or ErrMissingCollaborator if a required collaborator is missing
func NewRenderer(opts ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:      &sync.Mutex{},
		bounces: DefaultBounces,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.kernel == nil {
		return nil, ErrNoKernel
	}
	switch {
	case r.registry == nil:
		return nil, fmt.Errorf("%w: registry", ErrMissingCollaborator)
	case r.compositor == nil:
		return nil, fmt.Errorf("%w: compositor", ErrMissingCollaborator)
	case r.size == nil:
		return nil, fmt.Errorf("%w: size source", ErrMissingCollaborator)
	case r.camera == nil:
		return nil, fmt.Errorf("%w: camera", ErrMissingCollaborator)
	case r.buffers == nil && r.bufferAlloc == nil:
		return nil, fmt.Errorf("%w: buffer allocator", ErrMissingCollaborator)
	case r.targets == nil && r.textureAlloc == nil:
		return nil, fmt.Errorf("%w: texture allocator", ErrMissingCollaborator)
	}

	if r.buffers == nil {
		r.buffers = gpu_buffer.NewManager(r.bufferAlloc)
	}
	if r.targets == nil {
		r.targets = render_target.NewManager(r.textureAlloc)
	}
	if r.builder == nil {
		r.builder = scene_buffer.NewBuilder()
	}
	if r.light == nil {
		r.light = light.NewDirectionalLight()
	}
	if r.accumulation == nil {
		r.accumulation = accumulation.NewController()
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r.accumulation.Watch(r.camera.Transform())
	r.accumulation.Watch(r.light.Transform())
	return r, nil
}

func (r *renderer) RenderFrame() (res Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
	}()

	// 1. per-frame invalidation sources
	if r.accumulation.PollInvalidations(r.camera.FOV()) {
		logger.Debug("camera or light moved, resetting accumulation")
		res.Reset = true
	}

	// 2. rebuild
	if r.registry.ConsumeDirty() {
		built := r.builder.Build(r.registry.Objects())
		res.Skipped = built.Skipped
		for _, s := range built.Skipped {
			logger.Warningf("skipping object %d (%s): %v", s.Object.ID(), s.Object.Name(), s.Err)
		}
		if err := r.buffers.SyncScene(built); err != nil {
			logger.Errorf("scene buffer sync failed, retrying next frame: %v", err)
			r.registry.Invalidate()
			r.discard()
			res.SampleCount = r.accumulation.SampleCount()
			return res, fmt.Errorf("frame: sync scene buffers: %w", err)
		}
		logger.Debugf("rebuilt scene buffers: %d objects, %d vertices, %d indices",
			len(built.Objects), len(built.Vertices), len(built.Indices))
		r.accumulation.Reset()
		res.Rebuilt = true
		res.Reset = true
	}

	// 3. targets
	width, height := r.size.Width(), r.size.Height()
	raw, accumulated, resized, terr := r.targets.EnsureTargets(width, height)
	if errors.Is(terr, render_target.ErrNoTarget) {
		res.SampleCount = r.accumulation.SampleCount()
		return res, nil
	}
	if terr != nil {
		r.discard()
		res.SampleCount = r.accumulation.SampleCount()
		return res, fmt.Errorf("frame: ensure targets: %w", terr)
	}
	if resized {
		logger.Debugf("render targets resized to %dx%d", width, height)
		r.camera.SetAspect(float32(width) / float32(height))
		r.accumulation.Reset()
		res.Reset = true
	}

	if r.accumulation.Converged() {
		res.SampleCount = r.accumulation.SampleCount()
		if err := r.compositor.Present(accumulated); err != nil && !errors.Is(err, ErrNotPresented) {
			return res, fmt.Errorf("frame: present: %w", err)
		}
		return res, nil
	}

	// 4. bind
	r.bind(raw)

	// 5. dispatch
	if err := r.kernel.Dispatch(common.GroupCount(width, TileSize), common.GroupCount(height, TileSize), 1); err != nil {
		r.discard()
		res.SampleCount = r.accumulation.SampleCount()
		return res, fmt.Errorf("frame: dispatch: %w", err)
	}

	// 6. blend
	if err := r.compositor.Blend(raw, accumulated, r.accumulation.BlendWeight()); err != nil {
		r.discard()
		res.SampleCount = r.accumulation.SampleCount()
		return res, fmt.Errorf("frame: blend: %w", err)
	}

	// 7. present
	if err := r.compositor.Present(accumulated); err != nil {
		res.SampleCount = r.accumulation.SampleCount()
		if errors.Is(err, ErrNotPresented) {
			logger.Debug("output unavailable, frame dropped")
			return res, nil
		}
		return res, fmt.Errorf("frame: present: %w", err)
	}

	// 8. count
	r.accumulation.RecordFrameRendered()
	r.frames++
	res.Rendered = true
	res.SampleCount = r.accumulation.SampleCount()
	return res, nil
}

func (r *renderer) bind(raw render_target.Target) {
	r.kernel.SetMatrix(ParamCameraToWorld, r.camera.CameraToWorld())
	r.kernel.SetMatrix(ParamCameraInverseProjection, r.camera.InverseProjection())
	r.kernel.SetVector(ParamDirectionalLight, r.light.Vector())
	r.kernel.SetVector2(ParamPixelOffset, mgl32.Vec2{r.rng.Float32(), r.rng.Float32()})
	r.kernel.SetFloat(ParamSeed, r.rng.Float32())
	for _, k := range gpu_buffer.Kinds() {
		r.kernel.SetBuffer(k.BindingName(), r.buffers.Handle(k))
	}
	r.kernel.SetInt(ParamNumBounces, int32(r.bounces))
	r.kernel.SetTarget(ParamResult, raw)
}

// discard drops any GPU work already recorded for this frame.
func (r *renderer) discard() {
	if d, ok := r.compositor.(Discarder); ok {
		d.DiscardFrame()
	}
	if d, ok := r.kernel.(Discarder); ok && any(r.kernel) != any(r.compositor) {
		d.DiscardFrame()
	}
}

func (r *renderer) Accumulation() accumulation.Controller {
	return r.accumulation
}

func (r *renderer) Buffers() gpu_buffer.Manager {
	return r.buffers
}

func (r *renderer) Targets() render_target.Manager {
	return r.targets
}

func (r *renderer) Bounces() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bounces
}

func (r *renderer) SetBounces(n int) {
	n = common.ClampInt(n, MinBounces, MaxBounces)
	r.mu.Lock()
	defer r.mu.Unlock()
	if n != r.bounces {
		r.bounces = n
		r.accumulation.Reset()
	}
}

func (r *renderer) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffers.Release()
	r.targets.Release()
	r.builder.Release()
}
