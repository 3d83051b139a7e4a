package renderer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/engine/frame"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/gpu_buffer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-trace/log"
	"github.com/cogentcore/webgpu/wgpu"
)

var logger = log.New("renderer")

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backend    wgpuRendererBackend
	allocator  *gpuAllocator
	kernel     *kernel
	compositor *compositor

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	kernelSource         string

	released bool
}

// SurfaceSource is the window the renderer presents to.
type SurfaceSource interface {
	// SurfaceDescriptor returns the platform surface descriptor, or nil for a headless
	// renderer that never presents.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// Renderer is the WebGPU side of the progressive tracer. It owns the device and surface,
// creates the tracer's three pipelines, and hands out the GPU implementations the frame
// renderer drives: the scene buffer allocator, the render target allocator, the ray tracing
// kernel and the compositor.
type Renderer interface {
	// Kernel returns the ray tracing kernel.
	//
	// Returns:
	//   - frame.Kernel: the kernel, which also implements frame.Discarder
	Kernel() frame.Kernel

	// Compositor returns the blend and present passes.
	//
	// Returns:
	//   - frame.Compositor: the compositor, which also implements frame.Discarder
	Compositor() frame.Compositor

	// BufferAllocator returns the allocator for scene storage buffers.
	//
	// Returns:
	//   - gpu_buffer.Allocator: the allocator
	BufferAllocator() gpu_buffer.Allocator

	// TextureAllocator returns the allocator for the raw and accumulated images.
	//
	// Returns:
	//   - render_target.TextureAllocator: the allocator
	TextureAllocator() render_target.TextureAllocator

	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// PipelineKeys returns the keys of every registered pipeline in sorted order.
	PipelineKeys() []string

	// Resize reconfigures the surface. The render targets follow on the next frame through
	// the frame renderer's size source.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode changes the present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the present mode
	//   - width: the current surface width in pixels
	//   - height: the current surface height in pixels
	SetPresentMode(mode PresentMode, width, height int)

	// Release frees every GPU object the renderer created. Scene buffers and render targets
	// must be released by their managers first.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer acquires a device for the given surface, configures it, and creates the
// tracer's pipelines.
//
// Parameters:
//   - surface: the window to present to
//   - options: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the ready renderer
//   - error: ErrNoDevice if no GPU is available, or an error if a pipeline could not be built
func NewRenderer(surface SurfaceSource, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		presentMode:   PresentModeVSync,
	}
	for _, opt := range options {
		opt(r)
	}

	pipelines, err := newPipelines(r.kernelSource)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}

	backend, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter)
	if err != nil {
		return nil, err
	}
	r.backend = backend
	r.allocator = &gpuAllocator{backend: backend}
	r.backend.SetPresentMode(r.presentMode)
	r.backend.ConfigureSurface(surface.Width(), surface.Height())

	if err := r.registerPipelines(pipelines); err != nil {
		r.Release()
		return nil, err
	}

	r.kernel, err = newKernel(backend, r.pipelineCache[PipelineKeyRayTrace])
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("renderer: %w", err)
	}
	r.compositor, err = newCompositor(backend, r.pipelineCache[PipelineKeyComposite], r.pipelineCache[PipelineKeyPresent])
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("renderer: %w", err)
	}

	logger.Infof("renderer ready: %d pipelines, surface %v, present mode %s",
		len(r.pipelineCache), r.backend.SurfaceFormat(), r.presentMode)
	return r, nil
}

// registerPipelines creates the GPU objects for each pipeline, compute pipelines first.
func (r *renderer) registerPipelines(pipelines map[string]pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(pipelines))
	for key := range pipelines {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := pipelines[keys[i]], pipelines[keys[j]]
		if pi.Type() != pj.Type() {
			return pi.Type() == pipeline.PipelineTypeCompute
		}
		return keys[i] < keys[j]
	})

	for _, key := range keys {
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		p := pipelines[key]
		switch p.Type() {
		case pipeline.PipelineTypeCompute:
			if err := r.backend.RegisterComputePipeline(p); err != nil {
				return err
			}
		case pipeline.PipelineTypeRender:
			if err := r.backend.RegisterRenderPipeline(p); err != nil {
				return err
			}
		}
		logger.Debugf("registered pipeline %s", key)
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) Kernel() frame.Kernel {
	return r.kernel
}

func (r *renderer) Compositor() frame.Compositor {
	return r.compositor
}

func (r *renderer) BufferAllocator() gpu_buffer.Allocator {
	return r.allocator
}

func (r *renderer) TextureAllocator() render_target.TextureAllocator {
	return r.allocator
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) PipelineKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.pipelineCache))
	for key := range r.pipelineCache {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode, width, height int) {
	r.backend.SetPresentMode(mode)
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true

	if r.kernel != nil {
		r.kernel.release()
	}
	if r.compositor != nil {
		r.compositor.release()
	}
	for _, p := range r.pipelineCache {
		p.Release()
	}
	r.pipelineCache = make(map[string]pipeline.Pipeline)
	if r.backend != nil {
		r.backend.Release()
	}
}
