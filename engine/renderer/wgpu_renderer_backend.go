package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/engine/frame"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   PresentMode
	configured    bool

	// frameEncoder collects every pass of the current frame; it is created by the first pass
	// recorded and consumed by PresentFrame or DiscardFrame.
	frameEncoder *wgpu.CommandEncoder

	released bool
}

type wgpuRendererBackend interface {
	Device() *wgpu.Device
	Queue() *wgpu.Queue

	// ConfigureSurface (re)configures the surface for a new size. A non-positive size leaves
	// the surface unconfigured and presenting becomes a no-op until a valid size arrives.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode. It takes effect on the next
	// ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SurfaceFormat returns the texel format of the surface, valid after ConfigureSurface.
	SurfaceFormat() wgpu.TextureFormat

	// RegisterRenderPipeline creates the shader module, bind group layouts and render pipeline
	// for p and stores them on p. A pipeline without a target format draws to the surface.
	//
	// Parameters:
	//   - p: the pipeline description
	//
	// Returns:
	//   - error: an error if any GPU object could not be created
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// RegisterComputePipeline creates the shader module, bind group layouts and compute
	// pipeline for p and stores them on p.
	//
	// Parameters:
	//   - p: the pipeline description
	//
	// Returns:
	//   - error: an error if any GPU object could not be created
	RegisterComputePipeline(p pipeline.Pipeline) error

	// CreateBuffer creates a GPU buffer.
	//
	// Parameters:
	//   - label: a debug label
	//   - size: the size in bytes
	//   - usage: the buffer usage flags
	//
	// Returns:
	//   - *wgpu.Buffer: the new buffer
	//   - error: an error if the buffer could not be created
	CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error)

	// WriteBuffer queues a write of data at the start of buf.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - data: the bytes to write, a multiple of four bytes long
	WriteBuffer(buf *wgpu.Buffer, data []byte)

	// CreateStorageTexture creates a 2D texture usable as a storage image and a sampled
	// texture, together with its default view.
	//
	// Parameters:
	//   - label: a debug label
	//   - width: the width in texels
	//   - height: the height in texels
	//   - format: the texel format
	//
	// Returns:
	//   - *wgpu.Texture: the texture
	//   - *wgpu.TextureView: its default view
	//   - error: an error if either could not be created
	CreateStorageTexture(label string, width, height int, format wgpu.TextureFormat) (*wgpu.Texture, *wgpu.TextureView, error)

	// BuildBindGroup rebuilds the provider's bind group if its bindings changed.
	//
	// Parameters:
	//   - provider: the provider to rebuild
	//
	// Returns:
	//   - error: an error if the bind group could not be created
	BuildBindGroup(provider bind_group_provider.BindGroupProvider) error

	// FrameEncoder returns the command encoder of the current frame, creating it on first use.
	//
	// Returns:
	//   - *wgpu.CommandEncoder: the frame encoder
	//   - error: an error if the encoder could not be created
	FrameEncoder() (*wgpu.CommandEncoder, error)

	// PresentFrame acquires the next surface texture, lets record encode the final pass into
	// it, submits every pass recorded this frame and presents.
	//
	// Parameters:
	//   - record: encodes the final pass targeting the surface view
	//
	// Returns:
	//   - error: frame.ErrNotPresented when there is no configured surface, or an error if the
	//     surface texture could not be acquired or the frame could not be submitted; the
	//     frame's recorded work is dropped in every error case
	PresentFrame(record func(encoder *wgpu.CommandEncoder, target *wgpu.TextureView)) error

	// DiscardFrame drops everything recorded for the current frame.
	DiscardFrame()

	// Release frees the device, surface and instance.
	Release()
}

var _ wgpuRendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (wgpuRendererBackend, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: PresentModeVSync,
	}
	if surfaceDescriptor != nil {
		w.surface = w.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("%w: request adapter: %w", ErrNoDevice, err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Tracer Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("%w: request device: %w", ErrNoDevice, err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w, nil
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil || b.released {
		return
	}
	if width <= 0 || height <= 0 {
		b.configured = false
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode.toWGPU(),
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.configured = true
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = mode
}

func (b *wgpuRendererBackendImpl) SurfaceFormat() wgpu.TextureFormat {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.surface != nil && b.surfaceFormat == wgpu.TextureFormatUndefined {
		capabilities := b.surface.GetCapabilities(b.adapter)
		if len(capabilities.Formats) > 0 {
			b.surfaceFormat = capabilities.Formats[0]
		}
	}
	return b.surfaceFormat
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	s := p.Shader()
	vsEntry, vsOK := s.EntryPoint(shader.ShaderTypeVertex)
	fsEntry, fsOK := s.EntryPoint(shader.ShaderTypeFragment)
	if !vsOK || !fsOK {
		return fmt.Errorf("pipeline %s: %w", p.PipelineKey(), pipeline.ErrStageMismatch)
	}

	format := p.TargetFormat()
	if format == wgpu.TextureFormatUndefined {
		format = b.SurfaceFormat()
	}

	module, err := b.device.CreateShaderModule(s.Module())
	if err != nil {
		return fmt.Errorf("pipeline %s: shader module: %w", p.PipelineKey(), err)
	}
	defer module.Release()

	layout, bindGroupLayouts, err := b.createPipelineLayout(p)
	if err != nil {
		return err
	}
	defer layout.Release()

	target := wgpu.ColorTargetState{
		Format:    format,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: vsEntry,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: fsEntry,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		releaseLayouts(bindGroupLayouts)
		return fmt.Errorf("pipeline %s: %w", p.PipelineKey(), err)
	}

	p.SetBindGroupLayouts(bindGroupLayouts)
	p.SetRenderPipeline(created)
	return nil
}

func (b *wgpuRendererBackendImpl) RegisterComputePipeline(p pipeline.Pipeline) error {
	s := p.Shader()
	entry, ok := s.EntryPoint(shader.ShaderTypeCompute)
	if !ok {
		return fmt.Errorf("pipeline %s: %w", p.PipelineKey(), pipeline.ErrStageMismatch)
	}

	module, err := b.device.CreateShaderModule(s.Module())
	if err != nil {
		return fmt.Errorf("pipeline %s: shader module: %w", p.PipelineKey(), err)
	}
	defer module.Release()

	layout, bindGroupLayouts, err := b.createPipelineLayout(p)
	if err != nil {
		return err
	}
	defer layout.Release()

	created, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.PipelineKey() + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: entry,
		},
	})
	if err != nil {
		releaseLayouts(bindGroupLayouts)
		return fmt.Errorf("pipeline %s: %w", p.PipelineKey(), err)
	}

	p.SetBindGroupLayouts(bindGroupLayouts)
	p.SetComputePipeline(created)
	return nil
}

// createPipelineLayout creates one bind group layout per group the shader declares. Gaps in
// the group numbering get an empty layout.
func (b *wgpuRendererBackendImpl) createPipelineLayout(p pipeline.Pipeline) (*wgpu.PipelineLayout, []*wgpu.BindGroupLayout, error) {
	descriptors := p.Shader().BindGroupLayoutDescriptors()
	maxGroup := -1
	for g := range descriptors {
		if g > maxGroup {
			maxGroup = g
		}
	}

	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g := range bindGroupLayouts {
		desc := descriptors[g]
		desc.Label = fmt.Sprintf("%s Group %d", p.PipelineKey(), g)
		bgl, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			releaseLayouts(bindGroupLayouts)
			return nil, nil, fmt.Errorf("pipeline %s: bind group layout %d: %w", p.PipelineKey(), g, err)
		}
		bindGroupLayouts[g] = bgl
	}

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		releaseLayouts(bindGroupLayouts)
		return nil, nil, fmt.Errorf("pipeline %s: layout: %w", p.PipelineKey(), err)
	}
	return layout, bindGroupLayouts, nil
}

func (b *wgpuRendererBackendImpl) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil, ErrReleased
	}
	return b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            usage,
		MappedAtCreation: false,
	})
}

func (b *wgpuRendererBackendImpl) WriteBuffer(buf *wgpu.Buffer, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released || buf == nil || len(data) == 0 {
		return
	}
	b.queue.WriteBuffer(buf, 0, data)
}

func (b *wgpuRendererBackendImpl) CreateStorageTexture(label string, width, height int, format wgpu.TextureFormat) (*wgpu.Texture, *wgpu.TextureView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil, nil, ErrReleased
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Usage: wgpu.TextureUsageStorageBinding |
			wgpu.TextureUsageTextureBinding |
			wgpu.TextureUsageCopySrc,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, err
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, err
	}
	return tex, view, nil
}

func (b *wgpuRendererBackendImpl) BuildBindGroup(provider bind_group_provider.BindGroupProvider) error {
	if !provider.Dirty() {
		return nil
	}
	layout := provider.BindGroupLayout()
	if layout == nil {
		return fmt.Errorf("bind group %s: no layout", provider.Label())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return ErrReleased
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: provider.Entries(),
	})
	if err != nil {
		return fmt.Errorf("bind group %s: %w", provider.Label(), err)
	}
	provider.SetBindGroup(bindGroup)
	return nil
}

func (b *wgpuRendererBackendImpl) FrameEncoder() (*wgpu.CommandEncoder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frameEncoderLocked()
}

func (b *wgpuRendererBackendImpl) frameEncoderLocked() (*wgpu.CommandEncoder, error) {
	if b.released {
		return nil, ErrReleased
	}
	if b.frameEncoder == nil {
		encoder, err := b.device.CreateCommandEncoder(nil)
		if err != nil {
			return nil, err
		}
		b.frameEncoder = encoder
	}
	return b.frameEncoder, nil
}

func (b *wgpuRendererBackendImpl) PresentFrame(record func(encoder *wgpu.CommandEncoder, target *wgpu.TextureView)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil || !b.configured {
		b.discardLocked()
		return frame.ErrNotPresented
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		b.discardLocked()
		return fmt.Errorf("renderer: acquire surface texture: %w", err)
	}
	defer surfaceTexture.Release()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		b.discardLocked()
		return fmt.Errorf("renderer: surface view: %w", err)
	}
	defer view.Release()

	encoder, err := b.frameEncoderLocked()
	if err != nil {
		return err
	}
	record(encoder, view)

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		b.discardLocked()
		return fmt.Errorf("renderer: finish frame: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()
	b.frameEncoder = nil

	b.surface.Present()
	return nil
}

func (b *wgpuRendererBackendImpl) DiscardFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.discardLocked()
}

func (b *wgpuRendererBackendImpl) discardLocked() {
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.released = true
	b.discardLocked()

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
	runtime.UnlockOSThread()
}

func releaseLayouts(layouts []*wgpu.BindGroupLayout) {
	for _, l := range layouts {
		if l != nil {
			l.Release()
		}
	}
}
