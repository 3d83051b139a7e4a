package renderer

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-trace/engine/frame"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/gpu_buffer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene_buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

// kernel is the WebGPU implementation of frame.Kernel. Uniform parameters are kept in a CPU
// block and uploaded on every dispatch; scene buffers and the output image are bound by name
// through the shader's parsed declarations.
type kernel struct {
	mu       *sync.Mutex
	backend  wgpuRendererBackend
	pipeline pipeline.Pipeline
	provider bind_group_provider.BindGroupProvider

	params       kernelParams
	paramsBuffer *wgpu.Buffer

	// placeholder is bound wherever a scene array is absent so the bind group stays complete.
	placeholder *wgpu.Buffer
	counts      map[string]int
}

var (
	_ frame.Kernel    = &kernel{}
	_ frame.Discarder = &kernel{}
)

func newKernel(backend wgpuRendererBackend, p pipeline.Pipeline) (*kernel, error) {
	layouts := p.BindGroupLayouts()
	if len(layouts) == 0 {
		return nil, fmt.Errorf("kernel %s: pipeline has no bind group layout", p.PipelineKey())
	}

	paramsBuffer, err := backend.CreateBuffer("Kernel Params", KernelParamsSize, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("kernel params: %w", err)
	}
	placeholder, err := backend.CreateBuffer("Kernel Placeholder", scene_buffer.ObjectStride, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		paramsBuffer.Release()
		return nil, fmt.Errorf("kernel placeholder: %w", err)
	}

	k := &kernel{
		mu:           &sync.Mutex{},
		backend:      backend,
		pipeline:     p,
		paramsBuffer: paramsBuffer,
		placeholder:  placeholder,
		counts:       make(map[string]int),
		provider: bind_group_provider.NewBindGroupProvider(
			bind_group_provider.WithLabel("Kernel"),
			bind_group_provider.WithBindGroupLayout(layouts[0]),
		),
	}

	if _, binding, ok := p.Shader().BindingFromVarName(varKernelParams); ok {
		k.provider.SetBuffer(binding, paramsBuffer)
	}
	for _, kind := range gpu_buffer.Kinds() {
		if _, binding, ok := p.Shader().BindingFromVarName(kind.BindingName()); ok {
			k.provider.SetBuffer(binding, placeholder)
		}
	}
	return k, nil
}

func (k *kernel) SetMatrix(name string, m mgl32.Mat4) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.params.setMatrix(name, m)
}

func (k *kernel) SetVector(name string, v mgl32.Vec4) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.params.setVector(name, v)
}

func (k *kernel) SetVector2(name string, v mgl32.Vec2) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.params.setVector2(name, v)
}

func (k *kernel) SetFloat(name string, f float32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.params.setFloat(name, f)
}

func (k *kernel) SetInt(name string, v int32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.params.setInt(name, v)
}

func (k *kernel) SetBuffer(name string, h *gpu_buffer.Handle) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !isSceneBinding(name) {
		return
	}
	_, binding, ok := k.pipeline.Shader().BindingFromVarName(name)
	if !ok {
		return
	}

	buf := bufferOf(h)
	if buf == nil {
		buf = k.placeholder
		k.counts[name] = 0
	} else {
		k.counts[name] = h.Count()
	}
	k.provider.SetBuffer(binding, buf)
	k.params.setCounts(
		k.counts[gpu_buffer.KindObjects.BindingName()],
		k.counts[gpu_buffer.KindIndices.BindingName()],
		k.counts[gpu_buffer.KindVertices.BindingName()],
	)
}

func (k *kernel) SetTarget(name string, t render_target.Target) {
	k.mu.Lock()
	defer k.mu.Unlock()

	_, binding, ok := k.pipeline.Shader().BindingFromVarName(name)
	if !ok {
		return
	}
	if t == nil {
		k.provider.SetTextureView(binding, nil)
		return
	}
	view, err := viewOf(t)
	if err != nil {
		k.provider.SetTextureView(binding, nil)
		return
	}
	k.provider.SetTextureView(binding, view)
}

func (k *kernel) Dispatch(x, y, z uint32) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	_, resultBinding, ok := k.pipeline.Shader().BindingFromVarName(frame.ParamResult)
	if !ok || k.provider.TextureView(resultBinding) == nil {
		return ErrTargetUnbound
	}
	computePipeline, ok := k.pipeline.Pipeline().(*wgpu.ComputePipeline)
	if !ok {
		return fmt.Errorf("kernel %s: compute pipeline not created", k.pipeline.PipelineKey())
	}

	k.backend.WriteBuffer(k.paramsBuffer, k.params[:])
	if err := k.backend.BuildBindGroup(k.provider); err != nil {
		return err
	}
	encoder, err := k.backend.FrameEncoder()
	if err != nil {
		return err
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(computePipeline)
	pass.SetBindGroup(0, k.provider.BindGroup(), nil)
	pass.DispatchWorkgroups(x, y, z)
	pass.End()
	return nil
}

func (k *kernel) DiscardFrame() {
	k.backend.DiscardFrame()
}

func (k *kernel) release() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.provider.Release()
	if k.paramsBuffer != nil {
		k.paramsBuffer.Release()
		k.paramsBuffer = nil
	}
	if k.placeholder != nil {
		k.placeholder.Release()
		k.placeholder = nil
	}
}

func isSceneBinding(name string) bool {
	for _, kind := range gpu_buffer.Kinds() {
		if kind.BindingName() == name {
			return true
		}
	}
	return false
}
