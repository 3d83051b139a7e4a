package renderer

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/frame"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/render_target"
	"github.com/cogentcore/webgpu/wgpu"
)

// compositor is the WebGPU implementation of frame.Compositor. Blend runs a compute pass that
// writes the new running average into a scratch image; Present draws that image onto the
// surface, submits the frame and only then swaps the scratch image into the accumulated
// target, so a dropped frame leaves the accumulated image untouched.
type compositor struct {
	mu      *sync.Mutex
	backend wgpuRendererBackend

	blend           pipeline.Pipeline
	blendProvider   bind_group_provider.BindGroupProvider
	blendSource     int
	blendHistory    int
	blendOutput     int
	weightBuffer    *wgpu.Buffer
	scratch         *storageTarget
	pending         *storageTarget
	present         pipeline.Pipeline
	presentProvider bind_group_provider.BindGroupProvider
	presentSource   int
}

var (
	_ frame.Compositor = &compositor{}
	_ frame.Discarder  = &compositor{}
)

func newCompositor(backend wgpuRendererBackend, blend, present pipeline.Pipeline) (*compositor, error) {
	if len(blend.BindGroupLayouts()) == 0 || len(present.BindGroupLayouts()) == 0 {
		return nil, fmt.Errorf("compositor: pipelines have no bind group layout")
	}
	bindings := make(map[string]int)
	for _, name := range []string{varSource, varHistory, varOutput, varBlendParams} {
		_, binding, ok := blend.Shader().BindingFromVarName(name)
		if !ok {
			return nil, fmt.Errorf("compositor: %s does not declare %s", blend.PipelineKey(), name)
		}
		bindings[name] = binding
	}
	_, presentSource, ok := present.Shader().BindingFromVarName(varSource)
	if !ok {
		return nil, fmt.Errorf("compositor: %s does not declare %s", present.PipelineKey(), varSource)
	}

	weightBuffer, err := backend.CreateBuffer("Blend Params", blendParamsSize, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("compositor: %w", err)
	}

	return &compositor{
		mu:           &sync.Mutex{},
		backend:      backend,
		blend:        blend,
		blendSource:  bindings[varSource],
		blendHistory: bindings[varHistory],
		blendOutput:  bindings[varOutput],
		weightBuffer: weightBuffer,
		blendProvider: bind_group_provider.NewBindGroupProvider(
			bind_group_provider.WithLabel("Blend"),
			bind_group_provider.WithBindGroupLayout(blend.BindGroupLayouts()[0]),
			bind_group_provider.WithBuffer(bindings[varBlendParams], weightBuffer),
		),
		present:       present,
		presentSource: presentSource,
		presentProvider: bind_group_provider.NewBindGroupProvider(
			bind_group_provider.WithLabel("Present"),
			bind_group_provider.WithBindGroupLayout(present.BindGroupLayouts()[0]),
		),
	}, nil
}

func (c *compositor) Blend(raw, accumulated render_target.Target, weight float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rawView, err := viewOf(raw)
	if err != nil {
		return fmt.Errorf("compositor: raw image: %w", err)
	}
	accView, err := viewOf(accumulated)
	if err != nil {
		return fmt.Errorf("compositor: accumulated image: %w", err)
	}
	acc := accumulated.(*storageTarget)
	computePipeline, ok := c.blend.Pipeline().(*wgpu.ComputePipeline)
	if !ok {
		return fmt.Errorf("compositor: %s pipeline not created", c.blend.PipelineKey())
	}
	if err := c.ensureScratch(acc.width, acc.height); err != nil {
		return err
	}

	c.backend.WriteBuffer(c.weightBuffer, blendParams(weight))
	c.blendProvider.SetTextureView(c.blendSource, rawView)
	c.blendProvider.SetTextureView(c.blendHistory, accView)
	c.blendProvider.SetTextureView(c.blendOutput, c.scratch.view)
	if err := c.backend.BuildBindGroup(c.blendProvider); err != nil {
		return err
	}
	encoder, err := c.backend.FrameEncoder()
	if err != nil {
		return err
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(computePipeline)
	pass.SetBindGroup(0, c.blendProvider.BindGroup(), nil)
	pass.DispatchWorkgroups(common.GroupCount(acc.width, frame.TileSize), common.GroupCount(acc.height, frame.TileSize), 1)
	pass.End()
	c.pending = acc
	return nil
}

// ensureScratch keeps the scratch image the size of the accumulated image.
func (c *compositor) ensureScratch(width, height int) error {
	if c.scratch != nil && c.scratch.view != nil && c.scratch.width == width && c.scratch.height == height {
		return nil
	}
	c.releaseScratch()
	tex, view, err := c.backend.CreateStorageTexture("Accumulation Scratch", width, height, TargetFormat)
	if err != nil {
		return fmt.Errorf("compositor: scratch image: %w", err)
	}
	c.scratch = &storageTarget{texture: tex, view: view, width: width, height: height}
	return nil
}

func (c *compositor) releaseScratch() {
	if c.scratch != nil {
		c.scratch.Release()
		c.scratch = nil
	}
}

// presentSourceFor returns the image Present must show for accumulated: the freshly blended
// scratch image when a blend into accumulated is pending, the accumulated image otherwise.
func (c *compositor) presentSourceFor(accumulated render_target.Target) (*wgpu.TextureView, error) {
	if c.pending != nil && render_target.Target(c.pending) == accumulated && c.scratch != nil {
		if c.scratch.view == nil {
			return nil, ErrReleased
		}
		return c.scratch.view, nil
	}
	return viewOf(accumulated)
}

// commit makes the pending blend result the accumulated image.
func (c *compositor) commit() {
	if c.pending != nil && c.scratch != nil {
		c.pending.swap(c.scratch)
	}
	c.pending = nil
}

func (c *compositor) Present(accumulated render_target.Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	accView, err := c.presentSourceFor(accumulated)
	if err != nil {
		c.discardLocked()
		return fmt.Errorf("compositor: accumulated image: %w", err)
	}
	renderPipeline, ok := c.present.Pipeline().(*wgpu.RenderPipeline)
	if !ok {
		c.discardLocked()
		return fmt.Errorf("compositor: %s pipeline not created", c.present.PipelineKey())
	}

	c.presentProvider.SetTextureView(c.presentSource, accView)
	if err := c.backend.BuildBindGroup(c.presentProvider); err != nil {
		c.discardLocked()
		return err
	}
	bindGroup := c.presentProvider.BindGroup()

	err = c.backend.PresentFrame(func(encoder *wgpu.CommandEncoder, target *wgpu.TextureView) {
		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: "Present Pass",
			ColorAttachments: []wgpu.RenderPassColorAttachment{
				{
					View:       target,
					LoadOp:     wgpu.LoadOpClear,
					StoreOp:    wgpu.StoreOpStore,
					ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
				},
			},
		})
		pass.SetPipeline(renderPipeline)
		pass.SetBindGroup(0, bindGroup, nil)
		pass.Draw(3, 1, 0, 0)
		pass.End()
	})
	if err != nil {
		c.pending = nil
		return err
	}
	c.commit()
	return nil
}

func (c *compositor) DiscardFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discardLocked()
}

func (c *compositor) discardLocked() {
	c.pending = nil
	c.backend.DiscardFrame()
}

func (c *compositor) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	c.releaseScratch()
	c.blendProvider.Release()
	c.presentProvider.Release()
	if c.weightBuffer != nil {
		c.weightBuffer.Release()
		c.weightBuffer = nil
	}
}

// blendParams encodes the composite pass uniform: the weight followed by padding.
func blendParams(weight float32) []byte {
	buf := make([]byte, blendParamsSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(weight))
	return buf
}
