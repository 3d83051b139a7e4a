package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrStageMismatch is returned when a shader does not declare the stages a pipeline type needs.
var ErrStageMismatch = errors.New("pipeline: shader does not declare the required entry points")

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment entry points.
	PipelineTypeRender
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineType PipelineType
	pipelineKey  string
	shader       shader.Shader

	renderPipeline   *wgpu.RenderPipeline
	computePipeline  *wgpu.ComputePipeline
	bindGroupLayouts []*wgpu.BindGroupLayout

	// render-only state
	blendEnabled bool
	blendState   *wgpu.BlendState
	targetFormat wgpu.TextureFormat
	topology     wgpu.PrimitiveTopology
	writeMask    wgpu.ColorWriteMask
}

// Pipeline describes a GPU pipeline built from one shader module. The renderer backend creates
// the GPU objects and stores them back through the setters.
type Pipeline interface {
	// Type returns the type of the pipeline
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader returns the shader module the pipeline is built from.
	//
	// Returns:
	//   - shader.Shader: the pipeline's shader
	Shader() shader.Shader

	// Pipeline returns the underlying *wgpu.RenderPipeline or *wgpu.ComputePipeline, or nil
	// before the backend created it.
	//
	// Returns:
	//   - any: the underlying pipeline object
	Pipeline() any

	// BindGroupLayouts returns the GPU layouts created for the shader's bind groups, indexed
	// by group.
	//
	// Returns:
	//   - []*wgpu.BindGroupLayout: the layouts, or nil before creation
	BindGroupLayouts() []*wgpu.BindGroupLayout

	// BlendEnabled returns whether the color target blends with its previous contents.
	BlendEnabled() bool

	// BlendState returns the blend state used when blending is enabled.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState

	// TargetFormat returns the color target format for render pipelines.
	//
	// Returns:
	//   - wgpu.TextureFormat: the target format, or TextureFormatUndefined to use the surface format
	TargetFormat() wgpu.TextureFormat

	// Topology returns the primitive topology for render pipelines.
	Topology() wgpu.PrimitiveTopology

	// WriteMask returns the color write mask for render pipelines.
	WriteMask() wgpu.ColorWriteMask

	// SetRenderPipeline stores the created render pipeline.
	//
	// Parameters:
	//   - p: the WebGPU render pipeline
	SetRenderPipeline(p *wgpu.RenderPipeline)

	// SetComputePipeline stores the created compute pipeline.
	//
	// Parameters:
	//   - p: the WebGPU compute pipeline
	SetComputePipeline(p *wgpu.ComputePipeline)

	// SetBindGroupLayouts stores the created bind group layouts.
	//
	// Parameters:
	//   - layouts: the layouts indexed by group
	SetBindGroupLayouts(layouts []*wgpu.BindGroupLayout)

	// Release frees the GPU pipeline and its layouts.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a pipeline description for s.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - pipelineType: the type of pipeline to create (render or compute)
//   - s: the shader module; compute pipelines need a compute entry point, render pipelines a vertex and fragment pair
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: the new pipeline description
//   - error: ErrStageMismatch if s lacks the required entry points
func NewPipeline(pipelineKey string, pipelineType PipelineType, s shader.Shader, opts ...PipelineBuilderOption) (Pipeline, error) {
	if s == nil {
		return nil, fmt.Errorf("pipeline %s: %w", pipelineKey, ErrStageMismatch)
	}
	switch pipelineType {
	case PipelineTypeCompute:
		if !s.IsCompute() {
			return nil, fmt.Errorf("pipeline %s: %w", pipelineKey, ErrStageMismatch)
		}
	case PipelineTypeRender:
		_, vs := s.EntryPoint(shader.ShaderTypeVertex)
		_, fs := s.EntryPoint(shader.ShaderTypeFragment)
		if !vs || !fs {
			return nil, fmt.Errorf("pipeline %s: %w", pipelineKey, ErrStageMismatch)
		}
	}

	p := &pipeline{
		pipelineKey:  pipelineKey,
		pipelineType: pipelineType,
		shader:       s,
		topology:     wgpu.PrimitiveTopologyTriangleList,
		writeMask:    wgpu.ColorWriteMaskAll,
		targetFormat: wgpu.TextureFormatUndefined,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorZero,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) Pipeline() any {
	switch p.pipelineType {
	case PipelineTypeRender:
		if p.renderPipeline == nil {
			return nil
		}
		return p.renderPipeline
	case PipelineTypeCompute:
		if p.computePipeline == nil {
			return nil
		}
		return p.computePipeline
	default:
		return nil
	}
}

func (p *pipeline) BindGroupLayouts() []*wgpu.BindGroupLayout {
	return p.bindGroupLayouts
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) TargetFormat() wgpu.TextureFormat {
	return p.targetFormat
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline) {
	p.computePipeline = cp
}

func (p *pipeline) SetBindGroupLayouts(layouts []*wgpu.BindGroupLayout) {
	p.bindGroupLayouts = layouts
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
	for _, l := range p.bindGroupLayouts {
		if l != nil {
			l.Release()
		}
	}
	p.bindGroupLayouts = nil
}
