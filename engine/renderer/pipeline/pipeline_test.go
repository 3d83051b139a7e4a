package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
)

const computeSrc = "@compute @workgroup_size(16, 16) fn main() {}"

const renderSrc = `
@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }
@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
`

func mustShader(t *testing.T, key, src string) shader.Shader {
	t.Helper()
	s, err := shader.NewShader(key, src, nil)
	require.NoError(t, err)
	return s
}

func TestNewPipelineValidatesStages(t *testing.T) {
	compute := mustShader(t, "kernel", computeSrc)
	render := mustShader(t, "blit", renderSrc)

	_, err := NewPipeline("a", PipelineTypeRender, compute)
	assert.ErrorIs(t, err, ErrStageMismatch)
	_, err = NewPipeline("b", PipelineTypeCompute, render)
	assert.ErrorIs(t, err, ErrStageMismatch)
	_, err = NewPipeline("c", PipelineTypeCompute, nil)
	assert.ErrorIs(t, err, ErrStageMismatch)

	p, err := NewPipeline("kernel", PipelineTypeCompute, compute)
	require.NoError(t, err)
	assert.Equal(t, PipelineTypeCompute, p.Type())
	assert.Nil(t, p.Pipeline(), "no GPU object before the backend creates one")
}

func TestRenderPipelineOptions(t *testing.T) {
	p, err := NewPipeline("composite", PipelineTypeRender, mustShader(t, "blit", renderSrc),
		WithBlendEnabled(true),
		WithTargetFormat(wgpu.TextureFormatRGBA32Float),
	)
	require.NoError(t, err)

	assert.Equal(t, "composite", p.PipelineKey())
	assert.True(t, p.BlendEnabled())
	assert.Equal(t, wgpu.TextureFormatRGBA32Float, p.TargetFormat())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
	require.NotNil(t, p.BlendState())
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, p.BlendState().Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, p.BlendState().Color.DstFactor)
	assert.Equal(t, "blit", p.Shader().Key())

	p.Release()
	assert.Nil(t, p.BindGroupLayouts())
}

func TestRenderPipelineStateOverrides(t *testing.T) {
	additive := &wgpu.BlendState{
		Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOne, Operation: wgpu.BlendOperationAdd},
		Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorZero, Operation: wgpu.BlendOperationAdd},
	}
	p, err := NewPipeline("overlay", PipelineTypeRender, mustShader(t, "blit", renderSrc),
		WithBlendEnabled(true),
		WithBlendState(additive),
		WithTopology(wgpu.PrimitiveTopologyTriangleStrip),
		WithWriteMask(wgpu.ColorWriteMaskRed|wgpu.ColorWriteMaskGreen|wgpu.ColorWriteMaskBlue),
	)
	require.NoError(t, err)

	assert.Same(t, additive, p.BlendState())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, p.Topology())
	assert.Equal(t, wgpu.ColorWriteMaskRed|wgpu.ColorWriteMaskGreen|wgpu.ColorWriteMaskBlue, p.WriteMask())
	assert.Equal(t, wgpu.TextureFormatUndefined, p.TargetFormat(), "renders to the surface format")
}
