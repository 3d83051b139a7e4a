package renderer

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene_buffer"
)

// Pipeline keys registered by NewRenderer.
const (
	PipelineKeyRayTrace  = "raytrace"
	PipelineKeyComposite = "composite"
	PipelineKeyPresent   = "present"
)

// Bind group variable names used outside the kernel's scene bindings.
const (
	varKernelParams = "_Params"
	varBlendParams  = "_Blend"
	varSource       = "_Source"
	varHistory      = "_History"
	varOutput       = "_Output"
)

// blendParamsSize is the byte size of the composite pass uniform.
const blendParamsSize = 16

//go:embed assets/raytrace.wgsl
var rayTraceSource string

//go:embed assets/composite.wgsl
var compositeSource string

//go:embed assets/present.wgsl
var presentSource string

// newPreProcessor returns a pre-processor with every GPU struct definition the tracer's
// shaders include.
func newPreProcessor() shader.PreProcessor {
	return shader.NewPreProcessor(
		shader.WithInclude("Material", material.GPUMaterialSource),
		shader.WithInclude("MeshObject", scene_buffer.GPUMeshObjectSource),
		shader.WithInclude("KernelParams", GPUKernelParamsSource),
	)
}

// newPipelines parses the tracer's shaders and describes its three pipelines. No GPU object
// is created here.
//
// Parameters:
//   - kernelSource: the ray tracing kernel WGSL; empty selects the built-in kernel
//
// Returns:
//   - map[string]pipeline.Pipeline: the pipelines keyed by PipelineKey*
//   - error: an error if a shader fails to parse or lacks the entry points its pipeline needs
func newPipelines(kernelSource string) (map[string]pipeline.Pipeline, error) {
	if kernelSource == "" {
		kernelSource = rayTraceSource
	}

	kernelShader, err := shader.NewShader(PipelineKeyRayTrace, kernelSource, newPreProcessor())
	if err != nil {
		return nil, err
	}
	if _, _, ok := kernelShader.BindingFromVarName(varKernelParams); !ok {
		return nil, fmt.Errorf("shader %s: %s is not declared", PipelineKeyRayTrace, varKernelParams)
	}
	kernel, err := pipeline.NewPipeline(PipelineKeyRayTrace, pipeline.PipelineTypeCompute, kernelShader)
	if err != nil {
		return nil, err
	}

	compositeShader, err := shader.NewShader(PipelineKeyComposite, compositeSource, newPreProcessor())
	if err != nil {
		return nil, err
	}
	composite, err := pipeline.NewPipeline(PipelineKeyComposite, pipeline.PipelineTypeCompute, compositeShader)
	if err != nil {
		return nil, err
	}

	presentShader, err := shader.NewShader(PipelineKeyPresent, presentSource, newPreProcessor())
	if err != nil {
		return nil, err
	}
	present, err := pipeline.NewPipeline(PipelineKeyPresent, pipeline.PipelineTypeRender, presentShader)
	if err != nil {
		return nil, err
	}

	return map[string]pipeline.Pipeline{
		PipelineKeyRayTrace:  kernel,
		PipelineKeyComposite: composite,
		PipelineKeyPresent:   present,
	}, nil
}
