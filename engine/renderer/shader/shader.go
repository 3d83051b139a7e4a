package shader

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoEntryPoint is returned when a shader source declares no entry point at all.
var ErrNoEntryPoint = errors.New("shader: no entry point found")

// ShaderType identifies a pipeline stage.
type ShaderType int

const (
	// ShaderTypeCompute indicates a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex indicates a @vertex entry point.
	ShaderTypeVertex

	// ShaderTypeFragment indicates a @fragment entry point.
	ShaderTypeFragment
)

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	entryPoints                map[ShaderType]string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	workGroupSize              [3]uint32
	module                     *wgpu.ShaderModuleDescriptor
	declarations               []Annotation
}

// Shader is a pre-processed, parsed WGSL module. A module may hold a compute entry point or a
// vertex and fragment pair; bindings are visible to every stage the module declares.
type Shader interface {
	// Key retrieves the unique identifier for this shader.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the processed WGSL source.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// EntryPoint returns the entry point for a stage.
	//
	// Parameters:
	//   - stage: the stage to look up
	//
	// Returns:
	//   - string: the entry point name
	//   - bool: true if the module declares that stage
	EntryPoint(stage ShaderType) (string, bool)

	// IsCompute reports whether the module declares a compute entry point.
	IsCompute() bool

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors keyed
	// by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name bound at a group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if nothing is bound there
	BindGroupVarName(group, binding int) string

	// BindingFromVarName finds where a variable is bound.
	//
	// Parameters:
	//   - varName: the WGSL variable name
	//
	// Returns:
	//   - int: the group index
	//   - int: the binding index
	//   - bool: true if the variable was found
	BindingFromVarName(varName string) (int, int, bool)

	// WorkgroupSize returns the compute workgroup size, or [0, 0, 0] for render modules.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Module returns the descriptor used to create the GPU shader module.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor
	Module() *wgpu.ShaderModuleDescriptor

	// Declarations returns the @oxy:group annotations expanded while pre-processing.
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader pre-processes and parses WGSL source.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - source: the raw WGSL source, possibly containing @oxy: annotations
//   - pp: the pre-processor resolving includes; nil processes with no includes registered
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if pre-processing fails or no entry point is declared
func NewShader(key, source string, pp PreProcessor) (Shader, error) {
	if pp == nil {
		pp = NewPreProcessor()
	}
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}

	s := &shader{
		key:          key,
		source:       processed,
		entryPoints:  parseEntryPoints(processed),
		declarations: pp.Declarations(),
	}
	if len(s.entryPoints) == 0 {
		return nil, fmt.Errorf("shader %s: %w", key, ErrNoEntryPoint)
	}

	var visibility wgpu.ShaderStage
	if _, ok := s.entryPoints[ShaderTypeCompute]; ok {
		visibility |= wgpu.ShaderStageCompute
		s.workGroupSize = parseWorkgroupSize(processed)
	}
	if _, ok := s.entryPoints[ShaderTypeVertex]; ok {
		visibility |= wgpu.ShaderStageVertex
	}
	if _, ok := s.entryPoints[ShaderTypeFragment]; ok {
		visibility |= wgpu.ShaderStageFragment
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(processed, visibility)

	s.module = &wgpu.ShaderModuleDescriptor{
		Label: key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: processed,
		},
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint(stage ShaderType) (string, bool) {
	name, ok := s.entryPoints[stage]
	return name, ok
}

func (s *shader) IsCompute() bool {
	_, ok := s.entryPoints[ShaderTypeCompute]
	return ok
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindingFromVarName(varName string) (int, int, bool) {
	for group, bindings := range s.bindingVarNames {
		for binding, name := range bindings {
			if name == varName {
				return group, binding, true
			}
		}
	}
	return -1, -1, false
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}
