package renderer

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-trace/engine/frame"
)

// GPUKernelParamsSource is the canonical WGSL definition of the KernelParams uniform.
// Matches kernelParams' byte layout exactly (176 bytes).
//
//go:embed assets/kernel_params.wgsl
var GPUKernelParamsSource string

// KernelParamsSize is the byte size of the kernel parameter uniform.
const KernelParamsSize = 176

// Byte offsets of the uniform fields.
const (
	offsetCameraToWorld           = 0
	offsetCameraInverseProjection = 64
	offsetDirectionalLight        = 128
	offsetPixelOffset             = 144
	offsetSeed                    = 152
	offsetNumBounces              = 156
	offsetObjectCount             = 160
	offsetIndexCount              = 164
	offsetVertexCount             = 168
)

type paramKind int

const (
	paramMatrix paramKind = iota
	paramVector
	paramVector2
	paramFloat
	paramInt
)

type paramSlot struct {
	offset int
	kind   paramKind
}

// kernelParamSlots maps the kernel's uniform parameter names to their place in the block.
var kernelParamSlots = map[string]paramSlot{
	frame.ParamCameraToWorld:           {offsetCameraToWorld, paramMatrix},
	frame.ParamCameraInverseProjection: {offsetCameraInverseProjection, paramMatrix},
	frame.ParamDirectionalLight:        {offsetDirectionalLight, paramVector},
	frame.ParamPixelOffset:             {offsetPixelOffset, paramVector2},
	frame.ParamSeed:                    {offsetSeed, paramFloat},
	frame.ParamNumBounces:              {offsetNumBounces, paramInt},
}

// kernelParams is the CPU copy of the KernelParams uniform.
type kernelParams [KernelParamsSize]byte

// slot looks up name, reporting false for names the kernel does not declare or whose kind
// does not match.
func (p *kernelParams) slot(name string, kind paramKind) (int, bool) {
	s, ok := kernelParamSlots[name]
	if !ok || s.kind != kind {
		return 0, false
	}
	return s.offset, true
}

func (p *kernelParams) setMatrix(name string, m mgl32.Mat4) bool {
	off, ok := p.slot(name, paramMatrix)
	if !ok {
		return false
	}
	for i, v := range m {
		p.putFloat(off+i*4, v)
	}
	return true
}

func (p *kernelParams) setVector(name string, v mgl32.Vec4) bool {
	off, ok := p.slot(name, paramVector)
	if !ok {
		return false
	}
	for i, c := range v {
		p.putFloat(off+i*4, c)
	}
	return true
}

func (p *kernelParams) setVector2(name string, v mgl32.Vec2) bool {
	off, ok := p.slot(name, paramVector2)
	if !ok {
		return false
	}
	p.putFloat(off, v[0])
	p.putFloat(off+4, v[1])
	return true
}

func (p *kernelParams) setFloat(name string, f float32) bool {
	off, ok := p.slot(name, paramFloat)
	if !ok {
		return false
	}
	p.putFloat(off, f)
	return true
}

// setInt stores v as u32; negative values are stored as zero.
func (p *kernelParams) setInt(name string, v int32) bool {
	off, ok := p.slot(name, paramInt)
	if !ok {
		return false
	}
	if v < 0 {
		v = 0
	}
	p.putUint(off, uint32(v))
	return true
}

// setCounts stores the element counts of the three scene arrays.
func (p *kernelParams) setCounts(objects, indices, vertices int) {
	p.putUint(offsetObjectCount, uint32(objects))
	p.putUint(offsetIndexCount, uint32(indices))
	p.putUint(offsetVertexCount, uint32(vertices))
}

func (p *kernelParams) putFloat(off int, f float32) {
	binary.LittleEndian.PutUint32(p[off:], math.Float32bits(f))
}

func (p *kernelParams) putUint(off int, v uint32) {
	binary.LittleEndian.PutUint32(p[off:], v)
}

func (p *kernelParams) float(off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(p[off:]))
}

func (p *kernelParams) uint(off int) uint32 {
	return binary.LittleEndian.Uint32(p[off:])
}
