package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterialSource is the canonical WGSL definition of the Material struct.
// Matches GPUMaterial layout exactly (40 bytes, every member 4-byte aligned).
//
//go:embed assets/material.wgsl
var GPUMaterialSource string

// GPUMaterialSize is the byte size of GPUMaterial.
const GPUMaterialSize = 40

// GPUMaterial is the GPU layout of a Material. Colors are stored as array<f32, 3> rather than
// vec3<f32> so the struct packs without the 16-byte alignment padding of vectors.
type GPUMaterial struct {
	Albedo     [3]float32 // offset 0
	Specular   [3]float32 // offset 12
	Smoothness float32    // offset 24
	Emission   [3]float32 // offset 28
}

// ToGPU converts m into its GPU layout.
func (m Material) ToGPU() GPUMaterial {
	return GPUMaterial{
		Albedo:     m.Albedo,
		Specular:   m.Specular,
		Smoothness: m.Smoothness,
		Emission:   m.Emission,
	}
}

// Size returns the size of the GPUMaterial struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterial) Size() int {
	return int(unsafe.Sizeof(*g))
}

// MarshalInto writes the little-endian GPU representation of g into buf, which must hold at
// least GPUMaterialSize bytes.
//
// Parameters:
//   - buf: destination buffer
func (g *GPUMaterial) MarshalInto(buf []byte) {
	putVec3(buf[0:12], g.Albedo)
	putVec3(buf[12:24], g.Specular)
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Smoothness))
	putVec3(buf[28:40], g.Emission)
}

// Marshal serializes the GPUMaterial struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 40-byte buffer ready for GPU upload.
func (g *GPUMaterial) Marshal() []byte {
	buf := make([]byte, GPUMaterialSize)
	g.MarshalInto(buf)
	return buf
}

func putVec3(buf []byte, v [3]float32) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v[2]))
}
