package scene_buffer

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-trace/engine/material"
)

// GPUMeshObjectSource is the canonical WGSL definition of the MeshObject struct. It depends on
// the Material struct from material.GPUMaterialSource being declared first.
// Matches GPUMeshObject layout exactly (112 bytes).
//
//go:embed assets/mesh_object.wgsl
var GPUMeshObjectSource string

const (
	// ObjectStride is the byte size of one per-object record on the GPU.
	ObjectStride = 64 + 4 + 4 + material.GPUMaterialSize

	// VertexStride is the byte size of one vertex position (three f32).
	VertexStride = 12

	// IndexStride is the byte size of one triangle index (u32).
	IndexStride = 4
)

// GPUMeshObject is the GPU layout of an ObjectRecord.
type GPUMeshObject struct {
	LocalToWorld  [16]float32          // offset 0: column-major
	IndicesOffset uint32               // offset 64
	IndicesCount  uint32               // offset 68
	Material      material.GPUMaterial // offset 72
}

// MarshalInto writes the little-endian GPU representation of g into buf, which must hold at
// least ObjectStride bytes.
//
// Parameters:
//   - buf: destination buffer
func (g *GPUMeshObject) MarshalInto(buf []byte) {
	for i, f := range g.LocalToWorld {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(f))
	}
	binary.LittleEndian.PutUint32(buf[64:68], g.IndicesOffset)
	binary.LittleEndian.PutUint32(buf[68:72], g.IndicesCount)
	g.Material.MarshalInto(buf[72:ObjectStride])
}

// Marshal serializes the GPUMeshObject into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: ObjectStride-byte buffer
func (g *GPUMeshObject) Marshal() []byte {
	buf := make([]byte, ObjectStride)
	g.MarshalInto(buf)
	return buf
}
