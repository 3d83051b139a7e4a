package scene_buffer

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/mesh"
	"github.com/Carmen-Shannon/oxy-trace/engine/ray_object"
	"github.com/Carmen-Shannon/oxy-trace/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingResolver struct{}

func (failingResolver) Resolve() (mesh.Mesh, error) {
	return nil, errors.New("not loaded")
}

func triangleMesh(name string, vertexCount int, indices ...uint32) mesh.Mesh {
	verts := make([]mgl32.Vec3, vertexCount)
	for i := range verts {
		verts[i] = mgl32.Vec3{float32(i), 0, 0}
	}
	return mesh.NewMesh(name, verts, indices)
}

func object(m mesh.Resolver) ray_object.RayObject {
	return ray_object.NewRayObject(ray_object.WithMesh(m))
}

func TestBuildTwoObjects(t *testing.T) {
	a := object(triangleMesh("a", 3, 0, 1, 2))
	b := object(triangleMesh("b", 4, 0, 1, 2, 0, 2, 3))

	out := NewBuilder().Build([]ray_object.RayObject{a, b})

	require.Len(t, out.Objects, 2)
	assert.Len(t, out.Vertices, 7)
	assert.Len(t, out.Indices, 9)
	assert.Empty(t, out.Skipped)

	assert.Equal(t, uint32(0), out.Objects[0].IndicesOffset)
	assert.Equal(t, uint32(3), out.Objects[0].IndicesCount)
	assert.Equal(t, uint32(3), out.Objects[1].IndicesOffset)
	assert.Equal(t, uint32(6), out.Objects[1].IndicesCount)

	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 3, 5, 6}, out.Indices)
}

func TestBuildOffsetsStayContiguousAcrossSkips(t *testing.T) {
	objs := []ray_object.RayObject{
		object(mesh.Cube()),
		object(mesh.NewMesh("empty", nil, nil)),
		object(failingResolver{}),
		object(mesh.Quad()),
		ray_object.NewRayObject(),
		object(mesh.Sphere(6, 4)),
		object(triangleMesh("bad", 2, 0, 1, 5)),
	}

	out := NewBuilder().Build(objs)

	require.Len(t, out.Skipped, 3)
	assert.Same(t, objs[2], out.Skipped[0].Object)
	assert.ErrorIs(t, out.Skipped[1].Err, ErrNoMesh)
	assert.ErrorIs(t, out.Skipped[2].Err, mesh.ErrInvalidMesh)

	require.Len(t, out.Objects, 4)
	var indexSum, offset uint32
	vertexSum := 0
	for i, r := range out.Objects {
		assert.Equal(t, offset, r.IndicesOffset, "record %d", i)
		offset += r.IndicesCount
		indexSum += r.IndicesCount
	}
	for _, m := range []mesh.Mesh{mesh.Cube(), mesh.Quad(), mesh.Sphere(6, 4)} {
		vertexSum += m.VertexCount()
	}
	assert.Equal(t, int(indexSum), len(out.Indices))
	assert.Equal(t, vertexSum, len(out.Vertices))

	// the empty mesh contributes a zero-count record and shifts nothing
	assert.Equal(t, uint32(0), out.Objects[1].IndicesCount)
	assert.Equal(t, out.Objects[1].IndicesOffset, out.Objects[2].IndicesOffset)

	for _, idx := range out.Indices {
		assert.Less(t, int(idx), len(out.Vertices))
	}
}

func TestRemovingObjectOnlyShiftsLaterOffsets(t *testing.T) {
	a := object(mesh.Cube())
	b := object(mesh.Quad())
	c := object(mesh.Tetrahedron())
	builder := NewBuilder()

	full := builder.Build([]ray_object.RayObject{a, b, c})
	without := builder.Build([]ray_object.RayObject{a, c})

	require.Len(t, without.Objects, 2)
	assert.Equal(t, full.Objects[0], without.Objects[0])
	assert.Equal(t, full.Objects[2].IndicesCount, without.Objects[1].IndicesCount)
	assert.Equal(t, full.Objects[2].IndicesOffset-uint32(mesh.Quad().IndexCount()), without.Objects[1].IndicesOffset)
}

func TestParallelMatchesSerial(t *testing.T) {
	objs := make([]ray_object.RayObject, 0, 50)
	lib := mesh.NewLibrary()
	names := lib.Names()
	for i := 0; i < 50; i++ {
		o := ray_object.NewRayObject(
			ray_object.WithMesh(lib.Ref(names[i%len(names)])),
			ray_object.WithTransform(transform.NewTransform(transform.WithPosition(float32(i), 0, 0))),
		)
		objs = append(objs, o)
	}

	serial := NewBuilder(WithParallelThreshold(1000)).Build(objs)
	parallel := NewBuilder(WithParallelThreshold(0), WithWorkers(3)).Build(objs)

	assert.Equal(t, serial.Objects, parallel.Objects)
	assert.Equal(t, serial.Vertices, parallel.Vertices)
	assert.Equal(t, serial.Indices, parallel.Indices)
}

func TestRecordCarriesTransformAndMaterial(t *testing.T) {
	mat := material.Material{Albedo: [3]float32{0.2, 0.4, 0.6}, Smoothness: 0.9}
	o := ray_object.NewRayObject(
		ray_object.WithMesh(mesh.Quad()),
		ray_object.WithMaterial(mat),
		ray_object.WithTransform(transform.NewTransform(transform.WithPosition(5, 6, 7))),
	)

	out := NewBuilder().Build([]ray_object.RayObject{o})
	require.Len(t, out.Objects, 1)
	assert.Equal(t, mat, out.Objects[0].Material)
	assert.Equal(t, mgl32.Translate3D(5, 6, 7), out.Objects[0].LocalToWorld)

	// transforms are read fresh on each build
	o.Transform().SetPosition(mgl32.Vec3{1, 1, 1})
	out = NewBuilder().Build([]ray_object.RayObject{o})
	assert.Equal(t, mgl32.Translate3D(1, 1, 1), out.Objects[0].LocalToWorld)
}

func TestByteLayouts(t *testing.T) {
	o := ray_object.NewRayObject(
		ray_object.WithMesh(triangleMesh("t", 3, 0, 1, 2)),
		ray_object.WithMaterial(material.Material{Emission: [3]float32{0.5, 0.25, 0.125}}),
	)
	out := NewBuilder().Build([]ray_object.RayObject{o, o})

	objBytes := out.ObjectBytes()
	require.Len(t, objBytes, 2*ObjectStride)
	assert.Equal(t, 112, ObjectStride)
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(objBytes[ObjectStride+64:]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(objBytes[ObjectStride+68:]))
	assert.Equal(t, float32(0.125), math.Float32frombits(binary.LittleEndian.Uint32(objBytes[ObjectStride-4:])))
	// identity matrix diagonal
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(objBytes[0:4])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(objBytes[60:64])))

	vb := out.VertexBytes()
	require.Len(t, vb, 6*VertexStride)
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(vb[2*VertexStride:])))

	ib := out.IndexBytes()
	require.Len(t, ib, 6*IndexStride)
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(ib[5*IndexStride:]))

	empty := NewBuilder().Build(nil)
	assert.Nil(t, empty.ObjectBytes())
	assert.Nil(t, empty.VertexBytes())
	assert.Nil(t, empty.IndexBytes())
}

func TestReleaseStopsPoolAndBuildRestartsIt(t *testing.T) {
	objs := []ray_object.RayObject{object(mesh.Cube()), object(mesh.Quad())}
	b := NewBuilder(WithParallelThreshold(0), WithWorkers(2))
	impl := b.(*builder)

	b.Release()
	assert.Nil(t, impl.pool, "releasing an unused builder is a no-op")

	first := b.Build(objs)
	require.NotNil(t, impl.pool)

	b.Release()
	assert.Nil(t, impl.pool)

	second := b.Build(objs)
	assert.Equal(t, first, second)
	b.Release()
}
