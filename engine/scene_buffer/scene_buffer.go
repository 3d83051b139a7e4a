package scene_buffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/mesh"
	"github.com/Carmen-Shannon/oxy-trace/engine/ray_object"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoMesh is recorded for objects that have no mesh reference at all.
var ErrNoMesh = errors.New("scene_buffer: object has no mesh")

// ObjectRecord is the flattened per-object entry. IndicesOffset and IndicesCount address a
// range of the concatenated index array, whose entries are global vertex indices.
type ObjectRecord struct {
	LocalToWorld  mgl32.Mat4
	IndicesOffset uint32
	IndicesCount  uint32
	Material      material.Material
}

// ToGPU converts r into its GPU layout.
func (r ObjectRecord) ToGPU() GPUMeshObject {
	return GPUMeshObject{
		LocalToWorld:  r.LocalToWorld,
		IndicesOffset: r.IndicesOffset,
		IndicesCount:  r.IndicesCount,
		Material:      r.Material.ToGPU(),
	}
}

// Skipped names an object left out of a build and why.
type Skipped struct {
	Object ray_object.RayObject
	Err    error
}

// Buffers is the flattened scene: three parallel arrays built together as a unit.
type Buffers struct {
	Objects  []ObjectRecord
	Vertices []mgl32.Vec3
	Indices  []uint32

	// Skipped lists objects whose mesh could not be resolved. They contribute nothing.
	Skipped []Skipped
}

// ObjectBytes returns the object records in GPU layout, ObjectStride bytes each.
func (b Buffers) ObjectBytes() []byte {
	if len(b.Objects) == 0 {
		return nil
	}
	buf := make([]byte, len(b.Objects)*ObjectStride)
	for i, r := range b.Objects {
		g := r.ToGPU()
		g.MarshalInto(buf[i*ObjectStride : (i+1)*ObjectStride])
	}
	return buf
}

// VertexBytes returns the vertex positions as packed little-endian f32 triples.
func (b Buffers) VertexBytes() []byte {
	if len(b.Vertices) == 0 {
		return nil
	}
	buf := make([]byte, len(b.Vertices)*VertexStride)
	for i, v := range b.Vertices {
		o := i * VertexStride
		binary.LittleEndian.PutUint32(buf[o:o+4], math.Float32bits(v[0]))
		binary.LittleEndian.PutUint32(buf[o+4:o+8], math.Float32bits(v[1]))
		binary.LittleEndian.PutUint32(buf[o+8:o+12], math.Float32bits(v[2]))
	}
	return buf
}

// IndexBytes returns the indices as packed little-endian u32.
func (b Buffers) IndexBytes() []byte {
	if len(b.Indices) == 0 {
		return nil
	}
	buf := make([]byte, len(b.Indices)*IndexStride)
	for i, idx := range b.Indices {
		binary.LittleEndian.PutUint32(buf[i*IndexStride:], idx)
	}
	return buf
}

// builder is the implementation of the Builder interface.
type builder struct {
	workers           int
	parallelThreshold int

	poolMu *sync.Mutex
	pool   worker.DynamicWorkerPool
}

// Builder flattens a list of objects into Buffers.
type Builder interface {
	// Build flattens objects in order. For each object whose mesh resolves, it appends a
	// record whose index range starts at the current index count, appends the mesh's
	// vertices verbatim, and appends the mesh's indices shifted by the number of vertices
	// emitted before it. Objects whose mesh cannot be resolved, or whose indices fall
	// outside their own vertices, are skipped and reported in Buffers.Skipped.
	// The output is deterministic for a given input.
	//
	// Parameters:
	//   - objects: the objects to flatten, in registry order
	//
	// Returns:
	//   - Buffers: the flattened scene
	Build(objects []ray_object.RayObject) Buffers

	// Release stops the worker pool. A later Build starts a new one if it needs it.
	Release()
}

var _ Builder = &builder{}

// NewBuilder creates a Builder. Scenes with at least the parallel threshold of objects copy
// geometry on a worker pool; smaller scenes are copied inline.
//
// Parameters:
//   - opts: functional options
//
// Returns:
//   - Builder: the new builder
func NewBuilder(opts ...BuilderOption) Builder {
	b := &builder{
		workers:           4,
		parallelThreshold: 64,
		poolMu:            &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers < 1 {
		b.workers = 1
	}
	return b
}

// placement is the serially computed slot of one resolved object in the output arrays.
type placement struct {
	obj          ray_object.RayObject
	mesh         mesh.Mesh
	record       int
	vertexOffset uint32
	indexOffset  uint32
}

func (b *builder) Build(objects []ray_object.RayObject) Buffers {
	var out Buffers

	// Phase 1: resolve and lay out serially so offsets follow registry order.
	placements := make([]placement, 0, len(objects))
	var vertexTotal, indexTotal uint32
	for _, obj := range objects {
		if obj == nil {
			continue
		}
		m, err := resolve(obj)
		if err != nil {
			out.Skipped = append(out.Skipped, Skipped{Object: obj, Err: err})
			continue
		}
		placements = append(placements, placement{
			obj:          obj,
			mesh:         m,
			record:       len(placements),
			vertexOffset: vertexTotal,
			indexOffset:  indexTotal,
		})
		vertexTotal += uint32(m.VertexCount())
		indexTotal += uint32(m.IndexCount())
	}

	out.Objects = make([]ObjectRecord, len(placements))
	out.Vertices = make([]mgl32.Vec3, vertexTotal)
	out.Indices = make([]uint32, indexTotal)

	// Phase 2: every placement writes a disjoint region, so copies can run concurrently.
	if len(placements) < b.parallelThreshold {
		for i := range placements {
			fill(&out, placements[i])
		}
		return out
	}

	pool := b.workerPool()
	var wg sync.WaitGroup
	for i := range placements {
		wg.Add(1)
		p := placements[i]
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				fill(&out, p)
				return nil, nil
			},
		})
	}
	wg.Wait()

	return out
}

func (b *builder) workerPool() worker.DynamicWorkerPool {
	b.poolMu.Lock()
	defer b.poolMu.Unlock()
	if b.pool == nil {
		b.pool = worker.NewDynamicWorkerPool(b.workers, 256, 1*time.Second)
	}
	return b.pool
}

func (b *builder) Release() {
	b.poolMu.Lock()
	defer b.poolMu.Unlock()
	if b.pool != nil {
		b.pool.Stop()
		b.pool = nil
	}
}

func resolve(obj ray_object.RayObject) (mesh.Mesh, error) {
	ref := obj.Mesh()
	if ref == nil {
		return nil, ErrNoMesh
	}
	m, err := ref.Resolve()
	if err != nil {
		return nil, fmt.Errorf("scene_buffer: resolve mesh: %w", err)
	}
	if err := mesh.Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

func fill(out *Buffers, p placement) {
	out.Objects[p.record] = ObjectRecord{
		LocalToWorld:  p.obj.Transform().Matrix(),
		IndicesOffset: p.indexOffset,
		IndicesCount:  uint32(p.mesh.IndexCount()),
		Material:      p.obj.Material(),
	}
	copy(out.Vertices[p.vertexOffset:], p.mesh.Vertices())
	dst := out.Indices[p.indexOffset : p.indexOffset+uint32(p.mesh.IndexCount())]
	for i, idx := range p.mesh.Indices() {
		dst[i] = idx + p.vertexOffset
	}
}
