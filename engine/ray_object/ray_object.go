package ray_object

import (
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/mesh"
	"github.com/Carmen-Shannon/oxy-trace/engine/transform"
)

var nextID atomic.Uint64

type rayObject struct {
	id   uint64
	name string

	mu        *sync.Mutex
	transform transform.Transform
	mesh      mesh.Resolver
	material  material.Material
	generator material.Generator
}

// RayObject is a renderable entity: a transform, a mesh reference and a material. Objects
// become visible to the tracer when they are registered with a registry and stop being
// visible when unregistered. The transform and material are read fresh on every scene rebuild.
type RayObject interface {
	// ID returns the object's process-unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Name returns the human-readable object name.
	//
	// Returns:
	//   - string: the name, possibly empty
	Name() string

	// Transform returns the object's local-to-world transform.
	//
	// Returns:
	//   - transform.Transform: the transform
	Transform() transform.Transform

	// Mesh returns the reference used to resolve the object's geometry.
	//
	// Returns:
	//   - mesh.Resolver: the mesh reference, or nil if none is set
	Mesh() mesh.Resolver

	// SetMesh replaces the mesh reference.
	//
	// Parameters:
	//   - m: the new mesh reference
	SetMesh(m mesh.Resolver)

	// Material returns the current material.
	//
	// Returns:
	//   - material.Material: the material
	Material() material.Material

	// SetMaterial replaces the material. The value is clamped into range.
	//
	// Parameters:
	//   - m: the new material
	SetMaterial(m material.Material)

	// RandomMaterial reports whether the object draws its material from a generator.
	//
	// Returns:
	//   - bool: true if a generator is attached
	RandomMaterial() bool

	// Reroll draws a new material from the attached generator. It is a no-op for objects
	// without a generator.
	//
	// Parameters:
	//   - rng: the random source handed to the generator
	//
	// Returns:
	//   - bool: true if the material was replaced
	Reroll(rng *rand.Rand) bool
}

var _ RayObject = &rayObject{}

// NewRayObject creates a RayObject with an identity transform, no mesh and a neutral grey
// material, then applies the options. When a generator is supplied its first material is
// drawn immediately.
//
// Parameters:
//   - opts: functional options applied in order
//
// Returns:
//   - RayObject: the new object
func NewRayObject(opts ...RayObjectBuilderOption) RayObject {
	o := &rayObject{
		id:        nextID.Add(1),
		mu:        &sync.Mutex{},
		transform: transform.NewTransform(),
		material: material.Material{
			Albedo:     [3]float32{0.8, 0.8, 0.8},
			Smoothness: 0.2,
		},
	}

	var rng *rand.Rand
	for _, opt := range opts {
		if r := opt(o); r != nil {
			rng = r
		}
	}
	if o.generator != nil {
		if rng == nil {
			rng = rand.New(rand.NewSource(int64(o.id)))
		}
		o.material = o.generator(rng).Clamped()
	}
	return o
}

func (o *rayObject) ID() uint64 {
	return o.id
}

func (o *rayObject) Name() string {
	return o.name
}

func (o *rayObject) Transform() transform.Transform {
	return o.transform
}

func (o *rayObject) Mesh() mesh.Resolver {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mesh
}

func (o *rayObject) SetMesh(m mesh.Resolver) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mesh = m
}

func (o *rayObject) Material() material.Material {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.material
}

func (o *rayObject) SetMaterial(m material.Material) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.material = m.Clamped()
}

func (o *rayObject) RandomMaterial() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generator != nil
}

func (o *rayObject) Reroll(rng *rand.Rand) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generator == nil {
		return false
	}
	o.material = o.generator(rng).Clamped()
	return true
}
