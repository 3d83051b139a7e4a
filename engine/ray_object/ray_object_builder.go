package ray_object

import (
	"math/rand"

	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/mesh"
	"github.com/Carmen-Shannon/oxy-trace/engine/transform"
)

// RayObjectBuilderOption is a functional option applied during NewRayObject. An option may
// return a random source to be used for the initial generated material; most return nil.
type RayObjectBuilderOption func(*rayObject) *rand.Rand

// WithName sets the object's name.
//
// Parameters:
//   - name: the human-readable name
//
// Returns:
//   - RayObjectBuilderOption: option function to apply
func WithName(name string) RayObjectBuilderOption {
	return func(o *rayObject) *rand.Rand {
		o.name = name
		return nil
	}
}

// WithTransform uses t as the object's transform instead of a fresh identity transform.
//
// Parameters:
//   - t: the transform to share
//
// Returns:
//   - RayObjectBuilderOption: option function to apply
func WithTransform(t transform.Transform) RayObjectBuilderOption {
	return func(o *rayObject) *rand.Rand {
		if t != nil {
			o.transform = t
		}
		return nil
	}
}

// WithMesh sets the mesh reference.
//
// Parameters:
//   - m: the mesh reference; a mesh.Mesh is its own reference
//
// Returns:
//   - RayObjectBuilderOption: option function to apply
func WithMesh(m mesh.Resolver) RayObjectBuilderOption {
	return func(o *rayObject) *rand.Rand {
		o.mesh = m
		return nil
	}
}

// WithMaterial sets an explicit material and detaches any generator set by an earlier option.
//
// Parameters:
//   - m: the material, clamped into range
//
// Returns:
//   - RayObjectBuilderOption: option function to apply
func WithMaterial(m material.Material) RayObjectBuilderOption {
	return func(o *rayObject) *rand.Rand {
		o.material = m.Clamped()
		o.generator = nil
		return nil
	}
}

// WithGenerator attaches a material generator. The initial material is drawn from rng, or
// from a source seeded with the object ID when rng is nil.
//
// Parameters:
//   - gen: the generator
//   - rng: the random source for the initial draw, may be nil
//
// Returns:
//   - RayObjectBuilderOption: option function to apply
func WithGenerator(gen material.Generator, rng *rand.Rand) RayObjectBuilderOption {
	return func(o *rayObject) *rand.Rand {
		o.generator = gen
		return rng
	}
}
