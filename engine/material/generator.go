package material

import (
	"math/rand"

	"github.com/Carmen-Shannon/oxy-trace/common"
)

// Generator produces a Material. Objects that opt into generated materials call their
// Generator once when they are created or when a re-roll is requested.
type Generator func(rng *rand.Rand) Material

// EmissiveChance is the probability that RandomGenerator produces an emitting material.
const EmissiveChance = 0.2

// RandomGenerator is the default Generator. It picks a saturated color
// (hue in [0,1], saturation in [0.8,1], value in [0.5,0.8]), a random specular split and
// smoothness, and with EmissiveChance probability an emission strength in [0.3,0.8].
//
// Parameters:
//   - rng: the random source
//
// Returns:
//   - Material: the generated material
func RandomGenerator(rng *rand.Rand) Material {
	color := common.HSVToRGB(
		rng.Float32(),
		0.8+0.2*rng.Float32(),
		0.5+0.3*rng.Float32(),
	)

	s := Surface{
		Color:      color,
		Specular:   rng.Float32(),
		Smoothness: rng.Float32(),
	}
	if rng.Float32() < EmissiveChance {
		s.Emission = 0.3 + 0.5*rng.Float32()
	}
	return FromSurface(s)
}

// Fixed returns a Generator that always yields m, clamped into range.
//
// Parameters:
//   - m: the material to return
//
// Returns:
//   - Generator: a constant generator
func Fixed(m Material) Generator {
	m = m.Clamped()
	return func(*rand.Rand) Material {
		return m
	}
}
