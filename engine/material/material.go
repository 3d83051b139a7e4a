package material

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned by Validate when a channel lies outside [0,1].
var ErrOutOfRange = errors.New("material: channel outside [0,1]")

// Material describes how a surface reflects and emits light. Every color channel and the
// smoothness are normalized to [0,1].
type Material struct {
	// Albedo is the diffuse reflectance.
	Albedo [3]float32 `yaml:"albedo" toml:"albedo"`

	// Specular is the mirror reflectance.
	Specular [3]float32 `yaml:"specular" toml:"specular"`

	// Emission is the emitted radiance.
	Emission [3]float32 `yaml:"emission" toml:"emission"`

	// Smoothness blends between a rough and a perfect mirror lobe.
	Smoothness float32 `yaml:"smoothness" toml:"smoothness"`
}

// Surface is the artist-facing description a Material is derived from: a base color split
// between diffuse and specular reflection, plus a smoothness and an emission strength.
type Surface struct {
	Color      [3]float32 `yaml:"color"`
	Specular   float32    `yaml:"specular"`
	Smoothness float32    `yaml:"smoothness"`
	Emission   float32    `yaml:"emission"`
}

// FromSurface derives a Material from a Surface. The color is split so that
// albedo = color*(1-specular) and specular = color*specular, and emission = color*emission.
// All results are clamped to [0,1].
//
// Parameters:
//   - s: the surface description
//
// Returns:
//   - Material: the derived material
func FromSurface(s Surface) Material {
	spec := clamp(s.Specular)
	emit := clamp(s.Emission)

	var m Material
	for i := 0; i < 3; i++ {
		c := clamp(s.Color[i])
		m.Albedo[i] = c * (1 - spec)
		m.Specular[i] = c * spec
		m.Emission[i] = c * emit
	}
	m.Smoothness = clamp(s.Smoothness)
	return m
}

// Validate reports whether every channel of m lies in [0,1].
//
// Returns:
//   - error: ErrOutOfRange wrapped with the offending field, or nil
func (m Material) Validate() error {
	check := func(name string, v [3]float32) error {
		for i, c := range v {
			if c < 0 || c > 1 {
				return fmt.Errorf("%w: %s[%d] = %v", ErrOutOfRange, name, i, c)
			}
		}
		return nil
	}
	if err := check("albedo", m.Albedo); err != nil {
		return err
	}
	if err := check("specular", m.Specular); err != nil {
		return err
	}
	if err := check("emission", m.Emission); err != nil {
		return err
	}
	if m.Smoothness < 0 || m.Smoothness > 1 {
		return fmt.Errorf("%w: smoothness = %v", ErrOutOfRange, m.Smoothness)
	}
	return nil
}

// Clamped returns a copy of m with every channel clamped into [0,1].
func (m Material) Clamped() Material {
	for i := 0; i < 3; i++ {
		m.Albedo[i] = clamp(m.Albedo[i])
		m.Specular[i] = clamp(m.Specular[i])
		m.Emission[i] = clamp(m.Emission[i])
	}
	m.Smoothness = clamp(m.Smoothness)
	return m
}

// IsEmissive reports whether the material emits any light.
func (m Material) IsEmissive() bool {
	return m.Emission[0] > 0 || m.Emission[1] > 0 || m.Emission[2] > 0
}

func clamp(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
