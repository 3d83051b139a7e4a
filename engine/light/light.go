// Package light provides the single directional light the tracer shades against.
package light

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-trace/engine/transform"
)

// directionalLight is the implementation of the DirectionalLight interface.
type directionalLight struct {
	mu        *sync.Mutex
	transform transform.Transform
	intensity float32
}

// DirectionalLight is a light with no position, only direction, like the sun. Its direction is
// the forward axis of its transform, so rotating the transform moves the light and raises the
// transform's changed flag.
type DirectionalLight interface {
	// Transform returns the transform orienting the light.
	//
	// Returns:
	//   - transform.Transform: the light transform
	Transform() transform.Transform

	// Direction returns the normalized direction the light travels in.
	//
	// Returns:
	//   - mgl32.Vec3: the light direction
	Direction() mgl32.Vec3

	// Intensity returns the scalar intensity multiplier.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// SetIntensity sets the scalar intensity multiplier. Negative values are clamped to 0.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// Vector packs the light for the kernel: direction in xyz, intensity in w.
	//
	// Returns:
	//   - mgl32.Vec4: the packed light
	Vector() mgl32.Vec4
}

var _ DirectionalLight = &directionalLight{}

// NewDirectionalLight creates a light pointing straight down with intensity 1.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - DirectionalLight: a new DirectionalLight instance
func NewDirectionalLight(opts ...LightBuilderOption) DirectionalLight {
	l := &directionalLight{
		mu:        &sync.Mutex{},
		intensity: 1,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.transform == nil {
		l.transform = transform.NewTransform(transform.WithEuler(-90, 0, 0))
	}
	return l
}

func (l *directionalLight) Transform() transform.Transform {
	return l.transform
}

func (l *directionalLight) Direction() mgl32.Vec3 {
	return l.transform.Forward().Normalize()
}

func (l *directionalLight) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *directionalLight) SetIntensity(intensity float32) {
	if intensity < 0 {
		intensity = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *directionalLight) Vector() mgl32.Vec4 {
	return l.Direction().Vec4(l.Intensity())
}

// LightBuilderOption is a function that configures a directional light during construction.
type LightBuilderOption func(*directionalLight)

// WithTransform orients the light with an existing transform.
//
// Parameters:
//   - t: the light transform
//
// Returns:
//   - LightBuilderOption: a function that sets the transform
func WithTransform(t transform.Transform) LightBuilderOption {
	return func(l *directionalLight) {
		l.transform = t
	}
}

// WithIntensity sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that sets the intensity
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *directionalLight) {
		if intensity >= 0 {
			l.intensity = intensity
		}
	}
}
