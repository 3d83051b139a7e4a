package transform

import "github.com/go-gl/mathgl/mgl32"

// TransformBuilderOption is a functional option for configuring a Transform during NewTransform.
type TransformBuilderOption func(*transformImpl)

// WithPosition sets the initial world-space position.
//
// Parameters:
//   - x, y, z: the position components
//
// Returns:
//   - TransformBuilderOption: option function to apply
func WithPosition(x, y, z float32) TransformBuilderOption {
	return func(t *transformImpl) {
		t.setPosition(mgl32.Vec3{x, y, z})
	}
}

// WithEuler sets the initial orientation from pitch, yaw and roll in degrees.
//
// Parameters:
//   - pitch, yaw, roll: rotation about X, Y and Z in degrees
//
// Returns:
//   - TransformBuilderOption: option function to apply
func WithEuler(pitch, yaw, roll float32) TransformBuilderOption {
	return func(t *transformImpl) {
		t.setRotation(mgl32.AnglesToQuat(mgl32.DegToRad(yaw), mgl32.DegToRad(pitch), mgl32.DegToRad(roll), mgl32.YXZ))
	}
}

// WithScale sets the initial per-axis scale.
//
// Parameters:
//   - x, y, z: the scale components
//
// Returns:
//   - TransformBuilderOption: option function to apply
func WithScale(x, y, z float32) TransformBuilderOption {
	return func(t *transformImpl) {
		t.scale = mgl32.Vec3{x, y, z}
	}
}

// WithUniformScale sets the same scale on all three axes.
//
// Parameters:
//   - s: the scale factor
//
// Returns:
//   - TransformBuilderOption: option function to apply
func WithUniformScale(s float32) TransformBuilderOption {
	return func(t *transformImpl) {
		t.scale = mgl32.Vec3{s, s, s}
	}
}
