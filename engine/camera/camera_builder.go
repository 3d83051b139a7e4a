package camera

import (
	"github.com/Carmen-Shannon/oxy-trace/engine/transform"
)

type CameraBuilderOption func(*cameraImpl)

// WithTransform places the camera with an existing transform.
//
// Parameters:
//   - t: the camera transform
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's transform
func WithTransform(t transform.Transform) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.transform = t
	}
}

// WithFOV sets the camera's vertical field of view in degrees.
//
// Parameters:
//   - degrees: field of view in degrees
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFOV(degrees float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = clampFOV(degrees)
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if aspect > 0 {
			c.aspect = aspect
		}
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the clip planes
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}
