// Package camera provides the perspective camera the tracer shoots primary rays from, plus an
// orbit controller that drives its transform from user input.
package camera

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/transform"
)

type cameraImpl struct {
	mu *sync.Mutex

	transform transform.Transform

	fov    float32 // degrees
	aspect float32
	near   float32
	far    float32
}

// Camera defines the perspective camera. Placement lives in its Transform; the camera only
// adds projection settings.
type Camera interface {
	// Transform returns the transform placing the camera in the world. The camera looks down
	// the transform's forward (-Z) axis.
	//
	// Returns:
	//   - transform.Transform: the camera transform
	Transform() transform.Transform

	// FOV returns the vertical field of view in degrees.
	//
	// Returns:
	//   - float32: field of view in degrees
	FOV() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// SetFOV sets the vertical field of view in degrees, clamped to [1, 179].
	//
	// Parameters:
	//   - degrees: field of view in degrees
	SetFOV(degrees float32)

	// SetAspect sets the aspect ratio (width / height). Non-positive values are ignored.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetClipPlanes sets the near and far clipping plane distances.
	//
	// Parameters:
	//   - near: near plane distance
	//   - far: far plane distance
	SetClipPlanes(near, far float32)

	// CameraToWorld returns the matrix taking camera-space points to world space.
	//
	// Returns:
	//   - mgl32.Mat4: the camera-to-world matrix
	CameraToWorld() mgl32.Mat4

	// Projection returns the perspective projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	Projection() mgl32.Mat4

	// InverseProjection returns the inverse of Projection, used by the kernel to turn
	// clip-space pixel coordinates into camera-space ray directions.
	//
	// Returns:
	//   - mgl32.Mat4: the inverse projection matrix
	InverseProjection() mgl32.Mat4
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera at the origin looking down -Z with a 60 degree field of view.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		fov:    60,
		aspect: 1,
		near:   0.1,
		far:    1000,
	}
	for _, option := range options {
		option(c)
	}
	if c.transform == nil {
		c.transform = transform.NewTransform()
	}
	return c
}

func (c *cameraImpl) Transform() transform.Transform {
	return c.transform
}

func (c *cameraImpl) FOV() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) SetFOV(degrees float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = clampFOV(degrees)
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
}

func (c *cameraImpl) SetClipPlanes(near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.far = far
}

func (c *cameraImpl) CameraToWorld() mgl32.Mat4 {
	return c.transform.Matrix()
}

func (c *cameraImpl) Projection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return mgl32.Perspective(common.Radians(c.fov), c.aspect, c.near, c.far)
}

func (c *cameraImpl) InverseProjection() mgl32.Mat4 {
	return c.Projection().Inv()
}

func clampFOV(degrees float32) float32 {
	if degrees < 1 {
		return 1
	}
	if degrees > 179 {
		return 179
	}
	return degrees
}
