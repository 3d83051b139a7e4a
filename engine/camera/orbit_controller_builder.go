package camera

import "github.com/go-gl/mathgl/mgl32"

// OrbitControllerOption is a functional option for configuring an OrbitController.
type OrbitControllerOption func(*orbitController)

// WithOrbitTarget sets the look-at/pivot point.
//
// Parameters:
//   - x, y, z: world-space pivot
//
// Returns:
//   - OrbitControllerOption: functional option to set the target position
func WithOrbitTarget(x, y, z float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.target = mgl32.Vec3{x, y, z}
	}
}

// WithRadius sets the initial orbit radius (distance from target).
//
// Parameters:
//   - radius: distance from the orbit target
//
// Returns:
//   - OrbitControllerOption: functional option to set the radius
func WithRadius(radius float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.radius = radius
	}
}

// WithAngles sets the initial azimuth and elevation in radians.
//
// Parameters:
//   - azimuth: horizontal angle around the Y axis (0 = +Z)
//   - elevation: vertical angle from the horizontal plane
//
// Returns:
//   - OrbitControllerOption: functional option to set the angles
func WithAngles(azimuth, elevation float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.azimuth = azimuth
		oc.elevation = elevation
	}
}

// WithRadiusBounds sets the minimum and maximum orbit radius.
//
// Parameters:
//   - min: minimum zoom distance
//   - max: maximum zoom distance
//
// Returns:
//   - OrbitControllerOption: functional option to set radius bounds
func WithRadiusBounds(min, max float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.minRadius = min
		oc.maxRadius = max
	}
}

// WithSpeeds sets the keyboard orbit step, mouse sensitivity, zoom and pan multipliers.
//
// Parameters:
//   - orbit: radians per keyboard orbit step
//   - mouse: radians per dragged pixel
//   - zoom: distance per zoom unit
//   - pan: distance per pan unit
//
// Returns:
//   - OrbitControllerOption: functional option to set the speeds
func WithSpeeds(orbit, mouse, zoom, pan float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.orbitSpeed = orbit
		oc.mouseSensitivity = mouse
		oc.zoomSpeed = zoom
		oc.panSpeed = pan
	}
}
