package camera

import (
	"math"
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-trace/engine/transform"
)

// orbitController orbits a transform around a pivot using spherical coordinates (radius,
// azimuth, elevation) and writes the resulting placement back into the transform.
type orbitController struct {
	mu        *sync.Mutex
	transform transform.Transform

	target    mgl32.Vec3
	radius    float32
	azimuth   float32 // around +Y, 0 = +Z
	elevation float32 // above the horizontal plane

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed       float32
	mouseSensitivity float32
	zoomSpeed        float32
	panSpeed         float32
}

// OrbitController drives a camera transform from keyboard and mouse input. Every change is
// written to the transform immediately, which raises the transform's changed flag and so
// invalidates any accumulated image watching it.
type OrbitController interface {
	// OrbitLeft rotates the camera left around the target by one orbit speed step.
	OrbitLeft()

	// OrbitRight rotates the camera right around the target by one orbit speed step.
	OrbitRight()

	// OrbitUp tilts the camera upward by one orbit speed step, clamped to max elevation.
	OrbitUp()

	// OrbitDown tilts the camera downward by one orbit speed step, clamped to min elevation.
	OrbitDown()

	// Drag orbits by a mouse movement delta scaled by the mouse sensitivity.
	//
	// Parameters:
	//   - dx: horizontal cursor movement in pixels
	//   - dy: vertical cursor movement in pixels
	Drag(dx, dy float32)

	// Zoom moves the camera toward the target. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: zoom amount scaled by the zoom speed
	Zoom(delta float32)

	// PanRight translates both camera and target along the camera's right axis.
	//
	// Parameters:
	//   - delta: pan amount scaled by the pan speed
	PanRight(delta float32)

	// PanUp translates both camera and target along the camera's up axis.
	//
	// Parameters:
	//   - delta: pan amount scaled by the pan speed
	PanUp(delta float32)

	// Target returns the pivot point.
	//
	// Returns:
	//   - mgl32.Vec3: world-space pivot
	Target() mgl32.Vec3

	// SetTarget moves the pivot point, keeping the spherical offset.
	//
	// Parameters:
	//   - target: world-space pivot
	SetTarget(target mgl32.Vec3)

	// Radius returns the current distance from the target.
	Radius() float32

	// SetRadius sets the distance from the target, clamped to the radius bounds.
	//
	// Parameters:
	//   - radius: new distance from target
	SetRadius(radius float32)

	// Azimuth returns the horizontal angle around the Y axis in radians.
	Azimuth() float32

	// Elevation returns the vertical angle above the horizontal plane in radians.
	Elevation() float32

	// SetAngles sets azimuth and elevation directly. Elevation is clamped to its bounds.
	//
	// Parameters:
	//   - azimuth: horizontal angle in radians
	//   - elevation: vertical angle in radians
	SetAngles(azimuth, elevation float32)
}

var _ OrbitController = &orbitController{}

// NewOrbitController creates an orbit controller that owns the placement of t and applies
// its initial spherical coordinates immediately.
//
// Parameters:
//   - t: the transform to drive, typically Camera.Transform()
//   - options: functional options to configure the controller
//
// Returns:
//   - OrbitController: the newly created controller
func NewOrbitController(t transform.Transform, options ...OrbitControllerOption) OrbitController {
	if t == nil {
		panic("camera: orbit controller needs a transform")
	}
	oc := &orbitController{
		mu:        &sync.Mutex{},
		transform: t,

		radius:    10,
		elevation: float32(math.Pi / 6),

		minRadius:    0.5,
		maxRadius:    500,
		minElevation: -float32(math.Pi/2 - 0.05),
		maxElevation: float32(math.Pi/2 - 0.05),

		orbitSpeed:       0.03,
		mouseSensitivity: 0.005,
		zoomSpeed:        1,
		panSpeed:         0.1,
	}
	for _, option := range options {
		option(oc)
	}
	oc.radius = clamp(oc.radius, oc.minRadius, oc.maxRadius)
	oc.elevation = clamp(oc.elevation, oc.minElevation, oc.maxElevation)
	oc.apply()
	return oc
}

// apply writes position and orientation into the transform. Caller must hold the mutex.
func (oc *orbitController) apply() {
	cosElev, sinElev := math32.Cos(oc.elevation), math32.Sin(oc.elevation)
	cosAzim, sinAzim := math32.Cos(oc.azimuth), math32.Sin(oc.azimuth)
	offset := mgl32.Vec3{
		oc.radius * cosElev * sinAzim,
		oc.radius * sinElev,
		oc.radius * cosElev * cosAzim,
	}
	oc.transform.SetPosition(oc.target.Add(offset))
	oc.transform.LookAt(oc.target, mgl32.Vec3{0, 1, 0})
}

func (oc *orbitController) OrbitLeft() {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.azimuth -= oc.orbitSpeed
	oc.apply()
}

func (oc *orbitController) OrbitRight() {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.azimuth += oc.orbitSpeed
	oc.apply()
}

func (oc *orbitController) OrbitUp() {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.elevation = clamp(oc.elevation+oc.orbitSpeed, oc.minElevation, oc.maxElevation)
	oc.apply()
}

func (oc *orbitController) OrbitDown() {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.elevation = clamp(oc.elevation-oc.orbitSpeed, oc.minElevation, oc.maxElevation)
	oc.apply()
}

func (oc *orbitController) Drag(dx, dy float32) {
	if dx == 0 && dy == 0 {
		return
	}
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.azimuth -= dx * oc.mouseSensitivity
	oc.elevation = clamp(oc.elevation+dy*oc.mouseSensitivity, oc.minElevation, oc.maxElevation)
	oc.apply()
}

func (oc *orbitController) Zoom(delta float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.radius = clamp(oc.radius-delta*oc.zoomSpeed, oc.minRadius, oc.maxRadius)
	oc.apply()
}

func (oc *orbitController) PanRight(delta float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.target = oc.target.Add(oc.transform.Right().Mul(delta * oc.panSpeed))
	oc.apply()
}

func (oc *orbitController) PanUp(delta float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.target = oc.target.Add(oc.transform.Up().Mul(delta * oc.panSpeed))
	oc.apply()
}

func (oc *orbitController) Target() mgl32.Vec3 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.target
}

func (oc *orbitController) SetTarget(target mgl32.Vec3) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.target = target
	oc.apply()
}

func (oc *orbitController) Radius() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.radius
}

func (oc *orbitController) SetRadius(radius float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.radius = clamp(radius, oc.minRadius, oc.maxRadius)
	oc.apply()
}

func (oc *orbitController) Azimuth() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.azimuth
}

func (oc *orbitController) Elevation() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.elevation
}

func (oc *orbitController) SetAngles(azimuth, elevation float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.azimuth = azimuth
	oc.elevation = clamp(elevation, oc.minElevation, oc.maxElevation)
	oc.apply()
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
