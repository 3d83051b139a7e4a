package transform

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// transformImpl is the implementation of the Transform interface.
type transformImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3

	hasChanged bool
}

// Transform is a position, rotation and scale in world space together with a "moved since
// last check" flag. Every setter that actually changes a component raises the flag; setting
// a component to its current value leaves it untouched. The flag is only lowered by
// ConsumeChanged, which lets a single observer react exactly once per movement.
//
// Forward is -Z in local space, up is +Y.
type Transform interface {
	// Position returns the world-space position.
	Position() mgl32.Vec3

	// Rotation returns the world-space orientation.
	Rotation() mgl32.Quat

	// Scale returns the per-axis scale.
	Scale() mgl32.Vec3

	// SetPosition moves the transform.
	//
	// Parameters:
	//   - p: the new world-space position
	SetPosition(p mgl32.Vec3)

	// SetRotation orients the transform. The quaternion is normalized before it is stored.
	//
	// Parameters:
	//   - q: the new orientation
	SetRotation(q mgl32.Quat)

	// SetEuler orients the transform from yaw-pitch-roll angles in degrees.
	//
	// Parameters:
	//   - pitch: rotation about X in degrees
	//   - yaw: rotation about Y in degrees
	//   - roll: rotation about Z in degrees
	SetEuler(pitch, yaw, roll float32)

	// SetScale sets the per-axis scale.
	//
	// Parameters:
	//   - s: the new scale
	SetScale(s mgl32.Vec3)

	// Translate offsets the position by delta.
	//
	// Parameters:
	//   - delta: the world-space offset
	Translate(delta mgl32.Vec3)

	// Rotate applies an additional world-space rotation about axis by angle radians.
	//
	// Parameters:
	//   - axis: the rotation axis, need not be normalized
	//   - angle: the rotation angle in radians
	Rotate(axis mgl32.Vec3, angle float32)

	// LookAt orients the transform so Forward points at target. A target equal to the
	// current position is ignored.
	//
	// Parameters:
	//   - target: the world-space point to face
	//   - up: the approximate up direction
	LookAt(target, up mgl32.Vec3)

	// Forward returns the unit vector the transform faces.
	Forward() mgl32.Vec3

	// Up returns the transform's unit up vector.
	Up() mgl32.Vec3

	// Right returns the transform's unit right vector.
	Right() mgl32.Vec3

	// Matrix returns the local-to-world matrix, composed as translation * rotation * scale.
	Matrix() mgl32.Mat4

	// HasChanged reports whether the transform moved since the flag was last consumed.
	HasChanged() bool

	// ConsumeChanged reads and lowers the changed flag.
	//
	// Returns:
	//   - bool: true if the transform moved since the previous call
	ConsumeChanged() bool
}

var _ Transform = &transformImpl{}

// NewTransform creates a Transform at the origin with identity rotation and unit scale,
// then applies the provided options. The changed flag starts lowered.
//
// Parameters:
//   - opts: functional options applied after the defaults
//
// Returns:
//   - Transform: the new transform
func NewTransform(opts ...TransformBuilderOption) Transform {
	t := &transformImpl{
		mu:       &sync.Mutex{},
		rotation: mgl32.QuatIdent(),
		scale:    mgl32.Vec3{1, 1, 1},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.hasChanged = false
	return t
}

func (t *transformImpl) Position() mgl32.Vec3 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position
}

func (t *transformImpl) Rotation() mgl32.Quat {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rotation
}

func (t *transformImpl) Scale() mgl32.Vec3 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scale
}

func (t *transformImpl) SetPosition(p mgl32.Vec3) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setPosition(p)
}

func (t *transformImpl) SetRotation(q mgl32.Quat) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setRotation(q)
}

func (t *transformImpl) SetEuler(pitch, yaw, roll float32) {
	q := mgl32.AnglesToQuat(mgl32.DegToRad(yaw), mgl32.DegToRad(pitch), mgl32.DegToRad(roll), mgl32.YXZ)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.setRotation(q)
}

func (t *transformImpl) SetScale(s mgl32.Vec3) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s != t.scale {
		t.scale = s
		t.hasChanged = true
	}
}

func (t *transformImpl) Translate(delta mgl32.Vec3) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setPosition(t.position.Add(delta))
}

func (t *transformImpl) Rotate(axis mgl32.Vec3, angle float32) {
	if axis.Len() == 0 || angle == 0 {
		return
	}
	delta := mgl32.QuatRotate(angle, axis.Normalize())

	t.mu.Lock()
	defer t.mu.Unlock()
	t.setRotation(delta.Mul(t.rotation))
}

func (t *transformImpl) LookAt(target, up mgl32.Vec3) {
	t.mu.Lock()
	defer t.mu.Unlock()

	dir := target.Sub(t.position)
	if dir.Len() == 0 {
		return
	}
	forward := dir.Normalize()
	right := forward.Cross(up)
	if right.Len() < 1e-6 {
		// up is parallel to the view direction; pick any perpendicular axis.
		right = forward.Cross(mgl32.Vec3{1, 0, 0})
		if right.Len() < 1e-6 {
			right = forward.Cross(mgl32.Vec3{0, 0, 1})
		}
	}
	right = right.Normalize()
	trueUp := right.Cross(forward)

	basis := mgl32.Mat4FromCols(
		right.Vec4(0),
		trueUp.Vec4(0),
		forward.Mul(-1).Vec4(0),
		mgl32.Vec4{0, 0, 0, 1},
	)
	t.setRotation(mgl32.Mat4ToQuat(basis))
}

func (t *transformImpl) Forward() mgl32.Vec3 {
	return t.Rotation().Rotate(mgl32.Vec3{0, 0, -1})
}

func (t *transformImpl) Up() mgl32.Vec3 {
	return t.Rotation().Rotate(mgl32.Vec3{0, 1, 0})
}

func (t *transformImpl) Right() mgl32.Vec3 {
	return t.Rotation().Rotate(mgl32.Vec3{1, 0, 0})
}

func (t *transformImpl) Matrix() mgl32.Mat4 {
	t.mu.Lock()
	defer t.mu.Unlock()

	translation := mgl32.Translate3D(t.position.X(), t.position.Y(), t.position.Z())
	scale := mgl32.Scale3D(t.scale.X(), t.scale.Y(), t.scale.Z())
	return translation.Mul4(t.rotation.Mat4()).Mul4(scale)
}

func (t *transformImpl) HasChanged() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasChanged
}

func (t *transformImpl) ConsumeChanged() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	changed := t.hasChanged
	t.hasChanged = false
	return changed
}

func (t *transformImpl) setPosition(p mgl32.Vec3) {
	if p != t.position {
		t.position = p
		t.hasChanged = true
	}
}

func (t *transformImpl) setRotation(q mgl32.Quat) {
	if q.Len() == 0 {
		return
	}
	q = q.Normalize()
	if q != t.rotation {
		t.rotation = q
		t.hasChanged = true
	}
}
