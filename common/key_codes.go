package common

// Key codes delivered by the window's key callbacks. Printable keys use their ASCII value,
// the rest follow GLFW's numbering.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW = 87 // orbit up
	KeyA = 65 // orbit left
	KeyS = 83 // orbit down
	KeyD = 68 // orbit right
	KeyQ = 81 // zoom out
	KeyE = 69 // zoom in
	KeyR = 82 // reset accumulation
	KeyM = 77 // re-roll random materials
	KeyP = 80 // toggle profiler

	KeyLeftBracket  = 91 // fewer bounces
	KeyRightBracket = 93 // more bounces

	KeyEsc   = 256
	KeyRight = 262
	KeyLeft  = 263
	KeyDown  = 264
	KeyUp    = 265
)
