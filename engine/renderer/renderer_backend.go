package renderer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoDevice is returned when no adapter or device could be acquired.
	ErrNoDevice = errors.New("renderer: no GPU device")

	// ErrTargetUnbound is returned when the kernel is dispatched before its output image is bound.
	ErrTargetUnbound = errors.New("renderer: kernel output image is not bound")

	// ErrForeignResource is returned when a buffer or image was not created by this renderer.
	ErrForeignResource = errors.New("renderer: resource was not created by this renderer")

	// ErrReleased is returned when a released renderer or resource is used.
	ErrReleased = errors.New("renderer: released")
)

// TargetFormat is the texel format of the raw and accumulated images. Single precision keeps
// the 1/(n+1) increments of a long running average above the rounding step; half precision
// stalls after roughly two thousand samples. The format is neither blendable nor read-write
// as a storage image, so the blend runs as a compute pass into a scratch image.
const TargetFormat = wgpu.TextureFormatRGBA32Float

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// Converges fastest; may tear.
	PresentModeUncapped
)

// String returns the configuration name of the mode.
func (m PresentMode) String() string {
	switch m {
	case PresentModeVSync:
		return "vsync"
	case PresentModeUncapped:
		return "uncapped"
	}
	return fmt.Sprintf("PresentMode(%d)", int(m))
}

// ParsePresentMode parses "vsync" or "uncapped", case-insensitively.
//
// Parameters:
//   - s: the mode name
//
// Returns:
//   - PresentMode: the parsed mode
//   - error: an error if s names no mode
func ParsePresentMode(s string) (PresentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vsync", "fifo":
		return PresentModeVSync, nil
	case "uncapped", "immediate":
		return PresentModeUncapped, nil
	}
	return PresentModeVSync, fmt.Errorf("renderer: unknown present mode %q", s)
}

func (m PresentMode) toWGPU() wgpu.PresentMode {
	switch m {
	case PresentModeVSync:
		return wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		return wgpu.PresentModeImmediate
	}
}
