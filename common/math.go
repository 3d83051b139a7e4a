package common

import (
	"unsafe"

	"github.com/chewxy/math32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// SizeOf returns the in-memory byte size of T, used as the element stride of GPU arrays.
func SizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// GroupCount returns how many tiles of the given edge length are needed to cover extent pixels.
// Non-positive extents or tile sizes yield zero groups.
//
// Parameters:
//   - extent: the number of pixels along one axis
//   - tile: the tile edge length in pixels
//
// Returns:
//   - uint32: ceil(extent / tile)
func GroupCount(extent, tile int) uint32 {
	if extent <= 0 || tile <= 0 {
		return 0
	}
	return uint32((extent + tile - 1) / tile)
}

// Clamp01 clamps v into the closed unit interval.
func Clamp01(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}

// Radians converts degrees to radians.
func Radians(deg float32) float32 {
	return deg * math32.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float32) float32 {
	return rad * 180 / math32.Pi
}

// HSVToRGB converts a hue/saturation/value triple (each in [0,1]) to linear RGB in [0,1].
// Hue wraps around, so 1.0 and 0.0 produce the same color.
//
// Parameters:
//   - h: hue in [0,1]
//   - s: saturation in [0,1]
//   - v: value in [0,1]
//
// Returns:
//   - [3]float32: the RGB triple
func HSVToRGB(h, s, v float32) [3]float32 {
	s = Clamp01(s)
	v = Clamp01(v)
	if s == 0 {
		return [3]float32{v, v, v}
	}

	h = h - math32.Floor(h)
	sector := h * 6
	i := math32.Floor(sector)
	f := sector - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch int(i) % 6 {
	case 0:
		return [3]float32{v, t, p}
	case 1:
		return [3]float32{q, v, p}
	case 2:
		return [3]float32{p, v, t}
	case 3:
		return [3]float32{p, q, v}
	case 4:
		return [3]float32{t, p, v}
	default:
		return [3]float32{v, p, q}
	}
}
