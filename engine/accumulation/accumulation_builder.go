package accumulation

import "github.com/Carmen-Shannon/oxy-trace/engine/transform"

// ControllerBuilderOption is a function that configures a controller during construction.
type ControllerBuilderOption func(*controller)

// WithMaxSamples caps the number of accumulated frames. 0 means unlimited.
//
// Parameters:
//   - n: the sample cap
//
// Returns:
//   - ControllerBuilderOption: a function that applies the cap
func WithMaxSamples(n uint32) ControllerBuilderOption {
	return func(c *controller) {
		c.maxSamples = n
	}
}

// WithWatched starts observing the given transforms.
//
// Parameters:
//   - transforms: the transforms whose movement resets the accumulation
//
// Returns:
//   - ControllerBuilderOption: a function that registers the transforms
func WithWatched(transforms ...transform.Transform) ControllerBuilderOption {
	return func(c *controller) {
		for _, t := range transforms {
			if t != nil {
				c.watched = append(c.watched, t)
			}
		}
	}
}
