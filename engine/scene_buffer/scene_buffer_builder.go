package scene_buffer

// BuilderOption is a functional option for configuring a Builder during NewBuilder.
type BuilderOption func(*builder)

// WithWorkers sets the number of pool workers used for the parallel copy phase.
// Values below 1 are raised to 1.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - BuilderOption: option function to apply
func WithWorkers(n int) BuilderOption {
	return func(b *builder) {
		b.workers = n
	}
}

// WithParallelThreshold sets the minimum number of resolved objects for which geometry is
// copied on the worker pool. Zero always uses the pool.
//
// Parameters:
//   - n: the object count threshold
//
// Returns:
//   - BuilderOption: option function to apply
func WithParallelThreshold(n int) BuilderOption {
	return func(b *builder) {
		b.parallelThreshold = n
	}
}
