package loader

import "github.com/Carmen-Shannon/oxy-trace/engine/mesh"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithLibrary sets the mesh library every loaded mesh is added to.
//
// Parameters:
//   - lib: the mesh library objects resolve their geometry from
//
// Returns:
//   - LoaderBuilderOption: a function that applies the library option to a loader
func WithLibrary(lib mesh.Library) LoaderBuilderOption {
	return func(l *loader) {
		l.library = lib
	}
}

// WithImported pre-populates the cache, for instance with a procedurally built model.
// The entry is not added to the library.
//
// Parameters:
//   - imported: the model to cache under its Name
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cache option to a loader
func WithImported(imported *Imported) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[imported.Name] = imported
	}
}
