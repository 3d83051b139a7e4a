package loader

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// maxNodeDepth bounds the hierarchy walk so a cyclic document cannot recurse forever.
const maxNodeDepth = 64

// gltfGeometry is the whole default scene flattened into one triangle list in model space.
type gltfGeometry struct {
	vertices []mgl32.Vec3
	indices  []uint32

	// material is the index of the first primitive's material, or -1.
	material int

	// skipped counts primitives that were not triangle lists.
	skipped int
}

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
}

// gltfMeshExtractor flattens the default scene of a parsed document into triangle geometry.
type gltfMeshExtractor interface {
	// ExtractScene walks the default scene, bakes each node's world transform into its
	// mesh's vertices, and merges every triangle primitive into one indexed list. A document
	// without scenes contributes every mesh untransformed.
	//
	// Returns:
	//   - *gltfGeometry: the merged geometry
	//   - error: error if extraction fails or no triangles were found
	ExtractScene() (*gltfGeometry, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor for a parsed document.
func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser}
}

func (e *gltfMeshExtractorImpl) ExtractScene() (*gltfGeometry, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}

	geo := &gltfGeometry{material: -1}

	if len(doc.Scenes) == 0 {
		for i := range doc.Meshes {
			if err := e.appendMesh(geo, i, mgl32.Ident4()); err != nil {
				return nil, err
			}
		}
	} else {
		sceneIndex := 0
		if doc.Scene != nil {
			sceneIndex = *doc.Scene
		}
		if sceneIndex < 0 || sceneIndex >= len(doc.Scenes) {
			return nil, fmt.Errorf("default scene %d out of range", sceneIndex)
		}
		for _, root := range doc.Scenes[sceneIndex].Nodes {
			if err := e.walk(geo, root, mgl32.Ident4(), 0); err != nil {
				return nil, err
			}
		}
	}

	if len(geo.indices) == 0 {
		return nil, ErrNoGeometry
	}
	return geo, nil
}

func (e *gltfMeshExtractorImpl) walk(geo *gltfGeometry, nodeIndex int, parent mgl32.Mat4, depth int) error {
	doc := e.parser.Document()
	if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", nodeIndex)
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("node %d: hierarchy deeper than %d", nodeIndex, maxNodeDepth)
	}

	node := &doc.Nodes[nodeIndex]
	world := parent.Mul4(gltfNodeMatrix(node))

	if node.Mesh != nil {
		if err := e.appendMesh(geo, *node.Mesh, world); err != nil {
			return fmt.Errorf("node %d: %w", nodeIndex, err)
		}
	}
	for _, child := range node.Children {
		if err := e.walk(geo, child, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (e *gltfMeshExtractorImpl) appendMesh(geo *gltfGeometry, meshIndex int, world mgl32.Mat4) error {
	doc := e.parser.Document()
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	m := &doc.Meshes[meshIndex]
	for primIdx := range m.Primitives {
		prim := &m.Primitives[primIdx]
		if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
			geo.skipped++
			continue
		}
		if err := e.appendPrimitive(geo, prim, world); err != nil {
			return fmt.Errorf("mesh %d primitive %d: %w", meshIndex, primIdx, err)
		}
	}
	return nil
}

func (e *gltfMeshExtractorImpl) appendPrimitive(geo *gltfGeometry, prim *gltfPrimitive, world mgl32.Mat4) error {
	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return errors.New("primitive has no POSITION attribute")
	}
	positions, err := e.parser.ReadVec3Accessor(posAccessor)
	if err != nil {
		return fmt.Errorf("failed to read positions: %w", err)
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = e.parser.ReadIndicesAccessor(*prim.Indices)
		if err != nil {
			return fmt.Errorf("failed to read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(indices))
	}
	for _, idx := range indices {
		if int(idx) >= len(positions) {
			return fmt.Errorf("index %d out of range for %d vertices", idx, len(positions))
		}
	}

	base := uint32(len(geo.vertices))
	for _, p := range positions {
		geo.vertices = append(geo.vertices, mgl32.TransformCoordinate(mgl32.Vec3(p), world))
	}
	for _, idx := range indices {
		geo.indices = append(geo.indices, base+idx)
	}

	if geo.material < 0 && prim.Material != nil {
		geo.material = *prim.Material
	}
	return nil
}

// gltfNodeMatrix returns the node's local transform.
func gltfNodeMatrix(node *gltfNode) mgl32.Mat4 {
	if node.Matrix != nil {
		return mgl32.Mat4(*node.Matrix)
	}

	local := mgl32.Ident4()
	if node.Translation != nil {
		t := node.Translation
		local = mgl32.Translate3D(t[0], t[1], t[2])
	}
	if node.Rotation != nil {
		r := node.Rotation
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
		local = local.Mul4(q.Mat4())
	}
	if node.Scale != nil {
		s := node.Scale
		local = local.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}
	return local
}
