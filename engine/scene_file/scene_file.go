// Package scene_file reads YAML scene descriptions and turns them into registered ray objects,
// a camera placement and a light.
package scene_file

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/light"
	"github.com/Carmen-Shannon/oxy-trace/engine/loader"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/mesh"
	"github.com/Carmen-Shannon/oxy-trace/engine/ray_object"
	"github.com/Carmen-Shannon/oxy-trace/engine/registry"
	"github.com/Carmen-Shannon/oxy-trace/engine/transform"
)

// ErrInvalidScene is wrapped by every validation failure.
var ErrInvalidScene = errors.New("scene_file: invalid scene")

// Scene is the decoded scene description.
type Scene struct {
	Camera  CameraSpec   `yaml:"camera"`
	Light   LightSpec    `yaml:"light"`
	Objects []ObjectSpec `yaml:"objects"`

	// baseDir is the directory model paths are relative to.
	baseDir string

	// models holds the imports made by ImportModels, keyed by ObjectSpec.Model.
	models map[string]*loader.Imported
}

// CameraSpec places the camera in orbit coordinates around a target.
type CameraSpec struct {
	Target           [3]float32 `yaml:"target"`
	Radius           float32    `yaml:"radius"`
	AzimuthDegrees   float32    `yaml:"azimuth_degrees"`
	ElevationDegrees float32    `yaml:"elevation_degrees"`

	// FOVDegrees overrides the configured field of view when non-zero.
	FOVDegrees float32 `yaml:"fov_degrees,omitempty"`
}

// LightSpec orients the directional light.
type LightSpec struct {
	Direction [3]float32 `yaml:"direction"`
	Intensity float32    `yaml:"intensity"`
}

// ObjectSpec describes one object.
type ObjectSpec struct {
	Name string `yaml:"name,omitempty"`

	// Primitive names a mesh in the library; the built-ins are cube, quad, sphere and
	// tetrahedron.
	Primitive string `yaml:"primitive,omitempty"`

	// Model is a glTF or GLB file, relative to the scene file, used instead of Primitive.
	Model string `yaml:"model,omitempty"`

	Position [3]float32  `yaml:"position"`
	Rotation [3]float32  `yaml:"rotation,omitempty"` // pitch, yaw, roll in degrees
	Scale    *[3]float32 `yaml:"scale,omitempty"`

	// Material gives an explicit surface. Objects without one use their model's material
	// if it has one, and otherwise draw a random material.
	Material *material.Surface `yaml:"material,omitempty"`

	// Random forces (or, when false, suppresses) a random material regardless of Material.
	Random *bool `yaml:"random,omitempty"`
}

// IsRandom reports whether the object draws its material from the generator.
func (o ObjectSpec) IsRandom() bool {
	if o.Random != nil {
		return *o.Random
	}
	return o.Material == nil
}

// Default returns the scene used when no file is given: a mirror sphere ringed by randomly
// colored spheres and cubes.
func Default() *Scene {
	s := &Scene{
		Camera: CameraSpec{
			Radius:           12,
			ElevationDegrees: 25,
		},
		Light: LightSpec{
			Direction: [3]float32{-0.4, -1, -0.3},
			Intensity: 1,
		},
	}
	off := false
	s.Objects = append(s.Objects, ObjectSpec{
		Name:      "centerpiece",
		Primitive: "sphere",
		Position:  [3]float32{0, 0.5, 0},
		Scale:     &[3]float32{2, 2, 2},
		Material:  &material.Surface{Color: [3]float32{0.9, 0.9, 0.9}, Specular: 0.8, Smoothness: 0.95},
		Random:    &off,
	})
	const count = 12
	for i := 0; i < count; i++ {
		angle := common.Radians(float32(i) * 360 / count)
		primitive := "sphere"
		if i%3 == 2 {
			primitive = "cube"
		}
		radius := float32(3 + i%2*2)
		s.Objects = append(s.Objects, ObjectSpec{
			Name:      fmt.Sprintf("%s-%d", primitive, i),
			Primitive: primitive,
			Position:  [3]float32{radius * math32.Cos(angle), 0, radius * math32.Sin(angle)},
			Rotation:  [3]float32{0, float32(i) * 30, 0},
		})
	}
	return s
}

// Load reads and validates a YAML scene file.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - *Scene: the decoded scene
//   - error: an error if the file cannot be read, decoded or validated
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene_file: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("scene_file %s: %w", path, err)
	}
	s.baseDir = filepath.Dir(path)
	return s, nil
}

// Decode reads a YAML scene from r. Unknown keys are rejected.
//
// Parameters:
//   - r: the YAML source
//
// Returns:
//   - *Scene: the decoded scene
//   - error: a decode or validation error
func Decode(r io.Reader) (*Scene, error) {
	s := &Scene{
		Light: LightSpec{Direction: [3]float32{0, -1, 0}, Intensity: 1},
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Encode writes s as YAML.
func (s *Scene) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// Validate checks every object and the camera, reporting all problems at once.
//
// Returns:
//   - error: the joined problems, each wrapping ErrInvalidScene, or nil
func (s *Scene) Validate() error {
	var errs []error
	bad := func(format string, v ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidScene}, v...)...))
	}

	if s.Camera.Radius < 0 {
		bad("camera radius %v is negative", s.Camera.Radius)
	}
	if s.Camera.FOVDegrees < 0 || s.Camera.FOVDegrees >= 180 {
		bad("camera fov_degrees %v outside [0, 180)", s.Camera.FOVDegrees)
	}
	if mgl32.Vec3(s.Light.Direction).Len() == 0 {
		bad("light direction is zero")
	}
	if s.Light.Intensity < 0 {
		bad("light intensity %v is negative", s.Light.Intensity)
	}
	for i, o := range s.Objects {
		switch {
		case o.Primitive == "" && o.Model == "":
			bad("object %d (%s) has no primitive or model", i, o.Name)
		case o.Primitive != "" && o.Model != "":
			bad("object %d (%s) sets both primitive and model", i, o.Name)
		}
		if o.Scale != nil && (o.Scale[0] == 0 || o.Scale[1] == 0 || o.Scale[2] == 0) {
			bad("object %d (%s) has a zero scale axis", i, o.Name)
		}
	}
	return errors.Join(errs...)
}

// ImportModels loads every distinct model the objects name through l, which should add the
// meshes to the library later passed to Populate. A model that fails to load is reported and
// its objects are skipped at rebuild time like any other missing mesh.
//
// Parameters:
//   - l: the model loader
//
// Returns:
//   - error: the joined import failures, or nil
func (s *Scene) ImportModels(l loader.Loader) error {
	if s.models == nil {
		s.models = make(map[string]*loader.Imported)
	}

	var errs []error
	for _, o := range s.Objects {
		if o.Model == "" {
			continue
		}
		if _, ok := s.models[o.Model]; ok {
			continue
		}

		path := filepath.FromSlash(o.Model)
		if !filepath.IsAbs(path) && s.baseDir != "" {
			path = filepath.Join(s.baseDir, path)
		}
		imported, err := l.LoadNamed(o.meshName(), path)
		if err != nil {
			errs = append(errs, fmt.Errorf("model %s: %w", o.Model, err))
			continue
		}
		s.models[o.Model] = imported
	}
	return errors.Join(errs...)
}

// Populate creates one ray object per ObjectSpec and registers it. Meshes are looked up in
// lib lazily, so an unknown primitive or an unimported model only causes that object to be
// skipped at rebuild time.
//
// Parameters:
//   - reg: the registry the objects are added to
//   - lib: the mesh library primitives are resolved from
//   - gen: the generator used by random-material objects
//   - rng: the random source for the initial material draw, may be nil
//
// Returns:
//   - []ray_object.RayObject: the created objects, in file order
func (s *Scene) Populate(reg registry.Registry, lib mesh.Library, gen material.Generator, rng *rand.Rand) []ray_object.RayObject {
	objects := make([]ray_object.RayObject, 0, len(s.Objects))
	for i, o := range s.Objects {
		name := o.Name
		if name == "" {
			base := o.Primitive
			if o.Model != "" {
				base = filepath.Base(o.Model)
			}
			name = fmt.Sprintf("%s-%d", base, i)
		}

		opts := []ray_object.RayObjectBuilderOption{
			ray_object.WithName(name),
			ray_object.WithTransform(o.transform()),
			ray_object.WithMesh(lib.Ref(o.meshName())),
		}
		imported := s.models[o.Model]
		switch {
		case o.Random == nil && o.Material == nil && imported != nil && imported.HasMaterial:
			opts = append(opts, ray_object.WithMaterial(imported.Material))
		case o.IsRandom() && gen != nil:
			opts = append(opts, ray_object.WithGenerator(gen, rng))
		case o.Material != nil:
			opts = append(opts, ray_object.WithMaterial(material.FromSurface(*o.Material)))
		}

		obj := ray_object.NewRayObject(opts...)
		reg.Register(obj)
		objects = append(objects, obj)
	}
	return objects
}

// OrbitOptions returns the controller options placing the camera as described.
func (s *Scene) OrbitOptions() []camera.OrbitControllerOption {
	opts := []camera.OrbitControllerOption{
		camera.WithOrbitTarget(s.Camera.Target[0], s.Camera.Target[1], s.Camera.Target[2]),
		camera.WithAngles(common.Radians(s.Camera.AzimuthDegrees), common.Radians(s.Camera.ElevationDegrees)),
	}
	if s.Camera.Radius > 0 {
		opts = append(opts, camera.WithRadius(s.Camera.Radius))
	}
	return opts
}

// NewLight builds the directional light described by the scene.
func (s *Scene) NewLight() light.DirectionalLight {
	t := transform.NewTransform()
	t.LookAt(mgl32.Vec3(s.Light.Direction).Normalize(), mgl32.Vec3{0, 1, 0})
	t.ConsumeChanged()
	return light.NewDirectionalLight(light.WithTransform(t), light.WithIntensity(s.Light.Intensity))
}

// meshName is the library key the object's geometry is stored under.
func (o ObjectSpec) meshName() string {
	if o.Model != "" {
		return "model:" + o.Model
	}
	return o.Primitive
}

func (o ObjectSpec) transform() transform.Transform {
	opts := []transform.TransformBuilderOption{
		transform.WithPosition(o.Position[0], o.Position[1], o.Position[2]),
		transform.WithEuler(o.Rotation[0], o.Rotation[1], o.Rotation[2]),
	}
	if o.Scale != nil {
		opts = append(opts, transform.WithScale(o.Scale[0], o.Scale[1], o.Scale[2]))
	}
	return transform.NewTransform(opts...)
}
