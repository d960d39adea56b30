// Package script runs YAML scene scripts: a list of objects to build followed by
// editing steps against a scene registry.
package script

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/df07/go-mesh-scene/pkg/core"
	"github.com/df07/go-mesh-scene/pkg/geometry"
	"github.com/df07/go-mesh-scene/pkg/loaders"
)

// Script is a parsed scene script
type Script struct {
	Objects []ObjectSpec `yaml:"objects" validate:"dive"`
	Steps   []Step       `yaml:"steps" validate:"dive"`

	baseDir string // resolves relative mesh paths
}

// ObjectSpec describes one object to create before the steps run
type ObjectSpec struct {
	Name      string    `yaml:"name" validate:"required"`
	Mesh      MeshSpec  `yaml:"mesh"`
	Placement Placement `yaml:"placement"`
	Materials []string  `yaml:"materials"` // names resolved against the material library, one per slot
}

// MeshSpec selects a mesh provider
type MeshSpec struct {
	Kind         string    `yaml:"kind" validate:"required,oneof=box quad grid ply"`
	HalfExtents  []float64 `yaml:"half_extents" validate:"omitempty,len=3"` // box
	PerFaceSlots bool      `yaml:"per_face_slots"`                          // box
	Corner       []float64 `yaml:"corner" validate:"omitempty,len=3"`       // quad
	U            []float64 `yaml:"u" validate:"omitempty,len=3"`            // quad
	V            []float64 `yaml:"v" validate:"omitempty,len=3"`            // quad
	Cells        int       `yaml:"cells" validate:"gte=0"`                  // grid
	Size         float64   `yaml:"size" validate:"gte=0"`                   // grid
	Path         string    `yaml:"path" validate:"required_if=Kind ply"`    // ply
}

// Placement is a transform with rotation in degrees
type Placement struct {
	Translation []float64 `yaml:"translation" validate:"omitempty,len=3"`
	Rotation    []float64 `yaml:"rotation" validate:"omitempty,len=3"`
	Scale       []float64 `yaml:"scale" validate:"omitempty,len=3"`
}

// Step is one editing operation
type Step struct {
	Op          string    `yaml:"op" validate:"required,oneof=select deselect toggle set_selection clear_selection delete delete_selected undo redo pick move translate rotate scale"`
	Object      string    `yaml:"object" validate:"required_if=Op select,required_if=Op deselect,required_if=Op toggle,required_if=Op delete,required_if=Op move"`
	Objects     []string  `yaml:"objects"`
	Only        bool      `yaml:"only"`   // select: deselect everything else
	Except      string    `yaml:"except"` // delete_selected: object to keep
	Label       string    `yaml:"label"`  // delete_selected: wrap in an outer undo step
	Origin      []float64 `yaml:"origin" validate:"required_if=Op pick,omitempty,len=3"`
	Direction   []float64 `yaml:"direction" validate:"required_if=Op pick,omitempty,len=3"`
	MaxDistance float64   `yaml:"max_distance" validate:"gte=0"`
	Delta       []float64 `yaml:"delta" validate:"omitempty,len=3"` // translate, rotate (degrees), scale
	Placement   Placement `yaml:"placement"`                        // move
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes and validates a script
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := validate.Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	seen := make(map[string]bool, len(s.Objects))
	for _, obj := range s.Objects {
		if seen[obj.Name] {
			return nil, fmt.Errorf("invalid script: duplicate object name %q", obj.Name)
		}
		seen[obj.Name] = true
	}
	return &s, nil
}

// Load reads a script file. Relative mesh paths resolve against its directory.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.baseDir = filepath.Dir(path)
	return s, nil
}

func vec(values []float64, fallback core.Vec3) core.Vec3 {
	if len(values) != 3 {
		return fallback
	}
	return core.NewVec3(values[0], values[1], values[2])
}

func degrees(v core.Vec3) core.Vec3 {
	return v.Multiply(math.Pi / 180)
}

// Transform converts the placement, defaulting to identity components
func (p Placement) Transform() core.Transform {
	return core.NewTransform(
		vec(p.Translation, core.Vec3{}),
		degrees(vec(p.Rotation, core.Vec3{})),
		vec(p.Scale, core.NewVec3(1, 1, 1)),
	)
}

// Build produces the described mesh. Relative PLY paths resolve against baseDir.
func (m MeshSpec) Build(baseDir string) (*geometry.Mesh, error) {
	switch m.Kind {
	case "box":
		return geometry.NewBoxMesh(vec(m.HalfExtents, core.NewVec3(1, 1, 1)), m.PerFaceSlots), nil
	case "quad":
		return geometry.NewQuadMesh(
			vec(m.Corner, core.Vec3{}),
			vec(m.U, core.NewVec3(1, 0, 0)),
			vec(m.V, core.NewVec3(0, 1, 0)),
		), nil
	case "grid":
		size := m.Size
		if size == 0 {
			size = 1
		}
		return geometry.NewGridMesh(m.Cells, size), nil
	case "ply":
		path := m.Path
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		return loaders.LoadPLY(path)
	default:
		return nil, fmt.Errorf("unknown mesh kind %q", m.Kind)
	}
}
