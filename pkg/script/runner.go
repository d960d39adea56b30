package script

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/df07/go-mesh-scene/pkg/core"
	"github.com/df07/go-mesh-scene/pkg/interaction"
	"github.com/df07/go-mesh-scene/pkg/material"
	"github.com/df07/go-mesh-scene/pkg/scene"
)

// ErrUnknownName is returned when a script refers to an object it never declared
var ErrUnknownName = errors.New("unknown object name")

// Result reports the outcome of one step
type Result struct {
	Index     int
	Op        string
	OK        bool   // false when the scene rejected the step; the script continues
	Detail    string // rejection reason or pick summary
	Objects   []string
	Selection []string
	Pick      *PickResult
}

// PickResult is the nearest hit found by a pick step
type PickResult struct {
	Object   string
	Distance float64
	Triangle int
	Point    core.Vec3
}

// Runner executes scripts against a registry
type Runner struct {
	registry    *scene.Registry
	library     *material.Library
	interaction *interaction.TransformInteraction
	logger      *slog.Logger

	byName map[string]*scene.Object
	names  map[*scene.Object]string
}

// NewRunner creates a runner. Translate, rotate and scale steps go through a
// transform interaction bound to the registry's selection.
func NewRunner(registry *scene.Registry, library *material.Library, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry:    registry,
		library:     library,
		interaction: interaction.New(registry, nil, interaction.WithLogger(logger)),
		logger:      logger,
		byName:      make(map[string]*scene.Object),
		names:       make(map[*scene.Object]string),
	}
}

// Close detaches the transform interaction
func (r *Runner) Close() {
	r.interaction.Shutdown()
}

// Object returns the object created for name
func (r *Runner) Object(name string) (*scene.Object, bool) {
	obj, ok := r.byName[name]
	return obj, ok
}

// Run builds the script's objects and executes its steps. Steps the scene rejects
// are reported in their Result; malformed scripts stop with an error.
func (r *Runner) Run(s *Script) ([]Result, error) {
	for _, spec := range s.Objects {
		if err := r.build(spec, s.baseDir); err != nil {
			return nil, fmt.Errorf("object %s: %w", spec.Name, err)
		}
	}

	results := make([]Result, 0, len(s.Steps))
	for i, step := range s.Steps {
		result, err := r.exec(step)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		result.Index = i
		result.Op = step.Op
		result.Objects = r.namesOf(r.registry.Objects())
		result.Selection = r.namesOf(r.registry.Selection())
		if !result.OK {
			r.logger.Info("step rejected", slog.Int("step", i), slog.String("op", step.Op), slog.String("reason", result.Detail))
		}
		results = append(results, result)
	}
	return results, nil
}

func (r *Runner) build(spec ObjectSpec, baseDir string) error {
	if _, exists := r.byName[spec.Name]; exists {
		return fmt.Errorf("duplicate object name %q", spec.Name)
	}
	mesh, err := spec.Mesh.Build(baseDir)
	if err != nil {
		return err
	}

	materials := make([]material.Material, 0, len(spec.Materials))
	for _, name := range spec.Materials {
		m, ok := r.library.Lookup(name)
		if !ok {
			return fmt.Errorf("unknown material %q", name)
		}
		materials = append(materials, m)
	}

	obj := r.registry.Create()
	obj.SetGeometry(mesh)
	obj.SetPlacement(spec.Placement.Transform())
	if len(materials) > 0 {
		obj.SetMaterials(materials)
	}

	r.byName[spec.Name] = obj
	r.names[obj] = spec.Name
	return nil
}

func (r *Runner) lookup(name string) (*scene.Object, error) {
	obj, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return obj, nil
}

func (r *Runner) namesOf(objects []*scene.Object) []string {
	out := make([]string, 0, len(objects))
	for _, obj := range objects {
		out = append(out, r.names[obj])
	}
	return out
}

// outcome turns a scene error into a reported rejection
func outcome(err error) Result {
	if err != nil {
		return Result{Detail: err.Error()}
	}
	return Result{OK: true}
}

func (r *Runner) exec(step Step) (Result, error) {
	var target *scene.Object
	if step.Object != "" {
		obj, err := r.lookup(step.Object)
		if err != nil {
			return Result{}, err
		}
		target = obj
	}

	switch step.Op {
	case "select":
		return outcome(r.registry.Select(target, false, step.Only)), nil
	case "deselect":
		return outcome(r.registry.Select(target, true, false)), nil
	case "toggle":
		return outcome(r.registry.Toggle(target)), nil
	case "set_selection":
		objects := make([]*scene.Object, 0, len(step.Objects))
		for _, name := range step.Objects {
			obj, err := r.lookup(name)
			if err != nil {
				return Result{}, err
			}
			objects = append(objects, obj)
		}
		return outcome(r.registry.SetSelection(objects)), nil
	case "clear_selection":
		return outcome(r.registry.ClearSelection()), nil
	case "delete":
		return outcome(r.registry.Delete(target)), nil
	case "delete_selected":
		return r.deleteSelected(step)
	case "undo":
		return outcome(r.registry.History().Undo()), nil
	case "redo":
		return outcome(r.registry.History().Redo()), nil
	case "pick":
		return r.pick(step), nil
	case "move":
		return outcome(r.registry.SetPlacement(target, step.Placement.Transform())), nil
	case "translate":
		return outcome(r.interaction.Translate(vec(step.Delta, core.Vec3{}))), nil
	case "rotate":
		return outcome(r.interaction.Rotate(degrees(vec(step.Delta, core.Vec3{})))), nil
	case "scale":
		return outcome(r.interaction.Scale(vec(step.Delta, core.NewVec3(1, 1, 1)))), nil
	default:
		return Result{}, fmt.Errorf("unsupported op %q", step.Op)
	}
}

func (r *Runner) deleteSelected(step Step) (Result, error) {
	var keep *scene.Object
	if step.Except != "" {
		obj, err := r.lookup(step.Except)
		if err != nil {
			return Result{}, err
		}
		keep = obj
	}

	deleted := false
	run := func() error {
		deleted = r.registry.DeleteSelected(keep)
		return nil
	}
	if step.Label != "" {
		_ = r.registry.History().Do(step.Label, run)
	} else {
		_ = run()
	}

	if !deleted {
		return Result{Detail: "nothing selected"}, nil
	}
	return Result{OK: true}, nil
}

func (r *Runner) pick(step Step) Result {
	hit, ok := r.registry.FindNearestHit(vec(step.Origin, core.Vec3{}), vec(step.Direction, core.Vec3{}), step.MaxDistance)
	if !ok {
		return Result{OK: true, Detail: "no hit"}
	}
	p := &PickResult{
		Object:   r.names[hit.Object],
		Distance: hit.Distance,
		Triangle: hit.Triangle,
		Point:    hit.Point,
	}
	return Result{
		OK:     true,
		Detail: fmt.Sprintf("hit %s at %.4f (triangle %d)", p.Object, p.Distance, p.Triangle),
		Pick:   p,
	}
}
