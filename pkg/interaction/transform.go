// Package interaction drives a translate/rotate/scale gizmo for the current selection.
package interaction

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/df07/go-mesh-scene/pkg/core"
	"github.com/df07/go-mesh-scene/pkg/scene"
)

// Elements is the set of handles a gizmo shows
type Elements int

const (
	ElementsTranslateRotate Elements = iota
	ElementsTranslateRotateUniformScale
	ElementsFullTRS
)

func (e Elements) String() string {
	switch e {
	case ElementsTranslateRotate:
		return "translate-rotate"
	case ElementsTranslateRotateUniformScale:
		return "translate-rotate-uniform-scale"
	case ElementsFullTRS:
		return "translate-rotate-scale"
	default:
		return fmt.Sprintf("elements(%d)", int(e))
	}
}

// Undo labels
const (
	LabelTranslate = "Translate Objects"
	LabelRotate    = "Rotate Objects"
	LabelScale     = "Scale Objects"
)

var (
	ErrNoGizmo          = errors.New("no gizmo active")
	ErrScalingDisabled  = errors.New("scaling disabled")
	ErrNonUniformScale  = errors.New("non-uniform scale not allowed")
	ErrInvalidScaleStep = errors.New("scale factor must be non-zero")
)

// Gizmo is the current handle state: which objects it moves and which handles it shows
type Gizmo struct {
	Elements Elements
	Targets  []*scene.Object
	Pivot    core.Vec3
}

// TransformInteraction keeps a gizmo in sync with the registry's selection
type TransformInteraction struct {
	registry    *scene.Registry
	logger      *slog.Logger
	enabled     func() bool
	unsubscribe func()
	unwatch     func()

	scaling    bool
	nonUniform bool
	gizmo      *Gizmo
}

// Option configures a TransformInteraction
type Option func(*TransformInteraction)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(t *TransformInteraction) { t.logger = logger }
}

// New subscribes to selection changes on registry. enabled decides whether a gizmo
// may be shown at all, for example while a tool is running; nil means always.
func New(registry *scene.Registry, enabled func() bool, opts ...Option) *TransformInteraction {
	if enabled == nil {
		enabled = func() bool { return true }
	}
	t := &TransformInteraction{
		registry:   registry,
		logger:     slog.Default(),
		enabled:    enabled,
		scaling:    true,
		nonUniform: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.unsubscribe = registry.OnSelectionChanged(func(r *scene.Registry) {
		t.updateTargets(r.Selection())
	})
	// undo and redo move targets without touching the selection
	t.unwatch = registry.History().OnChange(t.refreshPivot)
	t.updateTargets(registry.Selection())
	return t
}

func (t *TransformInteraction) refreshPivot() {
	if t.gizmo != nil {
		t.gizmo.Pivot = pivot(t.gizmo.Targets)
	}
}

// Shutdown unsubscribes and removes the gizmo
func (t *TransformInteraction) Shutdown() {
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
	if t.unwatch != nil {
		t.unwatch()
		t.unwatch = nil
	}
	t.updateTargets(nil)
}

// Gizmo returns the active gizmo, or nil when nothing is selected or the gizmo is disabled
func (t *TransformInteraction) Gizmo() *Gizmo {
	return t.gizmo
}

// SetEnableScaling shows or hides the scale handles
func (t *TransformInteraction) SetEnableScaling(enable bool) {
	if enable != t.scaling {
		t.scaling = enable
		t.ForceUpdate()
	}
}

// SetEnableNonUniformScaling allows per-axis scaling of a single object
func (t *TransformInteraction) SetEnableNonUniformScaling(enable bool) {
	if enable != t.nonUniform {
		t.nonUniform = enable
		t.ForceUpdate()
	}
}

// ForceUpdate rebuilds the gizmo from the current selection
func (t *TransformInteraction) ForceUpdate() {
	if t.unsubscribe == nil {
		return
	}
	t.updateTargets(t.registry.Selection())
}

func (t *TransformInteraction) updateTargets(selection []*scene.Object) {
	t.gizmo = nil
	if len(selection) == 0 || !t.enabled() {
		return
	}

	elements := ElementsFullTRS
	if !t.scaling {
		elements = ElementsTranslateRotate
	} else if !t.nonUniform || len(selection) > 1 {
		// several objects can only be scaled uniformly
		elements = ElementsTranslateRotateUniformScale
	}

	t.gizmo = &Gizmo{
		Elements: elements,
		Targets:  selection,
		Pivot:    pivot(selection),
	}
	t.logger.Debug("gizmo updated",
		slog.String("elements", elements.String()),
		slog.Int("targets", len(selection)))
}

// pivot is the center of the targets' combined bounds, or the first placement when none has geometry
func pivot(targets []*scene.Object) core.Vec3 {
	var bounds core.AABB
	found := false
	for _, obj := range targets {
		if obj.Mesh().TriangleCount() == 0 {
			continue
		}
		if !found {
			bounds = obj.Bounds()
			found = true
			continue
		}
		bounds = bounds.Union(obj.Bounds())
	}
	if !found {
		return targets[0].Placement().Translation
	}
	return bounds.Center()
}

// Translate moves every target by delta as one undo step
func (t *TransformInteraction) Translate(delta core.Vec3) error {
	return t.apply(LabelTranslate, func(p core.Transform) core.Transform {
		p.Translation = p.Translation.Add(delta)
		return p
	})
}

// Rotate adds delta (Euler radians) to every target's rotation as one undo step
func (t *TransformInteraction) Rotate(delta core.Vec3) error {
	return t.apply(LabelRotate, func(p core.Transform) core.Transform {
		p.Rotation = p.Rotation.Add(delta)
		return p
	})
}

// Scale multiplies every target's scale by factor as one undo step. Non-uniform
// factors need the full handle set.
func (t *TransformInteraction) Scale(factor core.Vec3) error {
	if t.gizmo == nil {
		return ErrNoGizmo
	}
	switch {
	case t.gizmo.Elements == ElementsTranslateRotate:
		return ErrScalingDisabled
	case factor.X == 0 || factor.Y == 0 || factor.Z == 0:
		return ErrInvalidScaleStep
	case t.gizmo.Elements != ElementsFullTRS && (factor.X != factor.Y || factor.Y != factor.Z):
		return ErrNonUniformScale
	}
	return t.apply(LabelScale, func(p core.Transform) core.Transform {
		p.Scale = p.Scale.MultiplyVec(factor)
		return p
	})
}

func (t *TransformInteraction) apply(label string, edit func(core.Transform) core.Transform) error {
	if t.gizmo == nil {
		return ErrNoGizmo
	}
	targets := t.gizmo.Targets
	err := t.registry.History().Do(label, func() error {
		for _, obj := range targets {
			if err := t.registry.SetPlacement(obj, edit(obj.Placement())); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	t.gizmo.Pivot = pivot(targets)
	return nil
}
