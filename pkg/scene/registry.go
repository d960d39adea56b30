// Package scene owns the live set of mesh objects, the selection, and the
// undoable changes made to both.
package scene

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/df07/go-mesh-scene/pkg/core"
	"github.com/df07/go-mesh-scene/pkg/history"
	"github.com/df07/go-mesh-scene/pkg/host"
	"github.com/df07/go-mesh-scene/pkg/material"
)

var (
	// ErrUnknownObject is returned when an object is not live in the registry
	ErrUnknownObject = errors.New("object not in scene")
	// ErrSelectionChangeOpen is returned when a selection change starts while another is open
	ErrSelectionChangeOpen = errors.New("selection change already open")
)

// Undo labels
const (
	LabelAddObject       = "Add SceneObject"
	LabelDeleteObject    = "Delete SceneObject"
	LabelDeleteObjects   = "Delete Objects"
	LabelSelectionChange = "Selection Change"
	LabelMoveObject      = "Move SceneObject"
)

// Registry is the scene context: the live objects, the selection, and the
// undo history over both. It runs on a single logical thread and does no locking.
type Registry struct {
	host     host.Host
	resolver material.Resolver
	logger   *slog.Logger
	history  *history.Log[*Object]

	objects   []*Object
	live      map[*Object]struct{}
	selection []*Object
	owned     []*Object // every object ever created, live or only referenced by history

	activeSelection *selectionChange
	observers       []*observer
}

type settings struct {
	logger       *slog.Logger
	historyDepth int
}

// Option configures a Registry
type Option func(*settings)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithHistoryDepth caps the undo history; 0 is unlimited
func WithHistoryDepth(n int) Option {
	return func(s *settings) { s.historyDepth = n }
}

// NewRegistry creates an empty scene backed by h for actors and resolver for materials
func NewRegistry(h host.Host, resolver material.Resolver, opts ...Option) *Registry {
	s := settings{logger: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}

	r := &Registry{
		host:     h,
		resolver: resolver,
		logger:   s.logger,
		live:     make(map[*Object]struct{}),
	}
	r.history = history.New[*Object](registryTarget{r},
		history.WithMaxDepth(s.historyDepth),
		history.WithLogger(s.logger),
	)
	return r
}

// History returns the undo/redo log
func (r *Registry) History() *history.Log[*Object] { return r.history }

// Resolver returns the material resolver
func (r *Registry) Resolver() material.Resolver { return r.resolver }

// Create adds a new empty object with the default material. The caller populates its geometry.
func (r *Registry) Create() *Object {
	actor := r.host.Spawn(core.IdentityTransform())
	obj := newObject(actor, r.resolver)
	r.owned = append(r.owned, obj)

	r.addObjectInternal(obj, false)
	r.history.Record(LabelAddObject, history.Lifecycle(obj, true))
	obj.SetAllMaterials(r.resolver.Default())

	objectsCreatedTotal.Inc()
	r.logger.Debug("scene object created", slog.String("object", obj.String()))
	return obj
}

// Delete removes obj from the scene, deselecting it first.
// Unknown objects fail with ErrUnknownObject and leave the scene untouched.
func (r *Registry) Delete(obj *Object) error {
	if !r.Contains(obj) {
		r.logger.Warn("tried to delete an object that is not in the scene", slog.Any("object", obj))
		return fmt.Errorf("delete %v: %w", obj, ErrUnknownObject)
	}
	if r.activeSelection != nil {
		r.logger.Warn("delete during open selection change", slog.String("object", obj.String()))
		return fmt.Errorf("delete %v: %w", obj, ErrSelectionChangeOpen)
	}

	if r.IsSelected(obj) {
		if err := r.mutateSelection(func() []*Object { return without(r.selection, obj) }); err != nil {
			return fmt.Errorf("delete %v: %w", obj, err)
		}
	}

	r.removeObjectInternal(obj)
	r.history.Record(LabelDeleteObject, history.Lifecycle(obj, false))
	objectsDeletedTotal.Inc()
	return nil
}

// DeleteSelected deletes every selected object except keep (which may be nil) as one
// undo step, ending with an empty selection. It returns false if nothing was selected.
func (r *Registry) DeleteSelected(keep *Object) bool {
	if len(r.selection) == 0 {
		return false
	}
	if r.activeSelection != nil {
		r.logger.Warn("delete selected during open selection change")
		return false
	}

	batch := r.history.BeginBatch(LabelDeleteObjects)
	defer batch.End()

	doomed := append([]*Object(nil), r.selection...)
	if err := r.mutateSelection(func() []*Object { return nil }); err != nil {
		return false
	}

	for _, obj := range doomed {
		if obj == keep {
			continue
		}
		r.removeObjectInternal(obj)
		r.history.Record(LabelDeleteObject, history.Lifecycle(obj, false))
		objectsDeletedTotal.Inc()
	}
	return true
}

// SetPlacement moves obj as an undoable change. Setting the current placement records nothing.
func (r *Registry) SetPlacement(obj *Object, t core.Transform) error {
	if !r.Contains(obj) {
		r.logger.Warn("tried to move an object that is not in the scene", slog.Any("object", obj))
		return fmt.Errorf("move %v: %w", obj, ErrUnknownObject)
	}
	from := obj.Placement()
	if from == t {
		return nil
	}
	obj.SetPlacement(t)
	r.history.Record(LabelMoveObject, history.Placement(obj, from, t))
	return nil
}

// FindByActor returns the live object represented by actor
func (r *Registry) FindByActor(actor host.Actor) (*Object, bool) {
	for _, obj := range r.objects {
		if obj.actor == actor {
			return obj, true
		}
	}
	return nil, false
}

// Contains reports whether obj is live
func (r *Registry) Contains(obj *Object) bool {
	if obj == nil {
		return false
	}
	_, ok := r.live[obj]
	return ok
}

// Len returns the number of live objects
func (r *Registry) Len() int { return len(r.objects) }

// Objects returns the live objects in insertion order
func (r *Registry) Objects() []*Object {
	return append([]*Object(nil), r.objects...)
}

// EachObject calls fn for every live object in insertion order until fn returns false
func (r *Registry) EachObject(fn func(*Object) bool) {
	for _, obj := range r.objects {
		if !fn(obj) {
			return
		}
	}
}

// FindNearestHit casts a world-space ray against every live object
func (r *Registry) FindNearestHit(origin, direction core.Vec3, maxDistance float64) (Pick, bool) {
	return NewPicker(r).FindNearestHit(origin, direction, maxDistance)
}

// Close destroys every actor the scene ever spawned and drops all state and history.
// The registry must not be used afterwards.
func (r *Registry) Close() {
	for _, obj := range r.owned {
		if obj.actor != nil {
			r.host.Destroy(obj.actor)
		}
	}
	r.history.Clear()
	r.objects = nil
	r.live = make(map[*Object]struct{})
	r.selection = nil
	r.owned = nil
	r.observers = nil
	r.activeSelection = nil
}

// addObjectInternal makes obj live. Replayed adds re-register the actor.
func (r *Registry) addObjectInternal(obj *Object, isUndoRedo bool) {
	if r.Contains(obj) {
		return
	}
	r.objects = append(r.objects, obj)
	r.live[obj] = struct{}{}
	if isUndoRedo && obj.actor != nil {
		obj.actor.SetRegistered(true)
	}
}

// removeObjectInternal drops obj from the live set and unregisters its actor.
// The actor is kept so undo can bring the object back.
func (r *Registry) removeObjectInternal(obj *Object) {
	if !r.Contains(obj) {
		return
	}
	if r.IsSelected(obj) {
		// keep selection ⊆ objects even if a caller skipped the deselect step
		r.logger.Warn("removing a selected object; evicting from selection", slog.String("object", obj.String()))
		obj.ClearHighlight()
		r.selection = without(r.selection, obj)
	}
	r.objects = without(r.objects, obj)
	delete(r.live, obj)
	if obj.actor != nil {
		obj.actor.SetRegistered(false)
	}
}

// without returns a copy of list with obj removed
func without(list []*Object, obj *Object) []*Object {
	out := make([]*Object, 0, len(list))
	for _, o := range list {
		if o != obj {
			out = append(out, o)
		}
	}
	return out
}

// registryTarget exposes the internal mutators to the history log only
type registryTarget struct {
	r *Registry
}

func (t registryTarget) AddObject(obj *Object) { t.r.addObjectInternal(obj, true) }

func (t registryTarget) RemoveObject(obj *Object) { t.r.removeObjectInternal(obj) }

func (t registryTarget) ApplySelection(selection []*Object) {
	t.r.setSelectionInternal(selection)
	t.r.broadcastSelectionChanged()
}

func (t registryTarget) ApplyPlacement(obj *Object, placement core.Transform) {
	obj.SetPlacement(placement)
}
