package scene

import (
	"log/slog"

	"github.com/df07/go-mesh-scene/pkg/history"
)

// selectionChange brackets one public selection mutation. It snapshots the
// selection when opened and records the difference when closed.
type selectionChange struct {
	r      *Registry
	before []*Object
	done   bool
}

type observer struct {
	fn func(*Registry)
}

func (r *Registry) beginSelectionChange() (*selectionChange, error) {
	if r.activeSelection != nil {
		return nil, ErrSelectionChangeOpen
	}
	c := &selectionChange{r: r, before: append([]*Object(nil), r.selection...)}
	r.activeSelection = c
	return c, nil
}

// end records the change unless the selection ended with the same members
func (c *selectionChange) end() {
	if c.done {
		return
	}
	c.done = true
	r := c.r
	r.activeSelection = nil

	if sameMembers(c.before, r.selection) {
		return
	}
	r.history.Record(LabelSelectionChange, history.Selection(c.before, r.selection))
	selectionChangesTotal.Inc()
}

// mutateSelection runs one public selection mutation inside a selection change.
// Observers are notified once the change is closed and recorded.
func (r *Registry) mutateSelection(next func() []*Object) error {
	change, err := r.beginSelectionChange()
	if err != nil {
		r.logger.Warn("selection change requested while another is open")
		return err
	}
	func() {
		defer change.end()
		r.setSelectionInternal(next())
	}()
	r.broadcastSelectionChanged()
	return nil
}

// setSelectionInternal replaces the selection, updating highlights for the
// difference only. Objects that are not live are skipped. Callers notify observers.
func (r *Registry) setSelectionInternal(next []*Object) {
	incoming := make([]*Object, 0, len(next))
	seen := make(map[*Object]struct{}, len(next))
	for _, obj := range next {
		if !r.Contains(obj) {
			r.logger.Warn("skipping selection of an object that is not in the scene", slog.Any("object", obj))
			continue
		}
		if _, dup := seen[obj]; dup {
			continue
		}
		seen[obj] = struct{}{}
		incoming = append(incoming, obj)
	}

	previous := make(map[*Object]struct{}, len(r.selection))
	for _, obj := range r.selection {
		previous[obj] = struct{}{}
		if _, stays := seen[obj]; !stays {
			obj.ClearHighlight()
		}
	}
	highlight := r.resolver.Selected()
	for _, obj := range incoming {
		if _, was := previous[obj]; !was {
			obj.SetHighlight(highlight)
		}
	}

	r.selection = incoming
}

func (r *Registry) broadcastSelectionChanged() {
	observers := append([]*observer(nil), r.observers...)
	for _, o := range observers {
		o.fn(r)
	}
}

// OnSelectionChanged registers fn to run after every selection update, including
// undo and redo. The returned function unsubscribes.
func (r *Registry) OnSelectionChanged(fn func(*Registry)) (unsubscribe func()) {
	o := &observer{fn: fn}
	r.observers = append(r.observers, o)
	return func() {
		for i, existing := range r.observers {
			if existing == o {
				r.observers = append(r.observers[:i:i], r.observers[i+1:]...)
				return
			}
		}
	}
}

// Select adds obj to the selection, or removes it when deselect is set.
// deselectOthers makes obj the only selected object.
func (r *Registry) Select(obj *Object, deselect, deselectOthers bool) error {
	return r.mutateSelection(func() []*Object {
		switch {
		case deselect:
			return without(r.selection, obj)
		case deselectOthers:
			return []*Object{obj}
		case r.IsSelected(obj):
			return r.selection
		default:
			return append(append([]*Object(nil), r.selection...), obj)
		}
	})
}

// Toggle flips whether obj is selected
func (r *Registry) Toggle(obj *Object) error {
	return r.mutateSelection(func() []*Object {
		if r.IsSelected(obj) {
			return without(r.selection, obj)
		}
		return append(append([]*Object(nil), r.selection...), obj)
	})
}

// SetSelection replaces the selection. Objects that are not live are skipped.
func (r *Registry) SetSelection(objects []*Object) error {
	return r.mutateSelection(func() []*Object { return objects })
}

// ClearSelection deselects everything
func (r *Registry) ClearSelection() error {
	return r.mutateSelection(func() []*Object { return nil })
}

// Selection returns the selected objects in selection order
func (r *Registry) Selection() []*Object {
	return append([]*Object(nil), r.selection...)
}

// IsSelected reports whether obj is selected
func (r *Registry) IsSelected(obj *Object) bool {
	for _, o := range r.selection {
		if o == obj {
			return true
		}
	}
	return false
}

// sameMembers compares two selections as sets
func sameMembers(a, b []*Object) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[*Object]struct{}, len(a))
	for _, obj := range a {
		set[obj] = struct{}{}
	}
	for _, obj := range b {
		if _, ok := set[obj]; !ok {
			return false
		}
	}
	return true
}
