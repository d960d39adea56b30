// Package history records reversible scene changes and replays them for undo/redo.
package history

import (
	"fmt"

	"github.com/df07/go-mesh-scene/pkg/core"
)

// Kind tags the variant held by a Change
type Kind int

const (
	// KindLifecycle adds or removes one object
	KindLifecycle Kind = iota + 1
	// KindSelection replaces the selection set
	KindSelection
	// KindPlacement moves one object
	KindPlacement
)

func (k Kind) String() string {
	switch k {
	case KindLifecycle:
		return "lifecycle"
	case KindSelection:
		return "selection"
	case KindPlacement:
		return "placement"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Target is the narrow set of mutators a Change replays against.
// Implementations must not record new changes while applying these.
type Target[T comparable] interface {
	AddObject(T)
	RemoveObject(T)
	ApplySelection([]T)
	ApplyPlacement(T, core.Transform)
}

// Change is an immutable, reversible record. Only the fields of its Kind are meaningful.
type Change[T comparable] struct {
	Kind Kind

	// KindLifecycle and KindPlacement
	Object T

	// KindLifecycle: true when the change added Object
	Added bool

	// KindSelection
	Before []T
	After  []T

	// KindPlacement
	From core.Transform
	To   core.Transform
}

// Lifecycle records that obj was added (added=true) or removed
func Lifecycle[T comparable](obj T, added bool) Change[T] {
	return Change[T]{Kind: KindLifecycle, Object: obj, Added: added}
}

// Selection records a selection transition. The slices are copied.
func Selection[T comparable](before, after []T) Change[T] {
	return Change[T]{
		Kind:   KindSelection,
		Before: append([]T(nil), before...),
		After:  append([]T(nil), after...),
	}
}

// Placement records obj moving from one transform to another
func Placement[T comparable](obj T, from, to core.Transform) Change[T] {
	return Change[T]{Kind: KindPlacement, Object: obj, From: from, To: to}
}

// Apply moves target forward through the change
func (c Change[T]) Apply(target Target[T]) {
	switch c.Kind {
	case KindLifecycle:
		if c.Added {
			target.AddObject(c.Object)
		} else {
			target.RemoveObject(c.Object)
		}
	case KindSelection:
		target.ApplySelection(c.After)
	case KindPlacement:
		target.ApplyPlacement(c.Object, c.To)
	}
}

// Revert moves target backward through the change
func (c Change[T]) Revert(target Target[T]) {
	switch c.Kind {
	case KindLifecycle:
		if c.Added {
			target.RemoveObject(c.Object)
		} else {
			target.AddObject(c.Object)
		}
	case KindSelection:
		target.ApplySelection(c.Before)
	case KindPlacement:
		target.ApplyPlacement(c.Object, c.From)
	}
}

func (c Change[T]) String() string {
	switch c.Kind {
	case KindLifecycle:
		if c.Added {
			return fmt.Sprintf("add %v", c.Object)
		}
		return fmt.Sprintf("remove %v", c.Object)
	case KindSelection:
		return fmt.Sprintf("select %d -> %d", len(c.Before), len(c.After))
	case KindPlacement:
		return fmt.Sprintf("move %v", c.Object)
	default:
		return c.Kind.String()
	}
}
