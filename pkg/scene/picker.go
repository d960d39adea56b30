package scene

import (
	"time"

	"github.com/df07/go-mesh-scene/pkg/core"
)

// Pick is the nearest object hit by a ray
type Pick struct {
	Object *Object
	Hit
}

// ObjectSource enumerates candidate objects for picking
type ObjectSource interface {
	EachObject(fn func(*Object) bool)
}

// Picker finds the nearest object along a world-space ray
type Picker struct {
	source ObjectSource
}

// NewPicker creates a picker over source
func NewPicker(source ObjectSource) *Picker {
	return &Picker{source: source}
}

// FindNearestHit tests every object and keeps the closest hit. maxDistance <= 0
// is unbounded. When two hits are equally close the first one found wins.
func (p *Picker) FindNearestHit(origin, direction core.Vec3, maxDistance float64) (Pick, bool) {
	start := time.Now()
	defer func() { pickDuration.Observe(time.Since(start).Seconds()) }()

	var best Pick
	found := false
	p.source.EachObject(func(obj *Object) bool {
		hit, ok := obj.IntersectRay(origin, direction, maxDistance)
		if ok && (!found || hit.Distance < best.Distance) {
			best = Pick{Object: obj, Hit: hit}
			found = true
		}
		return true
	})

	if found {
		pickQueriesTotal.WithLabelValues("hit").Inc()
	} else {
		pickQueriesTotal.WithLabelValues("miss").Inc()
	}
	return best, found
}
