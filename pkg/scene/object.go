package scene

import (
	"math"

	"github.com/google/uuid"

	"github.com/df07/go-mesh-scene/pkg/core"
	"github.com/df07/go-mesh-scene/pkg/geometry"
	"github.com/df07/go-mesh-scene/pkg/host"
	"github.com/df07/go-mesh-scene/pkg/material"
)

// Hit describes where a ray met an object
type Hit struct {
	Point    core.Vec3 // World-space hit point
	Distance float64   // World-space distance from the ray origin
	Triangle int       // Triangle id in the object's mesh
	Bary     core.Vec3 // Barycentric coordinates within the triangle
}

// Object is one mesh entity in the scene. Objects are created and deleted
// only through a Registry.
type Object struct {
	id        uuid.UUID
	actor     host.Actor
	resolver  material.Resolver
	mesh      *geometry.Mesh
	index     *geometry.BVH
	placement core.Transform
	materials []material.Material
	highlight material.Material // overrides every slot while set
}

func newObject(actor host.Actor, resolver material.Resolver) *Object {
	return &Object{
		id:        uuid.New(),
		actor:     actor,
		resolver:  resolver,
		index:     geometry.NewBVH(nil),
		placement: core.IdentityTransform(),
		materials: []material.Material{resolver.Default()},
	}
}

// ID returns the object's identity, unique for the lifetime of the scene
func (o *Object) ID() uuid.UUID { return o.id }

// Actor returns the host-side counterpart
func (o *Object) Actor() host.Actor { return o.actor }

// Mesh returns the current geometry. Callers must not modify it.
func (o *Object) Mesh() *geometry.Mesh { return o.mesh }

// SpatialIndex returns the BVH built over the current geometry
func (o *Object) SpatialIndex() *geometry.BVH { return o.index }

// Placement returns the world transform
func (o *Object) Placement() core.Transform { return o.placement }

func (o *Object) String() string {
	if o == nil {
		return "<nil>"
	}
	return o.id.String()[:8]
}

// SetGeometry replaces the mesh wholesale and rebuilds the spatial index before returning.
// The mesh is copied; a nil mesh clears the geometry.
func (o *Object) SetGeometry(mesh *geometry.Mesh) {
	owned := mesh.Clone()
	o.mesh = owned
	o.index = geometry.NewBVH(owned)
	if o.actor != nil {
		o.actor.SetMesh(owned)
	}
	o.refreshMaterials()
}

// SetPlacement replaces the world transform. The transform is not validated.
func (o *Object) SetPlacement(t core.Transform) {
	o.placement = t
	if o.actor != nil {
		o.actor.SetTransform(t)
	}
}

// Bounds returns the world-space bounding box of the placed mesh
func (o *Object) Bounds() core.AABB {
	if o.mesh.TriangleCount() == 0 {
		return core.AABB{}
	}
	return o.placement.TransformAABB(o.index.BoundingBox())
}

// IntersectRay finds the nearest triangle hit by a world-space ray. maxDistance <= 0
// is unbounded. An object whose actor is gone reports no hit.
func (o *Object) IntersectRay(origin, direction core.Vec3, maxDistance float64) (Hit, bool) {
	// the object can outlive its actor during teardown
	if o.actor == nil || !o.actor.Alive() {
		return Hit{}, false
	}
	if o.mesh.TriangleCount() == 0 || !o.placement.Invertible() {
		return Hit{}, false
	}
	dir := direction.Normalize()
	if dir.IsZero() {
		return Hit{}, false
	}

	// Search along a unit local direction; world distance is local t over the
	// length a unit world step has in local space.
	local := o.placement.InverseTransformRay(core.NewRay(origin, dir))
	stretch := local.Direction.Length()
	if stretch == 0 || math.IsInf(stretch, 0) || math.IsNaN(stretch) {
		return Hit{}, false
	}
	local = core.NewRay(local.Origin, local.Direction.Multiply(1/stretch))

	localMax := 0.0
	if maxDistance > 0 {
		localMax = maxDistance * stretch
	}
	triangle, _, ok := o.index.FindNearestHitTriangle(local, localMax)
	if !ok {
		return Hit{}, false
	}

	hit, ok := geometry.IntersectMeshTriangle(o.mesh, triangle, local)
	if !ok {
		return Hit{}, false
	}
	distance := hit.T / stretch
	if maxDistance > 0 && distance > maxDistance {
		return Hit{}, false
	}

	return Hit{
		Point:    o.placement.TransformPoint(local.At(hit.T)),
		Distance: distance,
		Triangle: triangle,
		Bary:     hit.Bary,
	}, true
}

// Materials returns a copy of the per-slot material list
func (o *Object) Materials() []material.Material {
	return append([]material.Material(nil), o.materials...)
}

// slotCount is the number of render slots to drive; always at least one
func (o *Object) slotCount() int {
	if o.actor == nil {
		return 1
	}
	return max(1, o.actor.NumMaterials())
}

// SetAllMaterials assigns m to every material slot
func (o *Object) SetAllMaterials(m material.Material) {
	n := o.slotCount()
	o.materials = make([]material.Material, n)
	for k := range o.materials {
		o.materials[k] = m
	}
	o.refreshMaterials()
}

// SetMaterials replaces the slot-aligned material list. Slots beyond the list,
// and nil entries, resolve to the default material.
func (o *Object) SetMaterials(list []material.Material) {
	o.materials = append([]material.Material(nil), list...)
	o.refreshMaterials()
}

// CopyMaterialsFromRenderState reads the materials currently shown by the actor
func (o *Object) CopyMaterialsFromRenderState() {
	if o.actor == nil || o.actor.NumMaterials() == 0 {
		o.materials = []material.Material{o.resolver.Default()}
		return
	}
	n := o.actor.NumMaterials()
	o.materials = make([]material.Material, n)
	for k := 0; k < n; k++ {
		m := o.actor.Material(k)
		if m == nil {
			m = o.resolver.Default()
		}
		o.materials[k] = m
	}
}

// SetHighlight overrides every render slot with m until ClearHighlight.
// Geometry and material updates made meanwhile keep the override.
func (o *Object) SetHighlight(m material.Material) {
	o.highlight = m
	o.refreshMaterials()
}

// ClearHighlight restores the render slots from the material list
func (o *Object) ClearHighlight() {
	o.highlight = nil
	o.refreshMaterials()
}

// refreshMaterials pushes the material list to the actor, filling gaps with the default
func (o *Object) refreshMaterials() {
	if o.actor == nil {
		return
	}
	fallback := o.resolver.Default()
	for k := 0; k < o.slotCount(); k++ {
		m := fallback
		if o.highlight != nil {
			m = o.highlight
		} else if k < len(o.materials) && o.materials[k] != nil {
			m = o.materials[k]
		}
		o.actor.SetMaterial(k, m)
	}
}
