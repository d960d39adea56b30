package scene

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-mesh-scene/pkg/core"
	"github.com/df07/go-mesh-scene/pkg/geometry"
	"github.com/df07/go-mesh-scene/pkg/host"
	"github.com/df07/go-mesh-scene/pkg/material"
)

// threeSlotMesh is three disjoint triangles, one per material slot
func threeSlotMesh() *geometry.Mesh {
	vertices := []core.Vec3{
		core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0),
		core.NewVec3(2, 0, 0), core.NewVec3(3, 0, 0), core.NewVec3(2, 1, 0),
		core.NewVec3(4, 0, 0), core.NewVec3(5, 0, 0), core.NewVec3(4, 1, 0),
	}
	return geometry.MustMesh(vertices, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, []int{0, 1, 2})
}

func TestObject_SetAllMaterialsFillsEverySlot(t *testing.T) {
	f := newFixture(t)
	obj := f.reg.Create()
	obj.SetGeometry(threeSlotMesh())
	require.Equal(t, 3, obj.Actor().NumMaterials())

	m1 := material.NewSurface("m1", core.NewVec3(1, 0, 0))
	obj.SetAllMaterials(m1)
	assert.Equal(t, []material.Material{m1, m1, m1}, slotMaterials(obj))

	obj.SetMaterials(nil)
	def := f.lib.Default()
	assert.Equal(t, []material.Material{def, def, def}, slotMaterials(obj))
}

func TestObject_ClearHighlightRestoresMaterials(t *testing.T) {
	f := newFixture(t)
	obj := f.reg.Create()
	obj.SetGeometry(threeSlotMesh())

	m1 := material.NewSurface("m1", core.NewVec3(1, 0, 0))
	m2 := material.NewSurface("m2", core.NewVec3(0, 1, 0))
	obj.SetMaterials([]material.Material{m1, m2})
	want := []material.Material{m1, m2, f.lib.Default()}
	assert.Equal(t, want, slotMaterials(obj))

	obj.SetHighlight(f.lib.Selected())
	for _, m := range slotMaterials(obj) {
		assert.Equal(t, f.lib.Selected(), m)
	}

	obj.ClearHighlight()
	assert.Equal(t, want, slotMaterials(obj))
	assert.Equal(t, []material.Material{m1, m2}, obj.Materials())
}

func TestObject_HighlightSurvivesEdits(t *testing.T) {
	f := newFixture(t)
	obj := f.reg.Create()
	obj.SetHighlight(f.lib.Selected())

	obj.SetGeometry(threeSlotMesh())
	m1 := material.NewSurface("m1", core.NewVec3(1, 0, 0))
	obj.SetAllMaterials(m1)
	sel := f.lib.Selected()
	assert.Equal(t, []material.Material{sel, sel, sel}, slotMaterials(obj))

	obj.ClearHighlight()
	assert.Equal(t, []material.Material{m1, m1, m1}, slotMaterials(obj))
}

func TestObject_CopyMaterialsFromRenderState(t *testing.T) {
	f := newFixture(t)
	obj := f.reg.Create()
	obj.SetGeometry(threeSlotMesh())

	m2 := material.NewSurface("m2", core.NewVec3(0, 1, 0))
	obj.Actor().SetMaterial(1, m2)
	obj.CopyMaterialsFromRenderState()

	def := f.lib.Default()
	assert.Equal(t, []material.Material{def, m2, def}, obj.Materials())
}

func TestObject_IntersectRay(t *testing.T) {
	tests := []struct {
		name      string
		placement core.Transform
		origin    core.Vec3
		direction core.Vec3
		maxDist   float64
		wantHit   bool
		wantDist  float64
		wantPoint core.Vec3
	}{
		{
			name:      "unit placement",
			placement: core.IdentityTransform(),
			origin:    core.NewVec3(0.3, 0.2, -5),
			direction: core.NewVec3(0, 0, 1),
			wantHit:   true,
			wantDist:  4,
			wantPoint: core.NewVec3(0.3, 0.2, -1),
		},
		{
			name:      "unnormalized direction",
			placement: core.IdentityTransform(),
			origin:    core.NewVec3(0.3, 0.2, -5),
			direction: core.NewVec3(0, 0, 10),
			wantHit:   true,
			wantDist:  4,
			wantPoint: core.NewVec3(0.3, 0.2, -1),
		},
		{
			name:      "scaled placement reports world distance",
			placement: core.NewTransform(core.Vec3{}, core.Vec3{}, core.NewVec3(2, 2, 2)),
			origin:    core.NewVec3(0.3, 0.2, -5),
			direction: core.NewVec3(0, 0, 1),
			wantHit:   true,
			wantDist:  3,
			wantPoint: core.NewVec3(0.3, 0.2, -2),
		},
		{
			name:      "rotated and translated",
			placement: core.NewTransform(core.NewVec3(0, 0, 3), core.NewVec3(0, 0, math.Pi/4), core.NewVec3(1, 1, 1)),
			origin:    core.NewVec3(0.3, 0.2, -5),
			direction: core.NewVec3(0, 0, 1),
			wantHit:   true,
			wantDist:  7,
			wantPoint: core.NewVec3(0.3, 0.2, 2),
		},
		{
			name:      "beyond max distance",
			placement: core.IdentityTransform(),
			origin:    core.NewVec3(0.3, 0.2, -5),
			direction: core.NewVec3(0, 0, 1),
			maxDist:   3.5,
		},
		{
			name:      "within max distance",
			placement: core.IdentityTransform(),
			origin:    core.NewVec3(0.3, 0.2, -5),
			direction: core.NewVec3(0, 0, 1),
			maxDist:   4.5,
			wantHit:   true,
			wantDist:  4,
			wantPoint: core.NewVec3(0.3, 0.2, -1),
		},
		{
			name:      "miss",
			placement: core.IdentityTransform(),
			origin:    core.NewVec3(5, 5, -5),
			direction: core.NewVec3(0, 0, 1),
		},
		{
			name:      "zero direction",
			placement: core.IdentityTransform(),
			origin:    core.NewVec3(0.3, 0.2, -5),
		},
		{
			name:      "degenerate placement",
			placement: core.NewTransform(core.Vec3{}, core.Vec3{}, core.NewVec3(1, 0, 1)),
			origin:    core.NewVec3(0.3, 0.2, -5),
			direction: core.NewVec3(0, 0, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			obj := f.box(core.Vec3{})
			obj.SetPlacement(tt.placement)

			hit, ok := obj.IntersectRay(tt.origin, tt.direction, tt.maxDist)
			require.Equal(t, tt.wantHit, ok)
			if !ok {
				return
			}
			assert.InDelta(t, tt.wantDist, hit.Distance, 1e-9)
			assert.InDelta(t, tt.wantPoint.X, hit.Point.X, 1e-9)
			assert.InDelta(t, tt.wantPoint.Y, hit.Point.Y, 1e-9)
			assert.InDelta(t, tt.wantPoint.Z, hit.Point.Z, 1e-9)
			assert.True(t, obj.Mesh().IsTriangle(hit.Triangle))
			assert.InDelta(t, 1.0, hit.Bary.X+hit.Bary.Y+hit.Bary.Z, 1e-9)
			assert.GreaterOrEqual(t, hit.Bary.X, 0.0)
			assert.GreaterOrEqual(t, hit.Bary.Y, 0.0)
			assert.GreaterOrEqual(t, hit.Bary.Z, 0.0)
		})
	}
}

func TestObject_IntersectRayAcrossPlacementScales(t *testing.T) {
	// A box of half extent 1/s placed with scale s is the same 2x2x2 world box
	for _, s := range []float64{1e-4, 1, 1e4, 1e5, 1e6, 1e9} {
		t.Run(fmt.Sprintf("scale %g", s), func(t *testing.T) {
			f := newFixture(t)
			obj := f.reg.Create()
			obj.SetGeometry(geometry.NewBoxMesh(core.NewVec3(1/s, 1/s, 1/s), false))
			obj.SetPlacement(core.NewTransform(core.Vec3{}, core.Vec3{}, core.NewVec3(s, s, s)))

			origin, dir := core.NewVec3(0.3, 0.2, -5), core.NewVec3(0, 0, 1)
			hit, ok := obj.IntersectRay(origin, dir, 0)
			require.True(t, ok)
			assert.InDelta(t, 4.0, hit.Distance, 1e-6)
			assert.InDelta(t, -1.0, hit.Point.Z, 1e-6)

			_, ok = obj.IntersectRay(origin, dir, 3.5)
			assert.False(t, ok, "max distance is measured in world units")
			_, ok = obj.IntersectRay(origin, dir, 4.5)
			assert.True(t, ok)
		})
	}
}

func TestObject_IntersectRayWithoutActor(t *testing.T) {
	f := newFixture(t)
	obj := f.box(core.Vec3{})
	origin, dir := core.NewVec3(0.3, 0.2, -5), core.NewVec3(0, 0, 1)

	_, ok := obj.IntersectRay(origin, dir, 0)
	require.True(t, ok)

	obj.Actor().(*host.MemoryActor).Kill()
	_, ok = obj.IntersectRay(origin, dir, 0)
	assert.False(t, ok, "a destroyed actor must degrade to no hit")
}

func TestObject_SetGeometryRebuildsIndex(t *testing.T) {
	f := newFixture(t)
	obj := f.box(core.Vec3{})
	origin, dir := core.NewVec3(0.3, 0.2, -5), core.NewVec3(0, 0, 1)
	_, ok := obj.IntersectRay(origin, dir, 0)
	require.True(t, ok)

	obj.SetGeometry(geometry.NewQuadMesh(core.NewVec3(10, 10, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)))
	_, ok = obj.IntersectRay(origin, dir, 0)
	assert.False(t, ok, "old geometry must not be hit after replacement")
	assert.Equal(t, 2, obj.SpatialIndex().Stats().TotalTriangles)

	hit, ok := obj.IntersectRay(core.NewVec3(10.5, 10.5, -1), dir, 0)
	require.True(t, ok)
	assert.InDelta(t, 1.0, hit.Distance, 1e-9)

	obj.SetGeometry(nil)
	_, ok = obj.IntersectRay(core.NewVec3(10.5, 10.5, -1), dir, 0)
	assert.False(t, ok)
}

func TestObject_SetGeometryCopiesMesh(t *testing.T) {
	f := newFixture(t)
	obj := f.reg.Create()
	mesh := geometry.NewBoxMesh(core.NewVec3(1, 1, 1), true)
	obj.SetGeometry(mesh)

	assert.NotSame(t, mesh, obj.Mesh())
	assert.Equal(t, 12, obj.Mesh().TriangleCount())
	assert.Equal(t, 6, obj.Actor().NumMaterials())
}

func TestObject_Bounds(t *testing.T) {
	f := newFixture(t)
	obj := f.box(core.NewVec3(5, 0, 0))
	bounds := obj.Bounds()
	assert.InDelta(t, 4.0, bounds.Min.X, 1e-9)
	assert.InDelta(t, 6.0, bounds.Max.X, 1e-9)

	empty := f.reg.Create()
	assert.Equal(t, core.AABB{}, empty.Bounds())
}

func TestObject_PlacementReachesActor(t *testing.T) {
	f := newFixture(t)
	obj := f.reg.Create()
	placement := core.NewTransform(core.NewVec3(1, 2, 3), core.Vec3{}, core.NewVec3(1, 1, 1))
	obj.SetPlacement(placement)
	assert.Equal(t, placement, obj.Actor().Transform())
	assert.Equal(t, placement, obj.Placement())
}
