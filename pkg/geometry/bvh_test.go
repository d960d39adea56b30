package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-mesh-scene/pkg/core"
)

// stripMesh creates n unit triangles side by side along X, all in the z=0 plane
func stripMesh(n int) *Mesh {
	vertices := make([]core.Vec3, 0, n*3)
	indices := make([]int, 0, n*3)
	for i := 0; i < n; i++ {
		x := float64(i) * 2
		base := len(vertices)
		vertices = append(vertices,
			core.NewVec3(x, 0, 0),
			core.NewVec3(x+1, 0, 0),
			core.NewVec3(x, 1, 0),
		)
		indices = append(indices, base, base+1, base+2)
	}
	return MustMesh(vertices, indices, nil)
}

func TestBVH_LeafThresholdBoundary(t *testing.T) {
	// Exactly leafThreshold triangles should create a single leaf
	stats := NewBVH(stripMesh(leafThreshold)).Stats()
	assert.Equal(t, 1, stats.TotalNodes)
	assert.Equal(t, 1, stats.LeafNodes)

	// One more triangle should split
	stats = NewBVH(stripMesh(leafThreshold + 1)).Stats()
	assert.Greater(t, stats.TotalNodes, 1)
	assert.GreaterOrEqual(t, stats.LeafNodes, 2)
	assert.Equal(t, leafThreshold+1, stats.TotalTriangles, "every triangle in exactly one leaf")
}

func TestBVH_EmptyMesh(t *testing.T) {
	for _, mesh := range []*Mesh{nil, MustMesh(nil, nil, nil)} {
		bvh := NewBVH(mesh)
		assert.Nil(t, bvh.Root)

		ray := core.NewRay(core.NewVec3(0, 0, -1), core.NewVec3(0, 0, 1))
		_, _, ok := bvh.FindNearestHitTriangle(ray, 0)
		assert.False(t, ok)
	}
}

func TestBVH_CoincidentCentroids(t *testing.T) {
	// Many copies of the same triangle cannot be split and must end up in one leaf
	vertices := []core.Vec3{core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)}
	indices := make([]int, 0, 60)
	for i := 0; i < 20; i++ {
		indices = append(indices, 0, 1, 2)
	}
	bvh := NewBVH(MustMesh(vertices, indices, nil))

	stats := bvh.Stats()
	assert.Equal(t, 1, stats.LeafNodes)
	assert.Equal(t, 20, stats.TotalTriangles)

	ray := core.NewRay(core.NewVec3(0.2, 0.2, -1), core.NewVec3(0, 0, 1))
	_, _, ok := bvh.FindNearestHitTriangle(ray, 0)
	assert.True(t, ok, "stacked triangles are hit")
}

func TestBVH_NearestHitAmongLayers(t *testing.T) {
	// Three parallel quads at z = 1, 3, 5; a ray down +Z must return the z=1 quad
	var vertices []core.Vec3
	var indices []int
	for _, z := range []float64{5, 1, 3} {
		base := len(vertices)
		vertices = append(vertices,
			core.NewVec3(-1, -1, z),
			core.NewVec3(1, -1, z),
			core.NewVec3(1, 1, z),
			core.NewVec3(-1, 1, z),
		)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	bvh := NewBVH(MustMesh(vertices, indices, nil))

	ray := core.NewRay(core.NewVec3(0.1, 0.2, 0), core.NewVec3(0, 0, 1))
	id, tHit, ok := bvh.FindNearestHitTriangle(ray, 0)
	require.True(t, ok)
	assert.Contains(t, []int{2, 3}, id, "a triangle of the z=1 layer")
	assert.InDelta(t, 1.0, tHit, 1e-9)

	// Bounded query stops before the first layer
	_, _, ok = bvh.FindNearestHitTriangle(ray, 0.5)
	assert.False(t, ok)
}

func TestBVH_MatchesBruteForce(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	mesh := NewGridMesh(24, 10)
	bvh := NewBVH(mesh)

	for i := 0; i < 200; i++ {
		origin := core.NewVec3(random.Float64()*12-6, 3+random.Float64()*2, random.Float64()*12-6)
		target := core.NewVec3(random.Float64()*12-6, 0, random.Float64()*12-6)
		ray := core.NewRay(origin, target.Subtract(origin).Normalize())

		bruteID, bruteT := -1, math.MaxFloat64
		for id := 0; id < mesh.TriangleCount(); id++ {
			v0, v1, v2 := mesh.Triangle(id)
			if hit, ok := IntersectTriangle(ray, v0, v1, v2, 0, bruteT); ok {
				bruteID, bruteT = id, hit.T
			}
		}

		id, tHit, ok := bvh.FindNearestHitTriangle(ray, 0)
		require.Equal(t, bruteID >= 0, ok, "ray %d", i)
		if ok {
			assert.InDelta(t, bruteT, tHit, 1e-9, "ray %d: bvh tri %d, brute force tri %d", i, id, bruteID)
		}
	}
}
