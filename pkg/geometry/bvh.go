package geometry

import (
	"math"

	"github.com/df07/go-mesh-scene/pkg/core"
)

// maxDistance is the unbounded query distance
const maxDistance = math.MaxFloat64

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Triangles   []int // Triangle ids for leaf nodes (nil for internal nodes)
}

// BVH is a Bounding Volume Hierarchy over the triangles of one mesh
type BVH struct {
	Root *BVHNode
	mesh *Mesh
}

// Leaf threshold: if we have this many or fewer triangles, store them in a leaf node
const leafThreshold = 8

// NewBVH builds a BVH over every triangle of mesh. A nil or empty mesh yields an empty BVH.
func NewBVH(mesh *Mesh) *BVH {
	numTriangles := mesh.TriangleCount()
	if numTriangles == 0 {
		return &BVH{mesh: mesh}
	}

	items := make([]bvhItem, numTriangles)
	for i := range items {
		bounds := mesh.TriangleBounds(i)
		items[i] = bvhItem{id: i, bounds: bounds, center: bounds.Center()}
	}

	return &BVH{
		Root: buildBVH(items, 0),
		mesh: mesh,
	}
}

// bvhItem caches per-triangle bounds while building
type bvhItem struct {
	id     int
	bounds core.AABB
	center core.Vec3
}

// buildBVH recursively builds the BVH using median splits along the longest axis
func buildBVH(items []bvhItem, depth int) *BVHNode {
	boundingBox := items[0].bounds
	for i := 1; i < len(items); i++ {
		boundingBox = boundingBox.Union(items[i].bounds)
	}

	if len(items) <= leafThreshold {
		return newLeaf(boundingBox, items)
	}

	bestAxis, splitPos := findBestSplitSimple(items)
	if bestAxis == -1 {
		return newLeaf(boundingBox, items)
	}

	leftItems, rightItems := partitionItems(items, bestAxis, splitPos)

	// Ensure we don't create empty partitions
	if len(leftItems) == 0 || len(rightItems) == 0 {
		return newLeaf(boundingBox, items)
	}

	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(leftItems, depth+1),
		Right:       buildBVH(rightItems, depth+1),
	}
}

func newLeaf(boundingBox core.AABB, items []bvhItem) *BVHNode {
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.id
	}
	return &BVHNode{BoundingBox: boundingBox, Triangles: ids}
}

// findBestSplitSimple picks the longest axis of the centroid bounds and splits at its midpoint
func findBestSplitSimple(items []bvhItem) (bestAxis int, splitPos float64) {
	centers := make([]core.Vec3, len(items))
	for i, item := range items {
		centers[i] = item.center
	}
	centroidBounds := core.NewAABBFromPoints(centers...)
	bestAxis = centroidBounds.LongestAxis()

	minVal := centroidBounds.Min.Axis(bestAxis)
	maxVal := centroidBounds.Max.Axis(bestAxis)

	// All centroids coincide along this axis
	if maxVal <= minVal {
		return -1, 0
	}

	return bestAxis, (minVal + maxVal) * 0.5
}

// partitionItems partitions items based on the chosen axis and split position
func partitionItems(items []bvhItem, axis int, splitPos float64) ([]bvhItem, []bvhItem) {
	var leftItems, rightItems []bvhItem
	for _, item := range items {
		if item.center.Axis(axis) < splitPos {
			leftItems = append(leftItems, item)
		} else {
			rightItems = append(rightItems, item)
		}
	}
	return leftItems, rightItems
}

// FindNearestHitTriangle returns the id and ray parameter of the nearest triangle
// hit in [0, tMax]. A tMax <= 0 means unbounded.
func (bvh *BVH) FindNearestHitTriangle(ray core.Ray, tMax float64) (int, float64, bool) {
	if bvh == nil || bvh.Root == nil {
		return -1, 0, false
	}
	if tMax <= 0 {
		tMax = maxDistance
	}

	nearest := -1
	closestSoFar := tMax
	bvh.hitNode(bvh.Root, ray, &nearest, &closestSoFar)
	if nearest < 0 {
		return -1, 0, false
	}
	return nearest, closestSoFar, true
}

// hitNode recursively tests ray intersection with BVH nodes, shrinking closestSoFar on every hit
func (bvh *BVH) hitNode(node *BVHNode, ray core.Ray, nearest *int, closestSoFar *float64) {
	if !node.BoundingBox.Hit(ray, 0, *closestSoFar) {
		return
	}

	if node.Triangles != nil {
		for _, id := range node.Triangles {
			v0, v1, v2 := bvh.mesh.Triangle(id)
			if hit, ok := IntersectTriangle(ray, v0, v1, v2, 0, *closestSoFar); ok {
				*nearest = id
				*closestSoFar = hit.T
			}
		}
		return
	}

	if node.Left != nil {
		bvh.hitNode(node.Left, ray, nearest, closestSoFar)
	}
	if node.Right != nil {
		bvh.hitNode(node.Right, ray, nearest, closestSoFar)
	}
}

// BoundingBox returns the overall bounding box of the indexed mesh
func (bvh *BVH) BoundingBox() core.AABB {
	if bvh == nil || bvh.Root == nil {
		return core.AABB{}
	}
	return bvh.Root.BoundingBox
}

// Mesh returns the mesh this BVH indexes
func (bvh *BVH) Mesh() *Mesh {
	return bvh.mesh
}

// Stats returns statistics about the BVH structure
func (bvh *BVH) Stats() BVHStats {
	if bvh == nil || bvh.Root == nil {
		return BVHStats{}
	}

	stats := BVHStats{}
	bvh.collectStats(bvh.Root, 0, &stats)

	if stats.LeafNodes > 0 {
		stats.AvgDepth = stats.AvgDepth / float64(stats.LeafNodes)
	}

	return stats
}

// BVHStats contains statistics about the BVH structure
type BVHStats struct {
	TotalNodes     int
	LeafNodes      int
	MaxDepth       int
	AvgDepth       float64
	TotalTriangles int
}

// collectStats recursively collects statistics about the BVH
func (bvh *BVH) collectStats(node *BVHNode, depth int, stats *BVHStats) {
	stats.TotalNodes++

	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	if node.Triangles != nil {
		stats.LeafNodes++
		stats.TotalTriangles += len(node.Triangles)
		stats.AvgDepth += float64(depth)
		return
	}

	if node.Left != nil {
		bvh.collectStats(node.Left, depth+1, stats)
	}
	if node.Right != nil {
		bvh.collectStats(node.Right, depth+1, stats)
	}
}
