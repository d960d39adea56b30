package geometry

import "github.com/df07/go-mesh-scene/pkg/core"

// NewBoxMesh creates a box centered at the origin. halfExtents are half the size along
// each axis, so (1,1,1) creates a 2x2x2 box. Each face gets its own material slot
// (0=+Z, 1=-Z, 2=+X, 3=-X, 4=+Y, 5=-Y) when perFaceSlots is true.
func NewBoxMesh(halfExtents core.Vec3, perFaceSlots bool) *Mesh {
	corners := []core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}
	for i := range corners {
		corners[i] = corners[i].MultiplyVec(halfExtents)
	}

	// Faces as quads wound counter-clockwise when seen from outside
	faces := [6][4]int{
		{4, 5, 6, 7}, // front (Z+)
		{1, 0, 3, 2}, // back (Z-)
		{5, 1, 2, 6}, // right (X+)
		{0, 4, 7, 3}, // left (X-)
		{7, 6, 2, 3}, // top (Y+)
		{0, 1, 5, 4}, // bottom (Y-)
	}

	indices := make([]int, 0, 36)
	var materialIDs []int
	if perFaceSlots {
		materialIDs = make([]int, 0, 12)
	}
	for slot, f := range faces {
		indices = append(indices, f[0], f[1], f[2], f[0], f[2], f[3])
		if perFaceSlots {
			materialIDs = append(materialIDs, slot, slot)
		}
	}

	return MustMesh(corners, indices, materialIDs)
}

// NewQuadMesh creates a two-triangle quad from a corner and two edge vectors
func NewQuadMesh(corner, u, v core.Vec3) *Mesh {
	vertices := []core.Vec3{
		corner,
		corner.Add(u),
		corner.Add(u).Add(v),
		corner.Add(v),
	}
	return MustMesh(vertices, []int{0, 1, 2, 0, 2, 3}, nil)
}

// NewGridMesh creates an XZ grid of (cells x cells) quads spanning size, centered at the origin.
// Useful for building large meshes with predictable triangle counts.
func NewGridMesh(cells int, size float64) *Mesh {
	if cells < 1 {
		cells = 1
	}
	step := size / float64(cells)
	half := size / 2

	vertices := make([]core.Vec3, 0, (cells+1)*(cells+1))
	for z := 0; z <= cells; z++ {
		for x := 0; x <= cells; x++ {
			vertices = append(vertices, core.NewVec3(-half+float64(x)*step, 0, -half+float64(z)*step))
		}
	}

	row := cells + 1
	indices := make([]int, 0, cells*cells*6)
	for z := 0; z < cells; z++ {
		for x := 0; x < cells; x++ {
			i0 := z*row + x
			i1 := i0 + 1
			i2 := i0 + row + 1
			i3 := i0 + row
			indices = append(indices, i0, i1, i2, i0, i2, i3)
		}
	}

	return MustMesh(vertices, indices, nil)
}
