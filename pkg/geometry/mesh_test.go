package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-mesh-scene/pkg/core"
)

func TestMesh_Creation(t *testing.T) {
	// Simple quad mesh (2 triangles)
	vertices := []core.Vec3{
		core.NewVec3(0, 0, 0), // 0
		core.NewVec3(1, 0, 0), // 1
		core.NewVec3(1, 1, 0), // 2
		core.NewVec3(0, 1, 0), // 3
	}

	faces := []int{
		0, 1, 2, // first triangle
		0, 2, 3, // second triangle
	}

	mesh, err := NewMesh(vertices, faces, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, mesh.TriangleCount())
	assert.Equal(t, 1, mesh.MaterialSlotCount())

	bbox := mesh.BoundingBox()
	assert.Equal(t, core.NewVec3(0, 0, 0), bbox.Min)
	assert.Equal(t, core.NewVec3(1, 1, 0), bbox.Max)

	// Input slices are copied
	vertices[0] = core.NewVec3(100, 100, 100)
	v0, _, _ := mesh.Triangle(0)
	assert.Equal(t, core.NewVec3(0, 0, 0), v0, "mesh aliased caller vertices")
}

func TestMesh_Validation(t *testing.T) {
	vertices := []core.Vec3{core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)}

	tests := []struct {
		name        string
		indices     []int
		materialIDs []int
	}{
		{name: "Indices not multiple of 3", indices: []int{0, 1}},
		{name: "Index out of range", indices: []int{0, 1, 3}},
		{name: "Negative index", indices: []int{0, -1, 2}},
		{name: "Material id count mismatch", indices: []int{0, 1, 2}, materialIDs: []int{0, 0}},
		{name: "Negative material id", indices: []int{0, 1, 2}, materialIDs: []int{-1}},
		{name: "Material id beyond slot limit", indices: []int{0, 1, 2}, materialIDs: []int{MaxMaterialSlots}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMesh(vertices, tt.indices, tt.materialIDs)
			assert.ErrorIs(t, err, ErrInvalidMesh)
		})
	}
}

func TestMesh_MaterialSlots(t *testing.T) {
	box := NewBoxMesh(core.NewVec3(1, 1, 1), true)
	assert.Equal(t, 12, box.TriangleCount())
	assert.Equal(t, 6, box.MaterialSlotCount())
	assert.Equal(t, 5, box.MaterialID(11), "last triangle is in the last slot")

	plain := NewBoxMesh(core.NewVec3(1, 2, 3), false)
	assert.Equal(t, 1, plain.MaterialSlotCount())
	assert.Equal(t, core.NewVec3(1, 2, 3), plain.BoundingBox().Max)

	var empty *Mesh
	assert.Equal(t, 0, empty.MaterialSlotCount())
	assert.Equal(t, 0, empty.TriangleCount())
}

func TestMesh_Clone(t *testing.T) {
	original := NewBoxMesh(core.NewVec3(1, 1, 1), true)
	clone := original.Clone()

	require.NotSame(t, original, clone)
	assert.Equal(t, original.TriangleCount(), clone.TriangleCount())
	assert.Equal(t, original.MaterialSlotCount(), clone.MaterialSlotCount())
}

func TestGridMesh_TriangleCount(t *testing.T) {
	grid := NewGridMesh(4, 2)
	assert.Equal(t, 32, grid.TriangleCount())
	assert.Equal(t, 25, grid.VertexCount())
}
