package geometry

import (
	"errors"
	"fmt"

	"github.com/df07/go-mesh-scene/pkg/core"
)

// ErrInvalidMesh is returned when vertex or index data does not describe a triangle mesh
var ErrInvalidMesh = errors.New("invalid mesh")

// MaxMaterialSlots bounds per-triangle material ids
const MaxMaterialSlots = 1 << 12

// Mesh is an indexed triangle mesh with an optional material slot per triangle
type Mesh struct {
	vertices    []core.Vec3
	indices     []int // 3 per triangle
	materialIDs []int // one per triangle, or nil for a single slot
}

// NewMesh creates a mesh from vertex positions and triangle index triples.
// materialIDs may be nil; otherwise it must hold one slot in [0, MaxMaterialSlots) per triangle.
// The input slices are copied.
func NewMesh(vertices []core.Vec3, indices []int, materialIDs []int) (*Mesh, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices is not a multiple of 3", ErrInvalidMesh, len(indices))
	}
	numTriangles := len(indices) / 3
	if materialIDs != nil && len(materialIDs) != numTriangles {
		return nil, fmt.Errorf("%w: %d material ids for %d triangles", ErrInvalidMesh, len(materialIDs), numTriangles)
	}
	for i, index := range indices {
		if index < 0 || index >= len(vertices) {
			return nil, fmt.Errorf("%w: index %d at position %d out of range", ErrInvalidMesh, index, i)
		}
	}
	for i, id := range materialIDs {
		if id < 0 || id >= MaxMaterialSlots {
			return nil, fmt.Errorf("%w: material id %d on triangle %d out of range", ErrInvalidMesh, id, i)
		}
	}

	m := &Mesh{
		vertices: append([]core.Vec3(nil), vertices...),
		indices:  append([]int(nil), indices...),
	}
	if materialIDs != nil {
		m.materialIDs = append([]int(nil), materialIDs...)
	}
	return m, nil
}

// MustMesh is NewMesh for static data known to be valid
func MustMesh(vertices []core.Vec3, indices []int, materialIDs []int) *Mesh {
	m, err := NewMesh(vertices, indices, materialIDs)
	if err != nil {
		panic(err)
	}
	return m
}

// TriangleCount returns the number of triangles
func (m *Mesh) TriangleCount() int {
	if m == nil {
		return 0
	}
	return len(m.indices) / 3
}

// VertexCount returns the number of vertices
func (m *Mesh) VertexCount() int {
	if m == nil {
		return 0
	}
	return len(m.vertices)
}

// IsTriangle reports whether id names a triangle of this mesh
func (m *Mesh) IsTriangle(id int) bool {
	return id >= 0 && id < m.TriangleCount()
}

// Triangle returns the three vertex positions of triangle id
func (m *Mesh) Triangle(id int) (v0, v1, v2 core.Vec3) {
	base := id * 3
	return m.vertices[m.indices[base]], m.vertices[m.indices[base+1]], m.vertices[m.indices[base+2]]
}

// TriangleBounds returns the bounding box of triangle id
func (m *Mesh) TriangleBounds(id int) core.AABB {
	v0, v1, v2 := m.Triangle(id)
	return core.NewAABBFromPoints(v0, v1, v2)
}

// MaterialID returns the material slot of triangle id
func (m *Mesh) MaterialID(id int) int {
	if m.materialIDs == nil {
		return 0
	}
	return m.materialIDs[id]
}

// MaterialSlotCount returns the number of material slots the mesh references.
// An empty mesh has no slots; a mesh without material ids has one.
func (m *Mesh) MaterialSlotCount() int {
	if m.TriangleCount() == 0 {
		return 0
	}
	slots := 1
	for _, id := range m.materialIDs {
		if id+1 > slots {
			slots = id + 1
		}
	}
	return slots
}

// BoundingBox returns the bounding box of all referenced vertices
func (m *Mesh) BoundingBox() core.AABB {
	if m.TriangleCount() == 0 {
		return core.AABB{}
	}
	bbox := m.TriangleBounds(0)
	for i := 1; i < m.TriangleCount(); i++ {
		bbox = bbox.Union(m.TriangleBounds(i))
	}
	return bbox
}

// Vertices returns a copy of the vertex positions
func (m *Mesh) Vertices() []core.Vec3 {
	return append([]core.Vec3(nil), m.vertices...)
}

// Indices returns a copy of the triangle index triples
func (m *Mesh) Indices() []int {
	return append([]int(nil), m.indices...)
}

// Clone returns a deep copy of the mesh
func (m *Mesh) Clone() *Mesh {
	if m == nil {
		return nil
	}
	c := &Mesh{
		vertices: m.Vertices(),
		indices:  m.Indices(),
	}
	if m.materialIDs != nil {
		c.materialIDs = append([]int(nil), m.materialIDs...)
	}
	return c
}
