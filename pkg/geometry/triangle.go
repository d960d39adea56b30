package geometry

import (
	"math"

	"github.com/df07/go-mesh-scene/pkg/core"
)

// TriangleHit is the result of an exact ray/triangle intersection
type TriangleHit struct {
	T    float64   // Parameter t along the ray
	Bary core.Vec3 // Barycentric coordinates (w0, w1, w2) for V0, V1, V2
}

// IntersectTriangle tests a ray against triangle (v0, v1, v2) using the Möller-Trumbore algorithm.
// Both faces are hit; there is no back-face culling. The parallel test is relative
// to the edge and direction lengths, so it holds at any scale.
func IntersectTriangle(ray core.Ray, v0, v1, v2 core.Vec3, tMin, tMax float64) (TriangleHit, bool) {
	const epsilon = 1e-12

	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// Ray lies in the plane of the triangle, or the triangle is degenerate
	if math.Abs(a) <= epsilon*edge1.Length()*edge2.Length()*ray.Direction.Length() {
		return TriangleHit{}, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(v0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return TriangleHit{}, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return TriangleHit{}, false
	}

	t := f * edge2.Dot(q)
	if t < tMin || t > tMax {
		return TriangleHit{}, false
	}

	return TriangleHit{T: t, Bary: core.NewVec3(1-u-v, u, v)}, true
}

// IntersectMeshTriangle intersects a ray with triangle id of mesh, unbounded in t >= 0
func IntersectMeshTriangle(mesh *Mesh, id int, ray core.Ray) (TriangleHit, bool) {
	if !mesh.IsTriangle(id) {
		return TriangleHit{}, false
	}
	v0, v1, v2 := mesh.Triangle(id)
	return IntersectTriangle(ray, v0, v1, v2, 0, maxDistance)
}

// TriangleNormal returns the unit normal of triangle (v0, v1, v2)
func TriangleNormal(v0, v1, v2 core.Vec3) core.Vec3 {
	return v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize()
}
