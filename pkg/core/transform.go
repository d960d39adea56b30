package core

// Transform is a world placement: scale, then Euler XYZ rotation (radians), then translation
type Transform struct {
	Translation Vec3
	Rotation    Vec3
	Scale       Vec3
}

// IdentityTransform returns the transform that leaves points unchanged
func IdentityTransform() Transform {
	return Transform{Scale: NewVec3(1, 1, 1)}
}

// NewTransform creates a transform from its components
func NewTransform(translation, rotation, scale Vec3) Transform {
	return Transform{Translation: translation, Rotation: rotation, Scale: scale}
}

// TransformPoint maps a local-space point into world space
func (t Transform) TransformPoint(p Vec3) Vec3 {
	return p.MultiplyVec(t.Scale).Rotate(t.Rotation).Add(t.Translation)
}

// TransformVector maps a local-space direction into world space (no translation)
func (t Transform) TransformVector(v Vec3) Vec3 {
	return v.MultiplyVec(t.Scale).Rotate(t.Rotation)
}

// InverseTransformPoint maps a world-space point into local space
func (t Transform) InverseTransformPoint(p Vec3) Vec3 {
	return p.Subtract(t.Translation).RotateInverse(t.Rotation).DivideVec(t.Scale)
}

// InverseTransformVector maps a world-space direction into local space.
// The result is not renormalized, so ray parameters are preserved across spaces.
func (t Transform) InverseTransformVector(v Vec3) Vec3 {
	return v.RotateInverse(t.Rotation).DivideVec(t.Scale)
}

// InverseTransformRay maps a world-space ray into local space
func (t Transform) InverseTransformRay(r Ray) Ray {
	return NewRay(t.InverseTransformPoint(r.Origin), t.InverseTransformVector(r.Direction))
}

// Invertible reports whether no scale component is zero
func (t Transform) Invertible() bool {
	return t.Scale.X != 0 && t.Scale.Y != 0 && t.Scale.Z != 0
}

// TransformAABB returns the world-space box enclosing the transformed corners of box
func (t Transform) TransformAABB(box AABB) AABB {
	corners := make([]Vec3, 0, 8)
	for i := 0; i < 8; i++ {
		corner := box.Min
		if i&1 != 0 {
			corner.X = box.Max.X
		}
		if i&2 != 0 {
			corner.Y = box.Max.Y
		}
		if i&4 != 0 {
			corner.Z = box.Max.Z
		}
		corners = append(corners, t.TransformPoint(corner))
	}
	return NewAABBFromPoints(corners...)
}
