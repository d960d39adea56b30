// Package host defines the renderable/placement counterpart of a scene object
// ("actor") and an in-memory implementation.
package host

import (
	"github.com/df07/go-mesh-scene/pkg/core"
	"github.com/df07/go-mesh-scene/pkg/geometry"
	"github.com/df07/go-mesh-scene/pkg/material"
)

// Actor is the host-side representation of one scene object. The scene only
// places it, hands it geometry and materials, and asks whether it still exists.
type Actor interface {
	Transform() core.Transform
	SetTransform(core.Transform)

	// Alive is false once the host has destroyed the actor
	Alive() bool

	// Registered actors are shown and participate in the host world.
	// Removed scene objects are unregistered, not destroyed, so undo can restore them.
	Registered() bool
	SetRegistered(bool)

	SetMesh(*geometry.Mesh)

	// NumMaterials is the number of render material slots currently exposed
	NumMaterials() int
	Material(slot int) material.Material
	SetMaterial(slot int, m material.Material)
}

// Host creates and destroys actors
type Host interface {
	Spawn(placement core.Transform) Actor
	Destroy(Actor)
}
