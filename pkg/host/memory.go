package host

import (
	"sync"

	"github.com/df07/go-mesh-scene/pkg/core"
	"github.com/df07/go-mesh-scene/pkg/geometry"
	"github.com/df07/go-mesh-scene/pkg/material"
)

// Memory is a Host that keeps actors in memory. It is used by the CLI and tests.
type Memory struct {
	mu     sync.Mutex
	actors []*MemoryActor
}

// NewMemory creates an empty in-memory host
func NewMemory() *Memory {
	return &Memory{}
}

// Spawn implements Host
func (h *Memory) Spawn(placement core.Transform) Actor {
	a := &MemoryActor{transform: placement, alive: true, registered: true}
	h.mu.Lock()
	h.actors = append(h.actors, a)
	h.mu.Unlock()
	return a
}

// Destroy implements Host. Destroying an actor twice is a no-op.
func (h *Memory) Destroy(actor Actor) {
	a, ok := actor.(*MemoryActor)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.actors {
		if existing == a {
			h.actors = append(h.actors[:i], h.actors[i+1:]...)
			break
		}
	}
	a.alive = false
	a.registered = false
}

// Len returns the number of live actors
func (h *Memory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.actors)
}

// MemoryActor is the Actor created by Memory
type MemoryActor struct {
	transform  core.Transform
	alive      bool
	registered bool
	mesh       *geometry.Mesh
	slots      []material.Material
}

func (a *MemoryActor) Transform() core.Transform     { return a.transform }
func (a *MemoryActor) SetTransform(t core.Transform) { a.transform = t }
func (a *MemoryActor) Alive() bool                   { return a.alive }
func (a *MemoryActor) Registered() bool              { return a.registered }
func (a *MemoryActor) SetRegistered(r bool)          { a.registered = r && a.alive }
func (a *MemoryActor) Mesh() *geometry.Mesh          { return a.mesh }

// SetMesh replaces the rendered mesh and resizes the material slots to match,
// keeping existing assignments where slots survive.
func (a *MemoryActor) SetMesh(mesh *geometry.Mesh) {
	a.mesh = mesh
	count := mesh.MaterialSlotCount()
	slots := make([]material.Material, count)
	copy(slots, a.slots)
	a.slots = slots
}

// NumMaterials implements Actor
func (a *MemoryActor) NumMaterials() int {
	return len(a.slots)
}

// Material implements Actor. Out of range slots return nil.
func (a *MemoryActor) Material(slot int) material.Material {
	if slot < 0 || slot >= len(a.slots) {
		return nil
	}
	return a.slots[slot]
}

// SetMaterial implements Actor. Like a mesh component with no geometry, an actor
// without slots still accepts slot 0.
func (a *MemoryActor) SetMaterial(slot int, m material.Material) {
	if slot < 0 {
		return
	}
	if slot >= len(a.slots) {
		if slot != 0 {
			return
		}
		a.slots = append(a.slots, nil)
	}
	a.slots[slot] = m
}

// Kill marks the actor destroyed without going through the host, simulating
// out-of-band teardown.
func (a *MemoryActor) Kill() {
	a.alive = false
	a.registered = false
}
