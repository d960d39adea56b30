package scene

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/df07/go-mesh-scene/pkg/core"
	"github.com/df07/go-mesh-scene/pkg/geometry"
	"github.com/df07/go-mesh-scene/pkg/host"
	"github.com/df07/go-mesh-scene/pkg/material"
)

type fixture struct {
	host *host.Memory
	lib  *material.Library
	reg  *Registry
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	h := host.NewMemory()
	lib := material.NewLibrary(nil, nil, nil)
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	reg := NewRegistry(h, lib, opts...)
	t.Cleanup(reg.Close)
	return &fixture{host: h, lib: lib, reg: reg}
}

// box creates a 2x2x2 box centered at center
func (f *fixture) box(center core.Vec3) *Object {
	obj := f.reg.Create()
	obj.SetGeometry(geometry.NewBoxMesh(core.NewVec3(1, 1, 1), false))
	obj.SetPlacement(core.NewTransform(center, core.Vec3{}, core.NewVec3(1, 1, 1)))
	return obj
}

// state is a comparable snapshot of the registry's sets
type state struct {
	objects   map[*Object]bool
	selection map[*Object]bool
}

func snapshot(r *Registry) state {
	s := state{objects: map[*Object]bool{}, selection: map[*Object]bool{}}
	for _, obj := range r.Objects() {
		s.objects[obj] = true
	}
	for _, obj := range r.Selection() {
		s.selection[obj] = true
	}
	return s
}

func requireSelectionSubset(t *testing.T, r *Registry) {
	t.Helper()
	for _, obj := range r.Selection() {
		require.True(t, r.Contains(obj), "selected object %v is not in the scene", obj)
	}
}

func slotMaterials(obj *Object) []material.Material {
	actor := obj.Actor()
	out := make([]material.Material, actor.NumMaterials())
	for k := range out {
		out[k] = actor.Material(k)
	}
	return out
}
