package material

import (
	"fmt"
	"sort"

	"github.com/df07/go-mesh-scene/pkg/core"
)

// Surface is a named solid-color material
type Surface struct {
	name   string
	Albedo core.Vec3 // Base color in [0,1]
}

// NewSurface creates a named solid-color material
func NewSurface(name string, albedo core.Vec3) *Surface {
	return &Surface{name: name, Albedo: albedo}
}

// Name implements Material
func (s *Surface) Name() string {
	return s.name
}

func (s *Surface) String() string {
	return fmt.Sprintf("%s(%.2f, %.2f, %.2f)", s.name, s.Albedo.X, s.Albedo.Y, s.Albedo.Z)
}

// Library holds the default, selected and wireframe materials plus any named extras.
// It implements Resolver.
type Library struct {
	standard  Material
	selected  Material
	wireframe Material
	named     map[string]Material
}

// Built-in fallbacks used when a Library is created without explicit materials
var (
	FallbackDefault   = NewSurface("default", core.NewVec3(0.7, 0.7, 0.7))
	FallbackSelected  = NewSurface("selected", core.NewVec3(1.0, 0.6, 0.1))
	FallbackWireframe = NewSurface("wireframe", core.NewVec3(0.1, 0.1, 0.1))
)

// NewLibrary creates a library. Nil arguments fall back to the built-in materials.
func NewLibrary(standard, selected, wireframe Material) *Library {
	if standard == nil {
		standard = FallbackDefault
	}
	if selected == nil {
		selected = FallbackSelected
	}
	if wireframe == nil {
		wireframe = FallbackWireframe
	}
	lib := &Library{
		standard:  standard,
		selected:  selected,
		wireframe: wireframe,
		named:     make(map[string]Material),
	}
	for _, m := range []Material{standard, selected, wireframe} {
		lib.named[m.Name()] = m
	}
	return lib
}

// Default implements Resolver
func (l *Library) Default() Material { return l.standard }

// Selected implements Resolver
func (l *Library) Selected() Material { return l.selected }

// Wireframe returns the wireframe overlay material
func (l *Library) Wireframe() Material { return l.wireframe }

// Register adds a named material, replacing any previous one with the same name
func (l *Library) Register(m Material) {
	l.named[m.Name()] = m
}

// Lookup returns the material registered under name
func (l *Library) Lookup(name string) (Material, bool) {
	m, ok := l.named[name]
	return m, ok
}

// Names returns the registered material names in sorted order
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.named))
	for name := range l.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
