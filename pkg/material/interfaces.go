package material

// Material is an opaque surface handle assigned to mesh material slots.
// The scene never constructs materials itself; they come from a Resolver.
type Material interface {
	Name() string
}

// Resolver supplies the process-wide materials the scene falls back to
type Resolver interface {
	// Default is used for new objects and for any slot without an explicit material
	Default() Material
	// Selected is the highlight override applied to selected objects
	Selected() Material
}
