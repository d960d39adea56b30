package scene

import "sync/atomic"

var current atomic.Pointer[Registry]

// SetDefault installs r as the process-wide scene and returns the previous one.
// Passing nil clears it.
func SetDefault(r *Registry) (previous *Registry) {
	return current.Swap(r)
}

// Default returns the process-wide scene, or nil if none is installed
func Default() *Registry {
	return current.Load()
}
