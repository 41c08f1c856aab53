// Package config holds the runtime's checking switches and loads them from
// files and the environment.
package config

import (
	"sync/atomic"
)

// RuntimeVersion is the version configuration files are checked against.
const RuntimeVersion = "0.1.0"

// Switches are the independently togglable runtime checks.
type Switches struct {
	// AllocChecks validates provenance on deallocation.
	AllocChecks bool `json:"alloc_checks" yaml:"alloc_checks" toml:"alloc_checks"`
	// BoundsChecks validates indices on positional access.
	BoundsChecks bool `json:"bounds_checks" yaml:"bounds_checks" toml:"bounds_checks"`
	// MemoryChecks enforces MemoryLimit on allocation.
	MemoryChecks bool `json:"memory_checks" yaml:"memory_checks" toml:"memory_checks"`
	// MagicChecks validates the header integrity tag in TypeOf.
	MagicChecks bool `json:"magic_checks" yaml:"magic_checks" toml:"magic_checks"`
	// GC enables allocation tracking and collection.
	GC bool `json:"gc" yaml:"gc" toml:"gc"`

	// MemoryLimit caps live allocated bytes when MemoryChecks is on. Zero means unlimited.
	MemoryLimit int64 `json:"memory_limit" yaml:"memory_limit" toml:"memory_limit"`
	// Requires is a semver constraint the runtime version must satisfy.
	Requires string `json:"requires,omitempty" yaml:"requires,omitempty" toml:"requires,omitempty"`
}

// Default returns the switches with every check enabled.
func Default() Switches {
	return Switches{
		AllocChecks:  true,
		BoundsChecks: true,
		MemoryChecks: true,
		MagicChecks:  true,
		GC:           true,
	}
}

var current atomic.Pointer[Switches]

func init() {
	d := Default()
	current.Store(&d)
}

// Current returns the active switches. The returned value must not be modified.
func Current() *Switches {
	return current.Load()
}

// Apply publishes s as the active switches and returns the previous ones.
func Apply(s Switches) Switches {
	prev := current.Swap(&s)
	return *prev
}
