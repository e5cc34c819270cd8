// Package loc implements the Location model of §3: a memory access target
// is a global cell, a dereferenced global, or a thread-local register, and
// any of these may carry a still-symbolic address.
package loc

import (
	"fmt"

	"github.com/segmentio/fasthash/fnv1a"

	"github.com/rst0git/herdtools7/value"
)

// Kind discriminates the three location shapes of §3.
type Kind int

const (
	// Global is a memory cell addressed by a (possibly symbolic) value.
	Global Kind = iota
	// Deref is a dereferenced global: the address itself is read from
	// another global before being used as a location.
	Deref
	// Register is a thread-local register, not shared memory.
	Register
)

// Location is the tri-variant of §3; it implements value.Hasher-compatible
// hashing/equality so it can key an immutable.Map.
type Location struct {
	kind   Kind
	addr   value.Value // valid for Global and Deref
	thread int         // valid for Register
	reg    string      // valid for Register
}

// MakeGlobal builds a memory-cell location at addr.
func MakeGlobal(addr value.Value) Location {
	return Location{kind: Global, addr: addr}
}

// MakeDeref builds a dereferenced-global location: addr names the pointer
// cell, not the pointee.
func MakeDeref(addr value.Value) Location {
	return Location{kind: Deref, addr: addr}
}

// MakeRegister builds a register location private to thread.
func MakeRegister(thread int, reg string) Location {
	return Location{kind: Register, thread: thread, reg: reg}
}

// Kind reports which variant this is.
func (l Location) Kind() Kind { return l.kind }

// IsMemory reports whether l denotes shared memory (Global or Deref), as
// opposed to a thread-private Register.
func (l Location) IsMemory() bool {
	return l.kind == Global || l.kind == Deref
}

// Addr returns the address value. Panics on Register locations.
func (l Location) Addr() value.Value {
	if l.kind == Register {
		panic("loc: Addr called on a register location")
	}
	return l.addr
}

// Thread and Reg identify a Register location. Panic on non-Register.
func (l Location) Thread() int {
	if l.kind != Register {
		panic("loc: Thread called on a non-register location")
	}
	return l.thread
}

func (l Location) Reg() string {
	if l.kind != Register {
		panic("loc: Reg called on a non-register location")
	}
	return l.reg
}

// IsDetermined reports whether this location's address (or register name,
// which is always determined) is fully resolved.
func (l Location) IsDetermined() bool {
	if l.kind == Register {
		return true
	}
	return l.addr.IsDetermined()
}

// Equal is used both for map-key equality and for the "both locations
// determined implies they are equal" compatibility test of §4.4.
func (l Location) Equal(other Location) bool {
	if l.kind != other.kind {
		return false
	}
	switch l.kind {
	case Register:
		return l.thread == other.thread && l.reg == other.reg
	default:
		return l.addr.Equal(other.addr)
	}
}

func (l Location) Hash() uint32 {
	switch l.kind {
	case Register:
		h := fnv1a.Init32
		h = fnv1a.AddUint32(h, fnv1a.HashUint32(uint32(l.thread)))
		h = fnv1a.AddString32(h, l.reg)
		return h
	default:
		h := fnv1a.HashUint32(uint32(l.kind))
		return fnv1a.AddUint32(h, l.addr.Hash())
	}
}

func (l Location) String() string {
	switch l.kind {
	case Global:
		return l.addr.String()
	case Deref:
		return "*" + l.addr.String()
	case Register:
		return fmt.Sprintf("T%d.%s", l.thread, l.reg)
	default:
		panic("loc: unreachable")
	}
}

// Substitute replaces symbolic address atoms throughout l, leaving
// Register locations untouched (their identity never contains a Value).
func (l Location) Substitute(sigma value.Substitution) Location {
	if l.kind == Register {
		return l
	}
	l.addr = sigma.Apply(l.addr)
	return l
}

// Hasher adapts Location for use as an immutable.Map/Set key.
type Hasher struct{}

func (Hasher) Hash(l Location) uint32   { return l.Hash() }
func (Hasher) Equal(a, b Location) bool { return a.Equal(b) }
