// Package event implements the Event and EventStructure data model of §3.
package event

import (
	"fmt"

	"github.com/rst0git/herdtools7/loc"
	"github.com/rst0git/herdtools7/value"
)

// ID uniquely identifies an Event within an EventStructure. IDs are dense
// small integers assigned by the driver and later reassigned by the
// relabeller (§4.2).
type ID int

// Kind enumerates the event kinds named in §3.
type Kind int

const (
	MemoryRead Kind = iota
	MemoryWrite
	RegisterRead
	RegisterWrite
	Barrier
	AtomicMarker
	InitWrite
)

func (k Kind) IsMemory() bool {
	return k == MemoryRead || k == MemoryWrite || k == InitWrite
}

func (k Kind) IsLoad() bool {
	return k == MemoryRead || k == RegisterRead
}

func (k Kind) IsStore() bool {
	return k == MemoryWrite || k == RegisterWrite || k == InitWrite
}

// Annotation is an instruction-set-specific marker attached to an event,
// e.g. acquire/release/exclusive. The core treats these opaquely; only the
// semantics module and §4.5's atomic_load_store derivation interpret them.
type Annotation string

const (
	Acquire   Annotation = "acquire"
	Release   Annotation = "release"
	Exclusive Annotation = "exclusive"
	Atomic    Annotation = "atomic"
)

// Event is an immutable record; once created it is never mutated except by
// whole-structure substitution (§3 Lifecycles), which produces a fresh
// Event rather than editing this one in place.
type Event struct {
	ID          ID
	Thread      int
	ProgOrder   int // index of this event within its thread's program order
	Kind        Kind
	Loc         loc.Location // zero value only valid when Kind has no location
	HasLoc      bool
	ReadValue   value.Value
	HasRead     bool
	WriteValue  value.Value
	HasWrite    bool
	Annotations map[Annotation]bool
}

// HasAnnotation reports whether ann is set on e.
func (e Event) HasAnnotation(ann Annotation) bool {
	return e.Annotations[ann]
}

// Substitute returns a copy of e with sigma applied to its location and
// values; e itself is untouched.
func (e Event) Substitute(sigma value.Substitution) Event {
	out := e
	if e.HasLoc {
		out.Loc = e.Loc.Substitute(sigma)
	}
	if e.HasRead {
		out.ReadValue = sigma.Apply(e.ReadValue)
	}
	if e.HasWrite {
		out.WriteValue = sigma.Apply(e.WriteValue)
	}
	return out
}

func (e Event) String() string {
	switch e.Kind {
	case MemoryRead, RegisterRead:
		return fmt.Sprintf("e%d: T%d R %v -> %v", e.ID, e.Thread, e.Loc, e.ReadValue)
	case MemoryWrite, RegisterWrite, InitWrite:
		return fmt.Sprintf("e%d: T%d W %v <- %v", e.ID, e.Thread, e.Loc, e.WriteValue)
	case Barrier:
		return fmt.Sprintf("e%d: T%d barrier", e.ID, e.Thread)
	case AtomicMarker:
		return fmt.Sprintf("e%d: T%d atomic-marker", e.ID, e.Thread)
	default:
		return fmt.Sprintf("e%d: T%d ?", e.ID, e.Thread)
	}
}
