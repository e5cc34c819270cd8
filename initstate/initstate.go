// Package initstate models the initial store state §4 repeatedly refers to:
// the test's starting values for registers and memory locations, consulted
// by §4.3 (register Init reads), §4.4 (ReadInit deferral, memory Init
// source), and §4.5 (the final-state baseline).
package initstate

import (
	"github.com/rst0git/herdtools7/loc"
	"github.com/rst0git/herdtools7/value"
)

// State is an immutable snapshot of initial values, keyed by location
// string (locations are comparable by value but not usable directly as a
// Go map key once they may carry symbolic addresses; test-level initial
// state is always over fully-determined locations, so the string form is
// stable and collision-free in practice).
type State struct {
	values map[string]value.Value
}

// New builds a State from an explicit location -> value mapping.
func New(values map[loc.Location]value.Value) State {
	out := make(map[string]value.Value, len(values))
	for l, v := range values {
		out[l.String()] = v
	}
	return State{values: out}
}

// Lookup returns l's initial value, if the test declared one.
func (s State) Lookup(l loc.Location) (value.Value, bool) {
	v, ok := s.values[l.String()]
	return v, ok
}

// Snapshot returns the location-string -> value map backing s, for
// constraint.ReadInit's "state snapshot taken by value at constraint
// creation time" (§9).
func (s State) Snapshot() map[string]value.Value {
	out := make(map[string]value.Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
