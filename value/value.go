// Package value implements the symbolic value model of §3: every location
// and every read/written datum in an abstract event structure is a Value,
// either a concrete constant or a named variable still awaiting resolution
// by the solver.
package value

import (
	"fmt"

	"github.com/segmentio/fasthash/fnv1a"
)

// Value is either a concrete int32 constant or a named symbolic variable.
// The zero Value is not valid; use Const or Var.
type Value struct {
	name  string // non-empty iff this is a variable
	n     int32
	isVar bool
}

// Const builds a determined value.
func Const(n int32) Value {
	return Value{n: n}
}

// Var builds an undetermined value identified by name. Two Vars with the
// same name are the same variable.
func Var(name string) Value {
	if name == "" {
		panic("value: variable name must not be empty")
	}
	return Value{name: name, isVar: true}
}

// IsDetermined reports whether v carries a concrete constant.
func (v Value) IsDetermined() bool {
	return !v.isVar
}

// IsVar reports whether v is still a symbolic variable.
func (v Value) IsVar() bool {
	return v.isVar
}

// Name returns the variable name. Panics if v is determined.
func (v Value) Name() string {
	if !v.isVar {
		panic("value: Name called on a determined value")
	}
	return v.name
}

// Const returns the constant. Panics if v is a variable.
func (v Value) Const() int32 {
	if v.isVar {
		panic("value: Const called on a variable")
	}
	return v.n
}

// Equal reports structural equality: two variables are equal iff same name,
// two constants are equal iff same number, a variable is never equal to a
// constant. This is NOT the semantic equality constraint the solver proves;
// it is the equality used to dedupe/hash Values as map keys.
func (v Value) Equal(other Value) bool {
	if v.isVar != other.isVar {
		return false
	}
	if v.isVar {
		return v.name == other.name
	}
	return v.n == other.n
}

// Hash is suitable for use as an immutable.Hasher key, mirroring
// tla.Value.Hash's use of fnv1a over the discriminated union.
func (v Value) Hash() uint32 {
	if v.isVar {
		return fnv1a.HashString32("var:" + v.name)
	}
	return fnv1a.HashUint32(uint32(v.n))
}

func (v Value) String() string {
	if v.isVar {
		return v.name
	}
	return fmt.Sprintf("%d", v.n)
}

// Hasher adapts Value for use as an immutable.Map/immutable.Set key.
type Hasher struct{}

func (Hasher) Hash(v Value) uint32   { return v.Hash() }
func (Hasher) Equal(a, b Value) bool { return a.Equal(b) }

// Substitution is a finite mapping from variable name to a determined
// (or at least more-resolved) Value, as produced by the solver. Substitutions
// are applied by value throughout event structures, RFMaps and constraint
// sets; the source structure is never mutated (§3 Lifecycles).
type Substitution struct {
	bindings map[string]Value
}

// NewSubstitution builds a Substitution from a set of bindings.
func NewSubstitution(bindings map[string]Value) Substitution {
	copied := make(map[string]Value, len(bindings))
	for k, v := range bindings {
		copied[k] = v
	}
	return Substitution{bindings: copied}
}

// Empty is the substitution that changes nothing; applying it is the
// identity (§8 round-trip property).
var Empty = Substitution{}

// Apply substitutes v by sigma, recursively following chained bindings
// (var -> var -> const) up to a fixed point, so callers never observe a
// partially-substituted variable.
func (sigma Substitution) Apply(v Value) Value {
	seen := map[string]bool{}
	for v.isVar {
		next, ok := sigma.bindings[v.name]
		if !ok {
			return v
		}
		if seen[v.name] {
			// cyclic substitution; the solver must never produce this.
			panic(fmt.Errorf("value: cyclic substitution through %q", v.name))
		}
		seen[v.name] = true
		v = next
	}
	return v
}

// Lookup returns the direct binding for name, if any, without following
// chains.
func (sigma Substitution) Lookup(name string) (Value, bool) {
	v, ok := sigma.bindings[name]
	return v, ok
}

// IsEmpty reports whether sigma has no bindings.
func (sigma Substitution) IsEmpty() bool {
	return len(sigma.bindings) == 0
}
