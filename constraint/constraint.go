// Package constraint implements the Constraint and constraint-set model of
// §3: the vocabulary the core emits and hands to the external solver.
package constraint

import (
	"fmt"

	"github.com/rst0git/herdtools7/loc"
	"github.com/rst0git/herdtools7/value"
)

// Expr is the right-hand side of an Assign constraint: an atom, an
// init-state lookup deferred to the solver, or a binary arithmetic node
// over symbolic values. The core never evaluates an Expr itself — only the
// solver does (§9 open question on ReadInit's operational semantics).
type Expr interface {
	exprNode()
}

// Atom wraps a plain value.Value (constant or variable) as an Expr.
type Atom struct {
	Value value.Value
}

func (Atom) exprNode() {}

// ReadInit defers an initial-state lookup for a location that was still
// symbolic at the point this constraint was created (§9): Loc may carry a
// symbolic address, to be resolved against the solver's own bindings
// before it can be looked up in State, a snapshot of the initial state
// taken by value at constraint-creation time.
type ReadInit struct {
	Loc   loc.Location
	State map[string]value.Value
}

func (ReadInit) exprNode() {}

// Arith is x OP y over symbolic values, OP in {+, -}. The instruction set
// only needs enough arithmetic to express address/data dependencies; the
// core does not interpret Op itself.
type Arith struct {
	Op   string
	X, Y value.Value
}

func (Arith) exprNode() {}

// Constraint is either Assign(var, expr) or the Unroll(label) sentinel
// (§3). A Constraint is immutable once built.
type Constraint interface {
	constraintNode()
	String() string
}

// Assign binds Var to the result of evaluating Expr.
type Assign struct {
	Var  value.Value // must be a variable
	Expr Expr
}

func (Assign) constraintNode() {}

func (a Assign) String() string {
	switch e := a.Expr.(type) {
	case Atom:
		return fmt.Sprintf("%v = %v", a.Var, e.Value)
	case ReadInit:
		return fmt.Sprintf("%v = ReadInit(%v)", a.Var, e.Loc)
	case Arith:
		return fmt.Sprintf("%v = %v %s %v", a.Var, e.X, e.Op, e.Y)
	default:
		return fmt.Sprintf("%v = ?", a.Var)
	}
}

// Unroll is the sentinel inserted when the loop-unroll bound is reached
// (§4.1); a constraint set containing only Unroll constraints can never be
// solved, and when_unsolved (§4.4, §4.7) treats that specifically as a
// loop-limit reject rather than an internal error.
type Unroll struct {
	Label string
}

func (Unroll) constraintNode() {}

func (u Unroll) String() string {
	return fmt.Sprintf("Unroll(%s)", u.Label)
}

// EqualityOf returns the constraint "a equals b", the shape most
// constraints produced by this core take: Assign(a, Atom{b}) when a is a
// variable, otherwise Assign(b, Atom{a}) when b is. When both sides are
// determined it returns a trivially true Assign if they are equal and the
// self-contradiction sentinel if they differ.
func EqualityOf(a, b value.Value) Constraint {
	switch {
	case a.IsVar():
		return Assign{Var: a, Expr: Atom{Value: b}}
	case b.IsVar():
		return Assign{Var: b, Expr: Atom{Value: a}}
	default:
		// both determined: mark a self-contradiction if they differ so a
		// caller can discard the candidate directly (§4.4 step 3) without
		// ever handing it to the solver.
		if a.Equal(b) {
			return Assign{Var: value.Var("$true"), Expr: Atom{Value: value.Const(1)}}
		}
		return contradiction()
	}
}

func contradiction() Constraint {
	return Assign{Var: value.Var("$false"), Expr: Atom{Value: value.Const(0)}}
}

// IsSelfContradiction reports whether c is the synthetic always-false
// constraint produced by EqualityOf on two unequal determined values. Callers
// must check this themselves and discard the candidate without invoking the
// solver (§4.4 step 3) — the reference solver does not special-case it.
func IsSelfContradiction(c Constraint) bool {
	a, ok := c.(Assign)
	if !ok {
		return false
	}
	return a.Var.IsVar() && a.Var.Name() == "$false"
}

// Set is an ordered, immutable collection of constraints. Order is
// preserved for determinism (§5); duplicates are kept as added.
type Set struct {
	items []Constraint
}

// Empty is the empty constraint set.
var Empty = Set{}

// Add returns a new Set with c appended.
func (s Set) Add(c Constraint) Set {
	out := make([]Constraint, len(s.items), len(s.items)+1)
	copy(out, s.items)
	out = append(out, c)
	return Set{items: out}
}

// Union returns a new Set containing every constraint of s followed by
// every constraint of other.
func (s Set) Union(other Set) Set {
	out := make([]Constraint, 0, len(s.items)+len(other.items))
	out = append(out, s.items...)
	out = append(out, other.items...)
	return Set{items: out}
}

// Items returns the constraints in insertion order. The returned slice must
// not be mutated by the caller.
func (s Set) Items() []Constraint {
	return s.items
}

// Len reports the number of constraints in s.
func (s Set) Len() int {
	return len(s.items)
}

// IsEmpty reports whether s has no constraints.
func (s Set) IsEmpty() bool {
	return len(s.items) == 0
}

// OnlyUnroll reports whether every constraint in s is an Unroll sentinel
// (§4.4 when_unsolved, §4.7). An empty set is vacuously true.
func (s Set) OnlyUnroll() bool {
	for _, c := range s.items {
		if _, ok := c.(Unroll); !ok {
			return false
		}
	}
	return true
}

func FromSlice(items []Constraint) Set {
	return Set{items: append([]Constraint(nil), items...)}
}
