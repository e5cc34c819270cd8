// Package solver specifies the constraint-solver collaborator contract of
// §6 ("solve(constraints) -> NoSolns | Maybe(substitution, residual-
// constraints)") and provides one reference implementation over the
// value/constraint vocabulary, grounded on the same "build a substitution,
// fail on contradiction" shape as distsys/tla's builtin equality checks.
// The core (driver, rfreg, rfmem, finalize) depends only on the Solver
// interface; it never constructs valueSolver directly.
package solver

import (
	"fmt"

	"github.com/rst0git/herdtools7/constraint"
	"github.com/rst0git/herdtools7/loc"
	"github.com/rst0git/herdtools7/value"
)

// Outcome is the result of a Solve call. It is NoSolns, or a Substitution
// paired with a residual Set of constraints the solver could not yet
// discharge (e.g. remaining Unroll sentinels, or ReadInit constraints whose
// location never became determined).
type Outcome struct {
	Solved   bool
	Subst    value.Substitution
	Residual constraint.Set
}

// Solver is the external collaborator contract of §6.
type Solver interface {
	Solve(constraint.Set) (Outcome, error)
}

// ErrUnsolvable is never itself returned by Solve; NoSolns is represented
// as Outcome{Solved: false}, not an error. Solve only returns an error for
// a malformed constraint it cannot interpret at all (an internal-invariant
// situation, not a candidate rejection per §7).
var ErrUnsolvable = fmt.Errorf("solver: unsolvable constraint set")

// valueSolver is a small union-find-style equality solver: it treats every
// Assign as "this variable equals that atom/expression", propagates
// transitively, and fails (NoSolns) the moment two different constants
// would have to be equal. ReadInit and Unroll constraints it cannot resolve
// are passed through untouched as residuals, exactly as §4.1's tooFar
// sentinel and §9's ReadInit deferral intend.
type valueSolver struct{}

// New returns the reference Solver used by this repository's tests; callers
// of enumerate.CalculateRFWithCnstrnts pass a Solver explicitly.
func New() Solver {
	return valueSolver{}
}

func (valueSolver) Solve(cs constraint.Set) (Outcome, error) {
	bindings := map[string]value.Value{}
	var residual []constraint.Constraint

	// iterate to a fixed point: an Assign may bind a variable that a later
	// Arith constraint depends on, so a single left-to-right pass is not
	// always enough when constraints are emitted out of dependency order.
	pending := append([]constraint.Constraint(nil), cs.Items()...)
	for progress := true; progress; {
		progress = false
		var next []constraint.Constraint
		for _, c := range pending {
			switch c := c.(type) {
			case constraint.Unroll:
				next = append(next, c)
			case constraint.Assign:
				resolved, ok := resolveExpr(c.Expr, bindings)
				if !ok {
					next = append(next, c)
					continue
				}
				if resolved.IsVar() && resolved.Name() == c.Var.Name() {
					continue // x = x holds trivially; binding it would be cyclic
				}
				if existing, has := bindings[c.Var.Name()]; has {
					existing, _ = resolveValue(existing, bindings)
					switch {
					case existing.Equal(resolved):
					case existing.IsVar():
						bindings[existing.Name()] = resolved
						progress = true
					case resolved.IsVar():
						bindings[resolved.Name()] = existing
						progress = true
					default:
						return Outcome{Solved: false}, nil
					}
				} else {
					bindings[c.Var.Name()] = resolved
					progress = true
				}
			default:
				return Outcome{}, fmt.Errorf("solver: unrecognized constraint %T", c)
			}
		}
		pending = next
	}

	// whatever is left in pending never resolved (resolveExpr kept declining
	// it every iteration above, including any ReadInit whose location never
	// became determined) — that is exactly the residual §4.4/§4.7 carry
	// forward, plus any Unroll sentinels.
	residual = pending

	return Outcome{
		Solved:   true,
		Subst:    value.NewSubstitution(bindings),
		Residual: constraint.FromSlice(residual),
	}, nil
}

func resolveExpr(e constraint.Expr, bindings map[string]value.Value) (value.Value, bool) {
	switch e := e.(type) {
	case constraint.Atom:
		return resolveValue(e.Value, bindings)
	case constraint.ReadInit:
		rl, ok := resolveLoc(e.Loc, bindings)
		if !ok {
			return value.Value{}, false
		}
		v, ok := e.State[rl.String()]
		return v, ok
	case constraint.Arith:
		x, okX := resolveValue(e.X, bindings)
		y, okY := resolveValue(e.Y, bindings)
		if !okX || !okY {
			return value.Value{}, false
		}
		if !x.IsDetermined() || !y.IsDetermined() {
			return value.Value{}, false
		}
		switch e.Op {
		case "+":
			return value.Const(x.Const() + y.Const()), true
		case "-":
			return value.Const(x.Const() - y.Const()), true
		default:
			return value.Value{}, false
		}
	default:
		return value.Value{}, false
	}
}

// resolveLoc resolves l's address (if any) through bindings, returning ok
// only once the address is fully determined; Register locations are always
// determined since their identity carries no Value.
func resolveLoc(l loc.Location, bindings map[string]value.Value) (loc.Location, bool) {
	if l.Kind() == loc.Register {
		return l, true
	}
	addr, ok := resolveValue(l.Addr(), bindings)
	if !ok || !addr.IsDetermined() {
		return loc.Location{}, false
	}
	if l.Kind() == loc.Global {
		return loc.MakeGlobal(addr), true
	}
	return loc.MakeDeref(addr), true
}

func resolveValue(v value.Value, bindings map[string]value.Value) (value.Value, bool) {
	for v.IsVar() {
		next, ok := bindings[v.Name()]
		if !ok {
			return v, true // undetermined, but that's a valid "resolution" for Atom
		}
		v = next
	}
	return v, true
}
