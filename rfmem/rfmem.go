// Package rfmem implements the memory RF enumerator of §4.4: for each
// memory load it computes the compatible stores (or Init), enumerates the
// Cartesian product of per-load choices as a streaming backtracking search
// rather than a materialized list (§9), emits the per-tuple constraints,
// solves, and reports each solver-accepted tuple to the caller.
package rfmem

import (
	"fmt"

	"github.com/rst0git/herdtools7/constraint"
	"github.com/rst0git/herdtools7/event"
	"github.com/rst0git/herdtools7/initstate"
	"github.com/rst0git/herdtools7/rfmap"
	"github.com/rst0git/herdtools7/solver"
)

// Options mirrors the subset of config.Config this component consults.
type Options struct {
	Optace     bool
	InitWrites bool
}

// Tuple is what Enumerate reports for every RF tuple the solver accepted —
// note Residual may be non-empty; §4.7's when_unsolved logic over Residual
// is the caller's responsibility, not this package's.
type Tuple struct {
	Structure event.Structure
	RFMap     rfmap.Map
	Residual  constraint.Set
}

type choice struct {
	isInit bool
	store  event.Event
}

// Enumerate runs §4.4 over structure s (post-§4.3 register resolution),
// starting from baseRFMap/carried (the register stage's RFMap and residual
// constraints), calling onTuple once per solver-accepted RF selection.
// onTuple's error, if any, aborts the enumeration and is returned as-is —
// used by callers that need to stop early (§5's cooperative cancellation).
func Enumerate(s event.Structure, baseRFMap rfmap.Map, carried constraint.Set, init initstate.State, opt Options, slv solver.Solver, onTuple func(Tuple) error) error {
	loads := s.MemoryLoads()
	stores := s.MemoryStores()
	poIico := s.PoIico()

	choices := make([][]choice, len(loads))
	for i, r := range loads {
		var cs []choice
		if !opt.InitWrites {
			cs = append(cs, choice{isInit: true})
		}
		for _, w := range stores {
			if compatible(r, w, poIico, opt.Optace) {
				cs = append(cs, choice{store: w})
			}
		}
		choices[i] = cs
	}

	return search(s, loads, choices, 0, constraint.Empty, baseRFMap, init, carried, slv, onTuple)
}

// compatible implements §4.4's compatibility test for load r and store w.
func compatible(r, w event.Event, poIico event.Relation, optace bool) bool {
	if w.ID == r.ID {
		return false
	}
	if r.Loc.IsDetermined() && w.Loc.IsDetermined() && !r.Loc.Equal(w.Loc) {
		return false
	}
	if optace && poIico.IsBefore(r.ID, w.ID) {
		return false
	}
	return true
}

func search(s event.Structure, loads []event.Event, choices [][]choice, i int, acc constraint.Set, rfm rfmap.Map, init initstate.State, carried constraint.Set, slv solver.Solver, onTuple func(Tuple) error) error {
	if i == len(loads) {
		outcome, err := slv.Solve(carried.Union(acc))
		if err != nil {
			return err
		}
		if !outcome.Solved {
			return nil
		}
		return onTuple(Tuple{
			Structure: s.Substitute(outcome.Subst),
			RFMap:     rfm,
			Residual:  outcome.Residual,
		})
	}

	r := loads[i]
	for _, ch := range choices[i] {
		next := acc
		nextRFM := rfm
		contradiction := false

		if ch.isInit {
			nextRFM = nextRFM.WithLoad(r.ID, rfmap.Init)
			if r.Loc.IsDetermined() {
				v, ok := init.Lookup(r.Loc)
				if !ok {
					return fmt.Errorf("rfmem: no initial value declared for %v", r.Loc)
				}
				eq := constraint.EqualityOf(r.ReadValue, v)
				if constraint.IsSelfContradiction(eq) {
					contradiction = true
				} else {
					next = next.Add(eq)
				}
			} else if r.ReadValue.IsVar() {
				next = next.Add(constraint.Assign{
					Var:  r.ReadValue,
					Expr: constraint.ReadInit{Loc: r.Loc, State: init.Snapshot()},
				})
			}
			// else: read value already determined and location still
			// symbolic — nothing to defer; §4.4's ReadInit deferral only
			// applies when the read side is itself a variable to bind.
		} else {
			w := ch.store
			eqVal := constraint.EqualityOf(r.ReadValue, w.WriteValue)
			if constraint.IsSelfContradiction(eqVal) {
				contradiction = true
			} else {
				next = next.Add(eqVal)
				eqLoc := constraint.EqualityOf(r.Loc.Addr(), w.Loc.Addr())
				if constraint.IsSelfContradiction(eqLoc) {
					contradiction = true
				} else {
					next = next.Add(eqLoc)
				}
			}
			nextRFM = nextRFM.WithLoad(r.ID, rfmap.FromStore(w.ID))
		}

		if contradiction {
			continue // §4.4 step 3: discard without invoking the solver
		}
		if err := search(s, loads, choices, i+1, next, nextRFM, init, carried, slv, onTuple); err != nil {
			return err
		}
	}
	return nil
}
