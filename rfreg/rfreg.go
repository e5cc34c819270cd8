// Package rfreg implements the register RF resolver of §4.3: it resolves
// every register load against the unique register store on the same
// thread and register that most recently precedes it under intra-causality
// (or Init, if none), emits the resulting equality constraints, solves
// them, and substitutes the solution into the structure before handing off
// to §4.4.
package rfreg

import (
	"fmt"

	"github.com/rst0git/herdtools7/constraint"
	"github.com/rst0git/herdtools7/event"
	"github.com/rst0git/herdtools7/initstate"
	"github.com/rst0git/herdtools7/rfmap"
	"github.com/rst0git/herdtools7/solver"
)

// InvariantError reports a violation of the §4.3 invariant that register
// writes to the same register on the same thread are totally ordered by
// intra-causality. A real semantics module guarantees this; seeing it here
// means a collaborator misbehaved (§7), not a candidate rejection.
type InvariantError struct {
	Loc string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("rfreg: register writes to %s are not totally ordered by intra-causality", e.Loc)
}

// Resolve runs §4.3 over one abstract structure. ok is false when the
// solver reports NoSolns, meaning the whole structure is infeasible and
// must be skipped (the structure/rfmap/residual return values are then
// meaningless).
func Resolve(s event.Structure, cs constraint.Set, init initstate.State, slv solver.Solver) (out event.Structure, rfm rfmap.Map, residual constraint.Set, ok bool, err error) {
	poIico := s.PoIico()
	loads := s.RegisterLoads()
	stores := s.RegisterStores()

	byLoc := map[string][]event.Event{}
	for _, w := range stores {
		byLoc[w.Loc.String()] = append(byLoc[w.Loc.String()], w)
	}

	regConstraints := constraint.Empty
	rfm = rfmap.Empty

	for _, r := range loads {
		candidates := filterBefore(byLoc[r.Loc.String()], r.ID, poIico)
		latest, found, uniq := latestOf(candidates, poIico)
		if found && !uniq {
			return event.Structure{}, rfmap.Map{}, constraint.Set{}, false, &InvariantError{Loc: r.Loc.String()}
		}
		if found {
			regConstraints = regConstraints.Add(constraint.EqualityOf(r.ReadValue, latest.WriteValue))
			rfm = rfm.WithLoad(r.ID, rfmap.FromStore(latest.ID))
			continue
		}
		initVal, ok := init.Lookup(r.Loc)
		if !ok {
			return event.Structure{}, rfmap.Map{}, constraint.Set{}, false, fmt.Errorf("rfreg: no initial value declared for register %s", r.Loc)
		}
		regConstraints = regConstraints.Add(constraint.EqualityOf(r.ReadValue, initVal))
		rfm = rfm.WithLoad(r.ID, rfmap.Init)
	}

	for key, ws := range byLoc {
		latest, found, uniq := latestOf(ws, poIico)
		if !found {
			continue
		}
		if !uniq {
			return event.Structure{}, rfmap.Map{}, constraint.Set{}, false, &InvariantError{Loc: key}
		}
		rfm = rfm.WithFinal(latest.Loc, rfmap.FromStore(latest.ID))
	}

	outcome, serr := slv.Solve(cs.Union(regConstraints))
	if serr != nil {
		return event.Structure{}, rfmap.Map{}, constraint.Set{}, false, serr
	}
	if !outcome.Solved {
		return event.Structure{}, rfmap.Map{}, constraint.Set{}, false, nil
	}

	return s.Substitute(outcome.Subst), rfm, outcome.Residual, true, nil
}

// filterBefore restricts stores to those strictly before the load load
// under poIico.
func filterBefore(stores []event.Event, load event.ID, poIico event.Relation) []event.Event {
	var out []event.Event
	for _, w := range stores {
		if poIico.IsBefore(w.ID, load) {
			out = append(out, w)
		}
	}
	return out
}

// latestOf returns the maximal element of stores under poIico — the store
// that precedes no other candidate. uniq is false if more than one maximal
// candidate exists (poIico does not totally order the set, an invariant
// violation).
func latestOf(stores []event.Event, poIico event.Relation) (latest event.Event, found bool, uniq bool) {
	var maximal []event.Event
	for _, w := range stores {
		isMax := true
		for _, other := range stores {
			if other.ID == w.ID {
				continue
			}
			if poIico.IsBefore(w.ID, other.ID) {
				isMax = false
				break
			}
		}
		if isMax {
			maximal = append(maximal, w)
		}
	}
	if len(maximal) == 0 {
		return event.Event{}, false, true
	}
	if len(maximal) > 1 {
		return event.Event{}, true, false
	}
	return maximal[0], true, true
}
