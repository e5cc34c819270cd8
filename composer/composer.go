// Package composer is the monadic composer collaborator of §2/§6/§9: it
// combines per-instruction event fragments by parallel composition and
// sequencing, and materializes CondJump via a choice combinator that
// explores both branches. It is grounded on distsys/eval.go's Eval type —
// the same "FlatMap chains a continuation onto a fragment, EvalSplit forks
// into independent branches" shape — generalized from "effects resumed
// with a tla.TLAValue" to "fragments resumed with a partial build State",
// and from a trampolined effect interpreter to a plain list monad, per the
// §9 design note that a vector of partial candidates is an acceptable
// implementation strategy.
//
// spec.md frames this composer as an external collaborator specified only
// by contract (§2 table, §6). This package is the one concrete
// implementation this repository ships so the core (driver, rfreg, rfmem,
// finalize) has something real to drive; see SPEC_FULL.md.
package composer

import (
	"github.com/benbjohnson/immutable"

	"github.com/rst0git/herdtools7/constraint"
	"github.com/rst0git/herdtools7/event"
	"github.com/rst0git/herdtools7/value"
)

// State is the partial build state threaded through a composition: the
// event structure accumulated so far, the constraints accumulated so far,
// the next fresh event ID, the per-thread last-appended-event map (so
// successive instructions can be chained by a control edge even though the
// actual event IDs are only known at this runtime path), and whether this
// path has already been marked tooFar. Per-label unroll-visit counting
// (§9) is handled by the driver's build-time recursion instead of runtime
// state, since the unroll bound is static: see driver.buildBlock.
type State struct {
	Structure   event.Structure
	Constraints constraint.Set
	NextID      event.ID
	LastEvent   *immutable.Map[int, event.ID]
	TooFar      bool
}

// LastEventOf returns the most recently appended event ID on thread, for
// chaining program-order control edges (driver.go). ok is false for a
// thread that has not yet appended any event on this path.
func (s State) LastEventOf(thread int) (id event.ID, ok bool) {
	if s.LastEvent == nil {
		return 0, false
	}
	return s.LastEvent.Get(thread)
}

// WithLastEvent returns a State recording id as the most recent event
// appended on thread.
func (s State) WithLastEvent(thread int, id event.ID) State {
	base := s.LastEvent
	if base == nil {
		base = immutable.NewMap[int, event.ID](nil)
	}
	s.LastEvent = base.Set(thread, id)
	return s
}

// AllocID returns a fresh event ID and the State advanced past it.
func (s State) AllocID() (event.ID, State) {
	id := s.NextID
	s.NextID++
	return id, s
}

// Frag is a composable fragment: given an incoming State it produces the
// list of States reachable from it. Sequential composition (bind), choice
// (fork), and parallel composition (independent threads folded over shared
// NextID/LastEvent state) are all built from this single shape.
type Frag func(State) []State

// Unit is the fragment that does nothing: spec.md §6's `unit`.
func Unit() Frag {
	return func(s State) []State {
		return []State{s}
	}
}

// SequenceThen runs f, then for every resulting State runs cont(state),
// concatenating the results. This is spec.md §6's `sequence-then` (`>>>`):
// it chains one fragment's output into a callback producing the next
// fragment, mirroring Eval.FlatMap.
func SequenceThen(f Frag, cont func(State) Frag) Frag {
	return func(s State) []State {
		var out []State
		for _, s1 := range f(s) {
			out = append(out, cont(s1)(s1)...)
		}
		return out
	}
}

// Parallel composes fragments with no relative ordering constraint between
// them beyond what each fragment itself records in the shared Structure —
// spec.md §6's `parallel-compose` (`|*|`). Used both to compose per-thread
// fragments into the whole-test fragment and, when initwrites is enabled,
// to compose the init-write fragment in parallel with every thread.
//
// Implementation note: because each per-thread fragment only ever appends
// events belonging to its own thread, folding them through the shared
// NextID/LastEvent state sequentially is observationally equivalent to true
// independent composition — no fragment can see another's in-progress
// events, only the final Structure each produces.
func Parallel(fs ...Frag) Frag {
	return func(s State) []State {
		states := []State{s}
		for _, f := range fs {
			var next []State
			for _, st := range states {
				next = append(next, f(st)...)
			}
			states = next
		}
		return states
	}
}

// Choice materializes a CondJump: both branches are explored (spec.md
// §4.1), with a contradictory-or-not equality constraint pinning the guard
// to TRUE in the t branch and FALSE in the f branch. When guard is already
// determined (a Const, not a variable), one of the two equality constraints
// is the synthetic self-contradiction sentinel — that branch is infeasible
// on its face, so it is dropped here rather than carried forward for the
// solver to discover later, since the reference solver does not special-case
// that sentinel (constraint.IsSelfContradiction's own doc comment).
func Choice(guard value.Value, t, f Frag) Frag {
	return func(s State) []State {
		var out []State
		trueEq := constraint.EqualityOf(guard, value.Const(1))
		if !constraint.IsSelfContradiction(trueEq) {
			sTrue := s
			sTrue.Constraints = sTrue.Constraints.Add(trueEq)
			out = append(out, t(sTrue)...)
		}
		falseEq := constraint.EqualityOf(guard, value.Const(0))
		if !constraint.IsSelfContradiction(falseEq) {
			sFalse := s
			sFalse.Constraints = sFalse.Constraints.Add(falseEq)
			out = append(out, f(sFalse)...)
		}
		return out
	}
}

// TooFar is the sentinel fragment the driver sequences in when a back-jump
// exceeds the unroll bound (§4.1): it attaches an Unroll(label) constraint,
// which guarantees the eventual constraint set is unsolvable, and marks the
// path so the aggregate too_far flag can be raised.
func TooFar(label string) Frag {
	return func(s State) []State {
		s.Constraints = s.Constraints.Add(constraint.Unroll{Label: label})
		s.TooFar = true
		return []State{s}
	}
}

// Lift turns one deterministic State transformation into a fragment with
// exactly one output State — the composer-facing primitive instruction
// semantics use to append their events (and the data/control edges that
// go with them) between combinators.
func Lift(mutate func(State) State) Frag {
	return func(s State) []State {
		return []State{mutate(s)}
	}
}

// InitWrites builds the fragment that adds one init-write event per entry
// of inits (location -> initial value), composed in parallel with no
// ordering among them or with any thread's own events — spec.md §4.1's
// `initwrites` option and §6's `initwrites(env)` primitive.
func InitWrites(inits []InitWrite) Frag {
	fs := make([]Frag, 0, len(inits))
	for _, iw := range inits {
		iw := iw
		fs = append(fs, Lift(func(s State) State {
			id, s := s.AllocID()
			e := newInitWriteEvent(id, iw)
			s.Structure = s.Structure.WithEvent(e)
			return s
		}))
	}
	return Parallel(fs...)
}

// InitWrite names one location's initial value, the input to InitWrites.
type InitWrite struct {
	Thread int // synthetic thread id for the init-write event, conventionally -1
	Make   func(id event.ID) event.Event
}

func newInitWriteEvent(id event.ID, iw InitWrite) event.Event {
	return iw.Make(id)
}

// GetOutputs drains a fragment's output starting from an empty build state
// over the given threads, returning the (constraints, event-structure)
// candidate list plus the aggregate too_far flag — spec.md §6's
// `get_output(t)` and the `too_far` half of `glommed_event_structures`.
func GetOutputs(f Frag, threads []int) (candidates []Candidate, tooFar bool) {
	initial := State{
		Structure: event.New(threads),
	}
	for _, s := range f(initial) {
		candidates = append(candidates, Candidate{
			Constraints: s.Constraints,
			Structure:   s.Structure,
		})
		if s.TooFar {
			tooFar = true
		}
	}
	return candidates, tooFar
}

// Candidate is the (constraint-set, event-structure) pair the composer
// hands to §4.2 (spec.md §4.1 "Each candidate is then passed to §4.2").
type Candidate struct {
	Constraints constraint.Set
	Structure   event.Structure
}
