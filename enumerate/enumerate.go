// Package enumerate implements §4.7 (Driver entry) and the two top-level
// operations of §6: glommed_event_structures and
// calculate_rf_with_cnstrnts. It is the only package that wires the six
// core components (driver, relabel, rfreg, rfmem, finalize, cycle) and the
// three collaborator packages (composer, semantics, solver) together.
package enumerate

import (
	"github.com/rst0git/herdtools7/composer"
	"github.com/rst0git/herdtools7/config"
	"github.com/rst0git/herdtools7/constraint"
	"github.com/rst0git/herdtools7/cycle"
	"github.com/rst0git/herdtools7/diag"
	"github.com/rst0git/herdtools7/driver"
	"github.com/rst0git/herdtools7/event"
	"github.com/rst0git/herdtools7/finalize"
	"github.com/rst0git/herdtools7/initstate"
	"github.com/rst0git/herdtools7/relabel"
	"github.com/rst0git/herdtools7/rfmem"
	"github.com/rst0git/herdtools7/rfreg"
	"github.com/rst0git/herdtools7/semantics"
	"github.com/rst0git/herdtools7/solver"
	"github.com/rst0git/herdtools7/value"
)

// Test bundles everything §6's two operations need from the caller about
// the litmus test itself: the program to drive, its declared initial
// state, and the optional predicates §4.5 step 3 consults.
type Test struct {
	Program      semantics.Program
	Init         initstate.State
	InitWrites   []composer.InitWrite
	ObservedLocs map[string]bool
	Filter       func(finalState map[string]value.Value) bool
}

// Structures is the result of glommed_event_structures: the indexed
// candidate list plus the aggregate too_far flag.
type Structures struct {
	Items  []IndexedStructure
	TooFar bool
}

// IndexedStructure is one (index, constraints, event-structure) triple,
// indices assigned contiguously from 0 in generation order (§6).
type IndexedStructure struct {
	Index       int
	Constraints constraint.Set
	Structure   event.Structure
}

// GlommedEventStructures runs §4.1 (via driver.Enumerate), relabels every
// candidate (§4.2), and assigns contiguous indices in generation order.
func GlommedEventStructures(t Test, cfg config.Config) (Structures, error) {
	candidates, tooFar, err := driver.Enumerate(t.Program, cfg.Unroll, cfg.InitWrites, t.InitWrites)
	if err != nil {
		return Structures{}, err
	}
	items := make([]IndexedStructure, 0, len(candidates))
	for i, c := range candidates {
		items = append(items, IndexedStructure{
			Index:       i,
			Constraints: c.Constraints,
			Structure:   relabel.Relabel(c.Structure),
		})
	}
	return Structures{Items: items, TooFar: tooFar}, nil
}

// OnConcrete is called once per successfully finalized concrete execution.
type OnConcrete func(finalize.Concrete, any) any

// OnLoopExceeded is called at most once per structure whose only obstacle
// to solving was an unresolved Unroll sentinel (§4.4/§4.7 when_unsolved).
type OnLoopExceeded func(structureIndex int, acc any) any

// CalculateRFWithCnstrnts is §6's calculate_rf_with_cnstrnts /
// §4.7's enumerate: it runs §4.3 (register RF), then §4.4 (memory RF),
// applying when_unsolved per tuple, then §4.5/§4.6 (finalization and the
// coherence cycle check), folding onConcrete/onLoopExceeded over acc.
//
// journal may be nil; when non-nil and log.RfmEnabled() (config.debug.rfm),
// the rejections of memory RF tuples that rfmem reports (unresolved
// non-Unroll residual constraints, the optace intervening-write check) and
// every finalize-level candidate rejection for this structure are persisted
// via journal.RecordRejection, keyed by (structureIndex, a per-structure
// tuple counter). Structures rejected at the register stage, and tuples
// rfmem discards itself (solver NoSolns or a direct contradiction), are
// not journaled.
func CalculateRFWithCnstrnts(
	structureIndex int,
	s event.Structure,
	cs constraint.Set,
	t Test,
	cfg config.Config,
	slv solver.Solver,
	onConcrete OnConcrete,
	onLoopExceeded OnLoopExceeded,
	acc any,
	log *diag.Logger,
	journal *diag.Journal,
) (any, error) {
	resolved, rfm, carried, ok, err := rfreg.Resolve(s, cs, t.Init, slv)
	if err != nil {
		return acc, err
	}
	if !ok {
		return acc, nil // §4.7 step 1: solve_regs -> None
	}

	opt := rfmem.Options{Optace: cfg.Optace, InitWrites: cfg.InitWrites}
	loopExceeded := false
	tupleIndex := -1

	recordReject := func(reason string) {
		if journal == nil || !log.RfmEnabled() {
			return
		}
		if jerr := journal.RecordRejection(diag.Rejection{StructureIndex: structureIndex, TupleIndex: tupleIndex, Reason: reason}); jerr != nil {
			log.Log(diag.Warn, "enumerate: structure %d failed to journal a rejection: %v", structureIndex, jerr)
		}
	}

	rfErr := rfmem.Enumerate(resolved, rfm, carried, t.Init, opt, slv, func(tuple rfmem.Tuple) error {
		tupleIndex++

		if !tuple.Residual.IsEmpty() {
			if tuple.Residual.OnlyUnroll() {
				if !loopExceeded {
					loopExceeded = true
					log.Log(diag.Warn, "enumerate: structure %d exceeded its unroll bound", structureIndex)
					acc = onLoopExceeded(structureIndex, acc)
				}
			} else {
				// spec.md:96's when_unsolved otherwise-case asserts that an
				// unresolved residual other than Unroll only ever arises
				// because the RFMap plus intra-causality is itself cyclic.
				// Kept as a debug-only assertion (spec.md:214) so a solver
				// or driver regression that produces a residual for some
				// other reason surfaces here instead of silently discarding.
				if !cycle.RFMapIsCyclic(tuple.Structure, tuple.RFMap) {
					log.Log(diag.Severe, "enumerate: structure %d discarded a tuple with unresolved residual constraints but the RFMap is not cyclic (when_unsolved assertion violated)", structureIndex)
				} else {
					log.Log(diag.Trace, "enumerate: structure %d discarded a tuple with unresolved residual constraints (RFMap cyclic, as expected)", structureIndex)
				}
				recordReject("unresolved residual constraints")
			}
			return nil
		}

		if cfg.Optace && !cycle.CheckRFMap(tuple.Structure, tuple.RFMap) {
			log.Log(diag.Severe, "enumerate: structure %d rejected an RF tuple on an intervening-write violation", structureIndex)
			recordReject("intervening-write violation")
			return nil
		}

		finOpt := finalize.Options{
			Optace:             cfg.Optace,
			InitWrites:         cfg.InitWrites,
			ObservedFinalsOnly: cfg.ObservedFinalsOnly,
			ObservedLocs:       t.ObservedLocs,
			Speedcheck:         cfg.Speedcheck,
			CheckFilter:        cfg.CheckFilter,
		}
		cb := finalize.Callbacks{Filter: t.Filter, OnReject: recordReject}

		return finalize.Run(tuple.Structure, tuple.RFMap, t.Init, finOpt, cb, func(ce finalize.Concrete) error {
			acc = onConcrete(ce, acc)
			return nil
		})
	})
	if rfErr != nil {
		return acc, rfErr
	}
	return acc, nil
}
