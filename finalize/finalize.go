// Package finalize implements §4.5: it enumerates per-location final-store
// selections, builds every derived relation, checks coherence acyclicity,
// and delivers each surviving concrete execution to the caller.
package finalize

import (
	"sort"

	"github.com/rst0git/herdtools7/config"
	"github.com/rst0git/herdtools7/cycle"
	"github.com/rst0git/herdtools7/event"
	"github.com/rst0git/herdtools7/initstate"
	"github.com/rst0git/herdtools7/rfmap"
	"github.com/rst0git/herdtools7/value"
)

// Options mirrors the subset of config.Config this component consults.
type Options struct {
	Optace             bool
	InitWrites         bool
	ObservedFinalsOnly bool
	ObservedLocs       map[string]bool // loc.String() -> true; consulted iff ObservedFinalsOnly
	Speedcheck         config.Speedcheck
	CheckFilter        bool
}

// Callbacks are the test-specific predicates §4.5 step 3 applies; either
// may be nil to accept everything. OnReject, if set, is called once per
// candidate-selection discarded inside Run (filter rejection, a uniproc
// conflict, or a coherence cycle — the §7 "candidate rejection" kinds this
// component can produce) so a caller can journal them (§4.7/diag.Journal).
type Callbacks struct {
	Filter     func(finalState map[string]value.Value) bool
	WorthGoing func(finalState map[string]value.Value) bool
	OnReject   func(reason string)
}

func (cb Callbacks) reject(reason string) {
	if cb.OnReject != nil {
		cb.OnReject(reason)
	}
}

// Concrete is the concrete execution record of §3/§4.5: a fully-resolved
// structure, RFMap and final state, plus every derived relation.
type Concrete struct {
	Structure       event.Structure
	RFMap           rfmap.Map
	FinalState      map[string]value.Value
	PoIico          event.Relation
	Ppoloc          event.Relation
	StoreLoadVbf    event.Relation
	InitLoadVbf     event.Relation
	AtomicLoadStore event.Relation
	LastStoreVbf    event.Relation
	Pco             event.Relation
}

// Run finalizes one surviving (structure, RFMap) tuple from §4.4 (residual
// assumed empty by the caller, per §4.5's precondition), calling onConcrete
// once per delivered concrete execution.
func Run(s event.Structure, rfm rfmap.Map, init initstate.State, opt Options, cb Callbacks, onConcrete func(Concrete) error) error {
	poIico := s.PoIico()
	ppoloc := buildPpoloc(s, poIico)
	storeLoadVbf, initLoadVbf := buildRFRelations(s, rfm)
	atomicLoadStore := buildAtomicLoadStore(s, poIico)

	storesByLoc := groupByLoc(s.MemoryStores())
	loadsByLoc := groupByLoc(s.MemoryLoads())

	locKeys := make([]string, 0, len(storesByLoc))
	for k := range storesByLoc {
		if opt.ObservedFinalsOnly && !opt.ObservedLocs[k] {
			continue
		}
		locKeys = append(locKeys, k)
	}
	sort.Strings(locKeys)

	baseRFM := rfm
	for k, loads := range loadsByLoc {
		if len(loads) == 0 {
			continue
		}
		if _, hasStores := storesByLoc[k]; hasStores {
			continue
		}
		if opt.ObservedFinalsOnly && !opt.ObservedLocs[k] {
			continue
		}
		baseRFM = baseRFM.WithFinal(loads[0].Loc, rfmap.Init)
	}

	candLists := make(map[string][]event.Event, len(locKeys))
	for _, k := range locKeys {
		candLists[k] = candidateFinals(storesByLoc[k], ppoloc, opt.Optace)
	}

	return search(finalizeCtx{
		s:               s,
		init:            init,
		opt:             opt,
		cb:              cb,
		poIico:          poIico,
		ppoloc:          ppoloc,
		storeLoadVbf:    storeLoadVbf,
		initLoadVbf:     initLoadVbf,
		atomicLoadStore: atomicLoadStore,
		storesByLoc:     storesByLoc,
		loadsByLoc:      loadsByLoc,
		candByLoc:       candLists,
		onConcrete:      onConcrete,
	}, locKeys, 0, baseRFM, map[string]event.Event{})
}

type finalizeCtx struct {
	s                                          event.Structure
	init                                       initstate.State
	opt                                        Options
	cb                                         Callbacks
	poIico, ppoloc, storeLoadVbf, initLoadVbf  event.Relation
	atomicLoadStore                            event.Relation
	storesByLoc, loadsByLoc, candByLoc         map[string][]event.Event
	onConcrete                                 func(Concrete) error
}

func search(ctx finalizeCtx, locKeys []string, i int, rfm rfmap.Map, selection map[string]event.Event) error {
	if i == len(locKeys) {
		return ctx.deliver(rfm, selection)
	}
	k := locKeys[i]
	for _, w := range ctx.candByLoc[k] {
		nextSel := make(map[string]event.Event, len(selection)+1)
		for sk, sv := range selection {
			nextSel[sk] = sv
		}
		nextSel[k] = w
		nextRFM := rfm.WithFinal(w.Loc, rfmap.FromStore(w.ID))
		if err := search(ctx, locKeys, i+1, nextRFM, nextSel); err != nil {
			return err
		}
	}
	return nil
}

func (ctx finalizeCtx) deliver(rfm rfmap.Map, selection map[string]event.Event) error {
	finalState := computeFinalState(ctx.s, ctx.init, rfm)

	if ctx.opt.CheckFilter && ctx.cb.Filter != nil && !ctx.cb.Filter(finalState) {
		ctx.cb.reject("filter rejected final state")
		return nil
	}
	if ctx.opt.Speedcheck != config.SpeedcheckOff && ctx.cb.WorthGoing != nil && !ctx.cb.WorthGoing(finalState) {
		return nil // a speedcheck skip is a performance prune, not a §7 candidate rejection
	}

	lastStoreVbf := buildLastStoreVbf(ctx.storesByLoc, ctx.loadsByLoc, selection)

	pco, ok := buildPco(ctx.s, ctx.opt, ctx.storesByLoc, selection, rfm, ctx.ppoloc, lastStoreVbf)
	if !ok {
		ctx.cb.reject("uniproc derivation conflict")
		return nil // §4.5 step 5: uniproc derivation conflict, skip this candidate
	}
	if cycle.RelationIsCyclic(ctx.s.SortedIDs(), pco) {
		ctx.cb.reject("coherence cycle")
		return nil // §4.5 step 6
	}

	return ctx.onConcrete(Concrete{
		Structure:       ctx.s,
		RFMap:           rfm,
		FinalState:      finalState,
		PoIico:          ctx.poIico,
		Ppoloc:          ctx.ppoloc,
		StoreLoadVbf:    ctx.storeLoadVbf,
		InitLoadVbf:     ctx.initLoadVbf,
		AtomicLoadStore: ctx.atomicLoadStore,
		LastStoreVbf:    lastStoreVbf,
		Pco:             pco,
	})
}

func buildPpoloc(s event.Structure, poIico event.Relation) event.Relation {
	out := event.EmptyRelation
	mem := s.MemoryEvents()
	for _, e1 := range mem {
		for _, e2 := range mem {
			if e1.ID == e2.ID || !e1.Loc.Equal(e2.Loc) {
				continue
			}
			if poIico.IsBefore(e1.ID, e2.ID) {
				out = out.Add(e1.ID, e2.ID)
			}
		}
	}
	return out
}

// buildRFRelations builds store_load_vbf and init_load_vbf, scoped to
// memory loads: register RF plays no part in coherence, the only place
// these relations are consumed downstream.
func buildRFRelations(s event.Structure, rfm rfmap.Map) (storeLoadVbf, initLoadVbf event.Relation) {
	storeLoadVbf = event.EmptyRelation
	initLoadVbf = event.EmptyRelation
	stores := s.MemoryStores()
	for _, r := range s.MemoryLoads() {
		src, ok := rfm.LoadSource(r.ID)
		if !ok {
			continue
		}
		if src.IsInit() {
			for _, w := range stores {
				if w.Loc.Equal(r.Loc) {
					initLoadVbf = initLoadVbf.Add(r.ID, w.ID)
				}
			}
			continue
		}
		storeLoadVbf = storeLoadVbf.Add(src.Store(), r.ID)
	}
	return storeLoadVbf, initLoadVbf
}

func buildAtomicLoadStore(s event.Structure, poIico event.Relation) event.Relation {
	out := event.EmptyRelation
	mem := s.MemoryEvents()
	for _, r := range mem {
		if r.Kind != event.MemoryRead || !r.HasAnnotation(event.Atomic) || r.HasAnnotation(event.Exclusive) {
			continue
		}
		for _, w := range mem {
			if w.Kind != event.MemoryWrite || !w.HasAnnotation(event.Atomic) || w.HasAnnotation(event.Exclusive) {
				continue
			}
			if !r.Loc.Equal(w.Loc) || !poIico.IsBefore(r.ID, w.ID) {
				continue
			}
			if hasInterveningAtomic(mem, poIico, r, w) {
				continue
			}
			out = out.Add(r.ID, w.ID)
		}
	}
	return out
}

func hasInterveningAtomic(mem []event.Event, poIico event.Relation, r, w event.Event) bool {
	for _, mid := range mem {
		if mid.ID == r.ID || mid.ID == w.ID || !mid.Loc.Equal(r.Loc) || !mid.HasAnnotation(event.Atomic) {
			continue
		}
		if poIico.IsBefore(r.ID, mid.ID) && poIico.IsBefore(mid.ID, w.ID) {
			return true
		}
	}
	return false
}

func groupByLoc(events []event.Event) map[string][]event.Event {
	out := map[string][]event.Event{}
	for _, e := range events {
		out[e.Loc.String()] = append(out[e.Loc.String()], e)
	}
	return out
}

// candidateFinals implements the §4.5 final-store candidate set: with
// optace, the stores not strictly before any other store to the same
// location under ppoloc; otherwise every store.
func candidateFinals(stores []event.Event, ppoloc event.Relation, optace bool) []event.Event {
	if !optace {
		return stores
	}
	var out []event.Event
	for _, w := range stores {
		maximal := true
		for _, other := range stores {
			if other.ID == w.ID {
				continue
			}
			if ppoloc.IsBefore(w.ID, other.ID) {
				maximal = false
				break
			}
		}
		if maximal {
			out = append(out, w)
		}
	}
	return out
}

func computeFinalState(s event.Structure, init initstate.State, rfm rfmap.Map) map[string]value.Value {
	out := map[string]value.Value{}
	for k, v := range init.Snapshot() {
		out[k] = v
	}
	for _, e := range s.MemoryEvents() {
		if !e.HasLoc {
			continue
		}
		src, ok := rfm.FinalSource(e.Loc)
		if !ok || src.IsInit() {
			continue
		}
		w, ok := s.Events[src.Store()]
		if !ok {
			continue
		}
		out[e.Loc.String()] = w.WriteValue
	}
	return out
}

func buildLastStoreVbf(storesByLoc, loadsByLoc map[string][]event.Event, selection map[string]event.Event) event.Relation {
	out := event.EmptyRelation
	for k, chosen := range selection {
		for _, w := range storesByLoc[k] {
			if w.ID != chosen.ID {
				out = out.Add(w.ID, chosen.ID)
			}
		}
		for _, r := range loadsByLoc[k] {
			out = out.Add(r.ID, chosen.ID)
		}
	}
	return out
}

// buildPco implements §4.5 step 5. ok is false when the uniproc derivation
// detects a direct conflict, in which case this final-selection candidate
// must be skipped (interpreting "skip the entire structure" as scoped to
// the candidate under construction — see DESIGN.md).
func buildPco(s event.Structure, opt Options, storesByLoc map[string][]event.Event, selection map[string]event.Event, rfm rfmap.Map, ppoloc, lastStoreVbf event.Relation) (event.Relation, bool) {
	pco := event.EmptyRelation

	if opt.InitWrites {
		for _, stores := range storesByLoc {
			var inits, others []event.Event
			for _, w := range stores {
				if w.Kind == event.InitWrite {
					inits = append(inits, w)
				} else {
					others = append(others, w)
				}
			}
			for _, iw := range inits {
				for _, w := range others {
					pco = pco.Add(iw.ID, w.ID)
				}
			}
		}
	}

	if opt.Optace {
		loads := s.MemoryLoads()
		for _, r := range loads {
			srcR, ok := rfm.LoadSource(r.ID)
			if !ok || srcR.IsInit() {
				continue
			}
			w := srcR.Store()
			for _, r2 := range loads {
				if r2.ID == r.ID || !ppoloc.IsBefore(r.ID, r2.ID) {
					continue
				}
				src2, ok := rfm.LoadSource(r2.ID)
				if !ok || src2.IsInit() {
					continue
				}
				w2 := src2.Store()
				if w == w2 {
					continue
				}
				if pco.IsBefore(w2, w) {
					return event.EmptyRelation, false
				}
				pco = pco.Add(w, w2)
			}
		}
	}

	for _, pair := range lastStoreVbf.Pairs() {
		src, ok := s.Events[pair[0]]
		if !ok || !src.Kind.IsMemory() || !src.Kind.IsStore() {
			continue
		}
		pco = pco.Add(pair[0], pair[1])
	}

	return pco, true
}
