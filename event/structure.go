package event

import (
	"fmt"
	"sort"

	"github.com/rst0git/herdtools7/value"
)

// Structure is the EventStructure of §3: a set of events plus the two
// intra-thread relations, plus the list of participating threads. Structures
// are immutable once emitted from the driver (§3 Lifecycles); every
// transformation below returns a new Structure.
type Structure struct {
	Events    map[ID]Event
	IntraData Relation
	IntraCtrl Relation
	Threads   []int
}

// New builds an empty structure over the given thread IDs.
func New(threads []int) Structure {
	th := append([]int(nil), threads...)
	sort.Ints(th)
	return Structure{
		Events:  map[ID]Event{},
		Threads: th,
	}
}

// WithEvent returns a copy of s with e added (or replacing an event of the
// same ID); the map is copied so s itself is unaffected.
func (s Structure) WithEvent(e Event) Structure {
	out := s.clone()
	out.Events[e.ID] = e
	return out
}

// WithIntraData / WithIntraCtrl return a copy of s with the given relation.
func (s Structure) WithIntraData(r Relation) Structure {
	out := s.clone()
	out.IntraData = r
	return out
}

func (s Structure) WithIntraCtrl(r Relation) Structure {
	out := s.clone()
	out.IntraCtrl = r
	return out
}

func (s Structure) clone() Structure {
	events := make(map[ID]Event, len(s.Events))
	for id, e := range s.Events {
		events[id] = e
	}
	return Structure{
		Events:    events,
		IntraData: s.IntraData,
		IntraCtrl: s.IntraCtrl,
		Threads:   append([]int(nil), s.Threads...),
	}
}

// PoIico returns po_iico, the union of intra-causality-data and
// intra-causality-control (§4.5).
func (s Structure) PoIico() Relation {
	return s.IntraData.Union(s.IntraCtrl)
}

// SortedIDs returns every event ID in ascending order.
func (s Structure) SortedIDs() []ID {
	out := make([]ID, 0, len(s.Events))
	for id := range s.Events {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MemoryEvents returns every memory event (read, write or init-write) in
// ascending original-order — the input to the relabeller (§4.2).
func (s Structure) MemoryEvents() []Event {
	var out []Event
	for _, id := range s.SortedIDs() {
		e := s.Events[id]
		if e.Kind.IsMemory() {
			out = append(out, e)
		}
	}
	return out
}

// NonMemoryEvents mirrors MemoryEvents for the complement.
func (s Structure) NonMemoryEvents() []Event {
	var out []Event
	for _, id := range s.SortedIDs() {
		e := s.Events[id]
		if !e.Kind.IsMemory() {
			out = append(out, e)
		}
	}
	return out
}

// Loads/Stores split by kind and by memory-vs-register, matching the L/S
// notation of §4.4 and the register-load notion of §4.3.
func (s Structure) MemoryLoads() []Event {
	return s.filter(func(e Event) bool { return e.Kind == MemoryRead })
}

func (s Structure) MemoryStores() []Event {
	return s.filter(func(e Event) bool { return e.Kind == MemoryWrite || e.Kind == InitWrite })
}

func (s Structure) RegisterLoads() []Event {
	return s.filter(func(e Event) bool { return e.Kind == RegisterRead })
}

func (s Structure) RegisterStores() []Event {
	return s.filter(func(e Event) bool { return e.Kind == RegisterWrite })
}

func (s Structure) filter(pred func(Event) bool) []Event {
	var out []Event
	for _, id := range s.SortedIDs() {
		e := s.Events[id]
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// CheckAcyclicWithinThreads asserts the §3 invariant that IntraData and
// IntraCtrl are each acyclic within any single thread. It is an internal
// invariant check, not a candidate-rejection path (§7): a violation means
// the driver or the semantics module misbehaved.
func (s Structure) CheckAcyclicWithinThreads() error {
	for _, rel := range []Relation{s.IntraData, s.IntraCtrl} {
		for _, thread := range s.Threads {
			if hasCycleAmongThread(rel, s, thread) {
				return fmt.Errorf("event: intra-causality relation is cyclic on thread %d", thread)
			}
		}
	}
	return nil
}

func hasCycleAmongThread(rel Relation, s Structure, thread int) bool {
	// 0 unvisited, 1 in-progress, 2 done
	visiting := map[ID]int{}
	var onThread []ID
	for _, id := range s.SortedIDs() {
		if s.Events[id].Thread == thread {
			onThread = append(onThread, id)
		}
	}
	var visit func(ID) bool
	visit = func(id ID) bool {
		switch visiting[id] {
		case 1:
			return true
		case 2:
			return false
		}
		visiting[id] = 1
		for _, next := range rel.Successors(id) {
			if s.Events[next].Thread != thread {
				continue
			}
			if visit(next) {
				return true
			}
		}
		visiting[id] = 2
		return false
	}
	for _, id := range onThread {
		if visit(id) {
			return true
		}
	}
	return false
}

// Substitute applies sigma throughout every event's location and values,
// returning a fresh Structure. Applying value.Empty is the identity (§8).
func (s Structure) Substitute(sigma value.Substitution) Structure {
	if sigma.IsEmpty() {
		return s
	}
	out := s.clone()
	for id, e := range out.Events {
		out.Events[id] = e.Substitute(sigma)
	}
	return out
}
