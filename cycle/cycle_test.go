package cycle

import (
	"testing"

	"github.com/rst0git/herdtools7/event"
	"github.com/rst0git/herdtools7/rfmap"
)

func TestRelationIsCyclicDetectsCycle(t *testing.T) {
	ids := []event.ID{0, 1, 2}
	rel := event.EmptyRelation.Add(0, 1).Add(1, 2).Add(2, 0)
	if !RelationIsCyclic(ids, rel) {
		t.Error("expected a cycle to be detected")
	}
}

func TestRelationIsCyclicAcceptsDAG(t *testing.T) {
	ids := []event.ID{0, 1, 2}
	rel := event.EmptyRelation.Add(0, 1).Add(1, 2)
	if RelationIsCyclic(ids, rel) {
		t.Error("did not expect a cycle in a DAG")
	}
}

func TestRFMapIsCyclicViaStoreLoadEdge(t *testing.T) {
	// e1: R x --po--> e0: W x 1, while e1 reads from e0; the RFMap
	// store->load edge plus the po edge the other way around closes the cycle.
	s := event.New([]int{0})
	s = s.WithEvent(event.Event{ID: 0, Thread: 0, Kind: event.MemoryWrite})
	s = s.WithEvent(event.Event{ID: 1, Thread: 0, Kind: event.MemoryRead})
	s = s.WithIntraCtrl(event.EmptyRelation.Add(1, 0)) // load before store in po_iico

	rfm := rfmap.Empty.WithLoad(1, rfmap.FromStore(0))

	if !RFMapIsCyclic(s, rfm) {
		t.Error("expected the combined po_iico/RF graph to be cyclic")
	}
}

func TestRFMapIsCyclicAcceptsOrdinaryRF(t *testing.T) {
	s := event.New([]int{0})
	s = s.WithEvent(event.Event{ID: 0, Thread: 0, Kind: event.MemoryWrite})
	s = s.WithEvent(event.Event{ID: 1, Thread: 0, Kind: event.MemoryRead})
	s = s.WithIntraCtrl(event.EmptyRelation.Add(0, 1))

	rfm := rfmap.Empty.WithLoad(1, rfmap.FromStore(0))

	if RFMapIsCyclic(s, rfm) {
		t.Error("did not expect a cycle for an ordinary store-then-load RF edge")
	}
}
