package relabel

import (
	"testing"

	"github.com/rst0git/herdtools7/event"
)

func buildMixed() event.Structure {
	s := event.New([]int{0})
	s = s.WithEvent(event.Event{ID: 5, Thread: 0, Kind: event.RegisterRead})
	s = s.WithEvent(event.Event{ID: 7, Thread: 0, Kind: event.MemoryWrite})
	s = s.WithEvent(event.Event{ID: 9, Thread: 0, Kind: event.MemoryRead})
	s = s.WithIntraCtrl(event.EmptyRelation.Add(7, 9).Add(9, 5))
	return s
}

func TestRelabelMemoryPrefix(t *testing.T) {
	out := Relabel(buildMixed())
	if NMem(out) != 2 {
		t.Fatalf("NMem() = %d, want 2", NMem(out))
	}
	for id := event.ID(0); id < 2; id++ {
		e, ok := out.Events[id]
		if !ok || !e.Kind.IsMemory() {
			t.Errorf("event %d should be a memory event on the canonical prefix", id)
		}
	}
	e2, ok := out.Events[2]
	if !ok || e2.Kind.IsMemory() {
		t.Error("event 2 should be the sole non-memory event, after the prefix")
	}
}

func TestRelabelPreservesRelations(t *testing.T) {
	before := buildMixed()
	after := Relabel(before)
	// the write precedes the read precedes the register read in the
	// original relation; relabelling must preserve that shape regardless
	// of the new identifiers.
	writeAfter, readAfter, regAfter := event.ID(-1), event.ID(-1), event.ID(-1)
	for id, e := range after.Events {
		switch e.Kind {
		case event.MemoryWrite:
			writeAfter = id
		case event.MemoryRead:
			readAfter = id
		case event.RegisterRead:
			regAfter = id
		}
	}
	if !after.IntraCtrl.Contains(writeAfter, readAfter) {
		t.Error("expected write->read edge to survive relabelling")
	}
	if !after.IntraCtrl.Contains(readAfter, regAfter) {
		t.Error("expected read->register-read edge to survive relabelling")
	}
}

func TestRelabelTwiceIsIdempotent(t *testing.T) {
	once := Relabel(buildMixed())
	twice := Relabel(once)
	if len(once.Events) != len(twice.Events) {
		t.Fatalf("event count changed: %d vs %d", len(once.Events), len(twice.Events))
	}
	for id, e := range once.Events {
		e2, ok := twice.Events[id]
		if !ok || e2.Kind != e.Kind || e2.Thread != e.Thread {
			t.Errorf("event %d changed identity on second relabel: %v vs %v", id, e, e2)
		}
	}
}
