package event

import (
	"testing"

	"github.com/rst0git/herdtools7/value"
)

func TestSubstituteEmptyIsIdentity(t *testing.T) {
	s := New([]int{0}).WithEvent(Event{
		ID: 0, Thread: 0, Kind: MemoryRead,
		ReadValue: value.Var("x"), HasRead: true,
	})
	got := s.Substitute(value.Empty)
	want := s.Events[0]
	if !got.Events[0].ReadValue.Equal(want.ReadValue) {
		t.Error("Substitute(Empty) must be the identity")
	}
}

func TestCheckAcyclicWithinThreadsDetectsCycle(t *testing.T) {
	s := New([]int{0})
	s = s.WithEvent(Event{ID: 0, Thread: 0, Kind: Barrier})
	s = s.WithEvent(Event{ID: 1, Thread: 0, Kind: Barrier})
	s = s.WithIntraCtrl(EmptyRelation.Add(0, 1).Add(1, 0))

	if err := s.CheckAcyclicWithinThreads(); err == nil {
		t.Error("expected a cycle to be detected")
	}
}

func TestCheckAcyclicWithinThreadsAcceptsDAG(t *testing.T) {
	s := New([]int{0})
	s = s.WithEvent(Event{ID: 0, Thread: 0, Kind: Barrier})
	s = s.WithEvent(Event{ID: 1, Thread: 0, Kind: Barrier})
	s = s.WithIntraCtrl(EmptyRelation.Add(0, 1))

	if err := s.CheckAcyclicWithinThreads(); err != nil {
		t.Errorf("unexpected error on an acyclic relation: %v", err)
	}
}
