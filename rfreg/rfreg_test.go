package rfreg

import (
	"testing"

	"github.com/rst0git/herdtools7/constraint"
	"github.com/rst0git/herdtools7/event"
	"github.com/rst0git/herdtools7/initstate"
	"github.com/rst0git/herdtools7/loc"
	"github.com/rst0git/herdtools7/solver"
	"github.com/rst0git/herdtools7/value"
)

func TestResolveLatestStoreWins(t *testing.T) {
	// T0: r1 := 1 ; r1 := 2 ; load r1 -> must read 2, the latest store.
	s := event.New([]int{0})
	s = s.WithEvent(event.Event{ID: 0, Thread: 0, Kind: event.RegisterWrite, Loc: loc.MakeRegister(0, "r1"), HasLoc: true, WriteValue: value.Const(1), HasWrite: true})
	s = s.WithEvent(event.Event{ID: 1, Thread: 0, Kind: event.RegisterWrite, Loc: loc.MakeRegister(0, "r1"), HasLoc: true, WriteValue: value.Const(2), HasWrite: true})
	s = s.WithEvent(event.Event{ID: 2, Thread: 0, Kind: event.RegisterRead, Loc: loc.MakeRegister(0, "r1"), HasLoc: true, ReadValue: value.Var("v"), HasRead: true})
	s = s.WithIntraCtrl(event.EmptyRelation.Add(0, 1).Add(1, 2))

	init := initstate.New(nil)
	out, rfm, _, ok, err := Resolve(s, constraint.Empty, init, solver.New())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !ok {
		t.Fatal("expected Resolve to succeed")
	}
	src, found := rfm.LoadSource(2)
	if !found || src.IsInit() || src.Store() != 1 {
		t.Errorf("load should read from the latest store (event 1), got %v", src)
	}
	resolved := out.Events[2].ReadValue
	if !resolved.Equal(value.Const(2)) {
		t.Errorf("read value = %v, want 2", resolved)
	}
}

func TestResolveFallsBackToInit(t *testing.T) {
	s := event.New([]int{0})
	s = s.WithEvent(event.Event{ID: 0, Thread: 0, Kind: event.RegisterRead, Loc: loc.MakeRegister(0, "r1"), HasLoc: true, ReadValue: value.Var("v"), HasRead: true})

	init := initstate.New(map[loc.Location]value.Value{
		loc.MakeRegister(0, "r1"): value.Const(9),
	})
	out, rfm, _, ok, err := Resolve(s, constraint.Empty, init, solver.New())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !ok {
		t.Fatal("expected Resolve to succeed")
	}
	src, found := rfm.LoadSource(0)
	if !found || !src.IsInit() {
		t.Errorf("expected the load to read from Init, got %v", src)
	}
	if !out.Events[0].ReadValue.Equal(value.Const(9)) {
		t.Errorf("read value = %v, want 9", out.Events[0].ReadValue)
	}
}
