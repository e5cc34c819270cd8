// Package toyisa is a fixture instruction set: write, read and branch,
// just enough to express every scenario of spec.md §8 (S1-S6). It is not
// part of the specified core; it exists only so driver's tests and the
// scenario tests elsewhere in this repository have a concrete
// semantics.Instruction to drive. Real instruction sets are an external
// collaborator per §2/§6.
package toyisa

import (
	"fmt"

	"github.com/rst0git/herdtools7/composer"
	"github.com/rst0git/herdtools7/event"
	"github.com/rst0git/herdtools7/loc"
	"github.com/rst0git/herdtools7/semantics"
	"github.com/rst0git/herdtools7/value"
)

func fresh(ctx semantics.Context, suffix string) value.Value {
	return value.Var(fmt.Sprintf("T%d@%d.%s", ctx.Thread, ctx.ProgOrder, suffix))
}

func appendEvent(thread int, build func(id event.ID) event.Event) composer.Frag {
	return composer.Lift(func(s composer.State) composer.State {
		id, s := s.AllocID()
		e := build(id)
		s.Structure = s.Structure.WithEvent(e)
		if last, ok := s.LastEventOf(thread); ok {
			s.Structure = s.Structure.WithIntraCtrl(s.Structure.IntraCtrl.Add(last, id))
		}
		s = s.WithLastEvent(thread, id)
		return s
	})
}

// Write is a memory store: `W addr val`.
type Write struct {
	Addr value.Value
	Val  value.Value
}

func (w Write) BuildSemantics(ctx semantics.Context) (composer.Frag, semantics.BranchVerdict) {
	frag := appendEvent(ctx.Thread, func(id event.ID) event.Event {
		return event.Event{
			ID:         id,
			Thread:     ctx.Thread,
			ProgOrder:  ctx.ProgOrder,
			Kind:       event.MemoryWrite,
			Loc:        loc.MakeGlobal(w.Addr),
			HasLoc:     true,
			WriteValue: w.Val,
			HasWrite:   true,
		}
	})
	return frag, semantics.BranchVerdict{Kind: semantics.Next}
}

// Read is a memory load into a register: `R addr -> dest`. It produces a
// MemoryRead event whose (still-symbolic) read value is forwarded, via an
// intra-causality-data edge, into a RegisterWrite event for dest — the
// fused load-then-assign shape real instruction sets decompose the same
// way per §3's "address/data dependencies".
type Read struct {
	Addr value.Value
	Dest string
}

func (r Read) BuildSemantics(ctx semantics.Context) (composer.Frag, semantics.BranchVerdict) {
	v := fresh(ctx, "rd")
	frag := composer.Lift(func(s composer.State) composer.State {
		readID, s := s.AllocID()
		readEvt := event.Event{
			ID:        readID,
			Thread:    ctx.Thread,
			ProgOrder: ctx.ProgOrder,
			Kind:      event.MemoryRead,
			Loc:       loc.MakeGlobal(r.Addr),
			HasLoc:    true,
			ReadValue: v,
			HasRead:   true,
		}
		s.Structure = s.Structure.WithEvent(readEvt)
		if last, ok := s.LastEventOf(ctx.Thread); ok {
			s.Structure = s.Structure.WithIntraCtrl(s.Structure.IntraCtrl.Add(last, readID))
		}

		writeID, s := s.AllocID()
		writeEvt := event.Event{
			ID:         writeID,
			Thread:     ctx.Thread,
			ProgOrder:  ctx.ProgOrder,
			Kind:       event.RegisterWrite,
			Loc:        loc.MakeRegister(ctx.Thread, r.Dest),
			HasLoc:     true,
			WriteValue: v,
			HasWrite:   true,
		}
		s.Structure = s.Structure.WithEvent(writeEvt)
		s.Structure = s.Structure.WithIntraData(s.Structure.IntraData.Add(readID, writeID))
		s.Structure = s.Structure.WithIntraCtrl(s.Structure.IntraCtrl.Add(readID, writeID))

		s = s.WithLastEvent(ctx.Thread, writeID)
		return s
	})
	return frag, semantics.BranchVerdict{Kind: semantics.Next}
}

// Jump is an unconditional branch: `B label`. It introduces no event of
// its own; it only redirects control flow.
type Jump struct {
	Target string
}

func (j Jump) BuildSemantics(semantics.Context) (composer.Frag, semantics.BranchVerdict) {
	return composer.Unit(), semantics.BranchVerdict{Kind: semantics.Jump, Label: j.Target}
}

// CondBranch is a conditional branch on a register's value: `BC reg,
// label`. It reads reg (a genuine RegisterRead, subject to register RF
// resolution by §4.3) and jumps to Target when that value is 1, falling
// through when it is 0 (composer.Choice pins the guard to exactly these two
// values, so any other value makes both branches infeasible).
type CondBranch struct {
	Reg    string
	Target string
}

func (b CondBranch) BuildSemantics(ctx semantics.Context) (composer.Frag, semantics.BranchVerdict) {
	v := fresh(ctx, "guard")
	frag := appendEvent(ctx.Thread, func(id event.ID) event.Event {
		return event.Event{
			ID:        id,
			Thread:    ctx.Thread,
			ProgOrder: ctx.ProgOrder,
			Kind:      event.RegisterRead,
			Loc:       loc.MakeRegister(ctx.Thread, b.Reg),
			HasLoc:    true,
			ReadValue: v,
			HasRead:   true,
		}
	})
	return frag, semantics.BranchVerdict{Kind: semantics.CondJump, Label: b.Target, Guard: v}
}
