// Package driver implements the instruction driver of §4.1: it walks each
// thread's code from its start label, invokes the semantics module per
// instruction, threads the program-order index, tracks loop unrolling per
// label, and branches on conditional jumps via the composer.
//
// Loop unrolling is realized by static recursion rather than a runtime
// visit-count map: the unroll bound is a compile-time constant for a given
// Build call, so a back-jump to a label is handled by literally building a
// fresh copy of that label's body (with fresh program-order indices and,
// transitively, fresh symbolic variable names from the semantics module)
// once per permitted visit, and substituting a composer.TooFar fragment
// once the bound is exceeded. This keeps the "independent copy per branch"
// requirement of §9 for free: two CondJump branches that each loop back to
// the same label simply get two independently-recursed copies of the
// builder, never sharing Go state.
package driver

import (
	"fmt"

	"github.com/rst0git/herdtools7/composer"
	"github.com/rst0git/herdtools7/semantics"
)

// UndefinedLabelError is the one user-visible fatal error this component
// raises (§4.1, §7): a jump (forward, back, or thread start) names a label
// the program does not define.
type UndefinedLabelError struct {
	Label string
}

func (e *UndefinedLabelError) Error() string {
	return fmt.Sprintf("driver: jump to undefined label %q", e.Label)
}

type threadBuilder struct {
	prog        semantics.Program
	thread      int
	unrollBound int
}

// BuildThread builds the fragment for one thread's full trace tree,
// starting at start.Label with an empty (per-path) visit map.
func BuildThread(prog semantics.Program, start semantics.ThreadStart, unrollBound int) (composer.Frag, error) {
	b := &threadBuilder{prog: prog, thread: start.Thread, unrollBound: unrollBound}
	return b.buildFrom(start.Label, 0, map[string]int{})
}

// Build builds the whole-test fragment: every thread's trace tree composed
// in parallel (§4.1 "threads compose by parallel composition"). It returns
// the composed fragment and the participating thread IDs in start-point
// order.
func Build(prog semantics.Program, unrollBound int) (composer.Frag, []int, error) {
	var frags []composer.Frag
	var threads []int
	for _, start := range prog.Starts {
		frag, err := BuildThread(prog, start, unrollBound)
		if err != nil {
			return nil, nil, err
		}
		frags = append(frags, frag)
		threads = append(threads, start.Thread)
	}
	return composer.Parallel(frags...), threads, nil
}

// Enumerate is the §4.1 start-point enumeration entry point: it builds the
// whole-test fragment, optionally composes the init-write fragment in
// parallel when initwrites is enabled, and drains the composer into the
// (constraints, event-structure) candidate list plus the aggregate
// too_far flag that §6's glommed_event_structures reports.
func Enumerate(prog semantics.Program, unrollBound int, initwrites bool, inits []composer.InitWrite) ([]composer.Candidate, bool, error) {
	body, threads, err := Build(prog, unrollBound)
	if err != nil {
		return nil, false, err
	}
	full := body
	if initwrites {
		full = composer.Parallel(body, composer.InitWrites(inits))
	}
	candidates, tooFar := composer.GetOutputs(full, threads)
	return candidates, tooFar, nil
}

func (b *threadBuilder) buildFrom(label string, progOrder int, visits map[string]int) (composer.Frag, error) {
	block, ok := b.prog.Blocks[label]
	if !ok {
		return nil, &UndefinedLabelError{Label: label}
	}
	return b.buildBlock(block, progOrder, visits)
}

func (b *threadBuilder) buildBlock(block semantics.CodeBlock, progOrder int, visits map[string]int) (composer.Frag, error) {
	return b.buildInstrs(block.Instrs, 0, progOrder, visits)
}

func (b *threadBuilder) buildInstrs(instrs []semantics.AddressedInstr, idx, progOrder int, visits map[string]int) (composer.Frag, error) {
	if idx >= len(instrs) {
		return composer.Unit(), nil
	}
	cur := instrs[idx]
	ctx := semantics.Context{
		ProgOrder:   progOrder,
		Thread:      b.thread,
		Label:       cur.Label,
		UnrollCount: visits[cur.Label],
	}
	frag, verdict := cur.Instr.BuildSemantics(ctx)

	switch verdict.Kind {
	case semantics.Next:
		rest, err := b.buildInstrs(instrs, idx+1, progOrder+1, visits)
		if err != nil {
			return nil, err
		}
		return composer.SequenceThen(frag, func(composer.State) composer.Frag { return rest }), nil

	case semantics.Jump:
		target, err := b.jumpFrag(cur.Address, verdict.Label, progOrder+1, visits)
		if err != nil {
			return nil, err
		}
		return composer.SequenceThen(frag, func(composer.State) composer.Frag { return target }), nil

	case semantics.CondJump:
		taken, err := b.jumpFrag(cur.Address, verdict.Label, progOrder+1, visits)
		if err != nil {
			return nil, err
		}
		fallthru, err := b.buildInstrs(instrs, idx+1, progOrder+1, visits)
		if err != nil {
			return nil, err
		}
		return composer.SequenceThen(frag, func(composer.State) composer.Frag {
			return composer.Choice(verdict.Guard, taken, fallthru)
		}), nil

	default:
		return nil, fmt.Errorf("driver: unrecognized branch verdict %v", verdict.Kind)
	}
}

// jumpFrag resolves a jump to label taken from address fromAddr. A
// back-jump (target entry address <= fromAddr, §4.1/GLOSSARY) consumes one
// unit of that label's unroll budget on this path; exceeding the bound
// substitutes composer.TooFar instead of recursing further.
func (b *threadBuilder) jumpFrag(fromAddr int, label string, progOrder int, visits map[string]int) (composer.Frag, error) {
	block, ok := b.prog.Blocks[label]
	if !ok {
		return nil, &UndefinedLabelError{Label: label}
	}
	targetAddr := 0
	if len(block.Instrs) > 0 {
		targetAddr = block.Instrs[0].Address
	}
	if targetAddr <= fromAddr {
		visits = cloneVisits(visits)
		visits[label]++
		if visits[label] > b.unrollBound {
			return composer.TooFar(label), nil
		}
	}
	return b.buildBlock(block, progOrder, visits)
}

func cloneVisits(v map[string]int) map[string]int {
	out := make(map[string]int, len(v)+1)
	for k, n := range v {
		out[k] = n
	}
	return out
}
