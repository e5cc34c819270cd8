// Package semantics specifies the instruction-set collaborator contract of
// §6: build_semantics(instr-context) -> (monadic fragment, branch-verdict).
// spec.md treats the instruction set itself as external; this package only
// fixes the Go shape of the contract. internal/toyisa supplies the one
// concrete instruction set this repository ships, used by driver's tests
// and by the scenarios of §8.
package semantics

import (
	"github.com/rst0git/herdtools7/composer"
	"github.com/rst0git/herdtools7/value"
)

// BranchKind discriminates the three verdicts of §4.1/§6.
type BranchKind int

const (
	// Next falls through to the next instruction in program order.
	Next BranchKind = iota
	// Jump unconditionally transfers to Label.
	Jump
	// CondJump materializes a choice on Guard between Label and fallthrough.
	CondJump
)

// BranchVerdict is the semantics module's answer to "what comes after this
// instruction", named in §4.1 and §6.
type BranchVerdict struct {
	Kind  BranchKind
	Label string     // meaningful for Jump and CondJump
	Guard value.Value // meaningful for CondJump only
}

// Context is the per-instruction context of §4.1: program-order index,
// owning thread, how many times the enclosing label has already been
// visited on this trace, and the label (if any) attached to this
// instruction's address. The instruction itself is not a field; it is the
// receiver of BuildSemantics.
type Context struct {
	ProgOrder   int
	Thread      int
	UnrollCount int
	Label       string
}

// Instruction is the collaborator contract: build_semantics from §6.
// Implementations append events to composer.State via composer.Lift and
// report how control continues.
type Instruction interface {
	BuildSemantics(ctx Context) (composer.Frag, BranchVerdict)
}

// AddressedInstr pairs an instruction with its address, §4.1's "(address,
// instruction) pairs".
type AddressedInstr struct {
	Address int
	Label   string // non-empty if this address is a jump target
	Instr   Instruction
}

// CodeBlock is an ordered sequence of addressed instructions, keyed by its
// entry label in a Program.
type CodeBlock struct {
	Instrs []AddressedInstr
}

// Program is the parsed input of §4.1: a mapping from labels to code
// blocks plus the list of thread start points.
type Program struct {
	Blocks map[string]CodeBlock
	Starts []ThreadStart
}

// ThreadStart names a thread's entry point.
type ThreadStart struct {
	Thread int
	Label  string
}
