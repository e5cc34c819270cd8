package semantics

import (
	"testing"

	"github.com/rst0git/herdtools7/composer"
	"github.com/rst0git/herdtools7/value"
)

// fixedInstr is a minimal Instruction used only to confirm Program/CodeBlock
// wiring; real instruction sets are supplied by internal/toyisa.
type fixedInstr struct {
	verdict BranchVerdict
}

func (f fixedInstr) BuildSemantics(Context) (composer.Frag, BranchVerdict) {
	return composer.Unit(), f.verdict
}

func TestProgramBlocksAreAddressableByLabel(t *testing.T) {
	prog := Program{
		Blocks: map[string]CodeBlock{
			"start": {Instrs: []AddressedInstr{
				{Address: 0, Instr: fixedInstr{verdict: BranchVerdict{Kind: Next}}},
			}},
		},
		Starts: []ThreadStart{{Thread: 0, Label: "start"}},
	}
	block, ok := prog.Blocks[prog.Starts[0].Label]
	if !ok {
		t.Fatal("expected the start label to resolve to a block")
	}
	if len(block.Instrs) != 1 {
		t.Fatalf("got %d instructions, want 1", len(block.Instrs))
	}
}

func TestCondJumpVerdictCarriesGuardAndLabel(t *testing.T) {
	guard := value.Var("g")
	instr := fixedInstr{verdict: BranchVerdict{Kind: CondJump, Label: "taken", Guard: guard}}
	_, verdict := instr.BuildSemantics(Context{Thread: 0, ProgOrder: 0})
	if verdict.Kind != CondJump {
		t.Fatalf("Kind = %v, want CondJump", verdict.Kind)
	}
	if verdict.Label != "taken" {
		t.Errorf("Label = %q, want %q", verdict.Label, "taken")
	}
	if !verdict.Guard.Equal(guard) {
		t.Errorf("Guard = %v, want %v", verdict.Guard, guard)
	}
}
