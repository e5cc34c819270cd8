package value

import "testing"

func TestValueEqual(t *testing.T) {
	type Record struct {
		Name     string
		A, B     Value
		Expected bool
	}

	tests := []Record{
		{Name: "equal constants", A: Const(3), B: Const(3), Expected: true},
		{Name: "different constants", A: Const(3), B: Const(4), Expected: false},
		{Name: "equal variables", A: Var("x"), B: Var("x"), Expected: true},
		{Name: "different variables", A: Var("x"), B: Var("y"), Expected: false},
		{Name: "variable never equals constant", A: Var("x"), B: Const(0), Expected: false},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			if got := test.A.Equal(test.B); got != test.Expected {
				t.Errorf("Equal() = %v, want %v", got, test.Expected)
			}
		})
	}
}

func TestSubstitutionApplyChains(t *testing.T) {
	sigma := NewSubstitution(map[string]Value{
		"a": Var("b"),
		"b": Var("c"),
		"c": Const(7),
	})
	got := sigma.Apply(Var("a"))
	if !got.Equal(Const(7)) {
		t.Errorf("Apply(a) = %v, want 7", got)
	}
}

func TestSubstitutionApplyUnbound(t *testing.T) {
	sigma := NewSubstitution(map[string]Value{"a": Const(1)})
	got := sigma.Apply(Var("z"))
	if !got.IsVar() || got.Name() != "z" {
		t.Errorf("Apply(z) = %v, want unresolved z", got)
	}
}

func TestEmptySubstitutionIsIdentity(t *testing.T) {
	v := Var("x")
	if got := Empty.Apply(v); !got.Equal(v) {
		t.Errorf("Empty.Apply(x) = %v, want x", got)
	}
	c := Const(42)
	if got := Empty.Apply(c); !got.Equal(c) {
		t.Errorf("Empty.Apply(42) = %v, want 42", got)
	}
}

func TestSubstitutionApplyCyclicPanics(t *testing.T) {
	sigma := NewSubstitution(map[string]Value{
		"a": Var("b"),
		"b": Var("a"),
	})
	defer func() {
		if recover() == nil {
			t.Error("expected panic on cyclic substitution")
		}
	}()
	sigma.Apply(Var("a"))
}
