package optimize

import (
	"testing"

	"l2c/ir"
	nk "l2c/ir/nodekind"

	T "github.com/padeir0/pir/types"
)

func TestLocalValueNumbering(t *testing.T) {
	g := ir.NewGraph("f")
	other := g.NewBlock()
	lvn := NewLocalValueNumbering()

	one := lvn.Transform(g, g.NewConst(g.Start, 1))
	oneAgain := lvn.Transform(g, g.NewConst(g.Start, 1))
	if one != oneAgain {
		t.Fatalf("constants in the same block should merge")
	}
	oneElsewhere := lvn.Transform(g, g.NewConst(other, 1))
	if oneElsewhere == one {
		t.Fatalf("numbering is local to a block")
	}
	two := lvn.Transform(g, g.NewConst(g.Start, 2))

	add := lvn.Transform(g, g.NewNode(nk.Add, g.Start, T.T_I32, one, two))
	swapped := lvn.Transform(g, g.NewNode(nk.Add, g.Start, T.T_I32, two, one))
	if add != swapped {
		t.Fatalf("commutative operands should merge")
	}
	sub := lvn.Transform(g, g.NewNode(nk.Sub, g.Start, T.T_I32, one, two))
	subSwapped := lvn.Transform(g, g.NewNode(nk.Sub, g.Start, T.T_I32, two, one))
	if sub == subSwapped {
		t.Fatalf("subtraction is not commutative")
	}
	if g.CountKind(nk.ConstInt) != 3 {
		t.Fatalf("expected 3 live constants, got %d", g.CountKind(nk.ConstInt))
	}
}

func TestSideEffectsNotMerged(t *testing.T) {
	g := ir.NewGraph("f")
	lvn := NewLocalValueNumbering()
	one := g.NewConst(g.Start, 1)
	a := lvn.Transform(g, g.NewNode(nk.Div, g.Start, T.T_I32, one, one, g.StartNode))
	b := lvn.Transform(g, g.NewNode(nk.Div, g.Start, T.T_I32, one, one, g.StartNode))
	if a == b {
		t.Fatalf("divisions must not be merged")
	}
	var none None
	c := g.NewConst(g.Start, 1)
	if none.Transform(g, c) != c {
		t.Fatalf("None must not rewrite")
	}
}
