package checker

import (
	"testing"

	et "l2c/core/errorkind"
	"l2c/ir"
	nk "l2c/ir/nodekind"
	pk "l2c/ir/projkind"

	T "github.com/padeir0/pir/types"
)

// returning builds: return <value>
func returning(value func(g *ir.Graph) ir.NodeID) *ir.Graph {
	g := ir.NewGraph("f")
	g.Ret = T.T_I32
	side := g.NewProj(g.StartNode, pk.SideEffect)
	g.SetReturn(g.Start, side, value(g))
	g.Seal(g.Start)
	g.Seal(g.End)
	return g
}

// joined builds a second block reached from start that returns the phi
// made by mkPhi, which gets a single operand from start.
func joined(mkPhi func(g *ir.Graph, block ir.NodeID) ir.NodeID, operand func(g *ir.Graph) ir.NodeID) *ir.Graph {
	g := ir.NewGraph("f")
	g.Ret = T.T_I32
	side := g.NewProj(g.StartNode, pk.SideEffect)
	b := g.NewBlock()
	g.SetJump(g.Start, side, b)
	g.Seal(g.Start)
	g.Seal(b)
	phi := mkPhi(g, b)
	g.AppendOperand(phi, operand(g))
	if g.Node(phi).SideEffect {
		g.SetReturn(b, phi, g.NewConst(b, 0))
	} else {
		g.SetReturn(b, side, phi)
	}
	g.Seal(g.End)
	return g
}

func valuePhi(g *ir.Graph, b ir.NodeID) ir.NodeID { return g.NewPhi(b, T.T_I32) }
func effectPhi(g *ir.Graph, b ir.NodeID) ir.NodeID { return g.NewSideEffectPhi(b) }

func TestValid(t *testing.T) {
	g := returning(func(g *ir.Graph) ir.NodeID {
		one := g.NewConst(g.Start, 1)
		return g.NewNode(nk.Add, g.Start, T.T_I32, one, one)
	})
	if err := Check(g); err != nil {
		t.Fatal(err)
	}
}

func TestValidPhis(t *testing.T) {
	g := joined(valuePhi, func(g *ir.Graph) ir.NodeID { return g.NewConst(g.Start, 1) })
	if err := Check(g); err != nil {
		t.Fatalf("value phi: %v", err)
	}
	g = joined(effectPhi, func(g *ir.Graph) ir.NodeID { return g.NewProj(g.StartNode, pk.SideEffect) })
	if err := Check(g); err != nil {
		t.Fatalf("side-effect phi: %v", err)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		graph func() *ir.Graph
		code  et.ErrorKind
	}{
		{"unsealed", func() *ir.Graph {
			g := returning(func(g *ir.Graph) ir.NodeID { return g.NewConst(g.Start, 1) })
			g.Node(g.End).Sealed = false
			return g
		}, et.UnsealedBlock},
		{"no exit", func() *ir.Graph {
			g := ir.NewGraph("f")
			g.Seal(g.Start)
			return g
		}, et.MalformedGraph},
		{"return type", func() *ir.Graph {
			return returning(func(g *ir.Graph) ir.NodeID { return g.NewBool(g.Start, true) })
		}, et.MalformedGraph},
		{"operand type", func() *ir.Graph {
			return returning(func(g *ir.Graph) ir.NodeID {
				b := g.NewBool(g.Start, true)
				return g.NewNode(nk.Add, g.Start, T.T_I32, b, b)
			})
		}, et.MalformedGraph},
		{"dead operand", func() *ir.Graph {
			return returning(func(g *ir.Graph) ir.NodeID {
				one := g.NewConst(g.Start, 1)
				g.Discard(one)
				return g.NewNode(nk.BitNot, g.Start, T.T_I32, one)
			})
		}, et.MalformedGraph},
		{"phi arity", func() *ir.Graph {
			return returning(func(g *ir.Graph) ir.NodeID {
				phi := g.NewPhi(g.Start, T.T_I32)
				g.AppendOperand(phi, g.NewConst(g.Start, 1))
				return phi
			})
		}, et.UnsealedPhi},
		{"untyped phi", func() *ir.Graph {
			return joined(func(g *ir.Graph, b ir.NodeID) ir.NodeID { return g.NewPhi(b, nil) },
				func(g *ir.Graph) ir.NodeID { return g.NewConst(g.Start, 1) })
		}, et.MalformedGraph},
		{"phi operand type", func() *ir.Graph {
			return joined(valuePhi, func(g *ir.Graph) ir.NodeID { return g.NewBool(g.Start, true) })
		}, et.MalformedGraph},
		{"value in side-effect phi", func() *ir.Graph {
			return joined(effectPhi, func(g *ir.Graph) ir.NodeID { return g.NewConst(g.Start, 1) })
		}, et.MalformedGraph},
	}
	for _, tt := range tests {
		err := Check(tt.graph())
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if err.Code != tt.code {
			t.Errorf("%s: got %v, want code %v", tt.name, err, tt.code)
		}
	}
}
