package liveness

import (
	"testing"

	"l2c/backends/linuxamd64/lir"
	IT "l2c/backends/linuxamd64/lir/instrkind"
	"l2c/backends/linuxamd64/lower"
	"l2c/core/ast"
	ak "l2c/core/ast/astkind"
	"l2c/ir/optimize"
	"l2c/ssa"

	T "github.com/padeir0/pir/types"
)

func lowered(params []*ast.Node, stmts ...*ast.Node) *lir.Procedure {
	fn := ast.Function("f", T.T_I32, params, stmts...)
	g := ssa.Translate(fn, ssa.Signatures(ast.Program(fn)), optimize.NewLocalValueNumbering())
	return lower.Lower(g)
}

// straightLine is: v0 = 1; v1 = 2; v2 = v0 + v1; rax = v2; ret
func straightLine() *lir.Procedure {
	p := lir.NewProcedure("f")
	v0, v1, v2 := p.NewVirtual(), p.NewVirtual(), p.NewVirtual()
	b := &lir.Block{Label: ".Lf_0"}
	b.Add(
		lir.NewLabel(".Lf_0"),
		lir.NewConst(v0, 1, T.T_I32),
		lir.NewConst(v1, 2, T.T_I32),
		lir.NewBinary(IT.Add, T.T_I32, v2, v0, v1),
		lir.NewMove(lir.Phys(lir.ReturnReg), v2),
		lir.NewReturn(),
	)
	p.Blocks = []*lir.Block{b}
	p.Link()
	return p
}

func TestStraightLine(t *testing.T) {
	p := straightLine()
	Analyze(p)
	code := p.Blocks[0].Code
	v0, v1, v2 := lir.Virt(0), lir.Virt(1), lir.Virt(2)
	tests := []struct {
		index int
		live  []lir.Register
	}{
		{1, nil},
		{2, []lir.Register{v0}},
		{3, []lir.Register{v0, v1}},
		{4, []lir.Register{v2}},
		{5, []lir.Register{lir.Phys(lir.ReturnReg)}},
	}
	for _, tt := range tests {
		live := code[tt.index].Live
		if len(live) != len(tt.live) {
			t.Errorf("%v: live %v, want %v", code[tt.index], live, tt.live)
			continue
		}
		for _, r := range tt.live {
			if !live.Has(r) {
				t.Errorf("%v: %v should be live", code[tt.index], r)
			}
		}
	}
	g := BuildInterference(p)
	if !g.Interferes(v0, v1) {
		t.Errorf("v0 is live when v1 is defined")
	}
	if g.Interferes(v0, v2) || g.Interferes(v1, v2) {
		t.Errorf("operands dying at the add do not interfere with its result")
	}
}

func TestMonotoneAndTerminating(t *testing.T) {
	p := lowered([]*ast.Node{ast.Param("n", T.T_I32)},
		ast.Decl("i", T.T_I32, ast.Int(0)),
		ast.Decl("s", T.T_I32, ast.Int(0)),
		ast.While(ast.Binary(ak.LESS, ast.Ident("i"), ast.Ident("n")), ast.Block(
			ast.Assign("s", ak.PLUS_ASSIGN, ast.Binary(ak.REMAINDER, ast.Ident("i"), ast.Int(3))),
			ast.Assign("i", ak.PLUS_ASSIGN, ast.Int(1)),
		)),
		ast.Return(ast.Ident("s")),
	)
	instrs := p.Instrs()
	for _, instr := range instrs {
		instr.Live = lir.NewRegSet(instr.Uses...)
	}
	sizes := func() []int {
		out := make([]int, len(instrs))
		for i, instr := range instrs {
			out[i] = len(instr.Live)
		}
		return out
	}
	prev := sizes()
	passes := 0
	for Relax(instrs) {
		passes++
		if passes > len(instrs)*len(instrs) {
			t.Fatalf("liveness did not converge")
		}
		curr := sizes()
		for i := range curr {
			if curr[i] < prev[i] {
				t.Fatalf("live set of %v shrank", instrs[i])
			}
		}
		prev = curr
	}
	if passes < 1 {
		t.Fatalf("a loop needs more than one pass to converge")
	}
	if Relax(instrs) {
		t.Fatalf("fixpoint must be stable")
	}
}

func TestDiamond(t *testing.T) {
	p := lowered([]*ast.Node{ast.Param("a", T.T_I32), ast.Param("b", T.T_I32), ast.Param("c", T.T_Bool)},
		ast.Decl("x", T.T_I32, nil),
		ast.If(ast.Ident("c"),
			ast.Assign("x", ak.ASSIGN, ast.Int(1)),
			ast.Assign("x", ak.ASSIGN, ast.Int(2))),
		ast.Return(ast.Binary(ak.PLUS, ast.Binary(ak.PLUS, ast.Ident("x"), ast.Ident("a")), ast.Ident("b"))),
	)
	Analyze(p)
	g := BuildInterference(p)
	a, b, c := p.Instrs()[1].Dest, p.Instrs()[2].Dest, p.Instrs()[3].Dest
	if !g.Interferes(a, b) {
		t.Errorf("a and b are live across the branch")
	}
	if !g.Interferes(a, c) || !g.Interferes(b, c) {
		t.Errorf("a and b are live while c is")
	}
	var phi lir.Register
	for _, instr := range p.Instrs() {
		if instr.T == IT.Add && instr.B == a {
			phi = instr.A
		}
	}
	if phi == lir.NoReg {
		t.Fatalf("x + a not found\n%v", p)
	}
	if !g.Interferes(phi, a) || !g.Interferes(phi, b) {
		t.Errorf("the merged value is live together with a and b")
	}
	for _, r := range g.Registers() {
		if !r.IsPhysical() {
			continue
		}
		for _, n := range g.Neighbours(r) {
			if n.IsPhysical() {
				t.Errorf("physical registers %v and %v must not be connected", r, n)
			}
		}
	}
}

func TestIsolatedRegisterIsNode(t *testing.T) {
	p := lowered(nil, ast.Return(ast.Int(3)))
	Analyze(p)
	g := BuildInterference(p)
	virtuals := g.Virtuals()
	if len(virtuals) != 1 {
		t.Fatalf("expected the constant's register, got %v", virtuals)
	}
	if len(g.Neighbours(virtuals[0])) != 0 {
		t.Fatalf("constant should not interfere with anything")
	}
}
