package ssa

import (
	"testing"

	"l2c/core"
	"l2c/core/ast"
	ak "l2c/core/ast/astkind"
	et "l2c/core/errorkind"
	"l2c/ir"
	"l2c/ir/checker"
	nk "l2c/ir/nodekind"
	"l2c/ir/optimize"
	pk "l2c/ir/projkind"

	T "github.com/padeir0/pir/types"
)

var (
	I    = T.T_I32
	Bool = T.T_Bool
	id   = ast.Ident
	num  = ast.Int
)

func build(t *testing.T, params []*ast.Node, stmts ...*ast.Node) *ir.Graph {
	t.Helper()
	fn := ast.Function("f", I, params, stmts...)
	g := Translate(fn, Signatures(ast.Program(fn)), optimize.NewLocalValueNumbering())
	if err := checker.Check(g); err != nil {
		t.Fatalf("%v\n%v", err, g)
	}
	return g
}

func ofKind(g *ir.Graph, kind nk.NodeKind) []*ir.Node {
	out := []*ir.Node{}
	for _, n := range g.Nodes {
		if !n.Dead && n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func returns(g *ir.Graph) []*ir.Node {
	return ofKind(g, nk.Return)
}

func TestStraightLine(t *testing.T) {
	g := build(t, nil,
		ast.Decl("x", I, num(1)),
		ast.Return(ast.Binary(ak.PLUS, id("x"), num(2))),
	)
	if n := g.CountKind(nk.Phi); n != 0 {
		t.Fatalf("expected no phis, got %d\n%v", n, g)
	}
	rets := returns(g)
	if len(rets) != 1 {
		t.Fatalf("expected one return")
	}
	add := g.Node(rets[0].Preds[1])
	if add.Kind != nk.Add {
		t.Fatalf("expected add, got %v", add)
	}
	if g.Node(add.Preds[0]).Value != 1 || g.Node(add.Preds[1]).Value != 2 {
		t.Fatalf("bad operands %v", add.Preds)
	}
}

func TestNoPhiForUnchangedVariable(t *testing.T) {
	g := build(t, []*ast.Node{ast.Param("c", Bool)},
		ast.Decl("x", I, num(1)),
		ast.If(id("c"), ast.Block(), ast.Block()),
		ast.Return(id("x")),
	)
	if n := g.CountKind(nk.Phi); n != 0 {
		t.Fatalf("expected no phis, got %d\n%v", n, g)
	}
	ret := returns(g)[0]
	if v := g.Node(ret.Preds[1]); v.Kind != nk.ConstInt || v.Value != 1 {
		t.Fatalf("return should use the constant directly, got %v", v)
	}
}

func TestPhiAtJoin(t *testing.T) {
	g := build(t, []*ast.Node{ast.Param("c", Bool)},
		ast.Decl("x", I, nil),
		ast.If(id("c"),
			ast.Assign("x", ak.ASSIGN, num(1)),
			ast.Assign("x", ak.ASSIGN, num(2))),
		ast.Return(id("x")),
	)
	phis := ofKind(g, nk.Phi)
	if len(phis) != 1 {
		t.Fatalf("expected one phi, got %d\n%v", len(phis), g)
	}
	phi := phis[0]
	block := g.Node(phi.Block)
	if len(phi.Preds) != 2 || len(block.Preds) != 2 {
		t.Fatalf("phi operands must align with predecessors")
	}
	if g.Node(phi.Preds[0]).Value != 1 || g.Node(phi.Preds[1]).Value != 2 {
		t.Fatalf("operands out of order: %v", phi.Preds)
	}
	if returns(g)[0].Preds[1] != phi.ID {
		t.Fatalf("return should use the phi")
	}
}

func TestLoopCarriedPhi(t *testing.T) {
	g := build(t, nil,
		ast.Decl("i", I, num(0)),
		ast.While(ast.Binary(ak.LESS, id("i"), num(10)),
			ast.Assign("i", ak.PLUS_ASSIGN, num(1))),
		ast.Return(id("i")),
	)
	phis := ofKind(g, nk.Phi)
	if len(phis) != 1 {
		t.Fatalf("expected one phi, got %d\n%v", len(phis), g)
	}
	phi := phis[0]
	if len(phi.Preds) != 2 {
		t.Fatalf("header phi needs two operands")
	}
	inc := g.Node(phi.Preds[1])
	if inc.Kind != nk.Add || inc.Preds[0] != phi.ID {
		t.Fatalf("back edge operand should be i+1 of the phi, got %v", inc)
	}
	if g.CountKind(nk.Invalid) != 0 {
		t.Fatalf("no invalid values expected")
	}
}

func TestLoopInvariantHasNoPhi(t *testing.T) {
	g := build(t, []*ast.Node{ast.Param("c", Bool)},
		ast.Decl("x", I, num(5)),
		ast.While(id("c"), ast.Block()),
		ast.Return(id("x")),
	)
	if n := g.CountKind(nk.Phi); n != 0 {
		t.Fatalf("trivial loop phis should be removed, %d left\n%v", n, g)
	}
}

func TestSideEffectChain(t *testing.T) {
	g := build(t, []*ast.Node{ast.Param("a", I), ast.Param("b", I), ast.Param("c", I)},
		ast.Return(ast.Binary(ak.REMAINDER,
			ast.Binary(ak.DIVISION, id("a"), id("b")),
			id("c"))),
	)
	divs := ofKind(g, nk.Div)
	mods := ofKind(g, nk.Mod)
	if len(divs) != 1 || len(mods) != 1 {
		t.Fatalf("expected one div and one mod\n%v", g)
	}
	div, mod := divs[0], mods[0]
	first := g.Node(div.Preds[2])
	if first.Kind != nk.Proj || first.Proj != pk.SideEffect || first.Preds[0] != g.StartNode {
		t.Fatalf("div should consume the initial side effect, got %v", first)
	}
	second := g.Node(mod.Preds[2])
	if second.Proj != pk.SideEffect || second.Preds[0] != div.ID {
		t.Fatalf("mod should consume the div's side effect, got %v", second)
	}
	ret := returns(g)[0]
	last := g.Node(ret.Preds[0])
	if last.Proj != pk.SideEffect || last.Preds[0] != mod.ID {
		t.Fatalf("return should carry the mod's side effect, got %v", last)
	}
	result := g.Node(ret.Preds[1])
	if result.Proj != pk.Result || result.Preds[0] != mod.ID {
		t.Fatalf("return should use the mod's result, got %v", result)
	}
}

func TestSideEffectPhiInLoop(t *testing.T) {
	g := build(t, []*ast.Node{ast.Param("c", Bool), ast.Param("x", I)},
		ast.While(id("c"), ast.Assign("x", ak.DIVISION_ASSIGN, num(2))),
		ast.Return(id("x")),
	)
	phis := ofKind(g, nk.Phi)
	if len(phis) != 2 {
		t.Fatalf("expected a value phi and a side-effect phi, got %d\n%v", len(phis), g)
	}
	effects := 0
	for _, p := range phis {
		if p.SideEffect {
			effects++
			if p.Type != nil {
				t.Fatalf("side-effect phi with a type: %v", p)
			}
		} else if !p.Type.Equals(I) {
			t.Fatalf("value phi has type %v", p.Type)
		}
	}
	if effects != 1 {
		t.Fatalf("expected exactly one side-effect phi")
	}
}

// the inner header phis only see each other and the outer header phis
// while they are filled
func TestNestedLoopSwap(t *testing.T) {
	g := build(t, nil,
		ast.Decl("a", I, num(3)),
		ast.Decl("x", I, num(0)),
		ast.Decl("y", I, num(1)),
		ast.Decl("i", I, num(0)),
		ast.While(ast.Binary(ak.LESS, id("i"), id("a")), ast.Block(
			ast.Decl("j", I, num(0)),
			ast.While(ast.Binary(ak.LESS, id("j"), id("a")), ast.Block(
				ast.Decl("t", I, id("x")),
				ast.Assign("x", ak.ASSIGN, id("y")),
				ast.Assign("y", ak.ASSIGN, id("t")),
				ast.Assign("j", ak.PLUS_ASSIGN, num(1)),
			)),
			ast.Assign("i", ak.PLUS_ASSIGN, num(1)),
		)),
		ast.Return(id("x")),
	)
	phis := ofKind(g, nk.Phi)
	if len(phis) < 4 {
		t.Fatalf("expected phis for x and y in both headers\n%v", g)
	}
	for _, p := range phis {
		if p.SideEffect {
			continue
		}
		if p.Type == nil || !p.Type.Equals(I) {
			t.Fatalf("phi %v has type %v\n%v", p, p.Type, g)
		}
	}
}

func TestTernaryPhiType(t *testing.T) {
	g := build(t, []*ast.Node{ast.Param("c", Bool), ast.Param("b", Bool)},
		ast.Decl("x", Bool, ast.Ternary(id("c"), id("b"), ast.Bool(false))),
		ast.Return(ast.Ternary(id("x"), num(1), num(2))),
	)
	types := map[string]int{}
	for _, p := range ofKind(g, nk.Phi) {
		types[p.Type.String()]++
	}
	if types["bool"] != 1 || types["i32"] != 1 {
		t.Fatalf("unexpected phi types %v\n%v", types, g)
	}
}

func TestBreakLeavesInnermostLoop(t *testing.T) {
	g := build(t, []*ast.Node{ast.Param("a", Bool), ast.Param("b", Bool)},
		ast.While(id("a"), ast.Block(
			ast.While(id("b"), ast.Break()),
			ast.Return(num(7)),
		)),
		ast.Return(num(3)),
	)
	found := false
	for _, ret := range returns(g) {
		v := g.Node(ret.Preds[1])
		if v.Value == 7 {
			found = true
			if n := len(g.Node(ret.Block).Preds); n != 2 {
				t.Fatalf("inner exit should be reached by the header and the break, has %d preds\n%v", n, g)
			}
		}
	}
	if !found {
		t.Fatalf("return 7 missing\n%v", g)
	}
}

func TestContinueInFor(t *testing.T) {
	// for (i = 0; i < 10; i += 1) { if (c) continue; s += i; } return s;
	g := build(t, []*ast.Node{ast.Param("c", Bool)},
		ast.Decl("s", I, num(0)),
		ast.For(
			ast.Decl("i", I, num(0)),
			ast.Binary(ak.LESS, id("i"), num(10)),
			ast.Assign("i", ak.PLUS_ASSIGN, num(1)),
			ast.Block(
				ast.If(id("c"), ast.Continue(), nil),
				ast.Assign("s", ak.PLUS_ASSIGN, id("i")),
			)),
		ast.Return(id("s")),
	)
	var step *ir.Node
	for _, n := range ofKind(g, nk.Add) {
		if rhs := g.Node(n.Preds[1]); rhs.Kind == nk.ConstInt && rhs.Value == 1 {
			step = g.Node(n.Block)
		}
	}
	if step == nil {
		t.Fatalf("increment missing\n%v", g)
	}
	if len(step.Preds) != 2 {
		t.Fatalf("step block should merge continue and body end, has %d preds\n%v", len(step.Preds), g)
	}
}

func TestStatementsAfterReturnIgnored(t *testing.T) {
	g := build(t, nil,
		ast.Return(num(1)),
		ast.Return(num(2)),
	)
	if n := len(returns(g)); n != 1 {
		t.Fatalf("expected a single return, got %d", n)
	}
}

func TestBothBranchesReturn(t *testing.T) {
	g := build(t, []*ast.Node{ast.Param("c", Bool)},
		ast.If(id("c"), ast.Return(num(1)), ast.Return(num(2))),
		ast.Return(num(3)),
	)
	if n := len(returns(g)); n != 2 {
		t.Fatalf("code after a fully returning if is unreachable, got %d returns", n)
	}
	if n := len(g.Node(g.End).Preds); n != 2 {
		t.Fatalf("end block should have two predecessors, has %d", n)
	}
}

func TestShortCircuit(t *testing.T) {
	g := build(t, []*ast.Node{ast.Param("a", Bool), ast.Param("b", Bool)},
		ast.If(ast.Binary(ak.AND, id("a"), id("b")), ast.Return(num(1)), nil),
		ast.Return(num(0)),
	)
	phis := ofKind(g, nk.Phi)
	if len(phis) != 1 {
		t.Fatalf("&& should merge through one phi, got %d\n%v", len(phis), g)
	}
	if phis[0].Type != Bool {
		t.Fatalf("phi should be boolean, got %v", phis[0].Type)
	}
	rhs := g.Node(phis[0].Preds[0])
	if rhs.Kind != nk.Param || rhs.Index != 1 {
		t.Fatalf("true arm should yield b, got %v", rhs)
	}
}

func TestValueNumbering(t *testing.T) {
	sum := func() *ast.Node { return ast.Binary(ak.PLUS, id("a"), id("b")) }
	g := build(t, []*ast.Node{ast.Param("a", I), ast.Param("b", I)},
		ast.Return(ast.Binary(ak.MULTIPLICATION, sum(), sum())),
	)
	if n := g.CountKind(nk.Add); n != 1 {
		t.Fatalf("expected a single add, got %d", n)
	}
}

func TestCall(t *testing.T) {
	callee := ast.Function("g", I, []*ast.Node{ast.Param("x", I)}, ast.Return(id("x")))
	caller := ast.Function("f", I, nil,
		ast.Call("g", num(1)),
		ast.Return(ast.Call("g", num(2))),
	)
	g := Translate(caller, Signatures(ast.Program(callee, caller)), optimize.None{})
	if err := checker.Check(g); err != nil {
		t.Fatal(err)
	}
	calls := ofKind(g, nk.Call)
	if len(calls) != 2 {
		t.Fatalf("expected two calls")
	}
	second := g.Node(calls[1].Preds[0])
	if second.Preds[0] != calls[0].ID {
		t.Fatalf("second call must follow the first in the side-effect chain")
	}
}

func TestFallOffReturnsZero(t *testing.T) {
	g := build(t, []*ast.Node{ast.Param("c", Bool)},
		ast.If(id("c"), ast.Return(num(4)), nil),
	)
	rets := returns(g)
	if len(rets) != 2 {
		t.Fatalf("expected implicit return")
	}
	if v := g.Node(rets[1].Preds[1]); v.Value != 0 {
		t.Fatalf("implicit return should yield 0, got %v", v)
	}
}

func TestUnknownStatement(t *testing.T) {
	fn := ast.Function("f", I, nil, num(1))
	defer func() {
		err, ok := recover().(*core.Error)
		if !ok || err.Code != et.UnknownSyntax {
			t.Fatalf("expected UnknownSyntax, got %v", err)
		}
	}()
	Translate(fn, Signatures(ast.Program(fn)), nil)
}
