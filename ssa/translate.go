package ssa

import (
	"l2c/core/ast"
	ak "l2c/core/ast/astkind"
	"l2c/ir"
	nk "l2c/ir/nodekind"
	"l2c/ir/optimize"
	msg "l2c/messages"

	T "github.com/padeir0/pir/types"
)

type loop struct {
	Continue ir.NodeID
	Break    ir.NodeID
}

type context struct {
	*Constructor
	loops      []loop
	signatures map[string]*T.Type
}

// Signatures maps every function of the program to its return type.
func Signatures(program *ast.Node) map[string]*T.Type {
	out := map[string]*T.Type{}
	for _, fn := range program.Functions() {
		out[fn.Text] = fn.T
	}
	return out
}

// Translate builds the graph of a single function.
func Translate(fn *ast.Node, signatures map[string]*T.Type, opt optimize.Optimizer) *ir.Graph {
	g := ir.NewGraph(fn.Text)
	g.Ret = fn.T
	c := &context{
		Constructor: NewConstructor(g, opt),
		signatures:  signatures,
	}
	for i, p := range fn.Params() {
		g.Params = append(g.Params, p.T)
		c.Declare(p.Text, p.T)
		c.WriteVariable(p.Text, g.Start, g.NewParam(i, p.T))
	}
	genStmt(c, fn.Body())
	if c.live() {
		// falling off the end returns zero
		c.Return(c.NewConst(0))
	}
	return c.Finish()
}

// live reports whether statements placed in the current block can
// execute.
func (c *context) live() bool {
	b := c.Graph.Node(c.CurrBlock)
	if b.Exit != ir.NoNode {
		return false
	}
	return !b.Sealed || len(b.Preds) > 0 || c.CurrBlock == c.Graph.Start
}

func (c *context) jump(target ir.NodeID) {
	if c.live() {
		c.Jump(target)
	}
}

func (c *context) innermost() loop {
	return c.loops[len(c.loops)-1]
}

func genStmt(c *context, stmt *ast.Node) {
	if stmt == nil || !c.live() {
		return
	}
	switch stmt.Kind {
	case ak.BLOCK:
		for _, s := range stmt.Leaves {
			if !c.live() {
				return
			}
			genStmt(c, s)
		}
	case ak.DECL:
		c.Declare(stmt.Text, stmt.T)
		if init := stmt.Leaf(0); init != nil {
			c.WriteVariable(stmt.Text, c.CurrBlock, genExpr(c, init))
		}
	case ak.IF:
		genIf(c, stmt)
	case ak.WHILE:
		genWhile(c, stmt)
	case ak.FOR:
		genFor(c, stmt)
	case ak.RETURN:
		c.Return(genExpr(c, stmt.Leaves[0]))
	case ak.BREAK:
		c.jump(c.innermost().Break)
	case ak.CONTINUE:
		c.jump(c.innermost().Continue)
	case ak.CALL:
		genCall(c, stmt)
	default:
		if ak.IsAssignment(stmt.Kind) {
			genAssign(c, stmt)
			return
		}
		panic(msg.UnknownSyntax("statement", stmt.Kind))
	}
}

func genAssign(c *context, assign *ast.Node) {
	value := genExpr(c, assign.Leaves[0])
	if assign.Kind != ak.ASSIGN {
		current := c.ReadVariable(assign.Text, c.CurrBlock)
		value = c.NewBinary(binaryOp(ak.Operator(assign.Kind)), current, value)
	}
	c.WriteVariable(assign.Text, c.CurrBlock, value)
}

func genIf(c *context, if_ *ast.Node) {
	cond := genExpr(c, if_.Leaves[0])
	trueEntry := c.NewBlock()
	falseEntry := c.NewBlock()
	c.Branch(cond, trueEntry, falseEntry)
	c.Seal(trueEntry)
	c.Seal(falseEntry)
	out := c.NewBlock()

	c.CurrBlock = trueEntry
	genStmt(c, if_.Leaves[1])
	c.jump(out)

	c.CurrBlock = falseEntry
	genStmt(c, if_.Leaf(2))
	c.jump(out)

	c.Seal(out)
	c.CurrBlock = out
}

func genWhile(c *context, while *ast.Node) {
	header := c.NewBlock()
	body := c.NewBlock()
	exit := c.NewBlock()
	c.jump(header)

	c.CurrBlock = header
	cond := genExpr(c, while.Leaves[0])
	c.Branch(cond, body, exit)
	c.Seal(body)

	c.loops = append(c.loops, loop{Continue: header, Break: exit})
	c.CurrBlock = body
	genStmt(c, while.Leaves[1])
	c.jump(header)
	c.loops = c.loops[:len(c.loops)-1]

	c.Seal(header)
	c.Seal(exit)
	c.CurrBlock = exit
}

func genFor(c *context, for_ *ast.Node) {
	genStmt(c, for_.Leaves[0])
	header := c.NewBlock()
	body := c.NewBlock()
	step := c.NewBlock()
	exit := c.NewBlock()
	c.jump(header)

	c.CurrBlock = header
	var cond ir.NodeID
	if for_.Leaves[1] != nil {
		cond = genExpr(c, for_.Leaves[1])
	} else {
		cond = c.NewBool(true)
	}
	c.Branch(cond, body, exit)
	c.Seal(body)

	c.loops = append(c.loops, loop{Continue: step, Break: exit})
	c.CurrBlock = body
	genStmt(c, for_.Leaves[3])
	c.jump(step)
	c.loops = c.loops[:len(c.loops)-1]

	c.Seal(step)
	c.CurrBlock = step
	genStmt(c, for_.Leaves[2])
	c.jump(header)

	c.Seal(header)
	c.Seal(exit)
	c.CurrBlock = exit
}

func genExpr(c *context, exp *ast.Node) ir.NodeID {
	switch exp.Kind {
	case ak.INT_LIT:
		return c.NewConst(exp.Value)
	case ak.TRUE:
		return c.NewBool(true)
	case ak.FALSE:
		return c.NewBool(false)
	case ak.IDENTIFIER:
		return c.ReadVariable(exp.Text, c.CurrBlock)
	case ak.CALL:
		return genCall(c, exp)
	case ak.TERNARY:
		return genTernary(c, exp.Leaves[0],
			func() ir.NodeID { return genExpr(c, exp.Leaves[1]) },
			func() ir.NodeID { return genExpr(c, exp.Leaves[2]) })
	case ak.AND:
		return genTernary(c, exp.Leaves[0],
			func() ir.NodeID { return genExpr(c, exp.Leaves[1]) },
			func() ir.NodeID { return c.NewBool(false) })
	case ak.OR:
		return genTernary(c, exp.Leaves[0],
			func() ir.NodeID { return c.NewBool(true) },
			func() ir.NodeID { return genExpr(c, exp.Leaves[1]) })
	case ak.NEG:
		operand := genExpr(c, exp.Leaves[0])
		return c.NewBinary(nk.Sub, c.NewConst(0), operand)
	case ak.NOT:
		return c.NewUnary(nk.LogNot, genExpr(c, exp.Leaves[0]))
	case ak.BITWISENOT:
		return c.NewUnary(nk.BitNot, genExpr(c, exp.Leaves[0]))
	}
	if ak.IsBinary(exp.Kind) {
		left := genExpr(c, exp.Leaves[0])
		right := genExpr(c, exp.Leaves[1])
		return c.NewBinary(binaryOp(exp.Kind), left, right)
	}
	panic(msg.UnknownSyntax("expression", exp.Kind))
}

// genTernary evaluates exactly one of the two arms, the value merges
// through a phi in the join block.
func genTernary(c *context, cond *ast.Node, then, else_ func() ir.NodeID) ir.NodeID {
	cnd := genExpr(c, cond)
	trueEntry := c.NewBlock()
	falseEntry := c.NewBlock()
	c.Branch(cnd, trueEntry, falseEntry)
	c.Seal(trueEntry)
	c.Seal(falseEntry)
	out := c.NewBlock()

	c.CurrBlock = trueEntry
	trueValue := then()
	c.Jump(out)

	c.CurrBlock = falseEntry
	falseValue := else_()
	c.Jump(out)

	c.Seal(out)
	c.CurrBlock = out
	t := c.Graph.Node(trueValue).Type
	if t == nil {
		t = c.Graph.Node(falseValue).Type
	}
	return c.NewPhi(out, t, trueValue, falseValue)
}

func genCall(c *context, call *ast.Node) ir.NodeID {
	args := make([]ir.NodeID, len(call.Leaves))
	for i, arg := range call.Leaves {
		args[i] = genExpr(c, arg)
	}
	ret, ok := c.signatures[call.Text]
	if !ok {
		ret = T.T_I32
	}
	return c.NewCall(call.Text, ret, args)
}

func binaryOp(op ak.AstKind) nk.NodeKind {
	switch op {
	case ak.PLUS:
		return nk.Add
	case ak.MINUS:
		return nk.Sub
	case ak.MULTIPLICATION:
		return nk.Mul
	case ak.DIVISION:
		return nk.Div
	case ak.REMAINDER:
		return nk.Mod
	case ak.BITWISEAND:
		return nk.BitAnd
	case ak.BITWISEOR:
		return nk.BitOr
	case ak.BITWISEXOR:
		return nk.BitXor
	case ak.SHIFTLEFT:
		return nk.Shl
	case ak.SHIFTRIGHT:
		return nk.Shr
	case ak.EQUALS:
		return nk.Eq
	case ak.DIFFERENT:
		return nk.Neq
	case ak.LESS:
		return nk.Less
	case ak.LESSEQ:
		return nk.LessEq
	case ak.MORE:
		return nk.Greater
	case ak.MOREEQ:
		return nk.GreaterEq
	}
	panic(msg.UnknownSyntax("binary operator", op))
}
