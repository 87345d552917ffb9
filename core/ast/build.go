package ast

import (
	ak "l2c/core/ast/astkind"

	T "github.com/padeir0/pir/types"
)

// Constructors below build trees in the layout documented on Node.

func Program(fns ...*Node) *Node {
	return &Node{Kind: ak.PROGRAM, Leaves: fns}
}

func Function(name string, ret *T.Type, params []*Node, stmts ...*Node) *Node {
	return &Node{
		Kind: ak.FUNCTION,
		Text: name,
		T:    ret,
		Leaves: []*Node{
			{Kind: ak.PARAMS, Leaves: params},
			Block(stmts...),
		},
	}
}

func Param(name string, t *T.Type) *Node {
	return &Node{Kind: ak.PARAM, Text: name, T: t}
}

func Block(stmts ...*Node) *Node {
	return &Node{Kind: ak.BLOCK, Leaves: stmts}
}

func Decl(name string, t *T.Type, init *Node) *Node {
	n := &Node{Kind: ak.DECL, Text: name, T: t}
	if init != nil {
		n.Leaves = []*Node{init}
	}
	return n
}

func Assign(name string, op ak.AstKind, value *Node) *Node {
	return &Node{Kind: op, Text: name, Leaves: []*Node{value}}
}

func If(cond, then, els *Node) *Node {
	return &Node{Kind: ak.IF, Leaves: []*Node{cond, then, els}}
}

func While(cond, body *Node) *Node {
	return &Node{Kind: ak.WHILE, Leaves: []*Node{cond, body}}
}

func For(init, cond, step, body *Node) *Node {
	return &Node{Kind: ak.FOR, Leaves: []*Node{init, cond, step, body}}
}

func Return(value *Node) *Node {
	return &Node{Kind: ak.RETURN, Leaves: []*Node{value}}
}

func Break() *Node {
	return &Node{Kind: ak.BREAK}
}

func Continue() *Node {
	return &Node{Kind: ak.CONTINUE}
}

func Int(v int64) *Node {
	return &Node{Kind: ak.INT_LIT, Value: v, T: T.T_I32}
}

func Bool(b bool) *Node {
	if b {
		return &Node{Kind: ak.TRUE, T: T.T_Bool}
	}
	return &Node{Kind: ak.FALSE, T: T.T_Bool}
}

func Ident(name string) *Node {
	return &Node{Kind: ak.IDENTIFIER, Text: name}
}

func Binary(op ak.AstKind, left, right *Node) *Node {
	return &Node{Kind: op, Leaves: []*Node{left, right}}
}

func Unary(op ak.AstKind, operand *Node) *Node {
	return &Node{Kind: op, Leaves: []*Node{operand}}
}

func Ternary(cond, then, els *Node) *Node {
	return &Node{Kind: ak.TERNARY, Leaves: []*Node{cond, then, els}}
}

func Call(name string, args ...*Node) *Node {
	return &Node{Kind: ak.CALL, Text: name, Leaves: args}
}
