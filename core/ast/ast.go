// Package ast holds the already validated syntax tree handed to the
// backend by the front-end.
//
// Leaf layout per kind:
//
//	PROGRAM    functions...
//	FUNCTION   Text=name, T=return type, [PARAMS, BLOCK]
//	PARAMS     PARAM...
//	PARAM      Text=name, T
//	BLOCK      statements...
//	DECL       Text=name, T, [init] or []
//	ASSIGN...  Text=name, [expr]
//	IF         [cond, then, else] (else may be nil)
//	WHILE      [cond, body]
//	FOR        [init, cond, step, body] (init and step may be nil)
//	RETURN     [expr]
//	CALL       Text=callee, args...
//	TERNARY    [cond, then, else]
//	binary     [left, right]
//	unary      [operand]
//	INT_LIT    Value
//	IDENTIFIER Text
package ast

import (
	"fmt"
	"l2c/core"
	ak "l2c/core/ast/astkind"

	T "github.com/padeir0/pir/types"
)

type Node struct {
	Kind   ak.AstKind
	Text   string
	Value  int64
	T      *T.Type
	Leaves []*Node

	Range *core.Range
}

func (n *Node) String() string {
	return tree(n, 0)
}

func (this *Node) AddLeaf(other *Node) {
	this.Leaves = append(this.Leaves, other)
}

// Leaf returns nil for absent optional leaves.
func (this *Node) Leaf(i int) *Node {
	if i >= len(this.Leaves) {
		return nil
	}
	return this.Leaves[i]
}

func (this *Node) Functions() []*Node {
	if this.Kind != ak.PROGRAM {
		return nil
	}
	return this.Leaves
}

func (this *Node) Params() []*Node {
	params := this.Leaf(0)
	if params == nil {
		return nil
	}
	return params.Leaves
}

func (this *Node) Body() *Node {
	return this.Leaf(1)
}

func tree(n *Node, i int) string {
	if n == nil {
		return "nil"
	}
	t := ""
	if n.T != nil {
		t = ":" + n.T.String()
	}
	output := fmt.Sprintf("{%s '%s'%s", n.Kind, n.Text, t)
	if n.Kind == ak.INT_LIT {
		output += fmt.Sprintf(" %d", n.Value)
	}
	output += "}"
	for _, kid := range n.Leaves {
		if kid == nil {
			output += indent(i) + "nil"
			continue
		}
		output += indent(i) + tree(kid, i+1)
	}
	return output
}

func indent(n int) string {
	output := "\n"
	for i := -1; i < n-1; i++ {
		output += "    "
	}
	output += "└─>"
	return output
}
