// Package optimize holds the node rewrite hook the SSA constructor
// calls for every freshly created value node.
package optimize

import (
	"l2c/ir"
	nk "l2c/ir/nodekind"
)

type Optimizer interface {
	// Transform returns the node that should stand for id. When it
	// returns something other than id, id has been discarded.
	Transform(g *ir.Graph, id ir.NodeID) ir.NodeID
}

type None struct{}

func (None) Transform(g *ir.Graph, id ir.NodeID) ir.NodeID {
	return id
}

// LocalValueNumbering merges pure nodes that compute the same value
// inside one block.
type LocalValueNumbering struct {
	known map[ir.Key]ir.NodeID
}

func NewLocalValueNumbering() *LocalValueNumbering {
	return &LocalValueNumbering{known: map[ir.Key]ir.NodeID{}}
}

func (this *LocalValueNumbering) Transform(g *ir.Graph, id ir.NodeID) ir.NodeID {
	n := g.Node(id)
	if !nk.IsPure(n.Kind) {
		return id
	}
	key := n.Key()
	if other, ok := this.known[key]; ok && !g.Node(other).Dead {
		g.Discard(id)
		return other
	}
	if nk.IsCommutative(n.Kind) {
		swapped := *n
		swapped.Preds = []ir.NodeID{n.Preds[1], n.Preds[0]}
		if other, ok := this.known[swapped.Key()]; ok && !g.Node(other).Dead {
			g.Discard(id)
			return other
		}
	}
	this.known[key] = id
	return id
}
