// Package vcg writes graphs in the VCG format understood by yComp.
package vcg

import (
	"l2c/core/strbuilder"
	"l2c/ir"
	nk "l2c/ir/nodekind"
	"strconv"
	"strings"
)

func Print(g *ir.Graph) string {
	b := &strbuilder.Builder{}
	b.Line("graph: {")
	b.Line("  title: ", quote(g.Name))
	b.Line("  manhattan_edges: yes")
	b.Line("  layoutalgorithm: compilergraph")
	b.Line("  display_edge_labels: yes")
	for _, block := range g.Blocks() {
		printBlock(b, g, block)
	}
	for _, n := range g.Nodes {
		if n.Dead {
			continue
		}
		printEdges(b, g, n)
	}
	b.Line("}")
	return b.String()
}

func printBlock(b *strbuilder.Builder, g *ir.Graph, id ir.NodeID) {
	block := g.Node(id)
	b.Line("  graph: {")
	b.Line("    title: ", quote(title(block)))
	b.Line("    label: ", quote(block.String()))
	b.Line("    status: clustered")
	b.Line("    color: ", color(block))
	for _, n := range g.BlockNodes(id) {
		node := g.Node(n)
		b.Line("    node: { title: ", quote(title(node)), " label: ", quote(label(node)), " }")
	}
	b.Line("  }")
}

func printEdges(b *strbuilder.Builder, g *ir.Graph, n *ir.Node) {
	for i, p := range n.Preds {
		edge(b, title(n), title(g.Node(p)), strconv.Itoa(i), "")
	}
	if nk.IsExit(n.Kind) {
		for _, t := range n.Targets() {
			edge(b, title(g.Node(t)), title(n), "", "blue")
		}
	}
}

func edge(b *strbuilder.Builder, source, target, label, color string) {
	b.Place("  edge: { sourcename: " + quote(source) + " targetname: " + quote(target))
	if label != "" {
		b.Place(" label: " + quote(label))
	}
	if color != "" {
		b.Place(" color: " + color)
	}
	b.Line(" }")
}

func title(n *ir.Node) string {
	if n.Kind == nk.Block {
		return "block" + strconv.Itoa(int(n.ID))
	}
	return n.ID.String()
}

func label(n *ir.Node) string {
	out := n.Kind.String()
	switch n.Kind {
	case nk.ConstInt, nk.ConstBool:
		out += " " + strconv.FormatInt(n.Value, 10)
	case nk.Param:
		out += " " + strconv.Itoa(n.Index)
	case nk.Call:
		out += " " + n.Name
	case nk.Proj:
		out += " " + n.Proj.String()
	}
	if n.Type != nil {
		out += " : " + n.Type.String()
	}
	return out
}

func color(block *ir.Node) string {
	if block.Sealed {
		return "lightgrey"
	}
	return "red"
}

func quote(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
}
