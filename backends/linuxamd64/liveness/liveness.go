// Package liveness computes live registers per instruction and the
// interference graph the allocator colors.
package liveness

import (
	"l2c/backends/linuxamd64/lir"

	"github.com/samber/lo"
)

// Analyze iterates live(i) = uses(i) ∪ ⋃ (live(s) \ defs(i)) over
// every successor s until nothing changes. It returns the number of
// passes taken.
func Analyze(p *lir.Procedure) int {
	instrs := p.Instrs()
	for _, instr := range instrs {
		instr.Live = lir.NewRegSet(instr.Uses...)
	}
	passes := 1
	for Relax(instrs) {
		passes++
	}
	return passes
}

// Relax performs one backward pass, reporting whether any set grew.
func Relax(instrs []*lir.Instr) bool {
	changed := false
	for k := len(instrs) - 1; k >= 0; k-- {
		instr := instrs[k]
		for _, succ := range instr.Successors() {
			for r := range succ.Live {
				if instr.Defines(r) || instr.Live.Has(r) {
					continue
				}
				instr.Live.Add(r)
				changed = true
			}
		}
	}
	return changed
}

type Graph struct {
	edges map[lir.Register]lir.RegSet
}

func NewGraph() *Graph {
	return &Graph{edges: map[lir.Register]lir.RegSet{}}
}

func (this *Graph) AddNode(r lir.Register) {
	if _, ok := this.edges[r]; !ok {
		this.edges[r] = lir.RegSet{}
	}
}

// AddEdge ignores self edges and pairs of physical registers.
func (this *Graph) AddEdge(a, b lir.Register) {
	if a == b || a.IsPhysical() && b.IsPhysical() {
		return
	}
	this.AddNode(a)
	this.AddNode(b)
	this.edges[a].Add(b)
	this.edges[b].Add(a)
}

func (this *Graph) Interferes(a, b lir.Register) bool {
	return this.edges[a].Has(b)
}

func (this *Graph) Neighbours(r lir.Register) []lir.Register {
	return this.edges[r].Sorted()
}

func (this *Graph) Registers() []lir.Register {
	regs := lir.RegSet{}
	for r := range this.edges {
		regs.Add(r)
	}
	return regs.Sorted()
}

func (this *Graph) Virtuals() []lir.Register {
	return lo.Filter(this.Registers(), func(r lir.Register, _ int) bool {
		return r.IsVirtual()
	})
}

// BuildInterference expects Analyze to have run. Every register that
// appears in the procedure becomes a node, so registers that are never
// live together with anything still receive a color.
func BuildInterference(p *lir.Procedure) *Graph {
	g := NewGraph()
	for _, instr := range p.Instrs() {
		for _, r := range instr.Defs {
			g.AddNode(r)
		}
		for _, r := range instr.Uses {
			g.AddNode(r)
		}
		for _, def := range instr.Defs {
			for _, succ := range instr.Successors() {
				for r := range succ.Live {
					g.AddEdge(def, r)
				}
			}
		}
	}
	return g
}
