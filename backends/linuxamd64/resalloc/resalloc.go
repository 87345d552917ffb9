// Package resalloc maps virtual registers to physical registers or
// stack slots by coloring the interference graph in maximum
// cardinality search order.
package resalloc

import (
	"l2c/backends/linuxamd64/lir"
	"l2c/backends/linuxamd64/liveness"
	msg "l2c/messages"

	"github.com/samber/lo"
)

const WordSize = 8

type RegisterMapping struct {
	colors map[lir.Register]lir.Register
	slots  int
}

// Get returns the location of r. Physical registers are their own
// location, anything else must have been colored.
func (this *RegisterMapping) Get(r lir.Register) lir.Register {
	if r.IsPhysical() {
		return r
	}
	c, ok := this.colors[r]
	if !ok {
		panic(msg.UnresolvedRegister(r.String()))
	}
	return c
}

func (this *RegisterMapping) SpillSlots() int {
	return this.slots
}

// FrameSize is the number of bytes reserved below the return address
// for spill slots.
func (this *RegisterMapping) FrameSize() int {
	return this.slots * WordSize
}

func (this *RegisterMapping) String() string {
	out := ""
	regs := lir.NewRegSet(lo.Keys(this.colors)...)
	for _, r := range regs.Sorted() {
		out += r.String() + " -> " + this.colors[r].String() + "\n"
	}
	return out
}

type state struct {
	g      *liveness.Graph
	colors map[lir.Register]lir.Register
	slots  int
}

func Color(g *liveness.Graph) *RegisterMapping {
	s := &state{
		g:      g,
		colors: map[lir.Register]lir.Register{},
	}
	for _, r := range Order(g) {
		s.color(r)
	}
	return &RegisterMapping{colors: s.colors, slots: s.slots}
}

// Order returns the virtual registers in maximum cardinality search
// order. A register starts with the number of physical neighbours as
// its weight, ties go to the lowest register.
func Order(g *liveness.Graph) []lir.Register {
	remaining := g.Virtuals()
	weights := map[lir.Register]int{}
	for _, r := range remaining {
		weights[r] = lo.CountBy(g.Neighbours(r), func(n lir.Register) bool { return n.IsPhysical() })
	}
	order := make([]lir.Register, 0, len(remaining))
	for len(remaining) > 0 {
		next := lo.MaxBy(remaining, func(a, b lir.Register) bool {
			return weights[a] > weights[b]
		})
		order = append(order, next)
		remaining = lo.Without(remaining, next)
		for _, n := range g.Neighbours(next) {
			if n.IsVirtual() && lo.Contains(remaining, n) {
				weights[n]++
			}
		}
	}
	return order
}

func (s *state) color(r lir.Register) {
	if _, ok := s.colors[r]; ok {
		panic(msg.AlreadyColored(r.String()))
	}
	used := lir.RegSet{}
	for _, n := range s.g.Neighbours(r) {
		if n.IsPhysical() {
			used.Add(n)
		} else if c, ok := s.colors[n]; ok {
			used.Add(c)
		}
	}
	color := lir.NoReg
	for _, p := range lir.FreelyUsable {
		if !used.Has(lir.Phys(p)) {
			color = lir.Phys(p)
			break
		}
	}
	if color == lir.NoReg {
		color = s.spill(used)
	}
	for _, n := range s.g.Neighbours(r) {
		if c, ok := s.colors[n]; ok && c == color || n == color {
			panic(msg.ColorConflict(r.String(), n.String(), color.String()))
		}
	}
	s.colors[r] = color
}

// spill returns the lowest slot no neighbour occupies.
func (s *state) spill(used lir.RegSet) lir.Register {
	slot := 0
	for used.Has(lir.Slot(slot)) {
		slot++
	}
	if slot+1 > s.slots {
		s.slots = slot + 1
	}
	return lir.Slot(slot)
}
