// Package lower turns an SSA graph into per-block instruction lists
// over virtual registers, resolving phis into moves.
package lower

import (
	"l2c/backends/linuxamd64/lir"
	IT "l2c/backends/linuxamd64/lir/instrkind"
	"l2c/ir"
	nk "l2c/ir/nodekind"
	pk "l2c/ir/projkind"
	msg "l2c/messages"
	"strconv"

	"github.com/samber/lo"
)

type state struct {
	g    *ir.Graph
	proc *lir.Procedure

	visited map[ir.NodeID]bool
	order   []ir.NodeID
	blocks  map[ir.NodeID]*lir.Block
	regs    map[ir.NodeID]lir.Register
	phis    []ir.NodeID
}

func Lower(g *ir.Graph) *lir.Procedure {
	s := &state{
		g:       g,
		proc:    lir.NewProcedure(g.Name),
		visited: map[ir.NodeID]bool{},
		blocks:  map[ir.NodeID]*lir.Block{},
		regs:    map[ir.NodeID]lir.Register{},
	}
	s.genParams()
	s.visit(g.End)
	s.visitUnreturning()
	s.ensureStartFirst()
	s.resolvePhis()
	s.genExits()
	for _, b := range s.order {
		s.proc.Blocks = append(s.proc.Blocks, s.block(b))
	}
	s.proc.Link()
	return s.proc
}

func BlockLabel(g *ir.Graph, block ir.NodeID) string {
	return ".L" + g.Name + "_" + strconv.Itoa(int(block))
}

func (s *state) block(id ir.NodeID) *lir.Block {
	b, ok := s.blocks[id]
	if !ok {
		label := BlockLabel(s.g, id)
		b = &lir.Block{Label: label, Code: []*lir.Instr{lir.NewLabel(label)}}
		s.blocks[id] = b
	}
	return b
}

func (s *state) reg(id ir.NodeID) lir.Register {
	r, ok := s.regs[id]
	if !ok {
		panic(msg.UnresolvedRegister(s.g.Name + ": " + s.g.Node(id).String()))
	}
	return r
}

func (s *state) newReg(id ir.NodeID) lir.Register {
	r := s.proc.NewVirtual()
	s.regs[id] = r
	return r
}

// genParams moves every argument out of its pinned register before
// anything else can clobber it.
func (s *state) genParams() {
	params := lo.Filter(s.g.Nodes, func(n *ir.Node, _ int) bool {
		return !n.Dead && n.Kind == nk.Param
	})
	if len(params) > len(lir.ArgRegs) {
		panic(msg.TooManyArguments(s.g.Name, len(params), len(lir.ArgRegs)))
	}
	start := s.block(s.g.Start)
	for _, p := range params {
		s.visited[p.ID] = true
		start.Add(lir.NewMove(s.newReg(p.ID), lir.Phys(lir.ArgRegs[p.Index])))
	}
}

// visit walks operands before users, so every block receives its
// instructions in dependency order. Blocks end up in post-order of
// the predecessor walk.
func (s *state) visit(id ir.NodeID) {
	if s.visited[id] {
		return
	}
	s.visited[id] = true
	n := s.g.Node(id)
	if n.Kind == nk.Block {
		for _, pred := range n.Preds {
			s.visit(pred)
		}
		if id != s.g.End {
			s.block(id)
			s.order = append(s.order, id)
		}
		if n.Exit != ir.NoNode {
			s.visit(n.Exit)
		}
		return
	}
	s.visit(n.Block)
	if n.Kind == nk.Phi && !n.SideEffect {
		// allocated up front, loop carried operands refer back to it
		s.newReg(id)
		s.phis = append(s.phis, id)
	}
	for _, p := range n.Preds {
		s.visit(p)
	}
	s.gen(n)
}

// visitUnreturning picks up blocks that never reach a return, such as
// the body of an endless loop.
func (s *state) visitUnreturning() {
	seen := map[ir.NodeID]bool{}
	work := []ir.NodeID{s.g.Start}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		if seen[b] || b == s.g.End {
			continue
		}
		seen[b] = true
		s.visit(b)
		work = append(work, s.g.Successors(b)...)
	}
}

func (s *state) ensureStartFirst() {
	if len(s.order) == 0 || s.order[0] == s.g.Start {
		return
	}
	rest := lo.Without(s.order, s.g.Start)
	s.order = append([]ir.NodeID{s.g.Start}, rest...)
}

func (s *state) gen(n *ir.Node) {
	b := s.block(n.Block)
	switch {
	case n.Kind == nk.Start, n.Kind == nk.Invalid, n.Kind == nk.Phi:
	case nk.IsExit(n.Kind):
		// handled by genExits once every block is complete
	case n.Kind == nk.Proj:
		if n.Proj == pk.Result {
			s.regs[n.ID] = s.reg(n.Preds[0])
		}
	case nk.IsConst(n.Kind):
		b.Add(lir.NewConst(s.newReg(n.ID), n.Value, n.Type))
	case n.Kind == nk.Div || n.Kind == nk.Mod:
		s.genDivMod(b, n)
	case n.Kind == nk.Shl || n.Kind == nk.Shr:
		kind := IT.Shl
		if n.Kind == nk.Shr {
			kind = IT.Sar
		}
		left, count := s.reg(n.Preds[0]), s.reg(n.Preds[1])
		b.Add(lir.NewMove(lir.Phys(lir.ShiftCount), count))
		b.Add(lir.NewShift(kind, s.newReg(n.ID), left))
	case nk.IsBinary(n.Kind):
		left, right := s.reg(n.Preds[0]), s.reg(n.Preds[1])
		b.Add(lir.NewBinary(binaryOp(n.Kind), n.Type, s.newReg(n.ID), left, right))
	case n.Kind == nk.BitNot:
		b.Add(lir.NewUnary(IT.Not, n.Type, s.newReg(n.ID), s.reg(n.Preds[0])))
	case n.Kind == nk.LogNot:
		b.Add(lir.NewUnary(IT.LogNot, n.Type, s.newReg(n.ID), s.reg(n.Preds[0])))
	case n.Kind == nk.Call:
		s.genCall(b, n)
	default:
		panic(msg.UnknownNode(n))
	}
}

// genDivMod pins the dividend to rdx:rax, the result comes out of
// Quotient or Remainder.
func (s *state) genDivMod(b *lir.Block, n *ir.Node) {
	left, right := s.reg(n.Preds[0]), s.reg(n.Preds[1])
	dest := s.newReg(n.ID)
	result := lir.Quotient
	if n.Kind == nk.Mod {
		result = lir.Remainder
	}
	b.Add(
		lir.NewMove(lir.Phys(lir.DividendLow), left),
		lir.NewCltd(),
		lir.NewIDiv(right),
		lir.NewMove(dest, lir.Phys(result)),
	)
}

func (s *state) genCall(b *lir.Block, n *ir.Node) {
	args := n.Preds[1:]
	if len(args) > len(lir.ArgRegs) {
		panic(msg.TooManyArguments(n.Name, len(args), len(lir.ArgRegs)))
	}
	for i, arg := range args {
		b.Add(lir.NewMove(lir.Phys(lir.ArgRegs[i]), s.reg(arg)))
	}
	b.Add(lir.NewCall(lir.FunctionLabel(n.Name), len(args)))
	b.Add(lir.NewMove(s.newReg(n.ID), lir.Phys(lir.ReturnReg)))
}

type move struct {
	dest lir.Register
	src  lir.Register
}

// resolvePhis appends, to the end of every predecessor, the moves
// that give each phi its incoming value. All sources are copied out
// before any phi is written, so phis that feed each other in a loop
// keep their old values.
func (s *state) resolvePhis() {
	byBlock := lo.GroupBy(s.phis, func(phi ir.NodeID) ir.NodeID { return s.g.Node(phi).Block })
	for _, block := range s.order {
		phis, ok := byBlock[block]
		if !ok {
			continue
		}
		for i, pred := range s.g.Node(block).Preds {
			moves := []move{}
			for _, phi := range phis {
				op := s.g.Node(phi).Preds[i]
				if s.g.Node(op).Kind == nk.Invalid {
					continue
				}
				moves = append(moves, move{dest: s.reg(phi), src: s.reg(op)})
			}
			s.genParallelMove(s.block(pred), moves)
		}
	}
}

func (s *state) genParallelMove(b *lir.Block, moves []move) {
	if len(moves) == 1 {
		b.Add(lir.NewMove(moves[0].dest, moves[0].src))
		return
	}
	temps := make([]lir.Register, len(moves))
	for i, m := range moves {
		temps[i] = s.proc.NewVirtual()
		b.Add(lir.NewMove(temps[i], m.src))
	}
	for i, m := range moves {
		b.Add(lir.NewMove(m.dest, temps[i]))
	}
}

func (s *state) genExits() {
	for i, id := range s.order {
		next := ir.NoNode
		if i+1 < len(s.order) {
			next = s.order[i+1]
		}
		block := s.g.Node(id)
		if block.Exit == ir.NoNode {
			panic(msg.MalformedGraph(s.g.Name + ": block without exit: " + block.String()))
		}
		exit := s.g.Node(block.Exit)
		b := s.block(id)
		switch exit.Kind {
		case nk.Return:
			b.Add(lir.NewMove(lir.Phys(lir.ReturnReg), s.reg(exit.Preds[1])))
			b.Add(lir.NewReturn())
		case nk.Jump:
			if exit.True != next {
				b.Add(lir.NewJump(BlockLabel(s.g, exit.True)))
			}
		case nk.If:
			cond := s.reg(exit.Preds[1])
			t := BlockLabel(s.g, exit.True)
			f := BlockLabel(s.g, exit.False)
			switch next {
			case exit.True:
				b.Add(lir.NewCondJump(IT.JumpZero, cond, f))
			case exit.False:
				b.Add(lir.NewCondJump(IT.JumpNonZero, cond, t))
			default:
				b.Add(lir.NewCondJump(IT.JumpZero, cond, f))
				b.Add(lir.NewJump(t))
			}
		default:
			panic(msg.UnknownNode(exit))
		}
	}
}

func binaryOp(k nk.NodeKind) IT.InstrKind {
	switch k {
	case nk.Add:
		return IT.Add
	case nk.Sub:
		return IT.Sub
	case nk.Mul:
		return IT.Mul
	case nk.BitAnd:
		return IT.And
	case nk.BitOr:
		return IT.Or
	case nk.BitXor:
		return IT.Xor
	case nk.Eq:
		return IT.Eq
	case nk.Neq:
		return IT.Neq
	case nk.Less:
		return IT.Less
	case nk.LessEq:
		return IT.LessEq
	case nk.Greater:
		return IT.Greater
	case nk.GreaterEq:
		return IT.GreaterEq
	}
	panic(msg.UnknownNode(k))
}
