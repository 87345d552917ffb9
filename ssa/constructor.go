// Package ssa builds SSA graphs straight from the syntax tree. Phis are
// placed on the fly while reading variables; a block is sealed once all
// of its predecessors are known.
package ssa

import (
	"l2c/ir"
	nk "l2c/ir/nodekind"
	"l2c/ir/optimize"
	pk "l2c/ir/projkind"
	msg "l2c/messages"

	T "github.com/padeir0/pir/types"
)

type incompletePhi struct {
	Name string
	Phi  ir.NodeID
}

type Constructor struct {
	Graph *ir.Graph
	opt   optimize.Optimizer

	currentDef     map[string]map[ir.NodeID]ir.NodeID
	incompletePhis map[ir.NodeID][]incompletePhi
	// declared type of every variable, phis for it carry this type
	types map[string]*T.Type

	currentSideEffect        map[ir.NodeID]ir.NodeID
	incompleteSideEffectPhis map[ir.NodeID]ir.NodeID

	CurrBlock ir.NodeID
}

func NewConstructor(g *ir.Graph, opt optimize.Optimizer) *Constructor {
	if opt == nil {
		opt = optimize.None{}
	}
	c := &Constructor{
		Graph:                    g,
		opt:                      opt,
		currentDef:               map[string]map[ir.NodeID]ir.NodeID{},
		incompletePhis:           map[ir.NodeID][]incompletePhi{},
		types:                    map[string]*T.Type{},
		currentSideEffect:        map[ir.NodeID]ir.NodeID{},
		incompleteSideEffectPhis: map[ir.NodeID]ir.NodeID{},
		CurrBlock:                g.Start,
	}
	c.Seal(g.Start)
	c.WriteSideEffect(g.Start, g.NewProj(g.StartNode, pk.SideEffect))
	return c
}

func (this *Constructor) NewBlock() ir.NodeID {
	return this.Graph.NewBlock()
}

// Declare records the type of a variable before its first write.
func (this *Constructor) Declare(name string, t *T.Type) {
	this.types[name] = t
}

func (this *Constructor) WriteVariable(name string, block ir.NodeID, value ir.NodeID) {
	defs, ok := this.currentDef[name]
	if !ok {
		defs = map[ir.NodeID]ir.NodeID{}
		this.currentDef[name] = defs
	}
	defs[block] = value
}

func (this *Constructor) ReadVariable(name string, block ir.NodeID) ir.NodeID {
	if v, ok := this.currentDef[name][block]; ok {
		return v
	}
	return this.readVariableRecursive(name, block)
}

func (this *Constructor) readVariableRecursive(name string, block ir.NodeID) ir.NodeID {
	g := this.Graph
	b := g.Node(block)
	var val ir.NodeID
	switch {
	case !b.Sealed:
		val = g.NewPhi(block, this.types[name])
		this.incompletePhis[block] = append(this.incompletePhis[block], incompletePhi{name, val})
	case len(b.Preds) == 1:
		val = this.ReadVariable(name, b.Preds[0])
	default:
		phi := g.NewPhi(block, this.types[name])
		// written before recursing, so cycles through loops end here
		this.WriteVariable(name, block, phi)
		val = this.addPhiOperands(phi, func(pred ir.NodeID) ir.NodeID {
			return this.ReadVariable(name, pred)
		})
	}
	this.WriteVariable(name, block, val)
	return val
}

func (this *Constructor) WriteSideEffect(block ir.NodeID, value ir.NodeID) {
	this.currentSideEffect[block] = value
}

func (this *Constructor) ReadSideEffect(block ir.NodeID) ir.NodeID {
	if v, ok := this.currentSideEffect[block]; ok {
		return v
	}
	return this.readSideEffectRecursive(block)
}

func (this *Constructor) readSideEffectRecursive(block ir.NodeID) ir.NodeID {
	g := this.Graph
	b := g.Node(block)
	var val ir.NodeID
	switch {
	case !b.Sealed:
		val = g.NewSideEffectPhi(block)
		this.incompleteSideEffectPhis[block] = val
	case len(b.Preds) == 1:
		val = this.ReadSideEffect(b.Preds[0])
	default:
		phi := g.NewSideEffectPhi(block)
		this.WriteSideEffect(block, phi)
		val = this.addPhiOperands(phi, this.ReadSideEffect)
	}
	this.WriteSideEffect(block, val)
	return val
}

func (this *Constructor) addPhiOperands(phi ir.NodeID, read func(ir.NodeID) ir.NodeID) ir.NodeID {
	g := this.Graph
	block := g.Node(phi).Block
	for _, pred := range g.Node(block).Preds {
		g.AppendOperand(phi, read(pred))
	}
	return this.tryRemoveTrivialPhi(phi)
}

func (this *Constructor) tryRemoveTrivialPhi(phi ir.NodeID) ir.NodeID {
	g := this.Graph
	same := ir.NoNode
	for _, op := range g.Node(phi).Preds {
		if op == same || op == phi {
			continue
		}
		if same != ir.NoNode {
			return phi
		}
		same = op
	}
	if same == ir.NoNode {
		same = g.NewInvalid(g.Node(phi).Block)
	}
	users := g.Users(phi)
	this.replace(phi, same)
	g.Discard(phi)
	for _, user := range users {
		n := g.Node(user)
		if user == phi || n.Dead || n.Kind != nk.Phi {
			continue
		}
		// phis still being filled are simplified once complete
		if len(n.Preds) == len(g.Node(n.Block).Preds) {
			this.tryRemoveTrivialPhi(user)
		}
	}
	return same
}

// replace rewrites graph operands and every definition table.
func (this *Constructor) replace(old, new ir.NodeID) {
	this.Graph.ReplaceUses(old, new)
	for _, defs := range this.currentDef {
		for block, v := range defs {
			if v == old {
				defs[block] = new
			}
		}
	}
	for block, v := range this.currentSideEffect {
		if v == old {
			this.currentSideEffect[block] = new
		}
	}
}

// Seal fills the block's incomplete phis, after which no predecessor
// may be added to it.
func (this *Constructor) Seal(block ir.NodeID) {
	g := this.Graph
	b := g.Node(block)
	if b.Sealed {
		return
	}
	g.Seal(block)
	for _, inc := range this.incompletePhis[block] {
		name := inc.Name
		this.addPhiOperands(inc.Phi, func(pred ir.NodeID) ir.NodeID {
			return this.ReadVariable(name, pred)
		})
		this.checkComplete(inc.Phi)
	}
	delete(this.incompletePhis, block)
	if phi, ok := this.incompleteSideEffectPhis[block]; ok {
		this.addPhiOperands(phi, this.ReadSideEffect)
		this.checkComplete(phi)
		delete(this.incompleteSideEffectPhis, block)
	}
}

func (this *Constructor) checkComplete(phi ir.NodeID) {
	n := this.Graph.Node(phi)
	if n.Dead {
		return
	}
	preds := len(this.Graph.Node(n.Block).Preds)
	if len(n.Preds) != preds {
		panic(msg.UnsealedPhi(n, len(n.Preds), preds))
	}
}

// Finish seals the end block and verifies nothing was left open.
func (this *Constructor) Finish() *ir.Graph {
	this.Seal(this.Graph.End)
	for _, b := range this.Graph.Blocks() {
		if !this.Graph.Node(b).Sealed {
			panic(msg.UnsealedBlock(this.Graph.Node(b)))
		}
	}
	return this.Graph
}

func (this *Constructor) NewConst(value int64) ir.NodeID {
	return this.opt.Transform(this.Graph, this.Graph.NewConst(this.CurrBlock, value))
}

func (this *Constructor) NewBool(value bool) ir.NodeID {
	return this.opt.Transform(this.Graph, this.Graph.NewBool(this.CurrBlock, value))
}

func (this *Constructor) NewBinary(kind nk.NodeKind, left, right ir.NodeID) ir.NodeID {
	if nk.HasSideEffect(kind) {
		return this.newDivMod(kind, left, right)
	}
	t := T.T_I32
	if nk.IsComparison(kind) {
		t = T.T_Bool
	}
	id := this.Graph.NewNode(kind, this.CurrBlock, t, left, right)
	return this.opt.Transform(this.Graph, id)
}

func (this *Constructor) NewUnary(kind nk.NodeKind, operand ir.NodeID) ir.NodeID {
	t := T.T_I32
	if kind == nk.LogNot {
		t = T.T_Bool
	}
	id := this.Graph.NewNode(kind, this.CurrBlock, t, operand)
	return this.opt.Transform(this.Graph, id)
}

func (this *Constructor) newDivMod(kind nk.NodeKind, left, right ir.NodeID) ir.NodeID {
	side := this.ReadSideEffect(this.CurrBlock)
	id := this.Graph.NewNode(kind, this.CurrBlock, T.T_I32, left, right, side)
	id = this.opt.Transform(this.Graph, id)
	return this.project(id)
}

func (this *Constructor) NewCall(name string, ret *T.Type, args []ir.NodeID) ir.NodeID {
	side := this.ReadSideEffect(this.CurrBlock)
	id := this.Graph.NewCall(this.CurrBlock, name, ret, side, args)
	return this.project(id)
}

// project threads a side-effecting node into the side-effect chain and
// returns its result projection.
func (this *Constructor) project(id ir.NodeID) ir.NodeID {
	this.WriteSideEffect(this.CurrBlock, this.Graph.NewProj(id, pk.SideEffect))
	return this.Graph.NewProj(id, pk.Result)
}

// NewPhi builds a complete phi of type t for a value that merges at
// block, one operand per predecessor.
func (this *Constructor) NewPhi(block ir.NodeID, t *T.Type, operands ...ir.NodeID) ir.NodeID {
	phi := this.Graph.NewPhi(block, t)
	for _, op := range operands {
		this.Graph.AppendOperand(phi, op)
	}
	this.checkComplete(phi)
	return this.tryRemoveTrivialPhi(phi)
}

func (this *Constructor) Jump(target ir.NodeID) {
	if this.Graph.HasExit(this.CurrBlock) {
		return
	}
	this.Graph.SetJump(this.CurrBlock, this.ReadSideEffect(this.CurrBlock), target)
}

func (this *Constructor) Branch(cond, t, f ir.NodeID) {
	if this.Graph.HasExit(this.CurrBlock) {
		return
	}
	this.Graph.SetIf(this.CurrBlock, this.ReadSideEffect(this.CurrBlock), cond, t, f)
}

func (this *Constructor) Return(value ir.NodeID) {
	if this.Graph.HasExit(this.CurrBlock) {
		return
	}
	this.Graph.SetReturn(this.CurrBlock, this.ReadSideEffect(this.CurrBlock), value)
}
