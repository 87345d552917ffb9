// Package ir is the SSA graph the constructor builds and the backend
// lowers. Nodes live in an arena owned by the Graph and refer to each
// other by NodeID.
package ir

import (
	"fmt"
	nk "l2c/ir/nodekind"
	pk "l2c/ir/projkind"
	msg "l2c/messages"
	"strconv"
	"strings"

	T "github.com/padeir0/pir/types"
)

// index into Graph.Nodes
type NodeID int

const NoNode NodeID = -1

func (this NodeID) String() string {
	if this == NoNode {
		return "none"
	}
	return "n" + strconv.Itoa(int(this))
}

type Node struct {
	ID    NodeID
	Kind  nk.NodeKind
	Block NodeID
	// Operands. Exit nodes carry the side effect first, blocks carry
	// their predecessor blocks.
	Preds []NodeID
	Type  *T.Type

	Value int64       // ConstInt, ConstBool
	Index int         // Param
	Name  string      // Call
	Proj  pk.ProjKind // Proj

	Exit   NodeID // Block
	Sealed bool   // Block
	True   NodeID // Jump, If
	False  NodeID // If

	// Phi merging the side-effect chain instead of a value
	SideEffect bool
	Dead       bool
}

func (this *Node) String() string {
	if this == nil {
		return "nil"
	}
	switch this.Kind {
	case nk.Block:
		return "b" + strconv.Itoa(int(this.ID))
	case nk.ConstInt:
		return this.ID.String() + "(" + strconv.FormatInt(this.Value, 10) + ")"
	}
	return this.ID.String() + "(" + this.Kind.String() + ")"
}

// IsSideEffect reports whether the node is a link of the side-effect
// chain.
func (this *Node) IsSideEffect() bool {
	switch this.Kind {
	case nk.Proj:
		return this.Proj == pk.SideEffect
	case nk.Phi:
		return this.SideEffect
	}
	return false
}

// Key identifies a node by value: two pure nodes with the same key
// compute the same value.
type Key struct {
	Kind  nk.NodeKind
	Block NodeID
	Value int64
	Index int
	Name  string
	Proj  pk.ProjKind
	Preds string
}

func (this *Node) Key() Key {
	preds := make([]string, len(this.Preds))
	for i, p := range this.Preds {
		preds[i] = strconv.Itoa(int(p))
	}
	return Key{
		Kind:  this.Kind,
		Block: this.Block,
		Value: this.Value,
		Index: this.Index,
		Name:  this.Name,
		Proj:  this.Proj,
		Preds: strings.Join(preds, ","),
	}
}

type Graph struct {
	Name  string
	Nodes []*Node

	Start     NodeID // first block
	End       NodeID // every return jumps here
	StartNode NodeID
	Params    []*T.Type
	Ret       *T.Type
}

func NewGraph(name string) *Graph {
	g := &Graph{Name: name}
	g.Start = g.NewBlock()
	g.End = g.NewBlock()
	g.StartNode = g.add(&Node{Kind: nk.Start, Block: g.Start})
	return g
}

func (this *Graph) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(this.Nodes) {
		panic(msg.MalformedGraph("node id out of range: " + id.String()))
	}
	return this.Nodes[id]
}

func (this *Graph) add(n *Node) NodeID {
	n.ID = NodeID(len(this.Nodes))
	if n.Kind != nk.Block {
		n.Exit = NoNode
	}
	n.True = NoNode
	n.False = NoNode
	this.Nodes = append(this.Nodes, n)
	return n.ID
}

func (this *Graph) NewBlock() NodeID {
	id := this.add(&Node{Kind: nk.Block, Exit: NoNode})
	this.Nodes[id].Block = id
	return id
}

func (this *Graph) NewNode(kind nk.NodeKind, block NodeID, t *T.Type, preds ...NodeID) NodeID {
	return this.add(&Node{
		Kind:  kind,
		Block: block,
		Type:  t,
		Preds: preds,
	})
}

func (this *Graph) NewConst(block NodeID, value int64) NodeID {
	return this.add(&Node{Kind: nk.ConstInt, Block: block, Type: T.T_I32, Value: value})
}

func (this *Graph) NewBool(block NodeID, value bool) NodeID {
	v := int64(0)
	if value {
		v = 1
	}
	return this.add(&Node{Kind: nk.ConstBool, Block: block, Type: T.T_Bool, Value: v})
}

func (this *Graph) NewParam(index int, t *T.Type) NodeID {
	return this.add(&Node{
		Kind:  nk.Param,
		Block: this.Start,
		Type:  t,
		Index: index,
		Preds: []NodeID{this.StartNode},
	})
}

func (this *Graph) NewProj(of NodeID, kind pk.ProjKind) NodeID {
	src := this.Node(of)
	var t *T.Type
	if kind == pk.Result {
		t = src.Type
	}
	return this.add(&Node{Kind: nk.Proj, Block: src.Block, Type: t, Proj: kind, Preds: []NodeID{of}})
}

func (this *Graph) NewCall(block NodeID, name string, ret *T.Type, sideEffect NodeID, args []NodeID) NodeID {
	preds := append([]NodeID{sideEffect}, args...)
	return this.add(&Node{Kind: nk.Call, Block: block, Type: ret, Name: name, Preds: preds})
}

// NewPhi returns a value phi without operands, filled by
// AppendOperand.
func (this *Graph) NewPhi(block NodeID, t *T.Type) NodeID {
	return this.add(&Node{Kind: nk.Phi, Block: block, Type: t})
}

func (this *Graph) NewSideEffectPhi(block NodeID) NodeID {
	return this.add(&Node{Kind: nk.Phi, Block: block, SideEffect: true})
}

func (this *Graph) NewInvalid(block NodeID) NodeID {
	return this.add(&Node{Kind: nk.Invalid, Block: block})
}

func (this *Graph) AppendOperand(phi NodeID, operand NodeID) {
	n := this.Node(phi)
	n.Preds = append(n.Preds, operand)
}

func (this *Graph) AddPredecessor(block NodeID, pred NodeID) {
	b := this.Node(block)
	if b.Sealed {
		panic(msg.PredecessorAfterSeal(b))
	}
	b.Preds = append(b.Preds, pred)
}

func (this *Graph) Seal(block NodeID) {
	this.Node(block).Sealed = true
}

func (this *Graph) HasExit(block NodeID) bool {
	return this.Node(block).Exit != NoNode
}

// SetJump, SetIf and SetReturn give a block its exit. Only the first
// exit set on a block takes effect; they report whether it did.
func (this *Graph) SetJump(block, sideEffect, target NodeID) bool {
	if this.HasExit(block) {
		return false
	}
	exit := this.NewNode(nk.Jump, block, nil, sideEffect)
	this.Nodes[exit].True = target
	this.Nodes[block].Exit = exit
	this.AddPredecessor(target, block)
	return true
}

func (this *Graph) SetIf(block, sideEffect, cond, t, f NodeID) bool {
	if this.HasExit(block) {
		return false
	}
	exit := this.NewNode(nk.If, block, nil, sideEffect, cond)
	this.Nodes[exit].True = t
	this.Nodes[exit].False = f
	this.Nodes[block].Exit = exit
	this.AddPredecessor(t, block)
	this.AddPredecessor(f, block)
	return true
}

func (this *Graph) SetReturn(block, sideEffect, result NodeID) bool {
	if this.HasExit(block) {
		return false
	}
	exit := this.NewNode(nk.Return, block, nil, sideEffect, result)
	this.Nodes[exit].True = this.End
	this.Nodes[block].Exit = exit
	this.AddPredecessor(this.End, block)
	return true
}

// Targets returns the successor blocks of an exit node, true first.
func (this *Node) Targets() []NodeID {
	switch this.Kind {
	case nk.Jump, nk.Return:
		return []NodeID{this.True}
	case nk.If:
		return []NodeID{this.True, this.False}
	}
	return nil
}

func (this *Graph) Successors(block NodeID) []NodeID {
	exit := this.Node(block).Exit
	if exit == NoNode {
		return nil
	}
	return this.Node(exit).Targets()
}

// Users lists live nodes that take id as an operand, once per user.
func (this *Graph) Users(id NodeID) []NodeID {
	out := []NodeID{}
	for _, n := range this.Nodes {
		if n.Dead || n.Kind == nk.Block {
			continue
		}
		for _, p := range n.Preds {
			if p == id {
				out = append(out, n.ID)
				break
			}
		}
	}
	return out
}

// ReplaceUses rewrites every operand referring to old so that it
// refers to new instead.
func (this *Graph) ReplaceUses(old, new NodeID) {
	for _, n := range this.Nodes {
		if n.Dead || n.Kind == nk.Block {
			continue
		}
		for i, p := range n.Preds {
			if p == old {
				n.Preds[i] = new
			}
		}
	}
}

func (this *Graph) Discard(id NodeID) {
	this.Node(id).Dead = true
}

func (this *Graph) Blocks() []NodeID {
	out := []NodeID{}
	for _, n := range this.Nodes {
		if n.Kind == nk.Block {
			out = append(out, n.ID)
		}
	}
	return out
}

// BlockNodes lists the live non-block nodes owned by a block in
// creation order.
func (this *Graph) BlockNodes(block NodeID) []NodeID {
	out := []NodeID{}
	for _, n := range this.Nodes {
		if !n.Dead && n.Kind != nk.Block && n.Block == block {
			out = append(out, n.ID)
		}
	}
	return out
}

func (this *Graph) CountKind(kind nk.NodeKind) int {
	count := 0
	for _, n := range this.Nodes {
		if !n.Dead && n.Kind == kind {
			count++
		}
	}
	return count
}

func (this *Graph) String() string {
	output := this.Name + "(" + StrTypes(this.Params) + ")"
	if this.Ret != nil {
		output += " " + this.Ret.String()
	}
	output += ":\n"
	for _, b := range this.Blocks() {
		output += this.strBlock(b)
	}
	return output
}

func (this *Graph) strBlock(id NodeID) string {
	b := this.Node(id)
	output := b.String()
	switch id {
	case this.Start:
		output += " (start)"
	case this.End:
		output += " (end)"
	}
	preds := []string{}
	for _, p := range b.Preds {
		preds = append(preds, this.Node(p).String())
	}
	output += " <- [" + strings.Join(preds, ", ") + "]\n"
	for _, n := range this.BlockNodes(id) {
		output += "\t" + this.strNode(this.Node(n)) + "\n"
	}
	return output
}

func (this *Graph) strNode(n *Node) string {
	ops := []string{}
	for _, p := range n.Preds {
		ops = append(ops, p.String())
	}
	body := n.Kind.String()
	switch n.Kind {
	case nk.ConstInt, nk.ConstBool:
		body += " " + strconv.FormatInt(n.Value, 10)
	case nk.Param:
		body += " #" + strconv.Itoa(n.Index)
	case nk.Call:
		body += " " + n.Name
	case nk.Proj:
		body += " " + n.Proj.String()
	case nk.Phi:
		if n.SideEffect {
			body += " effect"
		}
	}
	if len(ops) > 0 {
		body += " " + strings.Join(ops, ", ")
	}
	if nk.IsExit(n.Kind) {
		targets := []string{}
		for _, t := range n.Targets() {
			targets = append(targets, this.Node(t).String())
		}
		return body + " -> " + strings.Join(targets, ", ")
	}
	if n.Type != nil {
		return fmt.Sprintf("%v:%v = %v", n.ID, n.Type.String(), body)
	}
	return fmt.Sprintf("%v = %v", n.ID, body)
}

func StrTypes(tps []*T.Type) string {
	output := []string{}
	for _, t := range tps {
		output = append(output, t.String())
	}
	return strings.Join(output, ", ")
}
