// Package checker verifies the structural invariants of a finished
// graph before it reaches the backend.
package checker

import (
	"l2c/core"
	"l2c/ir"
	nk "l2c/ir/nodekind"
	msg "l2c/messages"
	"strconv"

	T "github.com/padeir0/pir/types"
)

func Check(g *ir.Graph) *core.Error {
	s := &state{g: g, visited: map[ir.NodeID]bool{}}
	err := s.checkBlock(g.Start)
	if err != nil {
		return err
	}
	for _, n := range g.Nodes {
		if n.Dead || !s.visited[n.Block] {
			continue
		}
		err := s.checkNode(n)
		if err != nil {
			return err
		}
	}
	return nil
}

type state struct {
	g       *ir.Graph
	visited map[ir.NodeID]bool
}

func (s *state) fail(n *ir.Node, message string) *core.Error {
	return msg.MalformedGraph(s.g.Name + ": " + n.String() + ": " + message)
}

func (s *state) checkBlock(id ir.NodeID) *core.Error {
	if s.visited[id] {
		return nil
	}
	s.visited[id] = true
	b := s.g.Node(id)
	if !b.Sealed {
		return msg.UnsealedBlock(b)
	}
	if id == s.g.End {
		return nil
	}
	if b.Exit == ir.NoNode {
		return s.fail(b, "reachable block without exit")
	}
	for _, succ := range s.g.Node(b.Exit).Targets() {
		err := s.checkBlock(succ)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *state) checkNode(n *ir.Node) *core.Error {
	if n.Kind == nk.Block {
		return nil
	}
	for _, p := range n.Preds {
		op := s.g.Node(p)
		if op.Dead {
			return s.fail(n, "operand "+op.String()+" was discarded")
		}
		if op.Kind == nk.Block {
			return s.fail(n, "block used as operand")
		}
	}
	switch {
	case n.Kind == nk.Phi:
		preds := len(s.g.Node(n.Block).Preds)
		if len(n.Preds) != preds {
			return msg.UnsealedPhi(n, len(n.Preds), preds)
		}
		return s.checkPhi(n)
	case nk.IsComparison(n.Kind):
		return s.checkOperands(n, 2, T.T_Bool)
	case nk.IsBinary(n.Kind):
		if nk.HasSideEffect(n.Kind) {
			err := s.checkSideEffect(n, n.Preds[2])
			if err != nil {
				return err
			}
		}
		return s.checkOperands(n, 2, T.T_I32)
	case n.Kind == nk.BitNot:
		return s.checkOperands(n, 1, T.T_I32)
	case n.Kind == nk.LogNot:
		return s.checkOperands(n, 1, T.T_Bool)
	case n.Kind == nk.Call:
		return s.checkSideEffect(n, n.Preds[0])
	case n.Kind == nk.If:
		err := s.checkSideEffect(n, n.Preds[0])
		if err != nil {
			return err
		}
		return s.checkType(n, s.g.Node(n.Preds[1]), T.T_Bool)
	case n.Kind == nk.Jump:
		return s.checkSideEffect(n, n.Preds[0])
	case n.Kind == nk.Return:
		err := s.checkSideEffect(n, n.Preds[0])
		if err != nil {
			return err
		}
		return s.checkType(n, s.g.Node(n.Preds[1]), s.g.Ret)
	}
	return nil
}

func (s *state) checkOperands(n *ir.Node, arity int, result *T.Type) *core.Error {
	if len(n.Preds) < arity {
		return s.fail(n, "expected "+strconv.Itoa(arity)+" operands, has "+strconv.Itoa(len(n.Preds)))
	}
	operand := T.T_I32
	if n.Kind == nk.LogNot || n.Kind == nk.Eq || n.Kind == nk.Neq {
		operand = s.g.Node(n.Preds[0]).Type
	}
	for _, p := range n.Preds[:arity] {
		err := s.checkType(n, s.g.Node(p), operand)
		if err != nil {
			return err
		}
	}
	if !n.Type.Equals(result) {
		return s.fail(n, "has type "+n.Type.String()+", expected "+result.String())
	}
	return nil
}

// checkType accepts untyped invalid values, they only show up on
// paths that never read them.
func (s *state) checkType(user *ir.Node, op *ir.Node, want *T.Type) *core.Error {
	if op.Kind == nk.Invalid || want == nil {
		return nil
	}
	if op.Type == nil || !op.Type.Equals(want) {
		return s.fail(user, "operand "+op.String()+" has type "+op.Type.String()+", expected "+want.String())
	}
	return nil
}

func (s *state) checkSideEffect(user *ir.Node, id ir.NodeID) *core.Error {
	op := s.g.Node(id)
	if op.IsSideEffect() {
		return nil
	}
	return s.fail(user, "expected side effect, got "+op.String())
}

// checkPhi: side-effect phis merge side effects, value phis are typed
// and agree with every operand.
func (s *state) checkPhi(phi *ir.Node) *core.Error {
	if phi.SideEffect {
		for _, p := range phi.Preds {
			op := s.g.Node(p)
			if op.Kind == nk.Invalid {
				continue
			}
			err := s.checkSideEffect(phi, p)
			if err != nil {
				return err
			}
		}
		return nil
	}
	if phi.Type == nil {
		return s.fail(phi, "value phi without type")
	}
	for _, p := range phi.Preds {
		err := s.checkType(phi, s.g.Node(p), phi.Type)
		if err != nil {
			return err
		}
	}
	return nil
}
