package ast

import (
	"encoding/json"
	"io"
	"l2c/core"
	ak "l2c/core/ast/astkind"
	msg "l2c/messages"

	T "github.com/padeir0/pir/types"
)

type jsonPos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type jsonRange struct {
	Begin jsonPos `json:"begin"`
	End   jsonPos `json:"end"`
}

type jsonNode struct {
	Kind   string      `json:"kind"`
	Text   string      `json:"text,omitempty"`
	Value  int64       `json:"value,omitempty"`
	Type   string      `json:"type,omitempty"`
	Leaves []*jsonNode `json:"leaves,omitempty"`
	Range  *jsonRange  `json:"range,omitempty"`
}

// Decode reads a program serialized by the front-end.
func Decode(file string, r io.Reader) (*Node, *core.Error) {
	var root jsonNode
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&root); err != nil {
		return nil, msg.InvalidAST(file, err.Error())
	}
	n, err := convert(file, &root)
	if err != nil {
		return nil, err
	}
	if n.Kind != ak.PROGRAM {
		return nil, msg.InvalidAST(file, "root must be a program, got "+n.Kind.String())
	}
	return n, nil
}

func convert(file string, j *jsonNode) (*Node, *core.Error) {
	if j == nil {
		return nil, nil
	}
	kind, ok := ak.FromName(j.Kind)
	if !ok || kind == ak.UNDEFINED {
		return nil, msg.InvalidAST(file, "unknown node kind '"+j.Kind+"'")
	}
	t, err := convertType(file, j.Type)
	if err != nil {
		return nil, err
	}
	n := &Node{
		Kind:  kind,
		Text:  j.Text,
		Value: j.Value,
		T:     t,
	}
	switch kind {
	case ak.TRUE, ak.FALSE:
		n.T = T.T_Bool
	case ak.INT_LIT:
		n.T = T.T_I32
	}
	if j.Range != nil {
		n.Range = &core.Range{
			Begin: core.Position{Line: j.Range.Begin.Line, Column: j.Range.Begin.Column},
			End:   core.Position{Line: j.Range.End.Line, Column: j.Range.End.Column},
		}
	}
	for _, leaf := range j.Leaves {
		kid, err := convert(file, leaf)
		if err != nil {
			return nil, err
		}
		n.Leaves = append(n.Leaves, kid)
	}
	return n, nil
}

func convertType(file string, t string) (*T.Type, *core.Error) {
	switch t {
	case "":
		return nil, nil
	case "int":
		return T.T_I32, nil
	case "bool":
		return T.T_Bool, nil
	}
	return nil, msg.InvalidAST(file, "unknown type '"+t+"'")
}
