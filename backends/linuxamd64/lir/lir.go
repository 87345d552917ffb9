// Package lir is the lowered, per-block instruction form the register
// allocator and emitter work on.
package lir

import (
	IT "l2c/backends/linuxamd64/lir/instrkind"
	msg "l2c/messages"
	"strconv"
	"strings"

	T "github.com/padeir0/pir/types"
	"github.com/samber/lo"
)

type Instr struct {
	T    IT.InstrKind
	Type *T.Type

	Dest  Register
	A     Register
	B     Register
	Value int64
	Label string

	Defs []Register
	Uses []Register
	Live RegSet

	// Next is the fallthrough successor, Target the jump target.
	Next   *Instr
	Target *Instr
}

func (this *Instr) Successors() []*Instr {
	out := make([]*Instr, 0, 2)
	if this.Next != nil {
		out = append(out, this.Next)
	}
	if this.Target != nil {
		out = append(out, this.Target)
	}
	return out
}

func (this *Instr) Defines(r Register) bool {
	return lo.Contains(this.Defs, r)
}

func (this *Instr) String() string {
	if this == nil {
		return "nil"
	}
	switch this.T {
	case IT.Label:
		return this.Label + ":"
	case IT.Const:
		return "const " + strconv.FormatInt(this.Value, 10) + " -> " + this.Dest.String()
	case IT.Jump, IT.Call:
		return this.T.String() + " " + this.Label
	case IT.JumpZero, IT.JumpNonZero:
		return this.T.String() + " " + this.A.String() + ", " + this.Label
	}
	ops := []string{}
	for _, r := range []Register{this.A, this.B} {
		if r != NoReg {
			ops = append(ops, r.String())
		}
	}
	out := this.T.String()
	if this.Type != nil {
		out += ":" + this.Type.String()
	}
	if len(ops) > 0 {
		out += " " + strings.Join(ops, ", ")
	}
	if this.Dest != NoReg {
		out += " -> " + this.Dest.String()
	}
	return out
}

func NewLabel(label string) *Instr {
	return &Instr{T: IT.Label, Label: label}
}

func NewMove(dest, src Register) *Instr {
	return &Instr{T: IT.Move, Dest: dest, A: src, Defs: []Register{dest}, Uses: []Register{src}}
}

func NewConst(dest Register, value int64, t *T.Type) *Instr {
	return &Instr{T: IT.Const, Type: t, Dest: dest, Value: value, Defs: []Register{dest}}
}

// NewBinary covers arithmetic, logic and comparisons.
func NewBinary(kind IT.InstrKind, t *T.Type, dest, a, b Register) *Instr {
	return &Instr{T: kind, Type: t, Dest: dest, A: a, B: b, Defs: []Register{dest}, Uses: []Register{a, b}}
}

// NewShift expects the count to be in ShiftCount already.
func NewShift(kind IT.InstrKind, dest, a Register) *Instr {
	count := Phys(ShiftCount)
	return &Instr{T: kind, Type: T.T_I32, Dest: dest, A: a, B: count, Defs: []Register{dest}, Uses: []Register{a, count}}
}

func NewUnary(kind IT.InstrKind, t *T.Type, dest, a Register) *Instr {
	return &Instr{T: kind, Type: t, Dest: dest, A: a, Defs: []Register{dest}, Uses: []Register{a}}
}

func NewCltd() *Instr {
	return &Instr{T: IT.Cltd, Defs: []Register{Phys(DividendHigh)}, Uses: []Register{Phys(DividendLow)}}
}

func NewIDiv(divisor Register) *Instr {
	return &Instr{
		T:    IT.IDiv,
		A:    divisor,
		Defs: []Register{Phys(Quotient), Phys(Remainder)},
		Uses: []Register{Phys(DividendLow), Phys(DividendHigh), divisor},
	}
}

func NewCall(label string, args int) *Instr {
	uses := lo.Map(ArgRegs[:args], func(p PhysReg, _ int) Register { return Phys(p) })
	defs := lo.Map(CallClobbered, func(p PhysReg, _ int) Register { return Phys(p) })
	return &Instr{T: IT.Call, Label: label, Defs: defs, Uses: uses}
}

func NewJump(label string) *Instr {
	return &Instr{T: IT.Jump, Label: label}
}

func NewCondJump(kind IT.InstrKind, cond Register, label string) *Instr {
	return &Instr{T: kind, A: cond, Label: label, Uses: []Register{cond}}
}

func NewReturn() *Instr {
	return &Instr{T: IT.Return, Uses: []Register{Phys(ReturnReg)}}
}

type Block struct {
	Label string
	Code  []*Instr
}

func (this *Block) Add(instrs ...*Instr) {
	this.Code = append(this.Code, instrs...)
}

func (this *Block) String() string {
	output := ""
	for _, instr := range this.Code {
		if instr.T == IT.Label {
			output += instr.String() + "\n"
			continue
		}
		output += "\t" + instr.String() + "\n"
	}
	return output
}

type Procedure struct {
	Name   string
	Label  string
	Blocks []*Block // emission order

	virtuals int
}

func NewProcedure(name string) *Procedure {
	return &Procedure{Name: name, Label: FunctionLabel(name)}
}

func FunctionLabel(name string) string {
	return "fn_" + name
}

func (this *Procedure) NewVirtual() Register {
	r := Virt(this.virtuals)
	this.virtuals++
	return r
}

func (this *Procedure) NumVirtuals() int {
	return this.virtuals
}

func (this *Procedure) Instrs() []*Instr {
	return lo.FlatMap(this.Blocks, func(b *Block, _ int) []*Instr { return b.Code })
}

// Link sets the control flow successors of every instruction.
func (this *Procedure) Link() {
	labels := map[string]*Instr{}
	instrs := this.Instrs()
	for _, instr := range instrs {
		if instr.T == IT.Label {
			labels[instr.Label] = instr
		}
	}
	for i, instr := range instrs {
		instr.Next = nil
		instr.Target = nil
		if IT.FallsThrough(instr.T) && i+1 < len(instrs) {
			instr.Next = instrs[i+1]
		}
		if IT.IsJump(instr.T) {
			target, ok := labels[instr.Label]
			if !ok {
				panic(msg.UndefinedLabel(instr.Label))
			}
			instr.Target = target
		}
	}
}

func (this *Procedure) String() string {
	output := this.Label + ":\n"
	for _, b := range this.Blocks {
		output += b.String()
	}
	return output
}
