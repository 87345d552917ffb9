// Package gas prints allocated procedures as GNU assembler source in
// AT&T syntax. Every value is 32 bits wide.
package gas

import (
	"l2c/backends/linuxamd64/lir"
	IT "l2c/backends/linuxamd64/lir/instrkind"
	"l2c/backends/linuxamd64/resalloc"
	"l2c/core/strbuilder"
	msg "l2c/messages"
	"strconv"
	"sync/atomic"
)

type AsmProgram struct {
	Name     string
	Contents string
}

// Function is a procedure together with the locations chosen for its
// virtual registers.
type Function struct {
	Proc    *lir.Procedure
	Mapping *resalloc.RegisterMapping
}

// comparison labels are numbered across the whole process, so two
// programs generated concurrently never share one.
var cmpLabels atomic.Int64

func Generate(name string, fns []*Function) *AsmProgram {
	bodies := make([]string, len(fns))
	for i, fn := range fns {
		bodies[i] = GenerateFunction(fn)
	}
	return Program(name, bodies)
}

// Program puts the entry in front of already generated functions.
func Program(name string, bodies []string) *AsmProgram {
	b := &strbuilder.Builder{}
	genEntry(b)
	for _, body := range bodies {
		b.Place(body)
	}
	b.Line(`.section .note.GNU-stack,"",@progbits`)
	return &AsmProgram{Name: name, Contents: b.String()}
}

// GenerateFunction is the text of a single function, without the
// program entry.
func GenerateFunction(fn *Function) string {
	b := &strbuilder.Builder{}
	genFunction(b, fn)
	return b.String()
}

func genEntry(b *strbuilder.Builder) {
	b.Line(".global main")
	b.Line(".text")
	b.Line("main:")
	entry := []*amd64Instr{
		unary(Call, lir.FunctionLabel("main")),
		bin(Movq, "%rax", "%rdi"),
		bin(Movq, imm(60), "%rax"), // exit
		{Instr: Syscall},
	}
	for _, instr := range entry {
		instr.Str(b)
	}
}

func genFunction(b *strbuilder.Builder, fn *Function) {
	e := &emitter{
		m:     fn.Mapping,
		frame: fn.Mapping.FrameSize(),
	}
	b.Line(fn.Proc.Label + ":")
	if e.frame > 0 {
		bin(Subq, imm(int64(e.frame)), "%rsp").Str(b)
	}
	for _, block := range fn.Proc.Blocks {
		for _, instr := range block.Code {
			if instr.T == IT.Label {
				b.Line(instr.Label + ":")
				continue
			}
			for _, out := range e.gen(instr) {
				out.Str(b)
			}
		}
	}
}

type amd64Instr struct {
	Instr string
	Op1   string
	Op2   string
	// Label, when set, is printed in place of an instruction.
	Label string
}

func (this *amd64Instr) Str(b *strbuilder.Builder) {
	if this.Label != "" {
		b.Line(this.Label + ":")
		return
	}
	if this.Instr == "" {
		b.Line("\t???")
		return
	}
	if this.Op1 == "" {
		b.Line("\t", this.Instr)
		return
	}
	if this.Op2 == "" {
		b.Line("\t", this.Instr, "\t", this.Op1)
		return
	}
	b.Line("\t", this.Instr, "\t", this.Op1, ", ", this.Op2)
}

const (
	Movl  = "movl"
	Movq  = "movq"
	Addl  = "addl"
	Subl  = "subl"
	IMull = "imull"
	Andl  = "andl"
	Orl   = "orl"
	Xorl  = "xorl"
	Sall  = "sall"
	Sarl  = "sarl"
	Notl  = "notl"
	Cmpl  = "cmpl"
	Cltd  = "cltd"
	IDivl = "idivl"

	Addq = "addq"
	Subq = "subq"

	Jmp = "jmp"
	Je  = "je"
	Jne = "jne"
	Jl  = "jl"
	Jle = "jle"
	Jg  = "jg"
	Jge = "jge"

	Call    = "call"
	Ret     = "ret"
	Syscall = "syscall"
)

// emitter carries the state of one function. staged is the register
// whose value currently sits in the temp register, NoReg when free.
type emitter struct {
	m      *resalloc.RegisterMapping
	frame  int
	staged lir.Register
}

func (e *emitter) loc(r lir.Register) lir.Register {
	return e.m.Get(r)
}

func (e *emitter) operand(r lir.Register) string {
	l := e.loc(r)
	if l.IsSpill() {
		return strconv.Itoa(resalloc.WordSize*l.ID) + "(%rsp)"
	}
	return "%" + l.Phys().DWord()
}

func (e *emitter) stage(r lir.Register) string {
	if e.staged != lir.NoReg {
		panic(msg.ScratchOccupied(e.staged.String(), r.String()))
	}
	e.staged = r
	return "%" + lir.Temp.DWord()
}

func (e *emitter) release(r lir.Register) {
	if e.staged != r {
		panic(msg.ScratchMismatch(e.staged.String(), r.String()))
	}
	e.staged = lir.NoReg
}

func (e *emitter) gen(instr *lir.Instr) []*amd64Instr {
	switch {
	case instr.T == IT.Move:
		return e.genMove(instr)
	case instr.T == IT.Const:
		return []*amd64Instr{bin(Movl, imm(instr.Value), e.operand(instr.Dest))}
	case IT.IsArith(instr.T):
		return e.genBinary(instr)
	case IT.IsShift(instr.T):
		return e.genShift(instr)
	case IT.IsComparison(instr.T):
		return e.genComparison(instr)
	case instr.T == IT.Not:
		return e.genUnary(instr, bin(Notl, "", ""))
	case instr.T == IT.LogNot:
		return e.genUnary(instr, bin(Xorl, imm(1), ""))
	case instr.T == IT.Cltd:
		return []*amd64Instr{{Instr: Cltd}}
	case instr.T == IT.IDiv:
		return []*amd64Instr{unary(IDivl, e.operand(instr.A))}
	case instr.T == IT.Call:
		return []*amd64Instr{unary(Call, instr.Label)}
	case instr.T == IT.Jump:
		return []*amd64Instr{unary(Jmp, instr.Label)}
	case instr.T == IT.JumpZero:
		return []*amd64Instr{bin(Cmpl, imm(0), e.operand(instr.A)), unary(Je, instr.Label)}
	case instr.T == IT.JumpNonZero:
		return []*amd64Instr{bin(Cmpl, imm(0), e.operand(instr.A)), unary(Jne, instr.Label)}
	case instr.T == IT.Return:
		if e.frame > 0 {
			return []*amd64Instr{bin(Addq, imm(int64(e.frame)), "%rsp"), {Instr: Ret}}
		}
		return []*amd64Instr{{Instr: Ret}}
	}
	panic(msg.UnknownInstruction(instr))
}

// genMove goes through the temp register when both sides live in
// memory.
func (e *emitter) genMove(instr *lir.Instr) []*amd64Instr {
	if e.loc(instr.Dest) == e.loc(instr.A) {
		return nil
	}
	src, dest := e.operand(instr.A), e.operand(instr.Dest)
	if e.loc(instr.Dest).IsSpill() && e.loc(instr.A).IsSpill() {
		t := e.stage(instr.A)
		out := []*amd64Instr{bin(Movl, src, t), bin(Movl, t, dest)}
		e.release(instr.A)
		return out
	}
	return []*amd64Instr{bin(Movl, src, dest)}
}

// target returns where the result of instr is computed: its own
// register, or the temp register if it was spilled.
func (e *emitter) target(instr *lir.Instr) string {
	if e.loc(instr.Dest).IsSpill() {
		return e.stage(instr.Dest)
	}
	return e.operand(instr.Dest)
}

// store writes the temp register back to a spilled destination.
func (e *emitter) store(instr *lir.Instr, out []*amd64Instr) []*amd64Instr {
	if !e.loc(instr.Dest).IsSpill() {
		return out
	}
	out = append(out, bin(Movl, "%"+lir.Temp.DWord(), e.operand(instr.Dest)))
	e.release(instr.Dest)
	return out
}

// load moves a into the target unless it is already there.
func (e *emitter) load(a lir.Register, target string, out []*amd64Instr) []*amd64Instr {
	src := e.operand(a)
	if src == target {
		return out
	}
	return append(out, bin(Movl, src, target))
}

// genBinary works in two address form: the left operand is copied
// into the target, then combined with the right operand. When the
// target is the register holding the right operand, the operands are
// swapped for commutative operations, otherwise the right operand is
// saved in the temp register first.
func (e *emitter) genBinary(instr *lir.Instr) []*amd64Instr {
	out := []*amd64Instr{}
	a, b := instr.A, instr.B
	dest := e.loc(instr.Dest)
	stagedB := false
	if !dest.IsSpill() && dest == e.loc(b) && dest != e.loc(a) {
		if IT.IsCommutative(instr.T) {
			a, b = b, a
		} else {
			t := e.stage(b)
			out = append(out, bin(Movl, e.operand(b), t))
			stagedB = true
		}
	}
	target := e.target(instr)
	out = e.load(a, target, out)
	right := e.operand(b)
	if stagedB {
		right = "%" + lir.Temp.DWord()
	}
	out = append(out, bin(arithOp(instr.T), right, target))
	if stagedB {
		e.release(b)
	}
	return e.store(instr, out)
}

// genShift expects the count in %ecx.
func (e *emitter) genShift(instr *lir.Instr) []*amd64Instr {
	op := Sall
	if instr.T == IT.Sar {
		op = Sarl
	}
	target := e.target(instr)
	out := e.load(instr.A, target, nil)
	out = append(out, bin(op, "%"+lir.ShiftCount.Byte(), target))
	return e.store(instr, out)
}

func (e *emitter) genUnary(instr *lir.Instr, op *amd64Instr) []*amd64Instr {
	target := e.target(instr)
	out := e.load(instr.A, target, nil)
	if op.Op1 == "" {
		op.Op1 = target
	} else {
		op.Op2 = target
	}
	out = append(out, op)
	return e.store(instr, out)
}

// genComparison materializes the flag as 0 or 1 with a pair of
// branches.
func (e *emitter) genComparison(instr *lir.Instr) []*amd64Instr {
	out := []*amd64Instr{}
	left := e.operand(instr.A)
	staged := false
	if e.loc(instr.A).IsSpill() && e.loc(instr.B).IsSpill() {
		t := e.stage(instr.A)
		out = append(out, bin(Movl, left, t))
		left = t
		staged = true
	}
	out = append(out, bin(Cmpl, e.operand(instr.B), left))
	if staged {
		e.release(instr.A)
	}
	n := strconv.FormatInt(cmpLabels.Add(1), 10)
	isTrue, end := ".Lcmp_true_"+n, ".Lcmp_end_"+n
	dest := e.operand(instr.Dest)
	return append(out,
		unary(condJump(instr.T), isTrue),
		bin(Movl, imm(0), dest),
		unary(Jmp, end),
		label(isTrue),
		bin(Movl, imm(1), dest),
		label(end),
	)
}

func arithOp(k IT.InstrKind) string {
	switch k {
	case IT.Add:
		return Addl
	case IT.Sub:
		return Subl
	case IT.Mul:
		return IMull
	case IT.And:
		return Andl
	case IT.Or:
		return Orl
	case IT.Xor:
		return Xorl
	}
	panic(msg.UnknownInstruction(k))
}

func condJump(k IT.InstrKind) string {
	switch k {
	case IT.Eq:
		return Je
	case IT.Neq:
		return Jne
	case IT.Less:
		return Jl
	case IT.LessEq:
		return Jle
	case IT.Greater:
		return Jg
	case IT.GreaterEq:
		return Jge
	}
	panic(msg.UnknownInstruction(k))
}

func imm(v int64) string {
	return "$" + strconv.FormatInt(v, 10)
}

func label(l string) *amd64Instr {
	return &amd64Instr{Label: l}
}

func unary(instr string, op string) *amd64Instr {
	return &amd64Instr{Instr: instr, Op1: op}
}

// bin takes operands in AT&T order, source first.
func bin(instr string, source, dest string) *amd64Instr {
	return &amd64Instr{Instr: instr, Op1: source, Op2: dest}
}
