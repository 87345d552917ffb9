package lir

import (
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

type PhysReg int

const (
	InvalidPhysReg PhysReg = iota
	RAX
	RBX
	RCX
	RDX
	RSI
	RDI
	RBP
	RSP
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

type register struct {
	QWord string
	DWord string
	Word  string
	Byte  string
}

var names = map[PhysReg]*register{
	RAX: {QWord: "rax", DWord: "eax", Word: "ax", Byte: "al"},
	RBX: {QWord: "rbx", DWord: "ebx", Word: "bx", Byte: "bl"},
	RCX: {QWord: "rcx", DWord: "ecx", Word: "cx", Byte: "cl"},
	RDX: {QWord: "rdx", DWord: "edx", Word: "dx", Byte: "dl"},
	RSI: {QWord: "rsi", DWord: "esi", Word: "si", Byte: "sil"},
	RDI: {QWord: "rdi", DWord: "edi", Word: "di", Byte: "dil"},
	RBP: {QWord: "rbp", DWord: "ebp", Word: "bp", Byte: "bpl"},
	RSP: {QWord: "rsp", DWord: "esp", Word: "sp", Byte: "spl"},
	R8:  {QWord: "r8", DWord: "r8d", Word: "r8w", Byte: "r8b"},
	R9:  {QWord: "r9", DWord: "r9d", Word: "r9w", Byte: "r9b"},
	R10: {QWord: "r10", DWord: "r10d", Word: "r10w", Byte: "r10b"},
	R11: {QWord: "r11", DWord: "r11d", Word: "r11w", Byte: "r11b"},
	R12: {QWord: "r12", DWord: "r12d", Word: "r12w", Byte: "r12b"},
	R13: {QWord: "r13", DWord: "r13d", Word: "r13w", Byte: "r13b"},
	R14: {QWord: "r14", DWord: "r14d", Word: "r14w", Byte: "r14b"},
	R15: {QWord: "r15", DWord: "r15d", Word: "r15w", Byte: "r15b"},
}

func (this PhysReg) QWord() string { return names[this].QWord }
func (this PhysReg) DWord() string { return names[this].DWord }
func (this PhysReg) Byte() string  { return names[this].Byte }

func (this PhysReg) String() string {
	r, ok := names[this]
	if !ok {
		return "?"
	}
	return r.QWord
}

// roles pinned by the instruction set
const (
	ReturnReg    = RAX
	DividendLow  = RAX
	DividendHigh = RDX
	Quotient     = RAX
	Remainder    = RDX
	ShiftCount   = RCX
	// Temp is reserved for staging values during emission and is
	// never handed out by the allocator.
	Temp = R15
)

// FreelyUsable lists, in preference order, the registers the
// allocator may assign to virtual registers.
var FreelyUsable = []PhysReg{RBX, RSI, RDI, R8, R9, R10, R11, R12, R13, R14}

var ArgRegs = []PhysReg{RDI, RSI, RDX, RCX, R8, R9}

// CallClobbered is every register a callee may overwrite.
var CallClobbered = []PhysReg{RAX, RBX, RCX, RDX, RSI, RDI, R8, R9, R10, R11, R12, R13, R14, R15}

type RegClass int

const (
	InvalidClass RegClass = iota
	Physical
	Virtual
	Spill
)

type Register struct {
	Class RegClass
	ID    int
}

var NoReg = Register{}

func Phys(p PhysReg) Register {
	return Register{Class: Physical, ID: int(p)}
}

func Virt(id int) Register {
	return Register{Class: Virtual, ID: id}
}

func Slot(id int) Register {
	return Register{Class: Spill, ID: id}
}

func (this Register) IsPhysical() bool { return this.Class == Physical }
func (this Register) IsVirtual() bool  { return this.Class == Virtual }
func (this Register) IsSpill() bool    { return this.Class == Spill }

func (this Register) Phys() PhysReg {
	if this.Class != Physical {
		return InvalidPhysReg
	}
	return PhysReg(this.ID)
}

func (this Register) String() string {
	switch this.Class {
	case Physical:
		return PhysReg(this.ID).String()
	case Virtual:
		return "v" + strconv.Itoa(this.ID)
	case Spill:
		return "s" + strconv.Itoa(this.ID)
	}
	return "noreg"
}

func Less(a, b Register) bool {
	if a.Class == b.Class {
		return a.ID < b.ID
	}
	return a.Class < b.Class
}

type RegSet map[Register]struct{}

func NewRegSet(regs ...Register) RegSet {
	out := RegSet{}
	for _, r := range regs {
		out.Add(r)
	}
	return out
}

func (this RegSet) Add(r Register) {
	this[r] = struct{}{}
}

func (this RegSet) Has(r Register) bool {
	_, ok := this[r]
	return ok
}

// Sorted returns the members ordered by class then id.
func (this RegSet) Sorted() []Register {
	out := lo.Keys(this)
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

func (this RegSet) String() string {
	regs := lo.Map(this.Sorted(), func(r Register, _ int) string { return r.String() })
	return "{" + strings.Join(regs, ", ") + "}"
}
