package instrkind

type InstrKind int

func (this InstrKind) String() string {
	switch this {
	case Label:
		return "label"
	case Move:
		return "mov"
	case Const:
		return "const"
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Mul:
		return "imul"
	case And:
		return "and"
	case Or:
		return "or"
	case Xor:
		return "xor"
	case Shl:
		return "shl"
	case Sar:
		return "sar"
	case Eq:
		return "eq"
	case Neq:
		return "neq"
	case Less:
		return "lt"
	case LessEq:
		return "leq"
	case Greater:
		return "gt"
	case GreaterEq:
		return "geq"
	case Not:
		return "not"
	case LogNot:
		return "lnot"
	case Cltd:
		return "cltd"
	case IDiv:
		return "idiv"
	case Call:
		return "call"
	case Jump:
		return "jmp"
	case JumpZero:
		return "jz"
	case JumpNonZero:
		return "jnz"
	case Return:
		return "ret"
	}
	return "?"
}

const (
	InvalidInstr InstrKind = iota

	Label
	Move
	Const

	Add
	Sub
	Mul
	And
	Or
	Xor
	Shl
	Sar

	Eq
	Neq
	Less
	LessEq
	Greater
	GreaterEq

	Not
	LogNot

	Cltd
	IDiv
	Call

	Jump
	JumpZero
	JumpNonZero
	Return
)

// IsArith covers the two-operand arithmetic and logic instructions.
func IsArith(k InstrKind) bool {
	return k >= Add && k <= Xor
}

func IsShift(k InstrKind) bool {
	return k == Shl || k == Sar
}

func IsComparison(k InstrKind) bool {
	return k >= Eq && k <= GreaterEq
}

func IsCommutative(k InstrKind) bool {
	switch k {
	case Add, Mul, And, Or, Xor:
		return true
	}
	return false
}

func IsJump(k InstrKind) bool {
	return k == Jump || k == JumpZero || k == JumpNonZero
}

// FallsThrough reports whether control may continue with the next
// instruction in sequence.
func FallsThrough(k InstrKind) bool {
	return k != Jump && k != Return
}
