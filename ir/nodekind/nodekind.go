package nodekind

type NodeKind int

func (this NodeKind) String() string {
	switch this {
	case Block:
		return "block"
	case Start:
		return "start"
	case Param:
		return "param"
	case ConstInt:
		return "const"
	case ConstBool:
		return "bool"
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Mul:
		return "mul"
	case Div:
		return "div"
	case Mod:
		return "mod"
	case BitAnd:
		return "and"
	case BitOr:
		return "or"
	case BitXor:
		return "xor"
	case Shl:
		return "shl"
	case Shr:
		return "shr"
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
	case BitNot:
		return "not"
	case LogNot:
		return "lnot"
	case Call:
		return "call"
	case Proj:
		return "proj"
	case Phi:
		return "phi"
	case Jump:
		return "jmp"
	case If:
		return "if"
	case Return:
		return "ret"
	case Invalid:
		return "invalid"
	}
	return "?"
}

const (
	InvalidNodeKind NodeKind = iota

	Block
	Start
	Param
	ConstInt
	ConstBool

	Add
	Sub
	Mul
	Div
	Mod
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
	Eq
	Neq
	Less
	LessEq
	Greater
	GreaterEq

	BitNot
	LogNot

	Call
	Proj
	Phi

	Jump
	If
	Return

	// Invalid stands for the value of a variable read on a path
	// where it was never written.
	Invalid
)

func IsBinary(k NodeKind) bool {
	return k >= Add && k <= GreaterEq
}

func IsComparison(k NodeKind) bool {
	return k >= Eq && k <= GreaterEq
}

func IsUnary(k NodeKind) bool {
	return k == BitNot || k == LogNot
}

func IsConst(k NodeKind) bool {
	return k == ConstInt || k == ConstBool
}

func IsExit(k NodeKind) bool {
	return k == Jump || k == If || k == Return
}

// HasSideEffect reports whether the node consumes and produces a
// side-effect value.
func HasSideEffect(k NodeKind) bool {
	return k == Div || k == Mod || k == Call
}

// IsPure reports whether two nodes of this kind with equal operands
// may be merged.
func IsPure(k NodeKind) bool {
	return IsBinary(k) && !HasSideEffect(k) || IsUnary(k) || IsConst(k)
}

func IsCommutative(k NodeKind) bool {
	switch k {
	case Add, Mul, BitAnd, BitOr, BitXor, Eq, Neq:
		return true
	}
	return false
}
