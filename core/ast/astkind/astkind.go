package astkind

import "strconv"

type AstKind int

const (
	UNDEFINED AstKind = iota

	PROGRAM
	FUNCTION
	PARAMS
	PARAM
	BLOCK

	// statements
	DECL
	ASSIGN
	PLUS_ASSIGN
	MINUS_ASSIGN
	MULTIPLICATION_ASSIGN
	DIVISION_ASSIGN
	REMAINDER_ASSIGN
	BITWISEAND_ASSIGN
	BITWISEOR_ASSIGN
	BITWISEXOR_ASSIGN
	SHIFTLEFT_ASSIGN
	SHIFTRIGHT_ASSIGN
	IF
	WHILE
	FOR
	RETURN
	BREAK
	CONTINUE

	// expressions
	IDENTIFIER
	INT_LIT
	TRUE
	FALSE
	CALL
	TERNARY

	PLUS
	MINUS
	MULTIPLICATION
	DIVISION
	REMAINDER
	BITWISEAND
	BITWISEOR
	BITWISEXOR
	SHIFTLEFT
	SHIFTRIGHT
	EQUALS
	DIFFERENT
	LESS
	LESSEQ
	MORE
	MOREEQ
	AND
	OR

	NEG
	NOT
	BITWISENOT
)

func (this AstKind) String() string {
	v, ok := Names[this]
	if ok {
		return v
	}
	panic("unspecified astKind " + strconv.Itoa(int(this)))
}

func IsAssignment(k AstKind) bool {
	return k >= ASSIGN && k <= SHIFTRIGHT_ASSIGN
}

func IsBinary(k AstKind) bool {
	return k >= PLUS && k <= OR
}

func IsUnary(k AstKind) bool {
	return k >= NEG && k <= BITWISENOT
}

// Operator maps a compound assignment to the binary operator it applies.
func Operator(k AstKind) AstKind {
	switch k {
	case PLUS_ASSIGN:
		return PLUS
	case MINUS_ASSIGN:
		return MINUS
	case MULTIPLICATION_ASSIGN:
		return MULTIPLICATION
	case DIVISION_ASSIGN:
		return DIVISION
	case REMAINDER_ASSIGN:
		return REMAINDER
	case BITWISEAND_ASSIGN:
		return BITWISEAND
	case BITWISEOR_ASSIGN:
		return BITWISEOR
	case BITWISEXOR_ASSIGN:
		return BITWISEXOR
	case SHIFTLEFT_ASSIGN:
		return SHIFTLEFT
	case SHIFTRIGHT_ASSIGN:
		return SHIFTRIGHT
	}
	return UNDEFINED
}

func FromName(name string) (AstKind, bool) {
	k, ok := byName[name]
	return k, ok
}

var Names = map[AstKind]string{
	UNDEFINED: "?",

	PROGRAM:  "program",
	FUNCTION: "function",
	PARAMS:   "params",
	PARAM:    "param",
	BLOCK:    "block",

	DECL:                  "decl",
	ASSIGN:                "=",
	PLUS_ASSIGN:           "+=",
	MINUS_ASSIGN:          "-=",
	MULTIPLICATION_ASSIGN: "*=",
	DIVISION_ASSIGN:       "/=",
	REMAINDER_ASSIGN:      "%=",
	BITWISEAND_ASSIGN:     "&=",
	BITWISEOR_ASSIGN:      "|=",
	BITWISEXOR_ASSIGN:     "^=",
	SHIFTLEFT_ASSIGN:      "<<=",
	SHIFTRIGHT_ASSIGN:     ">>=",
	IF:                    "if",
	WHILE:                 "while",
	FOR:                   "for",
	RETURN:                "return",
	BREAK:                 "break",
	CONTINUE:              "continue",

	IDENTIFIER: "identifier",
	INT_LIT:    "int",
	TRUE:       "true",
	FALSE:      "false",
	CALL:       "call",
	TERNARY:    "?:",

	PLUS:           "+",
	MINUS:          "-",
	MULTIPLICATION: "*",
	DIVISION:       "/",
	REMAINDER:      "%",
	BITWISEAND:     "&",
	BITWISEOR:      "|",
	BITWISEXOR:     "^",
	SHIFTLEFT:      "<<",
	SHIFTRIGHT:     ">>",
	EQUALS:         "==",
	DIFFERENT:      "!=",
	LESS:           "<",
	LESSEQ:         "<=",
	MORE:           ">",
	MOREEQ:         ">=",
	AND:            "&&",
	OR:             "||",

	NEG:        "neg",
	NOT:        "!",
	BITWISENOT: "~",
}

var byName = func() map[string]AstKind {
	out := make(map[string]AstKind, len(Names))
	for k, v := range Names {
		out[v] = k
	}
	return out
}()
