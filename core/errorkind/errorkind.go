package errorkind

import (
	"fmt"
)

type ErrorKind int

const (
	InvalidErrType ErrorKind = iota
	InternalCompilerError

	FileError
	InvalidAST
	AssemblerFailed
	ExecutionFailed

	UnknownNode
	UnresolvedRegister
	UnsealedBlock
	UnsealedPhi
	PredecessorAfterSeal
	MalformedGraph
	ScratchOccupied
	ScratchMismatch
	AlreadyColored
	ColorConflict
	TooManyArguments
	UnknownSyntax
	UnknownInstruction
	UndefinedLabel
)

func (et ErrorKind) String() string {
	v, ok := ErrorCodeMap[et]
	if !ok {
		panic(fmt.Sprintf("%d is not stringified", et))
	}
	return v
}

var ErrorCodeMap = map[ErrorKind]string{
	InvalidErrType:        "E101",
	InternalCompilerError: "E102",

	FileError:       "E007",
	InvalidAST:      "E010",
	AssemblerFailed: "E011",
	ExecutionFailed: "E012",

	UnknownNode:          "E120",
	UnresolvedRegister:   "E121",
	UnsealedBlock:        "E122",
	UnsealedPhi:          "E123",
	PredecessorAfterSeal: "E124",
	MalformedGraph:       "E125",
	ScratchOccupied:      "E126",
	ScratchMismatch:      "E127",
	AlreadyColored:       "E128",
	ColorConflict:        "E129",
	TooManyArguments:     "E130",
	UnknownSyntax:        "E131",
	UnknownInstruction:   "E132",
	UndefinedLabel:       "E133",
}

func FromCode(code string) (ErrorKind, bool) {
	for k, v := range ErrorCodeMap {
		if v == code {
			return k, true
		}
	}
	return InvalidErrType, false
}
