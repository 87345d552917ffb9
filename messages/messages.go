package messages

import (
	"fmt"
	"l2c/core"
	et "l2c/core/errorkind"
	sv "l2c/core/severity"
	"strconv"
)

func newError(kind et.ErrorKind, loc *core.Location, message string) *core.Error {
	return &core.Error{
		Code:     kind,
		Severity: sv.Error,
		Message:  message,
		Location: loc,
	}
}

func newInternal(kind et.ErrorKind, message string) *core.Error {
	return &core.Error{
		Code:     kind,
		Severity: sv.InternalError,
		Message:  message,
	}
}

func InvalidAST(file string, message string) *core.Error {
	return newError(et.InvalidAST, &core.Location{File: file}, "invalid syntax tree: "+message)
}

func AssemblerFailed(command string, code int, output string) *core.Error {
	message := command + " exited with status " + strconv.Itoa(code)
	if output != "" {
		message += ":\n" + output
	}
	return newError(et.AssemblerFailed, nil, message)
}

func ExecutionFailed(file string, err error) *core.Error {
	return newError(et.ExecutionFailed, &core.Location{File: file}, err.Error())
}

func UnknownNode(n fmt.Stringer) *core.Error {
	return newInternal(et.UnknownNode, "node has no lowering: "+n.String())
}

func UnresolvedRegister(what string) *core.Error {
	return newInternal(et.UnresolvedRegister, "register not found: "+what)
}

func UnsealedBlock(block fmt.Stringer) *core.Error {
	return newInternal(et.UnsealedBlock, "block left unsealed: "+block.String())
}

func UnsealedPhi(phi fmt.Stringer, operands, preds int) *core.Error {
	message := fmt.Sprintf("phi %v has %d operands for %d predecessors", phi, operands, preds)
	return newInternal(et.UnsealedPhi, message)
}

func PredecessorAfterSeal(block fmt.Stringer) *core.Error {
	return newInternal(et.PredecessorAfterSeal, "predecessor added to sealed block: "+block.String())
}

func MalformedGraph(message string) *core.Error {
	return newInternal(et.MalformedGraph, message)
}

func ScratchOccupied(held, wanted string) *core.Error {
	return newInternal(et.ScratchOccupied, "scratch register holds "+held+", cannot stage "+wanted)
}

func ScratchMismatch(held, wanted string) *core.Error {
	return newInternal(et.ScratchMismatch, "scratch register holds '"+held+"', not "+wanted)
}

func AlreadyColored(reg string) *core.Error {
	return newInternal(et.AlreadyColored, "register colored twice: "+reg)
}

func ColorConflict(a, b, color string) *core.Error {
	return newInternal(et.ColorConflict, "interfering registers "+a+" and "+b+" share "+color)
}

func TooManyArguments(callee string, n, max int) *core.Error {
	message := fmt.Sprintf("call to %s passes %d arguments, at most %d supported", callee, n, max)
	return newInternal(et.TooManyArguments, message)
}

// UnknownSyntax is raised for tree nodes the translation has no rule
// for, what names the position: statement, expression or operator.
func UnknownSyntax(what string, kind fmt.Stringer) *core.Error {
	return newInternal(et.UnknownSyntax, "invalid "+what+": "+kind.String())
}

func UnknownInstruction(instr fmt.Stringer) *core.Error {
	return newInternal(et.UnknownInstruction, "instruction has no encoding: "+instr.String())
}

func UndefinedLabel(label string) *core.Error {
	return newInternal(et.UndefinedLabel, "jump to unknown label: "+label)
}

// Recovered turns the value of a recovered panic into a diagnostic
// attributed to the given function.
func Recovered(function string, r any) *core.Error {
	var err *core.Error
	switch v := r.(type) {
	case *core.Error:
		err = v
	case error:
		err = newInternal(et.InternalCompilerError, v.Error())
	default:
		err = newInternal(et.InternalCompilerError, fmt.Sprint(v))
	}
	if err.Location == nil {
		err.Location = &core.Location{}
	}
	if err.Location.Function == "" {
		err.Location.Function = function
	}
	return err
}
