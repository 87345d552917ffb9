package core

import (
	et "l2c/core/errorkind"
	sv "l2c/core/severity"
	"strconv"
)

type Position struct {
	Line   int
	Column int
}

func (this Position) String() string {
	return strconv.FormatInt(int64(this.Line), 10) + ":" +
		strconv.FormatInt(int64(this.Column), 10)
}

func (this Position) MoreOrEqualsThan(other Position) bool {
	if this.Line == other.Line {
		return this.Column >= other.Column
	}
	return this.Line > other.Line
}

type Range struct {
	Begin Position
	End   Position
}

func (this Range) String() string {
	if this.Begin.MoreOrEqualsThan(this.End) {
		return this.Begin.String()
	}
	return this.Begin.String() + " to " + this.End.String()
}

// Location points at the serialized input and, optionally, at the
// source range the front-end attached to a node.
type Location struct {
	File     string
	Function string
	Range    *Range
}

func (this *Location) String() string {
	if this == nil {
		return ""
	}
	out := this.File
	if this.Function != "" {
		if out != "" {
			out += ":"
		}
		out += this.Function
	}
	if this.Range != nil {
		out += ":" + this.Range.String()
	}
	return out
}

type Error struct {
	Code     et.ErrorKind
	Severity sv.Severity
	Message  string
	Location *Location
}

func (this *Error) String() string {
	loc := this.Location.String()
	message := this.Severity.String() + ": " + this.Message
	if loc != "" {
		return loc + " " + message
	}
	return message
}

func (this *Error) Error() string {
	return this.String()
}

func (this *Error) ErrCode() string {
	return this.Code.String()
}

func (this *Error) IsInternal() bool {
	return this.Severity == sv.InternalError
}

func ProcessFileError(e error) *Error {
	return &Error{
		Code:     et.FileError,
		Severity: sv.Error,
		Message:  e.Error(),
	}
}
