package projkind

type ProjKind int

func (this ProjKind) String() string {
	switch this {
	case Result:
		return "result"
	case SideEffect:
		return "sideeffect"
	}
	return "?"
}

const (
	InvalidProj ProjKind = iota
	Result
	SideEffect
)
