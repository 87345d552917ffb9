// Package linuxamd64 runs the backend stages on a single function.
// Internal faults surface as panics carrying a *core.Error.
package linuxamd64

import (
	"l2c/backends/linuxamd64/gas"
	"l2c/backends/linuxamd64/liveness"
	"l2c/backends/linuxamd64/lower"
	"l2c/backends/linuxamd64/resalloc"
	"l2c/ir"
)

// Allocate lowers g and assigns a location to every virtual register.
func Allocate(g *ir.Graph) *gas.Function {
	p := lower.Lower(g)
	liveness.Analyze(p)
	m := resalloc.Color(liveness.BuildInterference(p))
	return &gas.Function{Proc: p, Mapping: m}
}

func GenerateAsm(g *ir.Graph) string {
	return gas.GenerateFunction(Allocate(g))
}
