package pipelines

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"l2c/backends/linuxamd64"
	"l2c/backends/linuxamd64/gas"
	"l2c/config"
	. "l2c/core"
	"l2c/core/ast"
	"l2c/ir"
	"l2c/ir/checker"
	"l2c/ir/optimize"
	"l2c/ir/vcg"
	msg "l2c/messages"
	"l2c/ssa"

	T "github.com/padeir0/pir/types"
)

// reads and decodes a serialized syntax tree
func Ast(file string) (*ast.Node, *Error) {
	f, oserr := os.Open(file)
	if oserr != nil {
		return nil, ProcessFileError(oserr)
	}
	defer f.Close()
	return ast.Decode(file, f)
}

// builds and checks the graph of every function,
// dumping them if configured to
func Graphs(file string, c *config.Config) ([]*ir.Graph, *Error) {
	program, err := Ast(file)
	if err != nil {
		return nil, err
	}
	sigs := ssa.Signatures(program)
	graphs := []*ir.Graph{}
	for _, fn := range program.Functions() {
		g, err := translate(fn, sigs, optimizer(c))
		if err != nil {
			err.Location.File = file
			return nil, err
		}
		err = checker.Check(g)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	if c.DumpVCG() {
		ioerr := dumpGraphs("graphs", graphs)
		if ioerr != nil {
			return nil, ProcessFileError(ioerr)
		}
	}
	return graphs, nil
}

// lowered and allocated procedures, as text
func Lir(file string, c *config.Config) (string, *Error) {
	graphs, err := Graphs(file, c)
	if err != nil {
		return "", err
	}
	out := ""
	for _, g := range graphs {
		fn, err := allocate(g)
		if err != nil {
			err.Location.File = file
			return "", err
		}
		out += fn.Proc.String() + fn.Mapping.String() + "\n"
	}
	return out, nil
}

// generates the assembly of the whole program
func Asm(file string, c *config.Config, outname string) (*gas.AsmProgram, *Error) {
	graphs, err := Graphs(file, c)
	if err != nil {
		return nil, err
	}
	if !hasMain(graphs) {
		return nil, msg.InvalidAST(file, "program has no main function")
	}
	bodies := []string{}
	for _, g := range graphs {
		body, err := emit(g)
		if err != nil {
			err.Location.File = file
			return nil, err
		}
		bodies = append(bodies, body)
	}
	if outname == "" {
		outname = defaultName(file)
	}
	return gas.Program(outname, bodies), nil
}

// writes <outname>.s and assembles it into <outname>,
// the assembler exit status is returned along any error
func Compile(file string, c *config.Config, outname string) (string, int, *Error) {
	prog, err := Asm(file, c, outname)
	if err != nil {
		return "", 0, err
	}
	asmFile := prog.Name + ".s"
	oserr := os.WriteFile(asmFile, []byte(prog.Contents), 0644)
	if oserr != nil {
		return "", 0, ProcessFileError(oserr)
	}
	if !c.KeepAsm {
		defer os.Remove(asmFile)
	}
	status, err := assemble(c.CC, asmFile, prog.Name)
	if err != nil {
		return "", status, err
	}
	return prog.Name, 0, nil
}

func assemble(cc, asmFile, out string) (int, *Error) {
	cmd := exec.Command(cc, asmFile, "-o", out)
	output, oserr := cmd.CombinedOutput()
	if oserr != nil {
		var exit *exec.ExitError
		if errors.As(oserr, &exit) {
			code := exit.ExitCode()
			return code, msg.AssemblerFailed(cc, code, strings.TrimSpace(string(output)))
		}
		return 1, ProcessFileError(oserr)
	}
	return 0, nil
}

func optimizer(c *config.Config) optimize.Optimizer {
	if c.NoLVN {
		return optimize.None{}
	}
	return optimize.NewLocalValueNumbering()
}

// recoverFault turns an internal fault raised while working on a
// function into the returned error.
func recoverFault(function string, err **Error) {
	if r := recover(); r != nil {
		*err = msg.Recovered(function, r)
	}
}

func translate(fn *ast.Node, sigs map[string]*T.Type, opt optimize.Optimizer) (g *ir.Graph, err *Error) {
	defer recoverFault(fn.Text, &err)
	return ssa.Translate(fn, sigs, opt), nil
}

func allocate(g *ir.Graph) (fn *gas.Function, err *Error) {
	defer recoverFault(g.Name, &err)
	return linuxamd64.Allocate(g), nil
}

func emit(g *ir.Graph) (body string, err *Error) {
	defer recoverFault(g.Name, &err)
	return linuxamd64.GenerateAsm(g), nil
}

func hasMain(graphs []*ir.Graph) bool {
	for _, g := range graphs {
		if g.Name == "main" {
			return true
		}
	}
	return false
}

func dumpGraphs(dir string, graphs []*ir.Graph) error {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}
	for _, g := range graphs {
		name := filepath.Join(dir, g.Name+"-before-codegen.vcg")
		err = os.WriteFile(name, []byte(vcg.Print(g)), 0644)
		if err != nil {
			return err
		}
	}
	return nil
}

// file.json and file.x3.json both produce ./file
func defaultName(file string) string {
	base := filepath.Base(file)
	name, _, _ := strings.Cut(base, ".")
	return "./" + name
}
