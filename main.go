package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"l2c/config"
	. "l2c/core"
	"l2c/ir/vcg"
	"l2c/pipelines"
	"l2c/runner"
)

var ir = flag.Bool("ir", false, "builds the graphs and prints them in vcg format")
var lir = flag.Bool("lir", false, "runs the backend, prints lowered code and register mapping")
var asm = flag.Bool("asm", false, "runs the full compiler, prints asm")

var test = flag.Bool("test", false, "runs tests for all files in a folder")
var testTimeout = flag.Duration("testtimeout", 0, "sets timeout limit for a test (overrides L2C_TEST_TIMEOUT)")

var verbose = flag.Bool("v", false, "verbose tests")
var outname = flag.String("o", "", "output name of file")

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 {
		Fatal("invalid number of arguments\n")
	}
	c := config.Load()
	if *testTimeout > 0 {
		c.TestTimeout = *testTimeout
	}
	eval(args[0], c)
}

func eval(filename string, c *config.Config) {
	checkValid()
	if !strings.Contains(filename, "/") {
		filename = "./" + filename
	}
	if *test {
		res, err := runner.TestFolder(filename, getStage(), c, progress)
		OkOrBurst(err)
		printResults(res)
		return
	}
	normalMode(filename, c)
}

func normalMode(filename string, c *config.Config) {
	switch true {
	case *ir:
		graphs, err := pipelines.Graphs(filename, c)
		OkOrBurst(err)
		for _, g := range graphs {
			fmt.Println(vcg.Print(g))
		}
	case *lir:
		out, err := pipelines.Lir(filename, c)
		OkOrBurst(err)
		fmt.Print(out)
	case *asm:
		prog, err := pipelines.Asm(filename, c, *outname)
		OkOrBurst(err)
		fmt.Print(prog.Contents)
	default:
		_, status, err := pipelines.Compile(filename, c, *outname)
		if err != nil {
			os.Stderr.Write([]byte(err.String() + "\n"))
			if status == 0 {
				status = 1
			}
			os.Exit(status)
		}
	}
}

func checkValid() {
	var selected = []bool{*ir, *lir, *asm}
	var count = 0
	for _, b := range selected {
		if b {
			count++
		}
	}
	if count > 1 {
		Fatal("only one of ir, lir or asm flags may be used at a time\n")
	}
}

func progress(res *runner.TestResult) {
	if *verbose {
		Stdout("testing: " + res.File + "\t")
		Stdout(res.String() + "\n")
	}
}

func printResults(results []*runner.TestResult) {
	Stdout("\n")
	for _, res := range results {
		if !res.Ok && res.Message != "" {
			Stdout(res.File + "\t" + res.Message + "\n")
		}
	}
	Stdout("\n")
	Stdout("failed: " + strconv.Itoa(runner.Failed(results)) + "\n")
	Stdout("total: " + strconv.Itoa(len(results)) + "\n")
}

func getStage() runner.Stage {
	switch {
	case *ir:
		return runner.S_Graphs
	case *lir:
		return runner.S_Lir
	case *asm:
		return runner.S_Asm
	default:
		return runner.S_Compile
	}
}

func OkOrBurst(e *Error) {
	if e != nil {
		Fatal(e.String() + "\n")
	}
}

func Stdout(s string) {
	os.Stdout.Write([]byte(s))
}

func Fatal(s string) {
	os.Stderr.Write([]byte(s))
	os.Exit(1)
}
