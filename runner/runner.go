// Package runner compiles serialized programs and checks what they do.
//
// The expectation is encoded in the name of the file:
//
//	name.x3.json    program must exit with status 3
//	name.E103.json  compilation must fail with error E103
//	name.json       program must exit with status 0
package runner

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"l2c/config"
	. "l2c/core"
	et "l2c/core/errorkind"
	"l2c/pipelines"

	"github.com/samber/lo"
)

type TestResult struct {
	File    string
	Message string
	Ok      bool
}

func (res *TestResult) String() string {
	if res.Ok {
		return "\u001b[34mok\u001b[0m"
	}
	return "\u001b[31mfail\u001b[0m"
}

// Stage compiles file up to some point. A non empty outfile is an
// executable to be run.
type Stage func(file string, c *config.Config, outname string) (outfile string, err *Error)

func S_Graphs(file string, c *config.Config, outname string) (string, *Error) {
	_, err := pipelines.Graphs(file, c)
	return "", err
}

func S_Lir(file string, c *config.Config, outname string) (string, *Error) {
	_, err := pipelines.Lir(file, c)
	return "", err
}

func S_Asm(file string, c *config.Config, outname string) (string, *Error) {
	_, err := pipelines.Asm(file, c, outname)
	return "", err
}

func S_Compile(file string, c *config.Config, outname string) (string, *Error) {
	out, _, err := pipelines.Compile(file, c, outname)
	return out, err
}

type expectation struct {
	status int
	code   string
}

func expected(file string) expectation {
	sections := strings.Split(filepath.Base(file), ".")
	if len(sections) < 3 {
		return expectation{}
	}
	tag := sections[len(sections)-2]
	switch {
	case strings.HasPrefix(tag, "x"):
		status, err := strconv.Atoi(tag[1:])
		if err == nil {
			return expectation{status: status}
		}
	case strings.HasPrefix(tag, "E"):
		return expectation{code: tag}
	}
	return expectation{}
}

// Test runs a single file through st. Executables are placed in a
// temporary directory and removed afterwards.
func Test(file string, st Stage, c *config.Config) (res TestResult) {
	defer recoverIfFatal(file, &res)
	exp := expected(file)

	dir, oserr := os.MkdirTemp("", "l2c_*")
	if oserr != nil {
		return newResult(file, ProcessFileError(oserr))
	}
	defer os.RemoveAll(dir)
	outname := filepath.Join(dir, strings.Split(filepath.Base(file), ".")[0])

	outfile, err := st(file, c, outname)
	if err != nil || exp.code != "" {
		if err != nil && err.Code == et.InternalCompilerError {
			return newResult(file, err)
		}
		return compareError(file, err, exp.code)
	}
	if outfile == "" {
		return TestResult{File: file, Ok: true}
	}

	status, oserr := execWithTimeout(outfile, c.TestTimeout)
	if oserr != nil {
		return newResult(file, ProcessFileError(oserr))
	}
	if status != exp.status {
		return TestResult{
			File:    file,
			Message: "expected exit status " + strconv.Itoa(exp.status) + ", got " + strconv.Itoa(status),
		}
	}
	return TestResult{File: file, Ok: true}
}

// TestFolder tests every .json file under folder, recursively.
// progress, if not nil, is called after each file.
func TestFolder(folder string, st Stage, c *config.Config, progress func(*TestResult)) ([]*TestResult, *Error) {
	entries, oserr := os.ReadDir(folder)
	if oserr != nil {
		return nil, ProcessFileError(oserr)
	}
	results := []*TestResult{}
	for _, dir := range lo.Filter(entries, func(e os.DirEntry, _ int) bool { return e.IsDir() }) {
		res, err := TestFolder(filepath.Join(folder, dir.Name()), st, c, progress)
		if err != nil {
			return nil, err
		}
		results = append(results, res...)
	}
	files := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return !e.IsDir() && strings.HasSuffix(e.Name(), ".json")
	})
	for _, f := range files {
		res := Test(filepath.Join(folder, f.Name()), st, c)
		if progress != nil {
			progress(&res)
		}
		results = append(results, &res)
	}
	return results, nil
}

func Failed(results []*TestResult) int {
	return lo.CountBy(results, func(r *TestResult) bool { return !r.Ok })
}

// execWithTimeout returns the exit status of the program.
func execWithTimeout(file string, t time.Duration) (int, error) {
	cmd := exec.Command(file)
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	var timedOut atomic.Bool
	timer := time.AfterFunc(t, func() {
		timedOut.Store(true)
		cmd.Process.Kill()
	})
	err := cmd.Wait()
	timer.Stop()
	if timedOut.Load() {
		return 0, errors.New("timed out after " + t.String())
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return exit.ExitCode(), nil
	}
	if err != nil {
		return 0, err
	}
	return 0, nil
}

func recoverIfFatal(file string, res *TestResult) {
	if r := recover(); r != nil {
		*res = TestResult{File: file, Message: "fatal error: " + toString(r)}
	}
}

func toString(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	}
	return "unknown panic"
}

func compareError(file string, err *Error, expectedErr string) TestResult {
	if err != nil && expectedErr == "" {
		return TestResult{
			File:    file,
			Message: "expected no errors, instead found: " + err.ErrCode() + " " + err.Message,
		}
	}
	if err == nil && expectedErr != "" {
		return TestResult{
			File:    file,
			Message: "expected error " + expectedErr + ", instead found nothing",
		}
	}
	if actual := err.ErrCode(); actual != expectedErr {
		return TestResult{
			File:    file,
			Message: "expected error " + expectedErr + ", instead found " + actual,
		}
	}
	return TestResult{File: file, Ok: true}
}

func newResult(file string, e *Error) TestResult {
	return TestResult{
		File:    file,
		Message: e.Message,
	}
}
