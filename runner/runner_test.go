package runner

import (
	"os/exec"
	"path/filepath"
	"testing"

	"l2c/config"
)

const testdata = "../testdata"

func TestExpected(t *testing.T) {
	tests := []struct {
		file string
		want expectation
	}{
		{"a/b/straight.x3.json", expectation{status: 3}},
		{"div_neg.x253.json", expectation{status: 253}},
		{"no_main.E010.json", expectation{code: "E010"}},
		{"plain.json", expectation{}},
		{"odd.xyz.json", expectation{}},
	}
	for _, tt := range tests {
		if got := expected(tt.file); got != tt.want {
			t.Errorf("%v: expected %+v, got %+v", tt.file, tt.want, got)
		}
	}
}

func checkAll(t *testing.T, st Stage) {
	t.Helper()
	c := config.Default()
	results, err := TestFolder(testdata, st, c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatalf("no test files found in %v", testdata)
	}
	for _, res := range results {
		if !res.Ok {
			t.Errorf("%v: %v", filepath.Base(res.File), res.Message)
		}
	}
	if Failed(results) != 0 {
		t.Fatalf("%d of %d failed", Failed(results), len(results))
	}
}

func TestAsmStage(t *testing.T) {
	checkAll(t, S_Asm)
}

func TestEndToEnd(t *testing.T) {
	if !Supported() {
		t.Skip("host cannot run linux x86-64 executables")
	}
	if _, err := exec.LookPath(config.Default().CC); err != nil {
		t.Skip("assembler not available: ", err)
	}
	checkAll(t, S_Compile)
}

func TestWrongStatus(t *testing.T) {
	res := compareError("x.E010.json", nil, "E010")
	if res.Ok {
		t.Fatalf("missing error should fail")
	}
}
