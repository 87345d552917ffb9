package messages

import (
	"errors"
	"strings"
	"testing"

	"l2c/core"
	et "l2c/core/errorkind"
)

func TestRecovered(t *testing.T) {
	tests := []struct {
		value any
		code  et.ErrorKind
	}{
		{UnresolvedRegister("v3"), et.UnresolvedRegister},
		{errors.New("index out of range"), et.InternalCompilerError},
		{"plain string", et.InternalCompilerError},
	}
	for _, tt := range tests {
		err := Recovered("main", tt.value)
		if err.Code != tt.code {
			t.Errorf("%v: code %v, want %v", tt.value, err.Code, tt.code)
		}
		if !err.IsInternal() {
			t.Errorf("%v: expected internal severity", tt.value)
		}
		if !strings.HasPrefix(err.String(), "main ") {
			t.Errorf("function missing from %q", err.String())
		}
	}
}

func TestAssemblerFailed(t *testing.T) {
	var err *core.Error = AssemblerFailed("gcc", 1, "undefined reference")
	if err.IsInternal() {
		t.Fatalf("assembler failures are user facing")
	}
	if !strings.Contains(err.Message, "status 1") {
		t.Fatalf("status missing: %q", err.Message)
	}
}
